package testsupport

import (
	"testing"

	"curator/internal/config"
	"curator/internal/provenance"
)

// MustOpenStore opens a provenance.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *provenance.Store {
	t.Helper()

	store, err := provenance.Open(cfg)
	if err != nil {
		t.Fatalf("provenance.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
