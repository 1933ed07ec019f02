package testsupport

import (
	"path/filepath"
	"testing"

	"curator/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ConfigDir = filepath.Join(base, "config")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.BackupDir = filepath.Join(base, "data", "backups")
	cfg.Paths.LogDir = filepath.Join(base, "data", "logs")
	cfg.Watch.QuiescenceMS = 50

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithQuiescence overrides the watcher quiescence window in milliseconds.
func WithQuiescence(ms int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Watch.QuiescenceMS = ms
	}
}

// WithCopyMode makes organize copy files instead of moving them.
func WithCopyMode() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Organize.CopyInsteadOfMove = true
	}
}
