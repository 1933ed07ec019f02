package lockfile

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"curator/internal/logging"
	"curator/internal/services"
	"curator/internal/testsupport"
)

func TestAcquireRelease(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	guard := New(cfg, ModeOrganize, logging.NewNop())

	if err := guard.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := os.Stat(guard.Path()); err != nil {
		t.Fatalf("expected artifact on disk: %v", err)
	}
	if err := guard.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(guard.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected artifact removed, got %v", err)
	}
	// Idempotent release.
	if err := guard.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
}

func TestAcquireRejectsLiveHolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	guard := New(cfg, ModeWatch, logging.NewNop())

	// Simulate a live holder: our own PID is definitely alive, but another
	// guard instance must treat it as a foreign holder. Use PID 1 (init),
	// alive on any Linux box, owned by root so the probe returns EPERM.
	artifact := Artifact{PID: 1, StartTime: time.Now().Add(-time.Minute).UnixMilli(), Command: "curator watch"}
	writeTestArtifact(t, guard.Path(), artifact)

	err := guard.Acquire()
	if err == nil {
		t.Fatal("expected contention error")
	}
	if !errors.Is(err, services.ErrLockContention) {
		t.Fatalf("expected lock contention marker, got %v", err)
	}
	var running *AlreadyRunningError
	if !errors.As(err, &running) {
		t.Fatalf("expected AlreadyRunningError, got %T", err)
	}
	if running.PID != 1 || running.Command != "curator watch" {
		t.Fatalf("unexpected holder details: %+v", running)
	}
}

func TestAcquireReclaimsStalePID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	guard := New(cfg, ModeWatch, logging.NewNop())

	// PIDs near the kernel max are effectively never allocated in a test run.
	writeTestArtifact(t, guard.Path(), Artifact{PID: 1 << 22, StartTime: time.Now().UnixMilli(), Command: "dead"})

	if err := guard.Acquire(); err != nil {
		t.Fatalf("expected stale reclamation, got %v", err)
	}
	t.Cleanup(func() { _ = guard.Release() })

	data, err := os.ReadFile(guard.Path())
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		t.Fatalf("parse artifact: %v", err)
	}
	if artifact.PID != os.Getpid() {
		t.Fatalf("expected own pid %d, got %d", os.Getpid(), artifact.PID)
	}
}

func TestAcquireReclaimsMalformedArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	guard := New(cfg, ModeFileManager, logging.NewNop())

	if err := os.MkdirAll(filepath.Dir(guard.Path()), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(guard.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write malformed: %v", err)
	}

	if err := guard.Acquire(); err != nil {
		t.Fatalf("expected malformed artifact treated as stale, got %v", err)
	}
	t.Cleanup(func() { _ = guard.Release() })
}

func TestReleaseLeavesForeignArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	guard := New(cfg, ModeOrganize, logging.NewNop())

	if err := guard.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	// Another process overwrote the artifact after a stale-reclaim race.
	writeTestArtifact(t, guard.Path(), Artifact{PID: 1, StartTime: time.Now().UnixMilli(), Command: "other"})

	if err := guard.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(guard.Path()); err != nil {
		t.Fatalf("expected foreign artifact left in place: %v", err)
	}
}

func TestModesAreIndependent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	organize := New(cfg, ModeOrganize, logging.NewNop())
	watch := New(cfg, ModeWatch, logging.NewNop())

	if err := organize.Acquire(); err != nil {
		t.Fatalf("organize Acquire: %v", err)
	}
	t.Cleanup(func() { _ = organize.Release() })
	if err := watch.Acquire(); err != nil {
		t.Fatalf("watch mode should not contend with organize mode: %v", err)
	}
	t.Cleanup(func() { _ = watch.Release() })
}

func writeTestArtifact(t *testing.T, path string, artifact Artifact) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data, err := json.Marshal(artifact)
	if err != nil {
		t.Fatalf("marshal artifact: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}
