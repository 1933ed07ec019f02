package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"curator/internal/config"
	"curator/internal/logging"
	"curator/internal/services"
)

// Mode identifies an independent operating mode. Each mode owns its own lock
// artifact, so different modes may run concurrently while same-mode duplicates
// are rejected.
type Mode string

const (
	ModeOrganize    Mode = "organize"
	ModeWatch       Mode = "watch"
	ModeFileManager Mode = "filemanager"
)

// Artifact is the on-disk lock record. It is the sole source of truth for
// "is another instance of this mode alive".
type Artifact struct {
	PID       int    `json:"pid"`
	StartTime int64  `json:"startTime"`
	Command   string `json:"command"`
}

// AlreadyRunningError reports that another live process holds the mode lock.
type AlreadyRunningError struct {
	Mode    Mode
	PID     int
	Command string
	Uptime  time.Duration
	Path    string
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf(
		"another curator %s instance is running (pid %d, command %q, up %s); to take over: kill %d && rm %s",
		e.Mode, e.PID, e.Command, e.Uptime.Round(time.Second), e.PID, e.Path,
	)
}

func (e *AlreadyRunningError) Unwrap() error { return services.ErrLockContention }

// Guard provides cross-process mutual exclusion for one operating mode using
// a PID-stamped JSON artifact. A flock side-lock makes the read-probe-write
// sequence atomic between two processes reclaiming the same stale artifact.
type Guard struct {
	mode   Mode
	path   string
	flk    *flock.Flock
	logger *slog.Logger

	mu       sync.Mutex
	acquired bool
}

// New constructs a guard for the given mode. Nothing is locked until Acquire.
func New(cfg *config.Config, mode Mode, logger *slog.Logger) *Guard {
	path := cfg.LockPath(string(mode))
	return &Guard{
		mode:   mode,
		path:   path,
		flk:    flock.New(path + ".flock"),
		logger: logging.NewComponentLogger(logger, "lockfile"),
	}
}

// Path returns the artifact location.
func (g *Guard) Path() string { return g.path }

// Acquire takes the mode lock. A stale artifact (dead PID or unparseable
// content) is deleted and the acquisition retried. A live same-mode holder
// yields an AlreadyRunningError tagged with services.ErrLockContention.
func (g *Guard) Acquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.acquired {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(g.path), 0o755); err != nil {
		return services.Wrap(services.ErrStorage, "lockfile", "acquire", "create lock directory", err)
	}
	if err := g.flk.Lock(); err != nil {
		return services.Wrap(services.ErrStorage, "lockfile", "acquire", "flock side lock", err)
	}
	defer func() {
		_ = g.flk.Unlock()
	}()

	existing, err := readArtifact(g.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// No holder; fall through to create.
	case err != nil:
		// Malformed artifact: treat as stale, never fatal.
		g.logger.Warn("removing malformed lock artifact",
			logging.String("path", g.path),
			logging.Error(err),
		)
		if rmErr := os.Remove(g.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return services.Wrap(services.ErrStorage, "lockfile", "acquire", "remove malformed artifact", rmErr)
		}
	default:
		if existing.PID == os.Getpid() {
			g.acquired = true
			return nil
		}
		if pidAlive(existing.PID) {
			return &AlreadyRunningError{
				Mode:    g.mode,
				PID:     existing.PID,
				Command: existing.Command,
				Uptime:  time.Since(time.UnixMilli(existing.StartTime)),
				Path:    g.path,
			}
		}
		g.logger.Info("reclaiming stale lock artifact",
			logging.String("path", g.path),
			logging.Int("stale_pid", existing.PID),
		)
		if rmErr := os.Remove(g.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return services.Wrap(services.ErrStorage, "lockfile", "acquire", "remove stale artifact", rmErr)
		}
	}

	if err := writeArtifact(g.path, Artifact{
		PID:       os.Getpid(),
		StartTime: time.Now().UnixMilli(),
		Command:   strings.Join(os.Args, " "),
	}); err != nil {
		return services.Wrap(services.ErrStorage, "lockfile", "acquire", "write artifact", err)
	}
	g.acquired = true
	return nil
}

// Release deletes the artifact only when its recorded PID is our own, so a
// process that lost a stale-reclaim race cannot release another's lock.
// Release is idempotent and safe to call from every exit path.
func (g *Guard) Release() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.acquired {
		return nil
	}
	g.acquired = false

	existing, err := readArtifact(g.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err == nil && existing.PID != os.Getpid() {
		g.logger.Warn("lock artifact owned by another process; leaving in place",
			logging.String("path", g.path),
			logging.Int("owner_pid", existing.PID),
		)
		return nil
	}
	if rmErr := os.Remove(g.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
		return fmt.Errorf("remove lock artifact: %w", rmErr)
	}
	return nil
}

// Inspect reports the lock state of one mode without touching it: whether an
// artifact exists, its contents, and whether the recorded PID is alive.
func Inspect(cfg *config.Config, mode Mode) (artifact Artifact, alive bool, exists bool, err error) {
	artifact, err = readArtifact(cfg.LockPath(string(mode)))
	if errors.Is(err, fs.ErrNotExist) {
		return Artifact{}, false, false, nil
	}
	if err != nil {
		return Artifact{}, false, true, err
	}
	return artifact, pidAlive(artifact.PID), true, nil
}

func readArtifact(path string) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, err
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return Artifact{}, fmt.Errorf("parse lock artifact: %w", err)
	}
	if artifact.PID <= 0 {
		return Artifact{}, fmt.Errorf("parse lock artifact: missing pid")
	}
	return artifact, nil
}

func writeArtifact(path string, artifact Artifact) error {
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// pidAlive probes a PID with a zero-effect signal. EPERM still means the
// process exists, just owned by someone else.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, unix.EPERM)
}
