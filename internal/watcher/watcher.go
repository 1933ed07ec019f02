package watcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"curator/internal/config"
	"curator/internal/logging"
	"curator/internal/services"
	"curator/internal/templates"
)

// EventType discriminates watcher events.
type EventType string

const (
	// FileAppeared means a new non-hidden file finished writing under a
	// watched base path.
	FileAppeared EventType = "file_appeared"
	// WatchError means the underlying filesystem notification failed for one
	// template. Other watches keep running.
	WatchError EventType = "watch_error"
)

// Event is delivered on the watcher's shared channel.
type Event struct {
	Type     EventType
	Path     string
	FileName string
	Template templates.Template
	Err      error
}

// Watcher monitors template base paths recursively and emits FileAppeared
// events once new files have been stable for the quiescence window.
type Watcher struct {
	quiescence time.Duration
	logger     *slog.Logger
	events     chan Event

	mu      sync.Mutex
	watches map[string]*watch
	stopped bool

	stopOnce sync.Once
	wg       sync.WaitGroup

	// emitMu guards the events channel against a close racing an emit from a
	// quiescence timer goroutine, which the WaitGroup does not track.
	emitMu sync.RWMutex
	closed bool
}

// watch is the per-template monitoring state.
type watch struct {
	template templates.Template
	fw       *fsnotify.Watcher
	done     chan struct{}

	mu      sync.Mutex
	pending map[string]*pendingFile
}

// pendingFile tracks a file waiting out the quiescence window.
type pendingFile struct {
	timer   *time.Timer
	size    int64
	modTime time.Time
}

// New creates a watcher. Events are buffered per cfg.Watch.EventBuffer so a
// slow consumer does not immediately stall the notification loop.
func New(cfg *config.Config, logger *slog.Logger) *Watcher {
	buffer := cfg.Watch.EventBuffer
	if buffer <= 0 {
		buffer = 64
	}
	quiescence := time.Duration(cfg.Watch.QuiescenceMS) * time.Millisecond
	if quiescence <= 0 {
		quiescence = 2 * time.Second
	}
	return &Watcher{
		quiescence: quiescence,
		logger:     logging.NewComponentLogger(logger, "watcher"),
		events:     make(chan Event, buffer),
		watches:    make(map[string]*watch),
	}
}

// Events returns the shared event channel. It is closed by StopAll after all
// watch loops have drained.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Watch begins monitoring a template's base path recursively. Watching an
// already-watched template id is a no-op. An inaccessible base path fails
// with ErrPathUnavailable without affecting other watches.
func (w *Watcher) Watch(tpl templates.Template) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return services.Wrap(services.ErrValidation, "watcher", "watch", "watcher already stopped", nil)
	}
	if _, exists := w.watches[tpl.ID]; exists {
		return nil
	}

	info, err := os.Stat(tpl.BasePath)
	if err != nil || !info.IsDir() {
		return services.Wrap(services.ErrPathUnavailable, "watcher", "watch",
			"base path not accessible: "+tpl.BasePath, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return services.Wrap(services.ErrPathUnavailable, "watcher", "watch", "create notifier", err)
	}
	if err := addDirsRecursive(fw, tpl.BasePath); err != nil {
		fw.Close()
		return services.Wrap(services.ErrPathUnavailable, "watcher", "watch",
			"register "+tpl.BasePath, err)
	}

	entry := &watch{
		template: tpl,
		fw:       fw,
		done:     make(chan struct{}),
		pending:  make(map[string]*pendingFile),
	}
	w.watches[tpl.ID] = entry
	w.wg.Add(1)
	go w.run(entry)

	w.logger.Info("watch started",
		logging.String(logging.FieldTemplate, tpl.Name),
		logging.String("base_path", tpl.BasePath))
	return nil
}

// Unwatch stops monitoring one template. Unknown or already-stopped ids are
// a no-op.
func (w *Watcher) Unwatch(templateID string) {
	w.mu.Lock()
	entry, ok := w.watches[templateID]
	if ok {
		delete(w.watches, templateID)
	}
	w.mu.Unlock()
	if ok {
		entry.stop()
	}
}

// StopAll stops every watch and closes the event channel. Safe to call more
// than once.
func (w *Watcher) StopAll() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		entries := make([]*watch, 0, len(w.watches))
		for id, entry := range w.watches {
			entries = append(entries, entry)
			delete(w.watches, id)
		}
		w.mu.Unlock()

		for _, entry := range entries {
			entry.stop()
		}
		w.wg.Wait()

		w.emitMu.Lock()
		w.closed = true
		close(w.events)
		w.emitMu.Unlock()
	})
}

func (entry *watch) stop() {
	close(entry.done)
	entry.fw.Close()
	entry.mu.Lock()
	for path, pending := range entry.pending {
		pending.timer.Stop()
		delete(entry.pending, path)
	}
	entry.mu.Unlock()
}

func (w *Watcher) run(entry *watch) {
	defer w.wg.Done()
	for {
		select {
		case <-entry.done:
			return
		case ev, ok := <-entry.fw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(entry, ev)
		case err, ok := <-entry.fw.Errors:
			if !ok {
				return
			}
			w.emit(entry, Event{Type: WatchError, Template: entry.template, Err: err})
		}
	}
}

func (w *Watcher) handleFSEvent(entry *watch, ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		// Gone already; a rapid create+delete is not worth reporting.
		return
	}

	if info.IsDir() {
		if ev.Op&fsnotify.Create == 0 || hidden(ev.Name) {
			return
		}
		if err := addDirsRecursive(entry.fw, ev.Name); err != nil {
			w.logger.Warn("watch new directory failed",
				logging.String("path", ev.Name), logging.Error(err))
			return
		}
		// Files dropped into the directory before the watch was registered
		// would otherwise be missed.
		w.scanDir(entry, ev.Name)
		return
	}

	if hidden(ev.Name) {
		return
	}
	w.track(entry, ev.Name, info)
}

// scanDir queues every existing non-hidden file under a freshly watched
// directory for quiescence tracking.
func (w *Watcher) scanDir(entry *watch, dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && hidden(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden(path) {
			return nil
		}
		if info, statErr := os.Stat(path); statErr == nil {
			w.track(entry, path, info)
		}
		return nil
	})
}

// track (re)arms the quiescence timer for path. Every new write resets the
// window, so a file being streamed in chunks fires exactly once, at the end.
func (w *Watcher) track(entry *watch, path string, info os.FileInfo) {
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if pending, ok := entry.pending[path]; ok {
		pending.size = info.Size()
		pending.modTime = info.ModTime()
		pending.timer.Reset(w.quiescence)
		return
	}

	pending := &pendingFile{size: info.Size(), modTime: info.ModTime()}
	pending.timer = time.AfterFunc(w.quiescence, func() {
		w.settle(entry, path)
	})
	entry.pending[path] = pending
}

// settle fires after a quiet window. The file is re-checked: if it changed
// since the last observation the window restarts, otherwise it is reported.
func (w *Watcher) settle(entry *watch, path string) {
	select {
	case <-entry.done:
		return
	default:
	}

	entry.mu.Lock()
	pending, ok := entry.pending[path]
	if !ok {
		entry.mu.Unlock()
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(entry.pending, path)
		entry.mu.Unlock()
		return
	}
	if info.Size() != pending.size || !info.ModTime().Equal(pending.modTime) {
		pending.size = info.Size()
		pending.modTime = info.ModTime()
		pending.timer.Reset(w.quiescence)
		entry.mu.Unlock()
		return
	}
	delete(entry.pending, path)
	entry.mu.Unlock()

	w.emit(entry, Event{
		Type:     FileAppeared,
		Path:     path,
		FileName: filepath.Base(path),
		Template: entry.template,
	})
}

func (w *Watcher) emit(entry *watch, ev Event) {
	w.emitMu.RLock()
	defer w.emitMu.RUnlock()
	if w.closed {
		return
	}
	select {
	case <-entry.done:
	case w.events <- ev:
		w.logger.Debug("event emitted",
			logging.String(logging.FieldEventType, string(ev.Type)),
			logging.String("path", ev.Path),
			logging.String(logging.FieldTemplate, entry.template.Name))
	}
}

func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(path) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}
