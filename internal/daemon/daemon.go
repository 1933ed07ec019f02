package daemon

import (
	"context"
	"log/slog"
	"sync"

	"curator/internal/config"
	"curator/internal/lockfile"
	"curator/internal/logging"
	"curator/internal/organizer"
	"curator/internal/templates"
	"curator/internal/watcher"
)

// Daemon composes the singleton guard, the directory watcher, and the
// organizer into the long-running watch service. Each watcher event is
// processed as an independent unit of work; a failure organizing one file
// never stops the watches.
type Daemon struct {
	cfg       *config.Config
	guard     *lockfile.Guard
	templates *templates.Store
	watcher   *watcher.Watcher
	organizer *organizer.Organizer
	logger    *slog.Logger

	wg sync.WaitGroup
}

// New wires a daemon from already-constructed components.
func New(cfg *config.Config, guard *lockfile.Guard, store *templates.Store, w *watcher.Watcher, o *organizer.Organizer, logger *slog.Logger) *Daemon {
	return &Daemon{
		cfg:       cfg,
		guard:     guard,
		templates: store,
		watcher:   w,
		organizer: o,
		logger:    logging.NewComponentLogger(logger, "daemon"),
	}
}

// Run acquires the watch-mode lock, starts a watch for every template with
// watching enabled, and consumes events until ctx is cancelled. The lock is
// released and all watches stopped before Run returns.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.guard.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := d.guard.Release(); err != nil {
			d.logger.Warn("lock release failed", logging.Error(err))
		}
	}()

	watched, err := d.templates.Watched()
	if err != nil {
		return err
	}
	started := 0
	for _, tpl := range watched {
		if err := d.watcher.Watch(tpl); err != nil {
			// One missing base path must not take down the other watches.
			d.logger.Error("watch failed",
				logging.String(logging.FieldTemplate, tpl.Name),
				logging.String("base_path", tpl.BasePath),
				logging.Error(err))
			continue
		}
		started++
	}
	d.logger.Info("daemon started",
		logging.Int("templates_watched", started),
		logging.Int("templates_skipped", len(watched)-started))

	go func() {
		<-ctx.Done()
		d.watcher.StopAll()
	}()

	for ev := range d.watcher.Events() {
		switch ev.Type {
		case watcher.FileAppeared:
			d.wg.Add(1)
			go func(ev watcher.Event) {
				defer d.wg.Done()
				d.handleFile(ctx, ev)
			}(ev)
		case watcher.WatchError:
			d.logger.Error("watch error",
				logging.String(logging.FieldTemplate, ev.Template.Name),
				logging.Error(ev.Err))
		}
	}

	d.wg.Wait()
	d.logger.Info("daemon stopped")
	return ctx.Err()
}

// handleFile runs one organize transaction. Templates with auto-organize get
// an auto-confirming run; others are classified and left at path_resolved for
// manual review.
func (d *Daemon) handleFile(ctx context.Context, ev watcher.Event) {
	var confirmer organizer.Confirmer
	if ev.Template.AutoOrganize {
		confirmer = organizer.AutoConfirm{}
	}

	tx, err := d.organizer.Organize(ctx, organizer.Request{
		Path:     ev.Path,
		Template: ev.Template,
	}, confirmer)
	if err != nil {
		d.logger.Error("organize failed",
			logging.String("path", ev.Path),
			logging.String(logging.FieldTemplate, ev.Template.Name),
			logging.String("state", string(tx.State)),
			logging.Error(err))
		return
	}
	if tx.State == organizer.StatePathResolved {
		d.logger.Info("left for manual review",
			logging.String("path", ev.Path),
			logging.String("proposed", tx.DestPath))
	}
}
