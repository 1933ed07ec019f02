package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"curator/internal/annotate"
	"curator/internal/classify"
	"curator/internal/daemon"
	"curator/internal/lockfile"
	"curator/internal/organizer"
	"curator/internal/provenance"
	"curator/internal/templates"
	"curator/internal/watcher"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the watch daemon over all watch-enabled templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			runID := time.Now().UTC().Format("20060102T150405Z")
			logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("curator-watch-%s.log", runID))
			logger, err := newLogger(cfg, "stdout", logPath)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			store, err := provenance.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			guard := lockfile.New(cfg, lockfile.ModeWatch, logger)
			w := watcher.New(cfg, logger)
			provider := classify.NewClient(cfg.Classifier)
			o := organizer.New(cfg, store, provider, annotate.NewFromConfig(cfg), logger)
			d := daemon.New(cfg, guard, templates.NewStore(cfg), w, o, logger)

			return d.Run(signalCtx)
		},
	}
}
