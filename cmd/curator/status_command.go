package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"curator/internal/lockfile"
	"curator/internal/provenance"
	"curator/internal/templates"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show lock, template, and database health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := outputSupportsColor(out)

			for _, mode := range []lockfile.Mode{lockfile.ModeOrganize, lockfile.ModeWatch, lockfile.ModeFileManager} {
				label := fmt.Sprintf("%s lock", mode)
				artifact, alive, exists, inspectErr := lockfile.Inspect(cfg, mode)
				switch {
				case inspectErr != nil:
					fmt.Fprintln(out, renderStatusLine(label, statusWarn, "malformed artifact", colorize))
				case !exists:
					fmt.Fprintln(out, renderStatusLine(label, statusOK, "free", colorize))
				case alive:
					uptime := time.Since(time.UnixMilli(artifact.StartTime)).Round(time.Second)
					fmt.Fprintln(out, renderStatusLine(label, statusInfo,
						fmt.Sprintf("held by pid %d (up %s)", artifact.PID, uptime), colorize))
				default:
					fmt.Fprintln(out, renderStatusLine(label, statusWarn,
						fmt.Sprintf("stale (pid %d dead)", artifact.PID), colorize))
				}
			}

			all, err := templates.NewStore(cfg).List()
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("templates", statusError, err.Error(), colorize))
			} else {
				watched := 0
				for _, tpl := range all {
					if tpl.Watch {
						watched++
					}
				}
				fmt.Fprintln(out, renderStatusLine("templates", statusOK,
					fmt.Sprintf("%d defined, %d watched", len(all), watched), colorize))
			}

			store, err := provenance.Open(cfg)
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("database", statusError, err.Error(), colorize))
				return nil
			}
			defer store.Close()

			health, err := store.CheckHealth(cmd.Context())
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("database", statusError, err.Error(), colorize))
				return nil
			}
			kind := statusOK
			if !health.IntegrityCheck {
				kind = statusError
			}
			fmt.Fprintln(out, renderStatusLine("database", kind,
				fmt.Sprintf("%d records, %d snapshots", health.TotalRecords, health.TotalSnapshots), colorize))
			return nil
		},
	}
}
