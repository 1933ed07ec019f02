package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"curator/internal/annotate"
	"curator/internal/classify"
	"curator/internal/lockfile"
	"curator/internal/organizer"
	"curator/internal/provenance"
	"curator/internal/templates"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var templateFlag string
	var yesFlag bool
	var contextFlag string

	cmd := &cobra.Command{
		Use:   "organize <file>...",
		Short: "Classify and relocate files interactively",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			guard := lockfile.New(cfg, lockfile.ModeOrganize, logger)
			if err := guard.Acquire(); err != nil {
				return err
			}
			defer guard.Release()

			store, err := provenance.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			tplStore := templates.NewStore(cfg)
			tpl, err := selectTemplate(tplStore, templateFlag)
			if err != nil {
				return err
			}

			provider := classify.NewClient(cfg.Classifier)
			o := organizer.New(cfg, store, provider, annotate.NewFromConfig(cfg), logger)

			var confirmer organizer.Confirmer
			if yesFlag {
				confirmer = organizer.AutoConfirm{}
			} else {
				confirmer = newPromptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
			}

			for _, arg := range args {
				source, absErr := filepath.Abs(arg)
				if absErr != nil {
					return absErr
				}
				tx, orgErr := o.Organize(signalCtx, organizer.Request{
					Path:          source,
					Template:      tpl,
					CustomContext: contextFlag,
				}, confirmer)
				if orgErr != nil {
					return orgErr
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (record %d)\n", source, tx.DestPath, tx.RecordID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&templateFlag, "template", "t", "", "Template name or id (required unless only one template exists)")
	cmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Accept every proposed placement without prompting")
	cmd.Flags().StringVar(&contextFlag, "context", "", "Extra context passed to the classifier")
	return cmd
}

// selectTemplate resolves the --template flag by id first, then by name. With
// no flag a single stored template is used implicitly.
func selectTemplate(store *templates.Store, flag string) (templates.Template, error) {
	all, err := store.List()
	if err != nil {
		return templates.Template{}, err
	}
	if flag == "" {
		if len(all) == 1 {
			return all[0], nil
		}
		return templates.Template{}, fmt.Errorf("%d templates defined; pick one with --template", len(all))
	}
	for _, tpl := range all {
		if tpl.ID == flag {
			return tpl, nil
		}
	}
	for _, tpl := range all {
		if tpl.Name == flag {
			return tpl, nil
		}
	}
	return templates.Template{}, fmt.Errorf("no template named %q", flag)
}
