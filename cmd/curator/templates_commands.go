package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"curator/internal/templates"
)

func newTemplatesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage organization templates",
	}
	cmd.AddCommand(newTemplatesListCommand(ctx))
	cmd.AddCommand(newTemplatesAddCommand(ctx))
	cmd.AddCommand(newTemplatesUpdateCommand(ctx))
	cmd.AddCommand(newTemplatesDeleteCommand(ctx))
	return cmd
}

func newTemplatesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			all, err := templates.NewStore(cfg).List()
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no templates defined")
				return nil
			}
			rows := make([][]string, 0, len(all))
			for _, tpl := range all {
				rows = append(rows, []string{
					tpl.ID,
					tpl.Name,
					tpl.BasePath,
					tpl.NamingPattern,
					tpl.CaseStyle,
					strconv.FormatBool(tpl.AutoOrganize),
					strconv.FormatBool(tpl.Watch),
					strings.Join(tpl.FolderWhitelist, ","),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Base Path", "Pattern", "Case", "Auto", "Watch", "Folders"}, rows))
			return nil
		},
	}
}

type templateFlags struct {
	name    string
	base    string
	pattern string
	style   string
	auto    bool
	watch   bool
	folders []string
}

func (f *templateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Template name")
	cmd.Flags().StringVar(&f.base, "base", "", "Base directory files are organized under")
	cmd.Flags().StringVar(&f.pattern, "pattern", "", "Naming pattern with {token} placeholders")
	cmd.Flags().StringVar(&f.style, "case", "", "Case style: snake, lower_snake, upper_snake, kebab, camel, pascal")
	cmd.Flags().BoolVar(&f.auto, "auto", false, "Auto-organize without confirmation in watch mode")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "Include this template in the watch daemon")
	cmd.Flags().StringSliceVar(&f.folders, "folders", nil, "Folder whitelist (comma separated, first entry is the fallback)")
}

func newTemplatesAddCommand(ctx *commandContext) *cobra.Command {
	var flags templateFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			created, err := templates.NewStore(cfg).Add(templates.Template{
				Name:            flags.name,
				BasePath:        flags.base,
				NamingPattern:   flags.pattern,
				CaseStyle:       flags.style,
				AutoOrganize:    flags.auto,
				Watch:           flags.watch,
				FolderWhitelist: flags.folders,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added template %s (%s)\n", created.Name, created.ID)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newTemplatesUpdateCommand(ctx *commandContext) *cobra.Command {
	var flags templateFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a template; only flags that are set change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store := templates.NewStore(cfg)
			tpl, err := store.Get(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("name") {
				tpl.Name = flags.name
			}
			if cmd.Flags().Changed("base") {
				tpl.BasePath = flags.base
			}
			if cmd.Flags().Changed("pattern") {
				tpl.NamingPattern = flags.pattern
			}
			if cmd.Flags().Changed("case") {
				tpl.CaseStyle = flags.style
			}
			if cmd.Flags().Changed("auto") {
				tpl.AutoOrganize = flags.auto
			}
			if cmd.Flags().Changed("watch") {
				tpl.Watch = flags.watch
			}
			if cmd.Flags().Changed("folders") {
				tpl.FolderWhitelist = flags.folders
			}
			if err := store.Update(tpl); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated template %s\n", tpl.ID)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newTemplatesDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := templates.NewStore(cfg).Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted template %s\n", args[0])
			return nil
		},
	}
}
