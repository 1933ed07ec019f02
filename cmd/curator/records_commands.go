package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"curator/internal/provenance"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect and maintain provenance records",
	}
	cmd.AddCommand(newRecordsListCommand(ctx))
	cmd.AddCommand(newRecordsShowCommand(ctx))
	cmd.AddCommand(newRecordsSearchCommand(ctx))
	cmd.AddCommand(newRecordsHistoryCommand(ctx))
	cmd.AddCommand(newRecordsUpdateCommand(ctx))
	cmd.AddCommand(newRecordsDeleteCommand(ctx))
	return cmd
}

func withStore(ctx *commandContext, run func(cmd *cobra.Command, args []string, store *provenance.Store) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := ctx.ensureConfig()
		if err != nil {
			return err
		}
		store, err := provenance.Open(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		return run(cmd, args, store)
	}
}

func recordRows(records []*provenance.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.FormatInt(record.ID, 10),
			record.Category,
			record.Title,
			record.CurrentPath,
			strconv.Itoa(record.Version),
			record.UpdatedAt.Format("2006-01-02 15:04"),
		})
	}
	return rows
}

var recordHeaders = []string{"ID", "Category", "Title", "Current Path", "Ver", "Updated"}

func newRecordsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all records",
		Args:  cobra.NoArgs,
		RunE: withStore(ctx, func(cmd *cobra.Command, args []string, store *provenance.Store) error {
			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no records")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(recordHeaders, recordRows(records)))
			return nil
		}),
	}
}

func newRecordsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show every field of one record",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(ctx, func(cmd *cobra.Command, args []string, store *provenance.Store) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid record id %q", args[0])
			}
			record, err := store.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("no record with id %d", id)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:            %d (version %d)\n", record.ID, record.Version)
			fmt.Fprintf(out, "original path: %s\n", record.OriginalPath)
			fmt.Fprintf(out, "current path:  %s\n", record.CurrentPath)
			if record.BackupPath != "" {
				fmt.Fprintf(out, "backup path:   %s\n", record.BackupPath)
			}
			fmt.Fprintf(out, "category:      %s\n", record.Category)
			fmt.Fprintf(out, "title:         %s\n", record.Title)
			if len(record.Tags) > 0 {
				fmt.Fprintf(out, "tags:          %s\n", strings.Join(record.Tags, ", "))
			}
			if record.Summary != "" {
				fmt.Fprintf(out, "summary:       %s\n", record.Summary)
			}
			if record.TemplateID != "" {
				fmt.Fprintf(out, "template:      %s\n", record.TemplateID)
			}
			if record.ClassifierModel != "" {
				fmt.Fprintf(out, "classifier:    %s (%s)\n", record.ClassifierModel, record.ClassifierProvider)
			}
			fmt.Fprintf(out, "created:       %s\n", record.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "updated:       %s\n", record.UpdatedAt.Format("2006-01-02 15:04:05"))
			return nil
		}),
	}
}

func newRecordsSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search records by title, summary, category, or current name",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(ctx, func(cmd *cobra.Command, args []string, store *provenance.Store) error {
			records, err := store.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no records match %q\n", args[0])
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(recordHeaders, recordRows(records)))
			return nil
		}),
	}
}

func newRecordsHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the full version history of one record",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(ctx, func(cmd *cobra.Command, args []string, store *provenance.Store) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid record id %q", args[0])
			}
			snapshots, err := store.History(cmd.Context(), id)
			if err != nil {
				return err
			}
			if len(snapshots) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no history for record %d\n", id)
				return nil
			}
			rows := make([][]string, 0, len(snapshots))
			for _, snapshot := range snapshots {
				rows = append(rows, []string{
					strconv.Itoa(snapshot.Version),
					snapshot.Category,
					snapshot.Title,
					snapshot.Path,
					strings.Join(snapshot.Tags, ","),
					snapshot.CreatedAt.Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Ver", "Category", "Title", "Path", "Tags", "Captured"}, rows))
			return nil
		}),
	}
}

func newRecordsUpdateCommand(ctx *commandContext) *cobra.Command {
	var titleFlag, categoryFlag, summaryFlag string
	var tagsFlag []string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Correct record metadata; only flags that are set change",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(ctx, func(cmd *cobra.Command, args []string, store *provenance.Store) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid record id %q", args[0])
			}
			var update provenance.RecordUpdate
			if cmd.Flags().Changed("title") {
				update.Title = &titleFlag
			}
			if cmd.Flags().Changed("category") {
				update.Category = &categoryFlag
			}
			if cmd.Flags().Changed("summary") {
				update.Summary = &summaryFlag
			}
			if cmd.Flags().Changed("tags") {
				update.Tags = &tagsFlag
			}
			record, err := store.UpdateOrganization(cmd.Context(), id, update)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "record %d now at version %d\n", record.ID, record.Version)
			return nil
		}),
	}
	cmd.Flags().StringVar(&titleFlag, "title", "", "New title")
	cmd.Flags().StringVar(&categoryFlag, "category", "", "New category")
	cmd.Flags().StringVar(&summaryFlag, "summary", "", "New summary")
	cmd.Flags().StringSliceVar(&tagsFlag, "tags", nil, "Replacement tag set")
	return cmd
}

func newRecordsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record and its entire history",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(ctx, func(cmd *cobra.Command, args []string, store *provenance.Store) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid record id %q", args[0])
			}
			if err := store.DeleteRecord(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted record %d\n", id)
			return nil
		}),
	}
}
