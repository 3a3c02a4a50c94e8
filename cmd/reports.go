package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"training-analyzer/services"
	"training-analyzer/storage"
)

func newReportsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List or delete saved session summaries",
	}
	cmd.AddCommand(newReportsListCommand(a))
	cmd.AddCommand(newReportsDeleteCommand(a))
	return cmd
}

func newReportsListCommand(a *app) *cobra.Command {
	var (
		limit   int
		csvPath string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recently saved sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			reports := a.reports(ctx, nil)
			defer reports.Close()

			records, err := reports.LoadRecent(ctx, limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				color.New(color.FgYellow).Fprintln(out, "No saved data.")
				return nil
			}

			formatter := services.NewFormatter(a.table)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSESSION\tROWS\tSAVED\tAVERAGES")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d metrics\n",
					r.ID, r.SessionName, r.RowCount,
					r.CreatedAt.In(a.cfg.Location()).Format("2006-01-02 15:04"), len(r.Averages))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if csvPath != "" {
				w, err := storage.NewCSVFileWriter(csvPath, formatter.Unit)
				if err != nil {
					return err
				}
				if err := w.WriteRecords(records); err != nil {
					w.Close()
					return err
				}
				if err := w.Close(); err != nil {
					return err
				}
				fmt.Fprintf(out, "Records written to %s\n", csvPath)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "number of records to show (default and cap: max_load_records)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write the listed records to this CSV file")
	return cmd
}

func newReportsDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one saved session by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			reports := a.reports(ctx, nil)
			defer reports.Close()

			if err := reports.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
