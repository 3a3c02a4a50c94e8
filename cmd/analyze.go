package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"training-analyzer/services"
	"training-analyzer/storage"
)

func newAnalyzeCommand(a *app) *cobra.Command {
	var (
		save    bool
		csvPath string
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Print per-session averages of a training export",
		Long: `Analyze reads a CSV or XLSX export, groups its rows by session and prints
the average of every numeric metric per session.

With --save the sessions are also written to the report store; with --csv
the averages are written to a CSV file as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.analyze(cmd, args[0], save, csvPath)
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "save the sessions to the report store")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write the averages to this CSV file")
	return cmd
}

func (a *app) analyze(cmd *cobra.Command, path string, save bool, csvPath string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	analyzer := services.NewAnalyzer(a.table, a.logger, nil)
	analysis, err := analyzer.Analyze(ctx, filepath.Base(path), f)
	if err != nil {
		return err
	}

	formatter := services.NewFormatter(a.table)
	services.NewSummaryPrinter(formatter).Print(out, analysis)

	if csvPath != "" {
		w, err := storage.NewCSVFileWriter(csvPath, formatter.Unit)
		if err != nil {
			return err
		}
		if err := w.WriteAnalysis(analysis); err != nil {
			w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		fmt.Fprintf(out, "  Averages written to %s\n", csvPath)
	}

	if save {
		reports := a.reports(ctx, nil)
		defer reports.Close()

		ids, err := reports.Save(ctx, analysis)
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(out, "  The data was saved successfully (%d sessions).\n", len(ids))
		for _, id := range ids {
			fmt.Fprintf(out, "    %s\n", id)
		}
	}
	return nil
}
