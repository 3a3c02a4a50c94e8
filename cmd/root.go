// Package cmd holds the training-analyzer command line.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"training-analyzer/config"
	"training-analyzer/metrics"
	"training-analyzer/services"
	"training-analyzer/storage"
	"training-analyzer/utils"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// app is what every subcommand needs once flags and environment are read.
type app struct {
	cfg    *config.Config
	table  *config.Table
	logger *utils.Logger
}

// NewRootCommand creates the root command with all subcommands attached.
func NewRootCommand() *cobra.Command {
	a := &app{}
	var (
		logLevel  string
		tablePath string
	)

	cmd := &cobra.Command{
		Use:   "training-analyzer",
		Short: "Summarise training CSV exports per session",
		Long: `training-analyzer reads a CSV (or XLSX) export of training data, groups
the rows by session and averages every numeric metric.

Run "serve" for the web page, or "analyze" to print a summary here.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(logLevel, tablePath)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	cmd.PersistentFlags().StringVar(&tablePath, "analysis-config", "", "YAML analysis table; overrides ANALYSIS_CONFIG")

	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newAnalyzeCommand(a))
	cmd.AddCommand(newReportsCommand(a))

	return cmd
}

func (a *app) setup(logLevel, tablePath string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	if tablePath == "" {
		tablePath = cfg.AnalysisConfigPath
	}

	table, err := config.LoadTable(tablePath)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.table = table
	a.logger = utils.NewLoggerWithLevel(utils.ParseLevel(logLevel))
	return nil
}

// reports opens the configured store. A store that cannot be opened leaves
// the service running without one; every store action then reports it.
func (a *app) reports(ctx context.Context, rec *metrics.Recorder) *services.ReportService {
	opts := services.ReportOptions{
		MaxLoadRecords: a.table.MaxLoadRecords,
		KeepRawData:    a.cfg.StoreRawData,
		Excluded:       a.table.ExcludeColumns,
	}
	store, err := storage.Open(ctx, a.cfg, a.table.Collection, a.logger)
	if err != nil {
		opts.Unavailable = err
	}
	return services.NewReportService(store, a.cfg.StoreDriver, opts, a.logger, rec)
}
