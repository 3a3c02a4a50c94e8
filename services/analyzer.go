package services

import (
	"context"
	"io"
	"time"

	"training-analyzer/apperrors"
	"training-analyzer/config"
	"training-analyzer/metrics"
	"training-analyzer/models"
	"training-analyzer/parser"
	"training-analyzer/utils"
)

// Analyzer runs the parse, session detection and aggregation pipeline.
type Analyzer struct {
	table      *config.Table
	aggregator *Aggregator
	logger     *utils.Logger
	metrics    *metrics.Recorder
	now        func() time.Time
}

// NewAnalyzer creates an Analyzer. rec may be nil.
func NewAnalyzer(table *config.Table, logger *utils.Logger, rec *metrics.Recorder) *Analyzer {
	return &Analyzer{
		table:      table,
		aggregator: NewAggregator(logger),
		logger:     logger,
		metrics:    rec,
		now:        time.Now,
	}
}

// Analyze parses the file called name from r and aggregates it. Parse
// warnings are logged, never returned.
func (a *Analyzer) Analyze(ctx context.Context, name string, r io.Reader) (*models.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.logger.Info("[analyzer] Analyzing %s", name)

	parsed, err := parser.ParseFile(name, r, a.table.Parse)
	if err != nil {
		a.metrics.ObserveAnalysis(err, 0)
		return nil, err
	}
	for _, w := range parsed.Warnings {
		a.logger.Warn("[analyzer] %s: %s", name, w)
	}

	analysis, err := a.AnalyzeRows(name, parsed.Headers, parsed.Rows)
	a.metrics.ObserveAnalysis(err, len(parsed.Rows))
	if err != nil {
		return nil, err
	}

	a.logger.Info("[analyzer] %s: %d sessions from %d records",
		name, analysis.TotalSessions, analysis.TotalRecords)
	return analysis, nil
}

// AnalyzeRows detects the session column in headers and aggregates rows.
func (a *Analyzer) AnalyzeRows(source string, headers []string, rows []models.Row) (*models.Analysis, error) {
	if len(rows) == 0 {
		return nil, apperrors.NoData()
	}

	column, err := FindSessionColumn(headers, a.table.SessionColumnNames, a.table.SessionColumnHints)
	if err != nil {
		a.logger.Warn("[analyzer] %s: no session column among %v", source, headers)
		return nil, err
	}
	a.logger.Debug("[analyzer] %s: session column %q", source, column)

	result, err := a.aggregator.Aggregate(rows, column, a.table.ExcludeColumns)
	if err != nil {
		return nil, err
	}
	return models.NewAnalysis(source, column, result, a.now()), nil
}
