package services

import (
	"strings"

	"training-analyzer/apperrors"
	"training-analyzer/models"
	"training-analyzer/utils"
)

// Aggregator groups rows by session and averages their numeric columns.
type Aggregator struct {
	logger *utils.Logger
}

// NewAggregator creates an Aggregator with the given logger.
func NewAggregator(logger *utils.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate partitions rows by the trimmed value of sessionColumn, in
// first-occurrence order, and averages every other column that parses as a
// number. Columns in excluded are ignored. Metrics with no numeric value in a
// group are omitted from that group's averages.
func (a *Aggregator) Aggregate(rows []models.Row, sessionColumn string, excluded []string) (*models.AnalysisResult, error) {
	if len(rows) == 0 {
		return nil, apperrors.NoData()
	}
	if !hasColumn(rows, sessionColumn) {
		return nil, apperrors.MissingSessionColumn(sessionColumn)
	}

	groups := a.group(rows, sessionColumn)
	if len(groups) == 0 {
		return nil, apperrors.NoValidSessions()
	}

	skip := skipSet(sessionColumn, excluded)

	result := &models.AnalysisResult{Sessions: make([]*models.SessionSummary, 0, len(groups))}
	for _, g := range groups {
		result.Sessions = append(result.Sessions, summarise(g, skip))
	}

	a.logger.Info("[aggregator] Grouped %d rows into %d sessions by %q",
		result.TotalRows(), result.Len(), sessionColumn)
	return result, nil
}

// group drops rows with a blank session value and buckets the rest.
func (a *Aggregator) group(rows []models.Row, sessionColumn string) []*models.SessionGroup {
	index := make(map[string]int)
	var groups []*models.SessionGroup
	dropped := 0

	for _, row := range rows {
		name := row.Text(sessionColumn)
		if name == "" {
			dropped++
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, &models.SessionGroup{Name: name})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}

	if dropped > 0 {
		a.logger.Warn("[aggregator] Dropped %d rows with a blank %q value", dropped, sessionColumn)
	}
	return groups
}

func summarise(g *models.SessionGroup, skip map[string]struct{}) *models.SessionSummary {
	stats := make(map[string]*models.MetricStat)
	var order []string

	for _, row := range g.Rows {
		for _, key := range row.Keys() {
			if _, excluded := skip[key]; excluded {
				continue
			}
			v, ok := row.Number(key)
			if !ok {
				continue
			}
			st, seen := stats[key]
			if !seen {
				st = &models.MetricStat{}
				stats[key] = st
				order = append(order, key)
			}
			st.Add(v)
		}
	}

	averages := make(models.Averages, 0, len(order))
	for _, key := range order {
		if avg, ok := stats[key].Average(); ok {
			averages = append(averages, models.MetricAverage{Metric: key, Value: avg})
		}
	}

	return &models.SessionSummary{
		SessionName: g.Name,
		RowCount:    len(g.Rows),
		Averages:    averages,
		Rows:        g.Rows,
	}
}

// skipSet is the columns never averaged: the session column and excluded.
func skipSet(sessionColumn string, excluded []string) map[string]struct{} {
	skip := make(map[string]struct{}, len(excluded)+1)
	for _, col := range excluded {
		skip[col] = struct{}{}
	}
	skip[sessionColumn] = struct{}{}
	return skip
}

func hasColumn(rows []models.Row, column string) bool {
	for _, row := range rows {
		if _, ok := row.Get(column); ok {
			return true
		}
	}
	return false
}

// FindSessionColumn picks the column that names the session: the first of
// candidates present in headers, else the first header containing one of
// hints (case-insensitive).
func FindSessionColumn(headers, candidates, hints []string) (string, error) {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[h] = struct{}{}
	}
	for _, c := range candidates {
		if _, ok := present[c]; ok {
			return c, nil
		}
	}

	for _, h := range headers {
		lower := strings.ToLower(h)
		for _, hint := range hints {
			if hint != "" && strings.Contains(lower, strings.ToLower(hint)) {
				return h, nil
			}
		}
	}
	return "", apperrors.MissingSessionColumn("")
}
