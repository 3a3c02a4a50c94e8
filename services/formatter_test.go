package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"training-analyzer/config"
	"training-analyzer/models"
)

func TestFormatterValue(t *testing.T) {
	f := NewFormatter(config.DefaultTable())

	tests := []struct {
		metric string
		value  float64
		want   string
	}{
		{"Pace", 5.55, "5.5"},
		{"Avg Pace", 5.26, "5.3"},
		{"Distance", 10, "10.0"},
		{"Heart Rate", 142.5, "143"},
		{"Heart Rate", 142.49, "142"},
		{"Calories", 1234.6, "1,235"},
		{"Steps", 1234567, "1,234,567"},
		{"Delta", -2.5, "-2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.Value(tt.metric, tt.value), "%s=%v", tt.metric, tt.value)
	}
}

func TestFormatterUnit(t *testing.T) {
	f := NewFormatter(config.DefaultTable())

	assert.Equal(t, "min/km", f.Unit("Avg Pace"))
	assert.Equal(t, "km", f.Unit("Distance"))
	assert.Equal(t, "bpm", f.Unit("Max Heart Rate"))
	assert.Equal(t, "", f.Unit("Cadence"))
	assert.Equal(t, "", f.Unit("pace"))
}

func TestFormatterUnitFirstMatchWins(t *testing.T) {
	table := config.DefaultTable()
	table.MetricUnits = []config.MetricUnit{{Metric: "Speed", Unit: "km/h"}, {Metric: "Max Speed", Unit: "m/s"}}

	assert.Equal(t, "km/h", NewFormatter(table).Unit("Max Speed"))
}

func TestSummaryPrinter(t *testing.T) {
	a := models.NewAnalysis("run.csv", "Session", &models.AnalysisResult{Sessions: []*models.SessionSummary{
		{SessionName: "Tempo", RowCount: 2, Averages: models.Averages{{Metric: "Pace", Value: 4.75}, {Metric: "Heart Rate", Value: 161.2}}},
		{SessionName: "Notes only", RowCount: 1},
	}}, time.Now())

	var buf bytes.Buffer
	NewSummaryPrinter(NewFormatter(config.DefaultTable())).Print(&buf, a)
	out := buf.String()

	assert.Contains(t, out, "TRAINING SESSION SUMMARY")
	assert.Contains(t, out, "run.csv")
	assert.Contains(t, out, "Tempo")
	assert.Contains(t, out, "(2 rows)")
	assert.Contains(t, out, "min/km")
	assert.Contains(t, out, "161")
	assert.Contains(t, out, "No numeric data to analyze")
	assert.Equal(t, 1, strings.Count(out, "Notes only"))
}
