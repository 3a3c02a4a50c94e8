package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"training-analyzer/models"
)

func paceUnit(metric string) string {
	if strings.Contains(metric, "Pace") {
		return "min/km"
	}
	return ""
}

func TestCSVWriterWriteAnalysis(t *testing.T) {
	a := analysisOf("A")
	a.Result.Sessions = append(a.Result.Sessions, &models.SessionSummary{SessionName: "Notes, only", RowCount: 2})

	var buf bytes.Buffer
	w, err := NewCSVWriter(&buf, paceUnit)
	require.NoError(t, err)
	require.NoError(t, w.WriteAnalysis(a))
	require.NoError(t, w.Close())

	want := "session_name,row_count,metric,average,unit\n" +
		"A,1,Pace,5,min/km\n" +
		"A,1,Heart Rate,140,\n" +
		"\"Notes, only\",2,,,\n"
	assert.Equal(t, want, buf.String())
}

func TestCSVWriterWriteRecords(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewCSVWriter(&buf, nil)
	require.NoError(t, err)

	require.NoError(t, w.WriteRecords([]*models.StoredRecord{
		{SessionName: "Z", RowCount: 3, Averages: models.Averages{{Metric: "Pace", Value: 4.25}}},
	}))
	assert.Contains(t, buf.String(), "Z,3,Pace,4.25,\n")
}

func TestCSVFileWriterCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "summary.csv")

	w, err := NewCSVFileWriter(path, paceUnit)
	require.NoError(t, err)
	require.NoError(t, w.WriteAnalysis(analysisOf("A")))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)
}
