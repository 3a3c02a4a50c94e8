package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"training-analyzer/apperrors"
)

const trainingCSV = "Session,Pace,Heart Rate\nEasy,5,140\nEasy,6,150\nTempo,4,170\n"

// withStore points the commands at a fresh SQLite file.
func withStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "reports.db"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("ANALYSIS_CONFIG", "")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommandHelp(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"serve", "analyze", "reports"} {
		assert.Contains(t, out, sub)
	}
}

func TestAnalyzePrintsSummary(t *testing.T) {
	dir := withStore(t)
	path := writeFile(t, dir, "week.csv", trainingCSV)

	out, err := run(t, "analyze", path)
	require.NoError(t, err)

	assert.Contains(t, out, "TRAINING SESSION SUMMARY")
	assert.Contains(t, out, "week.csv")
	assert.Contains(t, out, "Easy")
	assert.Contains(t, out, "Tempo")
	assert.NotContains(t, out, "saved successfully")
}

func TestAnalyzeWritesCSV(t *testing.T) {
	dir := withStore(t)
	path := writeFile(t, dir, "week.csv", trainingCSV)
	csvPath := filepath.Join(dir, "out", "summary.csv")

	_, err := run(t, "analyze", path, "--csv", csvPath)
	require.NoError(t, err)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{
		"session_name,row_count,metric,average,unit",
		"Easy,2,Pace,5.5,min/km",
		"Easy,2,Heart Rate,145,bpm",
		"Tempo,1,Pace,4,min/km",
		"Tempo,1,Heart Rate,170,bpm",
	}, lines)
}

func TestAnalyzeSaveListDelete(t *testing.T) {
	dir := withStore(t)
	path := writeFile(t, dir, "week.csv", trainingCSV)

	out, err := run(t, "analyze", path, "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "The data was saved successfully (2 sessions).")

	out, err = run(t, "reports", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Easy")
	tempoID := idOf(t, out, "Tempo")

	out, err = run(t, "reports", "delete", tempoID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+tempoID)

	out, err = run(t, "reports", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Easy")
	assert.NotContains(t, out, "Tempo")
}

func TestReportsListEmpty(t *testing.T) {
	withStore(t)

	out, err := run(t, "reports", "list", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved data.")
}

func TestReportsListWritesCSV(t *testing.T) {
	dir := withStore(t)
	path := writeFile(t, dir, "week.csv", trainingCSV)
	_, err := run(t, "analyze", path, "--save")
	require.NoError(t, err)

	csvPath := filepath.Join(dir, "history.csv")
	_, err = run(t, "reports", "list", "--csv", csvPath)
	require.NoError(t, err)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "session_name,row_count,metric,average,unit\n"))
	assert.Contains(t, string(data), "Tempo,1,Pace,4,min/km")
}

func TestAnalyzeFailures(t *testing.T) {
	dir := withStore(t)

	_, err := run(t, "analyze", filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	_, err = run(t, "analyze", writeFile(t, dir, "notes.txt", "hello"))
	assert.True(t, errors.Is(err, apperrors.ErrParseFailure))

	_, err = run(t, "analyze", writeFile(t, dir, "nosession.csv", "Pace,Distance\n5,10\n"))
	assert.True(t, errors.Is(err, apperrors.ErrMissingSessionColumn))

	_, err = run(t, "analyze")
	assert.Error(t, err)
}

func TestUnknownStoreDriver(t *testing.T) {
	withStore(t)
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := run(t, "reports", "list")
	assert.Error(t, err)
}

func idOf(t *testing.T, listing, session string) string {
	t.Helper()
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 1 && fields[1] == session {
			return fields[0]
		}
	}
	t.Fatalf("no %s row in:\n%s", session, listing)
	return ""
}
