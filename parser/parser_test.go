package parser

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"training-analyzer/apperrors"
	"training-analyzer/models"
)

func TestParseTypesCells(t *testing.T) {
	res, err := Parse("Session,Pace,Done,Notes\nA,5.5,true,easy\nB,,FALSE,1,200\n", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"Session", "Pace", "Done", "Notes"}, res.Headers)
	require.Len(t, res.Rows, 2)

	pace, _ := res.Rows[0].Get("Pace")
	assert.Equal(t, models.KindNumber, pace.Kind())
	done, _ := res.Rows[0].Get("Done")
	assert.Equal(t, models.KindBool, done.Kind())
	notes, _ := res.Rows[0].Get("Notes")
	assert.Equal(t, models.KindString, notes.Kind())

	empty, _ := res.Rows[1].Get("Pace")
	assert.True(t, empty.IsEmpty())

	// "1,200" is split by the CSV reader into two fields.
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnTooManyFields, res.Warnings[0].Code)
	assert.Equal(t, 1, res.Warnings[0].Row)
}

func TestParseWithoutDynamicTypingKeepsText(t *testing.T) {
	opts := DefaultOptions()
	opts.DynamicTyping = false

	res, err := Parse("Session,Pace\nA,5.5\n", opts)
	require.NoError(t, err)

	v, _ := res.Rows[0].Get("Pace")
	assert.Equal(t, models.KindString, v.Kind())
	n, ok := res.Rows[0].Number("Pace")
	assert.True(t, ok)
	assert.Equal(t, 5.5, n)
}

func TestParseTrimsHeadersAndBOM(t *testing.T) {
	res, err := Parse("\ufeff Session , Pace \nA,1\n", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"Session", "Pace"}, res.Headers)

	opts := DefaultOptions()
	opts.TrimHeaders = false
	res, err = Parse(" Session ,Pace\nA,1\n", opts)
	require.NoError(t, err)
	assert.Equal(t, " Session ", res.Headers[0])
}

func TestParseRenamesDuplicateHeaders(t *testing.T) {
	res, err := Parse("Session,HR,HR,HR\nA,1,2,3\n", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"Session", "HR", "HR_1", "HR_2"}, res.Headers)
	assert.Len(t, res.Warnings, 2)
	v, _ := res.Rows[0].Number("HR_2")
	assert.Equal(t, 3.0, v)
}

func TestParseShortRowsArePadded(t *testing.T) {
	res, err := Parse("Session,Pace,HR\nA,5\n", DefaultOptions())
	require.NoError(t, err)

	v, ok := res.Rows[0].Get("HR")
	require.True(t, ok)
	assert.True(t, v.IsEmpty())
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnTooFewFields, res.Warnings[0].Code)
}

func TestParseSkipEmptyLines(t *testing.T) {
	res, err := Parse("Session,Pace\nA,1\n,\nB,2\n", DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)

	opts := DefaultOptions()
	opts.SkipEmptyLines = false
	res, err = Parse("Session,Pace\nA,1\n,\nB,2\n", opts)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 3)
}

func TestParseWithoutHeaderNamesColumnsByIndex(t *testing.T) {
	opts := DefaultOptions()
	opts.Header = false

	res, err := Parse("A,1\nB,2,3\n", opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2"}, res.Headers)
	assert.Len(t, res.Rows, 2)
}

func TestParseNoData(t *testing.T) {
	for _, text := range []string{"", "Session,Pace\n", "Session,Pace\n,\n"} {
		_, err := Parse(text, DefaultOptions())
		assert.True(t, errors.Is(err, apperrors.ErrNoData), "input %q: %v", text, err)
	}
}

func TestParseFileRejectsOtherExtensions(t *testing.T) {
	_, err := ParseFile("notes.txt", strings.NewReader("Session\nA\n"), DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrParseFailure))
	assert.Equal(t, "Only CSV files can be uploaded.", apperrors.UserMessage(err))
}

func TestParseFileCSVAndXLSXAgree(t *testing.T) {
	csvText := "Session,Pace,HR\nA,5.5,140\nA,6,150\nB,4,\n"

	fromCSV, err := ParseFile("run.CSV", strings.NewReader(csvText), DefaultOptions())
	require.NoError(t, err)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Session", "Pace", "HR"},
		{"A", "5.5", "140"},
		{"A", "6", "150"},
		{"B", "4"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	fromXLSX, err := ParseFile("run.xlsx", &buf, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, fromCSV.Headers, fromXLSX.Headers)
	require.Len(t, fromXLSX.Rows, len(fromCSV.Rows))
	for i := range fromCSV.Rows {
		for _, h := range fromCSV.Headers {
			want, _ := fromCSV.Rows[i].Get(h)
			got, _ := fromXLSX.Rows[i].Get(h)
			assert.Equal(t, want, got, "row %d column %s", i, h)
		}
	}
	assert.Empty(t, fromXLSX.Warnings)
}

func TestParseXLSXRejectsGarbage(t *testing.T) {
	_, err := ParseXLSX(strings.NewReader("not a workbook"), DefaultOptions())
	assert.True(t, errors.Is(err, apperrors.ErrParseFailure))
}
