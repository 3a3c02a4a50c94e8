// Package parser turns uploaded CSV or XLSX files into typed rows.
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"training-analyzer/apperrors"
	"training-analyzer/models"
)

// Options controls how a file is read.
type Options struct {
	// Header uses the first record as column names; otherwise columns are
	// named by zero-based index.
	Header bool `yaml:"header"`
	// SkipEmptyLines drops records whose every field is blank.
	SkipEmptyLines bool `yaml:"skip_empty_lines"`
	// DynamicTyping turns numeric and true/false cells into numbers and
	// booleans, and empty cells into empty values.
	DynamicTyping bool `yaml:"dynamic_typing"`
	// TrimHeaders strips surrounding whitespace from column names.
	TrimHeaders bool `yaml:"trim_headers"`
}

// DefaultOptions enables every option.
func DefaultOptions() Options {
	return Options{Header: true, SkipEmptyLines: true, DynamicTyping: true, TrimHeaders: true}
}

// Warning codes.
const (
	WarnTooFewFields   = "TooFewFields"
	WarnTooManyFields  = "TooManyFields"
	WarnDuplicateField = "DuplicateHeader"
)

// Warning is a non-fatal problem found while reading. Row is the zero-based
// data row index, or -1 for the header.
type Warning struct {
	Row     int
	Code    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("row %d: %s: %s", w.Row, w.Code, w.Message)
}

// Result is what a parse produced.
type Result struct {
	Headers  []string
	Rows     []models.Row
	Warnings []Warning
}

// floatRegexp matches cells that dynamic typing turns into numbers.
var floatRegexp = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)

// Parse reads CSV text. A syntax error is a ParseFailure; a file without
// data rows is NoData.
func Parse(text string, opts Options) (*Result, error) {
	text = strings.TrimPrefix(text, "\ufeff")

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.ParseFailure(err)
	}
	return fromRecords(records, opts, true)
}

// ParseFile dispatches on the file extension (.csv or .xlsx).
func ParseFile(name string, r io.Reader, opts Options) (*Result, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, apperrors.ParseFailure(fmt.Errorf("read %s: %w", name, err))
		}
		return Parse(string(data), opts)
	case ".xlsx":
		return ParseXLSX(r, opts)
	default:
		return nil, &apperrors.Error{
			Kind:    apperrors.KindParseFailure,
			Message: "Only CSV files can be uploaded.",
			Cause:   fmt.Errorf("unsupported file type %q", filepath.Ext(name)),
		}
	}
}

// fromRecords builds rows from raw records. When warnRagged is false, short
// records are padded silently (spreadsheet readers drop trailing blanks).
func fromRecords(records [][]string, opts Options, warnRagged bool) (*Result, error) {
	if len(records) == 0 {
		return nil, apperrors.NoData()
	}

	res := &Result{}
	data := records
	if opts.Header {
		res.Headers, res.Warnings = headerNames(records[0], opts.TrimHeaders)
		data = records[1:]
	} else {
		width := 0
		for _, rec := range records {
			if len(rec) > width {
				width = len(rec)
			}
		}
		res.Headers = make([]string, width)
		for i := range res.Headers {
			res.Headers[i] = strconv.Itoa(i)
		}
	}

	for i, rec := range data {
		if opts.SkipEmptyLines && isBlankRecord(rec) {
			continue
		}

		if warnRagged || len(rec) > len(res.Headers) {
			switch {
			case len(rec) < len(res.Headers):
				res.Warnings = append(res.Warnings, Warning{Row: i, Code: WarnTooFewFields,
					Message: fmt.Sprintf("expected %d fields but parsed %d", len(res.Headers), len(rec))})
			case len(rec) > len(res.Headers):
				res.Warnings = append(res.Warnings, Warning{Row: i, Code: WarnTooManyFields,
					Message: fmt.Sprintf("expected %d fields but parsed %d", len(res.Headers), len(rec))})
			}
		}

		values := make([]models.Value, len(res.Headers))
		for j := range res.Headers {
			if j < len(rec) {
				values[j] = typeCell(rec[j], opts.DynamicTyping)
			} else {
				values[j] = models.EmptyValue()
			}
		}
		res.Rows = append(res.Rows, models.NewRow(res.Headers, values))
	}

	if len(res.Rows) == 0 {
		return nil, apperrors.NoData()
	}
	return res, nil
}

// headerNames returns the column names, renaming duplicates to name_1, name_2, ...
func headerNames(record []string, trim bool) ([]string, []Warning) {
	var warnings []Warning
	seen := make(map[string]int, len(record))
	names := make([]string, len(record))

	for i, h := range record {
		if trim {
			h = strings.TrimSpace(h)
		}
		name := h
		if n, dup := seen[h]; dup {
			for {
				n++
				name = fmt.Sprintf("%s_%d", h, n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[h] = n
			warnings = append(warnings, Warning{Row: -1, Code: WarnDuplicateField,
				Message: fmt.Sprintf("duplicate header %q renamed to %q", h, name)})
		}
		seen[name] = 0
		names[i] = name
	}
	return names, warnings
}

func isBlankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func typeCell(cell string, dynamic bool) models.Value {
	if !dynamic {
		return models.StringValue(cell)
	}
	switch {
	case cell == "":
		return models.EmptyValue()
	case strings.EqualFold(cell, "true"):
		return models.BoolValue(true)
	case strings.EqualFold(cell, "false"):
		return models.BoolValue(false)
	case floatRegexp.MatchString(cell):
		f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return models.StringValue(cell)
		}
		return models.NumberValue(f)
	default:
		return models.StringValue(cell)
	}
}
