package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"training-analyzer/models"
)

// UnitFunc returns the display unit of a metric.
type UnitFunc func(metric string) string

var csvHeader = []string{"session_name", "row_count", "metric", "average", "unit"}

// CSVWriter writes session averages as CSV, one line per metric. A session
// without averages gets a single line with empty metric fields.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	closer io.Closer
	writer *csv.Writer
	unit   UnitFunc
}

// NewCSVWriter writes the header row to w. unit may be nil.
func NewCSVWriter(w io.Writer, unit UnitFunc) (*CSVWriter, error) {
	cw := &CSVWriter{writer: csv.NewWriter(w), unit: unit}
	if err := cw.writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	cw.writer.Flush()
	return cw, cw.writer.Error()
}

// NewCSVFileWriter creates (or truncates) the file at path. Intermediate
// directories are created automatically.
func NewCSVFileWriter(path string, unit UnitFunc) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	cw, err := NewCSVWriter(f, unit)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	cw.closer = f
	return cw, nil
}

// WriteAnalysis appends every session of a.
func (c *CSVWriter) WriteAnalysis(a *models.Analysis) error {
	if a == nil || a.Result == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range a.Result.Sessions {
		if err := c.writeSession(s.SessionName, s.RowCount, s.Averages); err != nil {
			return err
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// WriteRecords appends stored records, e.g. a history export.
func (c *CSVWriter) WriteRecords(records []*models.StoredRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range records {
		if err := c.writeSession(r.SessionName, r.RowCount, r.Averages); err != nil {
			return err
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

func (c *CSVWriter) writeSession(name string, rowCount int, averages models.Averages) error {
	count := strconv.Itoa(rowCount)
	if len(averages) == 0 {
		if err := c.writer.Write([]string{name, count, "", "", ""}); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
		return nil
	}

	for _, m := range averages {
		unit := ""
		if c.unit != nil {
			unit = c.unit(m.Metric)
		}
		row := []string{name, count, m.Metric, strconv.FormatFloat(m.Value, 'f', -1, 64), unit}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	return nil
}

// Close flushes and closes the underlying file, if any.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writer.Flush()
	if c.closer == nil {
		return c.writer.Error()
	}
	return c.closer.Close()
}
