package parser

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"training-analyzer/apperrors"
)

// ParseXLSX reads the first sheet of a workbook with the same rules as Parse.
func ParseXLSX(r io.Reader, opts Options) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.ParseFailure(fmt.Errorf("open workbook: %w", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NoData()
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.ParseFailure(fmt.Errorf("read sheet %q: %w", sheets[0], err))
	}
	return fromRecords(rows, opts, false)
}
