// =============================================================================
// csv2ods - XLSX Row Source
// =============================================================================
//
// This module lets a workbook stand in for a CSV file. Rows are read from a
// single worksheet through excelize's streaming row iterator and handed on as
// plain string fields, exactly like the CSV parser does.
//
// CELL VALUES:
//   Each field is the cell's formatted text as excelize renders it. Numbers
//   therefore arrive as their displayed text ("30", "1.5") and go through the
//   same classification as CSV fields.
//
// TRAILING CELLS:
//   excelize drops empty cells at the end of a row, so a row's field count is
//   the position of its last non-empty cell.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// IsWorkbook reports whether the path names a workbook this package reads.
func IsWorkbook(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return true
	}
	return false
}

// =============================================================================
// SHEET READER
// =============================================================================

// SheetReader iterates over the rows of one worksheet.
type SheetReader struct {
	file      *excelize.File
	rows      *excelize.Rows
	sheetName string
	current   []string
	rowNumber int
	err       error
}

// Open reads a workbook from r and positions a reader on the requested
// sheet.
//
// PARAMETERS:
//   - r: The workbook contents.
//   - sheet: The worksheet name. Empty selects the first sheet.
//
// RETURNS:
//   - A pointer to the SheetReader. The caller must Close it.
//   - An error if the workbook cannot be read or has no such sheet.
func Open(r io.Reader, sheet string) (*SheetReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	sheetName, err := resolveSheet(f, sheet)
	if err != nil {
		f.Close()
		return nil, err
	}

	rows, err := f.Rows(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheetName, err)
	}

	return &SheetReader{
		file:      f,
		rows:      rows,
		sheetName: sheetName,
	}, nil
}

// resolveSheet picks the sheet by name, or the first one.
func resolveSheet(f *excelize.File, sheet string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}

	if sheet == "" {
		return sheets[0], nil
	}

	for _, name := range sheets {
		if name == sheet {
			return name, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found (available: %s)", sheet, strings.Join(sheets, ", "))
}

// SheetName returns the worksheet being read.
func (s *SheetReader) SheetName() string {
	return s.sheetName
}

// Next advances to the next row.
func (s *SheetReader) Next() bool {
	if s.err != nil || s.rows == nil {
		return false
	}

	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			s.err = fmt.Errorf("failed to read sheet %q: %w", s.sheetName, err)
		}
		s.current = nil
		return false
	}

	columns, err := s.rows.Columns()
	if err != nil {
		s.err = fmt.Errorf("failed to read row %d of sheet %q: %w", s.rowNumber+1, s.sheetName, err)
		s.current = nil
		return false
	}

	s.rowNumber++
	if columns == nil {
		columns = []string{}
	}
	s.current = columns
	return true
}

// Row returns the current row.
func (s *SheetReader) Row() []string {
	return s.current
}

// RowNumber returns the number of rows read so far (1-indexed).
func (s *SheetReader) RowNumber() int {
	return s.rowNumber
}

// Err returns the error that stopped iteration, if any.
func (s *SheetReader) Err() error {
	return s.err
}

// Close releases the row iterator and the workbook.
func (s *SheetReader) Close() error {
	var firstErr error
	if s.rows != nil {
		firstErr = s.rows.Close()
		s.rows = nil
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.file = nil
	}
	return firstErr
}
