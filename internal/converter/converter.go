// =============================================================================
// csv2ods - Converter Module
// =============================================================================
//
// This module contains the core conversion logic. It runs the whole pipeline
// for a single file, from reading rows to saving the spreadsheet.
//
// CONVERSION PIPELINE:
//   1. Validate the options
//   2. Open the input (CSV through the dialect reader, or a workbook sheet)
//   3. Register the paragraph style and the two column-width styles
//   4. Declare the table columns
//   5. Classify every field and add one cell per field, one row per record
//   6. Save the document (temporary file + rename)
//
// The document is built completely in memory before the output path is
// touched, so any read, parse or decoding failure leaves no output behind.
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ginjaninja78/csv2ods/internal/config"
	"github.com/ginjaninja78/csv2ods/internal/csvparser"
	"github.com/ginjaninja78/csv2ods/internal/ods"
	"github.com/ginjaninja78/csv2ods/internal/xlsxparser"
	"github.com/ginjaninja78/csv2ods/pkg/utils"
)

// =============================================================================
// DOCUMENT LAYOUT
// =============================================================================

const (
	// ContentsStyleName is the paragraph style every cell paragraph uses.
	ContentsStyleName = "Table Contents"

	// NarrowColumnStyleName and WideColumnStyleName are the two column widths.
	NarrowColumnStyleName = "Wshort"
	WideColumnStyleName   = "Wwide"

	narrowColumnWidth = "1.7cm"
	wideColumnWidth   = "1.5in"

	// NarrowColumns is how many leading columns get the narrow style.
	NarrowColumns = 4

	// DeclaredColumns is the number of columns declared on the table. Rows
	// may be wider; their extra cells have no column definition.
	DeclaredColumns = 7
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of converting a single file.
type Result struct {
	// FilePath is the path to the input file.
	FilePath string

	// OutputFile is the path the document was saved to.
	// This is empty if the conversion failed.
	OutputFile string

	// Success indicates whether the conversion was successful.
	Success bool

	// Error contains the error if the conversion failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the conversion.
type ProcessingStats struct {
	// RowsProcessed is the number of input rows, including empty ones.
	RowsProcessed int

	// CellsWritten is the total number of cells added to the table.
	CellsWritten int

	// NumericCells and TextCells split CellsWritten by value type.
	NumericCells int
	TextCells    int

	// MaxRowWidth is the field count of the widest row.
	MaxRowWidth int

	// ProcessingTime is the time taken to convert the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter converts one input file into one ODS document.
type Converter struct {
	opts   config.Options
	logger Logger
}

// Logger is the logging interface the converter writes to. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// rowSource is what the assembler reads rows from.
type rowSource interface {
	Next() bool
	Row() []string
	Err() error
}

// New creates a new Converter for the given options. Nothing is logged until
// SetLogger is called.
func New(opts config.Options) *Converter {
	return &Converter{
		opts:   opts,
		logger: slog.New(slog.DiscardHandler),
	}
}

// SetLogger replaces the converter's logger.
func (c *Converter) SetLogger(logger Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline.
//
// RETURNS:
//   - A Result struct containing the outcome. Result.Error is one of
//     *config.ConfigurationError, *InputAccessError, *csvparser.ParseError,
//     *csvparser.DecodingError or *OutputWriteError (possibly wrapped).
func (c *Converter) Run() Result {
	startTime := time.Now()
	result := Result{FilePath: c.opts.InputPath}

	if err := c.convert(&result); err != nil {
		c.logger.Debug("conversion failed", "input", c.opts.InputPath, "error", err)
		result.Error = err
		return result
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)

	c.logger.Info("conversion complete",
		"input", result.FilePath,
		"output", result.OutputFile,
		"rows", result.Stats.RowsProcessed,
		"cells", result.Stats.CellsWritten,
		"duration", result.Stats.ProcessingTime,
	)

	return result
}

func (c *Converter) convert(result *Result) error {
	// =========================================================================
	// STEP 1: VALIDATE OPTIONS
	// =========================================================================

	if err := c.opts.Validate(); err != nil {
		return err
	}

	outputPath := utils.ExpandOutputPath(c.opts.OutputPath, c.opts.InputPath)

	// =========================================================================
	// STEP 2: OPEN INPUT
	// =========================================================================

	file, err := os.Open(c.opts.InputPath)
	if err != nil {
		return &InputAccessError{Path: c.opts.InputPath, Err: err}
	}
	defer file.Close()

	rows, closeRows, err := c.openRows(file)
	if err != nil {
		return err
	}
	defer closeRows()

	// =========================================================================
	// STEP 3-5: BUILD DOCUMENT
	// =========================================================================

	doc, err := c.buildDocument(rows, &result.Stats)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 6: SAVE
	// =========================================================================

	if err := doc.Save(outputPath); err != nil {
		return &OutputWriteError{Path: outputPath, Err: err}
	}

	result.OutputFile = outputPath
	return nil
}

// openRows picks the row source for the input file.
func (c *Converter) openRows(file *os.File) (rowSource, func() error, error) {
	if xlsxparser.IsWorkbook(c.opts.InputPath) {
		sheet, err := xlsxparser.Open(file, c.opts.Sheet)
		if err != nil {
			return nil, nil, &InputAccessError{Path: c.opts.InputPath, Err: err}
		}
		c.logger.Debug("reading workbook", "path", c.opts.InputPath, "sheet", sheet.SheetName())
		return sheet, sheet.Close, nil
	}

	parser, err := csvparser.NewReader(file, c.opts.Dialect)
	if err != nil {
		return nil, nil, err
	}
	c.logger.Debug("reading csv",
		"path", c.opts.InputPath,
		"delimiter", config.NormalizeDelimiter(c.opts.Dialect.Delimiter),
		"quoting", c.opts.Dialect.Quoting,
		"encoding", c.opts.Dialect.Encoding,
	)
	return parser, func() error { return nil }, nil
}

// =============================================================================
// DOCUMENT ASSEMBLY
// =============================================================================

// NewDocument creates a spreadsheet with the cell paragraph style, the two
// column styles and one table with its column declarations.
//
// RETURNS:
//   - The document.
//   - The table rows are to be added to.
//   - The paragraph style cells refer to.
func NewDocument(tableName string) (*ods.Document, *ods.Table, *ods.Style) {
	doc := ods.NewSpreadsheet()

	contents := doc.AddStyle(&ods.Style{
		Name:      ContentsStyleName,
		Family:    ods.FamilyParagraph,
		Paragraph: &ods.ParagraphProperties{NumberLines: false, LineNumber: 0},
		Text:      &ods.TextProperties{FontWeight: "bold"},
	})

	narrow := doc.AddAutomaticStyle(&ods.Style{
		Name:   NarrowColumnStyleName,
		Family: ods.FamilyTableColumn,
		Column: &ods.ColumnProperties{ColumnWidth: narrowColumnWidth},
	})
	wide := doc.AddAutomaticStyle(&ods.Style{
		Name:   WideColumnStyleName,
		Family: ods.FamilyTableColumn,
		Column: &ods.ColumnProperties{ColumnWidth: wideColumnWidth},
	})

	table := doc.AddTable(tableName)
	declareColumns(table, DeclaredColumns, func(index int) *ods.Style {
		return columnStyleFor(index, narrow, wide)
	})

	return doc, table, contents
}

// columnStyleFor is the column style for a zero-based column index.
func columnStyleFor(index int, narrow, wide *ods.Style) *ods.Style {
	if index < NarrowColumns {
		return narrow
	}
	return wide
}

// declareColumns declares count columns, merging neighbours with the same
// style into one repeated run.
func declareColumns(table *ods.Table, count int, styleFor func(int) *ods.Style) {
	for i := 0; i < count; {
		style := styleFor(i)
		j := i + 1
		for j < count && styleFor(j) == style {
			j++
		}
		table.AddColumns(j-i, style)
		i = j
	}
}

// buildDocument reads every row and assembles the document.
func (c *Converter) buildDocument(rows rowSource, stats *ProcessingStats) (*ods.Document, error) {
	doc, table, contents := NewDocument(c.opts.TableName)
	styleName := contents.InternalName()

	widestRow := 0
	for rows.Next() {
		fields := rows.Row()
		row := table.AddRow()

		for _, field := range fields {
			value := Classify(field)
			row.AddCell(ods.Cell{
				ValueType: value.ValueType(),
				Value:     value.Number,
				Text:      value.Text,
				StyleName: styleName,
			})

			if value.IsNumeric() {
				stats.NumericCells++
			} else {
				stats.TextCells++
			}
		}

		stats.RowsProcessed++
		stats.CellsWritten += len(fields)
		if len(fields) > stats.MaxRowWidth {
			stats.MaxRowWidth = len(fields)
			widestRow = stats.RowsProcessed
		}
	}

	if err := rows.Err(); err != nil {
		return nil, c.readError(err)
	}

	// The last cell of the widest row has no column style when the row runs
	// past the declared columns.
	if stats.MaxRowWidth > 0 && table.ColumnStyle(stats.MaxRowWidth-1) == "" {
		c.logger.Warn("rows are wider than the declared columns",
			"row", widestRow,
			"fields", stats.MaxRowWidth,
			"declared", table.DeclaredColumns(),
		)
	}

	c.logger.Debug("document assembled",
		"rows", stats.RowsProcessed,
		"numeric", stats.NumericCells,
		"text", stats.TextCells,
	)

	return doc, nil
}

// readError passes parse and decoding errors through and reports anything
// else as an input access failure.
func (c *Converter) readError(err error) error {
	var parseErr *csvparser.ParseError
	var decodeErr *csvparser.DecodingError
	if errors.As(err, &parseErr) || errors.As(err, &decodeErr) {
		return fmt.Errorf("%s: %w", c.opts.InputPath, err)
	}
	return &InputAccessError{Path: c.opts.InputPath, Err: err}
}
