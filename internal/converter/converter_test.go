package converter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/csv2ods/internal/config"
	"github.com/ginjaninja78/csv2ods/internal/csvparser"
	"github.com/ginjaninja78/csv2ods/internal/ods"
)

// recordLogger keeps debug, warning and error messages for inspection.
type recordLogger struct {
	debug    []string
	warnings []string
	errors   []string
}

func (l *recordLogger) Debug(msg string, args ...any) {
	l.debug = append(l.debug, msg)
}

func (l *recordLogger) Info(msg string, args ...any) {}

func (l *recordLogger) Warn(msg string, args ...any) {
	l.warnings = append(l.warnings, msg)
}

func (l *recordLogger) Error(msg string, args ...any) {
	l.errors = append(l.errors, msg)
}

// convert writes input to a CSV file, converts it and returns the result
// and the output path.
func convert(t *testing.T, input string, modify func(*config.Options)) (Result, string) {
	t.Helper()
	dir := t.TempDir()

	opts := config.Default()
	opts.InputPath = filepath.Join(dir, "in.csv")
	opts.OutputPath = filepath.Join(dir, "out.ods")
	if modify != nil {
		modify(&opts)
	}

	if err := os.WriteFile(opts.InputPath, []byte(input), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	return New(opts).Run(), opts.OutputPath
}

func readTable(t *testing.T, path, name string) *ods.Table {
	t.Helper()
	doc, err := ods.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	table := doc.Table(name)
	if table == nil {
		t.Fatalf("table %q not found", name)
	}
	return table
}

type wantCell struct {
	valueType ods.ValueType
	value     float64
	text      string
}

func text(s string) wantCell {
	return wantCell{ods.ValueString, 0, s}
}

func number(s string, v float64) wantCell {
	return wantCell{ods.ValueFloat, v, s}
}

func assertRows(t *testing.T, table *ods.Table, want [][]wantCell) {
	t.Helper()
	if len(table.Rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(table.Rows), len(want))
	}
	for i, row := range want {
		cells := table.Rows[i].Cells
		if len(cells) != len(row) {
			t.Fatalf("row %d has %d cells, want %d", i+1, len(cells), len(row))
		}
		for j, w := range row {
			c := cells[j]
			if c.ValueType != w.valueType || c.Value != w.value || c.Text != w.text {
				t.Fatalf("row %d cell %d = %s(%v, %q), want %s(%v, %q)",
					i+1, j+1, c.ValueType, c.Value, c.Text, w.valueType, w.value, w.text)
			}
			if c.StyleName != "Table_20_Contents" {
				t.Fatalf("row %d cell %d style = %q", i+1, j+1, c.StyleName)
			}
		}
	}
}

func TestRunNameAgeScenario(t *testing.T) {
	result, out := convert(t, "name,age\nAlice,30\nBob,0\n", nil)
	if result.Error != nil {
		t.Fatalf("Run: %v", result.Error)
	}
	if !result.Success || result.OutputFile != out {
		t.Fatalf("unexpected result %+v", result)
	}

	assertRows(t, readTable(t, out, "table"), [][]wantCell{
		{text("name"), text("age")},
		{text("Alice"), number("30", 30)},
		{text("Bob"), text("0")},
	})

	stats := result.Stats
	if stats.RowsProcessed != 3 || stats.CellsWritten != 6 || stats.NumericCells != 1 || stats.TextCells != 5 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestRunSemicolonScenario(t *testing.T) {
	result, out := convert(t, "a;b;1.5\n", func(o *config.Options) {
		o.Dialect.Delimiter = ";"
	})
	if result.Error != nil {
		t.Fatalf("Run: %v", result.Error)
	}

	assertRows(t, readTable(t, out, "table"), [][]wantCell{
		{text("a"), text("b"), number("1.5", 1.5)},
	})
}

func TestRunPreservesRowsAndText(t *testing.T) {
	input := "id,note\n1,\"multi\nline\"\n\n2,\"  padded  \"\n3,\"tab\there\"\n"
	result, out := convert(t, input, func(o *config.Options) {
		o.TableName = "Notes"
	})
	if result.Error != nil {
		t.Fatalf("Run: %v", result.Error)
	}

	assertRows(t, readTable(t, out, "Notes"), [][]wantCell{
		{text("id"), text("note")},
		{number("1", 1), text("multi\nline")},
		{},
		{number("2", 2), text("  padded  ")},
		{number("3", 3), text("tab\there")},
	})
}

func TestRunColumnDeclarations(t *testing.T) {
	logger := &recordLogger{}

	dir := t.TempDir()
	opts := config.Default()
	opts.InputPath = filepath.Join(dir, "wide.csv")
	opts.OutputPath = filepath.Join(dir, "wide.ods")
	if err := os.WriteFile(opts.InputPath, []byte("1,2,3,4,5,6,7,8,9,10\n"), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	conv := New(opts)
	conv.SetLogger(logger)
	result := conv.Run()
	if result.Error != nil {
		t.Fatalf("Run: %v", result.Error)
	}

	table := readTable(t, opts.OutputPath, "table")
	want := []ods.Column{
		{Repeated: 4, StyleName: NarrowColumnStyleName},
		{Repeated: 3, StyleName: WideColumnStyleName},
	}
	if len(table.Columns) != len(want) {
		t.Fatalf("columns = %+v, want %+v", table.Columns, want)
	}
	for i := range want {
		if table.Columns[i] != want[i] {
			t.Fatalf("columns = %+v, want %+v", table.Columns, want)
		}
	}

	if got := len(table.Rows[0].Cells); got != 10 {
		t.Fatalf("row has %d cells, want 10", got)
	}
	if result.Stats.MaxRowWidth != 10 {
		t.Fatalf("MaxRowWidth = %d, want 10", result.Stats.MaxRowWidth)
	}
	if len(logger.warnings) != 1 {
		t.Fatalf("warnings = %v, want one width warning", logger.warnings)
	}
}

func TestRunDeclaredWidthNoWarning(t *testing.T) {
	logger := &recordLogger{}

	dir := t.TempDir()
	opts := config.Default()
	opts.InputPath = filepath.Join(dir, "in.csv")
	opts.OutputPath = filepath.Join(dir, "out.ods")
	if err := os.WriteFile(opts.InputPath, []byte("1,2,3,4,5,6,7\n\n"), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	conv := New(opts)
	conv.SetLogger(logger)
	if result := conv.Run(); result.Error != nil {
		t.Fatalf("Run: %v", result.Error)
	}
	if len(logger.warnings) != 0 {
		t.Fatalf("warnings = %v, want none for a row of %d fields", logger.warnings, DeclaredColumns)
	}
}

func TestRunFailureIsNotLoggedAsError(t *testing.T) {
	logger := &recordLogger{}

	opts := config.Default()
	opts.InputPath = filepath.Join(t.TempDir(), "missing.csv")
	opts.OutputPath = filepath.Join(t.TempDir(), "out.ods")

	conv := New(opts)
	conv.SetLogger(logger)
	if result := conv.Run(); result.Error == nil {
		t.Fatal("expected an error for a missing input")
	}

	if len(logger.errors) != 0 {
		t.Fatalf("errors logged = %v, want none; the caller reports the error", logger.errors)
	}
	if len(logger.debug) == 0 || logger.debug[len(logger.debug)-1] != "conversion failed" {
		t.Fatalf("debug = %v, want a final %q entry", logger.debug, "conversion failed")
	}
}

func TestColumnStyleFor(t *testing.T) {
	narrow := &ods.Style{Name: "n"}
	wide := &ods.Style{Name: "w"}

	for i := 0; i < 12; i++ {
		want := wide
		if i < 4 {
			want = narrow
		}
		if got := columnStyleFor(i, narrow, wide); got != want {
			t.Fatalf("columnStyleFor(%d) = %s, want %s", i, got.Name, want.Name)
		}
	}
}

func TestNewDocumentStyles(t *testing.T) {
	doc, table, contents := NewDocument("t")

	if contents.Name != ContentsStyleName || contents.Text.FontWeight != "bold" || contents.Paragraph.NumberLines {
		t.Fatalf("unexpected paragraph style %+v", contents)
	}
	if len(doc.Styles) != 1 || len(doc.AutomaticStyles) != 2 {
		t.Fatalf("got %d styles and %d automatic styles", len(doc.Styles), len(doc.AutomaticStyles))
	}
	if w := doc.Style(NarrowColumnStyleName).Column.ColumnWidth; w != "1.7cm" {
		t.Fatalf("narrow width = %q", w)
	}
	if w := doc.Style(WideColumnStyleName).Column.ColumnWidth; w != "1.5in" {
		t.Fatalf("wide width = %q", w)
	}
	if table.DeclaredColumns() != DeclaredColumns || len(table.Rows) != 0 {
		t.Fatalf("unexpected table %+v", table)
	}
}

func TestRunMissingInput(t *testing.T) {
	dir := t.TempDir()
	opts := config.Default()
	opts.InputPath = filepath.Join(dir, "missing.csv")
	opts.OutputPath = filepath.Join(dir, "out.ods")

	result := New(opts).Run()

	var accessErr *InputAccessError
	if !errors.As(result.Error, &accessErr) {
		t.Fatalf("error = %v, want InputAccessError", result.Error)
	}
	if !errors.Is(result.Error, os.ErrNotExist) {
		t.Fatalf("error = %v, want it to wrap os.ErrNotExist", result.Error)
	}
	if result.Success {
		t.Fatal("Success = true")
	}
	if _, err := os.Stat(opts.OutputPath); !os.IsNotExist(err) {
		t.Fatal("output written for a missing input")
	}
}

func TestRunParseErrorLeavesNoOutput(t *testing.T) {
	result, out := convert(t, "a,b\nc\x00d\n", nil)

	var parseErr *csvparser.ParseError
	if !errors.As(result.Error, &parseErr) {
		t.Fatalf("error = %v, want ParseError", result.Error)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatal("output written after a parse error")
	}
	entries, _ := os.ReadDir(filepath.Dir(out))
	if len(entries) != 1 {
		t.Fatalf("directory holds %d entries, want only the input", len(entries))
	}
}

func TestRunDecodingError(t *testing.T) {
	result, out := convert(t, "a,\xff\xfe\n", nil)

	var decErr *csvparser.DecodingError
	if !errors.As(result.Error, &decErr) {
		t.Fatalf("error = %v, want DecodingError", result.Error)
	}
	if !strings.Contains(result.Error.Error(), `\xff\xfe`) {
		t.Fatalf("error %q does not show the field", result.Error)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatal("output written after a decoding error")
	}
}

func TestRunLatin1(t *testing.T) {
	result, out := convert(t, "caf\xe9,12\n", func(o *config.Options) {
		o.Dialect.Encoding = "latin1"
	})
	if result.Error != nil {
		t.Fatalf("Run: %v", result.Error)
	}

	assertRows(t, readTable(t, out, "table"), [][]wantCell{
		{text("café"), number("12", 12)},
	})
}

func TestRunOutputWriteError(t *testing.T) {
	result, out := convert(t, "a\n", func(o *config.Options) {
		o.OutputPath = filepath.Join(filepath.Dir(o.InputPath), "missing", "out.ods")
	})

	var writeErr *OutputWriteError
	if !errors.As(result.Error, &writeErr) {
		t.Fatalf("error = %v, want OutputWriteError", result.Error)
	}
	if writeErr.Path != out {
		t.Fatalf("Path = %q, want %q", writeErr.Path, out)
	}
}

func TestRunConfigurationError(t *testing.T) {
	result, _ := convert(t, "a\n", func(o *config.Options) {
		o.Dialect.Delimiter = "ab"
	})

	var cfgErr *config.ConfigurationError
	if !errors.As(result.Error, &cfgErr) {
		t.Fatalf("error = %v, want ConfigurationError", result.Error)
	}
}

func TestRunOutputPlaceholder(t *testing.T) {
	result, _ := convert(t, "x\n", func(o *config.Options) {
		o.OutputPath = filepath.Join(filepath.Dir(o.InputPath), "{input}-converted.ods")
	})
	if result.Error != nil {
		t.Fatalf("Run: %v", result.Error)
	}
	if filepath.Base(result.OutputFile) != "in-converted.ods" {
		t.Fatalf("OutputFile = %q", result.OutputFile)
	}
	if _, err := os.Stat(result.OutputFile); err != nil {
		t.Fatalf("output missing: %v", err)
	}
}

func TestRunWorkbookInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "book.xlsx")

	f := excelize.NewFile()
	if err := f.SetSheetRow("Sheet1", "A1", &[]interface{}{"name", "age"}); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Alice", 30}); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}
	if err := f.SaveAs(input); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	opts := config.Default()
	opts.InputPath = input
	opts.OutputPath = filepath.Join(dir, "book.ods")

	result := New(opts).Run()
	if result.Error != nil {
		t.Fatalf("Run: %v", result.Error)
	}

	assertRows(t, readTable(t, opts.OutputPath, "table"), [][]wantCell{
		{text("name"), text("age")},
		{text("Alice"), number("30", 30)},
	})
}

func TestRunWorkbookMissingSheet(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "book.xlsx")

	f := excelize.NewFile()
	if err := f.SaveAs(input); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	opts := config.Default()
	opts.InputPath = input
	opts.OutputPath = filepath.Join(dir, "book.ods")
	opts.Sheet = "Nope"

	var accessErr *InputAccessError
	if result := New(opts).Run(); !errors.As(result.Error, &accessErr) {
		t.Fatalf("error = %v, want InputAccessError", result.Error)
	}
}
