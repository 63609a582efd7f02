// Package ods builds OpenDocument Spreadsheet documents in memory, saves them
// as ODS packages and reads them back.
//
// The model covers what a converted table needs: named paragraph and
// table-column styles, tables with repeated column definitions, rows, and
// cells carrying a value type, an optional float value and one styled text
// paragraph.
package ods

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// MimeType is the media type of an ODS package.
const MimeType = "application/vnd.oasis.opendocument.spreadsheet"

// StyleFamily is the style:family of a style.
type StyleFamily string

const (
	FamilyParagraph   StyleFamily = "paragraph"
	FamilyTableColumn StyleFamily = "table-column"
)

// ValueType is the office:value-type of a cell.
type ValueType string

const (
	ValueFloat  ValueType = "float"
	ValueString ValueType = "string"
)

// ParagraphProperties maps to style:paragraph-properties.
type ParagraphProperties struct {
	NumberLines bool
	LineNumber  int
}

// TextProperties maps to style:text-properties.
type TextProperties struct {
	FontWeight string
}

// ColumnProperties maps to style:table-column-properties.
type ColumnProperties struct {
	ColumnWidth string
}

// Style is a named style. Name is the human readable name; the name written
// to style:name is derived from it by InternalName.
type Style struct {
	Name   string
	Family StyleFamily

	Paragraph *ParagraphProperties
	Text      *TextProperties
	Column    *ColumnProperties
}

// InternalName returns Name encoded as an XML NCName the way office suites
// do it: every character that is not allowed becomes _xx_ with its hex code,
// so "Table Contents" becomes "Table_20_Contents".
func (s *Style) InternalName() string {
	return EncodeStyleName(s.Name)
}

// EncodeStyleName encodes a display name as a style:name value.
func EncodeStyleName(name string) string {
	var b strings.Builder
	for i, r := range name {
		if isNameChar(r, i == 0) {
			b.WriteRune(r)
			continue
		}
		fmt.Fprintf(&b, "_%x_", r)
	}
	return b.String()
}

func isNameChar(r rune, first bool) bool {
	switch {
	case unicode.IsLetter(r), r == '_':
		return true
	case first:
		return false
	case unicode.IsDigit(r), r == '-', r == '.':
		return true
	}
	return false
}

// Cell is one table cell. Value is only meaningful for ValueFloat.
type Cell struct {
	ValueType ValueType
	Value     float64
	Text      string
	StyleName string // internal name of the paragraph style
}

// Row is an ordered list of cells.
type Row struct {
	Cells []Cell
}

// AddCell appends a cell to the row.
func (r *Row) AddCell(cell Cell) {
	r.Cells = append(r.Cells, cell)
}

// Column is a run of Repeated column definitions sharing one style.
type Column struct {
	Repeated  int
	StyleName string // internal name of the table-column style
}

// Table is a named table with column definitions and rows.
type Table struct {
	Name    string
	Columns []Column
	Rows    []*Row
}

// AddColumns declares repeated columns styled with style.
func (t *Table) AddColumns(repeated int, style *Style) {
	t.Columns = append(t.Columns, Column{Repeated: repeated, StyleName: style.InternalName()})
}

// DeclaredColumns returns the number of columns the definitions cover.
func (t *Table) DeclaredColumns() int {
	n := 0
	for _, c := range t.Columns {
		n += c.Repeated
	}
	return n
}

// ColumnStyle returns the style name declared for a zero-based column
// index, or "" when the index lies past the declared columns.
func (t *Table) ColumnStyle(index int) string {
	for _, c := range t.Columns {
		if index < c.Repeated {
			return c.StyleName
		}
		index -= c.Repeated
	}
	return ""
}

// AddRow appends an empty row and returns it.
func (t *Table) AddRow() *Row {
	row := &Row{}
	t.Rows = append(t.Rows, row)
	return row
}

// Document is a spreadsheet document. Styles go to styles.xml as common
// styles; AutomaticStyles go to content.xml.
type Document struct {
	Styles          []*Style
	AutomaticStyles []*Style
	Tables          []*Table

	Generator string
	Created   time.Time
}

// NewSpreadsheet returns an empty document.
func NewSpreadsheet() *Document {
	return &Document{
		Generator: "csv2ods",
		Created:   time.Now(),
	}
}

// AddStyle registers a common style and returns it.
func (d *Document) AddStyle(style *Style) *Style {
	d.Styles = append(d.Styles, style)
	return style
}

// AddAutomaticStyle registers an automatic style and returns it.
func (d *Document) AddAutomaticStyle(style *Style) *Style {
	d.AutomaticStyles = append(d.AutomaticStyles, style)
	return style
}

// AddTable appends a new table.
func (d *Document) AddTable(name string) *Table {
	table := &Table{Name: name}
	d.Tables = append(d.Tables, table)
	return table
}

// Style looks a style up by display or internal name in both style sets.
func (d *Document) Style(name string) *Style {
	for _, set := range [][]*Style{d.Styles, d.AutomaticStyles} {
		for _, s := range set {
			if s.Name == name || s.InternalName() == name {
				return s
			}
		}
	}
	return nil
}

// Table returns the table with the given name, or nil.
func (d *Document) Table(name string) *Table {
	for _, t := range d.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}
