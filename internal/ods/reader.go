// =============================================================================
// csv2ods - ODS Reader
// =============================================================================
//
// This file loads an ODS package back into a Document. It understands the
// subset of ODF the writer produces, plus the repetition attributes office
// suites use to compress runs of identical rows and cells:
//   - styles.xml: common styles
//   - content.xml: automatic styles and tables
//   - meta.xml: generator and creation date
//
// Cell text is rebuilt from text:p content, with text:s, text:tab and
// text:line-break turned back into spaces, tabs and newlines.
//
// =============================================================================

package ods

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ReadFile opens an ODS package from disk.
//
// PARAMETERS:
//   - path: The path to the .ods file.
//
// RETURNS:
//   - A pointer to the loaded Document.
//   - An error if the file is not a readable ODS package.
func ReadFile(path string) (*Document, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open package: %w", err)
	}
	defer r.Close()

	return readPackage(&r.Reader)
}

// Read loads an ODS package from r.
func Read(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open package: %w", err)
	}
	return readPackage(zr)
}

func readPackage(zr *zip.Reader) (*Document, error) {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	if err := checkMimeType(files["mimetype"]); err != nil {
		return nil, err
	}

	content, ok := files["content.xml"]
	if !ok {
		return nil, fmt.Errorf("content.xml not found in package")
	}

	doc := &Document{}
	// styles.xml and meta.xml are optional.
	for _, f := range []*zip.File{files["styles.xml"], content, files["meta.xml"]} {
		if f == nil {
			continue
		}
		if err := readPart(f, doc); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

func checkMimeType(f *zip.File) error {
	if f == nil {
		return fmt.Errorf("mimetype not found in package")
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open mimetype: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("failed to read mimetype: %w", err)
	}
	if mt := strings.TrimSpace(string(data)); mt != MimeType {
		return fmt.Errorf("unexpected mimetype %q", mt)
	}
	return nil
}

func readPart(f *zip.File, doc *Document) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	pr := &partReader{doc: doc}
	if err := pr.read(xml.NewDecoder(rc)); err != nil {
		return fmt.Errorf("failed to parse %s: %w", f.Name, err)
	}
	return nil
}

// =============================================================================
// PART READER
// =============================================================================

// partReader walks the tokens of one XML part and fills the document.
type partReader struct {
	doc *Document

	styles *[]*Style // set inside office:styles or office:automatic-styles
	style  *Style

	table     *Table
	row       *Row
	rowRepeat int

	cell       *Cell
	cellRepeat int
	paragraphs []string
	paragraph  *paragraphBuilder

	metaField string // local name of the meta element being read
	metaText  strings.Builder
}

func (p *partReader) read(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.start(t); err != nil {
				return err
			}
		case xml.EndElement:
			p.end(t)
		case xml.CharData:
			switch {
			case p.paragraph != nil:
				p.paragraph.chars(string(t))
			case p.metaField != "":
				p.metaText.Write(t)
			}
		}
	}
}

func (p *partReader) start(t xml.StartElement) error {
	switch t.Name.Space {
	case nsOffice:
		switch t.Name.Local {
		case "styles":
			p.styles = &p.doc.Styles
		case "automatic-styles":
			p.styles = &p.doc.AutomaticStyles
		}

	case nsStyle:
		p.startStyle(t)

	case nsTable:
		return p.startTable(t)

	case nsText:
		p.startText(t)

	case nsMeta, nsDC:
		switch t.Name.Local {
		case "generator", "creation-date", "date":
			p.metaField = t.Name.Local
			p.metaText.Reset()
		}
	}
	return nil
}

func (p *partReader) startStyle(t xml.StartElement) {
	switch t.Name.Local {
	case "style":
		if p.styles == nil {
			return
		}
		name := attr(t, nsStyle, "display-name")
		if name == "" {
			name = attr(t, nsStyle, "name")
		}
		p.style = &Style{Name: name, Family: StyleFamily(attr(t, nsStyle, "family"))}

	case "paragraph-properties":
		if p.style != nil {
			line, _ := strconv.Atoi(attr(t, nsText, "line-number"))
			p.style.Paragraph = &ParagraphProperties{
				NumberLines: attr(t, nsText, "number-lines") == "true",
				LineNumber:  line,
			}
		}

	case "text-properties":
		if p.style != nil {
			p.style.Text = &TextProperties{FontWeight: attr(t, nsFO, "font-weight")}
		}

	case "table-column-properties":
		if p.style != nil {
			p.style.Column = &ColumnProperties{ColumnWidth: attr(t, nsStyle, "column-width")}
		}
	}
}

func (p *partReader) startTable(t xml.StartElement) error {
	switch t.Name.Local {
	case "table":
		p.table = p.doc.AddTable(attr(t, nsTable, "name"))

	case "table-column":
		if p.table == nil {
			return nil
		}
		repeated, err := repeatCount(t, "number-columns-repeated")
		if err != nil {
			return err
		}
		p.table.Columns = append(p.table.Columns, Column{
			Repeated:  repeated,
			StyleName: attr(t, nsTable, "style-name"),
		})

	case "table-row":
		if p.table == nil {
			return nil
		}
		repeated, err := repeatCount(t, "number-rows-repeated")
		if err != nil {
			return err
		}
		p.row = &Row{}
		p.rowRepeat = repeated

	case "table-cell", "covered-table-cell":
		if p.row == nil {
			return nil
		}
		repeated, err := repeatCount(t, "number-columns-repeated")
		if err != nil {
			return err
		}
		cell := &Cell{ValueType: ValueType(attr(t, nsOffice, "value-type"))}
		if cell.ValueType == ValueFloat {
			v, err := strconv.ParseFloat(attr(t, nsOffice, "value"), 64)
			if err != nil {
				return fmt.Errorf("invalid float cell value: %w", err)
			}
			cell.Value = v
		}
		p.cell = cell
		p.cellRepeat = repeated
		p.paragraphs = nil
	}
	return nil
}

func (p *partReader) startText(t xml.StartElement) {
	if p.cell == nil {
		return
	}

	switch t.Name.Local {
	case "p":
		p.paragraph = &paragraphBuilder{}
		if p.cell.StyleName == "" {
			p.cell.StyleName = attr(t, nsText, "style-name")
		}
	case "s":
		if p.paragraph != nil {
			n := 1
			if c, err := strconv.Atoi(attr(t, nsText, "c")); err == nil && c > 0 {
				n = c
			}
			p.paragraph.spaces(n)
		}
	case "tab":
		if p.paragraph != nil {
			p.paragraph.literal("\t")
		}
	case "line-break":
		if p.paragraph != nil {
			p.paragraph.literal("\n")
		}
	}
}

func (p *partReader) end(t xml.EndElement) {
	switch {
	case t.Name.Space == nsStyle && t.Name.Local == "style":
		if p.style != nil && p.styles != nil {
			*p.styles = append(*p.styles, p.style)
		}
		p.style = nil

	case t.Name.Space == nsOffice && (t.Name.Local == "styles" || t.Name.Local == "automatic-styles"):
		p.styles = nil

	case t.Name.Space == nsText && t.Name.Local == "p":
		if p.paragraph != nil {
			p.paragraphs = append(p.paragraphs, p.paragraph.String())
			p.paragraph = nil
		}

	case t.Name.Space == nsTable && (t.Name.Local == "table-cell" || t.Name.Local == "covered-table-cell"):
		if p.cell != nil && p.row != nil {
			p.cell.Text = strings.Join(p.paragraphs, "\n")
			for i := 0; i < p.cellRepeat; i++ {
				p.row.AddCell(*p.cell)
			}
		}
		p.cell = nil

	case t.Name.Space == nsTable && t.Name.Local == "table-row":
		p.endRow()

	case t.Name.Space == nsTable && t.Name.Local == "table":
		p.table = nil

	case p.metaField != "" && t.Name.Local == p.metaField:
		p.endMeta()
	}
}

// endRow appends the finished row. Office suites pad sheets with long runs of
// blank rows and cells; trailing blank cells are dropped and a repeated blank
// row is kept once.
func (p *partReader) endRow() {
	if p.row == nil || p.table == nil {
		return
	}

	cells := p.row.Cells
	for len(cells) > 0 && isBlank(cells[len(cells)-1]) {
		cells = cells[:len(cells)-1]
	}
	p.row.Cells = cells

	repeat := p.rowRepeat
	if len(cells) == 0 {
		repeat = 1
	}
	for i := 0; i < repeat; i++ {
		row := &Row{Cells: append([]Cell(nil), cells...)}
		p.table.Rows = append(p.table.Rows, row)
	}
	p.row = nil
}

func (p *partReader) endMeta() {
	value := strings.TrimSpace(p.metaText.String())
	switch p.metaField {
	case "generator":
		p.doc.Generator = value
	case "creation-date":
		if created, err := time.Parse(dateLayout, value); err == nil {
			p.doc.Created = created
		} else if created, err := time.Parse(time.RFC3339, value); err == nil {
			p.doc.Created = created
		}
	}
	p.metaField = ""
}

func isBlank(c Cell) bool {
	return c.ValueType == "" && c.Text == ""
}

// attr returns the value of the attribute space:local, or "".
func attr(t xml.StartElement, space, local string) string {
	for _, a := range t.Attr {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func repeatCount(t xml.StartElement, local string) (int, error) {
	value := attr(t, nsTable, local)
	if value == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid table:%s %q", local, value)
	}
	return n, nil
}
