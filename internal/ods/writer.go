// =============================================================================
// csv2ods - ODS Writer
// =============================================================================
//
// This file serializes a Document into an ODS package:
//
//   mimetype                 <!-- first entry, stored uncompressed -->
//   META-INF/manifest.xml
//   content.xml              <!-- automatic styles and the tables -->
//   styles.xml               <!-- common styles -->
//   meta.xml                 <!-- generator and creation date -->
//
// CONTENT STRUCTURE:
//   <office:document-content>
//     <office:automatic-styles>
//       <style:style style:name="Wshort" style:family="table-column">...
//     </office:automatic-styles>
//     <office:body>
//       <office:spreadsheet>
//         <table:table table:name="table">
//           <table:table-column table:number-columns-repeated="4" table:style-name="Wshort"/>
//           <table:table-row>
//             <table:table-cell office:value-type="float" office:value="30">
//               <text:p text:style-name="Table_20_Contents">30</text:p>
//             </table:table-cell>
//           </table:table-row>
//         </table:table>
//       </office:spreadsheet>
//     </office:body>
//   </office:document-content>
//
// Elements are written compactly, without indentation, because white space
// inside text:p is significant.
//
// =============================================================================

package ods

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/ginjaninja78/csv2ods/pkg/utils"
)

// =============================================================================
// NAMESPACES
// =============================================================================

const (
	nsOffice   = "urn:oasis:names:tc:opendocument:xmlns:office:1.0"
	nsStyle    = "urn:oasis:names:tc:opendocument:xmlns:style:1.0"
	nsText     = "urn:oasis:names:tc:opendocument:xmlns:text:1.0"
	nsTable    = "urn:oasis:names:tc:opendocument:xmlns:table:1.0"
	nsFO       = "urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0"
	nsMeta     = "urn:oasis:names:tc:opendocument:xmlns:meta:1.0"
	nsManifest = "urn:oasis:names:tc:opendocument:xmlns:manifest:1.0"
	nsDC       = "http://purl.org/dc/elements/1.1/"

	odfVersion = "1.2"
	dateLayout = "2006-01-02T15:04:05"
)

// documentNamespaces are declared on every document root.
var documentNamespaces = []string{
	"xmlns:office", nsOffice,
	"xmlns:style", nsStyle,
	"xmlns:text", nsText,
	"xmlns:table", nsTable,
	"xmlns:fo", nsFO,
	"xmlns:meta", nsMeta,
	"xmlns:dc", nsDC,
	"office:version", odfVersion,
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the document to path. The package is written to a temporary
// file next to path and renamed into place, so a failed save leaves no
// partial file behind.
func (d *Document) Save(path string) error {
	return utils.WriteFileAtomic(path, d.Write)
}

// Write writes the document as an ODS package to w.
func (d *Document) Write(w io.Writer) error {
	zw := zip.NewWriter(w)

	// The mimetype entry must come first and must not be compressed.
	mt, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return fmt.Errorf("failed to create mimetype entry: %w", err)
	}
	if _, err := io.WriteString(mt, MimeType); err != nil {
		return fmt.Errorf("failed to write mimetype entry: %w", err)
	}

	parts := []struct {
		name string
		root *xmlElement
	}{
		{"META-INF/manifest.xml", buildManifest()},
		{"content.xml", d.buildContent()},
		{"styles.xml", d.buildStyles()},
		{"meta.xml", d.buildMeta()},
	}

	for _, part := range parts {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: part.name, Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", part.name, err)
		}
		if _, err := fw.Write(marshalDocument(part.root)); err != nil {
			return fmt.Errorf("failed to write %s: %w", part.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish package: %w", err)
	}
	return nil
}

// =============================================================================
// PART BUILDERS
// =============================================================================

func buildManifest() *xmlElement {
	root := newElement("manifest:manifest",
		"xmlns:manifest", nsManifest,
		"manifest:version", odfVersion,
	)
	root.add(newElement("manifest:file-entry",
		"manifest:full-path", "/",
		"manifest:version", odfVersion,
		"manifest:media-type", MimeType,
	))
	for _, part := range []string{"content.xml", "styles.xml", "meta.xml"} {
		root.add(newElement("manifest:file-entry",
			"manifest:full-path", part,
			"manifest:media-type", "text/xml",
		))
	}
	return root
}

func (d *Document) buildContent() *xmlElement {
	root := newElement("office:document-content", documentNamespaces...)

	automatic := newElement("office:automatic-styles")
	for _, s := range d.AutomaticStyles {
		automatic.add(buildStyle(s))
	}
	root.add(automatic)

	spreadsheet := newElement("office:spreadsheet")
	for _, t := range d.Tables {
		spreadsheet.add(buildTable(t))
	}
	root.add(newElement("office:body").add(spreadsheet))

	return root
}

func (d *Document) buildStyles() *xmlElement {
	root := newElement("office:document-styles", documentNamespaces...)

	styles := newElement("office:styles")
	for _, s := range d.Styles {
		styles.add(buildStyle(s))
	}
	return root.add(styles)
}

func (d *Document) buildMeta() *xmlElement {
	root := newElement("office:document-meta", documentNamespaces...)

	meta := newElement("office:meta")
	if d.Generator != "" {
		meta.add(newElement("meta:generator").addText(d.Generator))
	}
	if !d.Created.IsZero() {
		created := d.Created.Format(dateLayout)
		meta.add(newElement("meta:creation-date").addText(created))
		meta.add(newElement("dc:date").addText(created))
	}
	return root.add(meta)
}

// buildStyle writes a style:style element. style:display-name is only
// written when the internal name differs from the display name.
func buildStyle(s *Style) *xmlElement {
	internal := s.InternalName()
	attrs := []string{"style:name", internal}
	if internal != s.Name {
		attrs = append(attrs, "style:display-name", s.Name)
	}
	attrs = append(attrs, "style:family", string(s.Family))

	el := newElement("style:style", attrs...)

	if p := s.Paragraph; p != nil {
		el.add(newElement("style:paragraph-properties",
			"text:number-lines", strconv.FormatBool(p.NumberLines),
			"text:line-number", strconv.Itoa(p.LineNumber),
		))
	}
	if t := s.Text; t != nil && t.FontWeight != "" {
		el.add(newElement("style:text-properties", "fo:font-weight", t.FontWeight))
	}
	if c := s.Column; c != nil && c.ColumnWidth != "" {
		el.add(newElement("style:table-column-properties", "style:column-width", c.ColumnWidth))
	}

	return el
}

func buildTable(t *Table) *xmlElement {
	el := newElement("table:table", "table:name", t.Name)

	for _, c := range t.Columns {
		var attrs []string
		if c.Repeated > 1 {
			attrs = append(attrs, "table:number-columns-repeated", strconv.Itoa(c.Repeated))
		}
		if c.StyleName != "" {
			attrs = append(attrs, "table:style-name", c.StyleName)
		}
		el.add(newElement("table:table-column", attrs...))
	}

	for _, r := range t.Rows {
		row := newElement("table:table-row")
		for _, c := range r.Cells {
			row.add(buildCell(c))
		}
		el.add(row)
	}

	return el
}

func buildCell(c Cell) *xmlElement {
	attrs := []string{"office:value-type", string(c.ValueType)}
	if c.ValueType == ValueFloat {
		attrs = append(attrs, "office:value", strconv.FormatFloat(c.Value, 'g', -1, 64))
	}
	cell := newElement("table:table-cell", attrs...)

	var pAttrs []string
	if c.StyleName != "" {
		pAttrs = []string{"text:style-name", c.StyleName}
	}
	p := newElement("text:p", pAttrs...)
	p.children = paragraphContent(c.Text)

	return cell.add(p)
}

// =============================================================================
// XML ELEMENT TREE
// =============================================================================

// xmlElement is an element with ordered attributes and mixed content.
// Children are *xmlElement or xmlText.
type xmlElement struct {
	name     string
	attrs    []xmlAttr
	children []interface{}
}

type xmlAttr struct {
	name, value string
}

type xmlText string

// newElement creates an element; attrs are name/value pairs.
func newElement(name string, attrs ...string) *xmlElement {
	el := &xmlElement{name: name}
	for i := 0; i+1 < len(attrs); i += 2 {
		el.attrs = append(el.attrs, xmlAttr{name: attrs[i], value: attrs[i+1]})
	}
	return el
}

func (e *xmlElement) add(children ...*xmlElement) *xmlElement {
	for _, c := range children {
		e.children = append(e.children, c)
	}
	return e
}

func (e *xmlElement) addText(text string) *xmlElement {
	e.children = append(e.children, xmlText(text))
	return e
}

// marshalDocument writes the XML declaration and the element tree.
func marshalDocument(root *xmlElement) []byte {
	var buffer bytes.Buffer
	buffer.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	writeElement(&buffer, root)
	return buffer.Bytes()
}

// writeElement writes an element and its content.
func writeElement(buffer *bytes.Buffer, element *xmlElement) {
	buffer.WriteString("<")
	buffer.WriteString(element.name)

	for _, attr := range element.attrs {
		buffer.WriteString(" ")
		buffer.WriteString(attr.name)
		buffer.WriteString(`="`)
		buffer.WriteString(escapeXML(attr.value))
		buffer.WriteString(`"`)
	}

	if len(element.children) == 0 {
		buffer.WriteString("/>")
		return
	}

	buffer.WriteString(">")
	for _, child := range element.children {
		switch c := child.(type) {
		case *xmlElement:
			writeElement(buffer, c)
		case xmlText:
			buffer.WriteString(escapeXML(string(c)))
		}
	}
	buffer.WriteString("</")
	buffer.WriteString(element.name)
	buffer.WriteString(">")
}

// escapeXML escapes s for use in text and attribute values. Characters that
// XML 1.0 does not allow at all are replaced with U+FFFD.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		case '\t':
			buffer.WriteString("&#9;")
		case '\n':
			buffer.WriteString("&#10;")
		case '\r':
			buffer.WriteString("&#13;")
		default:
			if !isXMLChar(r) {
				r = '\uFFFD'
			}
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}

// isXMLChar reports whether r may appear in an XML 1.0 document.
func isXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
