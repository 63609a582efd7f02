// =============================================================================
// csv2ods - CSV Parser Module
// =============================================================================
//
// This module turns a delimited text file into rows of decoded string fields.
// It is driven entirely by a config.Dialect:
//   - field delimiter, quote character and escape character
//   - quoting policy (minimal, all, non-numeric, none)
//   - skipping of spaces after a delimiter
//   - an optional extra row terminator
//   - the text encoding of the fields
//
// The reader works on raw bytes and decodes each field once the record is
// complete, so one bad field is reported with its position and its bytes.
//
// Malformed quoting is not rejected. A character after a closing quote joins
// the field, and a record cut off by the end of the input (inside quotes or
// right after an escape character) keeps the data read so far. Only NUL bytes
// and unquoted non-numeric fields under QuoteNonNumeric are parse errors.
//
// USAGE:
//   file, err := os.Open(filePath)
//   if err != nil {
//       return err
//   }
//   defer file.Close()
//
//   parser, err := NewReader(file, dialect)
//   if err != nil {
//       return err
//   }
//
//   for parser.Next() {
//       row := parser.Row()
//       // Process the row...
//   }
//
//   if err := parser.Err(); err != nil {
//       return err
//   }
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ginjaninja78/csv2ods/internal/config"
)

// =============================================================================
// STREAMING PARSER
// =============================================================================

// StreamingParser reads one record at a time. It is single pass and cannot be
// restarted.
type StreamingParser struct {
	scanner   *recordScanner
	decoder   *fieldDecoder
	quoting   config.QuotingPolicy
	current   []string
	rowNumber int
	err       error
}

// NewReader prepares a parser over r. The caller owns r.
//
// PARAMETERS:
//   - r: The raw input.
//   - dialect: The dialect to parse with.
//
// RETURNS:
//   - A pointer to the StreamingParser.
//   - A *config.ConfigurationError if the dialect or its encoding is unusable.
func NewReader(r io.Reader, dialect config.Dialect) (*StreamingParser, error) {
	if err := dialect.Validate(); err != nil {
		return nil, err
	}

	decoder, err := newFieldDecoder(dialect.Encoding)
	if err != nil {
		return nil, err
	}

	buffered := bufio.NewReader(r)
	if decoder.isUTF8() {
		if head, err := buffered.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			buffered.Discard(len(utf8BOM))
		}
	}

	return &StreamingParser{
		scanner: newRecordScanner(buffered, dialect),
		decoder: decoder,
		quoting: dialect.Quoting,
	}, nil
}

// Next advances to the next row. Returns false at the end of the input or on
// the first error; check Err afterwards.
func (p *StreamingParser) Next() bool {
	if p.err != nil {
		return false
	}

	fields, err := p.scanner.readRecord()
	if err == io.EOF {
		p.current = nil
		return false
	}
	if err != nil {
		p.err = err
		p.current = nil
		return false
	}

	p.rowNumber++

	row := make([]string, len(fields))
	for i, field := range fields {
		value, err := p.decoder.decode(field.data)
		if err != nil {
			p.err = &DecodingError{
				Row:      p.rowNumber,
				Column:   i + 1,
				Encoding: p.decoder.name,
				Field:    field.data,
				Err:      err,
			}
			p.current = nil
			return false
		}

		if p.quoting == config.QuoteNonNumeric && !field.quoted && len(field.data) > 0 {
			if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
				p.err = &ParseError{
					Line:    p.scanner.recordLine,
					Message: fmt.Sprintf("could not convert unquoted field %d (%q) to a number", i+1, value),
				}
				p.current = nil
				return false
			}
		}

		row[i] = value
	}

	p.current = row
	return true
}

// Row returns the current row. The slice is not reused between calls.
func (p *StreamingParser) Row() []string {
	return p.current
}

// RowNumber returns the number of rows read so far (1-indexed).
func (p *StreamingParser) RowNumber() int {
	return p.rowNumber
}

// Err returns the error that stopped iteration, if any.
func (p *StreamingParser) Err() error {
	return p.err
}

// =============================================================================
// RECORD SCANNER
// =============================================================================

type scanState int

const (
	startRecord scanState = iota
	startField
	escapedChar
	inField
	inQuotedField
	escapeInQuotedField
	quoteInQuotedField
)

// acceptsTerminator reports whether a configured row terminator ends the
// record in this state. Inside quotes it is ordinary data.
func (s scanState) acceptsTerminator() bool {
	switch s {
	case startRecord, startField, inField, quoteInQuotedField:
		return true
	}
	return false
}

// rawField is one field before decoding.
type rawField struct {
	data   []byte
	quoted bool
}

// recordScanner splits the byte stream into records.
type recordScanner struct {
	r          *bufio.Reader
	delim      byte
	quote      byte // 0 when quoting is disabled
	escape     byte // 0 when there is no escape character
	skipSpace  bool
	terminator []byte // nil when only line breaks end a record

	line       int // current physical line, 1-based
	recordLine int // line the current record started on
}

func newRecordScanner(r *bufio.Reader, dialect config.Dialect) *recordScanner {
	s := &recordScanner{
		r:         r,
		delim:     dialect.DelimiterByte(),
		quote:     dialect.QuoteByte(),
		escape:    dialect.EscapeByte(),
		skipSpace: dialect.SkipInitialSpace,
		line:      1,
	}

	switch terminator := config.Unescape(dialect.LineTerminator); terminator {
	case "\r\n", "\n", "\r":
	default:
		s.terminator = []byte(terminator)
	}

	return s
}

// readRecord returns the next record, an empty non-nil slice for a blank
// line, or io.EOF when the input is exhausted.
func (s *recordScanner) readRecord() ([]rawField, error) {
	var (
		fields = []rawField{}
		field  []byte
		quoted bool
		state  = startRecord
	)

	s.recordLine = s.line

	saveField := func() {
		fields = append(fields, rawField{data: field, quoted: quoted})
		field, quoted = nil, false
	}

	for {
		c, err := s.r.ReadByte()
		if err == io.EOF {
			switch state {
			case startRecord:
				return nil, io.EOF
			}
			// A cut-off quoted field or escape keeps what was read.
			saveField()
			return fields, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}

		if c == 0 {
			return nil, s.errorf("line contains NUL")
		}

		if s.terminator != nil && c == s.terminator[0] && state.acceptsTerminator() && s.consumeTerminator() {
			if state != startRecord {
				saveField()
			}
			return fields, nil
		}

		switch state {
		case startRecord:
			if c == '\n' || c == '\r' {
				s.endLine(c)
				return fields, nil
			}
			state = startField
			fallthrough

		case startField:
			switch {
			case c == '\n' || c == '\r':
				saveField()
				s.endLine(c)
				return fields, nil
			case s.quote != 0 && c == s.quote:
				quoted = true
				state = inQuotedField
			case s.escape != 0 && c == s.escape:
				state = escapedChar
			case c == ' ' && s.skipSpace:
			case c == s.delim:
				saveField()
			default:
				field = append(field, c)
				state = inField
			}

		case escapedChar:
			if c == '\n' {
				s.line++
			}
			field = append(field, c)
			state = inField

		case inField:
			switch {
			case c == '\n' || c == '\r':
				saveField()
				s.endLine(c)
				return fields, nil
			case s.escape != 0 && c == s.escape:
				state = escapedChar
			case c == s.delim:
				saveField()
				state = startField
			default:
				field = append(field, c)
			}

		case inQuotedField:
			switch {
			case s.escape != 0 && c == s.escape:
				state = escapeInQuotedField
			case c == s.quote:
				state = quoteInQuotedField
			default:
				if c == '\n' {
					s.line++
				}
				field = append(field, c)
			}

		case escapeInQuotedField:
			if c == '\n' {
				s.line++
			}
			field = append(field, c)
			state = inQuotedField

		case quoteInQuotedField:
			switch {
			case c == s.quote:
				field = append(field, c)
				state = inQuotedField
			case c == s.delim:
				saveField()
				state = startField
			case c == '\n' || c == '\r':
				saveField()
				s.endLine(c)
				return fields, nil
			default:
				field = append(field, c)
				state = inField
			}
		}
	}
}

// endLine counts a line break and swallows the '\n' of a "\r\n" pair.
func (s *recordScanner) endLine(c byte) {
	s.line++
	if c == '\r' {
		if next, err := s.r.Peek(1); err == nil && next[0] == '\n' {
			s.r.Discard(1)
		}
	}
}

// consumeTerminator checks whether the bytes after the one just read complete
// the configured terminator and consumes them if so.
func (s *recordScanner) consumeTerminator() bool {
	rest := s.terminator[1:]
	if len(rest) > 0 {
		next, err := s.r.Peek(len(rest))
		if err != nil || !bytes.Equal(next, rest) {
			return false
		}
		s.r.Discard(len(rest))
	}
	s.line += bytes.Count(s.terminator, []byte{'\n'})
	return true
}

func (s *recordScanner) errorf(format string, args ...interface{}) error {
	return &ParseError{Line: s.line, Message: fmt.Sprintf(format, args...)}
}
