package csvparser

import "fmt"

// ParseError reports a record that is malformed under the active dialect.
type ParseError struct {
	// Line is the 1-based physical line where the problem was detected.
	Line int

	// Message describes the problem.
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error on line %d: %s", e.Line, e.Message)
}

// DecodingError reports a field whose bytes are not valid in the configured
// encoding. Field holds the raw bytes so the offending input can be found.
type DecodingError struct {
	Row      int
	Column   int
	Encoding string
	Field    []byte
	Err      error
}

func (e *DecodingError) Error() string {
	msg := fmt.Sprintf("cannot decode row %d, column %d as %s: %q", e.Row, e.Column, e.Encoding, e.Field)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}
