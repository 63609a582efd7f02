package config

import (
	"fmt"
	"strings"
)

// ConfigurationError reports an option that cannot be used as given.
type ConfigurationError struct {
	// Field is the option name, e.g. "delimiter".
	Field string

	// Message describes what is wrong with it.
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// Validate checks the options for one run. Paths are required here; the CLI
// handles their absence before calling this by printing its usage.
func (o Options) Validate() error {
	if strings.TrimSpace(o.InputPath) == "" {
		return &ConfigurationError{Field: "input", Message: "an input file is required"}
	}
	if strings.TrimSpace(o.OutputPath) == "" {
		return &ConfigurationError{Field: "output", Message: "an output file is required"}
	}
	if o.TableName == "" {
		return &ConfigurationError{Field: "table", Message: "table name must not be empty"}
	}
	switch strings.ToLower(o.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigurationError{Field: "log_level", Message: fmt.Sprintf("unknown level %q", o.LogLevel)}
	}
	return o.Dialect.Validate()
}

// Validate checks that every dialect character is a single ASCII byte and
// that the characters do not collide.
//
// CHECKS:
//   - delimiter, quote char and escape char are one ASCII character each
//   - none of them is a line break
//   - the delimiter differs from the quote and escape characters
//   - the quoting policy is one of the four known values
//   - the line terminator is not empty
//
// The encoding name is checked by the reader, which owns the decoder lookup.
func (d Dialect) Validate() error {
	delim := NormalizeDelimiter(d.Delimiter)
	if err := checkChar("delimiter", delim, true); err != nil {
		return err
	}

	if d.Quoting != QuoteNone {
		if err := checkChar("quote_char", d.QuoteChar, true); err != nil {
			return err
		}
	} else if err := checkChar("quote_char", d.QuoteChar, false); err != nil {
		return err
	}

	if err := checkChar("escape_char", d.EscapeChar, false); err != nil {
		return err
	}

	if d.Quoting < QuoteMinimal || d.Quoting > QuoteNone {
		return &ConfigurationError{Field: "quoting", Message: fmt.Sprintf("unknown quoting policy %d", int(d.Quoting))}
	}

	if d.Quoting != QuoteNone && delim == d.QuoteChar {
		return &ConfigurationError{Field: "delimiter", Message: "delimiter and quote character must differ"}
	}
	if d.EscapeChar != "" && delim == d.EscapeChar {
		return &ConfigurationError{Field: "delimiter", Message: "delimiter and escape character must differ"}
	}

	if Unescape(d.LineTerminator) == "" {
		return &ConfigurationError{Field: "line_terminator", Message: "line terminator must not be empty"}
	}

	return nil
}

// checkChar validates a single dialect character.
func checkChar(field, value string, required bool) error {
	if value == "" {
		if required {
			return &ConfigurationError{Field: field, Message: "must be set"}
		}
		return nil
	}
	if len(value) != 1 {
		return &ConfigurationError{Field: field, Message: fmt.Sprintf("must be a single character, got %q", value)}
	}
	c := value[0]
	if c >= 0x80 {
		return &ConfigurationError{Field: field, Message: fmt.Sprintf("must be an ASCII character, got %q", value)}
	}
	if c == '\r' || c == '\n' || c == 0 {
		return &ConfigurationError{Field: field, Message: fmt.Sprintf("%q cannot be used", value)}
	}
	return nil
}
