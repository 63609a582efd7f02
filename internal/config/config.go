// =============================================================================
// csv2ods - Configuration Module
// =============================================================================
//
// This module holds everything the conversion needs to know before it opens a
// file: the input and output paths, the table name and the CSV dialect.
//
// CONFIGURATION SOURCES (lowest to highest precedence):
//   1. Built-in defaults (see Default)
//   2. An optional YAML profile (see LoadFile)
//   3. Command line flags (applied by the cmd package)
//
// The Dialect is a plain value. Once Validate has accepted it, nothing in the
// pipeline mutates it; in particular the text encoding lives here rather than
// in process-wide state.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// QUOTING POLICY
// =============================================================================

// QuotingPolicy selects how the reader treats the quote character.
type QuotingPolicy int

const (
	// QuoteMinimal treats a field that starts with the quote character as quoted.
	QuoteMinimal QuotingPolicy = iota

	// QuoteAll reads exactly like QuoteMinimal.
	QuoteAll

	// QuoteNonNumeric reads like QuoteMinimal but every unquoted field must be
	// a number.
	QuoteNonNumeric

	// QuoteNone gives the quote character no special meaning.
	QuoteNone
)

// String returns the policy name as used in profiles and error messages.
func (q QuotingPolicy) String() string {
	switch q {
	case QuoteMinimal:
		return "minimal"
	case QuoteAll:
		return "all"
	case QuoteNonNumeric:
		return "nonnumeric"
	case QuoteNone:
		return "none"
	default:
		return fmt.Sprintf("QuotingPolicy(%d)", int(q))
	}
}

// ParseQuoting accepts the numeric codes 0-3 or the policy names.
func ParseQuoting(value string) (QuotingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "0", "minimal", "quote_minimal":
		return QuoteMinimal, nil
	case "1", "all", "quote_all":
		return QuoteAll, nil
	case "2", "nonnumeric", "non_numeric", "quote_nonnumeric":
		return QuoteNonNumeric, nil
	case "3", "none", "quote_none":
		return QuoteNone, nil
	}
	return QuoteMinimal, &ConfigurationError{
		Field:   "quoting",
		Message: fmt.Sprintf("unknown quoting policy %q (expected 0, 1, 2 or 3)", value),
	}
}

// UnmarshalYAML lets profiles write either `quoting: 2` or `quoting: nonnumeric`.
func (q *QuotingPolicy) UnmarshalYAML(node *yaml.Node) error {
	policy, err := ParseQuoting(node.Value)
	if err != nil {
		return err
	}
	*q = policy
	return nil
}

// =============================================================================
// DIALECT
// =============================================================================

// Dialect describes how to split the input into rows and fields.
type Dialect struct {
	// Delimiter separates fields. One ASCII character.
	// Aliases "tab", "pipe", "semicolon" and escapes like "\t" are accepted.
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// QuoteChar encloses fields that contain delimiters or line breaks.
	// Default: '"'
	QuoteChar string `yaml:"quote_char"`

	// Quoting is the quoting policy.
	// Default: QuoteMinimal
	Quoting QuotingPolicy `yaml:"quoting"`

	// EscapeChar, when set, makes the following character literal.
	// Default: none
	EscapeChar string `yaml:"escape_char"`

	// SkipInitialSpace drops spaces that directly follow a delimiter.
	SkipInitialSpace bool `yaml:"skip_initial_space"`

	// LineTerminator ends a row. "\n", "\r" and "\r\n" always end a row;
	// any other value is honored in addition to them.
	// Default: "\r\n"
	LineTerminator string `yaml:"line_terminator"`

	// Encoding is the text encoding of the input fields.
	// Default: "utf-8"
	Encoding string `yaml:"encoding"`
}

// DefaultDialect returns the dialect used when nothing is configured.
func DefaultDialect() Dialect {
	return Dialect{
		Delimiter:      ",",
		QuoteChar:      "\"",
		Quoting:        QuoteMinimal,
		LineTerminator: "\r\n",
		Encoding:       "utf-8",
	}
}

// DelimiterByte returns the normalized delimiter. Only valid after Validate.
func (d Dialect) DelimiterByte() byte {
	return NormalizeDelimiter(d.Delimiter)[0]
}

// QuoteByte returns the quote character, or 0 when the policy ignores quotes.
func (d Dialect) QuoteByte() byte {
	if d.Quoting == QuoteNone || d.QuoteChar == "" {
		return 0
	}
	return d.QuoteChar[0]
}

// EscapeByte returns the escape character, or 0 when none is configured.
func (d Dialect) EscapeByte() byte {
	if d.EscapeChar == "" {
		return 0
	}
	return d.EscapeChar[0]
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options is everything one conversion run needs.
type Options struct {
	// InputPath is the CSV (or .xlsx) file to read.
	InputPath string `yaml:"input"`

	// OutputPath is the ODS file to write. May contain placeholders,
	// see utils.ExpandOutputPath.
	OutputPath string `yaml:"output"`

	// TableName names the single table in the output document.
	// Default: "table"
	TableName string `yaml:"table"`

	// Sheet selects the worksheet for workbook input. Empty means the first.
	Sheet string `yaml:"sheet"`

	// LogLevel is one of "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// Dialect describes the CSV input.
	Dialect Dialect `yaml:"dialect"`
}

// Default returns Options with every default applied and no paths set.
func Default() Options {
	return Options{
		TableName: "table",
		LogLevel:  "info",
		Dialect:   DefaultDialect(),
	}
}

// =============================================================================
// PROFILE LOADING
// =============================================================================

// LoadFile reads a YAML profile and returns Options with defaults applied
// for every setting the profile leaves out.
//
// PARAMETERS:
//   - path: The path to the YAML profile.
//
// RETURNS:
//   - The loaded Options.
//   - An error if the file cannot be read or parsed.
func LoadFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read config file: %w", err)
	}

	opts := Options{Dialect: Dialect{Quoting: QuoteMinimal}}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&opts)
	return opts, nil
}

// applyDefaults sets default values for any unset option.
// EscapeChar has no default: empty means "no escape character".
func applyDefaults(opts *Options) {
	def := Default()

	if opts.TableName == "" {
		opts.TableName = def.TableName
	}
	if opts.LogLevel == "" {
		opts.LogLevel = def.LogLevel
	}
	if opts.Dialect.Delimiter == "" {
		opts.Dialect.Delimiter = def.Dialect.Delimiter
	}
	if opts.Dialect.QuoteChar == "" {
		opts.Dialect.QuoteChar = def.Dialect.QuoteChar
	}
	if opts.Dialect.LineTerminator == "" {
		opts.Dialect.LineTerminator = def.Dialect.LineTerminator
	}
	if opts.Dialect.Encoding == "" {
		opts.Dialect.Encoding = def.Dialect.Encoding
	}
}

// =============================================================================
// VALUE HELPERS
// =============================================================================

// NormalizeDelimiter maps the named aliases onto the actual character and
// expands backslash escapes.
func NormalizeDelimiter(value string) string {
	switch strings.ToLower(value) {
	case "\\t", "tab":
		return "\t"
	case "pipe":
		return "|"
	case "semicolon":
		return ";"
	case "comma":
		return ","
	case "space":
		return " "
	}
	return Unescape(value)
}

// Unescape expands Go/C style backslash escapes such as "\r\n" or "\t".
// Values that are not valid escape sequences are returned unchanged, so a
// lone backslash stays a backslash.
func Unescape(value string) string {
	if !strings.Contains(value, "\\") {
		return value
	}
	unquoted, err := strconv.Unquote(`"` + value + `"`)
	if err != nil {
		return value
	}
	return unquoted
}

// IsTruthy reports whether a flag value enables a boolean option. Any
// non-empty value counts, "0" and "false" included.
func IsTruthy(value string) bool {
	return value != ""
}
