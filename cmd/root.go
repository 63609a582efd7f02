// =============================================================================
// csv2ods - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command does
// the conversion itself; the other commands are attached to it.
//
// COBRA CLI STRUCTURE:
//   csv2ods -i in.csv -o out.ods [dialect flags]
//   ├── inspect (csv2ods inspect out.ods)
//   └── version (csv2ods version)
//
// CONFIGURATION:
//   Settings come from, lowest precedence first:
//   1. Built-in defaults
//   2. The YAML profile named by --config
//   3. Flags given on the command line
//
//   Without an input and an output the command prints its help and exits
//   successfully.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/csv2ods/internal/config"
	"github.com/ginjaninja78/csv2ods/internal/converter"
)

// =============================================================================
// FLAGS
// =============================================================================

// rootFlags holds the raw flag values of one command instance.
type rootFlags struct {
	configFile string
	verbose    bool

	input     string
	output    string
	table     string
	sheet     string
	delimiter string
	encoding  string
	skipSpace string
	lineTerm  string
	quoting   string
	escape    string
	quoteChar string
}

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// NewRootCommand builds the csv2ods command tree.
func NewRootCommand() *cobra.Command {
	f := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "csv2ods",
		Short: "csv2ods - Convert a CSV file into an OpenDocument spreadsheet",
		Long: `csv2ods reads one delimited text file and writes it as an OpenDocument
Spreadsheet (.ods) with a single table.

Fields that look like decimals (1.5, -0.25) or integers without a leading
zero (7, 42) become numeric cells; everything else is kept as text.

Example Usage:
  csv2ods -i data.csv -o data.ods
  csv2ods -i data.csv -o data.ods -d ";" -t Sales
  csv2ods -i export.txt -o out.ods -d tab -c latin1 -q 3 -e "\\"
  csv2ods -i book.xlsx --sheet Summary -o "{input}_{date}.ods"
  csv2ods --config profile.yaml -i data.csv -o data.ods`,

		SilenceUsage:  true,
		SilenceErrors: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, f)
		},
	}

	flags := rootCmd.Flags()
	def := config.Default()

	flags.StringVarP(&f.input, "input", "i", "", "Input CSV file (or .xlsx workbook)")
	flags.StringVarP(&f.output, "output", "o", "", "Output ODS file; {input}, {date}, {time}, {timestamp} and {uuid} are expanded")
	flags.StringVarP(&f.delimiter, "delimiter", "d", def.Dialect.Delimiter, "Field delimiter (also: tab, pipe, semicolon)")
	flags.StringVarP(&f.encoding, "encoding", "c", def.Dialect.Encoding, "Text encoding of the input")
	flags.StringVarP(&f.table, "table", "t", def.TableName, "Name of the table in the output")
	flags.StringVarP(&f.skipSpace, "skipinitialspace", "s", "", "Any non-empty value skips spaces after a delimiter")
	flags.StringVarP(&f.lineTerm, "lineterminator", "l", `\r\n`, "Row terminator")
	flags.StringVarP(&f.quoting, "quoting", "q", "0", "Quoting: 0=minimal 1=all 2=nonnumeric 3=none")
	flags.StringVarP(&f.escape, "escapechar", "e", "", "Escape character")
	flags.StringVarP(&f.quoteChar, "quotechar", "r", def.Dialect.QuoteChar, "Quote character")
	flags.StringVar(&f.sheet, "sheet", "", "Worksheet to read from a workbook input (default: first sheet)")

	// Persistent flags are shared with the subcommands.
	rootCmd.PersistentFlags().StringVar(&f.configFile, "config", "", "Path to a YAML profile")
	rootCmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// CONVERSION
// =============================================================================

func runConvert(cmd *cobra.Command, f *rootFlags) error {
	opts := config.Default()
	if f.configFile != "" {
		loaded, err := config.LoadFile(f.configFile)
		if err != nil {
			return err
		}
		opts = loaded
	}

	flagErr := applyFlags(cmd, f, &opts)

	// Missing paths are not an error: show how to use the tool. This wins
	// over a bad flag value.
	if opts.InputPath == "" || opts.OutputPath == "" {
		return cmd.Help()
	}
	if flagErr != nil {
		return flagErr
	}

	level := opts.LogLevel
	if f.verbose {
		level = "debug"
	}

	conv := converter.New(opts)
	conv.SetLogger(newLogger(cmd.ErrOrStderr(), level))

	result := conv.Run()
	return result.Error
}

// applyFlags copies every flag the user set onto opts. A flag given an empty
// value keeps the profile or built-in setting. The paths are copied before
// any value is parsed, so they are in place even when an error is returned.
func applyFlags(cmd *cobra.Command, f *rootFlags, opts *config.Options) error {
	set := func(name, value string) bool {
		return value != "" && cmd.Flags().Changed(name)
	}

	if set("input", f.input) {
		opts.InputPath = f.input
	}
	if set("output", f.output) {
		opts.OutputPath = f.output
	}
	if set("table", f.table) {
		opts.TableName = f.table
	}
	if set("sheet", f.sheet) {
		opts.Sheet = f.sheet
	}
	if set("delimiter", f.delimiter) {
		opts.Dialect.Delimiter = f.delimiter
	}
	if set("encoding", f.encoding) {
		opts.Dialect.Encoding = f.encoding
	}
	if set("skipinitialspace", f.skipSpace) {
		opts.Dialect.SkipInitialSpace = config.IsTruthy(f.skipSpace)
	}
	if set("lineterminator", f.lineTerm) {
		opts.Dialect.LineTerminator = f.lineTerm
	}
	if set("escapechar", f.escape) {
		opts.Dialect.EscapeChar = config.Unescape(f.escape)
	}
	if set("quotechar", f.quoteChar) {
		opts.Dialect.QuoteChar = config.Unescape(f.quoteChar)
	}
	if set("quoting", f.quoting) {
		policy, err := config.ParseQuoting(f.quoting)
		if err != nil {
			return err
		}
		opts.Dialect.Quoting = policy
	}

	return nil
}

// newLogger returns a text logger on w at the named level.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
