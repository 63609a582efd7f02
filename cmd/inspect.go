// =============================================================================
// csv2ods - Inspect Command
// =============================================================================
//
// This file defines the 'inspect' command, which reads an ODS file back and
// prints its tables: the column declarations followed by every row, one cell
// per entry as type("text").
//
// COMMAND USAGE:
//   csv2ods inspect out.ods
//   csv2ods inspect - < out.ods      (read the package from stdin)
//
// OUTPUT:
//   table "table" (3 rows)
//     columns: 4 x Wshort, 3 x Wwide
//     1: string("name") string("age")
//     2: string("Alice") float("30")
//     3: string("Bob") string("0")
//
// =============================================================================

package cmd

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/csv2ods/internal/ods"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the tables of an ODS file (\"-\" reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd.InOrStdin(), args[0])
			if err != nil {
				return fmt.Errorf("failed to inspect %s: %w", args[0], err)
			}
			printDocument(cmd.OutOrStdout(), doc)
			return nil
		},
	}
}

// readDocument loads path, or the whole of stdin when path is "-".
func readDocument(stdin io.Reader, path string) (*ods.Document, error) {
	if path != "-" {
		return ods.ReadFile(path)
	}

	// A zip archive needs random access, so stdin is buffered first.
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return ods.Read(bytes.NewReader(data), int64(len(data)))
}

// printDocument writes a plain text listing of every table in doc.
func printDocument(w io.Writer, doc *ods.Document) {
	for _, table := range doc.Tables {
		fmt.Fprintf(w, "table %q (%d rows)\n", table.Name, len(table.Rows))

		runs := make([]string, 0, len(table.Columns))
		for _, c := range table.Columns {
			runs = append(runs, fmt.Sprintf("%d x %s", c.Repeated, c.StyleName))
		}
		fmt.Fprintf(w, "  columns: %s\n", strings.Join(runs, ", "))

		for i, row := range table.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, c := range row.Cells {
				cells = append(cells, fmt.Sprintf("%s(%q)", c.ValueType, c.Text))
			}
			fmt.Fprintf(w, "  %d: %s\n", i+1, strings.Join(cells, " "))
		}
	}
}
