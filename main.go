// =============================================================================
// csv2ods - Main Entry Point
// =============================================================================
//
// USAGE:
//   csv2ods -i input.csv -o output.ods   - Convert a CSV file
//   csv2ods inspect output.ods           - Print the cells of an ODS file
//   csv2ods version                      - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Conversion pipeline (config, readers, ODS model)
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/csv2ods/cmd"
)

func main() {
	cmd.Execute()
}
