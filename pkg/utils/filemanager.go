// =============================================================================
// csv2ods - File Manager Utility
// =============================================================================
//
// This module provides the file handling the converter needs around a single
// conversion:
//   - Output path expansion (placeholders in the -o value)
//   - Atomic file writes (temporary file + rename)
//
// ATOMIC WRITES:
//   The output is written to a hidden temporary file in the destination
//   directory and renamed over the destination once it is complete. A failed
//   write removes the temporary file, so the destination is either the old
//   file, the complete new file, or absent.
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// WriteFileAtomic writes a file through write and moves it into place.
//
// PARAMETERS:
//   - path: The destination path. Its directory must exist.
//   - write: Writes the file contents.
//
// RETURNS:
//   - An error if the temporary file cannot be created, written or renamed.
//     The error from write is returned wrapped.
func WriteFileAtomic(path string, write func(io.Writer) error) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmpPath := filepath.Join(dir, "."+base+"."+uuid.New().String()+".tmp")

	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	defer func() {
		if err != nil {
			file.Close()
			os.Remove(tmpPath)
		}
	}()

	if err = write(file); err != nil {
		return fmt.Errorf("failed to write %s: %w", base, err)
	}
	if err = file.Sync(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", base, err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", base, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", base, err)
	}

	return nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// ExpandOutputPath replaces placeholders in an output path.
//
// PARAMETERS:
//   - pattern: The output path as given by the user.
//   - inputPath: The input file path, used for {input}.
//
// PLACEHOLDERS:
//
//	{input}     - Input file name without directory and extension
//	{timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//	{date}      - Current date (YYYYMMDD)
//	{time}      - Current time (HHMMSS)
//	{uuid}      - A random UUID
//
// RETURNS:
//   - The expanded path. A pattern without placeholders is returned as is.
//
// EXAMPLE:
//
//	ExpandOutputPath("out/{input}_{date}.ods", "data/sales.csv")
//	// "out/sales_20240115.ods"
func ExpandOutputPath(pattern, inputPath string) string {
	if !strings.Contains(pattern, "{") {
		return pattern
	}

	now := time.Now()
	base := filepath.Base(inputPath)

	replacer := strings.NewReplacer(
		"{input}", strings.TrimSuffix(base, filepath.Ext(base)),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
		"{uuid}", uuid.New().String(),
	)
	return replacer.Replace(pattern)
}
