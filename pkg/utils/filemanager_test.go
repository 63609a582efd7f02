package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.ods")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello")
		return err
	})
	if err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("content = %q, want hello", data)
	}

	assertOnlyFiles(t, dir, "out.ods")
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.ods")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "new")
		return err
	}); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Fatalf("content = %q, want new", data)
	}
}

func TestWriteFileAtomicFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.ods")
	boom := errors.New("boom")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("destination exists after a failed write")
	}
	assertOnlyFiles(t, dir)
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.ods")

	err := WriteFileAtomic(path, func(w io.Writer) error { return nil })
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("error = %v, want os.ErrNotExist", err)
	}
}

func TestExpandOutputPath(t *testing.T) {
	if got := ExpandOutputPath("out/plain.ods", "data/in.csv"); got != "out/plain.ods" {
		t.Fatalf("plain path changed: %q", got)
	}

	if got := ExpandOutputPath("out/{input}.ods", "data/sales.2024.csv"); got != "out/sales.2024.ods" {
		t.Fatalf("{input} = %q", got)
	}

	got := ExpandOutputPath("{input}_{date}_{time}.ods", "in.csv")
	if !regexp.MustCompile(`^in_\d{8}_\d{6}\.ods$`).MatchString(got) {
		t.Fatalf("{date}_{time} = %q", got)
	}

	got = ExpandOutputPath("{timestamp}.ods", "in.csv")
	if !regexp.MustCompile(`^\d{8}_\d{6}\.ods$`).MatchString(got) {
		t.Fatalf("{timestamp} = %q", got)
	}

	got = ExpandOutputPath("{uuid}.ods", "in.csv")
	if len(strings.TrimSuffix(got, ".ods")) != 36 {
		t.Fatalf("{uuid} = %q", got)
	}
}

// assertOnlyFiles fails unless dir holds exactly the named files.
func assertOnlyFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Name())
	}
	if strings.Join(got, ",") != strings.Join(names, ",") {
		t.Fatalf("directory holds %v, want %v", got, names)
	}
}
