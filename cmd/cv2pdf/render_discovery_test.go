package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ---------------------------------------------------------------------------
// TestDiscoverFiles - FILE and DIR arguments
// ---------------------------------------------------------------------------

func TestDiscoverFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "cv: {}\n")
	writeFile(t, filepath.Join(dir, "b.YML"), "cv: {}\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	writeFile(t, filepath.Join(dir, "themes", "mine", "theme.yaml"), "name: mine\n")

	t.Run("directory is scanned one level deep", func(t *testing.T) {
		t.Parallel()

		files, err := discoverFiles([]string{dir}, "")
		if err != nil {
			t.Fatalf("discoverFiles() error = %v", err)
		}
		want := []cvFile{
			{InputPath: filepath.Join(dir, "a.yaml"), OutputBase: filepath.Join(dir, "a")},
			{InputPath: filepath.Join(dir, "b.YML"), OutputBase: filepath.Join(dir, "b")},
		}
		if diff := cmp.Diff(want, files); diff != "" {
			t.Errorf("files mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("output directory", func(t *testing.T) {
		t.Parallel()

		files, err := discoverFiles([]string{filepath.Join(dir, "a.yaml")}, "out")
		if err != nil {
			t.Fatalf("discoverFiles() error = %v", err)
		}
		if want := filepath.Join("out", "a"); files[0].OutputBase != want {
			t.Errorf("OutputBase = %q, want %q", files[0].OutputBase, want)
		}
	})

	t.Run("duplicates are rendered once", func(t *testing.T) {
		t.Parallel()

		a := filepath.Join(dir, "a.yaml")
		files, err := discoverFiles([]string{a, dir, a}, "")
		if err != nil {
			t.Fatalf("discoverFiles() error = %v", err)
		}
		if len(files) != 2 {
			t.Errorf("len(files) = %d, want 2: %v", len(files), files)
		}
	})

	t.Run("wrong extension", func(t *testing.T) {
		t.Parallel()

		_, err := discoverFiles([]string{filepath.Join(dir, "notes.txt")}, "")
		if !errors.Is(err, ErrInvalidExtension) {
			t.Errorf("error = %v, want ErrInvalidExtension", err)
		}
	})

	t.Run("missing path", func(t *testing.T) {
		t.Parallel()

		_, err := discoverFiles([]string{filepath.Join(dir, "absent.yaml")}, "")
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error = %v, want os.ErrNotExist", err)
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		t.Parallel()

		files, err := discoverFiles([]string{t.TempDir()}, "")
		if err != nil || len(files) != 0 {
			t.Errorf("discoverFiles(empty) = %v, %v; want none", files, err)
		}
	})
}
