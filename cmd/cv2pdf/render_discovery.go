package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// cvFile is a single CV to render. Artifacts are written as
// OutputBase + extension.
type cvFile struct {
	InputPath  string
	OutputBase string
}

// discoverFiles resolves FILE and DIR arguments to CVs. Directories are
// scanned one level deep so that theme directories nested inside are not
// mistaken for CVs. A file reached twice is rendered once.
func discoverFiles(args []string, outputDir string) ([]cvFile, error) {
	var files []cvFile
	seen := map[string]bool{}

	add := func(path string) {
		key := filepath.Clean(path)
		if seen[key] {
			return
		}
		seen[key] = true
		files = append(files, cvFile{InputPath: path, OutputBase: outputBase(path, outputDir)})
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if !isYAML(arg) {
				return nil, fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(arg))
			}
			add(arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.IsDir() || !isYAML(e.Name()) {
				continue
			}
			add(filepath.Join(arg, e.Name()))
		}
	}

	return files, nil
}

// outputBase returns the artifact path without extension for a CV.
func outputBase(inputPath, outputDir string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), base)
	}
	return filepath.Join(outputDir, base)
}

func isYAML(path string) bool {
	return slices.Contains([]string{".yaml", ".yml"}, strings.ToLower(filepath.Ext(path)))
}
