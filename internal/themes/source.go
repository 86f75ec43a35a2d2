package themes

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ManifestFile is the name of the theme manifest inside a theme directory.
const ManifestFile = "theme.yaml"

// Source reads theme files. Implementations may read from embedded files,
// a directory on disk, or anything else that can serve bytes by path.
type Source interface {
	// ReadFile reads a slash-separated file relative to the theme directory.
	// Returns ErrThemeNotFound if the theme does not exist, and an error
	// matching fs.ErrNotExist if only the file is missing.
	ReadFile(theme, file string) ([]byte, error)

	// Themes lists the theme names this source provides, sorted.
	Themes() ([]string, error)
}

//go:embed builtin
var builtin embed.FS

// EmbeddedSource serves the built-in themes.
type EmbeddedSource struct{}

// NewEmbeddedSource creates an EmbeddedSource.
func NewEmbeddedSource() *EmbeddedSource {
	return &EmbeddedSource{}
}

func (e *EmbeddedSource) ReadFile(theme, file string) ([]byte, error) {
	if err := ValidateThemeName(theme); err != nil {
		return nil, err
	}
	if _, err := fs.Stat(builtin, path.Join("builtin", theme, ManifestFile)); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrThemeNotFound, theme)
	}
	return builtin.ReadFile(path.Join("builtin", theme, file))
}

func (e *EmbeddedSource) Themes() ([]string, error) {
	entries, err := builtin.ReadDir("builtin")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrThemeRead, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// FilesystemSource reads custom themes from {basePath}/{name}/.
type FilesystemSource struct {
	basePath string
}

// NewFilesystemSource creates a FilesystemSource for the given base path.
// Returns ErrInvalidBasePath if the path is not a valid, readable directory.
func NewFilesystemSource(basePath string) (*FilesystemSource, error) {
	if basePath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}

	// Resolve symlinks in base path so containment checks compare real paths.
	if realPath, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = realPath
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, absPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, absPath)
	}
	if _, err := os.ReadDir(absPath); err != nil {
		return nil, fmt.Errorf("%w: cannot read directory: %v", ErrInvalidBasePath, err)
	}

	return &FilesystemSource{basePath: absPath}, nil
}

// BasePath returns the resolved base directory.
func (f *FilesystemSource) BasePath() string { return f.basePath }

func (f *FilesystemSource) ReadFile(theme, file string) ([]byte, error) {
	if err := ValidateThemeName(theme); err != nil {
		return nil, err
	}
	if strings.Contains(file, "..") {
		return nil, fmt.Errorf("%w: %q", ErrPathTraversal, file)
	}

	dirPath := filepath.Join(f.basePath, theme)
	if err := f.verifyPathContainment(dirPath + string(filepath.Separator)); err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(dirPath, ManifestFile)); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrThemeNotFound, theme)
		}
		return nil, fmt.Errorf("%w: %v", ErrThemeRead, err)
	}

	filePath := filepath.Join(dirPath, filepath.FromSlash(file))
	if err := f.verifyPathContainment(filePath); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(filePath) // #nosec G304 -- path validated above
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s/%s: %w", theme, file, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("%w: %v", ErrThemeRead, err)
	}
	return content, nil
}

// Themes lists the subdirectories that hold a manifest.
func (f *FilesystemSource) Themes() ([]string, error) {
	entries, err := os.ReadDir(f.basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrThemeRead, err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || ValidateThemeName(entry.Name()) != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(f.basePath, entry.Name(), ManifestFile)); err == nil {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// verifyPathContainment ensures the resolved file path is within basePath.
// Resolves symlinks to prevent escape via a symlink pointing outside it.
func (f *FilesystemSource) verifyPathContainment(filePath string) error {
	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve path", ErrPathTraversal)
	}

	// If EvalSymlinks fails the file does not exist yet; the prefix check
	// still applies and the read fails later.
	if realPath, err := filepath.EvalSymlinks(absFilePath); err == nil {
		absFilePath = realPath
	}

	// The separator prevents prefix attacks (/base/path vs /base/pathevil).
	if !strings.HasPrefix(absFilePath, f.basePath+string(filepath.Separator)) {
		return fmt.Errorf("%w: path escapes base directory", ErrPathTraversal)
	}
	return nil
}

// isNotFound reports whether err means the theme does not exist in a source.
func isNotFound(err error) bool {
	return errors.Is(err, ErrThemeNotFound)
}

// Compile-time interface checks.
var (
	_ Source = (*EmbeddedSource)(nil)
	_ Source = (*FilesystemSource)(nil)
)
