package themes

import "errors"

// Sentinel errors for theme operations.
var (
	// ErrThemeNotFound indicates the requested theme does not exist.
	ErrThemeNotFound = errors.New("theme not found")

	// ErrIncompleteTheme indicates the theme lacks a required template
	// after inheritance.
	ErrIncompleteTheme = errors.New("incomplete theme")

	// ErrInvalidThemeName indicates the name contains invalid characters
	// such as path separators or traversal sequences.
	ErrInvalidThemeName = errors.New("invalid theme name")

	// ErrInvalidBasePath indicates the custom theme path is not a valid directory.
	ErrInvalidBasePath = errors.New("invalid base path")

	// ErrThemeRead indicates an I/O error occurred while reading a theme file.
	ErrThemeRead = errors.New("failed to read theme")

	// ErrPathTraversal indicates an attempt to access files outside the base path.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrInvalidManifest indicates a malformed theme.yaml.
	ErrInvalidManifest = errors.New("invalid theme manifest")

	// ErrInvalidTemplate indicates a template that does not parse or fails
	// against sample data.
	ErrInvalidTemplate = errors.New("invalid theme template")

	// ErrInheritanceCycle indicates themes extending each other in a loop.
	ErrInheritanceCycle = errors.New("theme inheritance cycle")

	// ErrThemeExists indicates Scaffold would overwrite an existing theme.
	ErrThemeExists = errors.New("theme already exists")
)
