// Package config loads the CLI configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/alnah/go-cv2pdf/internal/fileutil"
	"github.com/alnah/go-cv2pdf/internal/markup"
	"github.com/alnah/go-cv2pdf/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidConfig   = errors.New("invalid config")
)

// Field limits.
const (
	MaxPathLength = 4096 // PATH_MAX on Linux
	MaxWorkers    = 32
)

// AppDir is the directory name used under the user config directory.
const AppDir = "go-cv2pdf"

// Config holds the CLI defaults. Flags and CV2PDF_* environment variables
// override it.
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Formats []string      `yaml:"formats"` // grammars rendered by default (empty = all)
	Themes  ThemesConfig  `yaml:"themes"`
	Compile CompileConfig `yaml:"compile"`
	Workers int           `yaml:"workers" validate:"gte=0,lte=32"` // 0 = auto
	Fields  FieldsConfig  `yaml:"fields"`
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Empty = same as source
}

// ThemesConfig defines where custom themes live.
type ThemesConfig struct {
	Path string `yaml:"path"` // Empty = built-in themes only
}

// CompileConfig defines PDF and PNG generation.
type CompileConfig struct {
	PDF         bool     `yaml:"pdf"`
	PNG         bool     `yaml:"png"`
	From        string   `yaml:"from"`        // "typst" (default) or "html"
	TypstBinary string   `yaml:"typstBinary"` // Empty = "typst" from PATH
	FontPaths   []string `yaml:"fontPaths"`
	Timeout     string   `yaml:"timeout"` // Go duration, e.g. "90s"
}

// FieldsConfig defines how contact fields are normalized.
type FieldsConfig struct {
	// AssumeHTTPS prefixes bare domains such as "example.com" with
	// https://. Nil means true.
	AssumeHTTPS *bool  `yaml:"assumeHTTPS"`
	PhoneRegion string `yaml:"phoneRegion" validate:"omitempty,iso3166_1_alpha2"`
}

// TimeoutDuration returns the parsed compile timeout, or zero if unset.
// Validate has already rejected malformed values.
func (c CompileConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// BareURLScheme returns the scheme for bare domains: "https", or empty
// when AssumeHTTPS is false.
func (f FieldsConfig) BareURLScheme() string {
	if f.AssumeHTTPS != nil && !*f.AssumeHTTPS {
		return ""
	}
	return "https"
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks value ranges and field lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, describe(verrs[0]))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	for i, f := range c.Formats {
		if _, err := markup.ParseGrammar(f); err != nil {
			return fmt.Errorf("%w: formats[%d]: %v", ErrInvalidConfig, i, err)
		}
	}
	if c.Compile.From != "" {
		g, err := markup.ParseGrammar(c.Compile.From)
		if err != nil {
			return fmt.Errorf("%w: compile.from: %v", ErrInvalidConfig, err)
		}
		if g == markup.Markdown {
			return fmt.Errorf("%w: compile.from: markdown cannot be compiled (use typst or html)", ErrInvalidConfig)
		}
	}
	if c.Compile.Timeout != "" {
		d, err := time.ParseDuration(c.Compile.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: compile.timeout: %q is not a positive duration", ErrInvalidConfig, c.Compile.Timeout)
		}
	}

	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("themes.path", c.Themes.Path, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("compile.typstBinary", c.Compile.TypstBinary, MaxPathLength); err != nil {
		return err
	}
	for i, p := range c.Compile.FontPaths {
		if err := validateFieldLength(fmt.Sprintf("compile.fontPaths[%d]", i), p, MaxPathLength); err != nil {
			return err
		}
	}
	return nil
}

// describe turns a validator failure into a "field: reason" message.
func describe(fe validator.FieldError) string {
	name := map[string]string{
		"Workers":     "workers",
		"PhoneRegion": "fields.phoneRegion",
	}[fe.Field()]
	if name == "" {
		name = fe.Namespace()
	}
	switch fe.Tag() {
	case "iso3166_1_alpha2":
		return fmt.Sprintf("%s: %q is not an ISO 3166-1 alpha-2 region code", name, fe.Value())
	case "gte", "lte":
		return fmt.Sprintf("%s: must be between 0 and %d, got %v", name, MaxWorkers, fe.Value())
	}
	return fmt.Sprintf("%s: failed %q check", name, fe.Tag())
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a configuration that renders every grammar and
// compiles nothing.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SearchPaths returns the paths LoadConfig tries for a config name, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, AppDir, name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations:
// the current directory, then the user config directory (e.g.
// ~/.config/go-cv2pdf/), trying .yaml then .yml.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
