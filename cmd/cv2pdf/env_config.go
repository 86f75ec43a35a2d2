package main

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/alnah/go-cv2pdf/internal/config"
	"github.com/alnah/go-cv2pdf/internal/fileutil"
)

const envPrefix = "CV2PDF_"

// defaultEnvFile is read when present and no --env-file is given.
const defaultEnvFile = ".env"

// knownEnvVars lists valid CV2PDF_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"CV2PDF_CONFIG":       true, // config file name or path
	"CV2PDF_OUTPUT_DIR":   true,
	"CV2PDF_FORMATS":      true, // comma-separated grammars
	"CV2PDF_THEMES":       true, // custom theme directory
	"CV2PDF_PDF":          true,
	"CV2PDF_PNG":          true,
	"CV2PDF_FROM":         true, // typst or html
	"CV2PDF_TYPST":        true, // typst executable
	"CV2PDF_FONT_PATHS":   true, // OS path list
	"CV2PDF_TIMEOUT":      true,
	"CV2PDF_WORKERS":      true,
	"CV2PDF_ASSUME_HTTPS": true,
	"CV2PDF_PHONE_REGION": true,
	"CV2PDF_CONTAINER":    true, // "1" tells doctor it runs in a container
}

// loadDotEnv reads path, or .env in the working directory when path is
// empty. A missing default file is not an error; a missing explicit one is.
func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		if !fileutil.FileExists(defaultEnvFile) {
			return nil, nil
		}
		path = defaultEnvFile
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEnvFile, path, err)
	}
	return vars, nil
}

// warnUnknownEnvVars logs warnings for unrecognized CV2PDF_* variables
// from the process environment and the .env file.
// Helps catch typos like CV2PDF_TEMES instead of CV2PDF_THEMES.
func warnUnknownEnvVars(w io.Writer, environ []string, dotenv map[string]string) {
	var names []string
	for _, kv := range environ {
		names = append(names, strings.SplitN(kv, "=", 2)[0])
	}
	for name := range dotenv {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range slices.Compact(names) {
		if strings.HasPrefix(name, envPrefix) && !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overrides cfg with the CV2PDF_* variables that are set
// and non-empty, then validates the result.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied later by each command)
func applyEnvConfig(cfg *config.Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("CV2PDF_OUTPUT_DIR"); ok {
		cfg.Output.DefaultDir = v
	}
	if v, ok := get("CV2PDF_FORMATS"); ok {
		cfg.Formats = splitList(v)
	}
	if v, ok := get("CV2PDF_THEMES"); ok {
		cfg.Themes.Path = v
	}
	if v, ok := get("CV2PDF_FROM"); ok {
		cfg.Compile.From = v
	}
	if v, ok := get("CV2PDF_TYPST"); ok {
		cfg.Compile.TypstBinary = v
	}
	if v, ok := get("CV2PDF_FONT_PATHS"); ok {
		cfg.Compile.FontPaths = filepath.SplitList(v)
	}
	if v, ok := get("CV2PDF_TIMEOUT"); ok {
		cfg.Compile.Timeout = v
	}
	if v, ok := get("CV2PDF_PHONE_REGION"); ok {
		cfg.Fields.PhoneRegion = strings.ToUpper(v)
	}

	for key, dst := range map[string]*bool{
		"CV2PDF_PDF": &cfg.Compile.PDF,
		"CV2PDF_PNG": &cfg.Compile.PNG,
	} {
		if v, ok := get(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s: %q is not a boolean", config.ErrInvalidConfig, key, v)
			}
			*dst = b
		}
	}
	if v, ok := get("CV2PDF_ASSUME_HTTPS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: CV2PDF_ASSUME_HTTPS: %q is not a boolean", config.ErrInvalidConfig, v)
		}
		cfg.Fields.AssumeHTTPS = &b
	}
	if v, ok := get("CV2PDF_WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: CV2PDF_WORKERS: %q is not an integer", config.ErrInvalidConfig, v)
		}
		cfg.Workers = n
	}

	return cfg.Validate()
}

// splitList splits a comma-separated value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
