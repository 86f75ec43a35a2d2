package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-cv2pdf/internal/config"
)

// ---------------------------------------------------------------------------
// TestApplyEnvConfig - CV2PDF_* overrides
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	t.Run("all variables", func(t *testing.T) {
		t.Parallel()

		vars := map[string]string{
			"CV2PDF_OUTPUT_DIR":   "out",
			"CV2PDF_FORMATS":      "typst, html,",
			"CV2PDF_THEMES":       "./themes",
			"CV2PDF_PDF":          "true",
			"CV2PDF_PNG":          "1",
			"CV2PDF_FROM":         "html",
			"CV2PDF_TYPST":        "/opt/typst",
			"CV2PDF_FONT_PATHS":   strings.Join([]string{"/fonts/a", "/fonts/b"}, string(os.PathListSeparator)),
			"CV2PDF_TIMEOUT":      "90s",
			"CV2PDF_WORKERS":      "3",
			"CV2PDF_ASSUME_HTTPS": "false",
			"CV2PDF_PHONE_REGION": "fr",
		}

		cfg := config.DefaultConfig()
		if err := applyEnvConfig(cfg, lookupIn(vars)); err != nil {
			t.Fatalf("applyEnvConfig() error = %v", err)
		}

		no := false
		want := &config.Config{
			Output:  config.OutputConfig{DefaultDir: "out"},
			Formats: []string{"typst", "html"},
			Themes:  config.ThemesConfig{Path: "./themes"},
			Compile: config.CompileConfig{
				PDF:         true,
				PNG:         true,
				From:        "html",
				TypstBinary: "/opt/typst",
				FontPaths:   []string{"/fonts/a", "/fonts/b"},
				Timeout:     "90s",
			},
			Workers: 3,
			Fields:  config.FieldsConfig{AssumeHTTPS: &no, PhoneRegion: "FR"},
		}
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("env overrides config file values", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{Output: config.OutputConfig{DefaultDir: "from-file"}, Workers: 2}
		if err := applyEnvConfig(cfg, lookupIn(map[string]string{"CV2PDF_OUTPUT_DIR": "from-env"})); err != nil {
			t.Fatalf("applyEnvConfig() error = %v", err)
		}
		if cfg.Output.DefaultDir != "from-env" {
			t.Errorf("DefaultDir = %q, want from-env", cfg.Output.DefaultDir)
		}
		if cfg.Workers != 2 {
			t.Errorf("Workers = %d, want unset env to keep 2", cfg.Workers)
		}
	})

	t.Run("empty values are ignored", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{Themes: config.ThemesConfig{Path: "keep"}}
		if err := applyEnvConfig(cfg, lookupIn(map[string]string{"CV2PDF_THEMES": "  "})); err != nil {
			t.Fatalf("applyEnvConfig() error = %v", err)
		}
		if cfg.Themes.Path != "keep" {
			t.Errorf("Themes.Path = %q, want keep", cfg.Themes.Path)
		}
	})

	invalid := []struct {
		key, value string
	}{
		{"CV2PDF_PDF", "maybe"},
		{"CV2PDF_ASSUME_HTTPS", "sometimes"},
		{"CV2PDF_WORKERS", "many"},
		{"CV2PDF_WORKERS", "99"},
		{"CV2PDF_TIMEOUT", "soon"},
		{"CV2PDF_FORMATS", "latex"},
		{"CV2PDF_FROM", "markdown"},
		{"CV2PDF_PHONE_REGION", "XX"},
	}
	for _, tt := range invalid {
		t.Run("invalid "+tt.key+"="+tt.value, func(t *testing.T) {
			t.Parallel()

			err := applyEnvConfig(config.DefaultConfig(), lookupIn(map[string]string{tt.key: tt.value}))
			if !errors.Is(err, config.ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWarnUnknownEnvVars - Typo detection
// ---------------------------------------------------------------------------

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	environ := []string{
		"HOME=/root",
		"CV2PDF_THEMES=./themes",
		"CV2PDF_TEMES=./themes",
	}
	dotenv := map[string]string{
		"CV2PDF_TIMEOUT": "30s",
		"CV2PDF_TIMOUT":  "30s",
		"CV2PDF_TEMES":   "dup",
	}

	warnUnknownEnvVars(&buf, environ, dotenv)

	out := buf.String()
	for _, want := range []string{"CV2PDF_TEMES", "CV2PDF_TIMOUT"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q should warn about %s", out, want)
		}
	}
	if strings.Count(out, "CV2PDF_TEMES") != 1 {
		t.Errorf("duplicate variable warned twice:\n%s", out)
	}
	for _, known := range []string{"CV2PDF_THEMES ", "CV2PDF_TIMEOUT ", "HOME"} {
		if strings.Contains(out, known) {
			t.Errorf("output %q should not mention %s", out, known)
		}
	}
}

// ---------------------------------------------------------------------------
// TestLoadDotEnv - .env file reading
// ---------------------------------------------------------------------------

func TestLoadDotEnv(t *testing.T) {
	t.Run("explicit file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ci.env")
		writeFile(t, path, "CV2PDF_WORKERS=2\n# comment\nCV2PDF_THEMES=\"./my themes\"\n")

		vars, err := loadDotEnv(path)
		if err != nil {
			t.Fatalf("loadDotEnv() error = %v", err)
		}
		want := map[string]string{"CV2PDF_WORKERS": "2", "CV2PDF_THEMES": "./my themes"}
		if diff := cmp.Diff(want, vars); diff != "" {
			t.Errorf("vars mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := loadDotEnv(filepath.Join(t.TempDir(), "absent.env"))
		if !errors.Is(err, ErrEnvFile) {
			t.Errorf("error = %v, want ErrEnvFile", err)
		}
	})

	t.Run("default file is optional", func(t *testing.T) {
		t.Chdir(t.TempDir())

		vars, err := loadDotEnv("")
		if err != nil || vars != nil {
			t.Errorf("loadDotEnv(\"\") = %v, %v; want nil, nil", vars, err)
		}
	})

	t.Run("default file is read when present", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, ".env"), "CV2PDF_PDF=true\n")
		t.Chdir(dir)

		vars, err := loadDotEnv("")
		if err != nil {
			t.Fatalf("loadDotEnv() error = %v", err)
		}
		if vars["CV2PDF_PDF"] != "true" {
			t.Errorf("vars = %v, want CV2PDF_PDF=true", vars)
		}
	})
}

// ---------------------------------------------------------------------------
// TestEnvironmentLookup - Process env before .env
// ---------------------------------------------------------------------------

func TestEnvironmentLookup(t *testing.T) {
	t.Parallel()

	env := &Environment{
		LookupEnv: lookupIn(map[string]string{"CV2PDF_WORKERS": "4"}),
		dotenv:    map[string]string{"CV2PDF_WORKERS": "1", "CV2PDF_PDF": "true"},
	}

	if v, _ := env.lookup("CV2PDF_WORKERS"); v != "4" {
		t.Errorf("lookup(CV2PDF_WORKERS) = %q, want process value 4", v)
	}
	if v, _ := env.lookup("CV2PDF_PDF"); v != "true" {
		t.Errorf("lookup(CV2PDF_PDF) = %q, want .env value", v)
	}
	if _, ok := env.lookup("CV2PDF_PNG"); ok {
		t.Error("lookup(CV2PDF_PNG) found an unset variable")
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	if diff := cmp.Diff([]string{"a", "b"}, splitList(" a,, b ,")); diff != "" {
		t.Errorf("splitList mismatch (-want +got):\n%s", diff)
	}
	if got := splitList(" , "); got != nil {
		t.Errorf("splitList(blank) = %v, want nil", got)
	}
}
