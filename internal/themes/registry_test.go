package themes

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"
	"text/template"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-cv2pdf/internal/diag"
	"github.com/alnah/go-cv2pdf/internal/entry"
	"github.com/alnah/go-cv2pdf/internal/markup"
)

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	t.Run("built-ins only", func(t *testing.T) {
		t.Parallel()

		r, err := NewRegistry("")
		if err != nil {
			t.Fatalf("NewRegistry() error = %v", err)
		}
		if r.HasCustomSource() {
			t.Error("HasCustomSource() = true, want false")
		}
		want := []string{"classic", "compact", "default"}
		if diff := cmp.Diff(want, r.BuiltinNames()); diff != "" {
			t.Errorf("BuiltinNames() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("invalid custom path", func(t *testing.T) {
		t.Parallel()

		_, err := NewRegistry("/nonexistent/path/abc123xyz")
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("NewRegistry() error = %v, want ErrInvalidBasePath", err)
		}
	})
}

func TestRegistry_Resolve_Builtin(t *testing.T) {
	t.Parallel()

	r := mustRegistry(t, "")

	for _, name := range r.BuiltinNames() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			b, err := r.Resolve(name)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", name, err)
			}
			if b.Name() != name {
				t.Errorf("Name() = %q, want %q", b.Name(), name)
			}
			for _, g := range markup.Grammars() {
				if b.Document(g) == nil {
					t.Errorf("Document(%s) = nil", g)
				}
				for _, v := range entry.Variants() {
					if b.Fragment(g, v) == nil {
						t.Errorf("Fragment(%s, %s) = nil", g, v)
					}
				}
			}
		})
	}

	t.Run("unknown theme", func(t *testing.T) {
		t.Parallel()

		_, err := r.Resolve("nonexistent")
		if !errors.Is(err, ErrThemeNotFound) {
			t.Errorf("Resolve() error = %v, want ErrThemeNotFound", err)
		}
	})

	t.Run("invalid name", func(t *testing.T) {
		t.Parallel()

		_, err := r.Resolve("../default")
		if !errors.Is(err, ErrInvalidThemeName) {
			t.Errorf("Resolve() error = %v, want ErrInvalidThemeName", err)
		}
	})
}

func TestRegistry_Inheritance(t *testing.T) {
	t.Parallel()

	r := mustRegistry(t, "")

	t.Run("child overrides option defaults", func(t *testing.T) {
		t.Parallel()

		b, err := r.Resolve("compact")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if b.Extends() != "default" {
			t.Errorf("Extends() = %q, want %q", b.Extends(), "default")
		}
		defaults := b.Defaults()
		if defaults["font_size"] != "9pt" {
			t.Errorf("font_size default = %v, want 9pt", defaults["font_size"])
		}
		// Inherited unchanged from the parent.
		if defaults["primary_color"] != "#004f90" {
			t.Errorf("primary_color default = %v, want #004f90", defaults["primary_color"])
		}
	})

	t.Run("child inherits option set", func(t *testing.T) {
		t.Parallel()

		parent, _ := r.Resolve("default")
		child, _ := r.Resolve("classic")
		if diff := cmp.Diff(parent.OptionNames(), child.OptionNames()); diff != "" {
			t.Errorf("OptionNames() mismatch (-parent +child):\n%s", diff)
		}
	})

	t.Run("named color default is normalized", func(t *testing.T) {
		t.Parallel()

		b, _ := r.Resolve("classic")
		if got := b.Defaults()["primary_color"]; got != "#000000" {
			t.Errorf("primary_color default = %v, want #000000", got)
		}
	})

	t.Run("defaults are copies", func(t *testing.T) {
		t.Parallel()

		b, _ := r.Resolve("default")
		d := b.Defaults()
		d["font_size"] = "99pt"
		if b.Defaults()["font_size"] == "99pt" {
			t.Error("Defaults() returned shared map")
		}
	})
}

func TestRegistry_Resolve_Custom(t *testing.T) {
	t.Parallel()

	t.Run("custom theme extending a built-in", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeTheme(t, dir, "mine", "name: mine\nextends: default\n", map[string]string{
			"markdown/text.tmpl": "> {{.text}}",
		})
		r := mustRegistry(t, dir)

		b, err := r.Resolve("mine")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		got := execute(t, b.Fragment(markup.Markdown, entry.TextVariant), map[string]any{"text": "hello"})
		if got != "> hello" {
			t.Errorf("overridden fragment = %q, want %q", got, "> hello")
		}
		got = execute(t, b.Fragment(markup.HTML, entry.TextVariant), map[string]any{"text": "hello"})
		if !strings.Contains(got, "hello") {
			t.Errorf("inherited fragment = %q, want it to contain %q", got, "hello")
		}
	})

	t.Run("custom theme shadows built-in of the same name", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeTheme(t, dir, "default", "name: default\ndescription: mine\nextends: default\n", map[string]string{
			"typst/bullet.tmpl": "+ {{.bullet}}",
		})
		r := mustRegistry(t, dir)

		b, err := r.Resolve("default")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if b.Description() != "mine" {
			t.Errorf("Description() = %q, want custom description", b.Description())
		}
		got := execute(t, b.Fragment(markup.Typst, entry.Bullet), map[string]any{"bullet": "x"})
		if got != "+ x" {
			t.Errorf("Fragment() = %q, want %q", got, "+ x")
		}
	})

	t.Run("falls back to built-in when no custom theme", func(t *testing.T) {
		t.Parallel()

		r := mustRegistry(t, t.TempDir())

		b, err := r.Resolve("classic")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if b.Name() != "classic" {
			t.Errorf("Name() = %q, want classic", b.Name())
		}
	})

	t.Run("lists custom and built-in names", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeTheme(t, dir, "mine", "name: mine\nextends: default\n", nil)
		writeTheme(t, dir, "default", "name: default\nextends: default\n", nil)
		r := mustRegistry(t, dir)

		want := []string{"classic", "compact", "default", "mine"}
		if diff := cmp.Diff(want, r.Names()); diff != "" {
			t.Errorf("Names() mismatch (-want +got):\n%s", diff)
		}
		custom, err := r.CustomNames()
		if err != nil {
			t.Fatalf("CustomNames() error = %v", err)
		}
		if diff := cmp.Diff([]string{"default", "mine"}, custom); diff != "" {
			t.Errorf("CustomNames() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestRegistry_Resolve_Errors(t *testing.T) {
	t.Parallel()

	t.Run("incomplete theme lists missing fragments", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeTheme(t, dir, "partial", "name: partial\n", map[string]string{
			"typst/document.tmpl": "{{.Name}}",
		})
		r := mustRegistry(t, dir)

		_, err := r.Resolve("partial")
		if !errors.Is(err, ErrIncompleteTheme) {
			t.Fatalf("Resolve() error = %v, want ErrIncompleteTheme", err)
		}
		var ve *diag.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Resolve() error = %v, want *diag.ValidationError", err)
		}
		if !strings.Contains(ve.Reason, "incomplete theme") {
			t.Errorf("Reason = %q, want it to contain %q", ve.Reason, "incomplete theme")
		}
		if len(ve.Missing) != len(RequiredFiles())-1 {
			t.Errorf("len(Missing) = %d, want %d", len(ve.Missing), len(RequiredFiles())-1)
		}
		for _, want := range []string{"typst/education", "markdown/document", "html/publication"} {
			if !slices.Contains(ve.Missing, want) {
				t.Errorf("Missing = %v, want it to contain %q", ve.Missing, want)
			}
		}
		if slices.Contains(ve.Missing, "typst/document") {
			t.Errorf("Missing = %v, must not contain provided typst/document", ve.Missing)
		}
	})

	t.Run("inheritance cycle", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeTheme(t, dir, "alpha", "name: alpha\nextends: beta\n", nil)
		writeTheme(t, dir, "beta", "name: beta\nextends: alpha\n", nil)
		r := mustRegistry(t, dir)

		_, err := r.Resolve("alpha")
		if !errors.Is(err, ErrInheritanceCycle) {
			t.Errorf("Resolve() error = %v, want ErrInheritanceCycle", err)
		}
	})

	t.Run("missing parent", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeTheme(t, dir, "orphan", "name: orphan\nextends: nowhere\n", nil)
		r := mustRegistry(t, dir)

		_, err := r.Resolve("orphan")
		if !errors.Is(err, ErrInvalidManifest) {
			t.Errorf("Resolve() error = %v, want ErrInvalidManifest", err)
		}
		if errors.Is(err, ErrThemeNotFound) {
			t.Errorf("Resolve() error = %v, must not read as a missing theme", err)
		}
		if !strings.Contains(err.Error(), "nowhere") {
			t.Errorf("Resolve() error = %v, want it to name the parent", err)
		}
	})

	t.Run("unknown view key fails at load", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeTheme(t, dir, "typo", "name: typo\nextends: default\n", map[string]string{
			"html/education.tmpl": "{{.institutoin}}",
		})
		r := mustRegistry(t, dir)

		_, err := r.Resolve("typo")
		if !errors.Is(err, ErrInvalidTemplate) {
			t.Errorf("Resolve() error = %v, want ErrInvalidTemplate", err)
		}
	})

	t.Run("unknown document field fails at load", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeTheme(t, dir, "typo", "name: typo\nextends: default\n", map[string]string{
			"markdown/document.tmpl": "{{.Nmae}}",
		})
		r := mustRegistry(t, dir)

		_, err := r.Resolve("typo")
		if !errors.Is(err, ErrInvalidTemplate) {
			t.Errorf("Resolve() error = %v, want ErrInvalidTemplate", err)
		}
	})

	t.Run("unknown option in template fails at load", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeTheme(t, dir, "typo", "name: typo\nextends: default\n", map[string]string{
			"typst/document.tmpl": "{{.Options.colour}}",
		})
		r := mustRegistry(t, dir)

		_, err := r.Resolve("typo")
		if !errors.Is(err, ErrInvalidTemplate) {
			t.Errorf("Resolve() error = %v, want ErrInvalidTemplate", err)
		}
	})

	t.Run("template syntax error", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeTheme(t, dir, "broken", "name: broken\nextends: default\n", map[string]string{
			"typst/text.tmpl": "{{.text",
		})
		r := mustRegistry(t, dir)

		_, err := r.Resolve("broken")
		if !errors.Is(err, ErrInvalidTemplate) {
			t.Errorf("Resolve() error = %v, want ErrInvalidTemplate", err)
		}
	})

	t.Run("broken custom theme does not fall back", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeTheme(t, dir, "default", "name: default\n", nil)
		r := mustRegistry(t, dir)

		_, err := r.Resolve("default")
		if !errors.Is(err, ErrIncompleteTheme) {
			t.Errorf("Resolve() error = %v, want ErrIncompleteTheme", err)
		}
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func mustRegistry(t *testing.T, customPath string) *Registry {
	t.Helper()

	r, err := NewRegistry(customPath)
	if err != nil {
		t.Fatalf("NewRegistry(%q) error = %v", customPath, err)
	}
	return r
}

func execute(t *testing.T, tmpl *template.Template, data any) string {
	t.Helper()

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	return strings.TrimSpace(buf.String())
}
