package model

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-cv2pdf/internal/diag"
	"github.com/alnah/go-cv2pdf/internal/entry"
	"github.com/alnah/go-cv2pdf/internal/field"
	"github.com/alnah/go-cv2pdf/internal/locale"
	"github.com/alnah/go-cv2pdf/internal/themes"
)

const validCV = `
cv:
  name: Jane Doe
  headline: Backend engineer
  location: Berlin, Germany
  email: Jane@Example.COM
  phone: "+1 650-253-0000"
  website: janedoe.dev
  social_networks:
    - network: github
      username: janedoe
  summary: Builds **reliable** systems.
  sections:
    experience:
      - company: ACME
        position: Engineer
        start_date: 2020-01
        highlights:
          - Shipped the *billing* service
    education:
      - institution: X University
        area: CS
        degree: BSc
        start_date: 2018-09
        end_date: 2022-06
    skills:
      - label: Languages
        details: Go, SQL
design:
  theme: default
  primary_color: "#ABC"
settings:
  current_date: 2024-03-15
`

func TestLoad_Valid(t *testing.T) {
	t.Parallel()

	doc, warnings, err := Load([]byte(validCV), testContext(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("Load() warnings = %v, want none", warnings)
	}

	t.Run("header", func(t *testing.T) {
		if doc.CV.Name != "Jane Doe" {
			t.Errorf("Name = %q, want %q", doc.CV.Name, "Jane Doe")
		}
		if doc.CV.Email == nil || doc.CV.Email.Normalized != "Jane@example.com" {
			t.Errorf("Email = %+v, want domain lower-cased", doc.CV.Email)
		}
		if doc.CV.Phone == nil || doc.CV.Phone.Normalized != "+16502530000" {
			t.Errorf("Phone = %+v, want E.164", doc.CV.Phone)
		}
		if doc.CV.Website == nil || doc.CV.Website.Href != "https://janedoe.dev" {
			t.Errorf("Website = %+v, want https scheme prepended", doc.CV.Website)
		}
		if doc.CV.Summary == nil || doc.CV.Summary.Plain() != "Builds reliable systems." {
			t.Errorf("Summary = %+v", doc.CV.Summary)
		}
	})

	t.Run("contacts in display order", func(t *testing.T) {
		var kinds []field.Kind
		for _, c := range doc.CV.Contacts() {
			kinds = append(kinds, c.Kind)
		}
		want := []field.Kind{field.KindLocation, field.KindEmail, field.KindPhone, field.KindURL, field.KindSocial}
		if diff := cmp.Diff(want, kinds); diff != "" {
			t.Errorf("Contacts() kinds mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("sections keep input order", func(t *testing.T) {
		var got []string
		for _, s := range doc.Sections {
			got = append(got, s.Key+"/"+string(s.Variant)+"/"+s.Title)
		}
		want := []string{
			"experience/experience/Experience",
			"education/education/Education",
			"skills/one_line/Skills",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Sections mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("design options merge defaults", func(t *testing.T) {
		if doc.Design.ThemeName != "default" || doc.Design.Theme == nil {
			t.Fatalf("Design = %+v, want default theme resolved", doc.Design)
		}
		if got := doc.Design.Options["primary_color"]; got != "#aabbcc" {
			t.Errorf("primary_color = %v, want normalized #aabbcc", got)
		}
		if got := doc.Design.Options["font_size"]; got != "10pt" {
			t.Errorf("font_size = %v, want theme default 10pt", got)
		}
		if !doc.Design.OptionBool("show_last_updated") {
			t.Error("show_last_updated = false, want default true")
		}
	})

	t.Run("settings", func(t *testing.T) {
		want := field.Date{Year: 2024, Month: 3, Day: 15}
		if doc.Settings.CurrentDate != want {
			t.Errorf("CurrentDate = %+v, want %+v", doc.Settings.CurrentDate, want)
		}
	})
}

func TestBuild_DefaultsWhenOmitted(t *testing.T) {
	t.Parallel()

	doc, _, err := Load([]byte("cv:\n  name: Jane\n"), testContext(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Design.ThemeName != themes.DefaultThemeName {
		t.Errorf("ThemeName = %q, want %q", doc.Design.ThemeName, themes.DefaultThemeName)
	}
	if doc.Locale.Language != locale.DefaultLanguage {
		t.Errorf("Language = %q, want %q", doc.Locale.Language, locale.DefaultLanguage)
	}
	if want := (field.Date{Year: 2025, Month: 1, Day: 2}); doc.Settings.CurrentDate != want {
		t.Errorf("CurrentDate = %+v, want clock date %+v", doc.Settings.CurrentDate, want)
	}
	if len(doc.Sections) != 0 {
		t.Errorf("Sections = %v, want none", doc.Sections)
	}
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		yaml       string
		wantPath   string
		wantReason string
		wantAllow  string // one value expected in Allowed, if set
	}{
		{
			name:       "unknown theme",
			yaml:       "cv:\n  name: J\ndesign:\n  theme: fancy\n",
			wantPath:   "design.theme",
			wantReason: "unknown theme",
			wantAllow:  "default",
		},
		{
			name:       "unrecognized option",
			yaml:       "cv:\n  name: J\ndesign:\n  theme: default\n  primary_colour: red\n",
			wantPath:   "design.primary_colour",
			wantReason: "unrecognized option",
			wantAllow:  "primary_color",
		},
		{
			name:       "invalid option value",
			yaml:       "cv:\n  name: J\ndesign:\n  page_size: a5\n",
			wantPath:   "design.page_size",
			wantReason: "invalid value",
			wantAllow:  "us-letter",
		},
		{
			name:       "ambiguous entry",
			yaml:       "cv:\n  name: J\n  sections:\n    work:\n      - company: A\n        position: B\n        name: C\n",
			wantPath:   "cv.sections.work[0]",
			wantReason: "no unique variant",
		},
		{
			name:       "mixed variants",
			yaml:       "cv:\n  name: J\n  sections:\n    misc:\n      - label: A\n        details: B\n      - bullet: C\n",
			wantPath:   "cv.sections.misc[1]",
			wantReason: "mixed entry variants",
		},
		{
			name:       "empty section",
			yaml:       "cv:\n  name: J\n  sections:\n    misc: []\n",
			wantPath:   "cv.sections.misc",
			wantReason: "at least one entry",
		},
		{
			name:       "entry field error is rooted at the entry",
			yaml:       "cv:\n  name: J\n  sections:\n    work:\n      - company: A\n        position: B\n        start_date: 2020-13\n",
			wantPath:   "cv.sections.work[0].start_date",
			wantReason: "",
		},
		{
			name:       "invalid email",
			yaml:       "cv:\n  name: J\n  email: not-an-email\n",
			wantPath:   "cv.email",
			wantReason: "",
		},
		{
			name:       "phone without region",
			yaml:       "cv:\n  name: J\n  phone: 030 901820\n",
			wantPath:   "cv.phone",
			wantReason: "cannot infer region",
		},
		{
			name:       "unknown social network",
			yaml:       "cv:\n  name: J\n  social_networks:\n    - network: MySpace\n      username: j\n",
			wantPath:   "cv.social_networks[0]",
			wantReason: "unknown social network",
			wantAllow:  "GitHub",
		},
		{
			name:       "current date present",
			yaml:       "cv:\n  name: J\nsettings:\n  current_date: present\n",
			wantPath:   "settings.current_date",
			wantReason: "present",
		},
		{
			name:       "schema violation",
			yaml:       "cv:\n  name: J\nlayout: wide\n",
			wantPath:   "layout",
			wantReason: "unrecognized field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, _, err := Load([]byte(tt.yaml), testContext(t))
			if doc != nil {
				t.Errorf("Load() doc = %+v, want nil on error", doc)
			}
			if !errors.Is(err, diag.ErrValidation) {
				t.Fatalf("Load() error = %v, want ErrValidation", err)
			}
			ve := findPath(err, tt.wantPath)
			if ve == nil {
				t.Fatalf("Load() error = %v, want an error at %q", err, tt.wantPath)
			}
			if !strings.Contains(ve.Reason, tt.wantReason) {
				t.Errorf("Reason = %q, want it to contain %q", ve.Reason, tt.wantReason)
			}
			if tt.wantAllow != "" && !slices.Contains(ve.Allowed, tt.wantAllow) {
				t.Errorf("Allowed = %v, want it to contain %q", ve.Allowed, tt.wantAllow)
			}
		})
	}
}

func TestBuild_AggregatesErrors(t *testing.T) {
	t.Parallel()

	input := `
cv:
  name: J
  email: nope
  sections:
    work:
      - company: A
        position: B
        colour: red
    misc: []
design:
  theme: default
  margin: 2cm
  font_size: huge
`
	_, _, err := Load([]byte(input), testContext(t))
	var errs diag.Errors
	if !errors.As(err, &errs) {
		t.Fatalf("Load() error = %v, want diag.Errors", err)
	}
	var paths []string
	for _, e := range errs {
		paths = append(paths, e.Path)
	}
	want := []string{
		"cv.email",
		"cv.sections.work[0].colour",
		"cv.sections.misc",
		"design.margin",
		"design.font_size",
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("error paths mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_LocaleWarnings(t *testing.T) {
	t.Parallel()

	input := "cv:\n  name: J\nlocale:\n  language: tlh\n"
	doc, warnings, err := Load([]byte(input), testContext(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Locale.Language != locale.DefaultLanguage {
		t.Errorf("Language = %q, want fallback %q", doc.Locale.Language, locale.DefaultLanguage)
	}
	if len(warnings) != 1 || warnings[0].Path != "locale.language" {
		t.Errorf("warnings = %v, want one at locale.language", warnings)
	}
}

func TestBuild_LocalizedTitles(t *testing.T) {
	t.Parallel()

	input := "cv:\n  name: J\n  sections:\n    education:\n      - Text.\n    side_projects:\n      - Text.\nlocale:\n  language: de\n"
	doc, _, err := Load([]byte(input), testContext(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got := []string{doc.Sections[0].Title, doc.Sections[1].Title}
	want := []string{"Ausbildung", "Side Projects"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
	if doc.Sections[0].Variant != entry.TextVariant {
		t.Errorf("Variant = %q, want text", doc.Sections[0].Variant)
	}
}

func TestBuild_IncompleteCustomTheme(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "half"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "half", themes.ManifestFile), []byte("name: half\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	reg, err := themes.NewRegistry(dir)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	ctx := testContext(t)
	ctx.Themes = reg

	_, _, err = Load([]byte("cv:\n  name: J\ndesign:\n  theme: half\n"), ctx)
	ve := findPath(err, "design.theme")
	if ve == nil {
		t.Fatalf("Load() error = %v, want error at design.theme", err)
	}
	if !strings.Contains(ve.Reason, "incomplete theme") || len(ve.Missing) == 0 {
		t.Errorf("error = %+v, want incomplete theme with missing fragments", ve)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "- a\n- b\n", "cv: [unclosed\n"} {
		_, _, err := Load([]byte(input), testContext(t))
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Load(%q) error = %v, want ErrInvalidInput", input, err)
		}
	}
}

func TestBuild_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := Load([]byte(validCV), ctx); err != nil {
				t.Errorf("Load() error = %v", err)
			}
		}()
	}
	wg.Wait()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var shared = sync.OnceValues(func() (Context, error) {
	reg, err := themes.NewRegistry("")
	if err != nil {
		return Context{}, err
	}
	cat, err := locale.NewCatalog()
	if err != nil {
		return Context{}, err
	}
	return Context{
		Themes:  reg,
		Locales: cat,
		Policy:  field.DefaultPolicy(),
		Now:     func() time.Time { return time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC) },
	}, nil
})

func testContext(t *testing.T) Context {
	t.Helper()

	ctx, err := shared()
	if err != nil {
		t.Fatalf("test context: %v", err)
	}
	return ctx
}

func findPath(err error, path string) *diag.ValidationError {
	var errs diag.Errors
	if !errors.As(err, &errs) {
		return nil
	}
	for _, e := range errs {
		if e.Path == path {
			return e
		}
	}
	return nil
}
