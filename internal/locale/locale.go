// Package locale holds the translated strings and date conventions of the
// supported languages. Resolution never fails: unknown languages and bad
// overrides fall back to defaults and are reported as warnings.
package locale

import (
	"embed"
	"errors"
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/alnah/go-cv2pdf/internal/dateutil"
	"github.com/alnah/go-cv2pdf/internal/diag"
	"github.com/alnah/go-cv2pdf/internal/field"
	"github.com/alnah/go-cv2pdf/internal/ordered"
	"github.com/alnah/go-cv2pdf/internal/yamlutil"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// DefaultLanguage is the fallback for unknown languages and missing keys.
const DefaultLanguage = "en"

// ErrInvalidCatalog indicates a broken embedded locale file.
var ErrInvalidCatalog = errors.New("invalid locale catalog")

// Locale is the set of translatable strings and formatting rules applied
// when rendering.
type Locale struct {
	Language           string            `yaml:"language"`
	PhoneNumberFormat  field.PhoneFormat `yaml:"phone_number_format"`
	DateTemplate       string            `yaml:"date_template"`
	Present            string            `yaml:"present"`
	RangeSeparator     string            `yaml:"range_separator"`
	LastUpdated        string            `yaml:"last_updated"`
	Months             []string          `yaml:"months"`
	MonthAbbreviations []string          `yaml:"month_abbreviations"`
	SectionTitles      map[string]string `yaml:"section_titles"`

	tag language.Tag
}

// Names returns the month names for date formatting.
func (l Locale) Names() dateutil.Names {
	var n dateutil.Names
	copy(n.Months[:], l.Months)
	copy(n.Abbreviations[:], l.MonthAbbreviations)
	return n
}

// FormatDate renders d with the locale date template. Present renders as
// the locale word.
func (l Locale) FormatDate(d field.Date) string {
	if d.Present {
		return l.Present
	}
	out, err := dateutil.Format(d, l.DateTemplate, l.Names())
	if err != nil {
		return d.String()
	}
	return out
}

// FormatSpan renders a single date or "start – end".
func (l Locale) FormatSpan(r field.DateOrRange) string {
	start := l.FormatDate(r.Start)
	if r.End == nil {
		return start
	}
	return start + " " + l.RangeSeparator + " " + l.FormatDate(*r.End)
}

// SectionTitle translates a section key. Unknown keys are humanized:
// "work_experience" becomes "Work Experience".
func (l Locale) SectionTitle(key string) string {
	if t, ok := l.SectionTitles[strings.ToLower(key)]; ok {
		return t
	}
	if strings.ContainsAny(key, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return key
	}
	return cases.Title(l.tag).String(strings.ReplaceAll(key, "_", " "))
}

// Catalog is the read-only set of built-in locales.
type Catalog struct {
	locales map[string]Locale
	tags    []language.Tag
	matcher language.Matcher
}

// NewCatalog loads the embedded locales. Keys missing from a locale are
// filled from the default language.
func NewCatalog() (*Catalog, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	raw := make(map[string]Locale, len(entries))
	for _, e := range entries {
		data, err := localeFS.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		var l Locale
		if err := yamlutil.UnmarshalStrict(data, &l); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, e.Name(), err)
		}
		raw[l.Language] = l
	}

	base, ok := raw[DefaultLanguage]
	if !ok {
		return nil, fmt.Errorf("%w: default language %q missing", ErrInvalidCatalog, DefaultLanguage)
	}
	c := &Catalog{locales: make(map[string]Locale, len(raw))}
	// The default language comes first so the matcher falls back to it.
	c.tags = append(c.tags, language.Make(DefaultLanguage))
	for _, lang := range slices.Sorted(maps.Keys(raw)) {
		l := merge(base, raw[lang])
		l.tag = language.Make(lang)
		if err := check(l); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, lang, err)
		}
		c.locales[lang] = l
		if lang != DefaultLanguage {
			c.tags = append(c.tags, l.tag)
		}
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Languages lists the built-in language tags, default first.
func (c *Catalog) Languages() []string {
	out := make([]string, len(c.tags))
	for i, t := range c.tags {
		out[i] = t.String()
	}
	return out
}

// Default returns the default locale.
func (c *Catalog) Default() Locale {
	return clone(c.locales[DefaultLanguage])
}

// Resolve builds the locale for the "locale" input section. raw may be nil.
// Problems never fail resolution; they come back as warnings.
func (c *Catalog) Resolve(raw ordered.Map) (Locale, []diag.Warning) {
	var warnings []diag.Warning
	warn := func(key, format string, args ...any) {
		warnings = append(warnings, diag.Warning{Path: diag.Join("locale", key), Message: fmt.Sprintf(format, args...)})
	}

	loc := c.Default()
	if v, ok := raw.Get("language"); ok {
		lang, _ := v.(string)
		base, ok := c.match(lang)
		if !ok {
			warn("language", "unsupported language %q, falling back to %q", fmt.Sprint(v), DefaultLanguage)
		} else {
			loc = base
		}
	}

	for _, p := range raw {
		switch p.Key {
		case "language":
		case "phone_number_format":
			s, _ := p.Value.(string)
			if !slices.Contains(field.PhoneFormats, s) {
				warn(p.Key, "unknown phone number format %q, keeping %q", fmt.Sprint(p.Value), loc.PhoneNumberFormat)
				continue
			}
			loc.PhoneNumberFormat = field.PhoneFormat(s)
		case "date_template":
			s, _ := p.Value.(string)
			if _, err := dateutil.Parse(s); err != nil {
				warn(p.Key, "%v, keeping %q", err, loc.DateTemplate)
				continue
			}
			loc.DateTemplate = s
		case "present", "range_separator", "last_updated":
			s, ok := p.Value.(string)
			if !ok || strings.TrimSpace(s) == "" {
				warn(p.Key, "must be a non-empty string, keeping the default")
				continue
			}
			setString(&loc, p.Key, s)
		case "months", "month_abbreviations":
			names, ok := stringList(p.Value)
			if !ok || len(names) != 12 {
				warn(p.Key, "must list 12 month names, keeping the default")
				continue
			}
			if p.Key == "months" {
				loc.Months = names
			} else {
				loc.MonthAbbreviations = names
			}
		case "section_titles":
			titles, ok := p.Value.(ordered.Map)
			if !ok {
				warn(p.Key, "must be a mapping of section key to title")
				continue
			}
			for _, t := range titles {
				s, ok := t.Value.(string)
				if !ok || strings.TrimSpace(s) == "" {
					warn(diag.Join(p.Key, t.Key), "must be a non-empty string")
					continue
				}
				loc.SectionTitles[strings.ToLower(t.Key)] = s
			}
		default:
			warn(p.Key, "unknown locale key ignored")
		}
	}
	return loc, warnings
}

// match picks the closest built-in locale for a BCP 47 tag.
func (c *Catalog) match(lang string) (Locale, bool) {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return Locale{}, false
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No {
		return Locale{}, false
	}
	// The matcher can answer the default tag with high confidence for an
	// unrelated language, so only an exact base counts as a match.
	want, _ := tag.Base()
	base, _ := c.tags[idx].Base()
	if want != base {
		return Locale{}, false
	}
	l, ok := c.locales[base.String()]
	if !ok {
		return Locale{}, false
	}
	return clone(l), true
}

func merge(base, l Locale) Locale {
	out := clone(base)
	out.Language = l.Language
	if l.PhoneNumberFormat != "" {
		out.PhoneNumberFormat = l.PhoneNumberFormat
	}
	if l.DateTemplate != "" {
		out.DateTemplate = l.DateTemplate
	}
	if l.Present != "" {
		out.Present = l.Present
	}
	if l.RangeSeparator != "" {
		out.RangeSeparator = l.RangeSeparator
	}
	if l.LastUpdated != "" {
		out.LastUpdated = l.LastUpdated
	}
	if len(l.Months) > 0 {
		out.Months = l.Months
	}
	if len(l.MonthAbbreviations) > 0 {
		out.MonthAbbreviations = l.MonthAbbreviations
	}
	maps.Copy(out.SectionTitles, l.SectionTitles)
	return out
}

func check(l Locale) error {
	if len(l.Months) != 12 || len(l.MonthAbbreviations) != 12 {
		return errors.New("months and month_abbreviations need 12 names")
	}
	if _, err := dateutil.Parse(l.DateTemplate); err != nil {
		return err
	}
	if !slices.Contains(field.PhoneFormats, string(l.PhoneNumberFormat)) {
		return fmt.Errorf("unknown phone number format %q", l.PhoneNumberFormat)
	}
	return nil
}

// clone copies the reference fields so callers can modify the result.
func clone(l Locale) Locale {
	l.Months = append([]string(nil), l.Months...)
	l.MonthAbbreviations = append([]string(nil), l.MonthAbbreviations...)
	l.SectionTitles = maps.Clone(l.SectionTitles)
	if l.SectionTitles == nil {
		l.SectionTitles = map[string]string{}
	}
	return l
}

func setString(l *Locale, key, s string) {
	switch key {
	case "present":
		l.Present = s
	case "range_separator":
		l.RangeSeparator = s
	case "last_updated":
		l.LastUpdated = s
	}
}

func stringList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
