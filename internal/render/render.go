// Package render turns a validated document into text in one of the output
// grammars, using the fragments of the document's theme.
//
// Every user string is escaped for the target grammar before it reaches a
// template, and rich text is converted node by node, so template authors
// never handle raw input. Render has no side effects and may be called
// concurrently, including for several grammars of the same document.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/alnah/go-cv2pdf/internal/entry"
	"github.com/alnah/go-cv2pdf/internal/field"
	"github.com/alnah/go-cv2pdf/internal/locale"
	"github.com/alnah/go-cv2pdf/internal/markup"
	"github.com/alnah/go-cv2pdf/internal/model"
	"github.com/alnah/go-cv2pdf/internal/themes"
)

// ErrIntegrity marks theme defects found while rendering. These are not
// caused by user input.
var ErrIntegrity = errors.New("theme integrity error")

// IntegrityError reports a theme fragment that is missing or fails to
// execute.
type IntegrityError struct {
	Theme    string
	Grammar  markup.Grammar
	Fragment string
	Err      error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("internal error: theme %q, %s/%s: %v", e.Theme, e.Grammar, e.Fragment, e.Err)
}

func (e *IntegrityError) Unwrap() []error { return []error{ErrIntegrity, e.Err} }

var errNoTemplate = errors.New("template missing")

// Render produces the document in grammar g. Sections and entries appear
// in document order.
func Render(doc *model.Document, g markup.Grammar) (string, error) {
	bundle := doc.Design.Theme
	if bundle == nil {
		return "", &IntegrityError{Theme: doc.Design.ThemeName, Grammar: g, Fragment: themes.DocumentFragment, Err: errNoTemplate}
	}
	r := renderer{g: g, loc: doc.Locale, theme: bundle}

	data := themes.DocumentData{
		Name:     r.esc(doc.CV.Name),
		Contacts: r.contacts(doc.CV),
		Options:  r.options(doc.Design.Options),
		Language: markup.EscapeLiteral(g, doc.Locale.Language),
		Meta: themes.Meta{
			Title:  markup.EscapeLiteral(g, doc.CV.Name),
			Author: markup.EscapeLiteral(g, doc.CV.Name),
		},
		Theme: bundle.Name(),
	}
	if doc.CV.Headline != nil {
		data.Headline = r.esc(*doc.CV.Headline)
	}
	if doc.CV.Summary != nil {
		data.Summary = markup.Render(*doc.CV.Summary, g)
	}
	if showLastUpdated(doc.Design) {
		data.LastUpdated = r.esc(doc.Locale.LastUpdated + " " + doc.Locale.FormatDate(doc.Settings.CurrentDate))
	}

	ids := make(map[string]bool, len(doc.Sections))
	for i, s := range doc.Sections {
		sd, err := r.section(s, sectionID(s, i, ids))
		if err != nil {
			return "", err
		}
		data.Sections = append(data.Sections, sd)
	}

	out, err := r.execute(bundle.Document(g), themes.DocumentFragment, data)
	if err != nil {
		return "", err
	}
	return tidy(out), nil
}

type renderer struct {
	g     markup.Grammar
	loc   locale.Locale
	theme themes.Bundle
}

func (r renderer) esc(s string) string { return markup.Escape(r.g, s) }

func (r renderer) execute(tmpl *template.Template, fragment string, data any) (string, error) {
	if tmpl == nil {
		return "", &IntegrityError{Theme: r.theme.Name(), Grammar: r.g, Fragment: fragment, Err: errNoTemplate}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", &IntegrityError{Theme: r.theme.Name(), Grammar: r.g, Fragment: fragment, Err: err}
	}
	return buf.String(), nil
}

func (r renderer) section(s model.Section, id string) (themes.SectionData, error) {
	sd := themes.SectionData{
		Title:   r.esc(s.Title),
		ID:      id,
		Variant: string(s.Variant),
	}
	tmpl := r.theme.Fragment(r.g, s.Variant)
	for _, e := range s.Entries {
		out, err := r.execute(tmpl, string(s.Variant), r.entryView(e))
		if err != nil {
			return themes.SectionData{}, err
		}
		sd.Entries = append(sd.Entries, strings.TrimSpace(out))
	}
	return sd, nil
}

// spanner is implemented by entries that carry dates.
type spanner interface {
	Span() (field.DateOrRange, bool)
}

// entryView maps the render context of e to template values. Every key of
// the variant is present; absent fields stay "" or nil. "date" holds the
// whole period, whichever date fields the input used.
func (r renderer) entryView(e entry.Entry) map[string]any {
	view := themes.NewEntryView(e.Variant())
	for k, v := range e.RenderContext() {
		view[k] = r.value(v)
	}
	if s, ok := e.(spanner); ok {
		if span, ok := s.Span(); ok {
			view["date"] = r.esc(r.loc.FormatSpan(span))
		}
	}
	if p, ok := e.(entry.PublicationEntry); ok {
		if p.DOI != nil {
			view["doi_url"] = markup.EscapeLiteral(r.g, "https://doi.org/"+*p.DOI)
		}
		if p.URL != nil {
			view["url_href"] = markup.EscapeLiteral(r.g, p.URL.Href)
		}
	}
	return view
}

func (r renderer) value(v any) any {
	switch t := v.(type) {
	case string:
		return r.esc(t)
	case markup.Text:
		return markup.Render(t, r.g)
	case []markup.Text:
		out := make([]string, len(t))
		for i, x := range t {
			out[i] = markup.Render(x, r.g)
		}
		return out
	case field.Date:
		return r.esc(r.loc.FormatDate(t))
	case field.DateOrRange:
		return r.esc(r.loc.FormatSpan(t))
	case field.ContactField:
		return r.esc(contactText(t, r.loc))
	}
	return r.esc(fmt.Sprint(v))
}

func (r renderer) contacts(cv model.CV) []themes.Contact {
	var out []themes.Contact
	for _, c := range cv.Contacts() {
		out = append(out, themes.Contact{
			Kind: string(c.Kind),
			Text: r.esc(contactText(c, r.loc)),
			URL:  markup.EscapeLiteral(r.g, c.Href),
		})
	}
	return out
}

// contactText is the display form of a contact: phones in the locale
// format, URLs without scheme, social handles as "Network: user".
func contactText(c field.ContactField, loc locale.Locale) string {
	switch c.Kind {
	case field.KindPhone:
		return field.FormatPhone(c.Normalized, loc.PhoneNumberFormat)
	case field.KindURL:
		return field.DisplayURL(c.Normalized)
	case field.KindSocial:
		return c.Network + ": " + c.Normalized
	}
	return c.Normalized
}

// options escapes free-form option values for quoted-literal positions.
// Colors, dimensions, booleans and numbers are already canonical.
func (r renderer) options(opts map[string]any) map[string]any {
	out := make(map[string]any, len(opts))
	for k, v := range opts {
		spec, _ := r.theme.Option(k)
		if s, ok := v.(string); ok && (spec.Kind == themes.KindString || spec.Kind == themes.KindEnum) {
			v = markup.EscapeLiteral(r.g, s)
		}
		out[k] = v
	}
	return out
}

// showLastUpdated honors show_last_updated; themes that do not declare the
// option always show the label.
func showLastUpdated(d model.Design) bool {
	if _, declared := d.Options["show_last_updated"]; !declared {
		return true
	}
	return d.OptionBool("show_last_updated")
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(key string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(key), "-"), "-")
}

// sectionID returns a unique id for the i-th section. Keys without ASCII
// letters or digits fall back to the variant and the 1-based position.
func sectionID(s model.Section, i int, seen map[string]bool) string {
	id := slug(s.Key)
	if id == "" {
		id = fmt.Sprintf("%s-%d", slug(string(s.Variant)), i+1)
	}
	base := id
	for n := 2; seen[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	seen[id] = true
	return id
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// tidy collapses runs of blank lines left by optional template blocks and
// ends the text with one newline.
func tidy(s string) string {
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s) + "\n"
}
