package entry

import (
	"regexp"
	"strings"

	"github.com/alnah/go-cv2pdf/internal/diag"
	"github.com/alnah/go-cv2pdf/internal/field"
	"github.com/alnah/go-cv2pdf/internal/markup"
	"github.com/alnah/go-cv2pdf/internal/ordered"
)

var doiRe = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// Build validates one raw entry. A string becomes a text entry, a mapping
// is matched against the variants. Every field error is collected; paths
// are relative to the entry.
func Build(raw any, policy field.Policy) (Entry, error) {
	switch t := raw.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, diag.New("", "text entry must not be empty")
		}
		return TextEntry{Text: markup.Parse(t)}, nil
	case ordered.Map:
		return buildMapping(t, policy)
	default:
		return nil, diag.New("", "entry must be a mapping or a string")
	}
}

// VariantOf reports the variant raw would be built as, without validating
// field values.
func VariantOf(raw any) (Variant, error) {
	switch t := raw.(type) {
	case string:
		return TextVariant, nil
	case ordered.Map:
		return Select(t.Keys())
	default:
		return "", diag.New("", "entry must be a mapping or a string")
	}
}

func buildMapping(m ordered.Map, policy field.Policy) (Entry, error) {
	v, err := Select(m.Keys())
	if err != nil {
		return nil, err
	}
	r := &reader{m: m, policy: policy}
	spec := specs[v]
	for _, k := range m.Keys() {
		if !spec.Allows(k) {
			r.errs.Add(diag.Newf(k, "unrecognized field for %s entry", v).WithAllowed(spec.All()...))
		}
	}

	var e Entry
	switch v {
	case Education:
		e = EducationEntry{
			Institution: r.str("institution"),
			Area:        r.optStr("area"),
			Degree:      r.optStr("degree"),
			Body:        r.body(),
		}
	case Experience:
		e = ExperienceEntry{
			Company:  r.str("company"),
			Position: r.str("position"),
			Body:     r.body(),
		}
	case Normal:
		e = NormalEntry{Name: r.rich("name"), Body: r.body()}
	case Publication:
		e = PublicationEntry{
			Title:   r.rich("title"),
			Authors: r.authors("authors"),
			DOI:     r.doi("doi"),
			URL:     r.url("url"),
			Journal: r.optStr("journal"),
			Date:    r.dateExpr(keyDate),
		}
	case OneLine:
		e = OneLineEntry{Label: r.str("label"), Details: r.rich("details")}
	case Bullet:
		e = BulletEntry{Bullet: r.rich("bullet")}
	}
	if err := r.errs.Err(); err != nil {
		return nil, err
	}
	return e, nil
}

// reader pulls typed fields out of a mapping and records every failure.
type reader struct {
	m      ordered.Map
	policy field.Policy
	errs   diag.Errors
}

// lookup returns the value of key; null counts as absent.
func (r *reader) lookup(key string) (any, bool) {
	v, ok := r.m.Get(key)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (r *reader) fail(key string, err error) {
	r.errs.AddAt(key, err)
}

func (r *reader) str(key string) string {
	v, ok := r.m.Get(key)
	if !ok {
		r.errs.Add(diag.New(key, "required field is missing"))
		return ""
	}
	s, err := field.NonEmpty(v)
	if err != nil {
		r.fail(key, err)
	}
	return s
}

func (r *reader) optStr(key string) *string {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	s, err := field.NonEmpty(v)
	if err != nil {
		r.fail(key, err)
		return nil
	}
	return &s
}

func (r *reader) rich(key string) markup.Text {
	return markup.Parse(r.str(key))
}

func (r *reader) optRich(key string) *markup.Text {
	s := r.optStr(key)
	if s == nil {
		return nil
	}
	t := markup.Parse(*s)
	return &t
}

// richList reads a list of rich-text strings. An empty list is treated as
// absent.
func (r *reader) richList(key string) []markup.Text {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		r.errs.Add(diag.New(key, "must be a list of strings"))
		return nil
	}
	var out []markup.Text
	for i, item := range items {
		s, err := field.NonEmpty(item)
		if err != nil {
			r.fail(diag.Join(key, diag.Index(i)), err)
			continue
		}
		out = append(out, markup.Parse(s))
	}
	return out
}

// authors accepts a list or a single string.
func (r *reader) authors(key string) []markup.Text {
	v, ok := r.m.Get(key)
	if !ok {
		r.errs.Add(diag.New(key, "required field is missing"))
		return nil
	}
	if _, isList := v.([]any); !isList {
		return []markup.Text{r.rich(key)}
	}
	out := r.richList(key)
	if len(out) == 0 && !r.hasErrAt(key) {
		r.errs.Add(diag.New(key, "must list at least one author"))
	}
	return out
}

func (r *reader) hasErrAt(key string) bool {
	for _, e := range r.errs {
		if e.Path == key || strings.HasPrefix(e.Path, key+"[") {
			return true
		}
	}
	return false
}

func (r *reader) doi(key string) *string {
	s := r.optStr(key)
	if s == nil {
		return nil
	}
	doi := strings.TrimPrefix(strings.TrimPrefix(*s, "https://doi.org/"), "doi:")
	if !doiRe.MatchString(doi) {
		r.errs.Add(diag.Newf(key, "invalid DOI %q; expected 10.<registrant>/<suffix>", *s))
		return nil
	}
	return &doi
}

func (r *reader) url(key string) *field.ContactField {
	s := r.optStr(key)
	if s == nil {
		return nil
	}
	u, err := field.URL(*s, r.policy)
	if err != nil {
		r.fail(key, err)
		return nil
	}
	return &u
}

func (r *reader) date(key string) *field.Date {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	d, err := field.ParseDate(v)
	if err != nil {
		r.fail(key, err)
		return nil
	}
	return &d
}

func (r *reader) dateExpr(key string) *field.DateOrRange {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	d, err := field.ParseDateExpr(v)
	if err != nil {
		r.fail(key, err)
		return nil
	}
	return &d
}

// timeline enforces: date excludes start_date/end_date, end_date needs
// start_date, and start_date is not after end_date.
func (r *reader) timeline() Timeline {
	_, hasDate := r.lookup(keyDate)
	_, hasStart := r.lookup(keyStartDate)
	_, hasEnd := r.lookup(keyEndDate)

	if hasDate && (hasStart || hasEnd) {
		r.errs.Add(diag.New(keyDate, "cannot be combined with start_date or end_date"))
		return Timeline{}
	}
	if hasEnd && !hasStart {
		r.errs.Add(diag.New(keyEndDate, "requires start_date"))
		return Timeline{}
	}
	if hasDate {
		return Timeline{Date: r.dateExpr(keyDate)}
	}

	t := Timeline{StartDate: r.date(keyStartDate), EndDate: r.date(keyEndDate)}
	switch {
	case t.StartDate != nil && t.StartDate.Present:
		r.errs.Add(diag.New(keyStartDate, `cannot be "present"`))
	case t.StartDate != nil && t.EndDate != nil:
		if _, err := field.NewRange(*t.StartDate, *t.EndDate); err != nil {
			r.fail(keyStartDate, err)
		}
	}
	return t
}

func (r *reader) body() Body {
	return Body{
		Timeline:   r.timeline(),
		Location:   r.optStr(keyLocation),
		Summary:    r.optRich(keySummary),
		Highlights: r.richList(keyHighlights),
	}
}
