package model

import (
	"errors"
	"fmt"

	"github.com/alnah/go-cv2pdf/internal/diag"
	"github.com/alnah/go-cv2pdf/internal/entry"
	"github.com/alnah/go-cv2pdf/internal/field"
	"github.com/alnah/go-cv2pdf/internal/locale"
	"github.com/alnah/go-cv2pdf/internal/markup"
	"github.com/alnah/go-cv2pdf/internal/ordered"
	"github.com/alnah/go-cv2pdf/internal/schema"
	"github.com/alnah/go-cv2pdf/internal/themes"
	"github.com/alnah/go-cv2pdf/internal/yamlutil"
)

// Load parses YAML input and builds the document.
func Load(data []byte, ctx Context) (*Document, []diag.Warning, error) {
	raw, err := yamlutil.UnmarshalOrdered(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return Build(raw, ctx)
}

// Build validates raw and assembles the document. On failure the error is
// a diag.Errors listing every problem found; warnings are returned either
// way.
func Build(raw ordered.Map, ctx Context) (*Document, []diag.Warning, error) {
	if ctx.Themes == nil || ctx.Locales == nil {
		return nil, nil, errors.New("model: context needs themes and locales")
	}

	shape, err := schema.Validate(raw)
	if err != nil {
		return nil, nil, err
	}
	if len(shape) > 0 {
		return nil, nil, shape
	}

	b := &builder{ctx: ctx}
	localeRaw, _ := mapping(raw, "locale")
	loc, warnings := ctx.Locales.Resolve(localeRaw)

	doc := &Document{Locale: loc}
	cvRaw, _ := mapping(raw, "cv")
	doc.CV = b.header(cvRaw)
	sectionsRaw, _ := mapping(cvRaw, "sections")
	doc.Sections = b.sections(sectionsRaw, loc)
	designRaw, _ := mapping(raw, "design")
	doc.Design = b.design(designRaw)
	settingsRaw, _ := mapping(raw, "settings")
	doc.Settings = b.settings(settingsRaw)

	if err := b.errs.Err(); err != nil {
		return nil, warnings, err
	}
	return doc, warnings, nil
}

type builder struct {
	ctx  Context
	errs diag.Errors
}

// mapping returns m[key] as a mapping. An absent or null key yields nil.
func mapping(m ordered.Map, key string) (ordered.Map, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	sub, ok := v.(ordered.Map)
	return sub, ok
}

// text reads an optional string field. Null counts as absent.
func (b *builder) text(m ordered.Map, path, key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok || v == nil {
		return "", false
	}
	s, err := field.NonEmpty(v)
	if err != nil {
		b.errs.AddAt(diag.Join(path, key), err)
		return "", false
	}
	return s, true
}

func (b *builder) contact(m ordered.Map, key string, parse func(string) (field.ContactField, error)) *field.ContactField {
	s, ok := b.text(m, "cv", key)
	if !ok {
		return nil
	}
	f, err := parse(s)
	if err != nil {
		b.errs.AddAt(diag.Join("cv", key), err)
		return nil
	}
	return &f
}

func (b *builder) header(m ordered.Map) CV {
	policy := b.ctx.Policy
	var cv CV
	cv.Name, _ = b.text(m, "cv", "name")
	if s, ok := b.text(m, "cv", "headline"); ok {
		cv.Headline = &s
	}
	cv.Location = b.contact(m, "location", field.Location)
	cv.Email = b.contact(m, "email", field.Email)
	cv.Phone = b.contact(m, "phone", func(s string) (field.ContactField, error) {
		return field.Phone(s, policy.PhoneRegion)
	})
	cv.Website = b.contact(m, "website", func(s string) (field.ContactField, error) {
		return field.URL(s, policy)
	})
	if s, ok := b.text(m, "cv", "summary"); ok {
		t := markup.Parse(s)
		cv.Summary = &t
	}

	networks, _ := m.Get("social_networks")
	list, _ := networks.([]any)
	for i, item := range list {
		path := diag.Join("cv.social_networks", diag.Index(i))
		sm, _ := item.(ordered.Map)
		network, ok1 := b.text(sm, path, "network")
		username, ok2 := b.text(sm, path, "username")
		if !ok1 || !ok2 {
			continue
		}
		f, err := field.Social(network, username)
		if err != nil {
			b.errs.AddAt(path, err)
			continue
		}
		cv.Social = append(cv.Social, f)
	}
	return cv
}

// sections keeps input order. Every entry of a section must resolve to the
// variant of the first entry.
func (b *builder) sections(m ordered.Map, loc locale.Locale) []Section {
	var out []Section
	for _, p := range m {
		path := diag.Join("cv.sections", p.Key)
		items, _ := p.Value.([]any)
		if len(items) == 0 {
			b.errs.Add(diag.New(path, "section must contain at least one entry"))
			continue
		}

		s := Section{Key: p.Key, Title: loc.SectionTitle(p.Key)}
		for i, item := range items {
			itemPath := diag.Join(path, diag.Index(i))
			v, err := entry.VariantOf(item)
			if err != nil {
				b.errs.AddAt(itemPath, err)
				continue
			}
			if s.Variant == "" {
				s.Variant = v
			} else if v != s.Variant {
				b.errs.Add(diag.Newf(itemPath, "mixed entry variants: section holds %s entries, got %s", s.Variant, v))
				continue
			}
			e, err := entry.Build(item, b.ctx.Policy)
			if err != nil {
				b.errs.AddAt(itemPath, err)
				continue
			}
			s.Entries = append(s.Entries, e)
		}
		out = append(out, s)
	}
	return out
}

// design resolves the theme, rejects unknown options and validates the
// values of known ones. Options not given keep the theme default.
func (b *builder) design(m ordered.Map) Design {
	name := themes.DefaultThemeName
	if s, ok := b.text(m, "design", "theme"); ok {
		name = s
	}
	d := Design{ThemeName: name}

	bundle, err := b.ctx.Themes.Resolve(name)
	if err != nil {
		b.themeError(name, err)
		return d
	}
	d.Theme = bundle
	d.Options = bundle.Defaults()

	for _, p := range m {
		if p.Key == "theme" {
			continue
		}
		path := diag.Join("design", p.Key)
		spec, ok := bundle.Option(p.Key)
		if !ok {
			b.errs.Add(diag.Newf(path, "unrecognized option %q for theme %q", p.Key, name).
				WithAllowed(bundle.OptionNames()...))
			continue
		}
		v, err := spec.Normalize(p.Value)
		if err != nil {
			b.errs.AddAt(path, err)
			continue
		}
		d.Options[p.Key] = v
	}
	return d
}

func (b *builder) themeError(name string, err error) {
	const path = "design.theme"
	var ve *diag.ValidationError
	switch {
	case errors.Is(err, themes.ErrThemeNotFound):
		b.errs.Add(diag.Newf(path, "unknown theme %q", name).WithAllowed(b.ctx.Themes.Names()...))
	case errors.As(err, &ve):
		b.errs.Add(ve)
	default:
		b.errs.Add(diag.New(path, err.Error()))
	}
}

func (b *builder) settings(m ordered.Map) Settings {
	s := Settings{CurrentDate: field.Today(b.ctx.now())}
	v, ok := m.Get("current_date")
	if !ok || v == nil {
		return s
	}
	d, err := field.ParseDate(v)
	if err == nil && d.Present {
		err = diag.New("", "must be a date, not \"present\"")
	}
	if err != nil {
		b.errs.AddAt("settings.current_date", err)
		return s
	}
	s.CurrentDate = d
	return s
}

// OptionBool returns a boolean design option, or false.
func (d Design) OptionBool(name string) bool {
	v, _ := d.Options[name].(bool)
	return v
}
