// Package model builds the validated CV document from parsed input.
//
// Build never stops at the first problem: every independently detectable
// error in the header, the sections, the design and the settings is
// collected into one diag.Errors so a user can fix them in one pass.
// Locale problems are warnings and never fail a build.
//
// A Document is immutable once built. The Context it is built against is
// read-only and may be shared by concurrent builds.
package model

import (
	"errors"
	"time"

	"github.com/alnah/go-cv2pdf/internal/entry"
	"github.com/alnah/go-cv2pdf/internal/field"
	"github.com/alnah/go-cv2pdf/internal/locale"
	"github.com/alnah/go-cv2pdf/internal/markup"
	"github.com/alnah/go-cv2pdf/internal/themes"
)

// ErrInvalidInput indicates input that is not a YAML mapping.
var ErrInvalidInput = errors.New("invalid input")

// Themes resolves theme names. *themes.Registry implements it.
type Themes interface {
	Resolve(name string) (themes.Bundle, error)
	Names() []string
}

// Context carries the shared, read-only collaborators of a build.
type Context struct {
	Themes  Themes
	Locales *locale.Catalog
	Policy  field.Policy
	// Now supplies the current date when settings.current_date is absent.
	// Nil means time.Now.
	Now func() time.Time
}

func (c Context) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Document is a validated CV.
type Document struct {
	CV       CV
	Sections []Section
	Design   Design
	Locale   locale.Locale
	Settings Settings
}

// CV is the identity header. Absent optional fields are nil.
type CV struct {
	Name     string
	Headline *string
	Location *field.ContactField
	Email    *field.ContactField
	Phone    *field.ContactField
	Website  *field.ContactField
	Social   []field.ContactField
	Summary  *markup.Text
}

// Contacts returns the header contacts in display order: location, email,
// phone, website, then social networks in input order.
func (c CV) Contacts() []field.ContactField {
	var out []field.ContactField
	for _, f := range []*field.ContactField{c.Location, c.Email, c.Phone, c.Website} {
		if f != nil {
			out = append(out, *f)
		}
	}
	return append(out, c.Social...)
}

// Section is an ordered list of entries of one variant.
type Section struct {
	Key     string // input key, e.g. "experience"
	Title   string // display title in the document locale
	Variant entry.Variant
	Entries []entry.Entry
}

// Design is the resolved theme with its options. Options holds every
// option the theme declares: input values where given, defaults otherwise.
type Design struct {
	ThemeName string
	Theme     themes.Bundle
	Options   map[string]any
}

// Settings holds rendering settings that are not part of the design.
type Settings struct {
	// CurrentDate is the date shown in the "last updated" label.
	CurrentDate field.Date
}
