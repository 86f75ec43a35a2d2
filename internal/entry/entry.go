package entry

import (
	"github.com/alnah/go-cv2pdf/internal/field"
	"github.com/alnah/go-cv2pdf/internal/markup"
)

// Entry is a validated section item. The set of implementations is closed.
type Entry interface {
	Variant() Variant
	// RenderContext maps each field present in the input to its validated
	// value. Absent optional fields have no key.
	RenderContext() map[string]any
	entry()
}

// Timeline holds the dates of an entry: either Date, or StartDate with an
// optional EndDate.
type Timeline struct {
	Date      *field.DateOrRange
	StartDate *field.Date
	EndDate   *field.Date
}

// Span returns the period covered. A start date without end date is open
// until present. ok is false when the entry has no dates.
func (t Timeline) Span() (span field.DateOrRange, ok bool) {
	switch {
	case t.Date != nil:
		return *t.Date, true
	case t.StartDate != nil:
		end := field.Date{Present: true}
		if t.EndDate != nil {
			end = *t.EndDate
		}
		return field.DateOrRange{Start: *t.StartDate, End: &end}, true
	}
	return field.DateOrRange{}, false
}

func (t Timeline) fill(ctx map[string]any) {
	if t.Date != nil {
		ctx[keyDate] = *t.Date
	}
	if t.StartDate != nil {
		ctx[keyStartDate] = *t.StartDate
	}
	if t.EndDate != nil {
		ctx[keyEndDate] = *t.EndDate
	}
}

// Body holds the optional fields shared by education, experience and
// normal entries.
type Body struct {
	Timeline
	Location   *string
	Summary    *markup.Text
	Highlights []markup.Text // nil when absent or empty
}

func (b Body) fill(ctx map[string]any) {
	b.Timeline.fill(ctx)
	if b.Location != nil {
		ctx[keyLocation] = *b.Location
	}
	if b.Summary != nil {
		ctx[keySummary] = *b.Summary
	}
	if len(b.Highlights) > 0 {
		ctx[keyHighlights] = b.Highlights
	}
}

type EducationEntry struct {
	Institution string
	Degree      *string
	Area        *string
	Body
}

func (EducationEntry) Variant() Variant { return Education }
func (EducationEntry) entry()           {}

func (e EducationEntry) RenderContext() map[string]any {
	ctx := map[string]any{"institution": e.Institution}
	if e.Degree != nil {
		ctx["degree"] = *e.Degree
	}
	if e.Area != nil {
		ctx["area"] = *e.Area
	}
	e.Body.fill(ctx)
	return ctx
}

type ExperienceEntry struct {
	Company  string
	Position string
	Body
}

func (ExperienceEntry) Variant() Variant { return Experience }
func (ExperienceEntry) entry()           {}

func (e ExperienceEntry) RenderContext() map[string]any {
	ctx := map[string]any{"company": e.Company, "position": e.Position}
	e.Body.fill(ctx)
	return ctx
}

type NormalEntry struct {
	Name markup.Text
	Body
}

func (NormalEntry) Variant() Variant { return Normal }
func (NormalEntry) entry()           {}

func (e NormalEntry) RenderContext() map[string]any {
	ctx := map[string]any{"name": e.Name}
	e.Body.fill(ctx)
	return ctx
}

type PublicationEntry struct {
	Title   markup.Text
	Authors []markup.Text
	DOI     *string
	URL     *field.ContactField
	Journal *string
	Date    *field.DateOrRange
}

func (PublicationEntry) Variant() Variant { return Publication }
func (PublicationEntry) entry()           {}

func (e PublicationEntry) RenderContext() map[string]any {
	ctx := map[string]any{"title": e.Title, "authors": e.Authors}
	if e.DOI != nil {
		ctx["doi"] = *e.DOI
	}
	if e.URL != nil {
		ctx["url"] = *e.URL
	}
	if e.Journal != nil {
		ctx["journal"] = *e.Journal
	}
	if e.Date != nil {
		ctx[keyDate] = *e.Date
	}
	return ctx
}

type OneLineEntry struct {
	Label   string
	Details markup.Text
}

func (OneLineEntry) Variant() Variant { return OneLine }
func (OneLineEntry) entry()           {}

func (e OneLineEntry) RenderContext() map[string]any {
	return map[string]any{"label": e.Label, "details": e.Details}
}

type BulletEntry struct {
	Bullet markup.Text
}

func (BulletEntry) Variant() Variant { return Bullet }
func (BulletEntry) entry()           {}

func (e BulletEntry) RenderContext() map[string]any {
	return map[string]any{"bullet": e.Bullet}
}

// TextEntry is a free paragraph, written in the input as a bare string.
type TextEntry struct {
	Text markup.Text
}

func (TextEntry) Variant() Variant { return TextVariant }
func (TextEntry) entry()           {}

func (e TextEntry) RenderContext() map[string]any {
	return map[string]any{"text": e.Text}
}

// Span returns the publication date.
func (e PublicationEntry) Span() (field.DateOrRange, bool) {
	if e.Date == nil {
		return field.DateOrRange{}, false
	}
	return *e.Date, true
}
