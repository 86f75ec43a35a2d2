package themes

import (
	"slices"

	"github.com/alnah/go-cv2pdf/internal/entry"
)

// DocumentData is what a document template receives. Every string is
// already escaped for the grammar being rendered: text fields for text
// positions, Meta and Contact.URL for quoted-literal positions.
type DocumentData struct {
	Name        string
	Headline    string
	Contacts    []Contact
	Summary     string
	Sections    []SectionData
	Options     map[string]any
	Language    string
	LastUpdated string // empty when disabled
	Meta        Meta
	Theme       string
}

// Contact is one header contact item.
type Contact struct {
	Kind string // email, phone, url, location, social
	Text string
	URL  string // empty for plain text items
}

// SectionData is one rendered section. Entries are the rendered fragments
// in input order.
type SectionData struct {
	Title   string
	ID      string
	Variant string
	Entries []string
}

// Meta carries document metadata for literal positions such as the typst
// document title or the HTML <title>.
type Meta struct {
	Title  string
	Author string
}

// listKeys are entry view keys that hold []string.
var listKeys = []string{"highlights", "authors"}

// derivedKeys are view keys computed by the renderer on top of the input
// fields of a variant.
var derivedKeys = map[entry.Variant][]string{
	entry.Publication: {"doi_url", "url_href"},
}

// EntryKeys lists every key an entry fragment of variant v can reference.
// All of them are present in the view; absent fields hold "" or a nil list.
func EntryKeys(v entry.Variant) []string {
	return append(entry.SpecFor(v).All(), derivedKeys[v]...)
}

// NewEntryView returns the view of variant v with every key zero-valued.
func NewEntryView(v entry.Variant) map[string]any {
	keys := EntryKeys(v)
	view := make(map[string]any, len(keys))
	for _, k := range keys {
		if IsListKey(k) {
			view[k] = []string(nil)
		} else {
			view[k] = ""
		}
	}
	return view
}

// IsListKey reports whether a view key holds a list.
func IsListKey(key string) bool {
	return slices.Contains(listKeys, key)
}

// sampleEntryView fills every key so that all template branches run.
func sampleEntryView(v entry.Variant) map[string]any {
	view := NewEntryView(v)
	for k := range view {
		if IsListKey(k) {
			view[k] = []string{"sample one", "sample two"}
		} else {
			view[k] = "sample"
		}
	}
	return view
}

func sampleDocumentData(options map[string]any) DocumentData {
	var sections []SectionData
	for _, v := range entry.Variants() {
		sections = append(sections, SectionData{
			Title:   "Sample",
			ID:      string(v),
			Variant: string(v),
			Entries: []string{"sample entry"},
		})
	}
	return DocumentData{
		Name:     "Sample Name",
		Headline: "Sample headline",
		Contacts: []Contact{
			{Kind: "location", Text: "Sample City"},
			{Kind: "email", Text: "sample@example.com", URL: "mailto:sample@example.com"},
		},
		Summary:     "Sample summary",
		Sections:    sections,
		Options:     options,
		Language:    "en",
		LastUpdated: "Last updated in Jan 2024",
		Meta:        Meta{Title: "Sample Name", Author: "Sample Name"},
		Theme:       "sample",
	}
}
