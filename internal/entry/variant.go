// Package entry models the items of a CV section. An entry is one of a
// closed set of variants; the variant is chosen by which required fields
// the input mapping carries.
package entry

import (
	"slices"
	"sort"
	"strings"

	"github.com/alnah/go-cv2pdf/internal/diag"
)

// Variant tags an entry kind.
type Variant string

const (
	Education   Variant = "education"
	Experience  Variant = "experience"
	Publication Variant = "publication"
	Normal      Variant = "normal"
	OneLine     Variant = "one_line"
	Bullet      Variant = "bullet"
	TextVariant Variant = "text"
)

// Variants returns every variant in a stable order.
func Variants() []Variant {
	return []Variant{Education, Experience, Publication, Normal, OneLine, Bullet, TextVariant}
}

// Field names shared by several variants.
const (
	keyDate       = "date"
	keyStartDate  = "start_date"
	keyEndDate    = "end_date"
	keyLocation   = "location"
	keySummary    = "summary"
	keyHighlights = "highlights"
)

var commonOptional = []string{keyDate, keyStartDate, keyEndDate, keyLocation, keySummary, keyHighlights}

// FieldSpec lists the input fields of a variant. At least one of AnyOf
// must be present next to every Required field.
type FieldSpec struct {
	Required []string
	AnyOf    []string
	Optional []string
}

// All returns the required, any-of, then optional field names.
func (s FieldSpec) All() []string {
	out := append(slices.Clone(s.Required), s.AnyOf...)
	return append(out, s.Optional...)
}

// Allows reports whether key is a field of the variant.
func (s FieldSpec) Allows(key string) bool {
	return slices.Contains(s.All(), key)
}

func (s FieldSpec) matches(keys []string) bool {
	if !containsAll(keys, s.Required) {
		return false
	}
	return len(s.AnyOf) == 0 || slices.ContainsFunc(s.AnyOf, func(k string) bool {
		return slices.Contains(keys, k)
	})
}

var specs = map[Variant]FieldSpec{
	Education: {
		Required: []string{"institution"},
		AnyOf:    []string{"degree", "area"},
		Optional: commonOptional,
	},
	Experience: {
		Required: []string{"company", "position"},
		Optional: commonOptional,
	},
	Publication: {
		Required: []string{"title", "authors"},
		Optional: []string{"doi", "url", "journal", keyDate},
	},
	Normal: {
		Required: []string{"name"},
		Optional: commonOptional,
	},
	OneLine: {
		Required: []string{"label", "details"},
	},
	Bullet: {
		Required: []string{"bullet"},
	},
	TextVariant: {
		Required: []string{"text"},
	},
}

// SpecFor returns the field spec of v. A text entry is written as a bare
// string; its single field is "text".
func SpecFor(v Variant) FieldSpec {
	return specs[v]
}

// signature renders a variant with its discriminating fields, e.g.
// "education(institution, degree|area)".
func signature(v Variant) string {
	fields := slices.Clone(specs[v].Required)
	if anyOf := specs[v].AnyOf; len(anyOf) > 0 {
		fields = append(fields, strings.Join(anyOf, "|"))
	}
	return string(v) + "(" + strings.Join(fields, ", ") + ")"
}

// Select picks the single variant whose required fields are all present in
// keys. Zero or several matches fail with "no unique variant".
func Select(keys []string) (Variant, error) {
	var matches []Variant
	for _, v := range Variants() {
		if v == TextVariant {
			continue
		}
		if specs[v].matches(keys) {
			matches = append(matches, v)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", noUniqueVariant("matches no variant", candidates(keys))
	default:
		return "", noUniqueVariant("ambiguous between "+joinVariants(matches), matches)
	}
}

// candidates returns the variants sharing at least one required field with
// keys, or every mapping variant when none does.
func candidates(keys []string) []Variant {
	var out []Variant
	for _, v := range Variants() {
		if v == TextVariant {
			continue
		}
		for _, r := range append(slices.Clone(specs[v].Required), specs[v].AnyOf...) {
			if slices.Contains(keys, r) {
				out = append(out, v)
				break
			}
		}
	}
	if len(out) == 0 {
		for _, v := range Variants() {
			if v != TextVariant {
				out = append(out, v)
			}
		}
	}
	return out
}

func noUniqueVariant(detail string, vs []Variant) *diag.ValidationError {
	allowed := make([]string, len(vs))
	for i, v := range vs {
		allowed[i] = signature(v)
	}
	return diag.New("", "no unique variant: "+detail).WithAllowed(allowed...)
}

func joinVariants(vs []Variant) string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = string(v)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func containsAll(keys, required []string) bool {
	for _, r := range required {
		if !slices.Contains(keys, r) {
			return false
		}
	}
	return true
}
