// Package field validates and normalizes the atomic values found in a CV:
// email addresses, phone numbers, URLs, dates and date ranges, colors,
// dimensions and social network handles.
//
// Every validator is a pure function. On failure it returns a
// *diag.ValidationError with an empty path; callers re-root it with AtPath.
package field

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/alnah/go-cv2pdf/internal/diag"
	"github.com/alnah/go-cv2pdf/internal/ordered"
)

// validate is safe for concurrent use once built.
var validate = validator.New()

// Kind tags a ContactField.
type Kind string

const (
	KindEmail    Kind = "email"
	KindPhone    Kind = "phone"
	KindURL      Kind = "url"
	KindLocation Kind = "location"
	KindSocial   Kind = "social"
)

// ContactField is a validated contact value. Normalized is always valid for
// Kind; Href is the link target for link-capable kinds.
type ContactField struct {
	Kind       Kind
	Raw        string
	Normalized string
	Href       string
	Network    string // social network name, KindSocial only
}

// Policy holds the normalization choices that are not implied by the input.
type Policy struct {
	// DefaultScheme is prepended to URLs given without a scheme, such as
	// "example.com". An empty value rejects them instead.
	DefaultScheme string

	// PhoneRegion is the ISO 3166-1 region used for phone numbers written
	// without a leading "+". Empty means such numbers are rejected.
	PhoneRegion string
}

// DefaultPolicy assumes https for bare domains and no phone region.
func DefaultPolicy() Policy {
	return Policy{DefaultScheme: "https"}
}

// Location validates a free-form location.
func Location(raw string) (ContactField, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ContactField{}, diag.New("", "must not be empty")
	}
	return ContactField{Kind: KindLocation, Raw: raw, Normalized: s}, nil
}

// String converts a YAML scalar to its string form. Mappings, sequences and
// null are rejected.
func String(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case time.Time:
		return t.Format("2006-01-02"), nil
	case nil:
		return "", diag.New("", "must not be null")
	default:
		return "", diag.Newf("", "must be a string, got %s", describe(v))
	}
}

// NonEmpty is String plus a check that the trimmed value is not empty.
func NonEmpty(v any) (string, error) {
	s, err := String(v)
	if err != nil {
		return "", err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", diag.New("", "must not be empty")
	}
	return s, nil
}

func describe(v any) string {
	switch v.(type) {
	case []any:
		return "a list"
	case ordered.Map, map[string]any:
		return "a mapping"
	default:
		return fmt.Sprintf("%T", v)
	}
}
