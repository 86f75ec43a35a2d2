package field

import (
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/alnah/go-cv2pdf/internal/diag"
)

// PhoneFormat selects how a normalized phone number is displayed.
type PhoneFormat string

const (
	PhoneInternational PhoneFormat = "international"
	PhoneNational      PhoneFormat = "national"
	PhoneE164          PhoneFormat = "E164"
)

// PhoneFormats lists the accepted display formats.
var PhoneFormats = []string{string(PhoneInternational), string(PhoneNational), string(PhoneE164)}

// Phone parses a phone number and normalizes it to E.164. Numbers without a
// leading "+" are read in region; when region is empty the country cannot be
// inferred and the number is rejected.
func Phone(raw, region string) (ContactField, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ContactField{}, diag.New("", "must not be empty")
	}
	region = strings.ToUpper(strings.TrimSpace(region))
	if !strings.HasPrefix(s, "+") && region == "" {
		return ContactField{}, diag.New("", "cannot infer region; write the number with a leading + and country code")
	}
	num, err := phonenumbers.Parse(s, region)
	if err != nil {
		return ContactField{}, diag.Newf("", "not a phone number: %v", err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return ContactField{}, diag.New("", "invalid phone number")
	}
	return ContactField{
		Kind:       KindPhone,
		Raw:        raw,
		Normalized: phonenumbers.Format(num, phonenumbers.E164),
		Href:       phonenumbers.Format(num, phonenumbers.RFC3966),
	}, nil
}

// FormatPhone renders an E.164 number in the requested format. An
// unparsable input is returned unchanged.
func FormatPhone(normalized string, f PhoneFormat) string {
	num, err := phonenumbers.Parse(normalized, "")
	if err != nil {
		return normalized
	}
	switch f {
	case PhoneNational:
		return phonenumbers.Format(num, phonenumbers.NATIONAL)
	case PhoneE164:
		return phonenumbers.Format(num, phonenumbers.E164)
	default:
		return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
	}
}
