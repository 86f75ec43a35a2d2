package field

import (
	"strings"

	"github.com/alnah/go-cv2pdf/internal/diag"
)

// Email validates an address and lower-cases its domain. The local part is
// kept as written.
func Email(raw string) (ContactField, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ContactField{}, diag.New("", "must not be empty")
	}
	at := strings.LastIndex(s, "@")
	if at < 0 {
		return ContactField{}, diag.New("", `missing "@"`)
	}
	local, domain := s[:at], strings.ToLower(s[at+1:])
	if local == "" {
		return ContactField{}, diag.New("", "missing local part before @")
	}
	if !validDomain(domain) {
		return ContactField{}, diag.Newf("", "malformed domain %q", domain)
	}
	normalized := local + "@" + domain
	if err := validate.Var(normalized, "email"); err != nil {
		return ContactField{}, diag.New("", "disallowed characters in email address")
	}
	return ContactField{
		Kind:       KindEmail,
		Raw:        raw,
		Normalized: normalized,
		Href:       "mailto:" + normalized,
	}, nil
}

// validDomain requires at least two dot-separated labels made of letters,
// digits and inner hyphens.
func validDomain(domain string) bool {
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" || len(l) > 63 || l[0] == '-' || l[len(l)-1] == '-' {
			return false
		}
		for _, r := range l {
			if !(r == '-' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127) {
				return false
			}
		}
	}
	return true
}
