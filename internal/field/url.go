package field

import (
	"net/url"
	"strings"

	"github.com/alnah/go-cv2pdf/internal/diag"
)

var urlSchemes = []string{"http", "https"}

// URL validates a web address. A value without a scheme is accepted only
// when policy.DefaultScheme is set; it is then prepended. Only http and
// https are accepted.
func URL(raw string, policy Policy) (ContactField, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ContactField{}, diag.New("", "must not be empty")
	}
	if !strings.Contains(s, "://") {
		if policy.DefaultScheme == "" {
			return ContactField{}, diag.New("", "missing scheme").WithAllowed(urlSchemes...)
		}
		s = policy.DefaultScheme + "://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ContactField{}, diag.New("", "malformed URL")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ContactField{}, diag.Newf("", "unsupported scheme %q", u.Scheme).WithAllowed(urlSchemes...)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ContactField{}, diag.New("", "missing host")
	}
	if host != "localhost" && !strings.Contains(host, ".") {
		return ContactField{}, diag.Newf("", "malformed host %q", host)
	}
	u.Host = strings.ToLower(u.Host)
	normalized := u.String()
	if err := validate.Var(normalized, "url"); err != nil {
		return ContactField{}, diag.New("", "malformed URL")
	}
	return ContactField{Kind: KindURL, Raw: raw, Normalized: normalized, Href: normalized}, nil
}

// DisplayURL strips the scheme, a leading "www." and a trailing slash for
// display.
func DisplayURL(normalized string) string {
	s := normalized
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimPrefix(s, "www.")
	return strings.TrimSuffix(s, "/")
}
