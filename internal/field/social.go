package field

import (
	"regexp"
	"sort"
	"strings"

	"github.com/alnah/go-cv2pdf/internal/diag"
)

type network struct {
	pattern *regexp.Regexp
	href    func(username string) string
}

var simpleHandle = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,99}$`)

var networks = map[string]network{
	"LinkedIn": {simpleHandle, prefix("https://linkedin.com/in/")},
	"GitHub":   {simpleHandle, prefix("https://github.com/")},
	"GitLab":   {simpleHandle, prefix("https://gitlab.com/")},
	"X":        {regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`), prefix("https://x.com/")},
	"Mastodon": {regexp.MustCompile(`^@[A-Za-z0-9_]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`), mastodonHref},
	"ORCID":    {regexp.MustCompile(`^\d{4}-\d{4}-\d{4}-\d{3}[\dX]$`), prefix("https://orcid.org/")},
	"StackOverflow": {
		regexp.MustCompile(`^\d+/[A-Za-z0-9._-]+$`),
		prefix("https://stackoverflow.com/users/"),
	},
	"ResearchGate":  {simpleHandle, prefix("https://researchgate.net/profile/")},
	"YouTube":       {simpleHandle, prefix("https://youtube.com/@")},
	"Instagram":     {simpleHandle, prefix("https://instagram.com/")},
	"Bluesky":       {regexp.MustCompile(`^[A-Za-z0-9-]+(\.[A-Za-z0-9-]+)+$`), prefix("https://bsky.app/profile/")},
	"GoogleScholar": {regexp.MustCompile(`^[A-Za-z0-9_-]{12}$`), prefix("https://scholar.google.com/citations?user=")},
}

func prefix(base string) func(string) string {
	return func(u string) string { return base + u }
}

func mastodonHref(u string) string {
	user, host, _ := strings.Cut(strings.TrimPrefix(u, "@"), "@")
	return "https://" + host + "/@" + user
}

// SocialNetworks returns the supported network names in lexical order.
func SocialNetworks() []string {
	names := make([]string, 0, len(networks))
	for n := range networks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Social validates a username for a known network and builds its profile
// URL. Network names match case-insensitively.
func Social(networkName, username string) (ContactField, error) {
	name, n, ok := lookupNetwork(networkName)
	if !ok {
		return ContactField{}, diag.Newf("", "unknown social network %q", networkName).
			WithAllowed(SocialNetworks()...)
	}
	u := strings.TrimSpace(username)
	if name != "Mastodon" {
		u = strings.TrimPrefix(u, "@")
	}
	if !n.pattern.MatchString(u) {
		return ContactField{}, diag.Newf("", "invalid %s username %q", name, username)
	}
	return ContactField{
		Kind:       KindSocial,
		Raw:        username,
		Normalized: u,
		Href:       n.href(u),
		Network:    name,
	}, nil
}

func lookupNetwork(name string) (string, network, bool) {
	for k, n := range networks {
		if strings.EqualFold(k, strings.TrimSpace(name)) {
			return k, n, true
		}
	}
	return "", network{}, false
}
