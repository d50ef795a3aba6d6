package crawling

import (
	"net/url"
	"strings"
)

type commonPage struct {
	label string
	path  string
}

var commonPages = []commonPage{
	{"About Us", "/about"},
	{"Pricing", "/pricing"},
	{"Features/Products", "/features"},
	{"Features/Products", "/products"},
	{"Contact", "/contact"},
	{"Blog", "/blog"},
	{"Documentation", "/docs"},
	{"Resources", "/resources"},
	{"Case Studies", "/customers"},
	{"Case Studies", "/case-studies"},
}

// SuggestCommonURLs returns the conventional key pages for the homepage's host.
// The pages are guesses; nothing is fetched.
func SuggestCommonURLs(homepage string) []NavLink {
	u, err := url.Parse(strings.TrimSpace(homepage))
	if err != nil || u.Host == "" {
		return nil
	}
	base := &url.URL{Scheme: u.Scheme, Host: u.Host}
	if base.Scheme == "" {
		base.Scheme = "https"
	}

	out := make([]NavLink, 0, len(commonPages))
	for _, p := range commonPages {
		out = append(out, NavLink{
			Label:    p.label,
			URL:      base.ResolveReference(&url.URL{Path: p.path}).String(),
			Category: CategoryStandard,
		})
	}
	return out
}

// MergeSuggestions appends standard suggestions to scanned links, skipping any
// whose path or label is already covered.
func MergeSuggestions(scanned, standard []NavLink) []NavLink {
	paths := make(map[string]bool, len(scanned))
	labels := make(map[string]bool, len(scanned))
	for _, l := range scanned {
		paths[comparablePath(l.URL)] = true
		labels[strings.ToLower(l.Label)] = true
	}

	out := append([]NavLink(nil), scanned...)
	for _, s := range standard {
		p := comparablePath(s.URL)
		lbl := strings.ToLower(s.Label)
		if paths[p] || labels[lbl] {
			continue
		}
		out = append(out, s)
		labels[lbl] = true
	}
	return out
}

func comparablePath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return strings.TrimRight(u.Path, "/")
}
