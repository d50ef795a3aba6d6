// Package brand derives brand identity details from URLs.
package brand

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UnknownBrand is returned when no name can be derived.
const UnknownBrand = "Unknown Brand"

// Domain returns the registrable domain of rawURL ("pricing.mailchimp.com"
// → "mailchimp.com"), or "" when it cannot be determined.
func Domain(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host == "" {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// NameFromURL turns a URL into a display name from the first label of its
// registrable domain ("https://pricing.mailchimp.com" → "Mailchimp").
func NameFromURL(rawURL string) string {
	domain := Domain(rawURL)
	if domain == "" {
		return UnknownBrand
	}
	label, _, _ := strings.Cut(domain, ".")
	if label == "" {
		return UnknownBrand
	}
	return cases.Title(language.English).String(label)
}
