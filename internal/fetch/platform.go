package fetch

import (
	"net/url"
	"strings"
)

// Platform is the site builder or CMS a brand site runs on.
type Platform string

const (
	PlatformWebflow     Platform = "webflow"
	PlatformWix         Platform = "wix"
	PlatformSquarespace Platform = "squarespace"
	PlatformShopify     Platform = "shopify"
	PlatformWordPress   Platform = "wordpress"
	PlatformFramer      Platform = "framer"
	PlatformHubSpot     Platform = "hubspot"
	PlatformUnknown     Platform = "unknown"
)

type platformSignature struct {
	platform Platform
	hosts    []string
	markers  []string
}

// Order matters: WordPress markers are generic enough to appear on other builders.
var signatures = []platformSignature{
	{PlatformWebflow, []string{"webflow.io"}, []string{`data-wf-site`, `content="webflow"`, "assets.website-files.com"}},
	{PlatformWix, []string{"wixsite.com"}, []string{`content="wix.com`, "static.wixstatic.com", "_wixcss"}},
	{PlatformSquarespace, []string{"squarespace.com"}, []string{`content="squarespace`, "static1.squarespace.com"}},
	{PlatformShopify, []string{"myshopify.com"}, []string{"cdn.shopify.com", "shopify.theme"}},
	{PlatformFramer, []string{"framer.website", "framer.app"}, []string{`content="framer`, "framerusercontent.com"}},
	{PlatformHubSpot, []string{"hubspotpagebuilder.com", "hs-sites.com"}, []string{"js.hs-scripts.com", `content="hubspot`}},
	{PlatformWordPress, []string{"wordpress.com"}, []string{`content="wordpress`, "/wp-content/", "/wp-includes/"}},
}

// DetectPlatform identifies the site builder from the URL host and page markup.
func DetectPlatform(urlStr, html string) Platform {
	host := ""
	if u, err := url.Parse(urlStr); err == nil {
		host = strings.ToLower(u.Hostname())
	}
	lower := strings.ToLower(html)

	for _, sig := range signatures {
		for _, h := range sig.hosts {
			if host != "" && strings.HasSuffix(host, h) {
				return sig.platform
			}
		}
		for _, m := range sig.markers {
			if strings.Contains(lower, m) {
				return sig.platform
			}
		}
	}
	return PlatformUnknown
}

// RequiresRendering reports whether pages on this platform usually ship
// their content through client-side JavaScript.
func (p Platform) RequiresRendering() bool {
	return p == PlatformWix || p == PlatformFramer
}

// ContentSelectors returns the main-content selectors for a platform.
func (p Platform) ContentSelectors() []string {
	switch p {
	case PlatformWebflow:
		return append([]string{".page-wrapper", ".main-wrapper"}, DefaultTextSelectors()...)
	case PlatformSquarespace:
		return append([]string{"#page", ".sqs-layout"}, DefaultTextSelectors()...)
	case PlatformShopify:
		return append([]string{"#MainContent", ".shopify-section"}, DefaultTextSelectors()...)
	case PlatformWordPress:
		return append([]string{".entry-content", "#primary"}, DefaultTextSelectors()...)
	case PlatformWix:
		return append([]string{"#PAGES_CONTAINER", "#SITE_PAGES"}, DefaultTextSelectors()...)
	default:
		return DefaultTextSelectors()
	}
}

// NoiseSelectors returns elements stripped before text extraction.
func (p Platform) NoiseSelectors() []string {
	common := []string{
		".cookie-banner", ".cookie-consent", "#onetrust-consent-sdk", ".gdpr-notice",
		".social-share", ".share-buttons", ".newsletter-popup",
	}
	switch p {
	case PlatformShopify:
		return append(common, ".cart-drawer", "#shopify-section-announcement-bar")
	case PlatformWordPress:
		return append(common, "#wpadminbar", ".comments-area")
	case PlatformHubSpot:
		return append(common, "#hs-eu-cookie-confirmation")
	default:
		return common
	}
}
