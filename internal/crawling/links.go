package crawling

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link categories.
const (
	CategoryCompany   = "Company"
	CategoryOfferings = "Offerings"
	CategoryResources = "Resources"
	CategoryContact   = "Contact"
	CategoryStandard  = "Standard"
	CategoryOther     = "Other"
)

// MaxNavLinks is the number of scored links kept.
const MaxNavLinks = 15

// NavLink is a candidate page to include in a brand analysis.
type NavLink struct {
	Label    string `json:"label"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

type categoryKeywords struct {
	name     string
	keywords []string
}

// Checked in order; the first category with a keyword hit wins.
var categories = []categoryKeywords{
	{CategoryCompany, []string{"about", "mission", "values", "team", "careers", "contact", "history"}},
	{CategoryOfferings, []string{"pricing", "product", "services", "solutions", "features", "platform"}},
	{CategoryResources, []string{"blog", "news", "resources", "case studies", "customers", "docs", "documentation"}},
}

var blacklist = []string{"login", "signin", "signup", "register", "support", "help", "faq", "terms", "privacy", "policy"}

const (
	priorityRegion = 2.0
	bodyRegion     = 1.0
	maxLabelLen    = 40
	longURLLen     = 60
)

type scoredLink struct {
	NavLink
	score float64
}

// ExtractNavLinks finds the same-domain links most useful for brand analysis.
// Links in nav/header/footer outrank body links; categorised links get a boost
// (core Company/Offerings pages more so); deep and long URLs are penalised.
// Uncategorised links survive only when they sit in a priority region.
func ExtractNavLinks(baseURL, html string) ([]NavLink, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &LinkExtractionError{Message: "invalid base URL: " + baseURL, Cause: err}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &LinkExtractionError{Message: "failed to parse HTML", Cause: err}
	}

	seen := map[string]bool{}
	var links []scoredLink
	visit := func(region float64) func(int, *goquery.Selection) {
		return func(_ int, a *goquery.Selection) {
			if l, ok := scoreLink(base, baseURL, a, region); ok && !seen[l.URL] {
				seen[l.URL] = true
				links = append(links, l)
			}
		}
	}

	doc.Find("nav, header, footer").Each(func(_ int, region *goquery.Selection) {
		region.Find("a[href]").Each(visit(priorityRegion))
	})
	doc.Find("a[href]").Each(visit(bodyRegion))

	sort.SliceStable(links, func(i, j int) bool { return links[i].score > links[j].score })

	out := make([]NavLink, 0, min(len(links), MaxNavLinks))
	for _, l := range links {
		if len(out) == MaxNavLinks {
			break
		}
		out = append(out, l.NavLink)
	}
	return out, nil
}

func scoreLink(base *url.URL, baseURL string, a *goquery.Selection, region float64) (scoredLink, bool) {
	href, _ := a.Attr("href")
	text := strings.Join(strings.Fields(a.Text()), " ")
	if href == "" || text == "" || len(text) > maxLabelLen {
		return scoredLink{}, false
	}

	var full *url.URL
	switch {
	case strings.HasPrefix(href, "/"):
		ref, err := url.Parse(href)
		if err != nil {
			return scoredLink{}, false
		}
		full = base.ResolveReference(ref)
	case strings.HasPrefix(href, "http"):
		u, err := url.Parse(href)
		if err != nil {
			return scoredLink{}, false
		}
		full = u
	default:
		return scoredLink{}, false
	}
	if !strings.Contains(full.Host, base.Host) {
		return scoredLink{}, false
	}

	textLower := strings.ToLower(text)
	hrefLower := strings.ToLower(href)
	for _, b := range blacklist {
		if strings.Contains(textLower, b) || strings.Contains(hrefLower, b) {
			return scoredLink{}, false
		}
	}

	category := CategoryOther
	score := region
	for _, c := range categories {
		if matchesAny(textLower, hrefLower, c.keywords) {
			category = c.name
			score += 2
			if c.name == CategoryCompany || c.name == CategoryOfferings {
				score++
			}
			break
		}
	}

	fullStr := full.String()
	score -= float64(strings.Count(strings.Trim(full.Path, "/"), "/")) * 0.5
	if len(fullStr) > longURLLen {
		score -= 0.5
	}

	if category == CategoryOther && region < priorityRegion {
		return scoredLink{}, false
	}
	if fullStr == baseURL {
		return scoredLink{}, false
	}
	return scoredLink{NavLink: NavLink{Label: text, URL: fullStr, Category: category}, score: score}, true
}

func matchesAny(text, href string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) || strings.Contains(href, k) {
			return true
		}
	}
	return false
}
