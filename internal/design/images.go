package design

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MaxHeroImages caps the hero images kept per page.
const MaxHeroImages = 3

// Imagery holds the logo and hero images found on a page.
type Imagery struct {
	Logo       string   `json:"logo,omitempty"`
	HeroImages []string `json:"hero_images"`
}

// ExtractImages finds the logo (by alt text, then by src) and hero images
// (first image in hero/banner containers). When no hero container exists it
// falls back to the first five images that are not svg, gif or icons.
func ExtractImages(html, baseURL string) Imagery {
	out := Imagery{HeroImages: []string{}}
	if html == "" {
		return out
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return out
	}
	base, _ := url.Parse(baseURL)

	imgs := doc.Find("img[src]")
	logo := imgs.FilterFunction(func(_ int, s *goquery.Selection) bool {
		alt, _ := s.Attr("alt")
		return strings.Contains(strings.ToLower(alt), "logo")
	})
	if logo.Length() == 0 {
		logo = imgs.FilterFunction(func(_ int, s *goquery.Selection) bool {
			src, _ := s.Attr("src")
			return strings.Contains(strings.ToLower(src), "logo")
		})
	}
	if logo.Length() > 0 {
		src, _ := logo.First().Attr("src")
		out.Logo = resolve(base, src)
	}

	var heroes []string
	doc.Find("section, div, header").Each(func(_ int, s *goquery.Selection) {
		class := strings.ToLower(s.AttrOr("class", ""))
		if !strings.Contains(class, "hero") && !strings.Contains(class, "banner") {
			return
		}
		if src := s.Find("img").First().AttrOr("src", ""); src != "" {
			heroes = append(heroes, resolve(base, src))
		}
	})

	if len(heroes) == 0 {
		doc.Find("img").Slice(0, min(5, doc.Find("img").Length())).Each(func(_ int, s *goquery.Selection) {
			src := s.AttrOr("src", "")
			lower := strings.ToLower(src)
			if src == "" || strings.Contains(lower, ".svg") || strings.Contains(lower, ".gif") || strings.Contains(lower, "icon") {
				return
			}
			heroes = append(heroes, resolve(base, src))
		})
	}

	seen := map[string]bool{}
	for _, h := range heroes {
		if seen[h] {
			continue
		}
		seen[h] = true
		out.HeroImages = append(out.HeroImages, h)
		if len(out.HeroImages) == MaxHeroImages {
			break
		}
	}
	return out
}

func resolve(base *url.URL, src string) string {
	ref, err := url.Parse(strings.TrimSpace(src))
	if err != nil || base == nil {
		return src
	}
	return base.ResolveReference(ref).String()
}
