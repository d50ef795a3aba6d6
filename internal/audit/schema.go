package audit

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

var typePattern = regexp.MustCompile(`"@type"\s*:\s*"([^"]+)"`)

// SchemaTypes returns the distinct JSON-LD @type values on a page in
// first-seen order. Nested objects, @graph entries and type arrays are
// walked; malformed blocks fall back to a pattern scan.
func SchemaTypes(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := map[string]bool{}
	var types []string
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t != "" && !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if gjson.Valid(raw) {
			walkTypes(gjson.Parse(raw), add)
			return
		}
		for _, m := range typePattern.FindAllStringSubmatch(raw, -1) {
			add(m[1])
		}
	})
	return types
}

func walkTypes(v gjson.Result, add func(string)) {
	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			walkTypes(item, add)
		}
	case v.IsObject():
		v.ForEach(func(key, value gjson.Result) bool {
			if key.String() == "@type" {
				if value.IsArray() {
					for _, t := range value.Array() {
						add(t.String())
					}
				} else {
					add(value.String())
				}
				return true
			}
			walkTypes(value, add)
			return true
		})
	}
}
