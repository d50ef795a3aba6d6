// Package design reverse-engineers a brand's visual system (colors, fonts,
// radius, scheme and key imagery) from page HTML and inline CSS.
package design

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Color schemes.
const (
	SchemeLight = "light"
	SchemeDark  = "dark"
)

// Fallback values used when nothing better is known.
const (
	DefaultPrimary   = "#667eea"
	DefaultSecondary = "#764ba2"
	DefaultFont      = "Inter, sans-serif"
	DefaultRadius    = "8px"
)

// Token sources.
const (
	SourceCSS      = "css"
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Tokens is a brand's extracted design system.
type Tokens struct {
	PrimaryColor   string   `json:"primary_color,omitempty"`
	SecondaryColor string   `json:"secondary_color,omitempty"`
	AccentColors   []string `json:"accent_colors,omitempty"`
	FontPrimary    string   `json:"font_primary,omitempty"`
	FontHeadings   string   `json:"font_headings,omitempty"`
	BorderRadius   string   `json:"border_radius,omitempty"`
	ColorScheme    string   `json:"color_scheme,omitempty"`
	Source         string   `json:"source,omitempty"`
}

// Count returns how many token fields are populated.
func (t Tokens) Count() int {
	n := 0
	for _, s := range []string{t.PrimaryColor, t.SecondaryColor, t.FontPrimary, t.FontHeadings, t.BorderRadius, t.ColorScheme} {
		if s != "" {
			n++
		}
	}
	if len(t.AccentColors) > 0 {
		n++
	}
	return n
}

// Sufficient reports whether regex extraction found enough to skip AI inference.
func (t Tokens) Sufficient() bool {
	return t.PrimaryColor != "" && t.Count() >= 3
}

// FallbackTokens is the design system used when both extraction and inference fail.
func FallbackTokens() Tokens {
	return Tokens{
		PrimaryColor:   DefaultPrimary,
		SecondaryColor: DefaultSecondary,
		FontPrimary:    DefaultFont,
		ColorScheme:    SchemeLight,
		BorderRadius:   DefaultRadius,
		Source:         SourceFallback,
	}
}

var (
	primaryVars   = []string{"--primary", "--brand", "--main", "--core", "--primary-color", "--color-primary"}
	secondaryVars = []string{"--secondary", "--accent", "--secondary-color", "--color-secondary"}

	bgColorPattern   = regexp.MustCompile(`(?i)background-color:\s*(#[0-9a-f]{3,6})\b`)
	textColorPattern = regexp.MustCompile(`(?i)color:\s*(#[0-9a-f]{3,6})\b`)
	anyHexPattern    = regexp.MustCompile(`#[0-9a-fA-F]{6}\b|#[0-9a-fA-F]{3}\b`)
	fontPattern      = regexp.MustCompile(`(?i)font-family:\s*([^;}\n]+)`)
	radiusPattern    = regexp.MustCompile(`(?i)border-radius:\s*(\d+px|\d+rem|\d+%)`)

	varPatterns = compileVarPatterns(append(append([]string{}, primaryVars...), secondaryVars...))
)

func compileVarPatterns(keys []string) map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(keys))
	for _, k := range keys {
		out[k] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(k) + `:\s*(#[0-9a-f]{3,6})`)
	}
	return out
}

var genericFonts = map[string]bool{
	"serif": true, "sans-serif": true, "monospace": true, "inherit": true, "initial": true, "var": true,
}

var darkIndicators = []string{"background-color:#000", "background:#000", "bg-dark", "dark-mode", "theme-dark"}

// ExtractTokens reads design tokens straight from HTML/CSS.
// Explicit CSS variables win over weighted color frequency.
func ExtractTokens(html string) Tokens {
	if html == "" {
		return Tokens{}
	}

	primary := firstVar(html, primaryVars)
	secondary := firstVar(html, secondaryVars)
	colors := ExtractColors(html)
	fonts := ExtractFonts(html)

	if primary == "" && len(colors) > 0 {
		primary = colors[0]
	}
	if secondary == "" {
		for _, c := range colors {
			if c != primary {
				secondary = c
				break
			}
		}
	}

	t := Tokens{Source: SourceCSS}
	if primary != "" {
		t.PrimaryColor = primary
		t.SecondaryColor = secondary
		for _, c := range colors {
			if c != primary && c != secondary && len(t.AccentColors) < 3 {
				t.AccentColors = append(t.AccentColors, c)
			}
		}
	}
	t.FontPrimary = fonts[0]
	if len(fonts) > 1 {
		t.FontHeadings = fonts[1]
	}
	t.BorderRadius = ExtractBorderRadius(html)
	t.ColorScheme = DetectColorScheme(html)
	return t
}

func firstVar(html string, keys []string) string {
	for _, k := range keys {
		if m := varPatterns[k].FindStringSubmatch(html); m != nil {
			return NormalizeHex(m[1])
		}
	}
	return ""
}

// ExtractColors returns up to five brand colors, weighted by where they appear:
// background-color 3, color 2, any hex literal 1. Ties keep first-seen order.
func ExtractColors(html string) []string {
	scores := newCounter()
	for _, p := range []struct {
		re     *regexp.Regexp
		weight int
		group  int
	}{
		{bgColorPattern, 3, 1},
		{textColorPattern, 2, 1},
		{anyHexPattern, 1, 0},
	} {
		for _, m := range p.re.FindAllStringSubmatch(html, -1) {
			c := NormalizeHex(m[p.group])
			if IsBrandColor(c) {
				scores.add(c, p.weight)
			}
		}
	}
	return scores.top(5)
}

// NormalizeHex lowercases a hex color and expands #abc to #aabbcc.
func NormalizeHex(hex string) string {
	hex = strings.ToLower(hex)
	if len(hex) == 4 {
		return "#" + strings.Repeat(hex[1:2], 2) + strings.Repeat(hex[2:3], 2) + strings.Repeat(hex[3:4], 2)
	}
	return hex
}

// IsBrandColor filters out black, white, greys and near-extremes.
func IsBrandColor(color string) bool {
	if !strings.HasPrefix(color, "#") || len(color) != 7 {
		return false
	}
	if color == "#ffffff" || color == "#000000" {
		return false
	}
	r, err1 := strconv.ParseUint(color[1:3], 16, 8)
	g, err2 := strconv.ParseUint(color[3:5], 16, 8)
	b, err3 := strconv.ParseUint(color[5:7], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return false
	}
	if max(r, g, b)-min(r, g, b) < 15 {
		return false
	}
	if r > 240 && g > 240 && b > 240 {
		return false
	}
	if r < 15 && g < 15 && b < 15 {
		return false
	}
	return true
}

// ExtractFonts returns the three most declared font families, ignoring
// generic families and var() references. Defaults to Inter.
func ExtractFonts(html string) []string {
	counts := newCounter()
	for _, m := range fontPattern.FindAllStringSubmatch(html, -1) {
		stack := strings.Trim(strings.TrimSpace(m[1]), `"'`)
		first := strings.Trim(strings.TrimSpace(strings.Split(stack, ",")[0]), `"'`)
		if first == "" || genericFonts[strings.ToLower(first)] || strings.HasPrefix(first, "var(") {
			continue
		}
		counts.add(first, 1)
	}
	if fonts := counts.top(3); len(fonts) > 0 {
		return fonts
	}
	return []string{DefaultFont}
}

// ExtractBorderRadius returns the most common border-radius, default 8px.
func ExtractBorderRadius(html string) string {
	counts := newCounter()
	for _, m := range radiusPattern.FindAllStringSubmatch(html, -1) {
		counts.add(m[1], 1)
	}
	if r := counts.top(1); len(r) == 1 {
		return r[0]
	}
	return DefaultRadius
}

// DetectColorScheme returns dark when more than two dark-theme indicators appear.
func DetectColorScheme(html string) string {
	lower := strings.ToLower(html)
	n := 0
	for _, ind := range darkIndicators {
		if strings.Contains(lower, ind) {
			n++
		}
	}
	if n > 2 {
		return SchemeDark
	}
	return SchemeLight
}

// counter tallies keys and ranks them by count, ties broken by first insertion.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter { return &counter{counts: map[string]int{}} }

func (c *counter) add(k string, n int) {
	if _, ok := c.counts[k]; !ok {
		c.order = append(c.order, k)
	}
	c.counts[k] += n
}

func (c *counter) top(n int) []string {
	keys := append([]string(nil), c.order...)
	sort.SliceStable(keys, func(i, j int) bool { return c.counts[keys[i]] > c.counts[keys[j]] })
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
