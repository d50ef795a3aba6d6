package design

import (
	"fmt"
	"strings"
)

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// FormatContext renders tokens as a prompt block for asset generation.
func FormatContext(t Tokens) string {
	if t.Count() == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("BRAND DESIGN SYSTEM (use these exact values):\n")
	fmt.Fprintf(&b, "- Primary Color: %s\n", or(t.PrimaryColor, DefaultPrimary))
	fmt.Fprintf(&b, "- Secondary Color: %s\n", or(t.SecondaryColor, DefaultSecondary))
	fmt.Fprintf(&b, "- Font (Body): %s\n", or(t.FontPrimary, DefaultFont))
	fmt.Fprintf(&b, "- Font (Headings): %s\n", or(t.FontHeadings, or(t.FontPrimary, DefaultFont)))
	fmt.Fprintf(&b, "- Border Radius: %s\n", or(t.BorderRadius, DefaultRadius))
	fmt.Fprintf(&b, "- Color Scheme: %s\n", or(t.ColorScheme, SchemeLight))
	if len(t.AccentColors) > 0 {
		fmt.Fprintf(&b, "- Accent Colors: %s\n", strings.Join(t.AccentColors, ", "))
	}
	b.WriteString("\nUse these exact brand colors and fonts. Do not substitute generic palettes or placeholder colors.")
	return b.String()
}

// CSSVars renders tokens as a :root custom-property block.
func CSSVars(t Tokens) string {
	if t.Count() == 0 {
		return ":root { --primary: #667eea; --secondary: #764ba2; --bg-color: #ffffff; --text-color: #333333; --font-main: 'Inter', sans-serif; --radius: 8px; }"
	}

	bg, text, card := "#ffffff", "#111827", "#ffffff"
	if t.ColorScheme == SchemeDark {
		bg, text, card = "#1a1a1a", "#f0f0f0", "#2d2d2d"
	}

	lines := []string{
		":root {",
		"  --primary: " + or(t.PrimaryColor, DefaultPrimary) + ";",
		"  --secondary: " + or(t.SecondaryColor, DefaultSecondary) + ";",
		"  --bg-color: " + bg + ";",
		"  --text-color: " + text + ";",
		"  --card-bg: " + card + ";",
		"  --font-main: " + or(t.FontPrimary, "system-ui, sans-serif") + ";",
		"  --radius: " + or(t.BorderRadius, DefaultRadius) + ";",
		"}",
	}
	return strings.Join(lines, "\n")
}
