// Package playbook renders a brand report as a Markdown brand playbook.
package playbook

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/brandos/internal/types"
)

// NoData is returned for a missing report.
const NoData = "# Error: No Brand Data Found"

const na = "N/A"

// Generate renders the full playbook: summary, brand DNA, personas, design
// system, strategy, knowledge graph and health.
func Generate(r *types.BrandReport) string {
	if r == nil {
		return NoData
	}
	a := r.Profile.Analysis
	name := r.BrandName
	if name == "" {
		name = or(a.BrandName, "Unknown Brand")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Brand Playbook: %s\n\n", name)
	generated := na
	if !r.CreatedAt.IsZero() {
		generated = r.CreatedAt.UTC().Format(time.RFC1123)
	}
	fmt.Fprintf(&b, "Generated on: %s\n\n", generated)
	if r.URL != "" {
		fmt.Fprintf(&b, "Source: %s\n\n", r.URL)
	}

	b.WriteString("## Executive Summary\n")
	fmt.Fprintf(&b, "**Archetype:** %s\n\n", or(a.BrandArchetype, na))
	fmt.Fprintf(&b, "**Noble Cause:** %s\n\n", or(a.BrandNobleCause, na))
	fmt.Fprintf(&b, "**Enemy:** %s\n\n", or(a.BrandEnemy, na))
	fmt.Fprintf(&b, "**Audience:** %s\n\n", or(a.TargetAudienceSummary, na))

	b.WriteString("## Brand DNA\n")
	b.WriteString("### Voice\n")
	fmt.Fprintf(&b, "%s\n\n", or(a.BrandVoice, na))
	section(&b, "### Core Values", a.BrandValues)
	section(&b, "### Value Propositions", a.KeyValuePropositions)
	section(&b, "### Products", a.PrimaryProducts)

	b.WriteString("## Target Personas\n")
	if len(r.Profile.Personas) == 0 {
		b.WriteString("No personas generated yet.\n\n")
	}
	for _, p := range r.Profile.Personas {
		fmt.Fprintf(&b, "### %s\n", or(p.Role, "Unknown"))
		if p.JobsToBeDone != "" {
			fmt.Fprintf(&b, "**Job to be done:** %s\n\n", p.JobsToBeDone)
		}
		section(&b, "**Pain Points:**", p.PainPoints)
		section(&b, "**Goals:**", p.Goals)
		if p.BuyingTrigger != "" {
			fmt.Fprintf(&b, "**Buying Trigger:** %s\n\n", p.BuyingTrigger)
		}
		if p.MarketingHook != "" {
			fmt.Fprintf(&b, "**Marketing Hook:** %s\n\n", p.MarketingHook)
		}
	}

	b.WriteString("## Design System\n")
	if r.Imagery != nil && r.Imagery.Logo != "" {
		fmt.Fprintf(&b, "![Logo](%s)\n\n", r.Imagery.Logo)
	}
	b.WriteString("### Brand Colors\n")
	switch {
	case r.Design != nil && r.Design.PrimaryColor != "":
		fmt.Fprintf(&b, "**Primary:** %s\n\n", r.Design.PrimaryColor)
		if r.Design.SecondaryColor != "" {
			fmt.Fprintf(&b, "**Secondary:** %s\n\n", r.Design.SecondaryColor)
		}
		if len(r.Design.AccentColors) > 0 {
			fmt.Fprintf(&b, "**Accent:** %s\n\n", strings.Join(r.Design.AccentColors, ", "))
		}
	case len(a.VisualIdentity.PrimaryPalette) > 0:
		fmt.Fprintf(&b, "**Palette:** %s\n\n", strings.Join(a.VisualIdentity.PrimaryPalette, ", "))
	default:
		b.WriteString("Not extracted yet.\n\n")
	}
	if r.Design != nil && r.Design.FontPrimary != "" {
		b.WriteString("### Typography\n")
		fonts := []string{r.Design.FontPrimary}
		if r.Design.FontHeadings != "" && r.Design.FontHeadings != r.Design.FontPrimary {
			fonts = append(fonts, r.Design.FontHeadings)
		}
		fmt.Fprintf(&b, "- %s\n\n", strings.Join(fonts, ", "))
	}
	if vibe := a.VisualIdentity.VisualVibe; vibe != "" {
		fmt.Fprintf(&b, "**Visual Vibe:** %s\n\n", vibe)
	}

	s := r.Profile.Strategy
	b.WriteString("## Strategic Insights\n")
	fmt.Fprintf(&b, "**Market Positioning:** %s\n\n", or(s.MarketPositioning, na))
	fmt.Fprintf(&b, "**The Wedge:** %s\n\n", or(s.TheWedge, na))
	section(&b, "### Strengths", s.SWOT.Strengths)
	section(&b, "### Weaknesses", s.SWOT.Weaknesses)
	section(&b, "### Opportunities", s.SWOT.Opportunities)
	section(&b, "### Threats", s.SWOT.Threats)
	section(&b, "### Strategic Moats", s.StrategicMoats)
	section(&b, "### Recommendations", a.StrategicRecommendations)

	b.WriteString("## Knowledge Graph\n")
	if r.Knowledge == nil || len(r.Knowledge.Products) == 0 {
		b.WriteString("No products extracted yet.\n\n")
	} else {
		for _, p := range r.Knowledge.Products {
			fmt.Fprintf(&b, "### %s\n", or(p.Name, "Unnamed Product"))
			if p.Description != "" {
				fmt.Fprintf(&b, "%s\n\n", p.Description)
			}
			fmt.Fprintf(&b, "**Features:** %s\n\n", join(p.Features))
			fmt.Fprintf(&b, "**Benefits:** %s\n\n", join(p.Benefits))
		}
		if len(r.Knowledge.KeyTerms) > 0 {
			fmt.Fprintf(&b, "**Key Terms:** %s\n\n", strings.Join(r.Knowledge.KeyTerms, ", "))
		}
	}

	if h := r.Health; h != nil {
		b.WriteString("## Brand Health\n")
		fmt.Fprintf(&b, "**Overall Score:** %.0f/100\n\n", h.OverallScore)
		b.WriteString("| Metric | Score | Notes |\n|---|---|---|\n")
		for _, m := range []struct {
			label  string
			metric types.HealthMetric
		}{
			{"Clarity", h.Metrics.Clarity},
			{"Consistency", h.Metrics.Consistency},
			{"Audience Alignment", h.Metrics.AudienceAlignment},
			{"Uniqueness", h.Metrics.Uniqueness},
		} {
			fmt.Fprintf(&b, "| %s | %.0f | %s |\n", m.label, m.metric.Score, cell(m.metric.Description))
		}
		b.WriteString("\n")
		section(&b, "### Health Recommendations", h.Recommendations)
	}

	return b.String()
}

func section(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(heading + "\n")
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

func or(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func join(items []string) string {
	if len(items) == 0 {
		return na
	}
	return strings.Join(items, ", ")
}

// cell keeps a value on one Markdown table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
