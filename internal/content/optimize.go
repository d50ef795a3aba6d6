// Package content rewrites and generates marketing copy grounded in a brand's
// analysed DNA, and scores existing copy for answer-engine readiness.
package content

import (
	"context"
	"strings"

	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/prompts"
	"github.com/jonathan/brandos/internal/types"
)

// Optimization modes.
const (
	ModeVoice     = "voice"
	ModeAuthority = "authority"
	ModeHumanize  = "humanize"
)

const (
	notAvailable      = "N/A"
	defaultVoice      = "Professional and clear"
	defaultAudience   = "General Audience"
	authorityListSize = 5
)

// Optimize rewrites text in the given mode: the brand's voice, woven-in
// product and term authority, or a humanizing edit. Unknown modes return
// text unchanged.
func Optimize(ctx context.Context, client llm.Client, mode string, brand *types.BrandReport, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyContent
	}

	var key string
	var data map[string]string
	switch mode {
	case ModeVoice:
		key, data = "optimize-voice", voiceData(brand, text)
	case ModeAuthority:
		key, data = "optimize-authority", authorityData(brand, text)
	case ModeHumanize:
		key, data = "optimize-humanize", map[string]string{"Content": text}
	default:
		return text, nil
	}

	prompt, err := prompts.Render(prompts.Content, key, data)
	if err != nil {
		return "", &GenerationError{Task: "optimize", Message: "failed to build prompt", Cause: err}
	}
	out, err := client.GenerateContent(ctx, prompt, llm.TierPro, llm.WithTemperature(0.7))
	if err != nil {
		return "", &GenerationError{Task: "optimize", Message: "failed to generate content from LLM", Cause: err}
	}
	return strings.TrimSpace(out), nil
}

func voiceData(brand *types.BrandReport, text string) map[string]string {
	d := map[string]string{
		"Voice":     defaultVoice,
		"Archetype": notAvailable,
		"Mission":   notAvailable,
		"Audience":  defaultAudience,
		"Content":   text,
	}
	if brand == nil {
		return d
	}
	a := brand.Profile.Analysis
	d["Voice"] = orDefault(a.BrandVoice, defaultVoice)
	d["Archetype"] = orDefault(a.BrandArchetype, notAvailable)
	d["Mission"] = orDefault(a.BrandNobleCause, notAvailable)
	if len(brand.Profile.Personas) > 0 {
		d["Audience"] = orDefault(brand.Profile.Personas[0].Role, defaultAudience)
	}
	return d
}

func authorityData(brand *types.BrandReport, text string) map[string]string {
	var products, terms []string
	if brand != nil {
		products = brand.Knowledge.ProductNames()
		if brand.Knowledge != nil {
			terms = brand.Knowledge.KeyTerms
		}
	}
	lead := "our specific solution"
	if len(products) > 0 {
		lead = products[0]
	}
	return map[string]string{
		"Products":    joinHead(products, authorityListSize),
		"Terms":       joinHead(terms, authorityListSize),
		"LeadProduct": lead,
		"Content":     text,
	}
}

func joinHead(items []string, n int) string {
	if len(items) == 0 {
		return notAvailable
	}
	if len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, ", ")
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
