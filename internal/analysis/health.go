package analysis

import (
	"context"
	"math"

	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/prompts"
	"github.com/jonathan/brandos/internal/schemas"
	"github.com/jonathan/brandos/internal/types"
)

// Health scores the profile 0-100 on clarity, consistency, audience
// alignment and uniqueness. Scores outside 0..100 are clamped.
func (a *Analyzer) Health(ctx context.Context, p *types.Profile) (*types.Health, error) {
	if p == nil {
		return nil, &Error{Stage: StageHealth, Message: "profile is required"}
	}
	var strategy any
	if p.Strategy.MarketPositioning != "" || p.Strategy.TheWedge != "" || len(p.Strategy.SWOT.Strengths) > 0 {
		strategy = p.Strategy
	}

	prompt, err := prompts.Render(prompts.Analysis, "brand-health", map[string]string{
		"Analysis": marshalOr(p.Analysis, "{}"),
		"Personas": marshalOr(p.Personas, "[]"),
		"Strategy": marshalOr(strategy, "N/A"),
	})
	if err != nil {
		return nil, &Error{Stage: StageHealth, Message: "failed to build prompt", Cause: err}
	}

	resp, err := a.client.GenerateJSON(ctx, prompt, llm.TierPro, llm.WithTemperature(0.1))
	if err != nil {
		return nil, &Error{Stage: StageHealth, Message: "generation failed", Cause: err}
	}

	var h types.Health
	if err := decode(StageHealth, schemas.Health, resp, &h); err != nil {
		return nil, err
	}
	ClampHealth(&h)
	return &h, nil
}

// ClampHealth forces every score into 0..100.
func ClampHealth(h *types.Health) {
	h.OverallScore = clampScore(h.OverallScore)
	h.Metrics.Clarity.Score = clampScore(h.Metrics.Clarity.Score)
	h.Metrics.Consistency.Score = clampScore(h.Metrics.Consistency.Score)
	h.Metrics.AudienceAlignment.Score = clampScore(h.Metrics.AudienceAlignment.Score)
	h.Metrics.Uniqueness.Score = clampScore(h.Metrics.Uniqueness.Score)
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
