package analysis

import (
	"context"

	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/prompts"
	"github.com/jonathan/brandos/internal/schemas"
	"github.com/jonathan/brandos/internal/types"
)

// CompareBrands builds a sales battle card with counter-messaging against a
// competitor.
func (a *Analyzer) CompareBrands(ctx context.Context, ours, theirs string) (*types.BattleCard, error) {
	if ours == "" || theirs == "" {
		return nil, &Error{Stage: StageCompare, Message: "both brand and competitor content are required"}
	}
	prompt, err := prompts.Render(prompts.Analysis, "compare-brands", map[string]string{
		"Brand":      clip(ours, MaxComparisonChars),
		"Competitor": clip(theirs, MaxComparisonChars),
	})
	if err != nil {
		return nil, &Error{Stage: StageCompare, Message: "failed to build prompt", Cause: err}
	}

	resp, err := a.client.GenerateJSON(ctx, prompt, llm.TierPro)
	if err != nil {
		return nil, &Error{Stage: StageCompare, Message: "generation failed", Cause: err}
	}

	var card types.BattleCard
	if err := decode(StageCompare, schemas.BattleCard, resp, &card); err != nil {
		return nil, err
	}
	return &card, nil
}
