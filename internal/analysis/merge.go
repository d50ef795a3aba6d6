package analysis

import (
	"context"

	"go.uber.org/zap"

	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/prompts"
	"github.com/jonathan/brandos/internal/schemas"
	"github.com/jonathan/brandos/internal/types"
)

// MergeInsights folds a profile built from a newly scanned page into the
// brand's master profile. Any failure returns existing unchanged.
func (a *Analyzer) MergeInsights(ctx context.Context, existing, found *types.Profile, source string) *types.Profile {
	if existing == nil {
		return found
	}
	if found == nil {
		return existing
	}

	prompt, err := prompts.Render(prompts.Analysis, "merge-insights", map[string]string{
		"Existing": clip(marshalOr(existing, "{}"), MaxMergeChars),
		"New":      clip(marshalOr(found, "{}"), MaxMergeChars),
		"Source":   source,
	})
	if err != nil {
		a.logger.Warn("merge prompt failed", zap.Error(err))
		return existing
	}

	resp, err := a.client.GenerateJSON(ctx, prompt, llm.TierPro)
	if err != nil {
		a.logger.Warn("merge generation failed, keeping existing profile", zap.String("source", source), zap.Error(err))
		return existing
	}

	var merged types.Profile
	if err := decode(StageMerge, schemas.Analysis, resp, &merged); err != nil {
		a.logger.Warn("merge response unusable, keeping existing profile", zap.String("source", source), zap.Error(err))
		return existing
	}
	if merged.Analysis.IsEmpty() {
		return existing
	}
	return &merged
}
