package analysis

import (
	"context"

	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/prompts"
	"github.com/jonathan/brandos/internal/schemas"
	"github.com/jonathan/brandos/internal/types"
)

// Knowledge extracts the brand's products, key terms and mentioned colors.
func (a *Analyzer) Knowledge(ctx context.Context, content string) (*types.KnowledgeGraph, error) {
	prompt, err := prompts.Render(prompts.Analysis, "brand-knowledge", map[string]string{
		"Content": clip(content, MaxKnowledgeChars),
	})
	if err != nil {
		return nil, &Error{Stage: StageKnowledge, Message: "failed to build prompt", Cause: err}
	}

	resp, err := a.client.GenerateJSON(ctx, prompt, llm.TierPro)
	if err != nil {
		return nil, &Error{Stage: StageKnowledge, Message: "generation failed", Cause: err}
	}

	var k types.KnowledgeGraph
	if err := decode(StageKnowledge, schemas.Knowledge, resp, &k); err != nil {
		return nil, err
	}
	if k.BrandColors == nil {
		k.BrandColors = []string{}
	}
	return &k, nil
}

// KnowledgeFromAnalysis builds a minimal knowledge graph from Stage 1 when
// the dedicated pass fails: products from primary_products, key terms from
// brand_values.
func KnowledgeFromAnalysis(an *types.Analysis) *types.KnowledgeGraph {
	k := &types.KnowledgeGraph{Products: []types.Product{}, KeyTerms: []string{}, BrandColors: []string{}}
	if an == nil {
		return k
	}
	for _, name := range an.PrimaryProducts {
		k.Products = append(k.Products, types.Product{Name: name})
	}
	k.KeyTerms = append(k.KeyTerms, an.BrandValues...)
	k.BrandColors = append(k.BrandColors, an.VisualIdentity.PrimaryPalette...)
	return k
}
