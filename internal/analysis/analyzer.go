// Package analysis runs the two-stage brand analysis: a fast Flash-tier
// extraction of Brand DNA followed by Pro-tier strategic reasoning, plus the
// health, knowledge-graph, merge and battle-card passes built on top of it.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/prompts"
	"github.com/jonathan/brandos/internal/schemas"
	"github.com/jonathan/brandos/internal/types"
)

// Input caps, in characters.
const (
	MaxContentChars    = 80000
	MaxHTMLChars       = 30000
	MaxContextChars    = 5000
	MaxKnowledgeChars  = 100000
	MaxMergeChars      = 50000
	MaxComparisonChars = 10000
)

// Analyzer runs analysis stages against an LLM client.
type Analyzer struct {
	client llm.Client
	logger *zap.Logger
}

// New creates an Analyzer.
func New(client llm.Client, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{client: client, logger: logger}
}

// ExtractInput is the material Stage 1 reads.
type ExtractInput struct {
	Content    string
	HTML       string
	Screenshot []byte // JPEG, optional
}

// Extract runs Stage 1 on the Flash tier and returns the Brand DNA.
func (a *Analyzer) Extract(ctx context.Context, in ExtractInput) (*types.Analysis, error) {
	htmlSection := ""
	if in.HTML != "" {
		htmlSection = "RAW HTML CONTEXT (FOR VISUAL EXTRACTION):\n" + clip(in.HTML, MaxHTMLChars) + "\n"
	}
	prompt, err := prompts.Render(prompts.Analysis, "extract-brand-dna", map[string]string{
		"Content":     clip(in.Content, MaxContentChars),
		"HTMLSection": htmlSection,
	})
	if err != nil {
		return nil, &Error{Stage: StageExtract, Message: "failed to build prompt", Cause: err}
	}

	var resp string
	if len(in.Screenshot) > 0 {
		resp, err = a.client.GenerateWithImage(ctx, prompt, in.Screenshot, "image/jpeg", llm.TierFlash, llm.AsJSON())
	} else {
		resp, err = a.client.GenerateJSON(ctx, prompt, llm.TierFlash)
	}
	if err != nil {
		return nil, &Error{Stage: StageExtract, Message: "generation failed", Cause: err}
	}

	var out struct {
		Analysis types.Analysis `json:"analysis"`
	}
	if err := decode(StageExtract, schemas.Analysis, resp, &out); err != nil {
		return nil, err
	}
	return &out.Analysis, nil
}

// Strategize runs Stage 2 on the Pro tier: personas, SWOT, strategy and,
// when competitor content is given, a competitor comparison.
func (a *Analyzer) Strategize(ctx context.Context, content string, extracted *types.Analysis, competitor string) (*types.StrategyResult, error) {
	if extracted == nil {
		extracted = &types.Analysis{}
	}
	ctxJSON, err := json.Marshal(map[string]any{"analysis": extracted})
	if err != nil {
		return nil, &Error{Stage: StageStrategy, Message: "failed to encode context", Cause: err}
	}

	competitorSection := ""
	if competitor != "" {
		competitorSection = "COMPETITOR CONTENT:\n" + competitor + "\n"
	}
	prompt, err := prompts.Render(prompts.Analysis, "brand-strategy", map[string]string{
		"Context":           clip(string(ctxJSON), MaxContextChars),
		"Content":           clip(content, MaxContentChars),
		"CompetitorSection": competitorSection,
	})
	if err != nil {
		return nil, &Error{Stage: StageStrategy, Message: "failed to build prompt", Cause: err}
	}

	resp, err := a.client.GenerateJSON(ctx, prompt, llm.TierPro)
	if err != nil {
		return nil, &Error{Stage: StageStrategy, Message: "generation failed", Cause: err}
	}

	var out types.StrategyResult
	if err := decode(StageStrategy, schemas.Strategy, resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeInput is the material for a full two-stage analysis.
type AnalyzeInput struct {
	ExtractInput
	Competitor string
}

// Analyze runs Stage 1 then Stage 2 and merges them into a Profile. A failed
// stage is logged and left empty; an error is returned only when both fail.
func (a *Analyzer) Analyze(ctx context.Context, in AnalyzeInput) (*types.Profile, error) {
	a.logger.Info("stage 1: extraction", zap.String("model", a.client.GetModel(llm.TierFlash)))
	extracted, extractErr := a.Extract(ctx, in.ExtractInput)
	if extractErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("extraction failed, continuing with raw content", zap.Error(extractErr))
		extracted = &types.Analysis{}
	}

	a.logger.Info("stage 2: strategy", zap.String("model", a.client.GetModel(llm.TierPro)))
	strategy, strategyErr := a.Strategize(ctx, in.Content, extracted, in.Competitor)
	if strategyErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if extractErr != nil {
			return nil, errors.Join(extractErr, strategyErr)
		}
		a.logger.Warn("strategy failed", zap.Error(strategyErr))
		strategy = &types.StrategyResult{}
	}

	return Merge(extracted, strategy), nil
}

// Merge combines Stage 1 and Stage 2 output. Recommendations land on the
// analysis, preferring Stage 2's top-level list.
func Merge(extracted *types.Analysis, strategy *types.StrategyResult) *types.Profile {
	p := &types.Profile{}
	if extracted != nil {
		p.Analysis = *extracted
	}
	if strategy == nil {
		return p
	}
	p.Personas = strategy.Personas
	p.Strategy = strategy.Strategy
	p.CompetitorAnalysis = strategy.CompetitorAnalysis
	p.Analysis.StrategicRecommendations = strategy.Recommendations()
	return p
}

func decode(stage, schema, resp string, v any) error {
	data, err := llm.ExtractJSON(resp)
	if err != nil {
		return &Error{Stage: stage, Message: "no JSON in response", Cause: err}
	}
	if err := schemas.ValidateJSON(schema, data); err != nil {
		return &Error{Stage: stage, Message: "response failed schema validation", Cause: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &Error{Stage: stage, Message: "failed to decode response", Cause: err}
	}
	return nil
}

func marshalOr(v any, fallback string) string {
	if v == nil {
		return fallback
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fallback
	}
	return string(data)
}

// clip cuts s to at most n bytes without splitting a rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
