package content

import (
	"context"
	"strings"

	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/prompts"
)

// maxScoredContent bounds the text sent for entity and trust scoring.
const maxScoredContent = 15000

// EntityReport scores how thoroughly copy covers its topic entities.
type EntityReport struct {
	Score           float64  `json:"score"`
	MissingEntities []string `json:"missing_entities"`
	StrongEntities  []string `json:"strong_entities"`
	Analysis        string   `json:"analysis"`
}

// TrustReport scores the credibility signals answer engines favour.
type TrustReport struct {
	Score           float64  `json:"score"`
	Issues          []string `json:"issues"`
	PositiveSignals []string `json:"positive_signals"`
	ImprovementTip  string   `json:"improvement_tip"`
}

// EntityDensity scores text against keywords, or general industry terms
// when none are given.
func EntityDensity(ctx context.Context, client llm.Client, text string, keywords []string) (*EntityReport, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyContent
	}
	targets := "General Industry Terms"
	if len(keywords) > 0 {
		targets = strings.Join(keywords, ", ")
	}
	var r EntityReport
	if err := score(ctx, client, "entity-density", map[string]string{
		"Keywords": targets,
		"Content":  head(text, maxScoredContent),
	}, &r); err != nil {
		return nil, err
	}
	r.Score = clampScore(r.Score)
	return &r, nil
}

// TrustSignals scores text for data, citations and first-hand expertise.
func TrustSignals(ctx context.Context, client llm.Client, text string) (*TrustReport, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyContent
	}
	var r TrustReport
	if err := score(ctx, client, "trust-signals", map[string]string{"Content": head(text, maxScoredContent)}, &r); err != nil {
		return nil, err
	}
	r.Score = clampScore(r.Score)
	return &r, nil
}

func score(ctx context.Context, client llm.Client, key string, data map[string]string, v any) error {
	prompt, err := prompts.Render(prompts.Content, key, data)
	if err != nil {
		return &GenerationError{Task: key, Message: "failed to build prompt", Cause: err}
	}
	resp, err := client.GenerateJSON(ctx, prompt, llm.TierFlash)
	if err != nil {
		return &GenerationError{Task: key, Message: "failed to generate content from LLM", Cause: err}
	}
	if err := llm.ParseJSON(resp, v); err != nil {
		return &GenerationError{Task: key, Message: "failed to parse score", Cause: err}
	}
	return nil
}

func clampScore(s float64) float64 {
	return min(max(s, 0), 100)
}

func head(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
