package aeo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/prompts"
	"github.com/jonathan/brandos/internal/schemas"
	"github.com/jonathan/brandos/internal/types"
)

const (
	strategyTopN        = 5
	maxSuggestedKeyword = 10
	maxKeywordContent   = 10000
)

// StrategyAction is one recommended move.
type StrategyAction struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	Difficulty  string `json:"difficulty"`
}

// CitationHealth flags reliance on competitor-owned citations.
type CitationHealth struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Strategy is the AEO playbook produced from a competitive report.
type Strategy struct {
	Headline         string           `json:"headline_strategy"`
	ExecutiveSummary string           `json:"executive_summary"`
	CitationHealth   CitationHealth   `json:"citation_health_check"`
	TopActions       []StrategyAction `json:"top_3_actions"`
	ContentPivot     string           `json:"content_pivot"`
	CitationTargets  []string         `json:"citation_targets"`
}

// GenerateStrategy writes a playbook for brandName from the top of the
// leaderboard and the citation gaps, focused on intents when given.
func GenerateStrategy(ctx context.Context, client llm.Client, leaderboard []LeaderboardEntry, gaps []SourceGap, brandName string, intents []string) (*Strategy, error) {
	if len(leaderboard) > strategyTopN {
		leaderboard = leaderboard[:strategyTopN]
	}
	if len(gaps) > strategyTopN {
		gaps = gaps[:strategyTopN]
	}
	board, err := json.Marshal(leaderboard)
	if err != nil {
		return nil, fmt.Errorf("failed to encode leaderboard: %w", err)
	}
	opps, err := json.Marshal(gaps)
	if err != nil {
		return nil, fmt.Errorf("failed to encode opportunities: %w", err)
	}

	intentContext := ""
	if len(intents) > 0 {
		intentContext = "FOCUS INTENTS: " + strings.Join(intents, ", ") +
			"\nIgnore low scores for intents not listed above. Only optimize for the selected intents."
	}

	prompt, err := prompts.Render(prompts.AEO, "aeo-strategy", map[string]string{
		"Brand":         brandName,
		"IntentContext": intentContext,
		"Leaderboard":   string(board),
		"Opportunities": string(opps),
	})
	if err != nil {
		return nil, err
	}

	resp, err := client.GenerateJSON(ctx, prompt, llm.TierPro)
	if err != nil {
		return nil, fmt.Errorf("strategy generation failed: %w", err)
	}
	data, err := llm.ExtractJSON(resp)
	if err != nil {
		return nil, fmt.Errorf("strategy generation failed: %w", err)
	}
	if err := schemas.ValidateJSON(schemas.AEOStrategy, data); err != nil {
		return nil, err
	}
	var s Strategy
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode strategy: %w", err)
	}
	return &s, nil
}

// SuggestKeywords proposes discovery keywords for a brand from its site
// content, analysis and personas. A comma-separated answer is accepted when
// the model does not return a JSON array.
func SuggestKeywords(ctx context.Context, client llm.Client, content string, analysis *types.Analysis, personas []types.Persona) ([]string, error) {
	dna := "{}"
	if analysis != nil {
		if b, err := json.Marshal(analysis); err == nil {
			dna = string(b)
		}
	}
	people := "[]"
	if len(personas) > 0 {
		if b, err := json.Marshal(personas); err == nil {
			people = string(b)
		}
	}
	if utf8.RuneCountInString(content) > maxKeywordContent {
		content = string([]rune(content)[:maxKeywordContent])
	}

	prompt, err := prompts.Render(prompts.AEO, "suggest-keywords", map[string]string{
		"Content":  content,
		"DNA":      dna,
		"Personas": people,
	})
	if err != nil {
		return nil, err
	}
	resp, err := client.GenerateContent(ctx, prompt, llm.TierFlash)
	if err != nil {
		return nil, fmt.Errorf("keyword suggestion failed: %w", err)
	}

	var raw []string
	if err := llm.ParseJSON(resp, &raw); err != nil {
		raw = strings.Split(llm.CleanJSONBlock(resp), ",")
	}

	out := make([]string, 0, maxSuggestedKeyword)
	seen := map[string]bool{}
	for _, k := range raw {
		k = strings.Trim(strings.TrimSpace(k), `"'`)
		if k == "" || seen[strings.ToLower(k)] {
			continue
		}
		seen[strings.ToLower(k)] = true
		out = append(out, k)
		if len(out) == maxSuggestedKeyword {
			break
		}
	}
	return out, nil
}
