package content

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/prompts"
	"github.com/jonathan/brandos/internal/schemas"
)

const (
	maxGapContent      = 15000
	defaultOpportunity = 50
	defaultEffort      = 2
)

var effortWeights = map[string]float64{"low": 1, "medium": 2, "high": 3}

// GapKeyword is a keyword the competitor owns and we underuse.
type GapKeyword struct {
	Keyword              string   `json:"keyword"`
	CompetitorEmphasis   string   `json:"competitor_emphasis,omitempty"`
	OurCoverage          string   `json:"our_coverage,omitempty"`
	OpportunityScore     *float64 `json:"opportunity_score,omitempty"`
	TopicCategory        string   `json:"topic_category,omitempty"`
	Rationale            string   `json:"rationale,omitempty"`
	SuggestedAction      string   `json:"suggested_action,omitempty"`
	ImplementationEffort string   `json:"implementation_effort,omitempty"`
	QuickWinScore        float64  `json:"quick_win_score,omitempty"`
}

// Opportunity returns the opportunity score, 50 when the model omitted it.
func (g GapKeyword) Opportunity() float64 {
	if g.OpportunityScore == nil {
		return defaultOpportunity
	}
	return *g.OpportunityScore
}

// GapInsights summarises a keyword gap analysis.
type GapInsights struct {
	BiggestContentGap     string   `json:"biggest_content_gap"`
	QuickWins             []string `json:"quick_wins"`
	LongTermOpportunities []string `json:"long_term_opportunities"`
}

// GapReport is the outcome of KeywordGap.
type GapReport struct {
	Keywords []GapKeyword `json:"gap_keywords"`
	Insights GapInsights  `json:"strategic_insights"`
}

// KeywordGap compares our copy with a competitor's and returns the keywords
// they emphasise that we underuse, highest opportunity first.
func KeywordGap(ctx context.Context, client llm.Client, ours, theirs string) (*GapReport, error) {
	if strings.TrimSpace(ours) == "" || strings.TrimSpace(theirs) == "" {
		return nil, ErrEmptyContent
	}
	prompt, err := prompts.Render(prompts.Content, "keyword-gap", map[string]string{
		"Ours":   head(ours, maxGapContent),
		"Theirs": head(theirs, maxGapContent),
	})
	if err != nil {
		return nil, &GenerationError{Task: "keyword-gap", Message: "failed to build prompt", Cause: err}
	}
	resp, err := client.GenerateJSON(ctx, prompt, llm.TierPro)
	if err != nil {
		return nil, &GenerationError{Task: "keyword-gap", Message: "failed to generate content from LLM", Cause: err}
	}
	data, err := llm.ExtractJSON(resp)
	if err != nil {
		return nil, &GenerationError{Task: "keyword-gap", Message: "no JSON in response", Cause: err}
	}
	if err := schemas.ValidateJSON(schemas.KeywordGap, data); err != nil {
		return nil, &GenerationError{Task: "keyword-gap", Message: "response failed schema validation", Cause: err}
	}

	var r GapReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &GenerationError{Task: "keyword-gap", Message: "failed to decode response", Cause: err}
	}
	sort.SliceStable(r.Keywords, func(i, j int) bool {
		return r.Keywords[i].Opportunity() > r.Keywords[j].Opportunity()
	})
	return &r, nil
}

// PrioritizeKeywords scores each keyword as opportunity / effort weight
// (low 1, medium 2, high 3) and returns them quick wins first. The input is
// not modified.
func PrioritizeKeywords(keywords []GapKeyword) []GapKeyword {
	out := make([]GapKeyword, len(keywords))
	copy(out, keywords)
	for i := range out {
		w, ok := effortWeights[strings.ToLower(strings.TrimSpace(out[i].ImplementationEffort))]
		if !ok {
			w = defaultEffort
		}
		out[i].QuickWinScore = out[i].Opportunity() / w
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].QuickWinScore > out[j].QuickWinScore
	})
	return out
}
