package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/brandos/internal/llm/llmtest"
)

const gapJSON = `{
  "gap_keywords": [
    {"keyword": "soc 2 compliance", "opportunity_score": 60, "implementation_effort": "Low"},
    {"keyword": "enterprise sso", "opportunity_score": 90, "implementation_effort": "High"},
    {"keyword": "api rate limits", "implementation_effort": "medium"}
  ],
  "strategic_insights": {"biggest_content_gap": "Security", "quick_wins": ["soc 2 compliance"], "long_term_opportunities": []}
}`

func TestKeywordGap(t *testing.T) {
	fake := llmtest.New().On("Competitive SEO Analyst", gapJSON)

	r, err := KeywordGap(context.Background(), fake, "our copy", "their copy")
	require.NoError(t, err)
	require.Len(t, r.Keywords, 3)
	assert.Equal(t, "enterprise sso", r.Keywords[0].Keyword)
	assert.Equal(t, "soc 2 compliance", r.Keywords[1].Keyword)
	assert.Equal(t, "api rate limits", r.Keywords[2].Keyword)
	assert.Equal(t, "Security", r.Insights.BiggestContentGap)

	p := fake.Calls()[0].Prompt
	assert.Contains(t, p, "our copy")
	assert.Contains(t, p, "their copy")
}

func TestKeywordGap_Errors(t *testing.T) {
	_, err := KeywordGap(context.Background(), llmtest.New(), "", "theirs")
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = KeywordGap(context.Background(), llmtest.New().On("Competitive SEO Analyst", `{"insights": {}}`), "a", "b")
	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "response failed schema validation", gerr.Message)
}

func TestPrioritizeKeywords(t *testing.T) {
	high, low := 90.0, 60.0
	in := []GapKeyword{
		{Keyword: "enterprise sso", OpportunityScore: &high, ImplementationEffort: "High"},
		{Keyword: "soc 2 compliance", OpportunityScore: &low, ImplementationEffort: "Low"},
		{Keyword: "api rate limits"},
	}

	out := PrioritizeKeywords(in)
	require.Len(t, out, 3)
	assert.Equal(t, "soc 2 compliance", out[0].Keyword)
	assert.InDelta(t, 60, out[0].QuickWinScore, 0.001)
	assert.Equal(t, "enterprise sso", out[1].Keyword)
	assert.InDelta(t, 30, out[1].QuickWinScore, 0.001)
	assert.Equal(t, "api rate limits", out[2].Keyword)
	assert.InDelta(t, 25, out[2].QuickWinScore, 0.001)

	assert.Zero(t, in[0].QuickWinScore, "input must not be modified")
	assert.Empty(t, PrioritizeKeywords(nil))
}
