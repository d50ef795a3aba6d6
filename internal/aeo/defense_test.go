package aeo

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/llm/llmtest"
)

const defenseMarker = "Crisis Brand Reputation Manager"

func TestBrandedQueries(t *testing.T) {
	t.Run("names the first competitor", func(t *testing.T) {
		qs := BrandedQueries("Acme", []string{"crm"}, []string{"Globex", "Initech"})
		require.Len(t, qs, 4)
		assert.Equal(t, BrandedQuery{Type: QueryDirect, Query: "Acme crm", Keyword: "crm"}, qs[0])
		assert.Equal(t, "Acme vs Globex crm", qs[1].Query)
		assert.Equal(t, QueryComparative, qs[1].Type)
		assert.Equal(t, "Acme crm reviews pros and cons", qs[2].Query)
		assert.Equal(t, "Acme crm pricing", qs[3].Query)
	})
	t.Run("generic rival without competitors", func(t *testing.T) {
		qs := BrandedQueries("Acme", []string{"crm", "helpdesk"}, nil)
		require.Len(t, qs, 8)
		assert.Equal(t, "Acme vs competitors crm", qs[1].Query)
		assert.Equal(t, "helpdesk", qs[7].Keyword)
	})
}

func TestBuildBrandedPrompt(t *testing.T) {
	p, err := BuildBrandedPrompt(BrandedQuery{Type: QueryComparative, Query: "Acme vs Globex crm"}, "", "")
	require.NoError(t, err)
	assert.Contains(t, p, "procurement consultant")
	assert.Contains(t, p, `"Acme vs Globex crm"`)
	assert.Contains(t, p, DefaultRegion)
	assert.Contains(t, p, DefaultAudience)
	assert.Contains(t, p, "NARRATIVE:")

	p, err = BuildBrandedPrompt(BrandedQuery{Type: QueryPricing, Query: "Acme crm pricing"}, "Germany", "CFO")
	require.NoError(t, err)
	assert.Contains(t, p, "cost efficiency analyst")
	assert.Contains(t, p, "Germany")
	assert.Contains(t, p, "CFO")
}

func TestAnalyzeBrandedAnswer(t *testing.T) {
	answer := "Acme is the leader in CRM and highly scalable. Some teams pick Globex instead.\nNARRATIVE: Acme dominates but Globex nibbles."
	direct := BrandedQuery{Type: QueryDirect, Query: "Acme crm", Keyword: "crm"}

	r := AnalyzeBrandedAnswer(direct, answer, "Acme", []string{"Globex", "Initech", "acme"})
	assert.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, "Acme dominates but Globex nibbles.", r.Narrative)
	assert.Equal(t, []string{"Globex"}, r.LeakedTo)
	assert.True(t, r.MoatBreach)
	assert.Equal(t, "Positive", r.Sentiment)
	assert.Equal(t, []string{"scalable"}, r.Descriptors)
	assert.NotContains(t, r.Snippet, "NARRATIVE")

	comparative := BrandedQuery{Type: QueryComparative, Query: "Acme vs Globex crm", Keyword: "crm"}
	r = AnalyzeBrandedAnswer(comparative, answer, "Acme", []string{"Globex"})
	assert.Equal(t, []string{"Globex"}, r.LeakedTo)
	assert.False(t, r.MoatBreach)
}

func TestAnalyzeBrandedAnswer_NoNarrative(t *testing.T) {
	r := AnalyzeBrandedAnswer(BrandedQuery{Type: QueryPricing}, "Acme is expensive for small teams.", "Acme", nil)
	assert.Equal(t, noNarrative, r.Narrative)
	assert.Equal(t, "Negative", r.Sentiment)
	assert.Equal(t, []string{"expensive"}, r.Descriptors)
	assert.Empty(t, r.LeakedTo)
	assert.False(t, r.MoatBreach)
}

func TestAnalyzeBrandedAnswer_LeakContext(t *testing.T) {
	body := strings.Repeat("Acme handles pipelines well. ", 12) + "Teams outgrowing it usually move to Globex for reporting."
	r := AnalyzeBrandedAnswer(BrandedQuery{Type: QueryReviews}, body, "Acme", []string{"Globex"})

	require.True(t, r.MoatBreach)
	assert.Contains(t, r.Snippet, "**Context (Globex):**")
	assert.Contains(t, r.Snippet, "move to Globex for reporting")
}

func TestLeakContext_RuneBoundaries(t *testing.T) {
	body := strings.Repeat("é", 60) + "Globex" + strings.Repeat("ü", 80)
	ctx := leakContext(body, "globex")
	assert.Contains(t, ctx, "Globex")
	assert.True(t, strings.HasPrefix(ctx, "é"))
	assert.True(t, strings.HasSuffix(ctx, "ü"))
	assert.Empty(t, leakContext(body, "Initech"))
}

func TestSummarizeDefense(t *testing.T) {
	results := []DefenseResult{
		{BrandedQuery: BrandedQuery{Type: QueryDirect}, Status: StatusSuccess, Descriptors: []string{"scalable"}},
		{BrandedQuery: BrandedQuery{Type: QueryReviews}, Status: StatusSuccess, LeakedTo: []string{"Globex"}, MoatBreach: true, Descriptors: []string{"expensive"}},
		{BrandedQuery: BrandedQuery{Type: QueryComparative}, Status: StatusSuccess, LeakedTo: []string{"Globex"}},
		{BrandedQuery: BrandedQuery{Type: QueryPricing}, Status: StatusSuccess},
		{BrandedQuery: BrandedQuery{Type: QueryPricing}, Status: StatusError, Error: "boom"},
	}
	report := SummarizeDefense("Acme", results)

	assert.Equal(t, "Acme", report.Brand)
	assert.Equal(t, 4, report.TotalQueries)
	assert.Equal(t, 66.7, report.MoatScore)
	assert.Equal(t, map[string]int{"Globex": 2}, report.LeakageCounts)
	assert.Equal(t, []string{"scalable", "expensive"}, report.NarrativeDescriptors)
	assert.Len(t, report.Results, 5)
}

func TestSummarizeDefense_NothingAnswered(t *testing.T) {
	report := SummarizeDefense("Acme", []DefenseResult{{Status: StatusError}})
	assert.Zero(t, report.MoatScore)
	assert.Zero(t, report.TotalQueries)
	assert.Empty(t, report.LeakageCounts)
}

func TestTopLeakers(t *testing.T) {
	r := &DefenseReport{LeakageCounts: map[string]int{"Initech": 1, "Globex": 3, "Hooli": 1, "Umbrella": 2}}
	assert.Equal(t, []string{"Globex", "Umbrella", "Hooli"}, r.TopLeakers(3))
	assert.Len(t, r.TopLeakers(10), 4)
}

func TestRunBrandedSimulation(t *testing.T) {
	answers := map[string]string{
		"expert tech consultant":     "Acme is the industry standard.\nNARRATIVE: Acme leads.",
		"procurement consultant":     "Acme beats Globex for enterprise.\nNARRATIVE: Acme wins.",
		"critical software reviewer": "Reviewers say Acme is complex; many switch to Globex.\nNARRATIVE: Mixed.",
	}
	engine := &fakeEngine{name: EngineGemini, fn: func(prompt string) (string, error) {
		for marker, a := range answers {
			if strings.Contains(prompt, marker) {
				return a, nil
			}
		}
		return "", errors.New("503 unavailable")
	}}
	c := NewChecker(nil, nil, WithRetryPolicy(noWait))

	report, err := c.RunBrandedSimulation(context.Background(), engine, DefenseRequest{
		Brand:       "Acme",
		Keywords:    []string{"crm"},
		Competitors: []string{"Globex"},
		Region:      "Canada",
	})
	require.NoError(t, err)
	assert.Equal(t, EngineGemini, report.Engine)
	require.Len(t, report.Results, 4)

	assert.Equal(t, QueryDirect, report.Results[0].Type)
	assert.False(t, report.Results[0].MoatBreach)
	assert.Contains(t, report.Results[0].Prompt, "Canada")
	assert.False(t, report.Results[1].MoatBreach)
	assert.True(t, report.Results[2].MoatBreach)

	pricing := report.Results[3]
	assert.Equal(t, StatusError, pricing.Status)
	assert.Contains(t, pricing.Snippet, "Simulation failed")
	assert.NotEmpty(t, pricing.Prompt)

	assert.Equal(t, 3, report.TotalQueries)
	assert.Equal(t, 50.0, report.MoatScore)
	assert.Equal(t, 2, report.LeakageCounts["Globex"])
}

func TestRunBrandedSimulation_CanceledContext(t *testing.T) {
	var calls atomic.Int32
	engine := &fakeEngine{name: EngineGemini, fn: func(string) (string, error) {
		calls.Add(1)
		return "ok", nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewChecker(nil, nil, WithRetryPolicy(noWait)).RunBrandedSimulation(ctx, engine, DefenseRequest{Brand: "Acme", Keywords: []string{"crm"}})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Zero(t, calls.Load())
	for _, r := range report.Results {
		assert.Equal(t, StatusError, r.Status)
	}
}

func TestRunBrandedSimulation_SkippedEngine(t *testing.T) {
	c := NewChecker(nil, nil, WithRetryPolicy(noWait))
	_, err := c.RunBrandedSimulation(context.Background(), Skipped(EngineChatGPT, "No API Key"), DefenseRequest{Brand: "Acme", Keywords: []string{"crm"}})
	require.ErrorIs(t, err, ErrNoAPIKey)
}

const defenseJSON = `{
  "headline_strategy": "Own the Comparison",
  "executive_summary": "Globex shows up on branded queries. Publish head-to-head pages.",
  "tactics": [{"title": "Acme vs Globex page", "description": "Ship a comparison landing page", "impact": "High"}]
}`

func TestGenerateDefenseStrategy(t *testing.T) {
	fake := llmtest.New().On(defenseMarker, defenseJSON)
	report := &DefenseReport{
		MoatScore:            62.5,
		LeakageCounts:        map[string]int{"Globex": 2, "Initech": 1},
		NarrativeDescriptors: []string{"scalable", "expensive", "scalable"},
	}

	s, err := GenerateDefenseStrategy(context.Background(), fake, "Acme", report)
	require.NoError(t, err)
	assert.Equal(t, "Own the Comparison", s.Headline)
	require.Len(t, s.Tactics, 1)
	assert.Equal(t, "High", s.Tactics[0].Impact)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, llm.TierPro, calls[0].Tier)
	p := calls[0].Prompt
	assert.Contains(t, p, `"Acme"`)
	assert.Contains(t, p, "62.5/100")
	assert.Contains(t, p, "Globex (2), Initech (1)")
	assert.Contains(t, p, "Current Narrative Association: scalable, expensive")
}

func TestGenerateDefenseStrategy_QuietReport(t *testing.T) {
	fake := llmtest.New().On(defenseMarker, defenseJSON)
	_, err := GenerateDefenseStrategy(context.Background(), fake, "Acme", &DefenseReport{MoatScore: 100})
	require.NoError(t, err)
	p := fake.Calls()[0].Prompt
	assert.Contains(t, p, "Competitor Leakage: None")
	assert.Contains(t, p, "Neutral/Generic")
}

func TestGenerateDefenseStrategy_Failures(t *testing.T) {
	t.Run("nil report", func(t *testing.T) {
		_, err := GenerateDefenseStrategy(context.Background(), llmtest.New(), "Acme", nil)
		require.Error(t, err)
	})
	t.Run("llm error", func(t *testing.T) {
		fake := llmtest.New().OnError(defenseMarker, errors.New("quota"))
		_, err := GenerateDefenseStrategy(context.Background(), fake, "Acme", &DefenseReport{})
		require.Error(t, err)
	})
	t.Run("schema mismatch", func(t *testing.T) {
		fake := llmtest.New().On(defenseMarker, `{"executive_summary": "no tactics"}`)
		_, err := GenerateDefenseStrategy(context.Background(), fake, "Acme", &DefenseReport{})
		require.Error(t, err)
	})
}
