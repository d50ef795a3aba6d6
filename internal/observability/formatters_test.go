package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/brandos/internal/aeo"
	"github.com/jonathan/brandos/internal/audit"
	"github.com/jonathan/brandos/internal/pipeline"
	"github.com/jonathan/brandos/internal/types"
)

func init() {
	color.NoColor = true
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Progress(pipeline.ProgressEvent{Step: "fetch_homepage", Status: pipeline.StatusStarted, Message: "fetching"})
	p.Progress(pipeline.ProgressEvent{Step: "fetch_homepage", Status: pipeline.StatusCompleted, Message: "12 KB"})
	p.Progress(pipeline.ProgressEvent{Step: "battle_card", Status: pipeline.StatusSkipped, Message: "no competitor"})
	p.Progress(pipeline.ProgressEvent{Step: "design_tokens", Status: pipeline.StatusFailed, Message: "no CSS"})

	out := buf.String()
	assert.NotContains(t, out, "fetching")
	assert.NotContains(t, out, "no competitor")
	assert.Contains(t, out, "✓ fetch_homepage")
	assert.Contains(t, out, "12 KB")
	assert.Contains(t, out, "⚠ design_tokens")
	assert.Contains(t, out, "no CSS")
}

func TestProgress_Verbose(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.Verbose = true

	p.Progress(pipeline.ProgressEvent{Step: "fetch_homepage", Status: pipeline.StatusStarted, Message: "fetching"})
	p.Progress(pipeline.ProgressEvent{Step: "battle_card", Status: pipeline.StatusSkipped, Message: "no competitor"})

	assert.Contains(t, buf.String(), "fetching")
	assert.Contains(t, buf.String(), "no competitor")
}

func TestPrintBrandReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintBrandReport(&types.BrandReport{
		BrandName: "Acme",
		URL:       "https://acme.com",
		Profile: types.Profile{
			Analysis: types.Analysis{
				BrandArchetype:           "The Sage",
				BrandVoice:               "Calm",
				KeyValuePropositions:     []string{"a", "b", "c", "d", "e", "f", "g"},
				StrategicRecommendations: []string{"Own the API docs"},
			},
			Personas: []types.Persona{{Role: "CFO"}},
			Strategy: types.Strategy{MarketPositioning: "Fastest payouts"},
		},
		Health: &types.Health{OverallScore: 78},
		Audit:  &audit.Report{AIFriendly: true, ReadabilityScore: 61},
	})

	out := buf.String()
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "The Sage")
	assert.Contains(t, out, "78/100")
	assert.Contains(t, out, "CFO")
	assert.Contains(t, out, "Fastest payouts")
	assert.Contains(t, out, "Own the API docs")
	assert.Contains(t, out, "... and 2 more")
	assert.Contains(t, out, "AI-friendly (readability 61)")

	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)), line)
	}
}

func TestPrintBrandReport_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintBrandReport(nil)
	assert.Empty(t, buf.String())
}

func TestPrintLeaderboard(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintLeaderboard("acme", &aeo.CompetitiveReport{
		Leaderboard: []aeo.LeaderboardEntry{
			{Name: "Globex", ShareOfVoice: 55, RankChange: 2},
			{Name: "Acme Inc", ShareOfVoice: 45, NewEntrant: true},
			{Name: "Initech", ShareOfVoice: 0, RankChange: -1},
		},
		TotalQueries:   6,
		StabilityScore: 83,
	})

	out := buf.String()
	assert.Contains(t, out, " 1. Globex")
	assert.Contains(t, out, "▲2")
	assert.Contains(t, out, "* 2. Acme Inc")
	assert.Contains(t, out, "new")
	assert.Contains(t, out, "▼1")
	assert.Contains(t, out, "6 answers, stability 83%")
}

func TestPrintLeaderboard_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintLeaderboard("acme", &aeo.CompetitiveReport{})
	assert.Contains(t, buf.String(), "No brands were mentioned.")
}

func TestPrintStrategy(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintStrategy(&aeo.Strategy{
		Headline:       "Win the comparison queries",
		CitationHealth: aeo.CitationHealth{Status: "Critical"},
		TopActions:     []aeo.StrategyAction{{Title: "Publish a pricing page", Impact: "High"}},
	})

	out := buf.String()
	assert.Contains(t, out, "Win the comparison queries")
	assert.Contains(t, out, "1. Publish a pricing page [High impact]")
	assert.Contains(t, out, "Citations: Critical")
}

func TestPrintDefense(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintDefense(&aeo.DefenseReport{
		MoatScore:     66.7,
		TotalQueries:  4,
		LeakageCounts: map[string]int{"Globex": 2},
		Results: []aeo.DefenseResult{
			{BrandedQuery: aeo.BrandedQuery{Type: aeo.QueryReviews, Query: "Acme crm reviews pros and cons"}, MoatBreach: true},
			{BrandedQuery: aeo.BrandedQuery{Type: aeo.QueryDirect, Query: "Acme crm"}},
		},
	}, &aeo.DefenseStrategy{
		Headline: "Own the Comparison",
		Tactics:  []aeo.DefenseTactic{{Title: "Acme vs Globex page", Impact: "High"}},
	})

	out := buf.String()
	assert.Contains(t, out, "Moat score: 66.7/100 over 4 answers")
	assert.Contains(t, out, "Globex")
	assert.Contains(t, out, "✗ Acme crm reviews pros and cons (Reviews)")
	assert.NotContains(t, out, "✗ Acme crm (Direct)")
	assert.Contains(t, out, "1. Acme vs Globex page [High impact]")
}

func TestPrintDefense_NoLeaks(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.PrintDefense(nil, nil)
	assert.Empty(t, buf.String())

	p.PrintDefense(&aeo.DefenseReport{MoatScore: 100, TotalQueries: 4}, nil)
	assert.Contains(t, buf.String(), "No competitor leaks.")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ééééééé...", truncate(strings.Repeat("é", 20), 10))
}
