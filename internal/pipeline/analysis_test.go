package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/brandos/internal/audit"
	"github.com/jonathan/brandos/internal/db"
	"github.com/jonathan/brandos/internal/fetch"
	"github.com/jonathan/brandos/internal/llm/llmtest"
)

const (
	extractMarker  = "Brand Identity Expert"
	strategyMarker = "Chief Strategy Officer"
)

const extractJSON = `{"analysis": {
  "brand_name": "Acme",
  "brand_voice": "Confident yet friendly",
  "brand_archetype": "The Sage",
  "brand_values": ["Clarity"],
  "primary_products": ["Acme API"]
}}`

const strategyJSON = `{
  "personas": [{"role": "CTO", "pain_points": ["Slow releases"]}],
  "strategy": {"market_positioning": "Faster than X", "the_wedge": "Free tier"},
  "strategic_recommendations": ["Publish benchmarks"]
}`

const healthJSON = `{"overall_health_score": 82, "metrics": {"clarity": {"score": 80}}, "strategic_recommendations": ["Tighten the H1"]}`

const homeHTML = `<html><head><title>Acme | APIs for builders</title>
<style>:root { --primary-color: #0055ff; --secondary-color: #111111; --font-primary: Inter; }</style>
</head><body>
<header><img class="logo" src="/logo.png" alt="Acme logo">
<nav><a href="/about">About us</a><a href="/pricing">Pricing</a><a href="/blog">Blog</a></nav></header>
<main><h1>Ship faster with Acme</h1><p>Acme builds developer APIs that teams use to ship products quickly and safely every day.</p></main>
</body></html>`

// newSite serves a small brand site. Unknown paths 404.
func newSite(t *testing.T, home string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		if home == "" {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, home)
	})
	mux.HandleFunc("GET /about", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><title>About Acme</title></head><body><main><p>Founded in 2019 to make APIs boring.</p></main></body></html>`)
	})
	mux.HandleFunc("GET /pricing", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><title>Pricing</title></head><body><main><p>Free tier, then $49 per month.</p></main></body></html>`)
	})
	mux.HandleFunc("GET /robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "User-agent: *\nAllow: /\n")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newDeps(srv *httptest.Server, fake *llmtest.Fake, store Store) *Deps {
	d := &Deps{
		Client:  fake,
		Fetcher: fetch.NewCachedFetcher(nil, &fetch.CachedFetcherConfig{Options: &fetch.Options{Client: srv.Client()}}),
		Auditor: audit.NewAuditor(srv.Client(), nil),
	}
	if store != nil {
		d.Store = store
	}
	return d
}

func scriptedFake() *llmtest.Fake {
	return llmtest.New().
		On(extractMarker, extractJSON).
		On(strategyMarker, strategyJSON).
		On("Brand Health Score", healthJSON).
		On("Knowledge Graph", `{"products":[{"name":"Acme API","features":["REST"]}]}`)
}

func TestRunAnalysis_Persists(t *testing.T) {
	srv := newSite(t, homeHTML)
	store := newMemStore()
	rec := &recorder{}

	result, err := RunAnalysis(context.Background(), newDeps(srv, scriptedFake(), store), AnalysisOptions{
		URL:        srv.URL,
		OnProgress: rec.on,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Report)

	report := result.Report
	assert.Equal(t, "Acme", report.BrandName)
	assert.Equal(t, "The Sage", report.Profile.Analysis.BrandArchetype)
	require.Len(t, report.Profile.Personas, 1)
	require.NotNil(t, report.Health)
	assert.InDelta(t, 82, report.Health.OverallScore, 0.01)
	require.NotNil(t, report.Knowledge)
	assert.NotEmpty(t, report.Knowledge.Products)
	require.NotNil(t, report.Audit)
	assert.Contains(t, report.Sources, srv.URL)
	assert.Nil(t, report.BattleCard)

	require.Len(t, store.analyses, 1)
	assert.NotEqual(t, report.BrandID.String(), "00000000-0000-0000-0000-000000000000")
	b := store.brands["acme"]
	require.NotNil(t, b)
	assert.Equal(t, b.ID, report.BrandID)
	assert.Equal(t, db.PageTypeHomepage, store.pages[srv.URL])

	run := store.run(result.RunID)
	assert.Equal(t, db.RunStatusCompleted, run.Status)
	assert.Equal(t, db.RunKindAnalysis, run.Kind)
	require.NotNil(t, run.BrandID)
	assert.Equal(t, b.ID, *run.BrandID)
	assert.Equal(t, db.StepStatusCompleted, store.stepStatus(result.RunID, db.StepPersist))

	final := rec.final()
	assert.Equal(t, StatusCompleted, final[db.StepHomepage])
	assert.Equal(t, StatusCompleted, final[db.StepCorpus])
	assert.Equal(t, StatusCompleted, final[db.StepExtraction])
	assert.Equal(t, StatusCompleted, final[db.StepReasoning])
	assert.Equal(t, StatusSkipped, final[db.StepScreenshot])
	assert.Equal(t, StatusSkipped, final[db.StepBattleCard])
	assert.Equal(t, StatusCompleted, final[db.StepPersist])
	for _, ev := range rec.events {
		assert.Equal(t, result.RunID.String(), ev.RunID)
	}
}

func TestRunAnalysis_MergesIntoExistingProfile(t *testing.T) {
	srv := newSite(t, homeHTML)
	store := newMemStore()

	first, err := RunAnalysis(context.Background(), newDeps(srv, scriptedFake(), store), AnalysisOptions{URL: srv.URL})
	require.NoError(t, err)
	assert.Empty(t, first.Report.Profile.Analysis.BrandEnemy)

	fake := scriptedFake().On("Strategic Brand Archivist",
		`{"analysis": {"brand_name": "Acme", "brand_archetype": "The Sage", "brand_enemy": "Release friction"}, "personas": [{"role": "CTO"}]}`)
	second, err := RunAnalysis(context.Background(), newDeps(srv, fake, store), AnalysisOptions{URL: srv.URL})
	require.NoError(t, err)

	require.Len(t, store.analyses, 2)
	assert.Equal(t, first.Report.BrandID, second.Report.BrandID)
	assert.Equal(t, "Release friction", store.analyses[1].Profile.Analysis.BrandEnemy)

	var mergePrompt string
	for _, c := range fake.Calls() {
		if strings.Contains(c.Prompt, "Strategic Brand Archivist") {
			mergePrompt = c.Prompt
		}
	}
	require.NotEmpty(t, mergePrompt, "second analysis of a brand merges profiles")
	assert.Contains(t, mergePrompt, srv.URL)
}

func TestRunAnalysis_WithoutStore(t *testing.T) {
	srv := newSite(t, homeHTML)
	rec := &recorder{}

	result, err := RunAnalysis(context.Background(), newDeps(srv, scriptedFake(), nil), AnalysisOptions{
		URL:        srv.URL,
		OnProgress: rec.on,
	})
	require.NoError(t, err)
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", result.RunID.String())
	assert.Equal(t, StatusSkipped, rec.final()[db.StepPersist])
	for _, ev := range rec.events {
		assert.Empty(t, ev.RunID)
	}
}

func TestRunAnalysis_HomepageFailure(t *testing.T) {
	srv := newSite(t, "")
	store := newMemStore()
	rec := &recorder{}

	result, err := RunAnalysis(context.Background(), newDeps(srv, scriptedFake(), store), AnalysisOptions{
		URL:        srv.URL,
		OnProgress: rec.on,
	})
	require.Error(t, err)
	assert.Nil(t, result.Report)

	run := store.run(result.RunID)
	assert.Equal(t, db.RunStatusFailed, run.Status)
	require.NotNil(t, run.Error)
	assert.Contains(t, *run.Error, "500")
	assert.Equal(t, StatusFailed, rec.final()[db.StepHomepage])
	assert.Empty(t, store.analyses)
}

func TestRunAnalysis_StageFailures(t *testing.T) {
	t.Run("stage 2 failure keeps stage 1", func(t *testing.T) {
		srv := newSite(t, homeHTML)
		store := newMemStore()
		fake := llmtest.New().
			On(extractMarker, extractJSON).
			OnError(strategyMarker, errors.New("quota"))

		result, err := RunAnalysis(context.Background(), newDeps(srv, fake, store), AnalysisOptions{URL: srv.URL})
		require.NoError(t, err)
		assert.Equal(t, "Acme", result.Report.BrandName)
		assert.Empty(t, result.Report.Profile.Personas)
		assert.Len(t, store.analyses, 1)
	})

	t.Run("both stages failing fails the run", func(t *testing.T) {
		srv := newSite(t, homeHTML)
		store := newMemStore()
		rec := &recorder{}
		fake := llmtest.New().
			OnError(extractMarker, errors.New("boom")).
			OnError(strategyMarker, errors.New("quota"))

		result, err := RunAnalysis(context.Background(), newDeps(srv, fake, store), AnalysisOptions{
			URL:        srv.URL,
			OnProgress: rec.on,
		})
		require.Error(t, err)
		assert.ErrorContains(t, err, "boom")
		assert.ErrorContains(t, err, "quota")
		assert.Empty(t, store.analyses)
		assert.Equal(t, db.RunStatusFailed, store.run(result.RunID).Status)

		final := rec.final()
		assert.Equal(t, StatusFailed, final[db.StepExtraction])
		assert.Equal(t, StatusFailed, final[db.StepReasoning])
		assert.NotContains(t, final, db.StepPersist)
	})
}

func TestRunAnalysis_InvalidURL(t *testing.T) {
	_, err := RunAnalysis(context.Background(), &Deps{}, AnalysisOptions{URL: "  "})
	require.Error(t, err)
}

func TestPageType(t *testing.T) {
	home := "https://acme.com"
	tests := []struct {
		url  string
		want string
	}{
		{"https://acme.com/", db.PageTypeHomepage},
		{"https://acme.com", db.PageTypeHomepage},
		{"https://acme.com/pricing", db.PageTypePricing},
		{"https://acme.com/plans/team", db.PageTypePricing},
		{"https://acme.com/about-us", db.PageTypeAbout},
		{"https://acme.com/company/team", db.PageTypeAbout},
		{"https://acme.com/features", db.PageTypeFeatures},
		{"https://acme.com/products/api", db.PageTypeFeatures},
		{"https://acme.com/blog/launch", db.PageTypeBlog},
		{"https://acme.com/contact", db.PageTypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, PageType(tt.url, home))
		})
	}
}
