package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/brandos/internal/analysis"
	"github.com/jonathan/brandos/internal/audit"
	"github.com/jonathan/brandos/internal/brand"
	"github.com/jonathan/brandos/internal/crawling"
	"github.com/jonathan/brandos/internal/db"
	"github.com/jonathan/brandos/internal/design"
	"github.com/jonathan/brandos/internal/fetch"
	"github.com/jonathan/brandos/internal/pipeline/steps"
	"github.com/jonathan/brandos/internal/types"
)

// AnalysisOptions configures one brand analysis run.
type AnalysisOptions struct {
	URL           string
	ExtraURLs     []string
	CompetitorURL string
	MaxPages      int
	// Discover adds the conventional key pages (/about, /pricing, ...) to the scanned links.
	Discover bool
	// Screenshot feeds a homepage screenshot to Stage 1 when a Screenshotter is configured.
	Screenshot bool
	OnProgress ProgressCallback
	// OnStart receives the run ID once the run is recorded.
	OnStart func(runID uuid.UUID)
}

// AnalysisResult is the outcome of RunAnalysis.
type AnalysisResult struct {
	RunID  uuid.UUID          `json:"run_id"`
	Report *types.BrandReport `json:"report"`
	Links  []crawling.NavLink `json:"links"`
	Failed []crawling.Failure `json:"failed,omitempty"`
	Pages  []crawling.Source  `json:"pages"`
}

// inputBranch collects the outputs of the parallel homepage branch.
type inputBranch struct {
	links      []crawling.NavLink
	tokens     design.Tokens
	imagery    design.Imagery
	audit      *audit.Report
	screenshot []byte
}

// RunAnalysis runs the full brand analysis:
//
//	homepage -> {links, design tokens, imagery, audit, screenshot}
//	         -> corpus -> Stage 1 (Flash) -> Stage 2 (Pro)
//	         -> {health, knowledge graph, battle card} -> persist
//
// Branch steps degrade instead of failing. The run fails when the homepage
// cannot be fetched or both analysis stages fail.
func RunAnalysis(ctx context.Context, d *Deps, opts AnalysisOptions) (result *AnalysisResult, err error) {
	logger := d.logger()
	t := newTracker(steps.KindAnalysis, d.Store, opts.OnProgress, logger)

	target, err := fetch.NormalizeURL(opts.URL)
	if err != nil {
		return nil, err
	}
	brandName := brand.NameFromURL(target)

	var runID uuid.UUID
	if d.Store != nil {
		if runID, err = d.Store.CreateRun(ctx, db.RunKindAnalysis, target, nil); err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
		t.setRun(runID)
		defer func() { finishRun(ctx, d, runID, err) }()
	}
	if opts.OnStart != nil {
		opts.OnStart(runID)
	}
	result = &AnalysisResult{RunID: runID, Links: []crawling.NavLink{}, Pages: []crawling.Source{}}

	// Input: homepage
	t.start(ctx, db.StepHomepage, "Fetching "+target)
	home, err := d.Fetcher.Fetch(ctx, target)
	if err != nil {
		t.fail(ctx, db.StepHomepage, err)
		return result, err
	}
	t.done(ctx, db.StepHomepage, fmt.Sprintf("Fetched %s (%d chars)", home.Title, len(home.Text)), nil)

	branch := runInputBranch(ctx, d, t, opts, target, home.Page)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	result.Links = branch.links
	saveArtifact(ctx, d, runID, db.StepLinks, db.StepCategoryInput, branch.links)
	saveArtifact(ctx, d, runID, db.StepDesign, db.StepCategoryExtraction, branch.tokens)
	saveArtifact(ctx, d, runID, db.StepImagery, db.StepCategoryExtraction, branch.imagery)
	saveArtifact(ctx, d, runID, db.StepAudit, db.StepCategoryExtraction, branch.audit)

	// Input: corpus
	t.start(ctx, db.StepCorpus, "Aggregating site content")
	urls := append([]string{target}, opts.ExtraURLs...)
	urls = append(urls, crawling.SelectPages(branch.links, maxPages(opts.MaxPages), target)...)
	corpus, err := crawling.BuildCorpus(ctx, d.Fetcher, crawling.CorpusRequest{
		URLs:          urls,
		CompetitorURL: opts.CompetitorURL,
		MaxPages:      opts.MaxPages,
		Prefetched:    []*fetch.Page{home.Page},
	})
	if err != nil {
		t.fail(ctx, db.StepCorpus, err)
		return result, err
	}
	result.Pages = corpus.Sources
	result.Failed = corpus.Failed
	t.done(ctx, db.StepCorpus, fmt.Sprintf("Aggregated %d pages", len(corpus.Sources)), corpus.Sources)
	saveArtifact(ctx, d, runID, db.StepCorpus, db.StepCategoryInput, corpus)

	// Stage 1 and Stage 2
	analyzer := analysis.New(d.Client, logger)
	profile, err := runStages(ctx, t, analyzer, corpus, home.HTML, branch.screenshot)
	if err != nil {
		return result, err
	}
	saveArtifact(ctx, d, runID, db.StepReasoning, db.StepCategoryReasoning, profile)

	if n := strings.TrimSpace(profile.Analysis.BrandName); n != "" {
		brandName = n
	}
	report := &types.BrandReport{
		BrandName: brandName,
		URL:       target,
		Profile:   *profile,
		Design:    &branch.tokens,
		Imagery:   &branch.imagery,
		Audit:     branch.audit,
	}
	for _, s := range corpus.Sources {
		report.Sources = append(report.Sources, s.URL)
	}
	result.Report = report

	runReasoningBranch(ctx, t, analyzer, report, corpus)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	saveArtifact(ctx, d, runID, db.StepHealth, db.StepCategoryReasoning, report.Health)
	saveArtifact(ctx, d, runID, db.StepKnowledge, db.StepCategoryReasoning, report.Knowledge)
	saveArtifact(ctx, d, runID, db.StepBattleCard, db.StepCategoryReasoning, report.BattleCard)

	if d.Store == nil {
		t.skip(ctx, db.StepPersist, "no database configured")
		return result, nil
	}
	if !t.ready(ctx, db.StepPersist) {
		return result, errors.New("analysis produced nothing to persist")
	}
	t.start(ctx, db.StepPersist, "Saving brand "+brandName)
	if err := persistAnalysis(ctx, d.Store, analyzer, runID, report, corpus.Sources, target); err != nil {
		t.fail(ctx, db.StepPersist, err)
		return result, err
	}
	t.done(ctx, db.StepPersist, "Saved brand "+brandName, map[string]string{
		"brand_id":    report.BrandID.String(),
		"analysis_id": report.AnalysisID.String(),
	})
	return result, nil
}

func maxPages(n int) int {
	if n <= 0 {
		return crawling.DefaultMaxPages
	}
	return min(n, crawling.MaxPagesLimit)
}

// runInputBranch runs the homepage-derived steps concurrently. Each step
// degrades on failure; only context cancellation stops the group.
func runInputBranch(ctx context.Context, d *Deps, t *tracker, opts AnalysisOptions, target string, home *fetch.Page) inputBranch {
	var out inputBranch
	var mu sync.Mutex
	logger := d.logger()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t.start(gctx, db.StepLinks, "Scanning navigation")
		links, err := crawling.ExtractNavLinks(home.URL, home.HTML)
		if err != nil {
			logger.Warn("link extraction failed", zap.Error(err))
			links = nil
		}
		if len(links) > 0 && d.Client != nil {
			refined, rerr := crawling.RefineLinks(gctx, d.Client, links)
			if rerr != nil {
				logger.Warn("link refinement failed, using raw links", zap.Error(rerr))
			}
			links = refined
		}
		if opts.Discover {
			links = crawling.MergeSuggestions(links, crawling.SuggestCommonURLs(target))
		}
		if links == nil {
			links = []crawling.NavLink{}
		}
		mu.Lock()
		out.links = links
		mu.Unlock()
		t.done(gctx, db.StepLinks, fmt.Sprintf("Found %d key pages", len(links)), links)
		return nil
	})

	g.Go(func() error {
		t.start(gctx, db.StepDesign, "Extracting design tokens")
		tokens := design.Resolve(gctx, d.Client, home.HTML, logger)
		mu.Lock()
		out.tokens = tokens
		mu.Unlock()
		t.done(gctx, db.StepDesign, fmt.Sprintf("Extracted %d design tokens", tokens.Count()), tokens)
		return nil
	})

	g.Go(func() error {
		t.start(gctx, db.StepImagery, "Finding logo and hero images")
		imagery := design.ExtractImages(home.HTML, home.URL)
		mu.Lock()
		out.imagery = imagery
		mu.Unlock()
		t.done(gctx, db.StepImagery, fmt.Sprintf("Found %d hero images", len(imagery.HeroImages)), imagery)
		return nil
	})

	g.Go(func() error {
		if d.Auditor == nil {
			t.skip(gctx, db.StepAudit, "auditor not configured")
			return nil
		}
		t.start(gctx, db.StepAudit, "Auditing AI readiness")
		report := d.Auditor.Audit(gctx, target, home.HTML)
		mu.Lock()
		out.audit = report
		mu.Unlock()
		t.done(gctx, db.StepAudit, fmt.Sprintf("%d warnings", len(report.Warnings)), report)
		return nil
	})

	g.Go(func() error {
		if !opts.Screenshot || d.Screenshotter == nil {
			t.skip(gctx, db.StepScreenshot, "screenshots disabled")
			return nil
		}
		t.start(gctx, db.StepScreenshot, "Capturing homepage")
		shot, err := d.Screenshotter.Screenshot(gctx, target)
		if err != nil {
			t.fail(gctx, db.StepScreenshot, err)
			return nil
		}
		mu.Lock()
		out.screenshot = shot
		mu.Unlock()
		t.done(gctx, db.StepScreenshot, fmt.Sprintf("Captured %d bytes", len(shot)), nil)
		return nil
	})

	_ = g.Wait()
	return out
}

// runStages runs Stage 1 and Stage 2. A failed stage is recorded and left
// empty; the error is returned only when both fail.
func runStages(ctx context.Context, t *tracker, a *analysis.Analyzer, corpus *crawling.Corpus, html string, screenshot []byte) (*types.Profile, error) {
	t.start(ctx, db.StepExtraction, "Stage 1: extracting Brand DNA")
	extracted, extractErr := a.Extract(ctx, analysis.ExtractInput{Content: corpus.Text, HTML: html, Screenshot: screenshot})
	if extractErr != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t.fail(ctx, db.StepExtraction, extractErr)
		extracted = &types.Analysis{}
	} else {
		t.done(ctx, db.StepExtraction, "Archetype: "+orNA(extracted.BrandArchetype), extracted)
	}

	t.start(ctx, db.StepReasoning, "Stage 2: personas and strategy")
	strategy, strategyErr := a.Strategize(ctx, corpus.Text, extracted, corpus.Competitor)
	switch {
	case strategyErr == nil:
		t.done(ctx, db.StepReasoning, fmt.Sprintf("Built %d personas", len(strategy.Personas)), nil)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case extractErr != nil:
		t.fail(ctx, db.StepReasoning, strategyErr)
		return nil, errors.Join(extractErr, strategyErr)
	default:
		// Stage 1 alone is still a usable profile.
		strategy = &types.StrategyResult{}
		t.done(ctx, db.StepReasoning, "Stage 2 failed, continuing with Stage 1 only: "+strategyErr.Error(), nil)
	}

	return analysis.Merge(extracted, strategy), nil
}

// runReasoningBranch fills the health score, knowledge graph and, when a
// competitor was crawled, the battle card, concurrently.
func runReasoningBranch(ctx context.Context, t *tracker, a *analysis.Analyzer, report *types.BrandReport, corpus *crawling.Corpus) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if !t.ready(gctx, db.StepHealth) {
			return nil
		}
		t.start(gctx, db.StepHealth, "Scoring brand health")
		h, err := a.Health(gctx, &report.Profile)
		if err != nil {
			t.fail(gctx, db.StepHealth, err)
			return nil
		}
		mu.Lock()
		report.Health = h
		mu.Unlock()
		t.done(gctx, db.StepHealth, fmt.Sprintf("Overall health %.0f/100", h.OverallScore), h)
		return nil
	})

	g.Go(func() error {
		t.start(gctx, db.StepKnowledge, "Building knowledge graph")
		kg, err := a.Knowledge(gctx, corpus.Text)
		if err != nil {
			if gctx.Err() != nil {
				return nil
			}
			kg = analysis.KnowledgeFromAnalysis(&report.Profile.Analysis)
			mu.Lock()
			report.Knowledge = kg
			mu.Unlock()
			t.done(gctx, db.StepKnowledge, "Knowledge graph derived from Brand DNA", kg)
			return nil
		}
		mu.Lock()
		report.Knowledge = kg
		mu.Unlock()
		t.done(gctx, db.StepKnowledge, fmt.Sprintf("Mapped %d products", len(kg.Products)), kg)
		return nil
	})

	g.Go(func() error {
		if corpus.Competitor == "" {
			t.skip(gctx, db.StepBattleCard, "no competitor")
			return nil
		}
		if !t.ready(gctx, db.StepBattleCard) {
			return nil
		}
		t.start(gctx, db.StepBattleCard, "Building battle card")
		card, err := a.CompareBrands(gctx, corpus.Text, corpus.Competitor)
		if err != nil {
			t.fail(gctx, db.StepBattleCard, err)
			return nil
		}
		mu.Lock()
		report.BattleCard = card
		mu.Unlock()
		t.done(gctx, db.StepBattleCard, "Battle card vs "+orNA(card.CompetitorName), card)
		return nil
	})

	_ = g.Wait()
}

// persistAnalysis saves the brand, links its pages and stores the report.
// A brand analysed before gets the new profile merged into its latest one.
func persistAnalysis(ctx context.Context, store Store, analyzer *analysis.Analyzer, runID uuid.UUID, report *types.BrandReport, sources []crawling.Source, homepage string) error {
	b, err := store.FindOrCreateBrand(ctx, report.BrandName, homepage)
	if err != nil {
		return err
	}
	report.BrandID = b.ID
	report.BrandName = b.Name

	prev, err := store.LatestAnalysis(ctx, b.ID)
	if err != nil {
		return err
	}
	if prev != nil {
		merged := analyzer.MergeInsights(ctx, &prev.Profile, &report.Profile, strings.Join(report.Sources, ", "))
		report.Profile = *merged
	}

	if runID != uuid.Nil {
		if err := store.SetRunBrand(ctx, runID, b.ID); err != nil {
			return err
		}
	}
	if report.Imagery != nil && report.Imagery.Logo != "" {
		if err := store.UpdateBrandLogo(ctx, b.ID, report.Imagery.Logo); err != nil {
			return err
		}
	}
	for _, s := range sources {
		if err := store.AssignPage(ctx, s.URL, b.ID, PageType(s.URL, homepage)); err != nil {
			return err
		}
	}

	var rid *uuid.UUID
	if runID != uuid.Nil {
		rid = &runID
	}
	return store.SaveAnalysis(ctx, report, rid)
}

// PageType classifies a crawled URL by its path.
func PageType(pageURL, homepage string) string {
	if strings.TrimSuffix(pageURL, "/") == strings.TrimSuffix(homepage, "/") {
		return db.PageTypeHomepage
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return db.PageTypeOther
	}
	path := strings.ToLower(u.Path)
	switch {
	case path == "" || path == "/":
		return db.PageTypeHomepage
	case strings.Contains(path, "pricing") || strings.Contains(path, "plans"):
		return db.PageTypePricing
	case strings.Contains(path, "about") || strings.Contains(path, "company") || strings.Contains(path, "team"):
		return db.PageTypeAbout
	case strings.Contains(path, "feature") || strings.Contains(path, "product") || strings.Contains(path, "solution"):
		return db.PageTypeFeatures
	case strings.Contains(path, "blog") || strings.Contains(path, "news") || strings.Contains(path, "resources"):
		return db.PageTypeBlog
	}
	return db.PageTypeOther
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
