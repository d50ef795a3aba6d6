package aeo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/prompts"
	"github.com/jonathan/brandos/internal/schemas"
)

// Branded query types.
const (
	QueryDirect      = "Direct"
	QueryComparative = "Comparative"
	QueryReviews     = "Reviews"
	QueryPricing     = "Pricing"
)

const (
	narrativeMarker     = "NARRATIVE:"
	noNarrative         = "No summary available."
	defenseSnippetChars = 200
	leakContextBefore   = 50
	leakContextAfter    = 100
	defenseTopLeakers   = 3
	defenseTopNarrative = 5
)

var (
	defensePositive    = []string{"best", "excellent", "industry standard", "leader", "highly recommend"}
	defenseNegative    = []string{"expensive", "complex", "slow", "hard", "limited", "poor"}
	defenseDescriptors = []string{
		"expensive", "cheap", "scalable", "enterprise", "complex", "easy", "developer-friendly",
		"reliable", "innovative", "legacy", "popular", "secure",
	}
)

// DefenseRequest describes a brand defense simulation: queries that name the
// brand, checked for competitors leaking into the answers.
type DefenseRequest struct {
	Brand       string
	Keywords    []string
	Competitors []string
	Region      string
	Audience    string
}

// BrandedQuery is one branded search to simulate.
type BrandedQuery struct {
	Type    string `json:"type"`
	Query   string `json:"query"`
	Keyword string `json:"keyword"`
}

// DefenseResult is the analysis of one branded answer.
type DefenseResult struct {
	BrandedQuery
	Status      string   `json:"status"`
	Error       string   `json:"error,omitempty"`
	Prompt      string   `json:"prompt_used,omitempty"`
	Snippet     string   `json:"response_snippet"`
	Narrative   string   `json:"narrative_summary"`
	LeakedTo    []string `json:"leaked_to"`
	Sentiment   string   `json:"sentiment"`
	Descriptors []string `json:"descriptors"`
	MoatBreach  bool     `json:"is_moat_breach"`
}

// DefenseReport summarises a brand defense simulation. MoatScore is the
// share of answered non-comparative queries that mention no competitor.
type DefenseReport struct {
	Brand                string          `json:"brand"`
	Engine               string          `json:"engine"`
	MoatScore            float64         `json:"moat_score"`
	TotalQueries         int             `json:"total_queries"`
	LeakageCounts        map[string]int  `json:"leakage_counts"`
	Results              []DefenseResult `json:"results"`
	NarrativeDescriptors []string        `json:"narrative_descriptors"`
}

// TopLeakers returns up to n competitors by leak count, most first, ties by name.
func (r *DefenseReport) TopLeakers(n int) []string {
	names := make([]string, 0, len(r.LeakageCounts))
	for name := range r.LeakageCounts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := r.LeakageCounts[names[i]], r.LeakageCounts[names[j]]
		if ci != cj {
			return ci > cj
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

// BrandedQueries expands each keyword into the four branded query types. The
// comparative query names the first competitor, or "competitors" when none
// are known.
func BrandedQueries(brand string, keywords, competitors []string) []BrandedQuery {
	rival := "competitors"
	if len(competitors) > 0 {
		rival = competitors[0]
	}
	var out []BrandedQuery
	for _, kw := range keywords {
		out = append(out,
			BrandedQuery{Type: QueryDirect, Query: fmt.Sprintf("%s %s", brand, kw), Keyword: kw},
			BrandedQuery{Type: QueryComparative, Query: fmt.Sprintf("%s vs %s %s", brand, rival, kw), Keyword: kw},
			BrandedQuery{Type: QueryReviews, Query: fmt.Sprintf("%s %s reviews pros and cons", brand, kw), Keyword: kw},
			BrandedQuery{Type: QueryPricing, Query: fmt.Sprintf("%s %s pricing", brand, kw), Keyword: kw},
		)
	}
	return out
}

// BuildBrandedPrompt renders the persona prompt for a branded query.
func BuildBrandedPrompt(q BrandedQuery, region, audience string) (string, error) {
	if region == "" {
		region = DefaultRegion
	}
	if audience == "" {
		audience = DefaultAudience
	}
	return prompts.Render(prompts.AEO, "branded-"+strings.ToLower(q.Type), map[string]string{
		"Query":    q.Query,
		"Region":   region,
		"Audience": audience,
	})
}

// RunBrandedSimulation asks engine every branded query for req and scores
// the answers for competitor leakage and narrative. Failed queries are
// recorded and left out of the moat score. A skipped engine fails with
// ErrNoAPIKey before any query; otherwise the error is non-nil only when
// ctx ends first.
func (c *Checker) RunBrandedSimulation(ctx context.Context, engine Engine, req DefenseRequest) (*DefenseReport, error) {
	if _, ok := engine.(*skippedEngine); ok {
		return nil, &EngineError{Engine: engine.Name(), Cause: ErrNoAPIKey}
	}
	queries := BrandedQueries(req.Brand, req.Keywords, req.Competitors)
	results := make([]DefenseResult, len(queries))

	c.logger.Info("running brand defense simulation",
		zap.String("brand", req.Brand),
		zap.String("engine", engine.Name()),
		zap.Int("queries", len(queries)))

	g := new(errgroup.Group)
	g.SetLimit(c.workers)
	for i, q := range queries {
		g.Go(func() error {
			results[i] = c.executeBranded(ctx, engine, req, q)
			return nil
		})
	}
	_ = g.Wait()

	report := SummarizeDefense(req.Brand, results)
	report.Engine = engine.Name()
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (c *Checker) executeBranded(ctx context.Context, engine Engine, req DefenseRequest, q BrandedQuery) DefenseResult {
	fail := func(err error) DefenseResult {
		return DefenseResult{
			BrandedQuery: q,
			Status:       StatusError,
			Error:        err.Error(),
			Snippet:      "Simulation failed: " + err.Error(),
			Narrative:    SentimentError,
			LeakedTo:     []string{},
			Sentiment:    SentimentNA,
			Descriptors:  []string{},
		}
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	prompt, err := BuildBrandedPrompt(q, req.Region, req.Audience)
	if err != nil {
		return fail(err)
	}

	var answer string
	err = c.retry.Do(ctx, func(ctx context.Context) error {
		var qerr error
		answer, qerr = engine.Query(ctx, prompt)
		return qerr
	})
	if err != nil {
		c.logger.Warn("branded query failed",
			zap.String("engine", engine.Name()),
			zap.String("query", q.Query),
			zap.Error(err))
		r := fail(err)
		r.Prompt = prompt
		return r
	}

	r := AnalyzeBrandedAnswer(q, answer, req.Brand, req.Competitors)
	r.Prompt = prompt
	return r
}

// AnalyzeBrandedAnswer splits off the NARRATIVE line, finds competitors named
// in the answer and labels its sentiment. A leak counts as a moat breach
// except on comparative queries, where rivals are expected.
func AnalyzeBrandedAnswer(q BrandedQuery, answer, brand string, competitors []string) DefenseResult {
	r := DefenseResult{
		BrandedQuery: q,
		Status:       StatusSuccess,
		Narrative:    noNarrative,
		LeakedTo:     []string{},
		Sentiment:    SentimentNeutral,
		Descriptors:  []string{},
	}

	body := answer
	if before, after, found := strings.Cut(answer, narrativeMarker); found {
		body = strings.TrimSpace(before)
		r.Narrative = strings.TrimSpace(after)
	}
	lower := strings.ToLower(body)
	brandLower := strings.ToLower(brand)

	for _, comp := range competitors {
		cl := strings.ToLower(strings.TrimSpace(comp))
		if cl == "" || cl == brandLower {
			continue
		}
		if strings.Contains(lower, cl) {
			r.LeakedTo = append(r.LeakedTo, comp)
		}
	}
	r.MoatBreach = q.Type != QueryComparative && len(r.LeakedTo) > 0

	switch {
	case containsAny(lower, defensePositive):
		r.Sentiment = "Positive"
	case containsAny(lower, defenseNegative):
		r.Sentiment = "Negative"
	}
	for _, d := range defenseDescriptors {
		if strings.Contains(lower, d) {
			r.Descriptors = append(r.Descriptors, d)
		}
	}

	r.Snippet = truncate(body, defenseSnippetChars)
	for _, leak := range r.LeakedTo {
		if strings.Contains(strings.ToLower(r.Snippet), strings.ToLower(leak)) {
			continue
		}
		if ctx := leakContext(body, leak); ctx != "" {
			r.Snippet += fmt.Sprintf("\n\n**Context (%s):** \"...%s...\"", leak, ctx)
		}
	}
	return r
}

// leakContext returns the text around the first mention of name in body.
func leakContext(body, name string) string {
	idx := strings.Index(strings.ToLower(body), strings.ToLower(name))
	if idx < 0 || idx >= len(body) {
		return ""
	}
	start := max(0, idx-leakContextBefore)
	end := min(len(body), idx+leakContextAfter)
	// Keep the window on rune boundaries.
	for start > 0 && !isRuneStart(body[start]) {
		start--
	}
	for end < len(body) && !isRuneStart(body[end]) {
		end++
	}
	return strings.TrimSpace(strings.ReplaceAll(body[start:end], "\n", " "))
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// SummarizeDefense aggregates branded results into a report.
func SummarizeDefense(brand string, results []DefenseResult) *DefenseReport {
	report := &DefenseReport{
		Brand:                brand,
		LeakageCounts:        map[string]int{},
		Results:              results,
		NarrativeDescriptors: []string{},
	}
	var guarded, safe int
	for _, r := range results {
		if r.Status != StatusSuccess {
			continue
		}
		report.TotalQueries++
		for _, leak := range r.LeakedTo {
			report.LeakageCounts[leak]++
		}
		report.NarrativeDescriptors = append(report.NarrativeDescriptors, r.Descriptors...)
		if r.Type == QueryComparative {
			continue
		}
		guarded++
		if !r.MoatBreach {
			safe++
		}
	}
	if guarded > 0 {
		report.MoatScore = round1(float64(safe) / float64(guarded) * 100)
	}
	return report
}

// DefenseTactic is one move in a defense playbook.
type DefenseTactic struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// DefenseStrategy is the playbook for reclaiming branded answers.
type DefenseStrategy struct {
	Headline         string          `json:"headline_strategy"`
	ExecutiveSummary string          `json:"executive_summary"`
	Tactics          []DefenseTactic `json:"tactics"`
}

// GenerateDefenseStrategy writes a defense playbook from a simulation report
// on the Pro tier.
func GenerateDefenseStrategy(ctx context.Context, client llm.Client, brandName string, report *DefenseReport) (*DefenseStrategy, error) {
	if report == nil {
		return nil, fmt.Errorf("defense strategy needs a simulation report")
	}

	leakers := "None"
	if top := report.TopLeakers(defenseTopLeakers); len(top) > 0 {
		parts := make([]string, len(top))
		for i, name := range top {
			parts[i] = fmt.Sprintf("%s (%d)", name, report.LeakageCounts[name])
		}
		leakers = strings.Join(parts, ", ")
	}

	narrative := "Neutral/Generic"
	seen := newTally()
	for _, d := range report.NarrativeDescriptors {
		seen.add(d, 1)
	}
	if seen.len() > 0 {
		narrative = strings.Join(seen.keys[:min(seen.len(), defenseTopNarrative)], ", ")
	}

	prompt, err := prompts.Render(prompts.AEO, "defense-strategy", map[string]string{
		"Brand":     brandName,
		"MoatScore": fmt.Sprintf("%.1f", report.MoatScore),
		"Leakage":   leakers,
		"Narrative": narrative,
	})
	if err != nil {
		return nil, err
	}

	resp, err := client.GenerateJSON(ctx, prompt, llm.TierPro)
	if err != nil {
		return nil, fmt.Errorf("defense strategy generation failed: %w", err)
	}
	data, err := llm.ExtractJSON(resp)
	if err != nil {
		return nil, fmt.Errorf("defense strategy generation failed: %w", err)
	}
	if err := schemas.ValidateJSON(schemas.DefenseStrategy, data); err != nil {
		return nil, err
	}
	var s DefenseStrategy
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode defense strategy: %w", err)
	}
	return &s, nil
}
