package server

import (
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/brandos/internal/aeo"
	"github.com/jonathan/brandos/internal/content"
	"github.com/jonathan/brandos/internal/pipeline"
	"github.com/jonathan/brandos/internal/types"
)

// maxKeywordSource bounds the site text gathered for keyword suggestions.
const maxKeywordSource = 10000

// handleScoreContent rates copy for entity coverage and trust signals.
func (s *Server) handleScoreContent(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.contentContext(w, r); !ok {
		return
	}
	var req types.ScoreRequest
	if err := decodeRequest(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	var (
		entities *content.EntityReport
		trust    *content.TrustReport
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		entities, err = content.EntityDensity(ctx, s.deps.Client, req.Content, req.Keywords)
		return err
	})
	g.Go(func() (err error) {
		trust, err = content.TrustSignals(ctx, s.deps.Client, req.Content)
		return err
	})
	if err := g.Wait(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"entities": entities, "trust": trust})
}

// handleKeywordGap lists the keywords a competitor's copy uses that ours
// underuses, with quick wins ranked separately.
func (s *Server) handleKeywordGap(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.contentContext(w, r); !ok {
		return
	}
	var req types.KeywordGapRequest
	if err := decodeRequest(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	report, err := content.KeywordGap(r.Context(), s.deps.Client, req.Content, req.CompetitorContent)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"report":     report,
		"quick_wins": content.PrioritizeKeywords(report.Keywords),
	})
}

// handleSuggestKeywords proposes AEO keywords from the brand's saved pages
// and latest analysis.
func (s *Server) handleSuggestKeywords(w http.ResponseWriter, r *http.Request) {
	brand, report, ok := s.contentContext(w, r)
	if !ok {
		return
	}
	pages, err := s.store.ListPages(r.Context(), brand.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var sb strings.Builder
	for _, p := range pages {
		if sb.Len() >= maxKeywordSource {
			break
		}
		sb.WriteString(p.Title)
		sb.WriteString("\n")
		sb.WriteString(p.Text)
		sb.WriteString("\n\n")
	}
	var analysis *types.Analysis
	var personas []types.Persona
	if report != nil {
		analysis = &report.Profile.Analysis
		personas = report.Profile.Personas
	}

	keywords, err := aeo.SuggestKeywords(r.Context(), s.deps.Client, sb.String(), analysis, personas)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"brand_id": brand.ID, "keywords": keywords})
}

// handlePageIndex asks one answer engine the native question for a brand
// page and scores whether the answer cites it.
func (s *Server) handlePageIndex(w http.ResponseWriter, r *http.Request) {
	brand, ok := s.lookupBrand(w, r)
	if !ok {
		return
	}
	var req types.PageIndexRequest
	if err := decodeRequest(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	engine := s.engine(req.Engine)
	if engine == nil {
		s.fail(w, r, &ErrValidation{Field: "engine", Message: "unknown engine " + req.Engine})
		return
	}
	pageType := req.PageType
	if pageType == "" {
		home := ""
		if brand.HomepageURL != nil {
			home = *brand.HomepageURL
		}
		pageType = pipeline.PageType(req.URL, home)
	}

	eval, err := aeo.EvaluatePageIndex(r.Context(), engine, brand.Name, req.URL, pageType)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, eval)
}

// engine finds a configured engine by name, Gemini when name is empty.
func (s *Server) engine(name string) aeo.Engine {
	if name == "" {
		name = aeo.EngineGemini
	}
	for _, e := range s.deps.Engines {
		if strings.EqualFold(e.Name(), name) {
			return e
		}
	}
	return nil
}
