package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/brandos/internal/aeo"
	"github.com/jonathan/brandos/internal/db"
	"github.com/jonathan/brandos/internal/pipeline"
	"github.com/jonathan/brandos/internal/types"
)

// handleRunAEO starts a visibility run for a saved brand in the background.
func (s *Server) handleRunAEO(w http.ResponseWriter, r *http.Request) {
	if len(s.deps.Engines) == 0 {
		s.fail(w, r, &ErrUnavailable{Feature: "answer engines"})
		return
	}
	brand, ok := s.lookupBrand(w, r)
	if !ok {
		return
	}
	var req types.AEORequest
	if err := decodeRequest(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	brandID := brand.ID
	opts := pipeline.AEOOptions{
		BrandID:   &brandID,
		BrandName: brand.Name,
		Keywords:  req.Keywords,
		Intents:   req.Intents,
		Region:    req.Region,
		Audience:  req.Audience,
		Runs:      req.Runs,
		Risk:      req.Risk,
	}
	s.startBackground(w, r, "aeo", func(ctx context.Context, onStart func(uuid.UUID)) error {
		opts.OnStart = onStart
		_, err := pipeline.RunAEO(ctx, s.deps, opts)
		return err
	})
}

// handleListAEO returns the brand's reports and the visibility trend for
// its most recent keyword set.
func (s *Server) handleListAEO(w http.ResponseWriter, r *http.Request) {
	brand, ok := s.lookupBrand(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	reports, err := s.store.ListAEOReports(ctx, brand.ID, queryLimit(r, 20, 100))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	query := r.URL.Query().Get("query")
	if query == "" {
		if query, err = s.store.LatestAEOQuery(ctx, brand.ID); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	history, err := s.store.AEOHistory(ctx, brand.ID, query, 10)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"brand_id": brand.ID,
		"reports":  reports,
		"query":    query,
		"history":  history,
	})
}

// maxDefenseRivals bounds the competitors borrowed from the leaderboard.
const maxDefenseRivals = 5

// handleDefense runs a brand defense simulation on one engine and, when
// asked, drafts a playbook from it. Without explicit competitors the rivals
// come from the brand's latest AEO leaderboard.
func (s *Server) handleDefense(w http.ResponseWriter, r *http.Request) {
	if len(s.deps.Engines) == 0 {
		s.fail(w, r, &ErrUnavailable{Feature: "answer engines"})
		return
	}
	brand, ok := s.lookupBrand(w, r)
	if !ok {
		return
	}
	var req types.DefenseRequest
	if err := decodeRequest(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	engine := s.engine(req.Engine)
	if engine == nil {
		s.fail(w, r, &ErrValidation{Field: "engine", Message: "unknown engine " + req.Engine})
		return
	}
	if req.Strategy && s.deps.Client == nil {
		s.fail(w, r, &ErrUnavailable{Feature: "LLM client"})
		return
	}

	competitors := req.Competitors
	if len(competitors) == 0 {
		var err error
		if competitors, err = s.leaderboardRivals(r.Context(), brand); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	checker := aeo.NewChecker(nil, s.logger, s.deps.CheckerOptions...)
	report, err := checker.RunBrandedSimulation(r.Context(), engine, aeo.DefenseRequest{
		Brand:       brand.Name,
		Keywords:    req.Keywords,
		Competitors: competitors,
		Region:      req.Region,
		Audience:    req.Audience,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := map[string]any{"brand_id": brand.ID, "report": report}
	if req.Strategy {
		strategy, err := aeo.GenerateDefenseStrategy(r.Context(), s.deps.Client, brand.Name, report)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp["strategy"] = strategy
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// leaderboardRivals lists the top names from the brand's latest AEO
// leaderboard, the brand itself excluded.
func (s *Server) leaderboardRivals(ctx context.Context, brand *db.Brand) ([]string, error) {
	reports, err := s.store.ListAEOReports(ctx, brand.ID, 1)
	if err != nil || len(reports) == 0 {
		return nil, err
	}
	var board []aeo.LeaderboardEntry
	if err := json.Unmarshal(reports[0].Leaderboard, &board); err != nil {
		s.logger.Warn("unreadable leaderboard", zap.String("report_id", reports[0].ID.String()), zap.Error(err))
		return nil, nil
	}
	var rivals []string
	for _, e := range board {
		if len(rivals) == maxDefenseRivals {
			break
		}
		if e.Name == "" || strings.EqualFold(e.Name, brand.Name) {
			continue
		}
		rivals = append(rivals, e.Name)
	}
	return rivals, nil
}
