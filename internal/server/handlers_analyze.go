package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/brandos/internal/fetch"
	"github.com/jonathan/brandos/internal/pipeline"
	"github.com/jonathan/brandos/internal/types"
)

// runFunc starts a pipeline; onStart must be passed through as the run's OnStart hook.
type runFunc func(ctx context.Context, onStart func(uuid.UUID)) error

// startBackground runs fn detached from the request and answers 202 with the
// run ID once the run is recorded. Errors before that point are returned to
// the client.
func (s *Server) startBackground(w http.ResponseWriter, r *http.Request, kind string, fn runFunc) {
	started := make(chan uuid.UUID, 1)
	errc := make(chan error, 1)

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		err := fn(s.runCtx, func(id uuid.UUID) { started <- id })
		if err != nil {
			s.logger.Warn("background run failed", zap.String("kind", kind), zap.Error(err))
			errc <- err
		}
	}()

	select {
	case id := <-started:
		s.jsonResponse(w, http.StatusAccepted, map[string]string{
			"run_id": id.String(),
			"status": "running",
		})
	case err := <-errc:
		s.fail(w, r, err)
	case <-r.Context().Done():
	}
}

func analysisOptions(req *types.AnalyzeRequest) pipeline.AnalysisOptions {
	return pipeline.AnalysisOptions{
		URL:           req.URL,
		ExtraURLs:     req.ExtraURLs,
		CompetitorURL: req.CompetitorURL,
		MaxPages:      req.MaxPages,
		Discover:      req.Discover,
		Screenshot:    req.Screenshot,
	}
}

func decodeAnalyzeRequest(r *http.Request) (*types.AnalyzeRequest, error) {
	var req types.AnalyzeRequest
	if err := decodeRequest(r, &req); err != nil {
		return nil, err
	}
	if _, err := fetch.NormalizeURL(req.URL); err != nil {
		return nil, &ErrValidation{Field: "url", Message: err.Error()}
	}
	return &req, nil
}

// handleAnalyze starts an analysis run in the background. Poll GET /runs/{id}.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	req, err := decodeAnalyzeRequest(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	opts := analysisOptions(req)
	s.startBackground(w, r, "analysis", func(ctx context.Context, onStart func(uuid.UUID)) error {
		opts.OnStart = onStart
		_, err := pipeline.RunAnalysis(ctx, s.deps, opts)
		return err
	})
}

// handleAnalyzeStream runs an analysis and streams progress as SSE.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAnalyzeRequest(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := analysisOptions(req)
	opts.OnProgress = func(ev pipeline.ProgressEvent) {
		if err := sse.WriteEvent("progress", ev); err != nil {
			s.logger.Debug("failed to write SSE event", zap.Error(err))
		}
	}

	result, err := pipeline.RunAnalysis(r.Context(), s.deps, opts)
	runID := ""
	if result != nil && result.RunID != uuid.Nil {
		runID = result.RunID.String()
	}
	if err != nil {
		sse.WriteError(runID, err.Error())
		return
	}
	sse.WriteComplete(runID, result)
}

// handleAudit runs the AI-readiness audit on one page.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.deps.Auditor == nil {
		s.fail(w, r, &ErrUnavailable{Feature: "auditor"})
		return
	}
	var req types.AuditRequest
	if err := decodeRequest(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	target, err := fetch.NormalizeURL(req.URL)
	if err != nil {
		s.fail(w, r, &ErrValidation{Field: "url", Message: err.Error()})
		return
	}

	page, err := s.deps.Fetcher.Fetch(r.Context(), target)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.deps.Auditor.Audit(r.Context(), target, page.HTML))
}
