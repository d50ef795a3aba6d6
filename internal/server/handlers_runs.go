package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/brandos/internal/db"
	"github.com/jonathan/brandos/internal/pipeline/steps"
)

// runDetail is a run with its recorded steps and what can still happen.
type runDetail struct {
	*db.Run
	Steps     []db.RunStep `json:"steps"`
	Completed []string     `json:"completed_steps"`
	Available []string     `json:"available_steps"`
	Blocked   []string     `json:"blocked_steps"`
}

// handleListRuns lists runs, optionally filtered by ?brand_id=, ?kind= and ?status=.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	q := r.URL.Query()
	filters := db.RunFilters{
		Kind:   q.Get("kind"),
		Status: q.Get("status"),
		Limit:  queryLimit(r, 50, 500),
	}
	if raw := q.Get("brand_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.fail(w, r, &ErrValidation{Field: "brand_id", Message: "invalid UUID"})
			return
		}
		filters.BrandID = id
	}
	if filters.Kind != "" && steps.Steps(filters.Kind) == nil {
		s.fail(w, r, &ErrValidation{Field: "kind", Message: "unknown run kind " + filters.Kind})
		return
	}

	runs, err := s.store.ListRuns(r.Context(), filters)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// handleGetRun returns a run with its step statuses.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	recorded, err := s.store.ListRunSteps(r.Context(), run.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	status := steps.Statuses(recorded)
	detail := runDetail{
		Run:       run,
		Steps:     recorded,
		Completed: []string{},
		Available: steps.Available(run.Kind, status),
		Blocked:   steps.Blocked(run.Kind, status),
	}
	for _, def := range steps.Steps(run.Kind) {
		if status[def.Name] == db.StepStatusCompleted {
			detail.Completed = append(detail.Completed, def.Name)
		}
	}
	if detail.Available == nil {
		detail.Available = []string{}
	}
	if detail.Blocked == nil {
		detail.Blocked = []string{}
	}
	s.jsonResponse(w, http.StatusOK, detail)
}

// handleRunArtifacts lists a run's artifacts, or returns one with ?step=.
func (s *Server) handleRunArtifacts(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	if step := r.URL.Query().Get("step"); step != "" {
		content, err := s.store.GetArtifact(r.Context(), run.ID, step)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if content == nil {
			s.fail(w, r, &ErrNotFound{Resource: "artifact", ID: step})
			return
		}
		s.jsonResponse(w, http.StatusOK, map[string]any{
			"run_id":  run.ID,
			"step":    step,
			"content": json.RawMessage(content),
		})
		return
	}

	artifacts, err := s.store.ListArtifacts(r.Context(), run.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"run_id": run.ID, "artifacts": artifacts})
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*db.Run, bool) {
	if !s.requireStore(w, r) {
		return nil, false
	}
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	if run == nil {
		s.fail(w, r, &ErrNotFound{Resource: "run", ID: id.String()})
		return nil, false
	}
	return run, true
}
