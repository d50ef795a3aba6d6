package server

import (
	"net/http"

	"github.com/jonathan/brandos/internal/db"
	"github.com/jonathan/brandos/internal/playbook"
	"github.com/jonathan/brandos/internal/types"
)

func (s *Server) handleListBrands(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	brands, err := s.store.ListBrands(r.Context(), queryLimit(r, 100, 1000))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"brands": brands, "count": len(brands)})
}

func (s *Server) handleGetBrand(w http.ResponseWriter, r *http.Request) {
	brand, ok := s.lookupBrand(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, brand)
}

// handleRenameBrand renames a brand. Renaming onto an existing brand's name conflicts.
func (s *Server) handleRenameBrand(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req types.RenameBrandRequest
	if err := decodeRequest(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if db.NormalizeName(req.Name) == "" {
		s.fail(w, r, &ErrValidation{Field: "name", Message: "must contain letters or digits"})
		return
	}

	brand, err := s.store.RenameBrand(r.Context(), id, req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, brand)
}

// handleDeleteBrand deletes a brand and everything attached to it.
func (s *Server) handleDeleteBrand(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.DeleteBrand(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBrandStats(w http.ResponseWriter, r *http.Request) {
	brand, ok := s.lookupBrand(w, r)
	if !ok {
		return
	}
	stats, err := s.store.BrandStats(r.Context(), brand.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

// handleBrandAnalysis returns the brand's latest report.
func (s *Server) handleBrandAnalysis(w http.ResponseWriter, r *http.Request) {
	brand, ok := s.lookupBrand(w, r)
	if !ok {
		return
	}
	report, ok := s.latestReport(w, r, brand)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

// handleBrandPlaybook renders the latest report as a markdown playbook.
func (s *Server) handleBrandPlaybook(w http.ResponseWriter, r *http.Request) {
	brand, ok := s.lookupBrand(w, r)
	if !ok {
		return
	}
	report, ok := s.latestReport(w, r, brand)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(playbook.Generate(report))) //nolint:errcheck
}

func (s *Server) handleBrandPages(w http.ResponseWriter, r *http.Request) {
	brand, ok := s.lookupBrand(w, r)
	if !ok {
		return
	}
	pages, err := s.store.ListPages(r.Context(), brand.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"brand_id": brand.ID, "pages": pages, "count": len(pages)})
}

// lookupBrand resolves the {id} path value to a stored brand, writing the
// error response when it cannot.
func (s *Server) lookupBrand(w http.ResponseWriter, r *http.Request) (*db.Brand, bool) {
	if !s.requireStore(w, r) {
		return nil, false
	}
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	brand, err := s.store.GetBrand(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	if brand == nil {
		s.fail(w, r, &ErrNotFound{Resource: "brand", ID: id.String()})
		return nil, false
	}
	return brand, true
}

// latestReport loads the brand's newest analysis; a brand never analysed is a 404.
func (s *Server) latestReport(w http.ResponseWriter, r *http.Request, brand *db.Brand) (*types.BrandReport, bool) {
	report, err := s.store.LatestAnalysis(r.Context(), brand.ID)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	if report == nil {
		s.fail(w, r, &ErrNotFound{Resource: "analysis", ID: brand.ID.String()})
		return nil, false
	}
	return report, true
}
