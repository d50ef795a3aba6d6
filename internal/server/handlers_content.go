package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/brandos/internal/content"
	"github.com/jonathan/brandos/internal/db"
	"github.com/jonathan/brandos/internal/types"
)

// contentContext resolves the brand and its latest report for a content
// route. A brand without an analysis still gets generic copy.
func (s *Server) contentContext(w http.ResponseWriter, r *http.Request) (*db.Brand, *types.BrandReport, bool) {
	if s.deps.Client == nil {
		s.fail(w, r, &ErrUnavailable{Feature: "LLM client"})
		return nil, nil, false
	}
	brand, ok := s.lookupBrand(w, r)
	if !ok {
		return nil, nil, false
	}
	report, err := s.store.LatestAnalysis(r.Context(), brand.ID)
	if err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	return brand, report, true
}

// persona picks the report persona at index, or nil when out of range.
func persona(report *types.BrandReport, index int) *types.Persona {
	if report == nil || index < 0 || index >= len(report.Profile.Personas) {
		return nil
	}
	return &report.Profile.Personas[index]
}

// handleOptimize rewrites content in the brand's voice and records the rewrite.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	brand, report, ok := s.contentContext(w, r)
	if !ok {
		return
	}
	var req types.OptimizeRequest
	if err := decodeRequest(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	out, err := content.Optimize(r.Context(), s.deps.Client, req.Mode, report, req.Content)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	saved, err := s.store.SaveOptimization(r.Context(), brand.ID, req.Mode, req.Content, out)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, saved)
}

// handleHooks generates viral hooks for a topic.
func (s *Server) handleHooks(w http.ResponseWriter, r *http.Request) {
	_, report, ok := s.contentContext(w, r)
	if !ok {
		return
	}
	var req types.HooksRequest
	if err := decodeRequest(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	voice := ""
	if report != nil {
		voice = report.Profile.Analysis.BrandVoice
	}
	hooks, err := content.ViralHooks(r.Context(), s.deps.Client, req.Topic, persona(report, req.PersonaIndex), voice)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"topic": req.Topic, "hooks": hooks})
}

// handleCreateAsset writes a campaign asset and saves it.
func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	brand, report, ok := s.contentContext(w, r)
	if !ok {
		return
	}
	var req types.AssetRequest
	if err := decodeRequest(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	campaignName := ""
	if req.CampaignID != nil {
		c, err := s.findCampaign(r, brand.ID, *req.CampaignID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		campaignName = c.Name
	}

	p := persona(report, req.PersonaIndex)
	text, err := content.GenerateAsset(r.Context(), s.deps.Client, report, content.AssetInput{
		Campaign:    campaignName,
		AssetType:   req.AssetType,
		Theme:       req.Theme,
		FunnelStage: req.FunnelStage,
		Persona:     p,
		Keywords:    req.Keywords,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	in := db.AssetInput{
		CampaignID: req.CampaignID,
		AssetType:  req.AssetType,
		Content:    text,
		Metadata: map[string]any{
			"theme":        req.Theme,
			"funnel_stage": req.FunnelStage,
			"keywords":     req.Keywords,
		},
	}
	if p != nil {
		in.PersonaTarget = p.Role
	}
	asset, err := s.store.SaveAsset(r.Context(), brand.ID, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, asset)
}

// handleListAssets lists assets, optionally for one ?campaign_id=.
func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	brand, ok := s.lookupBrand(w, r)
	if !ok {
		return
	}
	var campaignID *uuid.UUID
	if raw := r.URL.Query().Get("campaign_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.fail(w, r, &ErrValidation{Field: "campaign_id", Message: "invalid UUID"})
			return
		}
		campaignID = &id
	}

	assets, err := s.store.ListAssets(r.Context(), brand.ID, campaignID, queryLimit(r, 50, 500))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"assets": assets, "count": len(assets)})
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	brand, ok := s.lookupBrand(w, r)
	if !ok {
		return
	}
	var req types.CampaignRequest
	if err := decodeRequest(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.store.CreateCampaign(r.Context(), brand.ID, req.Name, req.Goal, req.Theme)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, c)
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	brand, ok := s.lookupBrand(w, r)
	if !ok {
		return
	}
	campaigns, err := s.store.ListCampaigns(r.Context(), brand.ID, queryLimit(r, 50, 500))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"campaigns": campaigns, "count": len(campaigns)})
}

// findCampaign looks a campaign up among the brand's own.
func (s *Server) findCampaign(r *http.Request, brandID, campaignID uuid.UUID) (*db.Campaign, error) {
	campaigns, err := s.store.ListCampaigns(r.Context(), brandID, 1000)
	if err != nil {
		return nil, err
	}
	for i := range campaigns {
		if campaigns[i].ID == campaignID {
			return &campaigns[i], nil
		}
	}
	return nil, &ErrNotFound{Resource: "campaign", ID: campaignID.String()}
}
