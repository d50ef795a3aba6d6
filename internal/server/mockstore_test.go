package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/brandos/internal/db"
	"github.com/jonathan/brandos/internal/types"
)

// mockStore is an in-memory Store. It is safe for the background runs the
// server starts.
type mockStore struct {
	mu sync.Mutex

	pingErr       error
	runs          map[uuid.UUID]*db.Run
	steps         map[uuid.UUID][]db.RunStep
	artifacts     map[uuid.UUID]map[string][]byte
	brands        map[uuid.UUID]*db.Brand
	analyses      map[uuid.UUID]*types.BrandReport
	pages         map[uuid.UUID][]db.Page
	aeoReports    map[uuid.UUID][]db.AEOReport
	campaigns     map[uuid.UUID][]db.Campaign
	assets        map[uuid.UUID][]db.Asset
	optimizations []db.Optimization
}

func newMockStore() *mockStore {
	return &mockStore{
		runs:       map[uuid.UUID]*db.Run{},
		steps:      map[uuid.UUID][]db.RunStep{},
		artifacts:  map[uuid.UUID]map[string][]byte{},
		brands:     map[uuid.UUID]*db.Brand{},
		analyses:   map[uuid.UUID]*types.BrandReport{},
		pages:      map[uuid.UUID][]db.Page{},
		aeoReports: map[uuid.UUID][]db.AEOReport{},
		campaigns:  map[uuid.UUID][]db.Campaign{},
		assets:     map[uuid.UUID][]db.Asset{},
	}
}

// addBrand seeds a brand.
func (m *mockStore) addBrand(name string) *db.Brand {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := &db.Brand{ID: uuid.New(), Name: name, NameNormalized: db.NormalizeName(name), CreatedAt: time.Now()}
	m.brands[b.ID] = b
	return b
}

func (m *mockStore) runCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}

func (m *mockStore) Ping(context.Context) error { return m.pingErr }

func (m *mockStore) CreateRun(_ context.Context, kind, target string, brandID *uuid.UUID) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.runs[id] = &db.Run{ID: id, Kind: kind, Target: target, BrandID: brandID, Status: db.RunStatusRunning, CreatedAt: time.Now()}
	return id, nil
}

func (m *mockStore) SetRunBrand(_ context.Context, runID, brandID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.runs[runID]; ok {
		r.BrandID = &brandID
	}
	return nil
}

func (m *mockStore) CompleteRun(_ context.Context, runID uuid.UUID, runErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, db.ErrNotFound)
	}
	now := time.Now()
	r.CompletedAt = &now
	r.Status = db.RunStatusCompleted
	if runErr != nil {
		msg := runErr.Error()
		r.Status, r.Error = db.RunStatusFailed, &msg
	}
	return nil
}

func (m *mockStore) StartRunStep(_ context.Context, runID uuid.UUID, step, category string) error {
	return m.setStep(runID, step, category, db.StepStatusInProgress, "")
}

func (m *mockStore) FinishRunStep(_ context.Context, runID uuid.UUID, step, category, status, message string) error {
	return m.setStep(runID, step, category, status, message)
}

func (m *mockStore) setStep(runID uuid.UUID, step, category, status, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	steps := m.steps[runID]
	for i := range steps {
		if steps[i].Step == step {
			steps[i].Status = status
			if message != "" {
				steps[i].Message = &message
			}
			return nil
		}
	}
	rs := db.RunStep{ID: uuid.New(), RunID: runID, Step: step, Category: category, Status: status, CreatedAt: time.Now()}
	if message != "" {
		rs.Message = &message
	}
	m.steps[runID] = append(steps, rs)
	return nil
}

func (m *mockStore) SaveArtifact(_ context.Context, runID uuid.UUID, step, _ string, content any) error {
	raw, err := json.Marshal(content)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.artifacts[runID] == nil {
		m.artifacts[runID] = map[string][]byte{}
	}
	m.artifacts[runID][step] = raw
	return nil
}

func (m *mockStore) GetRun(_ context.Context, runID uuid.UUID) (*db.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[runID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *mockStore) ListRuns(_ context.Context, f db.RunFilters) ([]db.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []db.Run{}
	for _, r := range m.runs {
		if f.Kind != "" && r.Kind != f.Kind || f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.BrandID != uuid.Nil && (r.BrandID == nil || *r.BrandID != f.BrandID) {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockStore) ListRunSteps(_ context.Context, runID uuid.UUID) ([]db.RunStep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]db.RunStep{}, m.steps[runID]...), nil
}

func (m *mockStore) ListArtifacts(_ context.Context, runID uuid.UUID) ([]db.ArtifactSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []db.ArtifactSummary{}
	for step := range m.artifacts[runID] {
		out = append(out, db.ArtifactSummary{ID: uuid.New(), Step: step, HasJSON: true})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Step < out[j].Step })
	return out, nil
}

func (m *mockStore) GetArtifact(_ context.Context, runID uuid.UUID, step string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.artifacts[runID][step], nil
}

func (m *mockStore) FindOrCreateBrand(_ context.Context, name, homepageURL string) (*db.Brand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	norm := db.NormalizeName(name)
	for _, b := range m.brands {
		if b.NameNormalized == norm {
			return b, nil
		}
	}
	b := &db.Brand{ID: uuid.New(), Name: name, NameNormalized: norm, HomepageURL: &homepageURL, CreatedAt: time.Now()}
	m.brands[b.ID] = b
	return b, nil
}

func (m *mockStore) UpdateBrandLogo(_ context.Context, id uuid.UUID, logoURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.brands[id]; ok {
		b.LogoURL = &logoURL
	}
	return nil
}

func (m *mockStore) AssignPage(_ context.Context, pageURL string, brandID uuid.UUID, pageType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[brandID] = append(m.pages[brandID], db.Page{ID: uuid.New(), BrandID: &brandID, URL: pageURL, PageType: &pageType})
	return nil
}

func (m *mockStore) SaveAnalysis(_ context.Context, report *types.BrandReport, _ *uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *report
	cp.AnalysisID = uuid.New()
	m.analyses[report.BrandID] = &cp
	return nil
}

func (m *mockStore) LatestLeaderboard(_ context.Context, brandID uuid.UUID) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reports := m.aeoReports[brandID]
	if len(reports) == 0 {
		return nil, nil
	}
	return reports[0].Leaderboard, nil
}

func (m *mockStore) SaveAEOReport(_ context.Context, brandID uuid.UUID, in db.AEOReportInput) (*db.AEOReport, error) {
	vis, _ := json.Marshal(in.Visibility)
	lb, _ := json.Marshal(in.Leaderboard)
	st, _ := json.Marshal(in.Strategy)
	r := db.AEOReport{
		ID: uuid.New(), BrandID: brandID, Query: in.Query,
		Visibility: vis, Leaderboard: lb, Strategy: st,
		RankPosition: in.RankPosition, VisibilityScore: in.VisibilityScore, RiskScore: in.RiskScore,
		CreatedAt: time.Now(),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aeoReports[brandID] = append([]db.AEOReport{r}, m.aeoReports[brandID]...)
	return &r, nil
}

func (m *mockStore) GetBrand(_ context.Context, id uuid.UUID) (*db.Brand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.brands[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *mockStore) ListBrands(_ context.Context, limit int) ([]db.BrandSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []db.BrandSummary{}
	for _, b := range m.brands {
		out = append(out, db.BrandSummary{Brand: *b, PageCount: len(m.pages[b.ID])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockStore) RenameBrand(_ context.Context, id uuid.UUID, newName string) (*db.Brand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.brands[id]
	if !ok {
		return nil, fmt.Errorf("brand %s: %w", id, db.ErrNotFound)
	}
	norm := db.NormalizeName(newName)
	for _, other := range m.brands {
		if other.ID != id && other.NameNormalized == norm {
			return nil, fmt.Errorf("brand %q: %w", newName, db.ErrConflict)
		}
	}
	b.Name, b.NameNormalized = newName, norm
	cp := *b
	return &cp, nil
}

func (m *mockStore) DeleteBrand(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.brands[id]; !ok {
		return fmt.Errorf("brand %s: %w", id, db.ErrNotFound)
	}
	delete(m.brands, id)
	delete(m.analyses, id)
	return nil
}

func (m *mockStore) BrandStats(_ context.Context, id uuid.UUID) (*db.BrandStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &db.BrandStats{
		Pages:      len(m.pages[id]),
		AEOReports: len(m.aeoReports[id]),
		Assets:     len(m.assets[id]),
		Campaigns:  len(m.campaigns[id]),
	}
	if m.analyses[id] != nil {
		s.Analyses = 1
	}
	return s, nil
}

func (m *mockStore) LatestAnalysis(_ context.Context, brandID uuid.UUID) (*types.BrandReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.analyses[brandID], nil
}

func (m *mockStore) ListPages(_ context.Context, brandID uuid.UUID) ([]db.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]db.Page{}, m.pages[brandID]...), nil
}

func (m *mockStore) ListAEOReports(_ context.Context, brandID uuid.UUID, limit int) ([]db.AEOReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]db.AEOReport{}, m.aeoReports[brandID]...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockStore) LatestAEOQuery(_ context.Context, brandID uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if reports := m.aeoReports[brandID]; len(reports) > 0 {
		return reports[0].Query, nil
	}
	return "", nil
}

func (m *mockStore) AEOHistory(_ context.Context, brandID uuid.UUID, query string, _ int) ([]db.AEOHistoryPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []db.AEOHistoryPoint{}
	reports := m.aeoReports[brandID]
	for i := len(reports) - 1; i >= 0; i-- {
		r := reports[i]
		if r.VisibilityScore == nil || (query != "" && !strings.EqualFold(r.Query, query)) {
			continue
		}
		p := db.AEOHistoryPoint{ReportID: r.ID, Date: r.CreatedAt, VisibilityScore: *r.VisibilityScore}
		if r.RankPosition != nil {
			p.RankPosition = *r.RankPosition
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockStore) CreateCampaign(_ context.Context, brandID uuid.UUID, name, goal, theme string) (*db.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := db.Campaign{ID: uuid.New(), BrandID: brandID, Name: name, CreatedAt: time.Now()}
	if goal != "" {
		c.Goal = &goal
	}
	if theme != "" {
		c.Theme = &theme
	}
	m.campaigns[brandID] = append([]db.Campaign{c}, m.campaigns[brandID]...)
	return &c, nil
}

func (m *mockStore) ListCampaigns(_ context.Context, brandID uuid.UUID, _ int) ([]db.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]db.Campaign{}, m.campaigns[brandID]...), nil
}

func (m *mockStore) SaveAsset(_ context.Context, brandID uuid.UUID, in db.AssetInput) (*db.Asset, error) {
	if in.Content == "" {
		return nil, errors.New("asset content is empty")
	}
	meta, _ := json.Marshal(in.Metadata)
	a := db.Asset{ID: uuid.New(), BrandID: brandID, CampaignID: in.CampaignID, AssetType: in.AssetType, Content: in.Content, Metadata: meta, CreatedAt: time.Now()}
	if in.PersonaTarget != "" {
		a.PersonaTarget = &in.PersonaTarget
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[brandID] = append([]db.Asset{a}, m.assets[brandID]...)
	return &a, nil
}

func (m *mockStore) ListAssets(_ context.Context, brandID uuid.UUID, campaignID *uuid.UUID, _ int) ([]db.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []db.Asset{}
	for _, a := range m.assets[brandID] {
		if campaignID != nil && (a.CampaignID == nil || *a.CampaignID != *campaignID) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *mockStore) SaveOptimization(_ context.Context, brandID uuid.UUID, mode, original, optimized string) (*db.Optimization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := db.Optimization{ID: uuid.New(), BrandID: brandID, Mode: mode, Original: original, Optimized: optimized, CreatedAt: time.Now()}
	m.optimizations = append(m.optimizations, o)
	return &o, nil
}

var _ Store = (*mockStore)(nil)
