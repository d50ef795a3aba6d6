package server

import (
	"encoding/json"
	"net/http"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/jonathan/brandos/internal/aeo"
	"github.com/jonathan/brandos/internal/web"
)

// handleDashboardIndex renders the brand list.
func (s *Server) handleDashboardIndex(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	brands, err := s.store.ListBrands(r.Context(), 200)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	templ.Handler(web.Layout("BrandOS", web.BrandList(brands))).ServeHTTP(w, r)
}

// handleDashboardBrand renders one brand's dashboard.
func (s *Server) handleDashboardBrand(w http.ResponseWriter, r *http.Request) {
	brand, ok := s.lookupBrand(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	data := web.DashboardData{Brand: *brand}

	var err error
	if data.Report, err = s.store.LatestAnalysis(ctx, brand.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	if data.Stats, err = s.store.BrandStats(ctx, brand.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	reports, err := s.store.ListAEOReports(ctx, brand.ID, 1)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(reports) > 0 {
		data.Query = reports[0].Query
		if err := json.Unmarshal(reports[0].Leaderboard, &data.Leaderboard); err != nil {
			s.logger.Warn("unreadable leaderboard", zap.String("report_id", reports[0].ID.String()), zap.Error(err))
			data.Leaderboard = []aeo.LeaderboardEntry{}
		}
	}

	templ.Handler(web.Layout(brand.Name+" | BrandOS", web.Dashboard(data))).ServeHTTP(w, r)
}
