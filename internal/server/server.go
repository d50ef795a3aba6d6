package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/brandos/internal/config"
	"github.com/jonathan/brandos/internal/db"
	"github.com/jonathan/brandos/internal/pipeline"
	"github.com/jonathan/brandos/internal/server/middleware"
	"github.com/jonathan/brandos/internal/server/ratelimit"
	"github.com/jonathan/brandos/internal/types"
)

// Store is the persistence the API reads and writes. *db.DB implements it.
type Store interface {
	pipeline.Store
	Ping(ctx context.Context) error

	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	ListRuns(ctx context.Context, filters db.RunFilters) ([]db.Run, error)
	ListRunSteps(ctx context.Context, runID uuid.UUID) ([]db.RunStep, error)
	ListArtifacts(ctx context.Context, runID uuid.UUID) ([]db.ArtifactSummary, error)
	GetArtifact(ctx context.Context, runID uuid.UUID, step string) ([]byte, error)

	GetBrand(ctx context.Context, id uuid.UUID) (*db.Brand, error)
	ListBrands(ctx context.Context, limit int) ([]db.BrandSummary, error)
	RenameBrand(ctx context.Context, id uuid.UUID, newName string) (*db.Brand, error)
	DeleteBrand(ctx context.Context, id uuid.UUID) error
	BrandStats(ctx context.Context, id uuid.UUID) (*db.BrandStats, error)
	LatestAnalysis(ctx context.Context, brandID uuid.UUID) (*types.BrandReport, error)
	ListPages(ctx context.Context, brandID uuid.UUID) ([]db.Page, error)

	ListAEOReports(ctx context.Context, brandID uuid.UUID, limit int) ([]db.AEOReport, error)
	LatestAEOQuery(ctx context.Context, brandID uuid.UUID) (string, error)
	AEOHistory(ctx context.Context, brandID uuid.UUID, query string, limit int) ([]db.AEOHistoryPoint, error)

	CreateCampaign(ctx context.Context, brandID uuid.UUID, name, goal, theme string) (*db.Campaign, error)
	ListCampaigns(ctx context.Context, brandID uuid.UUID, limit int) ([]db.Campaign, error)
	SaveAsset(ctx context.Context, brandID uuid.UUID, in db.AssetInput) (*db.Asset, error)
	ListAssets(ctx context.Context, brandID uuid.UUID, campaignID *uuid.UUID, limit int) ([]db.Asset, error)
	SaveOptimization(ctx context.Context, brandID uuid.UUID, mode, original, optimized string) (*db.Optimization, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	store       Store
	deps        *pipeline.Deps
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	logger      *zap.Logger

	// Background runs outlive their request but not the server.
	runCtx    context.Context
	cancelRun context.CancelFunc
	runs      sync.WaitGroup
}

// Config holds server configuration
type Config struct {
	Port int
	// Store may be nil; persistence-backed routes then answer 503.
	Store Store
	Deps  *pipeline.Deps
	// JWT enables bearer auth on mutating routes when set.
	JWT       *config.JWTConfig
	RateLimit *ratelimit.Config
	Logger    *zap.Logger
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Deps == nil {
		return nil, errors.New("pipeline dependencies are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		store:       cfg.Store,
		deps:        cfg.Deps,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		logger:      logger,
	}
	if cfg.Store != nil && s.deps.Store == nil {
		s.deps.Store = cfg.Store
	}
	if s.deps.Logger == nil {
		s.deps.Logger = logger
	}
	if cfg.JWT != nil {
		s.jwtService = NewJWTService(cfg.JWT)
	}
	s.runCtx, s.cancelRun = context.WithCancel(context.Background())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // streamed analyses
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler wrapped in the middleware chain:
// rate limit, logging, CORS, then auth for writes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Pipelines
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /analyze/stream", s.handleAnalyzeStream)
	mux.HandleFunc("POST /audit", s.handleAudit)

	// Runs
	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /runs/{id}/artifacts", s.handleRunArtifacts)

	// Brands
	mux.HandleFunc("GET /brands", s.handleListBrands)
	mux.HandleFunc("GET /brands/{id}", s.handleGetBrand)
	mux.HandleFunc("PATCH /brands/{id}", s.handleRenameBrand)
	mux.HandleFunc("DELETE /brands/{id}", s.handleDeleteBrand)
	mux.HandleFunc("GET /brands/{id}/stats", s.handleBrandStats)
	mux.HandleFunc("GET /brands/{id}/analysis", s.handleBrandAnalysis)
	mux.HandleFunc("GET /brands/{id}/playbook", s.handleBrandPlaybook)
	mux.HandleFunc("GET /brands/{id}/pages", s.handleBrandPages)

	// AEO
	mux.HandleFunc("POST /brands/{id}/aeo", s.handleRunAEO)
	mux.HandleFunc("GET /brands/{id}/aeo", s.handleListAEO)
	mux.HandleFunc("POST /brands/{id}/aeo/keywords", s.handleSuggestKeywords)
	mux.HandleFunc("POST /brands/{id}/aeo/page-index", s.handlePageIndex)
	mux.HandleFunc("POST /brands/{id}/aeo/defense", s.handleDefense)

	// Content studio
	mux.HandleFunc("POST /brands/{id}/content/optimize", s.handleOptimize)
	mux.HandleFunc("POST /brands/{id}/content/hooks", s.handleHooks)
	mux.HandleFunc("POST /brands/{id}/content/score", s.handleScoreContent)
	mux.HandleFunc("POST /brands/{id}/content/keyword-gap", s.handleKeywordGap)
	mux.HandleFunc("POST /brands/{id}/assets", s.handleCreateAsset)
	mux.HandleFunc("GET /brands/{id}/assets", s.handleListAssets)
	mux.HandleFunc("POST /brands/{id}/campaigns", s.handleCreateCampaign)
	mux.HandleFunc("GET /brands/{id}/campaigns", s.handleListCampaigns)

	// Dashboard
	mux.HandleFunc("GET /{$}", s.handleDashboardIndex)
	mux.HandleFunc("GET /dashboard/brands/{id}", s.handleDashboardBrand)

	var h http.Handler = mux
	if s.jwtService != nil {
		h = middleware.RequireAuthForWrites(s.jwtService.AsTokenValidator())(h)
	}
	return s.withRateLimit(s.withLogging(s.withCORS(h)))
}

// Start serves until ctx is cancelled, then shuts down gracefully and waits
// for background runs to stop.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.Close()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Close cancels background runs, waits for them and stops the rate limiter.
func (s *Server) Close() {
	s.cancelRun()
	s.runs.Wait()
	s.rateLimiter.Stop()
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientIP(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", clientIP(r)),
		)
	})
}

// handleHealth reports liveness and, when configured, database reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok", "database": "disabled"}
	if s.store != nil {
		resp["database"] = "ok"
		if err := s.store.Ping(r.Context()); err != nil {
			resp["status"] = "degraded"
			resp["database"] = err.Error()
			s.jsonResponse(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// fail maps err to a status and writes it; server errors are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	s.errorResponse(w, status, err.Error())
}

// requireStore answers 503 when no database is configured.
func (s *Server) requireStore(w http.ResponseWriter, r *http.Request) bool {
	if s.store == nil {
		s.fail(w, r, &ErrUnavailable{Feature: "database"})
		return false
	}
	return true
}

// decodeRequest decodes a JSON body into v and runs its Validate method.
func decodeRequest(r *http.Request, v interface{ Validate() error }) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return v.Validate()
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "invalid UUID"}
	}
	return id, nil
}

// queryLimit reads ?limit=, bounded to [1, max], defaulting to def.
func queryLimit(r *http.Request, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 {
		return def
	}
	return min(n, max)
}

// clientIP uses the address from RemoteAddr; forwarded headers are not trusted.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	s.logger.Warn("rate limit exceeded",
		zap.String("client", clientIP(r)),
		zap.String("path", r.URL.Path),
		zap.Int("limit", info.Limit))
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
