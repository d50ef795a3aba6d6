// Package pipeline orchestrates brand analysis (input, Flash extraction, Pro
// reasoning, persistence) and AEO visibility runs.
package pipeline

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/brandos/internal/aeo"
	"github.com/jonathan/brandos/internal/audit"
	"github.com/jonathan/brandos/internal/db"
	"github.com/jonathan/brandos/internal/fetch"
	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/types"
)

// Store is the persistence the pipelines need. *db.DB implements it.
type Store interface {
	CreateRun(ctx context.Context, kind, target string, brandID *uuid.UUID) (uuid.UUID, error)
	SetRunBrand(ctx context.Context, runID, brandID uuid.UUID) error
	CompleteRun(ctx context.Context, runID uuid.UUID, runErr error) error
	StartRunStep(ctx context.Context, runID uuid.UUID, step, category string) error
	FinishRunStep(ctx context.Context, runID uuid.UUID, step, category, status, message string) error
	SaveArtifact(ctx context.Context, runID uuid.UUID, step, category string, content any) error

	FindOrCreateBrand(ctx context.Context, name, homepageURL string) (*db.Brand, error)
	UpdateBrandLogo(ctx context.Context, id uuid.UUID, logoURL string) error
	AssignPage(ctx context.Context, pageURL string, brandID uuid.UUID, pageType string) error
	SaveAnalysis(ctx context.Context, report *types.BrandReport, runID *uuid.UUID) error
	LatestAnalysis(ctx context.Context, brandID uuid.UUID) (*types.BrandReport, error)

	LatestLeaderboard(ctx context.Context, brandID uuid.UUID) (json.RawMessage, error)
	SaveAEOReport(ctx context.Context, brandID uuid.UUID, in db.AEOReportInput) (*db.AEOReport, error)
}

// Fetcher retrieves pages through the page cache. *fetch.CachedFetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.CachedResult, error)
	FetchMultiple(ctx context.Context, urls []string) ([]*fetch.CachedResult, []error)
}

// Screenshotter captures a page as a JPEG. *fetch.Browser implements it.
type Screenshotter interface {
	Screenshot(ctx context.Context, url string) ([]byte, error)
}

// Deps are the collaborators shared by both pipelines. Store and
// Screenshotter are optional.
type Deps struct {
	Client        llm.Client
	Fetcher       Fetcher
	Auditor       *audit.Auditor
	Screenshotter Screenshotter
	Engines       []aeo.Engine
	Store         Store
	Logger        *zap.Logger
	// CheckerOptions tune the AEO worker pool.
	CheckerOptions []aeo.CheckerOption
}

func (d *Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// saveArtifact stores an artifact when a store is configured; failures are logged only.
func saveArtifact(ctx context.Context, d *Deps, runID uuid.UUID, step, category string, content any) {
	if d.Store == nil || runID == uuid.Nil || content == nil {
		return
	}
	if err := d.Store.SaveArtifact(ctx, runID, step, category, content); err != nil {
		d.logger().Warn("failed to save artifact", zap.String("step", step), zap.Error(err))
	}
}

// finishRun closes the run record with the pipeline's outcome.
func finishRun(ctx context.Context, d *Deps, runID uuid.UUID, runErr error) {
	if d.Store == nil || runID == uuid.Nil {
		return
	}
	// The caller's context may already be cancelled; the outcome is still recorded.
	if err := d.Store.CompleteRun(context.WithoutCancel(ctx), runID, runErr); err != nil {
		d.logger().Warn("failed to complete run", zap.String("run_id", runID.String()), zap.Error(err))
	}
}
