package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/brandos/internal/aeo"
	"github.com/jonathan/brandos/internal/db"
	"github.com/jonathan/brandos/internal/pipeline/steps"
)

// AEOOptions configures one visibility run.
type AEOOptions struct {
	// BrandID links the run and report to a saved brand. Without it nothing is persisted.
	BrandID      *uuid.UUID
	BrandName    string
	Keywords     []string
	Intents      []string
	Region       string
	Audience     string
	Runs         int
	Risk         bool
	SkipStrategy bool
	OnProgress   ProgressCallback
	OnStart      func(runID uuid.UUID)
}

// AEOResult is the outcome of RunAEO.
type AEOResult struct {
	RunID       uuid.UUID              `json:"run_id"`
	ReportID    *uuid.UUID             `json:"report_id,omitempty"`
	Visibility  *aeo.VisibilityReport  `json:"visibility"`
	Competitive *aeo.CompetitiveReport `json:"competitive"`
	Strategy    *aeo.Strategy          `json:"strategy,omitempty"`
	// RankPosition is the brand's 1-based leaderboard position, 0 when unranked.
	RankPosition int `json:"rank_position"`
}

// RunAEO checks the brand's visibility across the configured engines, builds
// the leaderboard (with rank changes against the last saved one), writes a
// strategy and saves the report.
func RunAEO(ctx context.Context, d *Deps, opts AEOOptions) (result *AEOResult, err error) {
	if strings.TrimSpace(opts.BrandName) == "" {
		return nil, errors.New("brand name is required")
	}
	if len(opts.Keywords) == 0 {
		return nil, errors.New("at least one keyword is required")
	}
	logger := d.logger().With(zap.String("brand", opts.BrandName))
	t := newTracker(steps.KindAEO, d.Store, opts.OnProgress, logger)
	query := strings.Join(opts.Keywords, ", ")

	var runID uuid.UUID
	if d.Store != nil {
		if runID, err = d.Store.CreateRun(ctx, db.RunKindAEO, query, opts.BrandID); err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
		t.setRun(runID)
		defer func() { finishRun(ctx, d, runID, err) }()
	}
	if opts.OnStart != nil {
		opts.OnStart(runID)
	}
	result = &AEOResult{RunID: runID}

	t.start(ctx, db.StepVisibility, fmt.Sprintf("Querying %d engines", len(d.Engines)))
	checker := aeo.NewChecker(d.Engines, logger, d.CheckerOptions...)
	report, err := checker.CheckVisibility(ctx, aeo.VisibilityRequest{
		Brand:    opts.BrandName,
		Keywords: opts.Keywords,
		Intents:  opts.Intents,
		Audience: opts.Audience,
		Region:   opts.Region,
		Runs:     opts.Runs,
		Risk:     opts.Risk,
	})
	if err != nil {
		t.fail(ctx, db.StepVisibility, err)
		return result, err
	}
	result.Visibility = report
	t.done(ctx, db.StepVisibility, fmt.Sprintf("Collected answers from %d engines", len(report.Engines)), nil)
	saveArtifact(ctx, d, runID, db.StepVisibility, db.StepCategoryAEO, report)

	t.start(ctx, db.StepLeaderboard, "Ranking brands")
	previous := previousLeaderboard(ctx, d, opts.BrandID)
	competitive := aeo.AnalyzeCompetitors(report, opts.BrandName, previous)
	result.Competitive = competitive
	msg := fmt.Sprintf("%d brands across %d answers", len(competitive.Leaderboard), competitive.TotalQueries)
	entry, pos, ranked := competitive.BrandEntry(opts.BrandName)
	if ranked {
		result.RankPosition = pos
		msg = fmt.Sprintf("%s ranks #%d of %d", opts.BrandName, pos, len(competitive.Leaderboard))
	}
	t.done(ctx, db.StepLeaderboard, msg, competitive.Leaderboard)
	saveArtifact(ctx, d, runID, db.StepLeaderboard, db.StepCategoryAEO, competitive)

	switch {
	case opts.SkipStrategy:
		t.skip(ctx, db.StepStrategy, "strategy not requested")
	case d.Client == nil:
		t.skip(ctx, db.StepStrategy, "no model configured")
	case len(competitive.Leaderboard) == 0:
		t.skip(ctx, db.StepStrategy, "no brands were mentioned")
	default:
		t.start(ctx, db.StepStrategy, "Writing AEO strategy")
		strategy, serr := aeo.GenerateStrategy(ctx, d.Client, competitive.Leaderboard, competitive.OpportunityURLs, opts.BrandName, opts.Intents)
		if serr != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			t.fail(ctx, db.StepStrategy, serr)
			break
		}
		result.Strategy = strategy
		t.done(ctx, db.StepStrategy, strategy.Headline, strategy)
		saveArtifact(ctx, d, runID, db.StepStrategy, db.StepCategoryReasoning, strategy)
	}

	if d.Store == nil || opts.BrandID == nil {
		t.skip(ctx, db.StepPersist, "no saved brand")
		return result, nil
	}
	if !t.ready(ctx, db.StepPersist) {
		return result, nil
	}
	t.start(ctx, db.StepPersist, "Saving AEO report")
	in := db.AEOReportInput{
		Query:       query,
		Visibility:  report,
		Leaderboard: competitive.Leaderboard,
	}
	if result.Strategy != nil {
		in.Strategy = result.Strategy
	}
	if ranked {
		sov, risk := entry.ShareOfVoice, entry.RiskScore
		in.RankPosition = &pos
		in.VisibilityScore = &sov
		in.RiskScore = &risk
	}
	saved, err := d.Store.SaveAEOReport(ctx, *opts.BrandID, in)
	if err != nil {
		t.fail(ctx, db.StepPersist, err)
		return result, err
	}
	result.ReportID = &saved.ID
	t.done(ctx, db.StepPersist, "Saved AEO report", map[string]string{"report_id": saved.ID.String()})
	return result, nil
}

// previousLeaderboard loads the brand's last saved leaderboard for rank
// change tracking. Any failure just disables the comparison.
func previousLeaderboard(ctx context.Context, d *Deps, brandID *uuid.UUID) []aeo.LeaderboardEntry {
	if d.Store == nil || brandID == nil {
		return nil
	}
	raw, err := d.Store.LatestLeaderboard(ctx, *brandID)
	if err != nil {
		d.logger().Warn("failed to load previous leaderboard", zap.Error(err))
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	var prev []aeo.LeaderboardEntry
	if err := json.Unmarshal(raw, &prev); err != nil {
		d.logger().Warn("failed to decode previous leaderboard", zap.Error(err))
		return nil
	}
	return prev
}
