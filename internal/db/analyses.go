package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/brandos/internal/types"
)

// -----------------------------------------------------------------------------
// Analysis Methods
// -----------------------------------------------------------------------------

// SaveAnalysis stores a brand report (profile, design tokens, imagery,
// knowledge graph, health, audit) and sets its AnalysisID and CreatedAt.
func (db *DB) SaveAnalysis(ctx context.Context, report *types.BrandReport, runID *uuid.UUID) error {
	if report.BrandID == uuid.Nil {
		return fmt.Errorf("analysis has no brand")
	}
	jsonBytes, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	err = db.pool.QueryRow(ctx,
		`INSERT INTO brand_analyses (brand_id, run_id, url, report)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		report.BrandID, runID, report.URL, jsonBytes,
	).Scan(&report.AnalysisID, &report.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	_, err = db.pool.Exec(ctx, `UPDATE brands SET updated_at = NOW() WHERE id = $1`, report.BrandID)
	if err != nil {
		return fmt.Errorf("failed to touch brand: %w", err)
	}
	return nil
}

// LatestAnalysis returns the brand's most recent report, or nil when it has none.
func (db *DB) LatestAnalysis(ctx context.Context, brandID uuid.UUID) (*types.BrandReport, error) {
	var id uuid.UUID
	var raw []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, report FROM brand_analyses
		 WHERE brand_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		brandID,
	).Scan(&id, &raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest analysis: %w", err)
	}

	var report types.BrandReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}
	report.AnalysisID = id
	report.BrandID = brandID
	return &report, nil
}

// ListAnalyses returns a brand's analyses, newest first.
func (db *DB) ListAnalyses(ctx context.Context, brandID uuid.UUID, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, brand_id, run_id, url, report, created_at
		 FROM brand_analyses WHERE brand_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		brandID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	records := []AnalysisRecord{}
	for rows.Next() {
		var r AnalysisRecord
		if err := rows.Scan(&r.ID, &r.BrandID, &r.RunID, &r.URL, &r.Report, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
