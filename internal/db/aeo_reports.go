package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// AEO Report Methods
// -----------------------------------------------------------------------------

const aeoColumns = `id, brand_id, query, visibility, leaderboard, strategy,
	rank_position, visibility_score, risk_score, created_at`

func scanAEOReport(row pgx.Row) (*AEOReport, error) {
	var r AEOReport
	err := row.Scan(&r.ID, &r.BrandID, &r.Query, &r.Visibility, &r.Leaderboard, &r.Strategy,
		&r.RankPosition, &r.VisibilityScore, &r.RiskScore, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func marshalOptional(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// SaveAEOReport stores the visibility results, leaderboard and strategy of one AEO run.
func (db *DB) SaveAEOReport(ctx context.Context, brandID uuid.UUID, in AEOReportInput) (*AEOReport, error) {
	visibility, err := json.Marshal(in.Visibility)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal visibility: %w", err)
	}
	leaderboard, err := json.Marshal(in.Leaderboard)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal leaderboard: %w", err)
	}
	strategy, err := marshalOptional(in.Strategy)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal strategy: %w", err)
	}

	r, err := scanAEOReport(db.pool.QueryRow(ctx,
		`INSERT INTO aeo_reports (brand_id, query, visibility, leaderboard, strategy,
		                          rank_position, visibility_score, risk_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+aeoColumns,
		brandID, in.Query, visibility, leaderboard, strategy,
		in.RankPosition, in.VisibilityScore, in.RiskScore,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to save AEO report: %w", err)
	}
	return r, nil
}

// GetAEOReport retrieves one report by ID
func (db *DB) GetAEOReport(ctx context.Context, id uuid.UUID) (*AEOReport, error) {
	r, err := scanAEOReport(db.pool.QueryRow(ctx,
		`SELECT `+aeoColumns+` FROM aeo_reports WHERE id = $1`, id,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get AEO report: %w", err)
	}
	return r, nil
}

// ListAEOReports returns a brand's reports, newest first.
func (db *DB) ListAEOReports(ctx context.Context, brandID uuid.UUID, limit int) ([]AEOReport, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+aeoColumns+` FROM aeo_reports
		 WHERE brand_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		brandID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list AEO reports: %w", err)
	}
	defer rows.Close()

	reports := []AEOReport{}
	for rows.Next() {
		r, err := scanAEOReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan AEO report: %w", err)
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// LatestLeaderboard returns the leaderboard JSON of the brand's newest report,
// or nil when the brand has none.
func (db *DB) LatestLeaderboard(ctx context.Context, brandID uuid.UUID) (json.RawMessage, error) {
	var raw json.RawMessage
	err := db.pool.QueryRow(ctx,
		`SELECT leaderboard FROM aeo_reports
		 WHERE brand_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		brandID,
	).Scan(&raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest leaderboard: %w", err)
	}
	return raw, nil
}

// LatestAEOQuery returns the query string of the brand's newest report.
func (db *DB) LatestAEOQuery(ctx context.Context, brandID uuid.UUID) (string, error) {
	var query string
	err := db.pool.QueryRow(ctx,
		`SELECT query FROM aeo_reports WHERE brand_id = $1 ORDER BY created_at DESC LIMIT 1`,
		brandID,
	).Scan(&query)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get latest AEO query: %w", err)
	}
	return query, nil
}

// AEOHistory returns the last limit scored reports for a brand, oldest first.
// A non-empty query keeps only reports run with the same keywords, compared
// case-insensitively, so trends stay comparable.
func (db *DB) AEOHistory(ctx context.Context, brandID uuid.UUID, query string, limit int) ([]AEOHistoryPoint, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, created_at, visibility_score, COALESCE(rank_position, 0), COALESCE(risk_score, 0)
		 FROM (
		     SELECT * FROM aeo_reports
		     WHERE brand_id = $1
		       AND visibility_score IS NOT NULL
		       AND ($2 = '' OR LOWER(TRIM(query)) = $2)
		     ORDER BY created_at DESC
		     LIMIT $3
		 ) recent
		 ORDER BY created_at ASC`,
		brandID, strings.ToLower(strings.TrimSpace(query)), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get AEO history: %w", err)
	}
	defer rows.Close()

	points := []AEOHistoryPoint{}
	for rows.Next() {
		var p AEOHistoryPoint
		if err := rows.Scan(&p.ReportID, &p.Date, &p.VisibilityScore, &p.RankPosition, &p.RiskScore); err != nil {
			return nil, fmt.Errorf("failed to scan AEO history: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// DeleteAEOReport deletes one report.
func (db *DB) DeleteAEOReport(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM aeo_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete AEO report: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("AEO report %s: %w", id, ErrNotFound)
	}
	return nil
}
