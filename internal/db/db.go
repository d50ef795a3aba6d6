// Package db provides PostgreSQL storage for brands, pages, analyses, AEO
// reports, marketing assets and pipeline runs.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by mutations that target a missing row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write would duplicate a unique value.
var ErrConflict = errors.New("already exists")

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping checks the connection, for health endpoints.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// -----------------------------------------------------------------------------
// Run Methods
// -----------------------------------------------------------------------------

// CreateRun creates a new pipeline run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, kind, target string, brandID *uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO pipeline_runs (brand_id, kind, target, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		brandID, kind, target, RunStatusRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// SetRunBrand links a run to the brand it produced.
func (db *DB) SetRunBrand(ctx context.Context, runID, brandID uuid.UUID) error {
	_, err := db.pool.Exec(ctx, `UPDATE pipeline_runs SET brand_id = $1 WHERE id = $2`, brandID, runID)
	if err != nil {
		return fmt.Errorf("failed to set run brand: %w", err)
	}
	return nil
}

// CompleteRun marks a pipeline run as finished. A non-nil runErr marks it failed.
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, runErr error) error {
	status := RunStatusCompleted
	var msg *string
	if runErr != nil {
		status = RunStatusFailed
		s := runErr.Error()
		msg = &s
	}
	_, err := db.pool.Exec(ctx,
		`UPDATE pipeline_runs SET status = $1, error = $2, completed_at = NOW() WHERE id = $3`,
		status, msg, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var r Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, brand_id, kind, target, status, error, created_at, completed_at
		 FROM pipeline_runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.BrandID, &r.Kind, &r.Target, &r.Status, &r.Error, &r.CreatedAt, &r.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &r, nil
}

// ListRuns retrieves runs with optional filters, newest first.
func (db *DB) ListRuns(ctx context.Context, filters RunFilters) ([]Run, error) {
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	query := `SELECT id, brand_id, kind, target, status, error, created_at, completed_at
		FROM pipeline_runs WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.BrandID != uuid.Nil {
		query += fmt.Sprintf(" AND brand_id = $%d", argNum)
		args = append(args, filters.BrandID)
		argNum++
	}
	if filters.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", argNum)
		args = append(args, filters.Kind)
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.BrandID, &r.Kind, &r.Target, &r.Status, &r.Error, &r.CreatedAt, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// -----------------------------------------------------------------------------
// Artifact Methods
// -----------------------------------------------------------------------------

// SaveArtifact stores a JSON artifact for a pipeline run, replacing any
// earlier artifact for the same step.
func (db *DB) SaveArtifact(ctx context.Context, runID uuid.UUID, step, category string, content any) error {
	jsonBytes, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO artifacts (run_id, step, category, content)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (run_id, step) DO UPDATE SET category = $3, content = $4, created_at = NOW()`,
		runID, step, category, jsonBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to save artifact %s: %w", step, err)
	}
	return nil
}

// SaveTextArtifact stores a text artifact (a playbook, a generated asset) for a pipeline run
func (db *DB) SaveTextArtifact(ctx context.Context, runID uuid.UUID, step, category, text string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO artifacts (run_id, step, category, text_content)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (run_id, step) DO UPDATE SET category = $3, text_content = $4, created_at = NOW()`,
		runID, step, category, text,
	)
	if err != nil {
		return fmt.Errorf("failed to save text artifact %s: %w", step, err)
	}
	return nil
}

// GetArtifact retrieves a JSON artifact by run ID and step
func (db *DB) GetArtifact(ctx context.Context, runID uuid.UUID, step string) ([]byte, error) {
	var content []byte
	err := db.pool.QueryRow(ctx,
		`SELECT content FROM artifacts WHERE run_id = $1 AND step = $2`,
		runID, step,
	).Scan(&content)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get artifact %s: %w", step, err)
	}
	return content, nil
}

// ListArtifacts retrieves the artifacts of a run in creation order.
func (db *DB) ListArtifacts(ctx context.Context, runID uuid.UUID) ([]ArtifactSummary, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, step, COALESCE(category, ''), created_at,
		        content IS NOT NULL, text_content IS NOT NULL
		 FROM artifacts WHERE run_id = $1 ORDER BY created_at ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	artifacts := []ArtifactSummary{}
	for rows.Next() {
		var a ArtifactSummary
		if err := rows.Scan(&a.ID, &a.Step, &a.Category, &a.CreatedAt, &a.HasJSON, &a.HasText); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}
