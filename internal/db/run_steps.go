package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Run Steps Methods
// -----------------------------------------------------------------------------

const runStepColumns = `id, run_id, step, category, status, message, started_at, completed_at,
	duration_ms, created_at, updated_at`

// StartRunStep records a step as in progress, creating the row if needed.
func (db *DB) StartRunStep(ctx context.Context, runID uuid.UUID, step, category string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO run_steps (run_id, step, category, status, started_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (run_id, step) DO UPDATE SET
		     status = $4, started_at = NOW(), completed_at = NULL, duration_ms = NULL,
		     message = NULL, updated_at = NOW()`,
		runID, step, category, StepStatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("failed to start run step: %w", err)
	}
	return nil
}

// FinishRunStep records a terminal status for a step. Duration is measured
// from the step's start when it was started.
func (db *DB) FinishRunStep(ctx context.Context, runID uuid.UUID, step, category, status, message string) error {
	if !ValidStepStatus(status) {
		return fmt.Errorf("invalid step status %q", status)
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO run_steps (run_id, step, category, status, message, completed_at, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NULL)
		 ON CONFLICT (run_id, step) DO UPDATE SET
		     status = $4,
		     message = $5,
		     completed_at = NOW(),
		     duration_ms = CASE WHEN run_steps.started_at IS NULL THEN NULL
		                        ELSE (EXTRACT(EPOCH FROM (NOW() - run_steps.started_at)) * 1000)::INTEGER END,
		     updated_at = NOW()`,
		runID, step, category, status, nullable(message),
	)
	if err != nil {
		return fmt.Errorf("failed to finish run step: %w", err)
	}
	return nil
}

// ListRunSteps retrieves all steps for a run in start order.
func (db *DB) ListRunSteps(ctx context.Context, runID uuid.UUID) ([]RunStep, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+runStepColumns+` FROM run_steps
		 WHERE run_id = $1
		 ORDER BY COALESCE(started_at, created_at), step`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	defer rows.Close()

	steps := []RunStep{}
	for rows.Next() {
		var s RunStep
		if err := rows.Scan(&s.ID, &s.RunID, &s.Step, &s.Category, &s.Status, &s.Message,
			&s.StartedAt, &s.CompletedAt, &s.DurationMs, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run step: %w", err)
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}
