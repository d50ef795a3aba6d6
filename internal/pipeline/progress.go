package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/brandos/internal/db"
	"github.com/jonathan/brandos/internal/pipeline/steps"
)

// Progress statuses reuse the step statuses.
const (
	StatusStarted   = db.StepStatusInProgress
	StatusCompleted = db.StepStatusCompleted
	StatusFailed    = db.StepStatusFailed
	StatusSkipped   = db.StepStatusSkipped
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string    `json:"step"`
	Category string    `json:"category"`
	Status   string    `json:"status"`
	Message  string    `json:"message"`
	RunID    string    `json:"run_id,omitempty"`
	Content  any       `json:"content,omitempty"`
	Time     time.Time `json:"time"`
}

// ProgressCallback is called when pipeline progress occurs. Calls are serialized.
type ProgressCallback func(event ProgressEvent)

// tracker records step status in memory and in the store, and forwards
// every transition to the progress callback.
type tracker struct {
	mu       sync.Mutex
	kind     string
	runID    uuid.UUID
	store    Store
	onEvent  ProgressCallback
	logger   *zap.Logger
	statuses map[string]string
}

func newTracker(kind string, store Store, onEvent ProgressCallback, logger *zap.Logger) *tracker {
	return &tracker{
		kind:     kind,
		store:    store,
		onEvent:  onEvent,
		logger:   logger,
		statuses: map[string]string{},
	}
}

func (t *tracker) setRun(id uuid.UUID) {
	t.mu.Lock()
	t.runID = id
	t.mu.Unlock()
}

// ready reports whether step's required dependencies completed. A step that
// is not ready is recorded as skipped.
func (t *tracker) ready(ctx context.Context, step string) bool {
	t.mu.Lock()
	err := steps.ValidateDependencies(t.kind, step, t.statuses)
	t.mu.Unlock()
	if err == nil {
		return true
	}
	t.skip(ctx, step, err.Error())
	return false
}

func (t *tracker) start(ctx context.Context, step, message string) {
	t.transition(ctx, step, StatusStarted, message, nil)
}

func (t *tracker) done(ctx context.Context, step, message string, content any) {
	t.transition(ctx, step, StatusCompleted, message, content)
}

func (t *tracker) fail(ctx context.Context, step string, err error) {
	t.transition(ctx, step, StatusFailed, err.Error(), nil)
}

func (t *tracker) skip(ctx context.Context, step, reason string) {
	t.transition(ctx, step, StatusSkipped, reason, nil)
}

func (t *tracker) status(step string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statuses[step]
}

func (t *tracker) transition(ctx context.Context, step, status, message string, content any) {
	category := ""
	if def, ok := steps.Lookup(t.kind, step); ok {
		category = def.Category
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses[step] = status

	if t.store != nil && t.runID != uuid.Nil {
		var err error
		if status == StatusStarted {
			err = t.store.StartRunStep(ctx, t.runID, step, category)
		} else {
			err = t.store.FinishRunStep(ctx, t.runID, step, category, status, message)
		}
		if err != nil {
			t.logger.Warn("failed to record step", zap.String("step", step), zap.Error(err))
		}
	}

	if t.onEvent == nil {
		return
	}
	ev := ProgressEvent{
		Step:     step,
		Category: category,
		Status:   status,
		Message:  message,
		Content:  content,
		Time:     time.Now().UTC(),
	}
	if t.runID != uuid.Nil {
		ev.RunID = t.runID.String()
	}
	t.onEvent(ev)
}
