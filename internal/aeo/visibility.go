package aeo

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/brandos/internal/llm"
)

// DefaultWorkers keeps concurrent engine calls within free-tier rate limits.
const DefaultWorkers = 2

// Query statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusActive  = "active"
	StatusSkipped = "skipped"
)

// VisibilityRequest describes one visibility check.
type VisibilityRequest struct {
	Brand    string
	Keywords []string
	Intents  []string
	Audience string
	Region   string
	Runs     int
	Risk     bool
}

// ActiveIntents returns the requested intents plus the risk intents when
// risk analysis is on. No intents means General.
func (r VisibilityRequest) ActiveIntents() []string {
	intents := append([]string{}, r.Intents...)
	if len(intents) == 0 {
		intents = []string{IntentGeneral}
	}
	if r.Risk {
		intents = append(intents, RiskIntents...)
	}
	return intents
}

// QueryResult is one engine answer for one keyword, intent and run.
type QueryResult struct {
	Keyword  string   `json:"keyword"`
	Intent   string   `json:"intent"`
	RunIndex int      `json:"run_index"`
	Status   string   `json:"status"`
	Error    string   `json:"error,omitempty"`
	Analysis *Mention `json:"analysis,omitempty"`
	Prompt   string   `json:"prompt_used,omitempty"`
}

// EngineResult groups the answers from one engine, in task order.
type EngineResult struct {
	Engine string        `json:"engine"`
	Status string        `json:"status"`
	Reason string        `json:"reason,omitempty"`
	Data   []QueryResult `json:"data,omitempty"`
}

// VisibilityReport is the output of CheckVisibility.
type VisibilityReport struct {
	Brand   string         `json:"brand"`
	Engines []EngineResult `json:"engines"`
}

// Checker runs visibility checks against a set of engines.
type Checker struct {
	engines []Engine
	workers int
	retry   llm.RetryPolicy
	logger  *zap.Logger
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithWorkers sets the pool size.
func WithWorkers(n int) CheckerOption {
	return func(c *Checker) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithRetryPolicy overrides the per-query retry policy.
func WithRetryPolicy(p llm.RetryPolicy) CheckerOption {
	return func(c *Checker) { c.retry = p }
}

// NewChecker creates a Checker over engines.
func NewChecker(engines []Engine, logger *zap.Logger, opts ...CheckerOption) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Checker{
		engines: engines,
		workers: DefaultWorkers,
		retry:   llm.DefaultRetryPolicy(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type task struct {
	engine   Engine
	slot     *QueryResult
	keyword  string
	intent   string
	runIndex int
}

// CheckVisibility runs every engine x keyword x intent x run task through a
// bounded pool. Individual query failures are recorded, not returned; the
// error is non-nil only when ctx ends before the tasks finish.
func (c *Checker) CheckVisibility(ctx context.Context, req VisibilityRequest) (*VisibilityReport, error) {
	runs := max(req.Runs, 1)
	intents := req.ActiveIntents()
	perEngine := len(req.Keywords) * len(intents) * runs

	report := &VisibilityReport{Brand: req.Brand, Engines: make([]EngineResult, len(c.engines))}
	var tasks []task
	for i, e := range c.engines {
		res := &report.Engines[i]
		res.Engine = e.Name()
		if s, ok := e.(*skippedEngine); ok {
			res.Status = StatusSkipped
			res.Reason = s.reason
			continue
		}
		res.Status = StatusActive
		res.Data = make([]QueryResult, perEngine)
		n := 0
		for _, kw := range req.Keywords {
			for _, intent := range intents {
				for run := 0; run < runs; run++ {
					tasks = append(tasks, task{engine: e, slot: &res.Data[n], keyword: kw, intent: intent, runIndex: run + 1})
					n++
				}
			}
		}
	}

	c.logger.Info("checking visibility",
		zap.String("brand", req.Brand),
		zap.Int("tasks", len(tasks)),
		zap.Int("workers", c.workers))

	g := new(errgroup.Group)
	g.SetLimit(c.workers)
	for _, t := range tasks {
		g.Go(func() error {
			*t.slot = c.execute(ctx, req, t)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (c *Checker) execute(ctx context.Context, req VisibilityRequest, t task) QueryResult {
	res := QueryResult{Keyword: t.keyword, Intent: t.intent, RunIndex: t.runIndex}
	if err := ctx.Err(); err != nil {
		res.Status = StatusError
		res.Error = err.Error()
		return res
	}

	prompt, err := BuildPrompt(t.intent, t.keyword, req.Audience, req.Region)
	if err != nil {
		res.Status = StatusError
		res.Error = err.Error()
		return res
	}

	var answer string
	err = c.retry.Do(ctx, func(ctx context.Context) error {
		var qerr error
		answer, qerr = t.engine.Query(ctx, prompt)
		return qerr
	})
	if err != nil {
		c.logger.Warn("visibility query failed",
			zap.String("engine", t.engine.Name()),
			zap.String("keyword", t.keyword),
			zap.String("intent", t.intent),
			zap.Error(err))
		res.Status = StatusError
		res.Error = "Max retries reached. Error: " + err.Error()
		return res
	}

	m := AnalyzeMention(answer, req.Brand, IsRisk(t.intent))
	m.Intent = t.intent
	res.Status = StatusSuccess
	res.Analysis = m
	res.Prompt = prompt
	return res
}
