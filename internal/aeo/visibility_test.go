package aeo

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/brandos/internal/llm"
)

var noWait = llm.RetryPolicy{Retries: 2}

func TestCheckVisibility_TaskGrid(t *testing.T) {
	var calls atomic.Int32
	gemini := &fakeEngine{name: EngineGemini, fn: func(prompt string) (string, error) {
		calls.Add(1)
		return `[{"rank": 1, "name": "Acme"}, {"rank": 2, "name": "Globex"}]`, nil
	}}
	c := NewChecker([]Engine{gemini, Skipped(EngineChatGPT, "No API Key")}, nil, WithRetryPolicy(noWait))

	report, err := c.CheckVisibility(context.Background(), VisibilityRequest{
		Brand:    "Acme",
		Keywords: []string{"crm", "helpdesk"},
		Intents:  []string{IntentCommercial},
		Runs:     2,
	})
	require.NoError(t, err)
	require.Len(t, report.Engines, 2)
	assert.Equal(t, int32(4), calls.Load())

	g := report.Engines[0]
	assert.Equal(t, EngineGemini, g.Engine)
	assert.Equal(t, StatusActive, g.Status)
	require.Len(t, g.Data, 4)
	want := []struct {
		kw  string
		run int
	}{{"crm", 1}, {"crm", 2}, {"helpdesk", 1}, {"helpdesk", 2}}
	for i, w := range want {
		assert.Equal(t, w.kw, g.Data[i].Keyword)
		assert.Equal(t, w.run, g.Data[i].RunIndex)
		assert.Equal(t, StatusSuccess, g.Data[i].Status)
		require.NotNil(t, g.Data[i].Analysis)
		assert.True(t, g.Data[i].Analysis.Mentioned)
		assert.Equal(t, IntentCommercial, g.Data[i].Analysis.Intent)
		assert.Contains(t, g.Data[i].Prompt, w.kw)
	}

	s := report.Engines[1]
	assert.Equal(t, StatusSkipped, s.Status)
	assert.Equal(t, "No API Key", s.Reason)
	assert.Empty(t, s.Data)
}

func TestCheckVisibility_RiskIntents(t *testing.T) {
	e := staticEngine(EngineGemini, `[]`)
	c := NewChecker([]Engine{e}, nil, WithRetryPolicy(noWait))

	report, err := c.CheckVisibility(context.Background(), VisibilityRequest{Brand: "Acme", Keywords: []string{"crm"}, Risk: true})
	require.NoError(t, err)

	var intents []string
	for _, r := range report.Engines[0].Data {
		intents = append(intents, r.Intent)
	}
	assert.Equal(t, []string{IntentGeneral, IntentRiskCost, IntentRiskSecurity, IntentRiskAvoidance}, intents)
}

func TestCheckVisibility_RetriesThenRecords(t *testing.T) {
	var calls atomic.Int32
	failing := &fakeEngine{name: EngineGemini, fn: func(string) (string, error) {
		calls.Add(1)
		return "", errors.New("503 unavailable")
	}}
	c := NewChecker([]Engine{failing}, nil, WithRetryPolicy(noWait))

	report, err := c.CheckVisibility(context.Background(), VisibilityRequest{Brand: "Acme", Keywords: []string{"crm"}})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())

	r := report.Engines[0].Data[0]
	assert.Equal(t, StatusError, r.Status)
	assert.True(t, strings.HasPrefix(r.Error, "Max retries reached. Error: "), r.Error)
	assert.Nil(t, r.Analysis)
}

func TestCheckVisibility_FlakyEngineRecovers(t *testing.T) {
	var calls atomic.Int32
	flaky := &fakeEngine{name: EngineGemini, fn: func(string) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("429")
		}
		return `[{"rank": 3, "name": "Acme"}]`, nil
	}}
	c := NewChecker([]Engine{flaky}, nil, WithRetryPolicy(noWait))

	report, err := c.CheckVisibility(context.Background(), VisibilityRequest{Brand: "Acme", Keywords: []string{"crm"}})
	require.NoError(t, err)
	r := report.Engines[0].Data[0]
	assert.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, 3, r.Analysis.Rank)
}

func TestCheckVisibility_BoundedConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	slow := &fakeEngine{name: EngineGemini, fn: func(string) (string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return `[]`, nil
	}}
	c := NewChecker([]Engine{slow}, nil, WithWorkers(2), WithRetryPolicy(noWait))

	_, err := c.CheckVisibility(context.Background(), VisibilityRequest{
		Brand:    "Acme",
		Keywords: []string{"a", "b", "c", "d"},
		Runs:     2,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestCheckVisibility_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewChecker([]Engine{staticEngine(EngineGemini, `[]`)}, nil, WithRetryPolicy(noWait))
	report, err := c.CheckVisibility(ctx, VisibilityRequest{Brand: "Acme", Keywords: []string{"crm"}})

	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, StatusError, report.Engines[0].Data[0].Status)
}
