// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"strings"
	"sync"

	"github.com/jonathan/brandos/internal/llm"
)

// Call records one request made to the fake.
type Call struct {
	Prompt  string
	Tier    llm.ModelTier
	Image   bool
	Options llm.Options
}

type rule struct {
	contains string
	text     string
	err      error
}

// Fake answers prompts from rules matched by substring, in registration order.
type Fake struct {
	mu      sync.Mutex
	rules   []rule
	Default string
	calls   []Call
}

// New returns an empty fake whose unmatched prompts get "{}".
func New() *Fake {
	return &Fake{Default: "{}"}
}

// On answers prompts containing substr with text.
func (f *Fake) On(substr, text string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{contains: substr, text: text})
	return f
}

// OnError fails prompts containing substr with err.
func (f *Fake) OnError(substr string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{contains: substr, err: err})
	return f
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *Fake) answer(prompt string, tier llm.ModelTier, image bool, opts []llm.Option) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Prompt: prompt, Tier: tier, Image: image, Options: llm.ApplyOptions(opts)})
	for _, r := range f.rules {
		if strings.Contains(prompt, r.contains) {
			return r.text, r.err
		}
	}
	return f.Default, nil
}

// GenerateContent implements llm.Client.
func (f *Fake) GenerateContent(_ context.Context, prompt string, tier llm.ModelTier, opts ...llm.Option) (string, error) {
	return f.answer(prompt, tier, false, opts)
}

// GenerateJSON implements llm.Client.
func (f *Fake) GenerateJSON(_ context.Context, prompt string, tier llm.ModelTier, opts ...llm.Option) (string, error) {
	opts = append(opts, llm.AsJSON())
	return f.answer(prompt, tier, false, opts)
}

// GenerateWithImage implements llm.Client.
func (f *Fake) GenerateWithImage(_ context.Context, prompt string, _ []byte, _ string, tier llm.ModelTier, opts ...llm.Option) (string, error) {
	return f.answer(prompt, tier, true, opts)
}

// GetModel implements llm.Client.
func (f *Fake) GetModel(tier llm.ModelTier) string {
	return "fake-" + string(tier)
}

// Close implements llm.Client.
func (f *Fake) Close() error { return nil }
