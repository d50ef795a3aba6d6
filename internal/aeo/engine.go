// Package aeo measures how visible a brand is inside answer-engine responses
// (Answer Engine Optimization): it queries Gemini, ChatGPT and Perplexity with
// intent-shaped prompts, parses the rankings they return and aggregates them
// into a competitive leaderboard.
package aeo

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/jonathan/brandos/internal/llm"
)

// Engine names.
const (
	EngineGemini     = "Gemini"
	EngineChatGPT    = "ChatGPT"
	EnginePerplexity = "Perplexity"
)

// Defaults for the OpenAI-compatible engines.
const (
	DefaultChatGPTModel    = "gpt-4o-mini"
	DefaultPerplexityModel = "sonar"
	PerplexityBaseURL      = "https://api.perplexity.ai"
)

// ErrNoAPIKey marks an engine that was not configured.
var ErrNoAPIKey = errors.New("no API key")

// Engine is an answer engine that can be asked a question.
type Engine interface {
	Name() string
	Query(ctx context.Context, prompt string) (string, error)
}

// EngineError is returned when an engine call fails.
type EngineError struct {
	Engine string
	Cause  error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s query failed: %v", e.Engine, e.Cause)
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

// GeminiEngine answers through the shared LLM client.
type GeminiEngine struct {
	client llm.Client
	tier   llm.ModelTier
}

// NewGeminiEngine wraps client; queries use the Pro tier.
func NewGeminiEngine(client llm.Client) *GeminiEngine {
	return &GeminiEngine{client: client, tier: llm.TierPro}
}

// Name implements Engine.
func (g *GeminiEngine) Name() string { return EngineGemini }

// Query implements Engine.
func (g *GeminiEngine) Query(ctx context.Context, prompt string) (string, error) {
	text, err := g.client.GenerateContent(ctx, prompt, g.tier, llm.WithTemperature(0.7))
	if err != nil {
		return "", &EngineError{Engine: EngineGemini, Cause: err}
	}
	return text, nil
}

// OpenAIEngine talks to any OpenAI-compatible chat completions API.
type OpenAIEngine struct {
	name   string
	model  string
	system string
	client openai.Client
}

// NewChatGPTEngine returns the ChatGPT engine.
func NewChatGPTEngine(apiKey string) *OpenAIEngine {
	return &OpenAIEngine{
		name:   EngineChatGPT,
		model:  DefaultChatGPTModel,
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}
}

// NewPerplexityEngine returns the Perplexity engine over its OpenAI-compatible endpoint.
func NewPerplexityEngine(apiKey string) *OpenAIEngine {
	return &OpenAIEngine{
		name:   EnginePerplexity,
		model:  DefaultPerplexityModel,
		system: "Be precise and concise.",
		client: openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(PerplexityBaseURL)),
	}
}

// NewOpenAIEngine builds an engine against an arbitrary compatible endpoint.
func NewOpenAIEngine(name, model, baseURL, apiKey string) *OpenAIEngine {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIEngine{name: name, model: model, client: openai.NewClient(opts...)}
}

// Name implements Engine.
func (o *OpenAIEngine) Name() string { return o.name }

// Query implements Engine.
func (o *OpenAIEngine) Query(ctx context.Context, prompt string) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if o.system != "" {
		messages = append(messages, openai.SystemMessage(o.system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: messages,
	})
	if err != nil {
		return "", &EngineError{Engine: o.name, Cause: err}
	}
	if len(resp.Choices) == 0 {
		return "", &EngineError{Engine: o.name, Cause: errors.New("no choices in response")}
	}
	return resp.Choices[0].Message.Content, nil
}

// skippedEngine stands in for an engine that cannot run.
type skippedEngine struct {
	name   string
	reason string
}

// Skipped returns a placeholder engine that CheckVisibility reports as
// skipped with reason.
func Skipped(name, reason string) Engine {
	return &skippedEngine{name: name, reason: reason}
}

func (s *skippedEngine) Name() string { return s.name }

func (s *skippedEngine) Query(context.Context, string) (string, error) {
	return "", &EngineError{Engine: s.name, Cause: ErrNoAPIKey}
}

// EngineKeys holds the credentials for the answer engines.
type EngineKeys struct {
	OpenAI     string
	Perplexity string
}

// NewEngines builds the standard engine roster. Engines without credentials
// are included as skipped.
func NewEngines(gemini llm.Client, keys EngineKeys) []Engine {
	engines := make([]Engine, 0, 3)
	if gemini != nil {
		engines = append(engines, NewGeminiEngine(gemini))
	} else {
		engines = append(engines, Skipped(EngineGemini, "No API Key"))
	}
	if keys.OpenAI != "" {
		engines = append(engines, NewChatGPTEngine(keys.OpenAI))
	} else {
		engines = append(engines, Skipped(EngineChatGPT, "No API Key"))
	}
	if keys.Perplexity != "" {
		engines = append(engines, NewPerplexityEngine(keys.Perplexity))
	} else {
		engines = append(engines, Skipped(EnginePerplexity, "No API Key"))
	}
	return engines
}
