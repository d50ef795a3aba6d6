package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrAllModelsFailed is returned when every model in a tier's chain failed.
var ErrAllModelsFailed = errors.New("all models failed")

// Client is an abstraction over the generation provider.
type Client interface {
	// GenerateContent generates text using the tier's model chain.
	GenerateContent(ctx context.Context, prompt string, tier ModelTier, opts ...Option) (string, error)
	// GenerateJSON generates a JSON document using the tier's model chain.
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier, opts ...Option) (string, error)
	// GenerateWithImage sends the prompt together with an inline image.
	GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string, tier ModelTier, opts ...Option) (string, error)
	// GetModel returns the primary model name for a tier.
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client.
	Close() error
}

// Options tune a single generation call.
type Options struct {
	Temperature float32
	JSON        bool
}

// Option mutates Options.
type Option func(*Options)

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float32) Option {
	return func(o *Options) { o.Temperature = t }
}

// AsJSON requests a JSON response MIME type.
func AsJSON() Option {
	return func(o *Options) { o.JSON = true }
}

// defaultTemperature keeps structured output consistent between runs.
const defaultTemperature = 0.1

// ApplyOptions resolves opts over the defaults.
func ApplyOptions(opts []Option) Options {
	o := Options{Temperature: defaultTemperature}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// generateFunc performs one call against one model.
type generateFunc func(ctx context.Context, model string, o Options, parts ...genai.Part) (string, error)

// GeminiClient implements Client for Google Gemini with a per-tier fallback chain.
type GeminiClient struct {
	client   *genai.Client
	config   *Config
	logger   *zap.Logger
	generate generateFunc
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new LLM client based on configuration.
func NewClient(ctx context.Context, config *Config, apiKey string, logger *zap.Logger) (Client, error) {
	return NewGeminiClient(ctx, config, apiKey, logger)
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, config *Config, apiKey string, logger *zap.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &GeminiClient{
		client: client,
		config: config,
		logger: logger,
		sleep:  sleepContext,
	}
	c.generate = c.callModel
	return c, nil
}

// GenerateContent generates text content using the specified model tier.
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier, opts ...Option) (string, error) {
	return c.run(ctx, tier, ApplyOptions(opts), genai.Text(prompt))
}

// GenerateJSON generates JSON content using the specified model tier.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier, opts ...Option) (string, error) {
	o := ApplyOptions(opts)
	o.JSON = true
	text, err := c.run(ctx, tier, o, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GenerateWithImage sends a prompt with an inline image (e.g. a homepage screenshot).
func (c *GeminiClient) GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string, tier ModelTier, opts ...Option) (string, error) {
	format := strings.TrimPrefix(mimeType, "image/")
	if format == "" {
		format = "jpeg"
	}
	o := ApplyOptions(opts)
	text, err := c.run(ctx, tier, o, genai.Text(prompt), genai.ImageData(format, image))
	if err != nil {
		return "", err
	}
	if o.JSON {
		return CleanJSONBlock(text), nil
	}
	return text, nil
}

// GetModel returns the model name for a tier.
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// run walks the tier's chain. Rate-limited models back off 2^index seconds
// before the next model is tried; missing models are skipped immediately.
func (c *GeminiClient) run(ctx context.Context, tier ModelTier, o Options, parts ...genai.Part) (string, error) {
	chain := c.config.Chain(tier)
	if len(chain) == 0 {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	var lastErr error
	for i, model := range chain {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := c.generate(ctx, model, o, parts...)
		if err == nil && strings.TrimSpace(text) != "" {
			if i > 0 {
				c.logger.Info("model fallback succeeded", zap.String("tier", string(tier)), zap.String("model", model))
			}
			return text, nil
		}
		if err == nil {
			err = fmt.Errorf("empty response from model %s", model)
		}
		lastErr = err

		switch classify(err) {
		case errRateLimited:
			wait := time.Duration(1<<i) * time.Second
			c.logger.Warn("rate limited, backing off", zap.String("model", model), zap.Duration("wait", wait))
			if serr := c.sleep(ctx, wait); serr != nil {
				return "", serr
			}
		case errNotFound:
			c.logger.Warn("model not found, skipping", zap.String("model", model))
		default:
			c.logger.Warn("model call failed", zap.String("model", model), zap.Error(err))
		}
	}

	return "", fmt.Errorf("%w: last error: %w", ErrAllModelsFailed, lastErr)
}

// callModel performs a single request against the Gemini API.
func (c *GeminiClient) callModel(ctx context.Context, modelName string, o Options, parts ...genai.Part) (string, error) {
	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(o.Temperature)
	if o.JSON {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return extractTextFromResponse(resp)
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}

type errClass int

const (
	errOther errClass = iota
	errRateLimited
	errNotFound
)

func classify(err error) errClass {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests:
			return errRateLimited
		case http.StatusNotFound:
			return errNotFound
		}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "resource exhausted"),
		strings.Contains(msg, "resourceexhausted"), strings.Contains(msg, "quota"):
		return errRateLimited
	case strings.Contains(msg, "404"), strings.Contains(msg, "not found"):
		return errNotFound
	}
	return errOther
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
