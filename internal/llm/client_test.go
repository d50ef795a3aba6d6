package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

// scriptedClient builds a GeminiClient whose model calls are answered by responses keyed by model name.
func scriptedClient(responses map[string]error, text map[string]string) (*GeminiClient, *[]string, *[]time.Duration) {
	var calls []string
	var sleeps []time.Duration
	c := &GeminiClient{
		config: DefaultConfig(),
		logger: zap.NewNop(),
		sleep: func(_ context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		},
	}
	c.generate = func(_ context.Context, model string, _ Options, _ ...genai.Part) (string, error) {
		calls = append(calls, model)
		if err, ok := responses[model]; ok && err != nil {
			return "", err
		}
		return text[model], nil
	}
	return c, &calls, &sleeps
}

func TestRun_FirstModelSucceeds(t *testing.T) {
	c, calls, sleeps := scriptedClient(nil, map[string]string{"gemini-2.5-pro": "ok"})

	out, err := c.GenerateContent(context.Background(), "hi", TierPro)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, []string{"gemini-2.5-pro"}, *calls)
	assert.Empty(t, *sleeps)
}

func TestRun_RateLimitBacksOffThenFallsBack(t *testing.T) {
	c, calls, sleeps := scriptedClient(
		map[string]error{"gemini-2.5-flash": &googleapi.Error{Code: http.StatusTooManyRequests}},
		map[string]string{"gemini-2.5-pro": "from pro"},
	)

	out, err := c.GenerateContent(context.Background(), "hi", TierFlash)
	require.NoError(t, err)
	assert.Equal(t, "from pro", out)
	assert.Equal(t, []string{"gemini-2.5-flash", "gemini-2.5-pro"}, *calls)
	assert.Equal(t, []time.Duration{time.Second}, *sleeps)
}

func TestRun_NotFoundSkipsWithoutSleep(t *testing.T) {
	c, calls, sleeps := scriptedClient(
		map[string]error{"gemini-2.5-pro": errors.New("rpc error: model not found")},
		map[string]string{"gemini-2.5-flash": "flash answer"},
	)

	out, err := c.GenerateContent(context.Background(), "hi", TierPro)
	require.NoError(t, err)
	assert.Equal(t, "flash answer", out)
	assert.Len(t, *calls, 2)
	assert.Empty(t, *sleeps)
}

func TestRun_EmptyResponseIsFailure(t *testing.T) {
	c, calls, _ := scriptedClient(nil, map[string]string{
		"gemini-2.5-pro":   "   ",
		"gemini-2.5-flash": "real",
	})

	out, err := c.GenerateContent(context.Background(), "hi", TierPro)
	require.NoError(t, err)
	assert.Equal(t, "real", out)
	assert.Len(t, *calls, 2)
}

func TestRun_AllModelsFail(t *testing.T) {
	errs := map[string]error{}
	for _, m := range DefaultConfig().Fallbacks {
		errs[m] = fmt.Errorf("boom from %s", m)
	}
	c, calls, _ := scriptedClient(errs, nil)

	_, err := c.GenerateContent(context.Background(), "hi", TierPro)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllModelsFailed)
	assert.Contains(t, err.Error(), "gemini-1.5-flash")
	assert.Len(t, *calls, 5)
}

func TestRun_ContextCancelled(t *testing.T) {
	c, calls, _ := scriptedClient(nil, map[string]string{"gemini-2.5-pro": "ok"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GenerateContent(ctx, "hi", TierPro)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *calls)
}

func TestGenerateJSON_CleansFences(t *testing.T) {
	var got Options
	c, _, _ := scriptedClient(nil, nil)
	c.generate = func(_ context.Context, _ string, o Options, _ ...genai.Part) (string, error) {
		got = o
		return "```json\n{\"a\": 1}\n```", nil
	}

	out, err := c.GenerateJSON(context.Background(), "hi", TierFlash, WithTemperature(0.4))
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, out)
	assert.True(t, got.JSON)
	assert.InDelta(t, 0.4, got.Temperature, 0.0001)
}

func TestGenerateWithImage_PassesImagePart(t *testing.T) {
	var parts []genai.Part
	c, _, _ := scriptedClient(nil, nil)
	c.generate = func(_ context.Context, _ string, _ Options, p ...genai.Part) (string, error) {
		parts = p
		return "described", nil
	}

	out, err := c.GenerateWithImage(context.Background(), "describe", []byte{0xff, 0xd8}, "image/jpeg", TierFlash)
	require.NoError(t, err)
	assert.Equal(t, "described", out)
	require.Len(t, parts, 2)
	blob, ok := parts[1].(genai.Blob)
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", blob.MIMEType)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, errRateLimited, classify(&googleapi.Error{Code: 429}))
	assert.Equal(t, errNotFound, classify(fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 404})))
	assert.Equal(t, errRateLimited, classify(errors.New("Resource exhausted: quota")))
	assert.Equal(t, errOther, classify(errors.New("connection reset")))
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), nil, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}
