package aeo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/llm/llmtest"
)

func TestGeminiEngine_Query(t *testing.T) {
	fake := llmtest.New().On("best crm", "1. Acme")
	e := NewGeminiEngine(fake)

	got, err := e.Query(context.Background(), "best crm?")
	require.NoError(t, err)
	assert.Equal(t, "1. Acme", got)
	assert.Equal(t, EngineGemini, e.Name())

	call := fake.Calls()[0]
	assert.Equal(t, llm.TierPro, call.Tier)
	assert.InDelta(t, 0.7, call.Options.Temperature, 0.001)
}

func TestGeminiEngine_Error(t *testing.T) {
	e := NewGeminiEngine(llmtest.New().OnError("", errors.New("quota")))
	_, err := e.Query(context.Background(), "q")

	var ee *EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, EngineGemini, ee.Engine)
}

func TestOpenAIEngine_Query(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "1. Acme"}}]
		}`))
	}))
	defer srv.Close()

	e := NewOpenAIEngine(EngineChatGPT, DefaultChatGPTModel, srv.URL, "test-key")
	answer, err := e.Query(context.Background(), "best crm?")
	require.NoError(t, err)

	assert.Equal(t, "1. Acme", answer)
	assert.Equal(t, DefaultChatGPTModel, got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "best crm?", got.Messages[0].Content)
}

func TestOpenAIEngine_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	e := NewOpenAIEngine(EnginePerplexity, DefaultPerplexityModel, srv.URL, "nope")
	_, err := e.Query(context.Background(), "q")

	var ee *EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, EnginePerplexity, ee.Engine)
}

func TestNewEngines(t *testing.T) {
	t.Run("no credentials", func(t *testing.T) {
		engines := NewEngines(nil, EngineKeys{})
		require.Len(t, engines, 3)
		for _, e := range engines {
			_, err := e.Query(context.Background(), "q")
			assert.ErrorIs(t, err, ErrNoAPIKey, e.Name())
		}
	})

	t.Run("partial credentials", func(t *testing.T) {
		engines := NewEngines(llmtest.New(), EngineKeys{OpenAI: "sk-test"})
		require.Len(t, engines, 3)
		assert.IsType(t, &GeminiEngine{}, engines[0])
		assert.IsType(t, &OpenAIEngine{}, engines[1])
		assert.Equal(t, EngineChatGPT, engines[1].Name())
		assert.Equal(t, EnginePerplexity, engines[2].Name())
		_, skipped := engines[2].(*skippedEngine)
		assert.True(t, skipped)
	})
}
