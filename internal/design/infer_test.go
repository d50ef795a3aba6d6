package design

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/llm/llmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferTokens(t *testing.T) {
	fake := llmtest.New().On("reverse-engineer", `{"primary_color": "#0A2540", "secondary_color": "#ABC", "font_primary": "Söhne", "color_scheme": "Dark-ish", "border_radius": "4px"}`)

	tokens := InferTokens(context.Background(), fake, strings.Repeat("x", 20000), nil)
	assert.Equal(t, Tokens{
		PrimaryColor:   "#0a2540",
		SecondaryColor: "#aabbcc",
		FontPrimary:    "Söhne",
		ColorScheme:    SchemeLight,
		BorderRadius:   "4px",
		Source:         SourceAI,
	}, tokens)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, llm.TierFlash, calls[0].Tier)
	assert.InDelta(t, 0.1, calls[0].Options.Temperature, 1e-6)
	assert.Less(t, len(calls[0].Prompt), 17000)
}

func TestInferTokens_MultibyteCut(t *testing.T) {
	fake := llmtest.New().On("reverse-engineer", `{"primary_color": "#0A2540"}`)
	html := strings.Repeat("x", inferSampleChars-1) + "é" + strings.Repeat("y", 100)

	tokens := InferTokens(context.Background(), fake, html, nil)
	assert.Equal(t, SourceAI, tokens.Source)

	prompt := fake.Calls()[0].Prompt
	assert.True(t, utf8.ValidString(prompt))
	assert.Contains(t, prompt, "xé")
	assert.NotContains(t, prompt, "éy")
}

func TestInferTokens_Fallbacks(t *testing.T) {
	tests := []struct {
		name   string
		client llm.Client
	}{
		{"nil client", nil},
		{"error", llmtest.New().OnError("reverse-engineer", errors.New("boom"))},
		{"missing primary", llmtest.New().On("reverse-engineer", `{"secondary_color": "#764ba2"}`)},
		{"garbage", llmtest.New().On("reverse-engineer", `no json here`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, FallbackTokens(), InferTokens(context.Background(), tt.client, "<html>", nil))
		})
	}
}

func TestResolve(t *testing.T) {
	fake := llmtest.New().On("reverse-engineer", `{"primary_color": "#112233"}`)

	rich := `<style>:root{--brand:#635bff}</style>`
	assert.Equal(t, "#635bff", Resolve(context.Background(), fake, rich, nil).PrimaryColor)
	assert.Empty(t, fake.Calls())

	thin := `<p>no colors</p>`
	got := Resolve(context.Background(), fake, thin, nil)
	assert.Equal(t, "#112233", got.PrimaryColor)
	assert.Equal(t, SourceAI, got.Source)

	assert.Equal(t, Tokens{}, Resolve(context.Background(), fake, "", nil))
}
