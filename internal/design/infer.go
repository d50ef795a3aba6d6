package design

import (
	"context"
	"strings"

	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/prompts"
	"go.uber.org/zap"
)

// inferSampleChars is how much of the page (head plus early body) the model sees.
const inferSampleChars = 15000

// InferTokens asks the Flash tier to infer tokens from a page sample.
// Any failure yields FallbackTokens.
func InferTokens(ctx context.Context, client llm.Client, html string, logger *zap.Logger) Tokens {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		return FallbackTokens()
	}

	prompt, err := prompts.Render(prompts.Design, "infer-design-tokens", map[string]string{"Sample": head(html, inferSampleChars)})
	if err != nil {
		logger.Warn("design inference prompt unavailable", zap.Error(err))
		return FallbackTokens()
	}

	resp, err := client.GenerateJSON(ctx, prompt, llm.TierFlash, llm.WithTemperature(0.1))
	if err != nil {
		logger.Warn("design inference failed, using fallback tokens", zap.Error(err))
		return FallbackTokens()
	}

	var t Tokens
	if err := llm.ParseJSON(resp, &t); err != nil || t.PrimaryColor == "" {
		logger.Warn("design inference returned no primary color, using fallback tokens", zap.Error(err))
		return FallbackTokens()
	}
	t.PrimaryColor = NormalizeHex(strings.TrimSpace(t.PrimaryColor))
	if t.SecondaryColor != "" {
		t.SecondaryColor = NormalizeHex(strings.TrimSpace(t.SecondaryColor))
	}
	if t.ColorScheme != SchemeDark {
		t.ColorScheme = SchemeLight
	}
	t.Source = SourceAI
	return t
}

// head returns the first n characters of s, never splitting a rune.
func head(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Resolve extracts tokens from the HTML and falls back to AI inference when
// the result lacks a primary color or has fewer than three tokens.
func Resolve(ctx context.Context, client llm.Client, html string, logger *zap.Logger) Tokens {
	if html == "" {
		return Tokens{}
	}
	t := ExtractTokens(html)
	if t.Sufficient() {
		return t
	}
	if logger != nil {
		logger.Debug("regex design extraction insufficient, inferring with AI")
	}
	return InferTokens(ctx, client, html, logger)
}
