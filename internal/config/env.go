// Package config provides environment and run-profile configuration for BrandOS.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Env holds process configuration read from environment variables.
type Env struct {
	GeminiAPIKey     string        `env:"GEMINI_API_KEY"`
	DatabaseURL      string        `env:"DATABASE_URL"`
	RedisURL         string        `env:"REDIS_URL"`
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	PerplexityAPIKey string        `env:"PERPLEXITY_API_KEY"`
	Port             int           `env:"PORT" envDefault:"8080"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LLMCacheTTL      time.Duration `env:"LLM_CACHE_TTL" envDefault:"24h"`
	PageCacheTTL     time.Duration `env:"PAGE_CACHE_TTL" envDefault:"24h"`
	UseBrowser       bool          `env:"USE_BROWSER" envDefault:"false"`
}

// LoadEnv parses Env from the process environment.
func LoadEnv() (*Env, error) {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// RequireGemini returns an error when GEMINI_API_KEY is unset.
func (e *Env) RequireGemini() error {
	if e.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	return nil
}

// RequireDatabase returns an error when DATABASE_URL is unset.
func (e *Env) RequireDatabase() error {
	if e.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	return nil
}

// Debug reports whether LOG_LEVEL asks for debug output.
func (e *Env) Debug() bool {
	return e.LogLevel == "debug"
}
