// Package llm provides the Gemini client, model tiers, and LLM response recovery helpers.
package llm

// ModelTier represents the capability level of a model.
type ModelTier string

const (
	// TierFlash is for fast extraction: brand DNA, link refinement, hooks, design inference.
	TierFlash ModelTier = "flash"
	// TierPro is for deep reasoning: personas, strategy, health scoring, rewriting.
	TierPro ModelTier = "pro"
)

// Provider represents an LLM provider.
type Provider string

// ProviderGemini is the only generation provider; other vendors are answer engines in package aeo.
const ProviderGemini Provider = "gemini"

// Config holds the model configuration for the application.
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	// Fallbacks is tried in order after the tier's own model.
	Fallbacks []string
}

// DefaultConfig returns the default Gemini configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierFlash: "gemini-2.5-flash",
			TierPro:   "gemini-2.5-pro",
		},
		Fallbacks: []string{
			"gemini-2.5-pro",
			"gemini-2.5-flash",
			"gemini-2.5-flash-lite",
			"gemini-1.5-pro",
			"gemini-1.5-flash",
		},
	}
}

// GetModel returns the primary model name for a tier.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierFlash]; ok {
		return model
	}
	if len(c.Fallbacks) > 0 {
		return c.Fallbacks[0]
	}
	return ""
}

// Chain returns the tier's model followed by the fallbacks, without duplicates.
func (c *Config) Chain(tier ModelTier) []string {
	seen := make(map[string]bool)
	var chain []string
	add := func(m string) {
		if m != "" && !seen[m] {
			seen[m] = true
			chain = append(chain, m)
		}
	}
	add(c.GetModel(tier))
	for _, m := range c.Fallbacks {
		add(m)
	}
	return chain
}

// WithModel returns a new Config with a specific model for a tier.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider:  c.Provider,
		Models:    make(map[ModelTier]string),
		Fallbacks: append([]string(nil), c.Fallbacks...),
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}
