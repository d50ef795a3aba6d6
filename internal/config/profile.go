package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Profile is a reusable run definition loaded from YAML.
// All fields are optional; missing values use defaults or CLI flags.
type Profile struct {
	URL           string   `yaml:"url,omitempty"`            // Homepage to analyze
	ExtraURLs     []string `yaml:"extra_urls,omitempty"`     // Additional pages merged into the profile
	CompetitorURL string   `yaml:"competitor_url,omitempty"` // Competitor homepage for battle cards
	MaxPages      int      `yaml:"max_pages,omitempty"`      // Upper bound on pages fetched per run

	Brand    string   `yaml:"brand,omitempty"`    // Brand name used for AEO checks
	Keywords []string `yaml:"keywords,omitempty"` // AEO query keywords
	Intents  []string `yaml:"intents,omitempty"`  // AEO intents (Informational, Commercial, ...)
	Region   string   `yaml:"region,omitempty"`   // Geo context injected into AEO prompts
	Audience string   `yaml:"audience,omitempty"` // Audience context for commercial prompts
	Runs     int      `yaml:"runs,omitempty"`     // Repetitions per query for stability scoring
	Risk     bool     `yaml:"risk,omitempty"`     // Append risk intents

	UseBrowser bool `yaml:"use_browser,omitempty"`
	Verbose    bool `yaml:"verbose,omitempty"`
}

// DefaultProfile returns the defaults applied to every run.
func DefaultProfile() Profile {
	return Profile{
		MaxPages: 5,
		Intents:  []string{"General"},
		Region:   "United States (US)",
		Audience: "General Audience",
		Runs:     1,
	}
}

// LoadProfile loads a run profile from a YAML file.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		return nil, fmt.Errorf("profile path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile YAML: %w", err)
	}
	return &p, nil
}

var knownIntents = map[string]bool{
	"Informational": true,
	"Commercial":    true,
	"Transactional": true,
	"General":       true,
}

// Validate checks that the profile has usable values.
func (p *Profile) Validate() error {
	if p.MaxPages < 0 {
		return fmt.Errorf("profile error: 'max_pages' must be non-negative")
	}
	if p.Runs < 0 {
		return fmt.Errorf("profile error: 'runs' must be non-negative")
	}
	if p.Runs > 10 {
		return fmt.Errorf("profile error: 'runs' must be at most 10, got %d", p.Runs)
	}
	for _, intent := range p.Intents {
		if !knownIntents[intent] {
			return fmt.Errorf("profile error: unknown intent %q", intent)
		}
	}
	return nil
}

// MergeWithDefaults returns a copy with zero-valued fields filled from defaults.
// Bools are never merged; CLI flags always win for them.
func (p *Profile) MergeWithDefaults(defaults Profile) Profile {
	result := *p

	if result.URL == "" {
		result.URL = defaults.URL
	}
	if result.CompetitorURL == "" {
		result.CompetitorURL = defaults.CompetitorURL
	}
	if len(result.ExtraURLs) == 0 {
		result.ExtraURLs = defaults.ExtraURLs
	}
	if result.MaxPages == 0 {
		result.MaxPages = defaults.MaxPages
	}
	if result.Brand == "" {
		result.Brand = defaults.Brand
	}
	if len(result.Keywords) == 0 {
		result.Keywords = defaults.Keywords
	}
	if len(result.Intents) == 0 {
		result.Intents = defaults.Intents
	}
	if result.Region == "" {
		result.Region = defaults.Region
	}
	if result.Audience == "" {
		result.Audience = defaults.Audience
	}
	if result.Runs == 0 {
		result.Runs = defaults.Runs
	}

	return result
}
