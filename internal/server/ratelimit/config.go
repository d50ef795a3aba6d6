package ratelimit

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EndpointConfig is the limit for one route.
type EndpointConfig struct {
	Path   string        // route pattern; "*" matches one path segment, a trailing "/" matches any suffix
	Method string        // HTTP method
	Limit  int           // requests per window
	Window time.Duration // refill window
	Burst  int           // bucket capacity, defaults to Limit
}

// envConfig mirrors the RATE_LIMIT_* variables.
type envConfig struct {
	Enabled         bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	DefaultLimit    int           `env:"RATE_LIMIT_DEFAULT_LIMIT" envDefault:"600"`
	DefaultWindow   time.Duration `env:"RATE_LIMIT_DEFAULT_WINDOW" envDefault:"1m"`
	CleanupInterval time.Duration `env:"RATE_LIMIT_CLEANUP_INTERVAL" envDefault:"5m"`
	Whitelist       []string      `env:"RATE_LIMIT_WHITELIST" envSeparator:","`
	Blacklist       []string      `env:"RATE_LIMIT_BLACKLIST" envSeparator:","`
	AnalyzeLimit    int           `env:"RATE_LIMIT_ANALYZE_PER_HOUR" envDefault:"20"`
	AEOLimit        int           `env:"RATE_LIMIT_AEO_PER_HOUR" envDefault:"20"`
	ContentLimit    int           `env:"RATE_LIMIT_CONTENT_PER_MINUTE" envDefault:"30"`
}

// LoadConfig reads the rate limiting configuration from RATE_LIMIT_* variables.
func LoadConfig() (*Config, error) {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		return nil, fmt.Errorf("invalid rate limit configuration: %w", err)
	}
	if !e.Enabled {
		return &Config{Enabled: false}, nil
	}
	if e.DefaultLimit < 1 || e.DefaultWindow <= 0 {
		return nil, fmt.Errorf("invalid rate limit default: %d per %s", e.DefaultLimit, e.DefaultWindow)
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    e.DefaultLimit,
		DefaultWindow:   e.DefaultWindow,
		CleanupInterval: e.CleanupInterval,
		Whitelist:       parseIPList(e.Whitelist),
		Blacklist:       parseIPList(e.Blacklist),
		EndpointConfigs: EndpointConfigs(e.AnalyzeLimit, e.AEOLimit, e.ContentLimit),
	}, nil
}

// EndpointConfigs returns the per-route limits. Runs that crawl and call the
// models are limited per hour; content generation per minute.
func EndpointConfigs(analyzePerHour, aeoPerHour, contentPerMinute int) []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: pipeline runs
		{Path: "/analyze", Method: "POST", Limit: analyzePerHour, Window: time.Hour, Burst: 3},
		{Path: "/analyze/stream", Method: "POST", Limit: analyzePerHour, Window: time.Hour, Burst: 3},
		{Path: "/brands/*/aeo", Method: "POST", Limit: aeoPerHour, Window: time.Hour, Burst: 3},

		// Tier 2: single model calls and crawls
		{Path: "/brands/*/content/", Method: "POST", Limit: contentPerMinute, Window: time.Minute, Burst: 5},
		{Path: "/brands/*/aeo/", Method: "POST", Limit: contentPerMinute, Window: time.Minute, Burst: 5},
		{Path: "/brands/*/assets", Method: "POST", Limit: contentPerMinute, Window: time.Minute, Burst: 5},
		{Path: "/audit", Method: "POST", Limit: contentPerMinute, Window: time.Minute, Burst: 5},

		// Tier 3: writes
		{Path: "/brands/", Method: "PATCH", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/brands/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/brands/*/campaigns", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},

		// Reads fall back to the default limit; /health is unlimited.
	}
}

// parseIPList turns a list of addresses into a set, ignoring blanks.
func parseIPList(list []string) map[string]bool {
	result := make(map[string]bool, len(list))
	for _, ip := range list {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
