package ratelimit

import (
	"strings"
)

// unlimited is returned for the health check.
var unlimited = &EndpointConfig{Path: "/health", Method: "GET"}

// MatchEndpoint finds the configuration for a request. Exact patterns win
// over prefix patterns; nil means the default limit applies.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == "GET" {
		return unlimited
	}

	for i := range configs {
		c := &configs[i]
		if c.Method == method && !strings.HasSuffix(c.Path, "/") && matchPattern(c.Path, path, false) {
			return c
		}
	}
	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && matchPattern(c.Path, path, true) {
			return c
		}
	}
	return nil
}

// matchPattern compares path segment by segment; "*" matches any single
// segment. With prefix set, path may continue past the pattern.
func matchPattern(pattern, path string, prefix bool) bool {
	pat := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if prefix {
		if len(got) <= len(pat) {
			return false
		}
	} else if len(got) != len(pat) {
		return false
	}
	for i, seg := range pat {
		if seg != "*" && seg != got[i] {
			return false
		}
	}
	return true
}
