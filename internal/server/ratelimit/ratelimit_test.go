package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(endpoints ...EndpointConfig) *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    5,
		DefaultWindow:   time.Minute,
		Whitelist:       map[string]bool{"10.0.0.1": true},
		Blacklist:       map[string]bool{"10.0.0.66": true},
		EndpointConfigs: endpoints,
	}
}

func TestTokenBucket_Take(t *testing.T) {
	bucket := newTokenBucket(3, 1)
	for i := 0; i < 3; i++ {
		ok, remaining, _ := bucket.take()
		require.True(t, ok, "request %d", i+1)
		assert.Equal(t, 2-i, remaining)
	}
	ok, remaining, reset := bucket.take()
	assert.False(t, ok)
	assert.Equal(t, 0, remaining)
	assert.True(t, reset.After(time.Now()))
}

func TestTokenBucket_Refill(t *testing.T) {
	bucket := newTokenBucket(2, 20) // one token every 50ms
	bucket.take()
	bucket.take()
	ok, _, _ := bucket.take()
	require.False(t, ok)

	time.Sleep(80 * time.Millisecond)
	ok, _, _ = bucket.take()
	assert.True(t, ok)
}

func TestLimiter_DefaultLimit(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()

	for i := 0; i < 5; i++ {
		ok, info := l.Allow("10.0.0.2", "/brands", "GET")
		require.True(t, ok)
		assert.Equal(t, 5, info.Limit)
	}
	// Reads share one default bucket across paths.
	ok, info := l.Allow("10.0.0.2", "/runs", "GET")
	assert.False(t, ok)
	assert.Positive(t, info.RetryAfter)

	ok, _ = l.Allow("10.0.0.3", "/runs", "GET")
	assert.True(t, ok, "other clients are unaffected")
}

func TestLimiter_Lists(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()

	for i := 0; i < 20; i++ {
		ok, _ := l.Allow("10.0.0.1", "/brands", "GET")
		require.True(t, ok)
	}
	ok, _ := l.Allow("10.0.0.66", "/health", "GET")
	assert.False(t, ok)
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(&Config{Enabled: false})
	defer l.Stop()
	for i := 0; i < 100; i++ {
		ok, info := l.Allow("10.0.0.2", "/analyze", "POST")
		require.True(t, ok)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_EndpointPatterns(t *testing.T) {
	l := NewLimiter(testConfig(
		EndpointConfig{Path: "/brands/*/aeo", Method: "POST", Limit: 2, Window: time.Hour},
	))
	defer l.Stop()

	// The pattern is one bucket no matter which brand is addressed.
	ok, _ := l.Allow("10.0.0.2", "/brands/a/aeo", "POST")
	require.True(t, ok)
	ok, _ = l.Allow("10.0.0.2", "/brands/b/aeo", "POST")
	require.True(t, ok)
	ok, info := l.Allow("10.0.0.2", "/brands/c/aeo", "POST")
	assert.False(t, ok)
	assert.Equal(t, 2, info.Limit)

	ok, _ = l.Allow("10.0.0.2", "/brands/a/aeo", "GET")
	assert.True(t, ok, "GET uses the default bucket")
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()
	for i := 0; i < 50; i++ {
		ok, _ := l.Allow("10.0.0.2", "/health", "GET")
		require.True(t, ok)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l := NewLimiter(testConfig(EndpointConfig{Path: "/analyze", Method: "POST", Limit: 10, Window: time.Hour}))
	defer l.Stop()

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("10.0.0.2", "/analyze", "POST"); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(10), allowed.Load())
}

func TestLimiter_EvictIdle(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()

	l.Allow("10.0.0.2", "/brands", "GET")
	l.evictIdle(time.Now().Add(-time.Hour))
	assert.Len(t, l.buckets, 1)

	l.evictIdle(time.Now().Add(time.Second))
	assert.Empty(t, l.buckets)
}

func TestLimiter_StopTwice(t *testing.T) {
	l := NewLimiter(nil)
	l.Stop()
	l.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	configs := EndpointConfigs(20, 20, 30)
	tests := []struct {
		path, method string
		want         string
	}{
		{"/analyze", "POST", "/analyze"},
		{"/analyze/stream", "POST", "/analyze/stream"},
		{"/brands/123/aeo", "POST", "/brands/*/aeo"},
		{"/brands/123/content/hooks", "POST", "/brands/*/content/"},
		{"/brands/123/aeo/keywords", "POST", "/brands/*/aeo/"},
		{"/brands/123", "PATCH", "/brands/"},
		{"/brands", "PATCH", ""},
		{"/brands/123/aeo", "GET", ""},
		{"/health", "GET", "/health"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Path)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2,")
	t.Setenv("RATE_LIMIT_ANALYZE_PER_HOUR", "7")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, map[string]bool{"10.0.0.1": true, "10.0.0.2": true}, cfg.Whitelist)
	ep := MatchEndpoint("/analyze", "POST", cfg.EndpointConfigs)
	require.NotNil(t, ep)
	assert.Equal(t, 7, ep.Limit)

	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "0")
	_, err = LoadConfig()
	assert.Error(t, err)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
}
