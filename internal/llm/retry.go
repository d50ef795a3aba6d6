package llm

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryPolicy retries a call with exponential backoff and jitter:
// attempt n sleeps Base*2^n plus up to Jitter.
type RetryPolicy struct {
	Retries int
	Base    time.Duration
	Jitter  time.Duration
}

// DefaultRetryPolicy matches answer-engine rate limits: 3 retries, 2s base, 1s jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Retries: 3, Base: 2 * time.Second, Jitter: time.Second}
}

// Do calls fn until it succeeds or the retries are exhausted, returning the last error.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= p.Retries {
			return err
		}
		wait := p.Base * time.Duration(1<<attempt)
		if p.Jitter > 0 {
			wait += time.Duration(rand.Int64N(int64(p.Jitter)))
		}
		if serr := sleepContext(ctx, wait); serr != nil {
			return serr
		}
	}
}
