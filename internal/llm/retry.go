package llm

import (
	"context"
	"time"
)

// retrySleepFunc waits between attempts (injectable for tests)
var retrySleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryPolicy bounds retries of transient provider failures
type RetryPolicy struct {
	MaxAttempts int
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryPolicy is three attempts with backoff from 2s to 10s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, MinBackoff: 2 * time.Second, MaxBackoff: 10 * time.Second}
}

// backoff returns the wait before attempt+1: MinBackoff doubled per attempt, capped
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.MinBackoff << uint(attempt)
	if d <= 0 || (p.MaxBackoff > 0 && d > p.MaxBackoff) {
		d = p.MaxBackoff
	}
	return d
}

// RetryingProvider retries transient Complete failures with exponential backoff
type RetryingProvider struct {
	Provider
	policy RetryPolicy
}

// WithRetry wraps p with the given policy
func WithRetry(p Provider, policy RetryPolicy) *RetryingProvider {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	return &RetryingProvider{Provider: p, policy: policy}
}

// Complete calls the wrapped provider until it succeeds, fails permanently
// or runs out of attempts. The last error is returned.
func (p *RetryingProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var lastErr error
	for attempt := 0; attempt < p.policy.MaxAttempts; attempt++ {
		resp, err := p.Provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !IsRetryable(err) || ctx.Err() != nil {
			return nil, err
		}
		if attempt < p.policy.MaxAttempts-1 {
			if err := retrySleepFunc(ctx, p.policy.backoff(attempt)); err != nil {
				return nil, lastErr
			}
		}
	}
	return nil, lastErr
}
