package llm

import (
	"context"
	"sync/atomic"
)

// Usage counts the provider calls, tokens and cache hits of one request
// scope, such as a single analysis run. A nil *Usage ignores every update.
type Usage struct {
	calls     atomic.Int64
	tokens    atomic.Int64
	cacheHits atomic.Int64
}

type usageKey struct{}

// WithUsage attaches a fresh Usage to ctx
func WithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFrom returns the Usage attached to ctx, or nil
func UsageFrom(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// Calls returns how many completions reached the upstream provider
func (u *Usage) Calls() int64 {
	if u == nil {
		return 0
	}
	return u.calls.Load()
}

// Tokens returns the tokens reported by upstream completions
func (u *Usage) Tokens() int64 {
	if u == nil {
		return 0
	}
	return u.tokens.Load()
}

// CacheHits returns how many replies came from the cache
func (u *Usage) CacheHits() int64 {
	if u == nil {
		return 0
	}
	return u.cacheHits.Load()
}

func (u *Usage) addCompletion(tokens int) {
	if u == nil {
		return
	}
	u.calls.Add(1)
	u.tokens.Add(int64(tokens))
}

func (u *Usage) addCacheHit() {
	if u == nil {
		return
	}
	u.cacheHits.Add(1)
}

// MeteredProvider records each successful completion in the Usage of the
// request context. It sits directly on the base provider so retries count
// once per answered attempt and cache hits never reach it.
type MeteredProvider struct {
	Provider
}

// WithMetering wraps p
func WithMetering(p Provider) *MeteredProvider {
	return &MeteredProvider{Provider: p}
}

func (p *MeteredProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	resp, err := p.Provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	UsageFrom(ctx).addCompletion(resp.TokensUsed)
	return resp, nil
}
