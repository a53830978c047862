package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ppiankov/claimgraph/internal/cache"
)

// CachedProvider answers repeated prompts from a cache. Concurrent identical
// prompts share one upstream call.
type CachedProvider struct {
	Provider
	cache cache.Cache
	ttl   time.Duration
	group singleflight.Group
}

// WithCache wraps p with c
func WithCache(p Provider, c cache.Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{Provider: p, cache: c, ttl: ttl}
}

// Complete returns a cached reply when one exists for the same provider,
// model, system prompt and prompt
func (p *CachedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	key := cache.CacheKey(p.Name(), req.Model, req.System, req.Prompt, fmt.Sprint(req.JSON))

	if resp, ok := p.lookup(ctx, key); ok {
		return resp, nil
	}

	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		// a flight that finished since the lookup above has filled the cache
		if resp, ok := p.lookup(ctx, key); ok {
			return resp, nil
		}
		resp, err := p.Provider.Complete(ctx, req)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(resp); err == nil {
			_ = p.cache.Set(key, data, p.ttl)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	resp := *v.(*CompletionResponse)
	return &resp, nil
}

func (p *CachedProvider) lookup(ctx context.Context, key string) (*CompletionResponse, bool) {
	data, ok := p.cache.Get(key)
	if !ok {
		return nil, false
	}
	var resp CompletionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, false
	}
	UsageFrom(ctx).addCacheHit()
	// tokens were spent on the original call
	resp.TokensUsed = 0
	return &resp, true
}
