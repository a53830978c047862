package pipeline

import (
	"errors"

	"github.com/ppiankov/claimgraph/internal/cache"
	"github.com/ppiankov/claimgraph/internal/classify"
	"github.com/ppiankov/claimgraph/internal/contradict"
	"github.com/ppiankov/claimgraph/internal/llm"
	"github.com/ppiankov/claimgraph/internal/logger"
	"github.com/ppiankov/claimgraph/internal/model"
	"github.com/ppiankov/claimgraph/internal/synthesis"
)

// LLMStack is the configured provider with metering, retry and cache layers,
// plus the classifier, detector and synthesizer built on it
type LLMStack struct {
	ProviderName string
	Model        string

	Classifier  *classify.LLMClassifier
	Detector    *contradict.Detector
	Synthesizer *synthesis.Synthesizer
	Cached      *llm.CachedProvider // nil when caching is disabled

	closers []func() error
}

// NewLLMStack builds the stack from cfg. It returns nil, nil when no
// provider is configured. An unreachable redis only disables the shared layer.
func NewLLMStack(cfg *model.Config, log *logger.Logger) (*LLMStack, error) {
	base, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, nil
	}
	return newLLMStack(cfg, base, log), nil
}

func newLLMStack(cfg *model.Config, base llm.Provider, log *logger.Logger) *LLMStack {
	stack := &LLMStack{
		ProviderName: base.Name(),
		Model:        cfg.LLM.Model,
	}

	retrying := llm.WithRetry(llm.WithMetering(base), llm.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		MinBackoff:  cfg.Retry.MinBackoff,
		MaxBackoff:  cfg.Retry.MaxBackoff,
	})

	var classifierProvider llm.Provider = retrying
	if cfg.Cache.Enabled {
		var shared *cache.RedisCache
		if cfg.Cache.RedisAddr != "" {
			rc, err := cache.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.TTL)
			if err != nil {
				log.Warn("redis cache unavailable, continuing without it", "addr", cfg.Cache.RedisAddr, "error", err)
			} else {
				shared = rc
				stack.closers = append(stack.closers, rc.Close)
			}
		}
		stack.Cached = llm.WithCache(retrying, cache.NewDefaultCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL, shared), cfg.Cache.TTL)
		classifierProvider = stack.Cached
	}

	stack.Classifier = classify.NewLLMClassifier(classifierProvider, cfg.LLM.Model, cfg.LLM.MaxTokens)
	// contradiction and synthesis answers depend on the whole claim set, so they bypass the cache
	stack.Detector = contradict.NewDetector(retrying, cfg.LLM.Model, cfg.Contradictions.MaxClaims, cfg.Contradictions.MinConfidence)
	stack.Synthesizer = synthesis.NewSynthesizer(retrying, cfg.LLM.Model, cfg.Synthesis.MaxTokens, cfg.Synthesis.Temperature)

	log.Info("llm stack ready",
		"provider", stack.ProviderName,
		"model", stack.Model,
		"cache", cfg.Cache.Enabled,
		"retry_attempts", cfg.Retry.MaxAttempts,
	)
	return stack
}

// Close releases shared cache connections
func (s *LLMStack) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
