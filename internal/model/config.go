package model

import (
	"fmt"
	"runtime"
	"time"
)

// Config is the complete claimgraph configuration.
// Values come from defaults, then the config file, then CLAIMGRAPH_* env vars, then flags.
type Config struct {
	LLM            LLMConfig            `yaml:"llm" mapstructure:"llm"`
	Selection      SelectionConfig      `yaml:"selection" mapstructure:"selection"`
	Graph          GraphConfig          `yaml:"graph" mapstructure:"graph"`
	Concurrency    ConcurrencyConfig    `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting   RateLimitConfig      `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Retry          RetryConfig          `yaml:"retry" mapstructure:"retry"`
	Cache          CacheConfig          `yaml:"cache" mapstructure:"cache"`
	Contradictions ContradictionsConfig `yaml:"contradictions" mapstructure:"contradictions"`
	Synthesis      SynthesisConfig      `yaml:"synthesis" mapstructure:"synthesis"`
	Server         ServerConfig         `yaml:"server" mapstructure:"server"`
	Output         OutputConfig         `yaml:"output" mapstructure:"output"`
	Log            LogConfig            `yaml:"log" mapstructure:"log"`
	Tracing        TracingConfig        `yaml:"tracing" mapstructure:"tracing"`
}

// LLMConfig configures the relationship classifier backend
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, gemini, anthropic, ollama
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	HTTPProxy   string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy  string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// SelectionConfig configures candidate pair generation
type SelectionConfig struct {
	MaxPairs   int `yaml:"max_pairs" mapstructure:"max_pairs"`
	BatchSize  int `yaml:"batch_size" mapstructure:"batch_size"`
	TypeWindow int `yaml:"type_window" mapstructure:"type_window"`
}

// GraphConfig configures edge acceptance and graph scoring
type GraphConfig struct {
	AcceptThreshold    float64 `yaml:"accept_threshold" mapstructure:"accept_threshold"`
	DampingFactor      float64 `yaml:"damping_factor" mapstructure:"damping_factor"`
	MaxIterations      int     `yaml:"max_iterations" mapstructure:"max_iterations"`
	Convergence        float64 `yaml:"convergence" mapstructure:"convergence"`
	FoundationalMinOut int     `yaml:"foundational_min_out" mapstructure:"foundational_min_out"`
	FoundationalMaxIn  int     `yaml:"foundational_max_in" mapstructure:"foundational_max_in"`
	PageRankWeight     float64 `yaml:"pagerank_weight" mapstructure:"pagerank_weight"`
	BetweennessWeight  float64 `yaml:"betweenness_weight" mapstructure:"betweenness_weight"`
	Weighted           bool    `yaml:"weighted" mapstructure:"weighted"`
}

// ConcurrencyConfig configures the classification worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig throttles calls to the LLM provider
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// RetryConfig controls retries of transient classifier failures
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	MinBackoff  time.Duration `yaml:"min_backoff" mapstructure:"min_backoff"`
	MaxBackoff  time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
}

// CacheConfig configures the classifier response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	TTL       time.Duration `yaml:"ttl" mapstructure:"ttl"`
	RedisAddr string        `yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`
}

// ContradictionsConfig configures contradiction detection
type ContradictionsConfig struct {
	Enabled       bool    `yaml:"enabled" mapstructure:"enabled"`
	MaxClaims     int     `yaml:"max_claims" mapstructure:"max_claims"`
	MinConfidence float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
}

// SynthesisConfig configures the narrative report written by the LLM
type SynthesisConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// OutputConfig configures report rendering
type OutputConfig struct {
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	TopClaims     int  `yaml:"top_claims" mapstructure:"top_claims"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"` // dev or prod
}

// TracingConfig configures OpenTelemetry span export
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	Exporter    string  `yaml:"exporter" mapstructure:"exporter"` // stdout or otlp
	Endpoint    string  `yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	Insecure    bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio" mapstructure:"sample_ratio"`
	ServiceName string  `yaml:"service_name" mapstructure:"service_name"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "",
			Model:       "",
			Timeout:     60,
			MaxTokens:   1024,
			Temperature: 0.1,
		},
		Selection: SelectionConfig{
			MaxPairs:   250,
			BatchSize:  15,
			TypeWindow: 3,
		},
		Graph: GraphConfig{
			AcceptThreshold:    0.7,
			DampingFactor:      0.85,
			MaxIterations:      100,
			Convergence:        1e-6,
			FoundationalMinOut: 3,
			FoundationalMaxIn:  2,
			PageRankWeight:     0.7,
			BetweennessWeight:  0.3,
			Weighted:           true,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			MinBackoff:  2 * time.Second,
			MaxBackoff:  10 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".claimgraph-cache",
			TTL:     24 * time.Hour,
		},
		Contradictions: ContradictionsConfig{
			Enabled:       true,
			MaxClaims:     50,
			MinConfidence: 0.7,
		},
		Synthesis: SynthesisConfig{
			Enabled:     true,
			MaxTokens:   8192,
			Temperature: 0.2,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Output: OutputConfig{
			IncludeFooter: true,
			TopClaims:     10,
		},
		Log: LogConfig{
			Mode: "dev",
		},
		Tracing: TracingConfig{
			Exporter:    "stdout",
			SampleRatio: 1,
			ServiceName: "claimgraph",
		},
	}
}

// Validate reports the first invalid value as an ErrConfig
func (c *Config) Validate() error {
	switch {
	case c.Selection.MaxPairs < 0:
		return fmt.Errorf("%w: selection.max_pairs must be > 0 (0 selects the default), got %d", ErrConfig, c.Selection.MaxPairs)
	case c.Selection.BatchSize <= 0:
		return fmt.Errorf("%w: selection.batch_size must be > 0, got %d", ErrConfig, c.Selection.BatchSize)
	case c.Selection.TypeWindow < 0:
		return fmt.Errorf("%w: selection.type_window must be >= 0, got %d", ErrConfig, c.Selection.TypeWindow)
	case c.Graph.AcceptThreshold < 0 || c.Graph.AcceptThreshold > 1:
		return fmt.Errorf("%w: graph.accept_threshold must be in [0,1], got %g", ErrConfig, c.Graph.AcceptThreshold)
	case c.Graph.DampingFactor <= 0 || c.Graph.DampingFactor >= 1:
		return fmt.Errorf("%w: graph.damping_factor must be in (0,1), got %g", ErrConfig, c.Graph.DampingFactor)
	case c.Graph.MaxIterations <= 0:
		return fmt.Errorf("%w: graph.max_iterations must be > 0, got %d", ErrConfig, c.Graph.MaxIterations)
	case c.Concurrency.Workers <= 0:
		return fmt.Errorf("%w: concurrency.workers must be > 0, got %d", ErrConfig, c.Concurrency.Workers)
	case c.Retry.MaxAttempts <= 0:
		return fmt.Errorf("%w: retry.max_attempts must be > 0, got %d", ErrConfig, c.Retry.MaxAttempts)
	case c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1:
		return fmt.Errorf("%w: tracing.sample_ratio must be in [0,1], got %g", ErrConfig, c.Tracing.SampleRatio)
	case c.Tracing.Enabled && c.Tracing.Exporter != "stdout" && c.Tracing.Exporter != "otlp":
		return fmt.Errorf("%w: tracing.exporter must be stdout or otlp, got %q", ErrConfig, c.Tracing.Exporter)
	}
	return nil
}
