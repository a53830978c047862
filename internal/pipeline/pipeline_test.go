package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimgraph/internal/contradict"
	"github.com/ppiankov/claimgraph/internal/llm"
	"github.com/ppiankov/claimgraph/internal/logger"
	"github.com/ppiankov/claimgraph/internal/metrics"
	"github.com/ppiankov/claimgraph/internal/model"
	"github.com/ppiankov/claimgraph/internal/synthesis"
)

// hubClassifier links "a" to every other claim, fails on pairs with "e"
// and finds nothing elsewhere
type hubClassifier struct{}

func (hubClassifier) Classify(_ context.Context, a, b model.Claim) ([]model.Dependency, error) {
	switch {
	case a.ID == "a" || b.ID == "a":
		other := b.ID
		if b.ID == "a" {
			other = a.ID
		}
		return []model.Dependency{{SourceID: "a", TargetID: other, Kind: model.RelationCausal, Confidence: 0.9}}, nil
	case a.ID == "e" || b.ID == "e":
		return nil, errors.New("upstream timeout")
	default:
		return []model.Dependency{}, nil
	}
}

type stubProvider struct {
	reply string
	err   error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Text: s.reply, TokensUsed: 10}, nil
}

func (s *stubProvider) IsAvailable(context.Context) bool { return true }

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Selection.BatchSize = 3
	cfg.Concurrency.Workers = 2
	cfg.RateLimiting.RequestsPerSecond = 0
	cfg.Cache.Enabled = false
	return cfg
}

func testClaims() []model.Claim {
	return []model.Claim{
		{ID: "a", Text: "Rates rose", Type: model.ClaimTypeFactual, Confidence: 0.95},
		{ID: "b", Text: "Demand fell", Type: model.ClaimTypeFactual, Confidence: 0.5},
		{ID: "c", Text: "Prices dipped", Type: model.ClaimTypeFactual, Confidence: 0.5},
		{ID: "d", Text: "Builders paused", Type: model.ClaimTypeFactual, Confidence: 0.5},
		{ID: "e", Text: "Rents climbed", Type: model.ClaimTypeFactual, Confidence: 0.5},
	}
}

func TestAnalyze_NoClassifier(t *testing.T) {
	a, err := NewAnalyzer(testConfig())
	require.NoError(t, err)
	assert.False(t, a.HasClassifier())

	_, err = a.Analyze(context.Background(), "doc", testClaims())
	assert.ErrorIs(t, err, ErrNoClassifier)
	assert.ErrorIs(t, err, model.ErrConfig)
}

func TestNewAnalyzer_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Selection.BatchSize = 0
	_, err := NewAnalyzer(cfg)
	assert.ErrorIs(t, err, model.ErrConfig)
}

func TestAnalyze_BuildsReport(t *testing.T) {
	a, err := NewAnalyzer(testConfig(), WithClassifier(hubClassifier{}))
	require.NoError(t, err)

	report, err := a.Analyze(context.Background(), "housing.json", testClaims())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "housing.json", report.Subject)
	assert.Equal(t, model.RunStats{
		TotalClaims:          5,
		CandidatePairs:       10,
		PairsClassified:      7,
		ClassificationErrors: 3,
		DependenciesFound:    4,
		Batches:              4,
	}, report.Stats)
	assert.Len(t, report.Dependencies, 4)

	require.Len(t, report.Claims, 5)
	hub := report.Claims[0]
	require.True(t, hub.IsScored())
	assert.True(t, hub.IsFoundational)
	for _, c := range report.Claims[1:] {
		assert.Less(t, c.ImportanceOrZero(), hub.ImportanceOrZero(), c.ID)
		assert.False(t, c.IsFoundational)
	}

	sum := 0.0
	for _, e := range report.Scoring.Scores {
		sum += e.Importance
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	assert.Nil(t, report.LLM)
	assert.NotEmpty(t, report.Score.Signals)

	require.NotNil(t, report.KeyFindings)
	require.Len(t, report.KeyFindings.TopClaims, 5)
	assert.Equal(t, "a", report.KeyFindings.TopClaims[0].ID)
	assert.Equal(t, 1, report.KeyFindings.FoundationalCount)
	require.NotNil(t, report.Recommendations)
	assert.Zero(t, report.Recommendations.AreasNeedingClarification)
	assert.Len(t, report.Recommendations.SuggestedNextSteps, 3)
	assert.Empty(t, report.Synthesis)
}

func TestAnalyze_Progress(t *testing.T) {
	var mu sync.Mutex
	var percents []int
	a, err := NewAnalyzer(testConfig(),
		WithClassifier(hubClassifier{}),
		WithProgress(func(_ string, p int) {
			mu.Lock()
			percents = append(percents, p)
			mu.Unlock()
		}),
	)
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), "doc", testClaims())
	require.NoError(t, err)

	require.NotEmpty(t, percents)
	assert.Equal(t, 10, percents[0])
	assert.Equal(t, 100, percents[len(percents)-1])
	assert.Contains(t, percents, 80)
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1])
	}
}

func TestAnalyze_Cancelled(t *testing.T) {
	a, err := NewAnalyzer(testConfig(), WithClassifier(hubClassifier{}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = a.Analyze(ctx, "doc", testClaims())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_DuplicateClaims(t *testing.T) {
	a, err := NewAnalyzer(testConfig(), WithClassifier(hubClassifier{}))
	require.NoError(t, err)

	claims := append(testClaims(), model.Claim{ID: "a"})
	_, err = a.Analyze(context.Background(), "doc", claims)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestAnalyze_Contradictions(t *testing.T) {
	provider := &stubProvider{reply: `{"contradictions": [{"claim_a_id": "b", "claim_b_id": "c", "type": "direct", "severity": "high", "confidence": 0.9}]}`}
	a, err := NewAnalyzer(testConfig(),
		WithClassifier(hubClassifier{}),
		WithDetector(contradict.NewDetector(provider, "", 0, 0)),
	)
	require.NoError(t, err)

	report, err := a.Analyze(context.Background(), "doc", testClaims())
	require.NoError(t, err)
	require.Len(t, report.Contradictions, 1)
	assert.Equal(t, 1, report.Stats.TotalContradictions)
	assert.True(t, report.Score.Conflict)
}

func TestAnalyze_ContradictionFailureIsNotFatal(t *testing.T) {
	provider := &stubProvider{err: errors.New("quota exhausted")}
	a, err := NewAnalyzer(testConfig(),
		WithClassifier(hubClassifier{}),
		WithDetector(contradict.NewDetector(provider, "", 0, 0)),
	)
	require.NoError(t, err)

	report, err := a.Analyze(context.Background(), "doc", testClaims())
	require.NoError(t, err)
	assert.Empty(t, report.Contradictions)
}

func TestAnalyze_Synthesis(t *testing.T) {
	provider := &stubProvider{reply: "## 1. EXECUTIVE SUMMARY\nClaim a anchors the graph."}
	var mu sync.Mutex
	var percents []int
	a, err := NewAnalyzer(testConfig(),
		WithClassifier(hubClassifier{}),
		WithSynthesizer(synthesis.NewSynthesizer(provider, "", 0, 0)),
		WithProgress(func(_ string, p int) {
			mu.Lock()
			percents = append(percents, p)
			mu.Unlock()
		}),
	)
	require.NoError(t, err)

	report, err := a.Analyze(context.Background(), "doc", testClaims())
	require.NoError(t, err)
	assert.Equal(t, "## 1. EXECUTIVE SUMMARY\nClaim a anchors the graph.", report.Synthesis)
	assert.Contains(t, percents, 95)
}

func TestAnalyze_SynthesisDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Synthesis.Enabled = false
	a, err := NewAnalyzer(cfg,
		WithClassifier(hubClassifier{}),
		WithSynthesizer(synthesis.NewSynthesizer(&stubProvider{reply: "text"}, "", 0, 0)),
	)
	require.NoError(t, err)

	report, err := a.Analyze(context.Background(), "doc", testClaims())
	require.NoError(t, err)
	assert.Empty(t, report.Synthesis)
	assert.NotNil(t, report.KeyFindings)
}

func TestAnalyze_SynthesisFailureIsNotFatal(t *testing.T) {
	a, err := NewAnalyzer(testConfig(),
		WithClassifier(hubClassifier{}),
		WithSynthesizer(synthesis.NewSynthesizer(&stubProvider{err: errors.New("quota exhausted")}, "", 0, 0)),
	)
	require.NoError(t, err)

	report, err := a.Analyze(context.Background(), "doc", testClaims())
	require.NoError(t, err)
	assert.Empty(t, report.Synthesis)
	assert.NotNil(t, report.KeyFindings)
	assert.NotNil(t, report.Recommendations)
}

func TestNewLLMStack_Disabled(t *testing.T) {
	stack, err := NewLLMStack(testConfig(), logger.NewNop())
	require.NoError(t, err)
	assert.Nil(t, stack)
	assert.NoError(t, stack.Close())
}

func TestNewLLMStack_UnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.Provider = "watson"
	_, err := NewLLMStack(cfg, logger.NewNop())
	assert.ErrorIs(t, err, model.ErrConfig)
}

func TestLLMStack_AnalyzeReportsUsage(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.Dir = t.TempDir()
	cfg.LLM.Model = "stub-1"

	provider := &stubProvider{reply: `{"relationship_type": "evidential", "direction": "A_to_B", "confidence": 0.9}`}
	stack := newLLMStack(cfg, provider, logger.NewNop())
	require.NotNil(t, stack.Cached)
	defer func() { assert.NoError(t, stack.Close()) }()

	a, err := NewAnalyzer(cfg, WithLLM(stack))
	require.NoError(t, err)
	require.True(t, a.HasClassifier())

	tokensBefore := testutil.ToFloat64(metrics.LLMTokens)

	// 10 pair classifications, one contradiction call, one synthesis call
	first, err := a.Analyze(context.Background(), "doc", testClaims())
	require.NoError(t, err)
	assert.Equal(t, tokensBefore+120, testutil.ToFloat64(metrics.LLMTokens))
	require.NotNil(t, first.LLM)
	assert.Equal(t, "stub", first.LLM.Provider)
	assert.Equal(t, 120, first.LLM.TokensUsed)
	assert.Zero(t, first.LLM.CacheHits)
	assert.NotEmpty(t, first.Synthesis)

	// classifications come from the cache; contradictions and synthesis do not
	second, err := a.Analyze(context.Background(), "doc", testClaims())
	require.NoError(t, err)
	assert.Equal(t, 20, second.LLM.TokensUsed)
	assert.Equal(t, 10, second.LLM.CacheHits)
}

func TestLLMStack_ConcurrentRunsCountSeparately(t *testing.T) {
	cfg := testConfig()
	provider := &stubProvider{reply: `{"relationship_type": "evidential", "direction": "A_to_B", "confidence": 0.9}`}
	stack := newLLMStack(cfg, provider, logger.NewNop())

	a, err := NewAnalyzer(cfg, WithLLM(stack))
	require.NoError(t, err)

	inputs := [][]model.Claim{testClaims(), testClaims()[:3]}
	reports := make([]*model.Report, len(inputs))
	errs := make([]error, len(inputs))
	var wg sync.WaitGroup
	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reports[i], errs[i] = a.Analyze(context.Background(), "doc", inputs[i])
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	// pairs plus one contradiction and one synthesis call, 10 tokens each
	assert.Equal(t, 120, reports[0].LLM.TokensUsed)
	assert.Equal(t, 50, reports[1].LLM.TokensUsed)
}

func TestRenderer(t *testing.T) {
	a, err := NewAnalyzer(testConfig(), WithClassifier(hubClassifier{}))
	require.NoError(t, err)
	report, err := a.Analyze(context.Background(), "housing", testClaims())
	require.NoError(t, err)

	var buf bytes.Buffer
	r := NewRenderer(true, 3)
	require.NoError(t, r.WriteMarkdown(&buf, report))

	md := buf.String()
	assert.Contains(t, md, "# Claim dependency report: housing")
	assert.Contains(t, md, "| Classification errors | 3 |")
	assert.Contains(t, md, "- `a` Rates rose")
	assert.Contains(t, md, "### causal (4)")
	assert.Contains(t, md, "acceptance threshold")
	assert.Contains(t, md, "## Key findings")
	assert.Contains(t, md, "Foundational claims: 1")
	assert.Contains(t, md, "- Validate foundational claims")
	assert.NotContains(t, md, "## Synthesis")

	report.Synthesis = "## 1. EXECUTIVE SUMMARY\nAll claims rest on a."
	buf.Reset()
	require.NoError(t, r.WriteMarkdown(&buf, report))
	assert.Contains(t, buf.String(), "## Synthesis\n\n## 1. EXECUTIVE SUMMARY\nAll claims rest on a.\n\n")

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "out", "report.json")
	mdPath := filepath.Join(dir, "out", "report.md")
	require.NoError(t, r.RenderReport(report, jsonPath, mdPath))
	for _, p := range []string{jsonPath, mdPath} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}
