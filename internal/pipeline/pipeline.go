package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppiankov/claimgraph/internal/classify"
	"github.com/ppiankov/claimgraph/internal/contradict"
	"github.com/ppiankov/claimgraph/internal/graph"
	"github.com/ppiankov/claimgraph/internal/llm"
	"github.com/ppiankov/claimgraph/internal/logger"
	"github.com/ppiankov/claimgraph/internal/metrics"
	"github.com/ppiankov/claimgraph/internal/model"
	"github.com/ppiankov/claimgraph/internal/pairs"
	"github.com/ppiankov/claimgraph/internal/score"
	"github.com/ppiankov/claimgraph/internal/store"
	"github.com/ppiankov/claimgraph/internal/synthesis"
	"github.com/ppiankov/claimgraph/internal/worker"
)

// ErrNoClassifier is returned by Analyze when no LLM provider is configured
var ErrNoClassifier = fmt.Errorf("%w: no relationship classifier configured", model.ErrConfig)

// ProgressFunc receives stage names and a completion percentage
type ProgressFunc func(stage string, percent int)

// Analyzer orchestrates one analysis: select pairs, classify them in
// committed batches, score the graph, detect contradictions, build and
// synthesize the report
type Analyzer struct {
	config      *model.Config
	selector    *pairs.Selector
	scorer      *graph.Scorer
	diagnostics *score.Scorer
	runner      *worker.BatchRunner
	classifier  classify.Classifier
	detector    *contradict.Detector
	synthesizer *synthesis.Synthesizer
	llm         *LLMStack
	log         *logger.Logger
	progress    ProgressFunc
}

// Option customizes an Analyzer
type Option func(*Analyzer)

// WithLLM wires the classifier, contradiction detector and synthesizer of stack
func WithLLM(stack *LLMStack) Option {
	return func(a *Analyzer) {
		if stack == nil {
			return
		}
		a.llm = stack
		a.classifier = stack.Classifier
		a.detector = stack.Detector
		a.synthesizer = stack.Synthesizer
	}
}

// WithClassifier overrides the relationship classifier
func WithClassifier(c classify.Classifier) Option {
	return func(a *Analyzer) { a.classifier = c }
}

// WithDetector overrides the contradiction detector
func WithDetector(d *contradict.Detector) Option {
	return func(a *Analyzer) { a.detector = d }
}

// WithSynthesizer overrides the report synthesizer
func WithSynthesizer(s *synthesis.Synthesizer) Option {
	return func(a *Analyzer) { a.synthesizer = s }
}

func WithLogger(l *logger.Logger) Option {
	return func(a *Analyzer) { a.log = l }
}

func WithProgress(fn ProgressFunc) Option {
	return func(a *Analyzer) { a.progress = fn }
}

// NewAnalyzer validates cfg and builds an analyzer
func NewAnalyzer(cfg *model.Config, opts ...Option) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	selector, err := pairs.NewSelector(pairs.Options{
		MaxPairs:   cfg.Selection.MaxPairs,
		TypeWindow: cfg.Selection.TypeWindow,
	})
	if err != nil {
		return nil, err
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	runner, err := worker.NewBatchRunner(cfg.Selection.BatchSize, cfg.Concurrency.Workers, limiter, cfg.LLM.Provider)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		config:      cfg,
		selector:    selector,
		scorer:      graph.NewScorer(graph.OptionsFromConfig(cfg.Graph)),
		diagnostics: score.NewScorer(),
		runner:      runner,
		log:         logger.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// HasClassifier reports whether Analyze can run
func (a *Analyzer) HasClassifier() bool {
	return a.classifier != nil
}

// Selector returns the candidate pair selector
func (a *Analyzer) Selector() *pairs.Selector {
	return a.selector
}

// Scorer returns the dependency graph scorer
func (a *Analyzer) Scorer() *graph.Scorer {
	return a.scorer
}

// Analyze runs the full pipeline over claims. Claims without an ID get a
// generated one. Classification failures of single pairs are counted, not
// fatal; cancellation stops at the next batch boundary and returns ctx's error.
// Token and cache hit counts in the report cover this run only.
func (a *Analyzer) Analyze(ctx context.Context, subject string, claims []model.Claim) (*model.Report, error) {
	if a.classifier == nil {
		return nil, ErrNoClassifier
	}

	runID := uuid.NewString()
	log := a.log.With("run_id", runID, "subject", subject)
	started := time.Now()

	ctx, span := otel.Tracer("claimgraph.pipeline").Start(ctx, "pipeline.Analyze",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.Int("claims", len(claims)),
		),
	)
	defer span.End()

	ctx, usage := llm.WithUsage(ctx)
	report, err := a.analyze(ctx, log, runID, subject, claims)
	metrics.LLMTokens.Add(float64(usage.Tokens()))
	metrics.LLMCacheHits.Add(float64(usage.CacheHits()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.AnalysesTotal.WithLabelValues("failed").Inc()
		log.Error("analysis failed", "error", err, "elapsed", time.Since(started))
		return nil, err
	}

	if a.llm != nil {
		report.LLM = &model.LLMInfo{
			Provider:   a.llm.ProviderName,
			Model:      a.llm.Model,
			TokensUsed: int(usage.Tokens()),
			CacheHits:  int(usage.CacheHits()),
		}
	}

	span.SetAttributes(
		attribute.Int("edges", report.Stats.DependenciesFound),
		attribute.Int("contradictions", report.Stats.TotalContradictions),
		attribute.Int64("llm_tokens", usage.Tokens()),
	)
	metrics.AnalysesTotal.WithLabelValues("ok").Inc()
	log.Info("analysis complete",
		"claims", report.Stats.TotalClaims,
		"edges", report.Stats.DependenciesFound,
		"contradictions", report.Stats.TotalContradictions,
		"llm_calls", usage.Calls(),
		"elapsed", time.Since(started),
	)
	return report, nil
}

func (a *Analyzer) analyze(ctx context.Context, log *logger.Logger, runID, subject string, input []model.Claim) (*model.Report, error) {
	mem := store.NewMemory(a.scorer.Options().AcceptThreshold)
	defer mem.Drop(runID)

	claims, err := mem.AddClaims(ctx, runID, input)
	if err != nil {
		return nil, err
	}

	// 1. Candidate pairs
	a.step("selecting pairs", 10)
	candidates, err := a.selector.Select(claims)
	if err != nil {
		return nil, fmt.Errorf("select pairs: %w", err)
	}
	stats := model.RunStats{TotalClaims: len(claims), CandidatePairs: len(candidates)}
	log.Info("candidate pairs selected", "claims", len(claims), "pairs", len(candidates), "budget", a.selector.MaxPairs())
	a.step("classifying pairs", 20)

	// 2. Classification in committed batches
	if err := a.classifyPairs(ctx, log, mem, runID, claims, candidates, &stats); err != nil {
		return nil, err
	}

	// 3. Scoring
	a.step("scoring graph", 85)
	edges, err := mem.Edges(ctx, runID)
	if err != nil {
		return nil, err
	}
	stats.DependenciesFound = len(edges)

	scoringStart := time.Now()
	result, err := a.scorer.Score(ctx, claims, edges)
	if err != nil {
		return nil, fmt.Errorf("score graph: %w", err)
	}
	metrics.ScoringDuration.Observe(time.Since(scoringStart).Seconds())

	if err := mem.ApplyScores(ctx, runID, result); err != nil {
		return nil, fmt.Errorf("apply scores: %w", err)
	}
	scored, err := mem.Claims(ctx, runID)
	if err != nil {
		return nil, err
	}

	// 4. Contradictions never block the report
	a.step("detecting contradictions", 90)
	contradictions := []model.Contradiction{}
	if a.detector != nil && a.config.Contradictions.Enabled {
		found, err := a.detector.Detect(ctx, scored)
		if err != nil {
			log.Warn("contradiction detection failed", "error", err)
		} else {
			contradictions = found
		}
	}
	stats.TotalContradictions = len(contradictions)

	// 5. Report
	report := &model.Report{
		RunID:          runID,
		Subject:        subject,
		GeneratedAt:    time.Now().UTC(),
		Claims:         scored,
		Dependencies:   edges,
		Contradictions: contradictions,
		Stats:          stats,
		Scoring:        result,
	}
	report.Score = a.diagnostics.Calculate(score.Input{
		Claims:         scored,
		Edges:          edges,
		Stats:          stats,
		Scoring:        result,
		Contradictions: contradictions,
	})
	report.KeyFindings = synthesis.KeyFindingsFor(report)
	report.Recommendations = synthesis.RecommendationsFor(report)

	// 6. Synthesis never blocks the report either
	if a.synthesizer != nil && a.config.Synthesis.Enabled {
		a.step("synthesizing report", 95)
		text, err := a.synthesizer.Synthesize(ctx, report)
		if err != nil {
			log.Warn("report synthesis failed", "error", err)
		} else {
			report.Synthesis = text
		}
	}

	a.step("complete", 100)
	return report, nil
}

func (a *Analyzer) classifyPairs(ctx context.Context, log *logger.Logger, mem *store.Memory, runID string, claims []model.Claim, candidates []model.CandidatePair, stats *model.RunStats) error {
	total := a.runner.BatchCount(len(candidates))
	lastCommit := time.Now()

	commit := func(ctx context.Context, batch worker.BatchResult) error {
		var deps []model.Dependency
		for _, res := range batch.Results {
			if res.Error != nil {
				stats.ClassificationErrors++
				metrics.PairsClassified.WithLabelValues(metrics.OutcomeFailed).Inc()
				log.Warn("pair classification failed",
					"source", res.Pair.SourceID,
					"target", res.Pair.TargetID,
					"error", res.Error,
				)
				continue
			}
			stats.PairsClassified++
			if len(res.Dependencies) == 0 {
				metrics.PairsClassified.WithLabelValues(metrics.OutcomeNone).Inc()
				continue
			}
			metrics.PairsClassified.WithLabelValues(metrics.OutcomeEdge).Inc()
			deps = append(deps, res.Dependencies...)
		}

		upserted, err := mem.UpsertEdges(ctx, runID, deps)
		if err != nil {
			return err
		}
		stats.EdgesRejected += upserted.Rejected
		metrics.EdgesAccepted.Add(float64(upserted.Accepted))
		metrics.EdgesRejected.Add(float64(upserted.Rejected))

		now := time.Now()
		metrics.BatchDuration.Observe(now.Sub(lastCommit).Seconds())
		lastCommit = now

		log.Debug("batch committed",
			"batch", batch.Index+1,
			"of", total,
			"accepted", upserted.Accepted,
			"rejected", upserted.Rejected,
		)
		a.step(fmt.Sprintf("classified batch %d/%d", batch.Index+1, total), 20+60*(batch.Index+1)/total)
		return nil
	}

	runStats, err := a.runner.Run(ctx, candidates, classify.PairFunc(a.classifier, claims), commit)
	stats.Batches = runStats.Batches
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Warn("classification interrupted", "committed_batches", runStats.Batches, "of", total)
		}
		return fmt.Errorf("classify pairs: %w", err)
	}
	return nil
}

func (a *Analyzer) step(stage string, percent int) {
	if a.progress != nil {
		a.progress(stage, percent)
	}
	a.log.Debug("progress", "stage", stage, "percent", percent)
}
