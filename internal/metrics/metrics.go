// Package metrics exposes Prometheus collectors for the analysis pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PairsClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimgraph_pairs_classified_total",
		Help: "Candidate pairs sent to the classifier, by outcome",
	}, []string{"outcome"})

	EdgesAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claimgraph_edges_accepted_total",
		Help: "Dependency edges stored after threshold filtering",
	})

	EdgesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claimgraph_edges_rejected_total",
		Help: "Classified edges dropped by the acceptance rule",
	})

	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "claimgraph_batch_duration_seconds",
		Help:    "Time to classify and commit one batch of pairs",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
	})

	ScoringDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "claimgraph_scoring_duration_seconds",
		Help:    "Time to score one dependency graph",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimgraph_analyses_total",
		Help: "Completed analyses, by status",
	}, []string{"status"})

	LLMTokens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claimgraph_llm_tokens_total",
		Help: "Tokens reported by upstream LLM completions",
	})

	LLMCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claimgraph_llm_cache_hits_total",
		Help: "LLM replies served from the response cache",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimgraph_http_requests_total",
		Help: "API requests, by route and status code",
	}, []string{"route", "code"})
)

// Outcome labels for PairsClassified
const (
	OutcomeEdge   = "edge"
	OutcomeNone   = "none"
	OutcomeFailed = "failed"
)
