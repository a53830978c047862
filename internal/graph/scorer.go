// Package graph scores claims by their position in the dependency graph.
//
// The scorer is a pure function of the claim set and the accepted edges: it
// builds an index-based graph per call, runs PageRank and betweenness over it
// and returns a ScoringResult. Persisting the result is the caller's job.
package graph

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppiankov/claimgraph/internal/model"
)

// Scoring defaults
const (
	DefaultFoundationalMinOut = 3
	DefaultFoundationalMaxIn  = 2
	DefaultPageRankWeight     = 0.7
	DefaultBetweennessWeight  = 0.3
)

// Options configures a Scorer
type Options struct {
	// AcceptThreshold is the confidence an edge must strictly exceed. Default: 0.7
	AcceptThreshold float64

	// DampingFactor must be in (0, 1). Default: 0.85
	DampingFactor float64

	// MaxIterations caps power iteration. Default: 100
	MaxIterations int

	// Convergence stops iteration once no score moves more than this. Default: 1e-6
	Convergence float64

	// A claim is foundational when out-degree >= FoundationalMinOut
	// and in-degree <= FoundationalMaxIn. Defaults: 3 and 2
	FoundationalMinOut int
	FoundationalMaxIn  int

	// Importance = PageRankWeight*pagerank + BetweennessWeight*betweenness,
	// renormalized over all claims. Defaults: 0.7 and 0.3
	PageRankWeight    float64
	BetweennessWeight float64

	// Weighted uses edge confidence as the PageRank transition weight
	Weighted bool
}

// DefaultOptions returns the standard scoring configuration
func DefaultOptions() Options {
	return Options{
		AcceptThreshold:    DefaultAcceptThreshold,
		DampingFactor:      DefaultDampingFactor,
		MaxIterations:      DefaultMaxIterations,
		Convergence:        DefaultConvergence,
		FoundationalMinOut: DefaultFoundationalMinOut,
		FoundationalMaxIn:  DefaultFoundationalMaxIn,
		PageRankWeight:     DefaultPageRankWeight,
		BetweennessWeight:  DefaultBetweennessWeight,
		Weighted:           true,
	}
}

// OptionsFromConfig maps the graph section of the configuration
func OptionsFromConfig(cfg model.GraphConfig) Options {
	return Options{
		AcceptThreshold:    cfg.AcceptThreshold,
		DampingFactor:      cfg.DampingFactor,
		MaxIterations:      cfg.MaxIterations,
		Convergence:        cfg.Convergence,
		FoundationalMinOut: cfg.FoundationalMinOut,
		FoundationalMaxIn:  cfg.FoundationalMaxIn,
		PageRankWeight:     cfg.PageRankWeight,
		BetweennessWeight:  cfg.BetweennessWeight,
		Weighted:           cfg.Weighted,
	}
}

// Validate applies defaults for out-of-range values
func (o *Options) Validate() {
	if o.AcceptThreshold < 0 || o.AcceptThreshold > 1 {
		o.AcceptThreshold = DefaultAcceptThreshold
	}
	if o.DampingFactor <= 0 || o.DampingFactor >= 1 {
		o.DampingFactor = DefaultDampingFactor
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Convergence <= 0 {
		o.Convergence = DefaultConvergence
	}
	if o.FoundationalMinOut <= 0 {
		o.FoundationalMinOut = DefaultFoundationalMinOut
	}
	if o.FoundationalMaxIn < 0 {
		o.FoundationalMaxIn = DefaultFoundationalMaxIn
	}
	if o.PageRankWeight < 0 || o.BetweennessWeight < 0 || o.PageRankWeight+o.BetweennessWeight == 0 {
		o.PageRankWeight = DefaultPageRankWeight
		o.BetweennessWeight = DefaultBetweennessWeight
	}
}

// Scorer computes importance, centrality and the foundational flag
type Scorer struct {
	opts Options
}

// NewScorer creates a scorer, replacing invalid options with defaults
func NewScorer(opts Options) *Scorer {
	opts.Validate()
	return &Scorer{opts: opts}
}

// Options returns the effective options
func (s *Scorer) Options() Options {
	return s.opts
}

// IsFoundational applies the structural rule: many claims build on it and it
// builds on few
func (s *Scorer) IsFoundational(outDegree, inDegree int) bool {
	return outDegree >= s.opts.FoundationalMinOut && inDegree <= s.opts.FoundationalMaxIn
}

// Score runs one scoring pass.
//
// Every claim receives an entry, isolated claims included. Edges at or below
// the acceptance threshold are ignored; when one follows an accepted edge for
// the same ordered pair, that pair has no edge. An edge that is a self-loop or names
// a claim outside the set fails the whole pass with ErrDataIntegrity and no
// result is produced.
//
// Importance scores sum to 1 over the claim set. With no edges every claim
// scores 1/N.
func (s *Scorer) Score(ctx context.Context, claims []model.Claim, edges []model.Dependency) (*model.ScoringResult, error) {
	_, span := otel.Tracer("claimgraph.graph").Start(ctx, "graph.Score",
		trace.WithAttributes(
			attribute.Int("claims", len(claims)),
			attribute.Int("edges_in", len(edges)),
		),
	)
	defer span.End()

	g, err := build(claims, edges, s.opts.AcceptThreshold, s.opts.Weighted)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	n := g.nodeCount()
	result := &model.ScoringResult{
		Scores:    make(map[string]model.ScoreEntry, n),
		NodeCount: n,
		EdgeCount: g.edgeCount(),
		Converged: true,
	}
	if n == 0 {
		return result, nil
	}

	pr := pageRank(g, s.opts.DampingFactor, s.opts.MaxIterations, s.opts.Convergence)
	bc := betweenness(g)
	result.Iterations = pr.iterations
	result.Converged = pr.converged

	combined := make([]float64, n)
	for i := range combined {
		combined[i] = s.opts.PageRankWeight*pr.scores[i] + s.opts.BetweennessWeight*bc[i]
	}
	normalize(combined)

	foundational := 0
	for i, id := range g.ids {
		out, in := g.outDegree(i), g.inDegree(i)
		entry := model.ScoreEntry{
			Importance:   combined[i],
			PageRank:     pr.scores[i],
			Centrality:   bc[i],
			Foundational: s.IsFoundational(out, in),
			InDegree:     in,
			OutDegree:    out,
		}
		if entry.Foundational {
			foundational++
		}
		result.Scores[id] = entry
	}

	span.SetAttributes(
		attribute.Int("edges_used", g.edgeCount()),
		attribute.Int("foundational", foundational),
		attribute.Int("pagerank_iterations", pr.iterations),
		attribute.Bool("pagerank_converged", pr.converged),
	)
	return result, nil
}
