package graph

import "math"

// PageRank defaults
const (
	DefaultDampingFactor = 0.85
	DefaultMaxIterations = 100
	DefaultConvergence   = 1e-6
)

type pageRankResult struct {
	scores     []float64
	iterations int
	converged  bool
	maxDiff    float64
}

// pageRank runs power iteration over the support flow of g.
//
// A dependency edge source -> target means the target builds on the source,
// so rank flows from target back to source: a claim that many others rest on
// accumulates rank. Outgoing flow is split in proportion to edge weight.
// Nodes with no outgoing flow are dangling and their mass is spread over all
// nodes every iteration, which keeps the total at 1.
func pageRank(g *dependencyGraph, damping float64, maxIter int, tol float64) pageRankResult {
	n := g.nodeCount()
	if n == 0 {
		return pageRankResult{converged: true}
	}

	// flow weight leaving each node = weight of the edges that target it
	flowOut := make([]float64, n)
	for _, a := range g.arcs {
		flowOut[a.to] += a.weight
	}

	uniform := 1.0 / float64(n)
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = uniform
	}
	next := make([]float64, n)

	res := pageRankResult{}
	for iter := 0; iter < maxIter; iter++ {
		res.iterations = iter + 1

		dangling := 0.0
		for i, w := range flowOut {
			if w <= 0 {
				dangling += scores[i]
			}
		}
		base := (1-damping)*uniform + damping*dangling*uniform
		for i := range next {
			next[i] = base
		}
		for _, a := range g.arcs {
			// flow along to -> from
			next[a.from] += damping * scores[a.to] * a.weight / flowOut[a.to]
		}

		maxDiff := 0.0
		for i := range next {
			if d := math.Abs(next[i] - scores[i]); d > maxDiff {
				maxDiff = d
			}
		}
		scores, next = next, scores
		res.maxDiff = maxDiff

		if maxDiff < tol {
			res.converged = true
			break
		}
	}

	normalize(scores)
	res.scores = scores
	return res
}

// normalize rescales values to sum to 1, leaving an all-zero slice untouched
func normalize(values []float64) {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	if sum <= 0 {
		return
	}
	for i := range values {
		values[i] /= sum
	}
}
