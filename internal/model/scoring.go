package model

// ScoringResult is the output of one graph scoring pass, keyed by claim ID.
// It is merged into claim storage by the caller.
type ScoringResult struct {
	Scores     map[string]ScoreEntry `json:"scores"`
	NodeCount  int                   `json:"node_count"`
	EdgeCount  int                   `json:"edge_count"`
	Iterations int                   `json:"iterations"` // PageRank power iterations performed
	Converged  bool                  `json:"converged"`  // Whether PageRank met the tolerance before the cap
}

// ScoreEntry holds the derived metrics for a single claim
type ScoreEntry struct {
	Importance   float64 `json:"importance_score"`
	PageRank     float64 `json:"pagerank"`
	Centrality   float64 `json:"centrality"` // Normalized betweenness
	Foundational bool    `json:"is_foundational"`
	InDegree     int     `json:"in_degree"`
	OutDegree    int     `json:"out_degree"`
}

// FoundationalIDs returns the IDs flagged foundational, in the order given by ids
func (r *ScoringResult) FoundationalIDs(ids []string) []string {
	var out []string
	for _, id := range ids {
		if e, ok := r.Scores[id]; ok && e.Foundational {
			out = append(out, id)
		}
	}
	return out
}
