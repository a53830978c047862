package score

import (
	"fmt"

	"github.com/ppiankov/claimgraph/internal/model"
)

// Input is everything an analysis produced that the diagnostics look at
type Input struct {
	Claims         []model.Claim
	Edges          []model.Dependency
	Stats          model.RunStats
	Scoring        *model.ScoringResult
	Contradictions []model.Contradiction
}

// Scorer derives transparent diagnostic signals from a finished analysis.
// It never changes claim scores.
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate generates the diagnostic signals and an overall confidence label
func (s *Scorer) Calculate(in Input) model.Score {
	var signals []model.Signal

	// 1. Graph density
	signals = append(signals, s.graphDensity(len(in.Claims), len(in.Edges)))

	// 2. Edge acceptance
	if in.Stats.PairsClassified > 0 {
		signals = append(signals, s.edgeAcceptance(in.Stats))
	}

	// 3. Foundational share and convergence need a scoring pass
	if in.Scoring != nil && in.Scoring.NodeCount > 0 {
		signals = append(signals, s.foundationalShare(in.Scoring))
		signals = append(signals, s.convergence(in.Scoring))
	}

	// 4. Isolated claims
	if sig, ok := s.isolatedClaims(in.Claims, in.Edges); ok {
		signals = append(signals, sig)
	}

	// 5. Operational failures
	if in.Stats.ClassificationErrors > 0 {
		signals = append(signals, s.classifierErrors(in.Stats))
	}

	// 6. Contradictions
	conflict := len(in.Contradictions) > 0
	if conflict {
		signals = append(signals, s.contradictionLoad(len(in.Claims), in.Contradictions))
	}

	return model.Score{
		Confidence: s.determineConfidence(len(in.Claims), signals, conflict),
		Conflict:   conflict,
		Signals:    signals,
	}
}

// graphDensity compares accepted edges with every possible ordered pair
func (s *Scorer) graphDensity(claims, edges int) model.Signal {
	possible := claims * (claims - 1)
	if possible <= 0 {
		return model.Signal{
			Type:        model.SignalGraphDensity,
			Severity:    model.SignalWarning,
			Description: fmt.Sprintf("Too few claims for a dependency graph (%d)", claims),
			Data:        map[string]interface{}{"claims": claims, "edges": edges},
		}
	}

	density := float64(edges) / float64(possible)
	severity := model.SignalInfo
	if edges == 0 {
		severity = model.SignalWarning
	}

	return model.Signal{
		Type:        model.SignalGraphDensity,
		Severity:    severity,
		Description: fmt.Sprintf("Graph density: %.3f (%d edges over %d claims)", density, edges, claims),
		Data: map[string]interface{}{
			"claims":   claims,
			"edges":    edges,
			"possible": possible,
			"density":  density,
			"formula":  "edges / (claims * (claims - 1))",
		},
	}
}

// edgeAcceptance compares accepted edges with classified pairs
func (s *Scorer) edgeAcceptance(stats model.RunStats) model.Signal {
	ratio := float64(stats.DependenciesFound) / float64(stats.PairsClassified)

	severity := model.SignalInfo
	description := fmt.Sprintf("Edge acceptance: %d edges from %d classified pairs (%.0f%%)",
		stats.DependenciesFound, stats.PairsClassified, ratio*100)
	if stats.NoRelationshipsFound() {
		description = fmt.Sprintf("No relationships found among %d classified pairs", stats.PairsClassified)
	}

	return model.Signal{
		Type:        model.SignalEdgeAcceptance,
		Severity:    severity,
		Description: description,
		Data: map[string]interface{}{
			"accepted":   stats.DependenciesFound,
			"rejected":   stats.EdgesRejected,
			"classified": stats.PairsClassified,
			"ratio":      ratio,
			"formula":    "accepted_edges / classified_pairs",
		},
	}
}

func (s *Scorer) foundationalShare(result *model.ScoringResult) model.Signal {
	foundational := 0
	for _, e := range result.Scores {
		if e.Foundational {
			foundational++
		}
	}
	share := float64(foundational) / float64(result.NodeCount)

	severity := model.SignalInfo
	if foundational == 0 && result.EdgeCount > 0 {
		severity = model.SignalWarning
	}

	return model.Signal{
		Type:        model.SignalFoundationalShare,
		Severity:    severity,
		Description: fmt.Sprintf("Foundational claims: %d/%d", foundational, result.NodeCount),
		Data: map[string]interface{}{
			"foundational": foundational,
			"claims":       result.NodeCount,
			"share":        share,
			"rule":         "out_degree >= 3 and in_degree <= 2",
		},
	}
}

func (s *Scorer) convergence(result *model.ScoringResult) model.Signal {
	if result.Converged {
		return model.Signal{
			Type:        model.SignalConvergence,
			Severity:    model.SignalInfo,
			Description: fmt.Sprintf("PageRank converged after %d iterations", result.Iterations),
			Data:        map[string]interface{}{"iterations": result.Iterations, "converged": true},
		}
	}
	return model.Signal{
		Type:        model.SignalConvergence,
		Severity:    model.SignalWarning,
		Description: fmt.Sprintf("PageRank stopped at the iteration cap (%d) before converging", result.Iterations),
		Data:        map[string]interface{}{"iterations": result.Iterations, "converged": false},
	}
}

// isolatedClaims reports claims that no accepted edge touches
func (s *Scorer) isolatedClaims(claims []model.Claim, edges []model.Dependency) (model.Signal, bool) {
	if len(claims) < 2 {
		return model.Signal{}, false
	}

	touched := make(map[string]bool, len(claims))
	for _, e := range edges {
		touched[e.SourceID] = true
		touched[e.TargetID] = true
	}

	isolated := 0
	for _, c := range claims {
		if !touched[c.ID] {
			isolated++
		}
	}
	if isolated == 0 {
		return model.Signal{}, false
	}

	ratio := float64(isolated) / float64(len(claims))
	severity := model.SignalInfo
	if ratio > 0.5 {
		severity = model.SignalWarning
	}

	return model.Signal{
		Type:        model.SignalIsolatedClaims,
		Severity:    severity,
		Description: fmt.Sprintf("%d/%d claims have no accepted dependency", isolated, len(claims)),
		Data: map[string]interface{}{
			"isolated": isolated,
			"claims":   len(claims),
			"ratio":    ratio,
		},
	}, true
}

func (s *Scorer) classifierErrors(stats model.RunStats) model.Signal {
	attempted := stats.PairsClassified + stats.ClassificationErrors
	ratio := float64(stats.ClassificationErrors) / float64(attempted)

	severity := model.SignalWarning
	if stats.PairsClassified == 0 || ratio > 0.5 {
		severity = model.SignalCritical
	}

	return model.Signal{
		Type:        model.SignalClassifierErrors,
		Severity:    severity,
		Description: fmt.Sprintf("Classification failed for %d/%d pairs", stats.ClassificationErrors, attempted),
		Data: map[string]interface{}{
			"failed":    stats.ClassificationErrors,
			"attempted": attempted,
			"ratio":     ratio,
		},
	}
}

func (s *Scorer) contradictionLoad(claims int, contradictions []model.Contradiction) model.Signal {
	bySeverity := make(map[string]int)
	for _, c := range contradictions {
		bySeverity[string(c.Severity)]++
	}

	load := float64(len(contradictions))
	if claims > 0 {
		load /= float64(claims)
	}

	severity := model.SignalWarning
	if bySeverity[string(model.SeverityCritical)] > 0 || load > 0.25 {
		severity = model.SignalCritical
	}

	return model.Signal{
		Type:        model.SignalContradictionLoad,
		Severity:    severity,
		Description: fmt.Sprintf("%d contradictions detected", len(contradictions)),
		Data: map[string]interface{}{
			"contradictions": len(contradictions),
			"claims":         claims,
			"load":           load,
			"by_severity":    bySeverity,
			"formula":        "contradictions / claims",
		},
	}
}

// determineConfidence labels how far the graph can be trusted
func (s *Scorer) determineConfidence(claims int, signals []model.Signal, conflict bool) string {
	if claims < 3 {
		return "low"
	}

	warnings := 0
	for _, sig := range signals {
		switch sig.Severity {
		case model.SignalCritical:
			return "low"
		case model.SignalWarning:
			warnings++
		}
	}

	switch {
	case warnings >= 2:
		return "low"
	case warnings == 1 || conflict:
		return "medium"
	default:
		return "high"
	}
}
