package model

import "time"

// Report represents the complete claimgraph analysis report
type Report struct {
	RunID       string    `json:"run_id"`
	Subject     string    `json:"subject"`      // Name of the analysis scope (usually the input file)
	GeneratedAt time.Time `json:"generated_at"` // When the analysis finished

	Claims         []Claim         `json:"claims"`                   // Claims with derived scores applied
	Dependencies   []Dependency    `json:"dependencies"`             // Accepted edges only
	Contradictions []Contradiction `json:"contradictions,omitempty"` // Detected conflicts

	Stats   RunStats       `json:"stats"`
	Scoring *ScoringResult `json:"scoring,omitempty"`
	Score   Score          `json:"score"` // Diagnostic signals over the scored graph

	// Narrative written by the LLM from the scored graph; empty when disabled or failed
	Synthesis       string           `json:"synthesis,omitempty"`
	KeyFindings     *KeyFindings     `json:"key_findings,omitempty"`
	Recommendations *Recommendations `json:"recommendations,omitempty"`

	LLM *LLMInfo `json:"llm,omitempty"`
}

// KeyFindings is the deterministic digest of the most important claims
type KeyFindings struct {
	TopClaims         []ClaimSummary `json:"top_claims"`
	FoundationalCount int            `json:"foundational_count"`
}

// ClaimSummary is a claim ID with a shortened text
type ClaimSummary struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Recommendations lists follow-up work implied by the analysis
type Recommendations struct {
	AreasNeedingClarification int      `json:"areas_needing_clarification"` // One per contradiction
	SuggestedNextSteps        []string `json:"suggested_next_steps"`
}

// RunStats tracks what the classification stage did
type RunStats struct {
	TotalClaims          int `json:"total_claims"`
	CandidatePairs       int `json:"candidate_pairs"`
	PairsClassified      int `json:"pairs_classified"`
	ClassificationErrors int `json:"classification_errors"`
	DependenciesFound    int `json:"dependencies_found"` // Accepted edges after threshold and dedup
	EdgesRejected        int `json:"edges_rejected"`     // Below threshold, none, or self-loop
	Batches              int `json:"batches"`
	TotalContradictions  int `json:"total_contradictions"`
}

// NoRelationshipsFound reports whether the run legitimately found nothing,
// as opposed to failing to classify
func (s RunStats) NoRelationshipsFound() bool {
	return s.DependenciesFound == 0 && s.ClassificationErrors == 0
}

// Score represents the transparent diagnostic breakdown of the graph
type Score struct {
	Confidence string   `json:"confidence"` // "low", "medium", "high"
	Conflict   bool     `json:"conflict"`   // Whether contradictions were detected
	Signals    []Signal `json:"signals"`    // Diagnostic signals with transparent data
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`           // Signal classification
	Severity    SignalSeverity         `json:"severity"`       // info, warning, critical
	Description string                 `json:"description"`    // Human-readable description
	Data        map[string]interface{} `json:"data,omitempty"` // Transparent scoring data (formulas, inputs)
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalGraphDensity      SignalType = "graph_density"        // Accepted edges vs possible edges
	SignalEdgeAcceptance    SignalType = "edge_acceptance"      // Accepted vs classified pairs
	SignalFoundationalShare SignalType = "foundational_share"   // Share of foundational claims
	SignalContradictionLoad SignalType = "contradiction_load"   // Contradictions per claim
	SignalConvergence       SignalType = "pagerank_convergence" // Whether the power iteration settled
	SignalClassifierErrors  SignalType = "classifier_errors"    // Operational failures during the run
	SignalIsolatedClaims    SignalType = "isolated_claims"      // Claims without any accepted edge
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SignalInfo     SignalSeverity = "info"
	SignalWarning  SignalSeverity = "warning"
	SignalCritical SignalSeverity = "critical"
)

// LLMInfo records which classifier produced the edges
type LLMInfo struct {
	Provider   string `json:"provider,omitempty"` // openai, gemini, anthropic, ollama
	Model      string `json:"model,omitempty"`
	CacheHits  int    `json:"cache_hits"`
	TokensUsed int    `json:"tokens_used"`
}
