package model

import "strings"

// RelationshipKind classifies the relationship between two claims
type RelationshipKind string

const (
	RelationCausal        RelationshipKind = "causal"        // Source causes or enables target
	RelationEvidential    RelationshipKind = "evidential"    // Source provides evidence for target
	RelationTemporal      RelationshipKind = "temporal"      // Source precedes target
	RelationPrerequisite  RelationshipKind = "prerequisite"  // Target requires source to hold
	RelationContradictory RelationshipKind = "contradictory" // Mutually exclusive (symmetric meaning)
	RelationRefines       RelationshipKind = "refines"       // Target is a more specific version of source
	RelationNone          RelationshipKind = "none"          // No significant relationship
)

// ParseRelationshipKind maps classifier output onto the fixed enumeration.
// The second return value is false when the input was not recognized.
func ParseRelationshipKind(s string) (RelationshipKind, bool) {
	switch RelationshipKind(strings.ToLower(strings.TrimSpace(s))) {
	case RelationCausal:
		return RelationCausal, true
	case RelationEvidential:
		return RelationEvidential, true
	case RelationTemporal:
		return RelationTemporal, true
	case RelationPrerequisite:
		return RelationPrerequisite, true
	case RelationContradictory:
		return RelationContradictory, true
	case RelationRefines:
		return RelationRefines, true
	case RelationNone, "":
		return RelationNone, true
	default:
		return RelationNone, false
	}
}

// Dependency is a directed, classified relationship between two claims.
// Source -> Target reads "source provides support/cause/precondition for target".
type Dependency struct {
	SourceID    string           `json:"source_claim_id"`
	TargetID    string           `json:"target_claim_id"`
	Kind        RelationshipKind `json:"relationship_type"`
	Confidence  float64          `json:"confidence"`
	Strength    string           `json:"strength,omitempty"` // weak, moderate, strong
	Explanation string           `json:"explanation,omitempty"`
	Markers     []string         `json:"semantic_markers,omitempty"`
}

// Key returns the ordered identity of the edge
func (d Dependency) Key() EdgeKey {
	return EdgeKey{Source: d.SourceID, Target: d.TargetID}
}

// IsSelfLoop reports whether the edge points back at its source
func (d Dependency) IsSelfLoop() bool {
	return d.SourceID == d.TargetID
}

// EdgeKey identifies an edge by its ordered (source, target) pair
type EdgeKey struct {
	Source string
	Target string
}

// CandidatePair is a pair of claims proposed for relationship classification
type CandidatePair struct {
	SourceID string `json:"source_claim_id"`
	TargetID string `json:"target_claim_id"`
}

// Key returns the unordered identity of the pair: (a,b) and (b,a) share a key
func (p CandidatePair) Key() PairKey {
	if p.SourceID < p.TargetID {
		return PairKey{Low: p.SourceID, High: p.TargetID}
	}
	return PairKey{Low: p.TargetID, High: p.SourceID}
}

// PairKey is the unordered identity of a candidate pair
type PairKey struct {
	Low  string
	High string
}
