package model

// Claim represents an assertion extracted from a research document
type Claim struct {
	ID         string    `json:"id"`                    // Stable claim identifier
	DocumentID string    `json:"document_id,omitempty"` // Document the claim came from
	Text       string    `json:"text"`                  // The claim text itself
	Type       ClaimType `json:"type"`                  // Category tag
	Confidence float64   `json:"confidence"`            // Extractor confidence in [0,1]

	// Derived by the graph scorer, nil until the first scoring pass
	Importance     *float64 `json:"importance_score,omitempty"`
	Centrality     *float64 `json:"centrality,omitempty"`
	PageRank       *float64 `json:"pagerank,omitempty"`
	IsFoundational bool     `json:"is_foundational"`
}

// ClaimType categorizes the nature of the claim
type ClaimType string

const (
	ClaimTypeFactual     ClaimType = "factual"     // Verifiable statements of fact
	ClaimTypeStatistical ClaimType = "statistical" // Numbers, rates, measurements
	ClaimTypeCausal      ClaimType = "causal"      // X causes or enables Y
	ClaimTypeOpinion     ClaimType = "opinion"     // Judgements and recommendations
	ClaimTypeHypothesis  ClaimType = "hypothesis"  // Untested conjectures
)

// KnownClaimTypes lists the fixed category set in display order
var KnownClaimTypes = []ClaimType{
	ClaimTypeFactual,
	ClaimTypeStatistical,
	ClaimTypeCausal,
	ClaimTypeOpinion,
	ClaimTypeHypothesis,
}

// IsKnown reports whether t is one of the fixed category tags
func (t ClaimType) IsKnown() bool {
	for _, k := range KnownClaimTypes {
		if t == k {
			return true
		}
	}
	return false
}

// GroupKey returns the key used to bucket claims by type.
// Empty types are grouped as "unknown".
func (t ClaimType) GroupKey() string {
	if t == "" {
		return "unknown"
	}
	return string(t)
}

// ApplyScore replaces every derived field of the claim with the entry's values.
// Content fields are never touched.
func (c *Claim) ApplyScore(entry ScoreEntry) {
	importance := entry.Importance
	centrality := entry.Centrality
	pagerank := entry.PageRank

	c.Importance = &importance
	c.Centrality = &centrality
	c.PageRank = &pagerank
	c.IsFoundational = entry.Foundational
}

// ImportanceOrZero returns the importance score, or 0 when unscored
func (c Claim) ImportanceOrZero() float64 {
	if c.Importance == nil {
		return 0
	}
	return *c.Importance
}

// IsScored reports whether the claim has been through a scoring pass
func (c Claim) IsScored() bool {
	return c.Importance != nil
}
