package model

// Contradiction represents two claims that cannot both hold
type Contradiction struct {
	ClaimAID      string            `json:"claim_a_id"`
	ClaimBID      string            `json:"claim_b_id"`
	Type          ContradictionType `json:"type"`
	Severity      Severity          `json:"severity"`
	Explanation   string            `json:"explanation"`
	Resolution    string            `json:"resolution_suggestion,omitempty"`
	Confidence    float64           `json:"confidence"`
	DetectionTool string            `json:"detection_method,omitempty"`
}

// ContradictionType classifies how two claims conflict
type ContradictionType string

const (
	ContradictionDirect       ContradictionType = "direct"       // Opposite facts
	ContradictionNumerical    ContradictionType = "numerical"    // Different values for the same metric
	ContradictionTemporal     ContradictionType = "temporal"     // Conflicting dates or sequences
	ContradictionScope        ContradictionType = "scope"        // Universal vs particular
	ContradictionDefinitional ContradictionType = "definitional" // Same term, different meaning
)

// ParseContradictionType normalizes classifier output, defaulting to direct
func ParseContradictionType(s string) ContradictionType {
	switch ContradictionType(s) {
	case ContradictionNumerical, ContradictionTemporal, ContradictionScope, ContradictionDefinitional:
		return ContradictionType(s)
	default:
		return ContradictionDirect
	}
}

// Severity ranks how much a contradiction matters for the synthesis
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity normalizes classifier output, defaulting to medium
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityLow, SeverityHigh, SeverityCritical:
		return Severity(s)
	default:
		return SeverityMedium
	}
}
