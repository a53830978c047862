// Package contradict finds claims that cannot both hold.
package contradict

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/claimgraph/internal/llm"
	"github.com/ppiankov/claimgraph/internal/model"
)

const (
	DefaultMaxClaims     = 50
	DefaultMinConfidence = 0.7
)

const systemPrompt = "You find contradictions between research claims. Reply with a single JSON object and nothing else."

// Detector sends the most important claims to an LLM in one prompt and keeps
// the confident contradictions it reports
type Detector struct {
	provider      llm.Provider
	model         string
	maxClaims     int
	minConfidence float64
}

// NewDetector creates a detector. Zero limits select the defaults.
func NewDetector(provider llm.Provider, model string, maxClaims int, minConfidence float64) *Detector {
	if maxClaims <= 0 {
		maxClaims = DefaultMaxClaims
	}
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Detector{
		provider:      provider,
		model:         model,
		maxClaims:     maxClaims,
		minConfidence: minConfidence,
	}
}

type reply struct {
	Contradictions []struct {
		ClaimAID    string   `json:"claim_a_id"`
		ClaimBID    string   `json:"claim_b_id"`
		Type        string   `json:"type"`
		Severity    string   `json:"severity"`
		Explanation string   `json:"explanation"`
		Confidence  *float64 `json:"confidence"`
		Resolution  string   `json:"resolution_suggestion"`
	} `json:"contradictions"`
}

// Detect returns contradictions among the top claims by importance.
// Fewer than two claims yields none without calling the provider.
func (d *Detector) Detect(ctx context.Context, claims []model.Claim) ([]model.Contradiction, error) {
	top := TopByImportance(claims, d.maxClaims)
	if len(top) < 2 {
		return []model.Contradiction{}, nil
	}

	resp, err := d.provider.Complete(ctx, llm.CompletionRequest{
		System: systemPrompt,
		Prompt: BuildPrompt(top),
		Model:  d.model,
		JSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: contradiction detection: %w", model.ErrClassification, err)
	}

	var r reply
	if err := llm.DecodeJSON(resp.Text, &r); err != nil {
		return nil, fmt.Errorf("%w: contradiction detection: %w", model.ErrClassification, err)
	}

	known := make(map[string]bool, len(top))
	for _, c := range top {
		known[c.ID] = true
	}

	seen := make(map[model.PairKey]bool)
	out := []model.Contradiction{}
	for _, c := range r.Contradictions {
		if c.Confidence == nil || *c.Confidence < d.minConfidence {
			continue
		}
		if c.ClaimAID == c.ClaimBID || !known[c.ClaimAID] || !known[c.ClaimBID] {
			continue
		}
		key := model.CandidatePair{SourceID: c.ClaimAID, TargetID: c.ClaimBID}.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		out = append(out, model.Contradiction{
			ClaimAID:      c.ClaimAID,
			ClaimBID:      c.ClaimBID,
			Type:          model.ParseContradictionType(strings.ToLower(strings.TrimSpace(c.Type))),
			Severity:      model.ParseSeverity(strings.ToLower(strings.TrimSpace(c.Severity))),
			Explanation:   c.Explanation,
			Resolution:    c.Resolution,
			Confidence:    *c.Confidence,
			DetectionTool: "llm:" + d.provider.Name(),
		})
	}
	return out, nil
}

// TopByImportance returns up to n claims ordered by importance, highest
// first. Ties keep input order.
func TopByImportance(claims []model.Claim, n int) []model.Claim {
	sorted := make([]model.Claim, len(claims))
	copy(sorted, claims)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ImportanceOrZero() > sorted[j].ImportanceOrZero()
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// BuildPrompt lists claims for contradiction analysis
func BuildPrompt(claims []model.Claim) string {
	var b strings.Builder
	b.WriteString("Analyze these research claims for contradictions:\n\n")
	for i, c := range claims {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Claim %d (ID: %s):\nText: %s\n", i+1, c.ID, c.Text)
		if c.DocumentID != "" {
			fmt.Fprintf(&b, "Source: Document %s\n", c.DocumentID)
		}
		fmt.Fprintf(&b, "Type: %s", c.Type.GroupKey())
	}
	b.WriteString(`

Look for these types of contradictions:
1. DIRECT: Claims state opposite facts
2. NUMERICAL: Different values for the same metric
3. TEMPORAL: Conflicting dates or time sequences
4. SCOPE: Universal vs particular claims in conflict
5. DEFINITIONAL: Different meanings of the same term

Return JSON:
{
  "contradictions": [
    {
      "claim_a_id": "id",
      "claim_b_id": "id",
      "type": "direct|numerical|temporal|scope|definitional",
      "severity": "low|medium|high|critical",
      "explanation": "detailed explanation",
      "confidence": 0.9,
      "resolution_suggestion": "how to resolve if possible"
    }
  ]
}

Only include high-confidence contradictions.
If no contradictions are found, return {"contradictions": []}`)
	return b.String()
}
