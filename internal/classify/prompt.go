package classify

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimgraph/internal/model"
)

const systemPrompt = "You analyze semantic relationships between research claims. Reply with a single JSON object and nothing else."

const pairTemplate = `Analyze the semantic relationship between these two research claims:

Claim A (ID: %s):
Text: %q
Type: %s

Claim B (ID: %s):
Text: %q
Type: %s

Determine the PRIMARY relationship type and direction:
- CAUSAL: A causes or enables B (or vice versa)
- EVIDENTIAL: A provides evidence for B (or vice versa)
- TEMPORAL: A precedes B chronologically
- PREREQUISITE: B requires A to be true
- CONTRADICTORY: A and B are mutually exclusive
- REFINES: B is a more specific version of A
- NONE: No significant relationship

Consider implicit relationships, domain semantics and logical inference chains.

Return ONLY valid JSON:
{
  "relationship_type": "EVIDENTIAL",
  "direction": "A_to_B",
  "confidence": 0.85,
  "explanation": "Clear reasoning here",
  "semantic_markers": ["keyword1", "keyword2"],
  "strength": "moderate"
}

Direction options: A_to_B, B_to_A, bidirectional
Strength options: weak, moderate, strong`

// maxClaimRunes caps each claim text sent to the classifier
const maxClaimRunes = 500

// BuildPrompt renders the pair prompt. Claim A is the pair source.
func BuildPrompt(a, b model.Claim) string {
	return fmt.Sprintf(pairTemplate,
		a.ID, clip(a.Text), a.Type.GroupKey(),
		b.ID, clip(b.Text), b.Type.GroupKey(),
	)
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= maxClaimRunes {
		return s
	}
	return string(r[:maxClaimRunes])
}

// Direction values in classifier replies
const (
	DirectionAToB          = "a_to_b"
	DirectionBToA          = "b_to_a"
	DirectionBidirectional = "bidirectional"
)

func normalizeDirection(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case DirectionBToA, "b->a", "btoa":
		return DirectionBToA
	case DirectionBidirectional, "both", "bi":
		return DirectionBidirectional
	default:
		return DirectionAToB
	}
}
