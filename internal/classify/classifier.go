// Package classify turns an LLM into a relationship classifier for claim pairs.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/claimgraph/internal/llm"
	"github.com/ppiankov/claimgraph/internal/model"
)

// defaultConfidence is assumed when a reply omits confidence
const defaultConfidence = 0.8

// Classifier decides how two claims relate
type Classifier interface {
	// Classify returns the directed dependencies between a and b. No
	// dependencies and a nil error means no relationship.
	Classify(ctx context.Context, a, b model.Claim) ([]model.Dependency, error)
}

// LLMClassifier asks an LLM provider to classify claim pairs
type LLMClassifier struct {
	provider  llm.Provider
	model     string
	maxTokens int
}

// NewLLMClassifier wraps provider. An empty model uses the provider's configured model.
func NewLLMClassifier(provider llm.Provider, model string, maxTokens int) *LLMClassifier {
	return &LLMClassifier{provider: provider, model: model, maxTokens: maxTokens}
}

type pairReply struct {
	RelationshipType string   `json:"relationship_type"`
	Direction        string   `json:"direction"`
	Confidence       *float64 `json:"confidence"`
	Explanation      string   `json:"explanation"`
	SemanticMarkers  []string `json:"semantic_markers"`
	Strength         string   `json:"strength"`
}

// Classify sends one prompt per pair. Provider failures are wrapped in
// ErrClassification with the provider error kept in the chain so retry
// decisions still see it.
func (c *LLMClassifier) Classify(ctx context.Context, a, b model.Claim) ([]model.Dependency, error) {
	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		System:    systemPrompt,
		Prompt:    BuildPrompt(a, b),
		Model:     c.model,
		MaxTokens: c.maxTokens,
		JSON:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s vs %s: %w", model.ErrClassification, a.ID, b.ID, err)
	}

	var reply pairReply
	if err := llm.DecodeJSON(resp.Text, &reply); err != nil {
		return nil, fmt.Errorf("%w: %s vs %s: %w", model.ErrClassification, a.ID, b.ID, err)
	}

	return parseReply(a.ID, b.ID, reply), nil
}

// parseReply maps a decoded reply onto dependency edges.
//
// NONE yields no edges. Unrecognized relationship types count as evidential.
// Confidence is clamped to [0,1], defaulting when absent. Bidirectional
// replies produce an edge in each direction.
func parseReply(aID, bID string, reply pairReply) []model.Dependency {
	kind, known := model.ParseRelationshipKind(reply.RelationshipType)
	if !known {
		kind = model.RelationEvidential
	}
	if kind == model.RelationNone {
		return []model.Dependency{}
	}

	confidence := defaultConfidence
	if reply.Confidence != nil {
		confidence = clamp01(*reply.Confidence)
	}

	strength := strings.ToLower(strings.TrimSpace(reply.Strength))
	if strength == "" {
		strength = "moderate"
	}

	base := model.Dependency{
		Kind:        kind,
		Confidence:  confidence,
		Strength:    strength,
		Explanation: reply.Explanation,
		Markers:     reply.SemanticMarkers,
	}

	forward := base
	forward.SourceID, forward.TargetID = aID, bID
	backward := base
	backward.SourceID, backward.TargetID = bID, aID

	switch normalizeDirection(reply.Direction) {
	case DirectionBToA:
		return []model.Dependency{backward}
	case DirectionBidirectional:
		return []model.Dependency{forward, backward}
	default:
		return []model.Dependency{forward}
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// PairFunc adapts c to the batch runner. Pairs naming unknown claims fail
// with ErrDataIntegrity.
func PairFunc(c Classifier, claims []model.Claim) func(ctx context.Context, pair model.CandidatePair) ([]model.Dependency, error) {
	byID := make(map[string]model.Claim, len(claims))
	for _, claim := range claims {
		byID[claim.ID] = claim
	}

	return func(ctx context.Context, pair model.CandidatePair) ([]model.Dependency, error) {
		a, ok := byID[pair.SourceID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown claim %q", model.ErrDataIntegrity, pair.SourceID)
		}
		b, ok := byID[pair.TargetID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown claim %q", model.ErrDataIntegrity, pair.TargetID)
		}
		return c.Classify(ctx, a, b)
	}
}
