package contradict

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimgraph/internal/llm"
	"github.com/ppiankov/claimgraph/internal/model"
)

type stubProvider struct {
	reply  string
	err    error
	calls  int
	prompt string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.calls++
	s.prompt = req.Prompt
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Text: s.reply}, nil
}

func (s *stubProvider) IsAvailable(context.Context) bool { return true }

func scored(id string, importance float64) model.Claim {
	return model.Claim{ID: id, Text: "claim " + id, Importance: &importance}
}

func TestDetect_FiltersReplies(t *testing.T) {
	p := &stubProvider{reply: `{"contradictions": [
		{"claim_a_id": "a", "claim_b_id": "b", "type": "NUMERICAL", "severity": "high", "confidence": 0.9, "explanation": "30% vs 45%"},
		{"claim_a_id": "b", "claim_b_id": "a", "type": "direct", "confidence": 0.95},
		{"claim_a_id": "a", "claim_b_id": "c", "type": "direct", "confidence": 0.5},
		{"claim_a_id": "a", "claim_b_id": "zzz", "type": "direct", "confidence": 0.99},
		{"claim_a_id": "c", "claim_b_id": "c", "type": "direct", "confidence": 0.99},
		{"claim_a_id": "b", "claim_b_id": "c", "type": "scope"},
		{"claim_a_id": "c", "claim_b_id": "b", "type": "mystery", "severity": "extreme", "confidence": 0.7}
	]}`}
	d := NewDetector(p, "", 0, 0)

	got, err := d.Detect(context.Background(), []model.Claim{scored("a", 0.5), scored("b", 0.3), scored("c", 0.2)})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, model.ContradictionNumerical, got[0].Type)
	assert.Equal(t, model.SeverityHigh, got[0].Severity)
	assert.Equal(t, "llm:stub", got[0].DetectionTool)

	// confidence exactly at the minimum is kept; unknown labels fall back
	assert.Equal(t, "c", got[1].ClaimAID)
	assert.Equal(t, model.ContradictionDirect, got[1].Type)
	assert.Equal(t, model.SeverityMedium, got[1].Severity)
}

func TestDetect_TooFewClaims(t *testing.T) {
	p := &stubProvider{}
	got, err := NewDetector(p, "", 0, 0).Detect(context.Background(), []model.Claim{scored("a", 1)})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, p.calls)
}

func TestDetect_Errors(t *testing.T) {
	claims := []model.Claim{scored("a", 0.5), scored("b", 0.5)}

	p := &stubProvider{err: errors.New("connection refused")}
	_, err := NewDetector(p, "", 0, 0).Detect(context.Background(), claims)
	assert.ErrorIs(t, err, model.ErrClassification)

	p = &stubProvider{reply: "no idea"}
	_, err = NewDetector(p, "", 0, 0).Detect(context.Background(), claims)
	assert.ErrorIs(t, err, model.ErrClassification)
}

func TestDetect_SendsTopClaimsOnly(t *testing.T) {
	claims := make([]model.Claim, 0, 60)
	for i := 0; i < 60; i++ {
		claims = append(claims, scored(fmt.Sprintf("c%02d", i), float64(i)))
	}
	p := &stubProvider{reply: `{"contradictions": []}`}

	_, err := NewDetector(p, "", 0, 0).Detect(context.Background(), claims)
	require.NoError(t, err)
	assert.Contains(t, p.prompt, "Claim 1 (ID: c59)")
	assert.Contains(t, p.prompt, "(ID: c10)")
	assert.NotContains(t, p.prompt, "(ID: c09)")
}

func TestTopByImportance(t *testing.T) {
	unscored := model.Claim{ID: "u"}
	claims := []model.Claim{unscored, scored("low", 0.1), scored("high", 0.9), scored("tie", 0.1)}

	top := TopByImportance(claims, 3)
	ids := make([]string, len(top))
	for i, c := range top {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"high", "low", "tie"}, ids)
	assert.Equal(t, "u", claims[0].ID, "input is not reordered")
}
