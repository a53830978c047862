package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimgraph/internal/llm"
	"github.com/ppiankov/claimgraph/internal/model"
)

type stubProvider struct {
	reply string
	err   error
	calls int
	req   llm.CompletionRequest
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.calls++
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Text: s.reply}, nil
}

func (s *stubProvider) IsAvailable(context.Context) bool { return true }

func scored(id string, importance float64, foundational bool) model.Claim {
	return model.Claim{
		ID:             id,
		Text:           "claim " + id,
		Type:           model.ClaimTypeFactual,
		Confidence:     0.8,
		Importance:     &importance,
		IsFoundational: foundational,
	}
}

func sampleReport() *model.Report {
	return &model.Report{
		Claims: []model.Claim{
			scored("low", 0.1, false),
			scored("top", 0.6, true),
			scored("mid", 0.3, false),
		},
		Dependencies: []model.Dependency{
			{SourceID: "mid", TargetID: "low", Kind: model.RelationCausal, Confidence: 0.75},
			{SourceID: "top", TargetID: "mid", Kind: model.RelationEvidential, Confidence: 0.95, Strength: "strong", Explanation: "mid cites top"},
		},
		Contradictions: []model.Contradiction{
			{ClaimAID: "top", ClaimBID: "low", Type: model.ContradictionNumerical, Severity: model.SeverityHigh, Confidence: 0.8},
		},
	}
}

func TestSynthesize(t *testing.T) {
	p := &stubProvider{reply: "  ## 1. EXECUTIVE SUMMARY\nAll good.\n"}
	s := NewSynthesizer(p, "m", 0, 0)

	text, err := s.Synthesize(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "## 1. EXECUTIVE SUMMARY\nAll good.", text)

	assert.Equal(t, 1, p.calls)
	assert.Equal(t, "m", p.req.Model)
	assert.Equal(t, DefaultMaxTokens, p.req.MaxTokens)
	assert.Equal(t, DefaultTemperature, p.req.Temperature)
	assert.False(t, p.req.JSON)
}

func TestSynthesize_Failures(t *testing.T) {
	tests := []struct {
		name string
		p    *stubProvider
	}{
		{"provider error", &stubProvider{err: errors.New("quota exceeded")}},
		{"empty reply", &stubProvider{reply: "   \n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSynthesizer(tt.p, "", 0, 0).Synthesize(context.Background(), sampleReport())
			assert.ErrorIs(t, err, model.ErrClassification)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(sampleReport())

	// claims by importance
	top := strings.Index(prompt, "1. [top]")
	mid := strings.Index(prompt, "2. [mid]")
	low := strings.Index(prompt, "3. [low]")
	require.True(t, top >= 0 && mid > top && low > mid, prompt)

	// dependencies by confidence
	assert.Contains(t, prompt, "1. evidential: [top] -> [mid]\n   Confidence: 0.95, Strength: strong\n   mid cites top")
	assert.Contains(t, prompt, "2. causal: [mid] -> [low]\n   Confidence: 0.75, Strength: unknown")

	assert.Contains(t, prompt, "Between: [top] and [low]")
	assert.Contains(t, prompt, "Resolution: Not provided")

	assert.Contains(t, prompt, "- Total Claims: 3")
	assert.Contains(t, prompt, "- Total Dependencies: 2")
	assert.Contains(t, prompt, "- Total Contradictions: 1")
	assert.Contains(t, prompt, "- Foundational Claims: 1")
	assert.Contains(t, prompt, "## 6. RECOMMENDATIONS")
}

func TestBuildPrompt_Limits(t *testing.T) {
	report := &model.Report{}
	for i := 0; i < 30; i++ {
		c := scored(fmt.Sprintf("c%02d", i), float64(i)/100, false)
		c.Text = strings.Repeat("x", 300)
		report.Claims = append(report.Claims, c)
	}
	for i := 0; i < 20; i++ {
		report.Dependencies = append(report.Dependencies, model.Dependency{
			SourceID: "c00", TargetID: fmt.Sprintf("c%02d", i+1), Kind: model.RelationCausal, Confidence: 0.71 + float64(i)/100,
		})
	}
	for i := 0; i < 12; i++ {
		report.Contradictions = append(report.Contradictions, model.Contradiction{
			ClaimAID: "c00", ClaimBID: fmt.Sprintf("c%02d", i+1), Confidence: 0.7, Resolution: strings.Repeat("r", 150),
		})
	}

	prompt := BuildPrompt(report)

	// highest importance first, 20 shown, texts clipped
	assert.Contains(t, prompt, "1. [c29] "+strings.Repeat("x", 200)+"...\n")
	assert.Contains(t, prompt, "20. [c10]")
	assert.NotContains(t, prompt, "[c09] x")

	// 15 dependencies, most confident first
	assert.Contains(t, prompt, "1. causal: [c00] -> [c20]")
	assert.Contains(t, prompt, "15. causal: [c00] -> [c06]")
	assert.NotContains(t, prompt, "16. causal:")

	assert.Contains(t, prompt, "Resolution: "+strings.Repeat("r", 100)+"...")
	assert.Contains(t, prompt, "10. unknown (unknown severity)")
	assert.NotContains(t, prompt, "11. unknown")

	assert.Contains(t, prompt, "- Total Claims: 30")
}

func TestBuildPrompt_Empty(t *testing.T) {
	prompt := BuildPrompt(&model.Report{})
	assert.Contains(t, prompt, "No claims extracted.")
	assert.Contains(t, prompt, "No dependencies analyzed yet.")
	assert.Contains(t, prompt, "No contradictions detected.")
}

func TestKeyFindingsFor(t *testing.T) {
	report := sampleReport()
	long := scored("long", 0.9, true)
	long.Text = strings.Repeat("é", 150)
	report.Claims = append(report.Claims, long, scored("a", 0.05, false), scored("b", 0.01, false))

	findings := KeyFindingsFor(report)
	require.Len(t, findings.TopClaims, 5)
	assert.Equal(t, "long", findings.TopClaims[0].ID)
	assert.Equal(t, strings.Repeat("é", 100)+"...", findings.TopClaims[0].Text)
	assert.Equal(t, "top", findings.TopClaims[1].ID)
	assert.Equal(t, "a", findings.TopClaims[4].ID)
	assert.Equal(t, 2, findings.FoundationalCount)

	assert.Empty(t, KeyFindingsFor(&model.Report{}).TopClaims)
}

func TestRecommendationsFor(t *testing.T) {
	recs := RecommendationsFor(sampleReport())
	assert.Equal(t, 1, recs.AreasNeedingClarification)
	assert.Equal(t, []string{
		"Review contradictions for resolution",
		"Validate foundational claims",
		"Explore high-centrality claims further",
	}, recs.SuggestedNextSteps)

	recs.SuggestedNextSteps[0] = "changed"
	assert.Equal(t, "Review contradictions for resolution", SuggestedNextSteps[0])
}
