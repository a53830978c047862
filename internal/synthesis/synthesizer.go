// Package synthesis writes the narrative research report for a scored graph,
// plus the key findings and recommendations derived without the LLM.
package synthesis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/claimgraph/internal/contradict"
	"github.com/ppiankov/claimgraph/internal/llm"
	"github.com/ppiankov/claimgraph/internal/model"
)

const (
	DefaultMaxTokens   = 8192
	DefaultTemperature = 0.2
)

// Prompt and digest limits
const (
	promptClaims         = 20
	promptDependencies   = 15
	promptContradictions = 10
	keyFindingClaims     = 5

	claimTextRunes   = 200
	explanationRunes = 150
	resolutionRunes  = 100
	findingTextRunes = 100
)

const systemPrompt = "You write research synthesis reports from analyzed claim graphs. Reply in Markdown."

// SuggestedNextSteps is the fixed follow-up list attached to every report
var SuggestedNextSteps = []string{
	"Review contradictions for resolution",
	"Validate foundational claims",
	"Explore high-centrality claims further",
}

// Synthesizer asks an LLM for an executive synthesis of one report
type Synthesizer struct {
	provider    llm.Provider
	model       string
	maxTokens   int
	temperature float64
}

// NewSynthesizer creates a synthesizer. Zero limits select the defaults.
func NewSynthesizer(provider llm.Provider, model string, maxTokens int, temperature float64) *Synthesizer {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &Synthesizer{
		provider:    provider,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Synthesize returns the Markdown synthesis of report. Provider failures and
// empty replies wrap ErrClassification.
func (s *Synthesizer) Synthesize(ctx context.Context, report *model.Report) (string, error) {
	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		System:      systemPrompt,
		Prompt:      BuildPrompt(report),
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: synthesis: %w", model.ErrClassification, err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("%w: synthesis: empty reply", model.ErrClassification)
	}
	return text, nil
}

const promptTemplate = `Generate a comprehensive research synthesis report based on these analyzed claims:

# Claims Summary
%s

# Dependency Graph Overview
%s

# Contradictions Found
%s

# Statistics
- Total Claims: %d
- Total Dependencies: %d
- Total Contradictions: %d
- Foundational Claims: %d

Generate a professional executive synthesis report with these sections:

## 1. EXECUTIVE SUMMARY
Provide a high-level overview (2-3 paragraphs) of the key findings and insights.

## 2. CONSENSUS FINDINGS
List claims with strong evidence and multi-source agreement. Cite claim IDs like [Claim: abc-123].

## 3. KEY INSIGHTS
Identify novel connections, emergent patterns, and cross-source synthesis.

## 4. DISPUTED AREAS
Document contradictions requiring resolution, evidence gaps, and areas of uncertainty.

## 5. DEPENDENCY ANALYSIS
Analyze critical dependency chains, foundational vs derived claims, and vulnerability points.

## 6. RECOMMENDATIONS
Suggest next research steps, areas needing clarification, and priority questions.

Format the report in **Markdown**. Use clear, professional language. Be specific and cite evidence.`

// BuildPrompt renders the synthesis prompt: the top claims by importance,
// the most confident dependencies and contradictions, and run totals
func BuildPrompt(report *model.Report) string {
	return fmt.Sprintf(promptTemplate,
		claimsSummary(report.Claims),
		dependencySummary(report.Dependencies),
		contradictionsSummary(report.Contradictions),
		len(report.Claims),
		len(report.Dependencies),
		len(report.Contradictions),
		foundationalCount(report.Claims),
	)
}

func claimsSummary(claims []model.Claim) string {
	if len(claims) == 0 {
		return "No claims extracted."
	}
	var parts []string
	for i, c := range contradict.TopByImportance(claims, promptClaims) {
		parts = append(parts, fmt.Sprintf("%d. [%s] %s\n   Type: %s, Confidence: %.2f, Importance: %.2f",
			i+1, c.ID, clip(c.Text, claimTextRunes), c.Type.GroupKey(), c.Confidence, c.ImportanceOrZero()))
	}
	return strings.Join(parts, "\n\n")
}

func dependencySummary(deps []model.Dependency) string {
	if len(deps) == 0 {
		return "No dependencies analyzed yet."
	}
	sorted := make([]model.Dependency, len(deps))
	copy(sorted, deps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})
	if len(sorted) > promptDependencies {
		sorted = sorted[:promptDependencies]
	}

	var parts []string
	for i, d := range sorted {
		line := fmt.Sprintf("%d. %s: [%s] -> [%s]\n   Confidence: %.2f, Strength: %s",
			i+1, d.Kind, d.SourceID, d.TargetID, d.Confidence, orUnknown(d.Strength))
		if d.Explanation != "" {
			line += "\n   " + clip(d.Explanation, explanationRunes)
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, "\n\n")
}

func contradictionsSummary(contradictions []model.Contradiction) string {
	if len(contradictions) == 0 {
		return "No contradictions detected."
	}
	sorted := make([]model.Contradiction, len(contradictions))
	copy(sorted, contradictions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})
	if len(sorted) > promptContradictions {
		sorted = sorted[:promptContradictions]
	}

	var parts []string
	for i, c := range sorted {
		line := fmt.Sprintf("%d. %s (%s severity)\n   Between: [%s] and [%s]\n   Confidence: %.2f",
			i+1, orUnknown(string(c.Type)), orUnknown(string(c.Severity)), c.ClaimAID, c.ClaimBID, c.Confidence)
		if c.Explanation != "" {
			line += "\n   " + clip(c.Explanation, explanationRunes)
		}
		resolution := "Not provided"
		if c.Resolution != "" {
			resolution = clip(c.Resolution, resolutionRunes)
		}
		parts = append(parts, line+"\n   Resolution: "+resolution)
	}
	return strings.Join(parts, "\n\n")
}

// KeyFindingsFor lists the five most important claims and counts the
// foundational ones
func KeyFindingsFor(report *model.Report) *model.KeyFindings {
	findings := &model.KeyFindings{
		TopClaims:         []model.ClaimSummary{},
		FoundationalCount: foundationalCount(report.Claims),
	}
	for _, c := range contradict.TopByImportance(report.Claims, keyFindingClaims) {
		findings.TopClaims = append(findings.TopClaims, model.ClaimSummary{
			ID:   c.ID,
			Text: clip(c.Text, findingTextRunes),
		})
	}
	return findings
}

// RecommendationsFor counts contradictions as areas needing clarification
func RecommendationsFor(report *model.Report) *model.Recommendations {
	steps := make([]string, len(SuggestedNextSteps))
	copy(steps, SuggestedNextSteps)
	return &model.Recommendations{
		AreasNeedingClarification: len(report.Contradictions),
		SuggestedNextSteps:        steps,
	}
}

func foundationalCount(claims []model.Claim) int {
	n := 0
	for _, c := range claims {
		if c.IsFoundational {
			n++
		}
	}
	return n
}

// clip shortens s to n runes, marking the cut with an ellipsis
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
