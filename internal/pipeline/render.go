package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/claimgraph/internal/contradict"
	"github.com/ppiankov/claimgraph/internal/model"
	"github.com/ppiankov/claimgraph/internal/store"
)

// Renderer writes reports as JSON and Markdown
type Renderer struct {
	includeFooter bool
	topClaims     int
}

// NewRenderer creates a renderer. topClaims <= 0 lists 10 claims.
func NewRenderer(includeFooter bool, topClaims int) *Renderer {
	if topClaims <= 0 {
		topClaims = 10
	}
	return &Renderer{includeFooter: includeFooter, topClaims: topClaims}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	return store.WriteJSON(path, report)
}

// RenderReport writes whichever outputs have a non-empty path
func (r *Renderer) RenderReport(report *model.Report, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := r.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}
	if mdPath != "" {
		if err := r.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
	}
	return nil
}

// RenderMarkdown writes the human-readable report to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := r.WriteMarkdown(f, report); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteMarkdown renders the report to w
func (r *Renderer) WriteMarkdown(w io.Writer, report *model.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Claim dependency report: %s\n\n", report.Subject)
	fmt.Fprintf(&b, "- Run: `%s`\n", report.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- Confidence: **%s**\n", report.Score.Confidence)
	if report.LLM != nil {
		fmt.Fprintf(&b, "- Classifier: %s", report.LLM.Provider)
		if report.LLM.Model != "" {
			fmt.Fprintf(&b, "/%s", report.LLM.Model)
		}
		fmt.Fprintf(&b, " (%d tokens, %d cache hits)\n", report.LLM.TokensUsed, report.LLM.CacheHits)
	}
	b.WriteString("\n")

	s := report.Stats
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Claims | %d |\n", s.TotalClaims)
	fmt.Fprintf(&b, "| Candidate pairs | %d |\n", s.CandidatePairs)
	fmt.Fprintf(&b, "| Pairs classified | %d |\n", s.PairsClassified)
	fmt.Fprintf(&b, "| Classification errors | %d |\n", s.ClassificationErrors)
	fmt.Fprintf(&b, "| Dependencies | %d |\n", s.DependenciesFound)
	fmt.Fprintf(&b, "| Contradictions | %d |\n\n", s.TotalContradictions)
	if s.NoRelationshipsFound() && s.PairsClassified > 0 {
		b.WriteString("No relationships were found between the classified pairs.\n\n")
	}

	if report.Synthesis != "" {
		b.WriteString("## Synthesis\n\n")
		b.WriteString(report.Synthesis)
		b.WriteString("\n\n")
	}

	if kf := report.KeyFindings; kf != nil {
		b.WriteString("## Key findings\n\n")
		for _, c := range kf.TopClaims {
			fmt.Fprintf(&b, "- `%s` %s\n", c.ID, c.Text)
		}
		fmt.Fprintf(&b, "\nFoundational claims: %d\n\n", kf.FoundationalCount)
	}

	texts := make(map[string]string, len(report.Claims))
	for _, c := range report.Claims {
		texts[c.ID] = c.Text
	}

	b.WriteString("## Top claims by importance\n\n")
	b.WriteString("| # | Claim | Importance | PageRank | Centrality | Foundational |\n|---|---|---|---|---|---|\n")
	for i, c := range contradict.TopByImportance(report.Claims, r.topClaims) {
		foundational := ""
		if c.IsFoundational {
			foundational = "yes"
		}
		fmt.Fprintf(&b, "| %d | %s | %.4f | %.4f | %.4f | %s |\n",
			i+1, cell(c.Text), c.ImportanceOrZero(), deref(c.PageRank), deref(c.Centrality), foundational)
	}
	b.WriteString("\n")

	b.WriteString("## Foundational claims\n\n")
	found := false
	for _, c := range report.Claims {
		if c.IsFoundational {
			fmt.Fprintf(&b, "- `%s` %s\n", c.ID, c.Text)
			found = true
		}
	}
	if !found {
		b.WriteString("None.\n")
	}
	b.WriteString("\n")

	b.WriteString("## Dependencies\n\n")
	if len(report.Dependencies) == 0 {
		b.WriteString("None.\n\n")
	} else {
		byKind := make(map[model.RelationshipKind][]model.Dependency)
		for _, d := range report.Dependencies {
			byKind[d.Kind] = append(byKind[d.Kind], d)
		}
		kinds := make([]string, 0, len(byKind))
		for k := range byKind {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			deps := byKind[model.RelationshipKind(k)]
			fmt.Fprintf(&b, "### %s (%d)\n\n", k, len(deps))
			for _, d := range deps {
				fmt.Fprintf(&b, "- `%s` → `%s` (%.2f)", d.SourceID, d.TargetID, d.Confidence)
				if d.Explanation != "" {
					fmt.Fprintf(&b, ": %s", d.Explanation)
				}
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}

	if len(report.Contradictions) > 0 {
		b.WriteString("## Contradictions\n\n")
		for _, c := range report.Contradictions {
			fmt.Fprintf(&b, "- **%s / %s** `%s` vs `%s` (%.2f)\n", c.Type, c.Severity, c.ClaimAID, c.ClaimBID, c.Confidence)
			fmt.Fprintf(&b, "  - A: %s\n  - B: %s\n", texts[c.ClaimAID], texts[c.ClaimBID])
			if c.Explanation != "" {
				fmt.Fprintf(&b, "  - %s\n", c.Explanation)
			}
			if c.Resolution != "" {
				fmt.Fprintf(&b, "  - Resolution: %s\n", c.Resolution)
			}
		}
		b.WriteString("\n")
	}

	if recs := report.Recommendations; recs != nil {
		b.WriteString("## Recommendations\n\n")
		fmt.Fprintf(&b, "Areas needing clarification: %d\n\n", recs.AreasNeedingClarification)
		for _, step := range recs.SuggestedNextSteps {
			fmt.Fprintf(&b, "- %s\n", step)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Signals\n\n")
	for _, sig := range report.Score.Signals {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", sig.Severity, sig.Type, sig.Description)
		if formula, ok := sig.Data["formula"].(string); ok {
			fmt.Fprintf(&b, "  - `%s`\n", formula)
		}
	}

	if r.includeFooter {
		b.WriteString("\n---\n\n")
		b.WriteString("Importance blends PageRank and betweenness centrality and sums to 1 across claims. ")
		b.WriteString("Edges are kept only when classifier confidence exceeds the acceptance threshold.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > 120 {
		s = string(r[:117]) + "..."
	}
	return s
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
