package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/claimgraph/internal/model"
	"github.com/ppiankov/claimgraph/internal/pipeline"
	"github.com/ppiankov/claimgraph/internal/store"
	"github.com/ppiankov/claimgraph/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze several claims files in parallel",
	Long: `Batch analyzes multiple claims files concurrently:
- Read claims file paths from the input file (one per line, # comments allowed)
- Analyze files in parallel with a configurable file concurrency
- Classifier calls of all files share one rate limit and cache
- Generate a JSON and Markdown report for each file

Example:
  claimgraph batch files.txt
  claimgraph batch files.txt --concurrency 2 --output-dir ./reports
  claimgraph batch files.txt --llm-provider ollama --llm-model llama3.1 --timeout 2h`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of files analyzed at once")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./claimgraph-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", time.Hour, "total timeout for batch processing")

	addPipelineFlags(batchCmd)
}

type fileResult struct {
	path   string
	report *model.Report
	err    error
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	analyzer, stack, cfg, log, err := buildAnalyzer(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer func() { _ = stack.Close() }()
	defer startTracing(ctx, cfg, log)()

	if !analyzer.HasClassifier() {
		return fmt.Errorf("no LLM provider configured: set --llm-provider or llm.provider in the config file")
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  claimgraph batch analysis\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Files:        %d at once\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Workers:      %d per file\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	// Create output directory
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	paths, err := worker.ReadLines(file)
	if err != nil {
		return fmt.Errorf("read input list: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d claims files\n\n", len(paths))

	results := analyzeFiles(ctx, analyzer, paths, concurrency)

	// Process results
	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter, cfg.Output.TopClaims)
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.path, result.err)
			continue
		}

		// Generate output file names
		slug := sanitizeFilename(result.report.Subject)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderReport(result.report, jsonPath, mdPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.path, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%d claims, %d dependencies, confidence: %s)\n",
			result.report.Subject, result.report.Stats.TotalClaims, result.report.Stats.DependenciesFound, result.report.Score.Confidence)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d files\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d files failed", failureCount)
	}
	return nil
}

// analyzeFiles runs up to limit analyses at once. One file failing does not
// stop the others; results keep input order.
func analyzeFiles(ctx context.Context, analyzer *pipeline.Analyzer, paths []string, limit int) []fileResult {
	if limit <= 0 {
		limit = 1
	}
	results := make([]fileResult, len(paths))

	var g errgroup.Group
	g.SetLimit(limit)

	for i, path := range paths {
		g.Go(func() error {
			res := fileResult{path: path}
			claims, err := store.LoadClaims(path)
			if err == nil {
				res.report, err = analyzer.Analyze(ctx, subjectFor(path), claims)
			}
			res.err = err

			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		s = "report"
	}

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}

	return s
}
