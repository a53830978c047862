package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimgraph/internal/logger"
	"github.com/ppiankov/claimgraph/internal/model"
	"github.com/ppiankov/claimgraph/internal/pipeline"
	"github.com/ppiankov/claimgraph/internal/store"
)

var (
	outJSON     string
	outMD       string
	timeout     time.Duration
	noCache     bool
	noSynthesis bool
	noFooter    bool
	llmProvider string
	llmModel    string
	batchSize   int
	maxPairs    int
	workers     int
	httpProxy   string
	httpsProxy  string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <claims.json>",
	Short: "Build the dependency graph of a claims file and score it",
	Long: `Analyze runs the full pipeline over one claims file:
- Select candidate claim pairs within the pair budget
- Classify each pair with the configured LLM, in committed batches
- Keep confident relationships as directed dependency edges
- Score claims by importance and flag foundational claims
- Detect contradictions among the most important claims
- Write an executive synthesis with the LLM
- Write JSON and Markdown reports

The claims file is a JSON array of claims or an object with a "claims" array.

Example:
  claimgraph analyze claims.json --llm-provider openai --llm-model gpt-4o-mini
  claimgraph analyze claims.json --json report.json --md report.md
  claimgraph analyze claims.json --llm-provider gemini --batch-size 10 --max-pairs 100`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "overall analysis timeout")

	addPipelineFlags(analyzeCmd)
}

// addPipelineFlags registers the flags shared by analyze and batch
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the classifier response cache")
	cmd.Flags().BoolVar(&noSynthesis, "no-synthesis", false, "skip the LLM-written synthesis section")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// Selection flags
	cmd.Flags().IntVar(&batchSize, "batch-size", 15, "pairs classified per committed batch")
	cmd.Flags().IntVar(&maxPairs, "max-pairs", 250, "maximum candidate pairs to classify")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent classifier calls")

	// LLM flags
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, gemini, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

// applyFlags overrides cfg with every flag the user set explicitly
func applyFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("no-synthesis") {
		cfg.Synthesis.Enabled = !noSynthesis
	}
	if flags.Changed("no-footer") {
		cfg.Output.IncludeFooter = !noFooter
	}
	if flags.Changed("http-proxy") {
		cfg.LLM.HTTPProxy = httpProxy
	}
	if flags.Changed("https-proxy") {
		cfg.LLM.HTTPSProxy = httpsProxy
	}
	if flags.Changed("batch-size") {
		cfg.Selection.BatchSize = batchSize
	}
	if flags.Changed("max-pairs") {
		cfg.Selection.MaxPairs = maxPairs
	}
	if flags.Changed("workers") {
		cfg.Concurrency.Workers = workers
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	cfg.Output.Verbose = verbose
}

// buildAnalyzer loads configuration and wires the full pipeline
func buildAnalyzer(cmd *cobra.Command) (*pipeline.Analyzer, *pipeline.LLMStack, *model.Config, *logger.Logger, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, nil, nil, nil, err
	}
	applyFlags(cmd, cfg)
	applyProviderEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, nil, err
	}

	log := newLogger(cfg)
	stack, err := pipeline.NewLLMStack(cfg, log)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("llm: %w", err)
	}

	opts := []pipeline.Option{pipeline.WithLLM(stack), pipeline.WithLogger(log)}
	if cfg.Output.Verbose {
		opts = append(opts, pipeline.WithProgress(func(stage string, percent int) {
			fmt.Fprintf(os.Stderr, "  [%3d%%] %s\n", percent, stage)
		}))
	}

	analyzer, err := pipeline.NewAnalyzer(cfg, opts...)
	if err != nil {
		_ = stack.Close()
		return nil, nil, nil, nil, err
	}
	return analyzer, stack, cfg, log, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
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

	claims, err := store.LoadClaims(path)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", path)
		fmt.Fprintf(os.Stderr, "Claims: %d\n", len(claims))
		fmt.Fprintf(os.Stderr, "LLM: %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	report, err := analyzer.Analyze(ctx, subjectFor(path), claims)
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Classified %d/%d candidate pairs\n", report.Stats.PairsClassified, report.Stats.CandidatePairs)
		fmt.Fprintf(os.Stderr, "✓ Accepted %d dependencies\n", report.Stats.DependenciesFound)
		fmt.Fprintf(os.Stderr, "✓ Found %d foundational claims\n", len(report.Scoring.FoundationalIDs(claimIDs(report.Claims))))
		if report.Stats.ClassificationErrors > 0 {
			fmt.Fprintf(os.Stderr, "✗ %d pairs failed to classify\n", report.Stats.ClassificationErrors)
		}
		fmt.Fprintln(os.Stderr)
	}

	// Render outputs
	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter, cfg.Output.TopClaims)
	if err := renderer.RenderReport(report, outJSON, outMD); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if verbose {
		if outJSON != "" {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
		if outMD != "" {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}

	return nil
}

// subjectFor names a report after its input file
func subjectFor(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func claimIDs(claims []model.Claim) []string {
	ids := make([]string, len(claims))
	for i, c := range claims {
		ids[i] = c.ID
	}
	return ids
}
