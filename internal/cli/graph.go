package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimgraph/internal/graph"
	"github.com/ppiankov/claimgraph/internal/pairs"
	"github.com/ppiankov/claimgraph/internal/store"
)

// pairsCmd represents the pairs command
var pairsCmd = &cobra.Command{
	Use:   "pairs <claims.json>",
	Short: "Print the candidate pairs selected for classification",
	Long: `Pairs runs candidate selection only and prints the pairs as JSON.
No LLM is called.

Example:
  claimgraph pairs claims.json
  claimgraph pairs claims.json --max-pairs 50`,
	Args: cobra.ExactArgs(1),
	RunE: runPairs,
}

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score <claims.json> <edges.json>",
	Short: "Score claims against an existing set of dependency edges",
	Long: `Score computes PageRank, betweenness centrality, importance and the
foundational flag for every claim, given already classified edges, and
prints the scoring result as JSON. No LLM is called.

Edges referencing unknown claims, or pointing a claim at itself, are rejected.

Example:
  claimgraph score claims.json edges.json`,
	Args: cobra.ExactArgs(2),
	RunE: runScore,
}

var pairsMaxPairs int

func init() {
	rootCmd.AddCommand(pairsCmd)
	rootCmd.AddCommand(scoreCmd)

	pairsCmd.Flags().IntVar(&pairsMaxPairs, "max-pairs", 0, "maximum candidate pairs (default from config)")
}

func runPairs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("max-pairs") {
		cfg.Selection.MaxPairs = pairsMaxPairs
	}

	claims, err := store.LoadClaims(args[0])
	if err != nil {
		return err
	}

	selector, err := pairs.NewSelector(pairs.Options{
		MaxPairs:   cfg.Selection.MaxPairs,
		TypeWindow: cfg.Selection.TypeWindow,
	})
	if err != nil {
		return err
	}

	selected, err := selector.Select(claims)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Selected %d pairs from %d claims (budget %d)\n", len(selected), len(claims), selector.MaxPairs())
	}
	return printJSON(cmd.OutOrStdout(), selected)
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	claims, err := store.LoadClaims(args[0])
	if err != nil {
		return err
	}
	edges, err := store.LoadEdges(args[1])
	if err != nil {
		return err
	}

	result, err := graph.NewScorer(graph.OptionsFromConfig(cfg.Graph)).Score(cmd.Context(), claims, edges)
	if err != nil {
		return fmt.Errorf("score failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Scored %d claims over %d edges (%d iterations, converged: %v)\n",
			result.NodeCount, result.EdgeCount, result.Iterations, result.Converged)
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
