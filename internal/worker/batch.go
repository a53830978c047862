package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/claimgraph/internal/model"
)

// PairFunc classifies one candidate pair. No dependencies and a nil error
// means the classifier found no relationship; a bidirectional relationship
// yields two.
type PairFunc func(ctx context.Context, pair model.CandidatePair) ([]model.Dependency, error)

// CommitFunc persists one finished batch. Batches are committed in order.
type CommitFunc func(ctx context.Context, batch BatchResult) error

// PairJob classifies a single pair under the shared rate limit
type PairJob struct {
	Index    int
	Pair     model.CandidatePair
	Classify PairFunc
	Limiter  *Limiter
	Key      string
}

// Execute waits for rate-limit clearance and runs the classifier
func (j *PairJob) Execute(ctx context.Context) Result {
	res := &PairResult{Index: j.Index, Pair: j.Pair}
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Key); err != nil {
			res.Error = err
			return res
		}
	}
	res.Dependencies, res.Error = j.Classify(ctx, j.Pair)
	return res
}

// PairResult is the outcome of one PairJob
type PairResult struct {
	Index        int
	Pair         model.CandidatePair
	Dependencies []model.Dependency
	Error        error
}

// GetError returns the classification error, if any
func (r *PairResult) GetError() error {
	return r.Error
}

// BatchResult holds the results of one batch in input order
type BatchResult struct {
	Index   int
	Results []*PairResult
}

// RunStats summarizes a BatchRunner run
type RunStats struct {
	Batches   int // committed batches
	Processed int // pairs in committed batches
	Failed    int // pairs whose classification returned an error
}

// BatchRunner classifies pairs in fixed-size batches on a worker pool,
// committing after each batch so a crash loses at most one batch of work
type BatchRunner struct {
	batchSize  int
	workers    int
	limiter    *Limiter
	limiterKey string
}

// NewBatchRunner validates sizes and returns a runner
func NewBatchRunner(batchSize, workers int, limiter *Limiter, limiterKey string) (*BatchRunner, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be > 0, got %d", model.ErrConfig, batchSize)
	}
	if workers <= 0 {
		workers = 1
	}
	return &BatchRunner{
		batchSize:  batchSize,
		workers:    workers,
		limiter:    limiter,
		limiterKey: limiterKey,
	}, nil
}

// BatchCount returns how many batches n pairs split into
func (r *BatchRunner) BatchCount(n int) int {
	return (n + r.batchSize - 1) / r.batchSize
}

// Run processes pairs batch by batch.
//
// Cancellation is honored at batch boundaries: a batch interrupted by ctx is
// discarded rather than committed, and Run returns ctx's error with the stats
// of the batches already committed. A commit error stops the run.
func (r *BatchRunner) Run(ctx context.Context, pairs []model.CandidatePair, classify PairFunc, commit CommitFunc) (RunStats, error) {
	var stats RunStats

	for start, batchIdx := 0, 0; start < len(pairs); start, batchIdx = start+r.batchSize, batchIdx+1 {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		end := start + r.batchSize
		if end > len(pairs) {
			end = len(pairs)
		}

		results := r.runBatch(ctx, pairs[start:end], start, classify)
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		batch := BatchResult{Index: batchIdx, Results: results}
		if err := commit(ctx, batch); err != nil {
			return stats, fmt.Errorf("commit batch %d: %w", batchIdx, err)
		}

		stats.Batches++
		stats.Processed += len(results)
		for _, res := range results {
			if res.Error != nil {
				stats.Failed++
			}
		}
	}

	return stats, nil
}

func (r *BatchRunner) runBatch(ctx context.Context, batch []model.CandidatePair, offset int, classify PairFunc) []*PairResult {
	workers := r.workers
	if workers > len(batch) {
		workers = len(batch)
	}

	jobs := make([]Job, len(batch))
	for i, pair := range batch {
		jobs[i] = &PairJob{
			Index:    offset + i,
			Pair:     pair,
			Classify: classify,
			Limiter:  r.limiter,
			Key:      r.limiterKey,
		}
	}

	raw := NewPool(ctx, workers).Run(jobs)

	results := make([]*PairResult, 0, len(raw))
	for _, res := range raw {
		results = append(results, res.(*PairResult))
	}
	sort.Slice(results, func(a, b int) bool {
		return results[a].Index < results[b].Index
	})
	return results
}

// ReadLines reads a list file: one entry per line, blank lines and
// #-comments skipped, duplicates dropped
func ReadLines(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return lines, nil
}
