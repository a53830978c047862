package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/claimgraph/internal/model"
)

func makePairs(n int) []model.CandidatePair {
	pairs := make([]model.CandidatePair, n)
	for i := range pairs {
		pairs[i] = model.CandidatePair{SourceID: fmt.Sprintf("s%d", i), TargetID: fmt.Sprintf("t%d", i)}
	}
	return pairs
}

func echoClassifier(ctx context.Context, pair model.CandidatePair) ([]model.Dependency, error) {
	return []model.Dependency{{SourceID: pair.SourceID, TargetID: pair.TargetID, Kind: model.RelationCausal, Confidence: 0.9}}, nil
}

func TestNewBatchRunner_InvalidBatchSize(t *testing.T) {
	for _, size := range []int{0, -3} {
		_, err := NewBatchRunner(size, 4, nil, "")
		if !errors.Is(err, model.ErrConfig) {
			t.Errorf("batch size %d: expected ErrConfig, got %v", size, err)
		}
	}
}

func TestBatchRunner_CommitsEachBatchInOrder(t *testing.T) {
	runner, err := NewBatchRunner(15, 4, NewLimiter(0, 1), "test")
	if err != nil {
		t.Fatalf("NewBatchRunner: %v", err)
	}

	pairs := makePairs(40)
	var committed []BatchResult
	stats, err := runner.Run(context.Background(), pairs, echoClassifier, func(ctx context.Context, b BatchResult) error {
		committed = append(committed, b)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if runner.BatchCount(40) != 3 || len(committed) != 3 {
		t.Fatalf("expected 3 batches, got %d committed", len(committed))
	}
	sizes := []int{15, 15, 10}
	next := 0
	for i, b := range committed {
		if b.Index != i {
			t.Errorf("batch %d committed with index %d", i, b.Index)
		}
		if len(b.Results) != sizes[i] {
			t.Errorf("batch %d: expected %d results, got %d", i, sizes[i], len(b.Results))
		}
		for _, r := range b.Results {
			if r.Index != next || r.Pair != pairs[next] {
				t.Errorf("expected pair %d in order, got index %d", next, r.Index)
			}
			next++
		}
	}
	if stats.Batches != 3 || stats.Processed != 40 || stats.Failed != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestBatchRunner_CountsFailuresWithoutAborting(t *testing.T) {
	runner, _ := NewBatchRunner(5, 2, nil, "")

	classify := func(ctx context.Context, pair model.CandidatePair) ([]model.Dependency, error) {
		if pair.SourceID == "s3" || pair.SourceID == "s7" {
			return nil, errors.New("quota exceeded")
		}
		return nil, nil
	}

	stats, err := runner.Run(context.Background(), makePairs(10), classify, func(context.Context, BatchResult) error { return nil })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Failed != 2 || stats.Processed != 10 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestBatchRunner_StopsAtBatchBoundary(t *testing.T) {
	runner, _ := NewBatchRunner(3, 3, nil, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var commits int32
	stats, err := runner.Run(ctx, makePairs(12), echoClassifier, func(ctx context.Context, b BatchResult) error {
		if atomic.AddInt32(&commits, 1) == 2 {
			cancel()
		}
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if atomic.LoadInt32(&commits) != 2 {
		t.Errorf("expected exactly 2 commits, got %d", commits)
	}
	if stats.Batches != 2 || stats.Processed != 6 {
		t.Errorf("expected stats for the committed batches only, got %+v", stats)
	}
}

func TestBatchRunner_DiscardsInterruptedBatch(t *testing.T) {
	runner, _ := NewBatchRunner(4, 4, nil, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slow := func(ctx context.Context, pair model.CandidatePair) ([]model.Dependency, error) {
		if pair.SourceID == "s0" {
			cancel()
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
			return nil, nil
		}
	}

	committed := false
	_, err := runner.Run(ctx, makePairs(4), slow, func(context.Context, BatchResult) error {
		committed = true
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if committed {
		t.Error("interrupted batch must not be committed")
	}
}

func TestBatchRunner_CommitErrorStopsRun(t *testing.T) {
	runner, _ := NewBatchRunner(2, 1, nil, "")
	boom := errors.New("disk full")

	stats, err := runner.Run(context.Background(), makePairs(6), echoClassifier, func(ctx context.Context, b BatchResult) error {
		if b.Index == 1 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if stats.Batches != 1 {
		t.Errorf("expected 1 committed batch, got %d", stats.Batches)
	}
}

func TestBatchRunner_Empty(t *testing.T) {
	runner, _ := NewBatchRunner(15, 2, nil, "")
	stats, err := runner.Run(context.Background(), nil, echoClassifier, func(context.Context, BatchResult) error {
		t.Error("commit called for empty input")
		return nil
	})
	if err != nil || stats.Batches != 0 {
		t.Errorf("expected no-op, got %+v %v", stats, err)
	}
}

func TestReadLines(t *testing.T) {
	content := `# claim files
a.json

b.json
a.json
  c.json  
`
	path := filepath.Join(t.TempDir(), "list.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	lines, err := ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}

	want := []string{"a.json", "b.json", "c.json"}
	if len(lines) != len(want) {
		t.Fatalf("expected %v, got %v", want, lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %s, got %s", i, want[i], lines[i])
		}
	}

	if _, err := ReadLines(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
