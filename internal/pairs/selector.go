// Package pairs selects which claim pairs are worth sending to the
// relationship classifier. Exhaustive pairing costs N² classifier calls; the
// selector keeps the cost near-linear by pairing only the highest-confidence
// claims with everything, plus a short window of same-type neighbours.
package pairs

import (
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/claimgraph/internal/model"
)

// Selection defaults
const (
	DefaultMaxPairs         = 250
	DefaultTypeWindow       = 3
	DefaultPriorityFraction = 0.2
)

// Options configures a Selector. Zero values select the defaults.
type Options struct {
	// MaxPairs caps the number of emitted pairs. 0 selects DefaultMaxPairs,
	// negative values are a configuration error.
	MaxPairs int

	// TypeWindow is how many following same-type claims each claim is paired with.
	TypeWindow int

	// PriorityFraction is the share of claims (by confidence) paired with every other claim.
	PriorityFraction float64
}

// Selector produces bounded, de-duplicated candidate pairs
type Selector struct {
	maxPairs         int
	typeWindow       int
	priorityFraction float64
}

// NewSelector validates opts and returns a selector
func NewSelector(opts Options) (*Selector, error) {
	if opts.MaxPairs < 0 {
		return nil, fmt.Errorf("%w: max pairs must be > 0, got %d", model.ErrConfig, opts.MaxPairs)
	}
	if opts.MaxPairs == 0 {
		opts.MaxPairs = DefaultMaxPairs
	}
	if opts.TypeWindow < 0 {
		return nil, fmt.Errorf("%w: type window must be >= 0, got %d", model.ErrConfig, opts.TypeWindow)
	}
	if opts.TypeWindow == 0 {
		opts.TypeWindow = DefaultTypeWindow
	}
	if opts.PriorityFraction < 0 || opts.PriorityFraction > 1 {
		return nil, fmt.Errorf("%w: priority fraction must be in [0,1], got %g", model.ErrConfig, opts.PriorityFraction)
	}
	if opts.PriorityFraction == 0 {
		opts.PriorityFraction = DefaultPriorityFraction
	}

	return &Selector{
		maxPairs:         opts.MaxPairs,
		typeWindow:       opts.TypeWindow,
		priorityFraction: opts.PriorityFraction,
	}, nil
}

// MaxPairs returns the effective pair budget
func (s *Selector) MaxPairs() int {
	return s.maxPairs
}

// Select returns at most MaxPairs pairs, each unordered pair exactly once and
// never a claim paired with itself. Output order is fully determined by the
// input: high-priority pairs first, then same-type pairs.
func (s *Selector) Select(claims []model.Claim) ([]model.CandidatePair, error) {
	if err := checkIDs(claims); err != nil {
		return nil, err
	}

	n := len(claims)
	if n < 2 {
		return []model.CandidatePair{}, nil
	}

	acc := newAccumulator(s.maxPairs)

	// 1. High-priority claims paired with every other claim
	for _, hi := range s.highPriority(claims) {
		for j := range claims {
			if j == hi {
				continue
			}
			if acc.add(claims[hi].ID, claims[j].ID) {
				return acc.pairs, nil
			}
		}
	}

	// 2. Same-type neighbours within a sliding window
	for _, group := range groupByType(claims) {
		for i, a := range group {
			end := i + 1 + s.typeWindow
			if end > len(group) {
				end = len(group)
			}
			for _, b := range group[i+1 : end] {
				if acc.add(claims[a].ID, claims[b].ID) {
					return acc.pairs, nil
				}
			}
		}
	}

	return acc.pairs, nil
}

// highPriority returns the indices of the top ceil(fraction·N) claims by
// confidence, at least one. Ties keep input order.
func (s *Selector) highPriority(claims []model.Claim) []int {
	ranked := make([]int, len(claims))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return claims[ranked[a]].Confidence > claims[ranked[b]].Confidence
	})

	// epsilon keeps 0.2*15 from rounding up to 4
	k := int(math.Ceil(s.priorityFraction*float64(len(claims)) - 1e-9))
	if k < 1 {
		k = 1
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}

// groupByType buckets claim indices by type, groups ordered by first appearance
func groupByType(claims []model.Claim) [][]int {
	index := make(map[string]int)
	var groups [][]int
	for i, c := range claims {
		key := c.Type.GroupKey()
		g, ok := index[key]
		if !ok {
			g = len(groups)
			index[key] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

func checkIDs(claims []model.Claim) error {
	seen := make(map[string]bool, len(claims))
	for i, c := range claims {
		if c.ID == "" {
			return fmt.Errorf("%w: claim at index %d has no id", model.ErrInvalidInput, i)
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: duplicate claim id %q", model.ErrInvalidInput, c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

// accumulator collects pairs in emission order, deduplicated by unordered identity
type accumulator struct {
	limit int
	seen  map[model.PairKey]struct{}
	pairs []model.CandidatePair
}

func newAccumulator(limit int) *accumulator {
	return &accumulator{
		limit: limit,
		seen:  make(map[model.PairKey]struct{}),
		pairs: make([]model.CandidatePair, 0),
	}
}

// add records the pair if new and reports whether the budget is exhausted
func (a *accumulator) add(source, target string) bool {
	p := model.CandidatePair{SourceID: source, TargetID: target}
	key := p.Key()
	if _, dup := a.seen[key]; !dup {
		a.seen[key] = struct{}{}
		a.pairs = append(a.pairs, p)
	}
	return len(a.pairs) >= a.limit
}
