// Package store holds claims and accepted dependency edges per analysis scope.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ppiankov/claimgraph/internal/graph"
	"github.com/ppiankov/claimgraph/internal/model"
)

// ClaimStore reads claims and writes derived scores back
type ClaimStore interface {
	Claims(ctx context.Context, scope string) ([]model.Claim, error)
	ApplyScores(ctx context.Context, scope string, result *model.ScoringResult) error
}

// EdgeStore persists accepted dependency edges
type EdgeStore interface {
	UpsertEdges(ctx context.Context, scope string, deps []model.Dependency) (UpsertStats, error)
	Edges(ctx context.Context, scope string) ([]model.Dependency, error)
}

// UpsertStats counts what an UpsertEdges call did
type UpsertStats struct {
	Accepted int // stored or replaced
	Rejected int // below threshold, none, or self-loop
}

type scopeData struct {
	claims []model.Claim
	index  map[string]int
	edges  *graph.EdgeSet
}

// Memory is an in-process ClaimStore and EdgeStore
type Memory struct {
	mu        sync.RWMutex
	threshold float64
	scopes    map[string]*scopeData
}

// NewMemory creates an empty store. Edges must beat threshold to be kept.
func NewMemory(threshold float64) *Memory {
	return &Memory{
		threshold: threshold,
		scopes:    make(map[string]*scopeData),
	}
}

// AddClaims appends claims to scope. Claims without an ID get a generated
// one; duplicate IDs fail the whole call.
func (m *Memory) AddClaims(_ context.Context, scope string, claims []model.Claim) ([]model.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.scope(scope)

	added := make([]model.Claim, len(claims))
	seen := make(map[string]bool, len(claims))
	for i, c := range claims {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if _, exists := s.index[c.ID]; exists || seen[c.ID] {
			return nil, fmt.Errorf("%w: duplicate claim id %q", model.ErrInvalidInput, c.ID)
		}
		seen[c.ID] = true
		added[i] = c
	}

	for _, c := range added {
		s.index[c.ID] = len(s.claims)
		s.claims = append(s.claims, c)
	}
	return added, nil
}

// Claims returns a copy of the scope's claims in insertion order
func (m *Memory) Claims(_ context.Context, scope string) ([]model.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.scopes[scope]
	if !ok {
		return []model.Claim{}, nil
	}
	out := make([]model.Claim, len(s.claims))
	copy(out, s.claims)
	return out, nil
}

// ApplyScores writes every entry of result onto its claim. Nothing is written
// if any entry names an unknown claim.
func (m *Memory) ApplyScores(_ context.Context, scope string, result *model.ScoringResult) error {
	if result == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.scopes[scope]
	if !ok && len(result.Scores) > 0 {
		return fmt.Errorf("%w: unknown scope %q", model.ErrDataIntegrity, scope)
	}
	for id := range result.Scores {
		if _, known := s.index[id]; !known {
			return fmt.Errorf("%w: score for unknown claim %q", model.ErrDataIntegrity, id)
		}
	}

	for id, entry := range result.Scores {
		s.claims[s.index[id]].ApplyScore(entry)
	}
	return nil
}

// UpsertEdges validates deps against the scope's claims, then stores the
// acceptable ones. Edges naming unknown claims fail the whole call.
func (m *Memory) UpsertEdges(_ context.Context, scope string, deps []model.Dependency) (UpsertStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stats UpsertStats
	s := m.scope(scope)
	for _, d := range deps {
		if _, ok := s.index[d.SourceID]; !ok {
			return stats, fmt.Errorf("%w: edge source %q is not a known claim", model.ErrDataIntegrity, d.SourceID)
		}
		if _, ok := s.index[d.TargetID]; !ok {
			return stats, fmt.Errorf("%w: edge target %q is not a known claim", model.ErrDataIntegrity, d.TargetID)
		}
	}

	for _, d := range deps {
		if s.edges.Accept(d) {
			stats.Accepted++
		} else {
			stats.Rejected++
		}
	}
	return stats, nil
}

// Edges returns the accepted edges of scope in first-accepted order
func (m *Memory) Edges(_ context.Context, scope string) ([]model.Dependency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.scopes[scope]
	if !ok {
		return []model.Dependency{}, nil
	}
	return s.edges.Edges(), nil
}

// Drop forgets a scope entirely
func (m *Memory) Drop(scope string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scopes, scope)
}

// scope returns the data for name, creating it. Callers hold the write lock.
func (m *Memory) scope(name string) *scopeData {
	s, ok := m.scopes[name]
	if !ok {
		s = &scopeData{
			index: make(map[string]int),
			edges: graph.NewEdgeSet(m.threshold),
		}
		m.scopes[name] = s
	}
	return s
}
