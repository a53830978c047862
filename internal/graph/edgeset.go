package graph

import "github.com/ppiankov/claimgraph/internal/model"

// DefaultAcceptThreshold is the confidence an edge must strictly exceed to be kept
const DefaultAcceptThreshold = 0.7

// EdgeSet holds the accepted dependency edges of one analysis.
//
// At most one edge exists per ordered (source, target) pair: a later
// classification of the same pair replaces the earlier one, so retried
// classifications never produce parallel edges. Insertion order is kept so
// that Edges is deterministic.
//
// EdgeSet is not safe for concurrent use.
type EdgeSet struct {
	threshold float64
	order     []model.EdgeKey
	edges     map[model.EdgeKey]model.Dependency
}

// NewEdgeSet creates an empty edge set with the given acceptance threshold
func NewEdgeSet(threshold float64) *EdgeSet {
	return &EdgeSet{
		threshold: threshold,
		edges:     make(map[model.EdgeKey]model.Dependency),
	}
}

// Accepts reports whether dep would be retained: confidence strictly above
// the threshold, a real relationship kind and distinct endpoints
func (s *EdgeSet) Accepts(dep model.Dependency) bool {
	return Acceptable(dep, s.threshold)
}

// Acceptable is the acceptance rule shared by EdgeSet and the scorer
func Acceptable(dep model.Dependency, threshold float64) bool {
	if dep.IsSelfLoop() {
		return false
	}
	if dep.Kind == model.RelationNone || dep.Kind == "" {
		return false
	}
	return dep.Confidence > threshold
}

// Accept records the latest classification for dep's ordered pair and
// reports whether it was retained. A rejected result for a pair that
// previously held an edge removes that edge: the latest classification wins.
func (s *EdgeSet) Accept(dep model.Dependency) bool {
	key := dep.Key()
	if !s.Accepts(dep) {
		if !dep.IsSelfLoop() {
			s.remove(key)
		}
		return false
	}

	if _, exists := s.edges[key]; !exists {
		s.order = append(s.order, key)
	}
	s.edges[key] = dep
	return true
}

// Get returns the edge stored for the ordered pair, if any
func (s *EdgeSet) Get(source, target string) (model.Dependency, bool) {
	dep, ok := s.edges[model.EdgeKey{Source: source, Target: target}]
	return dep, ok
}

// Len returns the number of accepted edges
func (s *EdgeSet) Len() int {
	return len(s.edges)
}

// Edges returns the accepted edges in first-insertion order
func (s *EdgeSet) Edges() []model.Dependency {
	out := make([]model.Dependency, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.edges[key])
	}
	return out
}

func (s *EdgeSet) remove(key model.EdgeKey) {
	if _, ok := s.edges[key]; !ok {
		return
	}
	delete(s.edges, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
