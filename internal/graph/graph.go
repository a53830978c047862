package graph

import (
	"fmt"

	"github.com/ppiankov/claimgraph/internal/model"
)

// arc is a directed edge between node handles
type arc struct {
	from   int
	to     int
	weight float64
}

// candidate is the latest classification seen for an ordered pair
type candidate struct {
	arc
	accepted bool
}

// dependencyGraph is an arena of claim nodes addressed by integer handle.
// Handles follow the order of the claim slice it was built from. It lives for
// a single scoring pass.
type dependencyGraph struct {
	ids   []string
	index map[string]int
	arcs  []arc   // source -> target, one per ordered pair
	out   [][]int // arc indices leaving each node
	in    [][]int // arc indices entering each node
}

// build validates edges against the claim set and assembles the arena.
//
// Self-loops and references to unknown claims abort the whole build with
// ErrDataIntegrity. Edges that do not pass the acceptance threshold are left
// out of the graph. A later edge for the same ordered pair replaces an
// earlier one, and a later rejected edge removes it, as EdgeSet.Accept does.
func build(claims []model.Claim, edges []model.Dependency, threshold float64, weighted bool) (*dependencyGraph, error) {
	g := &dependencyGraph{
		ids:   make([]string, len(claims)),
		index: make(map[string]int, len(claims)),
	}
	for i, c := range claims {
		if _, dup := g.index[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate claim id %q", model.ErrInvalidInput, c.ID)
		}
		g.ids[i] = c.ID
		g.index[c.ID] = i
	}

	// the latest result per ordered pair wins, including a rejected one
	slot := make(map[[2]int]int)
	var latest []candidate
	for i, e := range edges {
		if e.IsSelfLoop() {
			return nil, fmt.Errorf("%w: edge %d is a self-loop on claim %q", model.ErrDataIntegrity, i, e.SourceID)
		}
		from, ok := g.index[e.SourceID]
		if !ok {
			return nil, fmt.Errorf("%w: edge %d references unknown source claim %q", model.ErrDataIntegrity, i, e.SourceID)
		}
		to, ok := g.index[e.TargetID]
		if !ok {
			return nil, fmt.Errorf("%w: edge %d references unknown target claim %q", model.ErrDataIntegrity, i, e.TargetID)
		}

		c := candidate{arc: arc{from: from, to: to, weight: 1}, accepted: Acceptable(e, threshold)}
		if weighted {
			c.weight = e.Confidence
		}
		key := [2]int{from, to}
		if at, exists := slot[key]; exists {
			latest[at] = c
			continue
		}
		slot[key] = len(latest)
		latest = append(latest, c)
	}
	for _, c := range latest {
		if c.accepted {
			g.arcs = append(g.arcs, c.arc)
		}
	}

	g.out = make([][]int, len(claims))
	g.in = make([][]int, len(claims))
	for i, a := range g.arcs {
		g.out[a.from] = append(g.out[a.from], i)
		g.in[a.to] = append(g.in[a.to], i)
	}
	return g, nil
}

func (g *dependencyGraph) nodeCount() int { return len(g.ids) }

func (g *dependencyGraph) edgeCount() int { return len(g.arcs) }

func (g *dependencyGraph) outDegree(n int) int { return len(g.out[n]) }

func (g *dependencyGraph) inDegree(n int) int { return len(g.in[n]) }
