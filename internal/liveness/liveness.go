// Package liveness computes, for every point in program order, the set of
// values read after that point, either by a later node's inputs or by the
// graph's declared outputs.
//
// The analysis is storage-agnostic: it tracks value handles, not buffers.
// Reinplacing physically mutates shared storage regardless of which handle
// is used, so the decision engine couples base and view liveness through
// the alias result (if either is live, the storage is live). Keeping the
// coupling out of this package lets liveness and alias analysis run
// independently, in either order or in parallel.
package liveness

import (
	"github.com/emirpasic/gods/v2/sets/linkedhashset"

	"github.com/born-ml/graph/internal/graph"
)

// Result maps node positions to live-after sets.
type Result struct {
	liveAfter []*linkedhashset.Set[*graph.Value]
}

// Analyze traverses the program in reverse, carrying a running live set:
// after the last node only the graph outputs are live; walking backward,
// each node's inputs become live before it and its outputs die at their
// definition.
func Analyze(g *graph.Graph) *Result {
	nodes := g.Nodes()
	r := &Result{liveAfter: make([]*linkedhashset.Set[*graph.Value], len(nodes))}

	live := linkedhashset.New[*graph.Value]()
	for _, o := range g.Outputs() {
		live.Add(o)
	}

	for i := len(nodes) - 1; i >= 0; i-- {
		r.liveAfter[i] = snapshot(live)
		n := nodes[i]
		for _, o := range n.Outputs() {
			live.Remove(o)
		}
		for _, in := range n.Inputs() {
			live.Add(in)
		}
	}
	return r
}

// LiveAfter returns the set of values live after the node at position i.
func (r *Result) LiveAfter(i int) []*graph.Value {
	if i < 0 || i >= len(r.liveAfter) {
		return nil
	}
	return r.liveAfter[i].Values()
}

// IsLiveAfter reports whether v is read after the node at position i.
func (r *Result) IsLiveAfter(v *graph.Value, i int) bool {
	if i < 0 || i >= len(r.liveAfter) {
		return false
	}
	return r.liveAfter[i].Contains(v)
}

func snapshot(s *linkedhashset.Set[*graph.Value]) *linkedhashset.Set[*graph.Value] {
	out := linkedhashset.New[*graph.Value]()
	for _, v := range s.Values() {
		out.Add(v)
	}
	return out
}
