// Package alias computes which graph values may share underlying storage.
//
// View-producing operations (per the registry's closed set) link their
// output to their first input; chasing those links yields each value's
// base, the original non-view tensor owning the storage. The result is a
// snapshot: it becomes stale as soon as the graph is rewritten and must be
// recomputed for another pass over the same graph.
package alias

import (
	"github.com/emirpasic/gods/v2/sets/linkedhashset"

	"github.com/born-ml/graph/internal/graph"
	"github.com/born-ml/graph/internal/ops"
)

// Result holds the alias relation for one graph snapshot.
type Result struct {
	base    map[*graph.Value]*graph.Value
	storage map[*graph.Value]*linkedhashset.Set[*graph.Value]
}

// Analyze runs a single forward pass over the graph in program order.
// View-op outputs inherit their input's base; every other value is its
// own base.
func Analyze(g *graph.Graph, reg *ops.Registry) *Result {
	r := &Result{
		base:    make(map[*graph.Value]*graph.Value),
		storage: make(map[*graph.Value]*linkedhashset.Set[*graph.Value]),
	}

	for _, v := range g.Inputs() {
		r.establish(v, v)
	}
	for _, n := range g.Nodes() {
		if reg.IsView(n.Op()) && len(n.Inputs()) > 0 && len(n.Outputs()) == 1 {
			in := n.Input(0)
			r.establish(n.Out(), r.Base(in))
			continue
		}
		for _, o := range n.Outputs() {
			r.establish(o, o)
		}
	}
	return r
}

func (r *Result) establish(v, base *graph.Value) {
	r.base[v] = base
	set, ok := r.storage[base]
	if !ok {
		set = linkedhashset.New[*graph.Value]()
		r.storage[base] = set
	}
	set.Add(v)
}

// Base returns the base value owning v's storage; v itself if v is not a
// view. Values unknown to the analysis are their own base.
func (r *Result) Base(v *graph.Value) *graph.Value {
	if b, ok := r.base[v]; ok {
		return b
	}
	return v
}

// IsView reports whether v shares storage with an earlier value.
func (r *Result) IsView(v *graph.Value) bool {
	return r.Base(v) != v
}

// Storage returns every value sharing v's underlying storage, in
// program-order of discovery (the base first, then its views).
func (r *Result) Storage(v *graph.Value) []*graph.Value {
	set, ok := r.storage[r.Base(v)]
	if !ok {
		return []*graph.Value{v}
	}
	return set.Values()
}

// SharesStorage reports whether a and b may share underlying storage.
func (r *Result) SharesStorage(a, b *graph.Value) bool {
	return r.Base(a) == r.Base(b)
}

// StorageUnion returns every value sharing storage with any of the given
// bases, deduplicated, preserving first-seen order. Used for calls that
// declare multiple bases (_all_bases): the call must be treated as
// touching all of them together.
func (r *Result) StorageUnion(bases []*graph.Value) []*graph.Value {
	union := linkedhashset.New[*graph.Value]()
	for _, b := range bases {
		for _, v := range r.Storage(b) {
			union.Add(v)
		}
	}
	return union.Values()
}
