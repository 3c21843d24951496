package reinplace

import (
	"slices"

	"github.com/born-ml/graph/internal/alias"
	"github.com/born-ml/graph/internal/graph"
	"github.com/born-ml/graph/internal/liveness"
	"github.com/born-ml/graph/internal/ops"
)

// decisionKind classifies what the rewriter should do with a candidate.
type decisionKind int

const (
	// decisionNoOp leaves the node untouched.
	decisionNoOp decisionKind = iota

	// decisionReinplace rewrites the call to mutate its argument's
	// storage directly.
	decisionReinplace

	// decisionCloneRequired means the mutation must operate on a
	// defensive copy. For an out-of-place call this simply means leaving
	// it functional: the functional form already materializes the copy.
	decisionCloneRequired
)

// candidate is one reinplacing opportunity: either an out-of-place call
// with a registered mutating counterpart, or a single mutated argument
// slot of an auto_functionalized call.
type candidate struct {
	node *graph.Node
	idx  int

	// af and slot identify an auto_functionalized argument; af is nil
	// for plain out-of-place candidates.
	af      *graph.AutoFunc
	slot    string
	baseIdx int

	// target is the value whose storage would be mutated, output the
	// value carrying the post-mutation contents. Valid at decision time
	// only; the rewriter re-reads current inputs by slot.
	target *graph.Value
	output *graph.Value

	// bases are the storage roots the call touches (the producer's
	// _all_bases union for auto-functionalized calls).
	bases []*graph.Value

	// mutOp is the mutating counterpart for plain candidates.
	mutOp ops.ID
}

type decision struct {
	cand candidate
	kind decisionKind

	// publish is the later copy_ node that writes the candidate's result
	// back into one of its bases, if the graph contains one. It bounds
	// the window in which other aliases of the storage must not be read.
	publish    *graph.Node
	publishIdx int
}

// decide classifies every candidate in program order. It only reads the
// graph and the two analysis results; no rewriting happens here, so the
// analyses stay valid for the whole decision phase.
func decide(g *graph.Graph, reg *ops.Registry, al *alias.Result, lv *liveness.Result, m *Metrics) []decision {
	cands := gather(g, reg, al)

	// Chain links: a candidate's output stands for the mutated contents
	// of its target. Chasing output -> target resolves which candidate a
	// trailing copy_ publishes.
	chain := make(map[*graph.Value]*graph.Value, len(cands))
	for _, c := range cands {
		chain[c.output] = c.target
	}

	decisions := make([]decision, 0, len(cands))
	for _, c := range cands {
		d := decision{cand: c, publishIdx: -1}

		// Producer-supplied metadata is authoritative: the producer may
		// have proven cloning mandatory (or reinplacing settled) with
		// knowledge this pass cannot reconstruct.
		if c.af != nil && slices.Contains(c.af.CloneOnly(), c.slot) {
			d.kind = decisionCloneRequired
			decisions = append(decisions, d)
			continue
		}
		if c.af != nil && slices.Contains(c.af.Reinplaced(), c.slot) {
			d.kind = decisionReinplace
			decisions = append(decisions, d)
			continue
		}

		d.publish, d.publishIdx = findPublish(g, al, c, chain)

		if inputProtected(al, c, d.publish) {
			if c.af != nil {
				d.kind = decisionCloneRequired
			} else {
				d.kind = decisionNoOp
			}
			decisions = append(decisions, d)
			continue
		}

		if hasConflict(g, al, lv, c, d.publish, d.publishIdx) {
			m.recordMissed()
			d.kind = decisionCloneRequired
			decisions = append(decisions, d)
			continue
		}

		d.kind = decisionReinplace
		decisions = append(decisions, d)
	}
	return decisions
}

// gather collects candidates in program order.
func gather(g *graph.Graph, reg *ops.Registry, al *alias.Result) []candidate {
	var cands []candidate
	for idx, n := range g.Nodes() {
		if af, ok := graph.AsAutoFunc(n); ok {
			bases := af.Bases()
			for _, slot := range af.Mutates() {
				target, ok := af.Arg(slot)
				if !ok {
					continue
				}
				baseIdx := -1
				for j, b := range bases {
					if al.SharesStorage(target, b) {
						baseIdx = j
						break
					}
				}
				if baseIdx < 0 {
					// The producer's base list does not cover this
					// argument; nothing safe can be derived.
					continue
				}
				cands = append(cands, candidate{
					node:    n,
					idx:     idx,
					af:      af,
					slot:    slot,
					baseIdx: baseIdx,
					target:  target,
					output:  af.OutputAt(baseIdx),
					bases:   bases,
				})
			}
			continue
		}

		mutOp, ok := reg.InplaceVariant(n.Op())
		if !ok || len(n.Inputs()) < 1 || len(n.Outputs()) != 1 {
			// No mutating counterpart registered: not an error, simply
			// not a candidate.
			continue
		}
		target := n.Input(0)
		cands = append(cands, candidate{
			node:   n,
			idx:    idx,
			target: target,
			output: n.Outputs()[0],
			bases:  []*graph.Value{al.Base(target)},
			mutOp:  mutOp,
		})
	}
	return cands
}

// findPublish locates the earliest later copy_ node that writes this
// candidate's result back into the slot's own base. A copy into a sibling
// base from the _all_bases union does not publish this slot's mutation and
// must not lift its input protection. The source may be routed through
// later links of the same mutation chain.
func findPublish(g *graph.Graph, al *alias.Result, c candidate, chain map[*graph.Value]*graph.Value) (*graph.Node, int) {
	slotBase := c.bases[c.baseIdx]
	nodes := g.Nodes()
	for j := c.idx + 1; j < len(nodes); j++ {
		n := nodes[j]
		if n.Op() != ops.Copy || len(n.Inputs()) < 2 {
			continue
		}
		dst, src := n.Input(0), n.Input(1)
		if !al.SharesStorage(dst, slotBase) {
			continue
		}
		if chasesTo(src, c.output, chain) {
			return n, j
		}
	}
	return nil, -1
}

// chasesTo reports whether src is out itself or reaches it by walking
// output -> target links of later candidates (sequential mutation of the
// same buffer by consecutive calls).
func chasesTo(src, out *graph.Value, chain map[*graph.Value]*graph.Value) bool {
	for hops := 0; hops <= len(chain); hops++ {
		if src == out {
			return true
		}
		next, ok := chain[src]
		if !ok {
			return false
		}
		src = next
	}
	return false
}

// inputProtected reports whether the candidate would silently mutate a
// declared graph input. A publish copy back into the base expresses the
// producer's intent to write the input, as does an explicit user-requested
// in-place call; both lift the protection.
func inputProtected(al *alias.Result, c candidate, publish *graph.Node) bool {
	if publish != nil {
		return false
	}
	if raw, ok := c.node.Meta(graph.MetaUserInplace); ok {
		if flag, ok := raw.(bool); ok && flag {
			return false
		}
	}
	for _, b := range c.bases {
		if al.Base(b).IsGraphInput() {
			return true
		}
	}
	return false
}

// hasConflict reports whether any value sharing the candidate's storage is
// read after the mutation would land. With a publish node, only reads
// inside the (call, publish) window conflict: after the publish the
// storage holds the mutated contents either way.
func hasConflict(g *graph.Graph, al *alias.Result, lv *liveness.Result, c candidate, publish *graph.Node, publishIdx int) bool {
	for _, v := range al.StorageUnion(c.bases) {
		if v == c.output {
			continue
		}
		if !lv.IsLiveAfter(v, c.idx) {
			continue
		}
		for _, u := range v.Users() {
			j, err := g.IndexOf(u)
			if err != nil {
				continue
			}
			if j <= c.idx || u == publish {
				continue
			}
			if publish != nil && j > publishIdx {
				continue
			}
			return true
		}
		if publish == nil && g.IsOutput(v) {
			return true
		}
	}
	return false
}
