package reinplace

import (
	"fmt"
	"slices"

	"github.com/born-ml/graph/internal/graph"
	"github.com/born-ml/graph/internal/ops"
)

// apply executes the decision table against the graph, in program order.
// Decisions are keyed by stable node identity, so inserted or removed
// nodes never invalidate the iteration.
func apply(g *graph.Graph, decisions []decision) error {
	byNode := make(map[*graph.Node][]decision, len(decisions))
	var order []*graph.Node
	for _, d := range decisions {
		if _, ok := byNode[d.cand.node]; !ok {
			order = append(order, d.cand.node)
		}
		byNode[d.cand.node] = append(byNode[d.cand.node], d)
	}

	for _, n := range order {
		if af, ok := graph.AsAutoFunc(n); ok {
			if err := applyAutoFunc(g, af, byNode[n]); err != nil {
				return err
			}
			continue
		}
		if err := applySimple(g, n, byNode[n][0]); err != nil {
			return err
		}
	}

	return removeSelfCopies(g)
}

// applySimple swaps an out-of-place call for its mutating counterpart.
// CloneRequired and NoOp leave the node alone: the functional form already
// materializes its own output buffer.
func applySimple(g *graph.Graph, n *graph.Node, d decision) error {
	if d.kind != decisionReinplace {
		return nil
	}
	target := n.Input(0)
	out := n.Outputs()[0]

	// The mutated argument and the old output are the same storage now;
	// downstream readers pick up the argument directly.
	g.ReplaceAllUsesWith(out, target)
	n.SetOp(d.cand.mutOp)
	if err := n.RemoveOutput(out); err != nil {
		return fmt.Errorf("reinplace %s: %w", n.Op(), err)
	}
	return nil
}

// applyAutoFunc settles every mutated slot of one auto_functionalized
// call. Reinplaced slots redirect their output to the (current) base
// value; clone-required slots are recorded in the clone-only metadata.
// The wrapper is unwrapped into a direct call to the underlying mutating
// operation only once every slot has concluded in favor of reinplacing.
func applyAutoFunc(g *graph.Graph, af *graph.AutoFunc, ds []decision) error {
	cloneOnly := slices.Clone(af.CloneOnly())
	var reinplaced []string

	for _, d := range ds {
		switch d.kind {
		case decisionReinplace:
			baseVal := af.Bases()[d.cand.baseIdx]
			out := af.OutputAt(d.cand.baseIdx)
			g.ReplaceAllUsesWith(out, baseVal)
			reinplaced = append(reinplaced, d.cand.slot)
		case decisionCloneRequired:
			if !slices.Contains(cloneOnly, d.cand.slot) {
				cloneOnly = append(cloneOnly, d.cand.slot)
			}
		}
	}

	if len(cloneOnly) == 0 && len(reinplaced) == len(af.Mutates()) && outputsUnused(g, af.Node()) {
		return unwrap(g, af)
	}

	if len(cloneOnly) > 0 {
		af.SetCloneOnly(cloneOnly)
	}
	if len(reinplaced) > 0 {
		af.SetReinplaced(reinplaced)
	}
	return nil
}

func outputsUnused(g *graph.Graph, n *graph.Node) bool {
	for _, o := range n.Outputs() {
		if o.NumUses() > 0 || g.IsOutput(o) {
			return false
		}
	}
	return true
}

// unwrap turns the functional wrapper back into the native mutating call:
// same arguments, no outputs, base inputs dropped.
func unwrap(g *graph.Graph, af *graph.AutoFunc) error {
	n := af.Node()
	target := af.Target()
	args := slices.Clone(af.Args())

	for len(n.Outputs()) > 0 {
		o := n.Outputs()[len(n.Outputs())-1]
		if err := n.RemoveOutput(o); err != nil {
			return fmt.Errorf("unwrap %s: %w", target, err)
		}
	}
	n.SetInputs(args)
	n.SetOp(target)
	n.DeleteMeta(graph.MetaTarget)
	n.DeleteMeta(graph.MetaArgNames)
	n.DeleteMeta(graph.MetaMutates)
	n.DeleteMeta(graph.MetaNumBases)
	return nil
}

// removeSelfCopies drops copy_ nodes whose source and destination became
// the same value after redirection.
func removeSelfCopies(g *graph.Graph) error {
	for _, n := range slices.Clone(g.Nodes()) {
		if n.Op() != ops.Copy || len(n.Inputs()) < 2 {
			continue
		}
		if n.Input(0) != n.Input(1) {
			continue
		}
		for _, o := range slices.Clone(n.Outputs()) {
			g.ReplaceAllUsesWith(o, n.Input(0))
			if err := n.RemoveOutput(o); err != nil {
				return fmt.Errorf("remove self-copy: %w", err)
			}
		}
		if err := g.Remove(n); err != nil {
			return fmt.Errorf("remove self-copy: %w", err)
		}
	}
	return nil
}
