// Package interp executes a computation graph over raw tensors, honoring
// view and mutation semantics. It exists so the pass's safety property
// (value-identical results before and after rewriting, including aliasing
// effects visible through graph inputs) can be checked end to end.
package interp

import (
	"fmt"

	"github.com/born-ml/graph/internal/graph"
	"github.com/born-ml/graph/internal/ops"
	"github.com/born-ml/graph/internal/tensor"
)

// Run evaluates g in program order. feeds supplies one tensor per graph
// input; the tensors are used directly, so mutations the graph performs on
// its inputs are visible to the caller, exactly as on a real backend.
// The returned slice is aligned with g.Outputs().
func Run(g *graph.Graph, reg *ops.Registry, feeds map[*graph.Value]*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	env := make(map[*graph.Value]*tensor.RawTensor, len(feeds)+g.NumNodes())
	for _, in := range g.Inputs() {
		t, ok := feeds[in]
		if !ok {
			return nil, fmt.Errorf("interp: no feed for graph input %s", in)
		}
		env[in] = t
	}

	for i, n := range g.Nodes() {
		var err error
		if af, ok := graph.AsAutoFunc(n); ok {
			err = execAutoFunc(af, reg, env)
		} else {
			err = execNode(n, reg, env)
		}
		if err != nil {
			return nil, fmt.Errorf("interp: node %d (%s): %w", i, n.Op(), err)
		}
	}

	outs := make([]*tensor.RawTensor, len(g.Outputs()))
	for i, o := range g.Outputs() {
		t, ok := env[o]
		if !ok {
			return nil, fmt.Errorf("interp: graph output %s was never produced", o)
		}
		outs[i] = t
	}
	return outs, nil
}

func execNode(n *graph.Node, reg *ops.Registry, env map[*graph.Value]*tensor.RawTensor) error {
	kernel, ok := reg.Kernel(n.Op())
	if !ok {
		return fmt.Errorf("no kernel registered for %q", n.Op())
	}
	call := &ops.KernelCall{
		Args: make([]*tensor.RawTensor, len(n.Inputs())),
		Meta: n.Meta,
		Outs: make([]*tensor.RawTensor, len(n.Outputs())),
	}
	for i, in := range n.Inputs() {
		call.Args[i] = env[in]
	}
	if err := kernel(call); err != nil {
		return err
	}
	for i, o := range n.Outputs() {
		if call.Outs[i] == nil {
			return fmt.Errorf("kernel %q produced no tensor for output %d", n.Op(), i)
		}
		env[o] = call.Outs[i]
	}
	return nil
}

// execAutoFunc evaluates the functional wrapper around a natively-mutating
// operation. Each mutated argument operates on a copy of its base by
// default; arguments the pass marked as reinplaced mutate the shared
// storage directly, and the node's outputs carry each base's
// post-mutation contents.
func execAutoFunc(af *graph.AutoFunc, reg *ops.Registry, env map[*graph.Value]*tensor.RawTensor) error {
	target := af.Target()
	kernel, ok := reg.Kernel(target)
	if !ok {
		return fmt.Errorf("no kernel registered for wrapped op %q", target)
	}

	bases := af.Bases()
	baseTensors := make([]*tensor.RawTensor, len(bases))
	for i, b := range bases {
		t, ok := env[b]
		if !ok {
			return fmt.Errorf("base %s was never produced", b)
		}
		baseTensors[i] = t
	}

	reinplaced := make(map[string]bool)
	for _, name := range af.Reinplaced() {
		reinplaced[name] = true
	}

	// Map each mutated argument onto its base by runtime storage
	// identity, and decide per base whether it mutates in place.
	argNames := af.ArgNames()
	argVals := af.Args()
	slotBase := make(map[string]int, len(af.Mutates()))
	direct := make([]bool, len(bases))
	for _, m := range af.Mutates() {
		v, _ := af.Arg(m)
		t := env[v]
		found := -1
		for j, bt := range baseTensors {
			if t.SharesStorage(bt) {
				found = j
				break
			}
		}
		if found < 0 {
			return fmt.Errorf("mutated argument %q shares storage with none of the declared bases", m)
		}
		slotBase[m] = found
		if reinplaced[m] {
			direct[found] = true
		}
	}

	// newBase[j] is what the node's j-th output observes: the base itself
	// when mutating directly, otherwise a fresh copy.
	newBase := make([]*tensor.RawTensor, len(bases))
	for j, bt := range baseTensors {
		if direct[j] {
			newBase[j] = bt
		} else {
			newBase[j] = bt.Clone()
		}
	}

	call := &ops.KernelCall{
		Args: make([]*tensor.RawTensor, len(argVals)),
		Meta: af.Node().Meta,
	}
	for i, v := range argVals {
		call.Args[i] = env[v]
	}
	for _, m := range af.Mutates() {
		j := slotBase[m]
		if newBase[j] == baseTensors[j] {
			continue // mutating the live storage, argument view already points there
		}
		i := af.ArgIndex(m)
		view, err := call.Args[i].ViewInto(newBase[j])
		if err != nil {
			return fmt.Errorf("argument %q (%s): %w", m, argNames[i], err)
		}
		call.Args[i] = view
	}

	if err := kernel(call); err != nil {
		return err
	}

	for j, o := range af.Node().Outputs() {
		env[o] = newBase[j]
	}
	return nil
}
