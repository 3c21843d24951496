package graph

import (
	"fmt"

	"github.com/born-ml/graph/internal/ops"
)

// Validate checks the graph's structural invariants: every input reference
// resolves to a placeholder or an earlier node's output (no dangling
// references, no cycles), user sets exactly mirror input lists, and, when
// a registry is given, every operation identifier is known.
//
// A failed validation is a programming-contract violation by the graph
// producer; passes abort on it without touching the graph.
func (g *Graph) Validate(reg *ops.Registry) error {
	placeholder := make(map[*Value]bool, len(g.inputs))
	for _, v := range g.inputs {
		placeholder[v] = true
	}

	defined := make(map[*Value]bool, len(g.nodes))
	uses := make(map[*Value]map[*Node]int)

	for i, n := range g.nodes {
		if n.g != g {
			return fmt.Errorf("node %d (%s) belongs to a different graph", i, n.op)
		}
		if reg != nil && !reg.Known(n.op) {
			return fmt.Errorf("node %d: unknown operation %q", i, n.op)
		}
		for slot, in := range n.ins {
			if in == nil {
				return fmt.Errorf("node %d (%s): nil input at slot %d", i, n.op, slot)
			}
			if !placeholder[in] && !defined[in] {
				if in.def == nil {
					return fmt.Errorf("node %d (%s): input %s is not a graph input of this graph", i, n.op, in)
				}
				// Defined by a node we have not visited yet: either a
				// forward reference (cycle) or a foreign value.
				return fmt.Errorf("node %d (%s): input %s is not defined before use", i, n.op, in)
			}
			if uses[in] == nil {
				uses[in] = make(map[*Node]int)
			}
			uses[in][n]++
		}
		for j, o := range n.outs {
			if o.def != n || o.index != j {
				return fmt.Errorf("node %d (%s): output %d has inconsistent definition link", i, n.op, j)
			}
			if defined[o] {
				return fmt.Errorf("node %d (%s): output %s defined twice", i, n.op, o)
			}
			defined[o] = true
		}
	}

	for _, o := range g.outputs {
		if !placeholder[o] && !defined[o] {
			return fmt.Errorf("graph output %s is not defined in the graph", o)
		}
	}

	// User sets must mirror the input lists exactly, entry for entry.
	for i, n := range g.nodes {
		for _, o := range n.outs {
			if err := checkUsers(o, uses[o]); err != nil {
				return fmt.Errorf("node %d (%s): %w", i, n.op, err)
			}
		}
	}
	for _, v := range g.inputs {
		if err := checkUsers(v, uses[v]); err != nil {
			return fmt.Errorf("graph input %s: %w", v, err)
		}
	}

	return nil
}

func checkUsers(v *Value, want map[*Node]int) error {
	got := make(map[*Node]int, len(v.users))
	for _, u := range v.users {
		got[u]++
	}
	for n, c := range want {
		if got[n] != c {
			return fmt.Errorf("value %s: user set lists node %s %d times, input lists reference it %d times",
				v, n.Op(), got[n], c)
		}
	}
	for n, c := range got {
		if want[n] != c {
			return fmt.Errorf("value %s: user set lists node %s %d times, input lists reference it %d times",
				v, n.Op(), c, want[n])
		}
	}
	return nil
}
