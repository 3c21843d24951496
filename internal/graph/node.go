package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/graph/internal/ops"
	"github.com/born-ml/graph/internal/tensor"
)

// Node is a single operation invocation: an operation identifier, an
// ordered input list, an ordered output list and a metadata bag.
type Node struct {
	id   int
	op   ops.ID
	ins  []*Value
	outs []*Value
	meta map[string]any
	g    *Graph
}

// Op returns the node's operation identifier.
func (n *Node) Op() ops.ID {
	return n.op
}

// SetOp replaces the node's operation identifier in place, preserving the
// node's identity, inputs and position. Used by the rewriter to swap a
// functional call for its mutating counterpart.
func (n *Node) SetOp(op ops.ID) {
	n.op = op
}

// Inputs returns the node's input values in order. The returned slice is
// shared; callers must use SetInput/SetInputs to mutate.
func (n *Node) Inputs() []*Value {
	return n.ins
}

// Input returns the i-th input value.
func (n *Node) Input(i int) *Value {
	return n.ins[i]
}

// Outputs returns the node's output values in order.
func (n *Node) Outputs() []*Value {
	return n.outs
}

// Out returns the node's single output.
// Panics if the node does not have exactly one output.
func (n *Node) Out() *Value {
	if len(n.outs) != 1 {
		panic(fmt.Sprintf("node %s has %d outputs, not 1", n.op, len(n.outs)))
	}
	return n.outs[0]
}

// AddInput appends v to the input list and registers the use.
func (n *Node) AddInput(v *Value) *Node {
	n.ins = append(n.ins, v)
	v.addUser(n)
	return n
}

// SetInput replaces input slot i with v, keeping both user sets in sync.
func (n *Node) SetInput(i int, v *Value) {
	old := n.ins[i]
	if old == v {
		return
	}
	old.removeUser(n)
	n.ins[i] = v
	v.addUser(n)
}

// SetInputs replaces the whole input list, keeping user sets in sync.
func (n *Node) SetInputs(vs []*Value) {
	for _, old := range n.ins {
		old.removeUser(n)
	}
	n.ins = append(n.ins[:0:0], vs...)
	for _, v := range n.ins {
		v.addUser(n)
	}
}

// NewOutput appends a fresh output value with the given descriptor.
func (n *Node) NewOutput(name string, shape tensor.Shape, dtype tensor.DataType) *Value {
	v := &Value{
		id:    n.g.nextValueID(),
		name:  name,
		def:   n,
		index: len(n.outs),
		shape: shape.Clone(),
		dtype: dtype,
	}
	n.outs = append(n.outs, v)
	return v
}

// RemoveOutput drops an unused output value from the node.
// Returns an error if the value is still referenced.
func (n *Node) RemoveOutput(v *Value) error {
	if v.NumUses() > 0 {
		return fmt.Errorf("cannot remove output %s: still has %d uses", v, v.NumUses())
	}
	if n.g.isOutput(v) {
		return fmt.Errorf("cannot remove output %s: declared graph output", v)
	}
	for i, o := range n.outs {
		if o == v {
			n.outs = append(n.outs[:i], n.outs[i+1:]...)
			for j := i; j < len(n.outs); j++ {
				n.outs[j].index = j
			}
			return nil
		}
	}
	return fmt.Errorf("value %s is not an output of node %s", v, n.op)
}

// Meta returns the metadata entry for key.
func (n *Node) Meta(key string) (any, bool) {
	v, ok := n.meta[key]
	return v, ok
}

// SetMeta stores a metadata entry.
func (n *Node) SetMeta(key string, value any) *Node {
	if n.meta == nil {
		n.meta = make(map[string]any)
	}
	n.meta[key] = value
	return n
}

// DeleteMeta removes a metadata entry.
func (n *Node) DeleteMeta(key string) {
	delete(n.meta, key)
}

// String renders the node as "out1, out2 = op(in1, in2) {meta}".
func (n *Node) String() string {
	var b strings.Builder
	if len(n.outs) > 0 {
		names := make([]string, len(n.outs))
		for i, o := range n.outs {
			names[i] = o.String()
		}
		b.WriteString(strings.Join(names, ", "))
		b.WriteString(" = ")
	}
	b.WriteString(string(n.op))
	b.WriteString("(")
	args := make([]string, len(n.ins))
	for i, in := range n.ins {
		args[i] = in.String()
	}
	b.WriteString(strings.Join(args, ", "))
	b.WriteString(")")
	if len(n.meta) > 0 {
		keys := make([]string, 0, len(n.meta))
		for k := range n.meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %v", k, n.meta[k])
		}
		b.WriteString("}")
	}
	return b.String()
}
