// Package graph implements the mutable dataflow graph the optimization
// passes analyze and rewrite: nodes in stable program order, values with
// tracked user sets, and a per-node metadata bag.
package graph

import (
	"fmt"

	"github.com/born-ml/graph/internal/tensor"
)

// Value is the output of a node, or a graph input. Beyond identity it
// carries a shape/dtype descriptor (opaque to the passes beyond equality)
// and the set of nodes that read it.
type Value struct {
	id    int
	name  string
	def   *Node // nil for graph inputs
	index int   // output slot in def
	shape tensor.Shape
	dtype tensor.DataType

	// users holds one entry per input slot referencing this value, so a
	// node reading the value twice appears twice. Maintained exclusively
	// by the mutation helpers on Node and Graph.
	users []*Node
}

// Name returns the value's name.
func (v *Value) Name() string {
	return v.name
}

// Shape returns the value's shape descriptor.
func (v *Value) Shape() tensor.Shape {
	return v.shape
}

// DType returns the value's dtype descriptor.
func (v *Value) DType() tensor.DataType {
	return v.dtype
}

// Def returns the node producing this value, or nil for graph inputs.
func (v *Value) Def() *Node {
	return v.def
}

// OutputIndex returns the slot of this value in its defining node's
// output list. Zero for graph inputs.
func (v *Value) OutputIndex() int {
	return v.index
}

// IsGraphInput reports whether the value is a declared graph input.
func (v *Value) IsGraphInput() bool {
	return v.def == nil
}

// Users returns the distinct nodes reading this value.
func (v *Value) Users() []*Node {
	seen := make(map[*Node]bool, len(v.users))
	out := make([]*Node, 0, len(v.users))
	for _, n := range v.users {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// NumUses returns the number of input slots referencing this value.
func (v *Value) NumUses() int {
	return len(v.users)
}

// String returns the value's name, or a synthetic one if unnamed.
func (v *Value) String() string {
	if v.name != "" {
		return v.name
	}
	return fmt.Sprintf("v%d", v.id)
}

func (v *Value) addUser(n *Node) {
	v.users = append(v.users, n)
}

// removeUser drops one users entry for n. Each input slot holds its own
// entry, so removing one slot removes exactly one entry.
func (v *Value) removeUser(n *Node) {
	for i, u := range v.users {
		if u == n {
			v.users = append(v.users[:i], v.users[i+1:]...)
			return
		}
	}
}
