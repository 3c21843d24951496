package graph

import (
	"fmt"
	"strings"

	"github.com/born-ml/graph/internal/ops"
	"github.com/born-ml/graph/internal/tensor"
)

// Graph is a mutable dataflow graph in stable program order. It is owned
// exclusively by the caller; the passes require exclusive access for the
// duration of a run.
type Graph struct {
	nodes   []*Node
	inputs  []*Value
	outputs []*Value

	valueSeq int
	nodeSeq  int

	// pos caches node positions; invalidated by structural mutation.
	pos      map[*Node]int
	posDirty bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{posDirty: true}
}

// Placeholder declares a graph input with the given descriptor.
func (g *Graph) Placeholder(name string, shape tensor.Shape, dtype tensor.DataType) *Value {
	v := &Value{
		id:    g.nextValueID(),
		name:  name,
		shape: shape.Clone(),
		dtype: dtype,
	}
	g.inputs = append(g.inputs, v)
	return v
}

// Nodes returns the nodes in program order. The returned slice is shared;
// callers must not mutate it directly.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// Inputs returns the declared graph inputs.
func (g *Graph) Inputs() []*Value {
	return g.inputs
}

// Outputs returns the declared graph outputs.
func (g *Graph) Outputs() []*Value {
	return g.outputs
}

// SetOutputs declares the graph's outputs.
func (g *Graph) SetOutputs(vs ...*Value) {
	g.outputs = append(g.outputs[:0:0], vs...)
}

// Append adds a new node with the given operation at the end of the
// program. Inputs are registered immediately.
func (g *Graph) Append(op ops.ID, ins ...*Value) *Node {
	n := g.newNode(op, ins)
	g.nodes = append(g.nodes, n)
	g.posDirty = true
	return n
}

// InsertBefore adds a new node immediately before ref in program order.
func (g *Graph) InsertBefore(ref *Node, op ops.ID, ins ...*Value) (*Node, error) {
	i, err := g.IndexOf(ref)
	if err != nil {
		return nil, err
	}
	n := g.newNode(op, ins)
	g.nodes = append(g.nodes, nil)
	copy(g.nodes[i+1:], g.nodes[i:])
	g.nodes[i] = n
	g.posDirty = true
	return n, nil
}

// Remove deletes a node. All of its outputs must be unused, and its inputs
// are released from the node's user entries.
func (g *Graph) Remove(n *Node) error {
	for _, o := range n.outs {
		if o.NumUses() > 0 {
			return fmt.Errorf("cannot remove node %s: output %s still has uses", n.op, o)
		}
		if g.isOutput(o) {
			return fmt.Errorf("cannot remove node %s: output %s is a graph output", n.op, o)
		}
	}
	i, err := g.IndexOf(n)
	if err != nil {
		return err
	}
	for _, in := range n.ins {
		in.removeUser(n)
	}
	g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
	g.posDirty = true
	return nil
}

// IndexOf returns n's position in program order.
func (g *Graph) IndexOf(n *Node) (int, error) {
	if g.posDirty {
		g.pos = make(map[*Node]int, len(g.nodes))
		for i, node := range g.nodes {
			g.pos[node] = i
		}
		g.posDirty = false
	}
	i, ok := g.pos[n]
	if !ok {
		return 0, fmt.Errorf("node %s does not belong to this graph", n.op)
	}
	return i, nil
}

// ReplaceAllUsesWith redirects every use of old (node inputs and declared
// graph outputs) to new. Both user sets stay consistent.
func (g *Graph) ReplaceAllUsesWith(old, new *Value) {
	if old == new {
		return
	}
	for _, n := range old.Users() {
		for i, in := range n.ins {
			if in == old {
				n.SetInput(i, new)
			}
		}
	}
	for i, o := range g.outputs {
		if o == old {
			g.outputs[i] = new
		}
	}
}

// String renders the whole program, one node per line.
func (g *Graph) String() string {
	var b strings.Builder
	names := make([]string, len(g.inputs))
	for i, in := range g.inputs {
		names[i] = in.String()
	}
	fmt.Fprintf(&b, "graph(%s):\n", strings.Join(names, ", "))
	for _, n := range g.nodes {
		fmt.Fprintf(&b, "  %s\n", n)
	}
	outs := make([]string, len(g.outputs))
	for i, o := range g.outputs {
		outs[i] = o.String()
	}
	fmt.Fprintf(&b, "  return %s\n", strings.Join(outs, ", "))
	return b.String()
}

func (g *Graph) newNode(op ops.ID, ins []*Value) *Node {
	n := &Node{
		id: g.nodeSeq,
		op: op,
		g:  g,
	}
	g.nodeSeq++
	for _, in := range ins {
		n.AddInput(in)
	}
	return n
}

func (g *Graph) nextValueID() int {
	id := g.valueSeq
	g.valueSeq++
	return id
}

// IsOutput reports whether v is a declared graph output.
func (g *Graph) IsOutput(v *Value) bool {
	return g.isOutput(v)
}

func (g *Graph) isOutput(v *Value) bool {
	for _, o := range g.outputs {
		if o == v {
			return true
		}
	}
	return false
}
