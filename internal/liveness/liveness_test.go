package liveness

import (
	"testing"

	"github.com/born-ml/graph/internal/graph"
	"github.com/born-ml/graph/internal/ops"
	"github.com/born-ml/graph/internal/tensor"
)

var vec4 = tensor.Shape{4}

func apply1(g *graph.Graph, op ops.ID, name string, ins ...*graph.Value) *graph.Value {
	n := g.Append(op, ins...)
	return n.NewOutput(name, ins[0].Shape(), ins[0].DType())
}

// TestChain tests death-at-last-use along a straight-line program.
func TestChain(t *testing.T) {
	g := graph.New()
	x := g.Placeholder("x", vec4, tensor.Float32)
	a := apply1(g, ops.Sin, "a", x)  // node 0
	b := apply1(g, ops.Cos, "b", a)  // node 1
	c := apply1(g, ops.Sin, "c", b)  // node 2
	g.SetOutputs(c)

	r := Analyze(g)

	// a is read by node 1 and never again.
	if !r.IsLiveAfter(a, 0) {
		t.Error("a should be live after its definition")
	}
	if r.IsLiveAfter(a, 1) {
		t.Error("a should be dead after its last use")
	}
	// x dies after node 0.
	if r.IsLiveAfter(x, 0) {
		t.Error("x should be dead after its only use")
	}
	// the graph output stays live to the end.
	if !r.IsLiveAfter(c, 2) {
		t.Error("a graph output must be live after the last node")
	}
}

// TestOutputKeepsValueLive tests that returning an intermediate extends
// its lifetime past all of its node uses.
func TestOutputKeepsValueLive(t *testing.T) {
	g := graph.New()
	x := g.Placeholder("x", vec4, tensor.Float32)
	a := apply1(g, ops.Sin, "a", x)  // node 0
	b := apply1(g, ops.Cos, "b", a)  // node 1
	g.SetOutputs(b, a)

	r := Analyze(g)

	if !r.IsLiveAfter(a, 1) {
		t.Error("a is a graph output and must stay live after node 1")
	}
}

// TestMultiUse tests that a value stays live until its final reader.
func TestMultiUse(t *testing.T) {
	g := graph.New()
	x := g.Placeholder("x", vec4, tensor.Float32)
	a := apply1(g, ops.Sin, "a", x)     // node 0
	apply1(g, ops.Cos, "b", a)          // node 1
	c := apply1(g, ops.Mul, "c", a, a)  // node 2
	g.SetOutputs(c)

	r := Analyze(g)

	if !r.IsLiveAfter(a, 1) {
		t.Error("a is read again by node 2 and must be live after node 1")
	}
	if r.IsLiveAfter(a, 2) {
		t.Error("a should be dead after its final reader")
	}
}

// TestLiveAfter_Sets tests the exported set contents.
func TestLiveAfter_Sets(t *testing.T) {
	g := graph.New()
	x := g.Placeholder("x", vec4, tensor.Float32)
	a := apply1(g, ops.Sin, "a", x) // node 0
	b := apply1(g, ops.Cos, "b", a) // node 1
	g.SetOutputs(b)

	r := Analyze(g)

	// b dies at its definition walking backward, so only a remains.
	after0 := r.LiveAfter(0)
	if len(after0) != 1 || after0[0] != a {
		t.Fatalf("LiveAfter(0) = %v, want {a}", after0)
	}
	after1 := r.LiveAfter(1)
	if len(after1) != 1 || after1[0] != b {
		t.Fatalf("LiveAfter(1) = %v, want {b}", after1)
	}

	if got := r.LiveAfter(-1); got != nil {
		t.Errorf("LiveAfter(-1) = %v, want nil", got)
	}
	if got := r.LiveAfter(2); got != nil {
		t.Errorf("LiveAfter(out of range) = %v, want nil", got)
	}
}

// TestEmptyGraph tests the degenerate no-node program.
func TestEmptyGraph(t *testing.T) {
	g := graph.New()
	x := g.Placeholder("x", vec4, tensor.Float32)
	g.SetOutputs(x)

	r := Analyze(g)
	if r.IsLiveAfter(x, 0) {
		t.Error("no node positions exist; IsLiveAfter must report false")
	}
}
