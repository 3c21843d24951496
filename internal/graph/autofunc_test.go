package graph

import (
	"testing"

	"github.com/born-ml/graph/internal/ops"
	"github.com/born-ml/graph/internal/tensor"
)

// TestNewAutoFunc_ImplicitBases tests the bases-from-mutates convention.
func TestNewAutoFunc_ImplicitBases(t *testing.T) {
	g := New()
	x := g.Placeholder("x", vec4, tensor.Float32)
	out := apply1(g, ops.EmptyLike, "out", x)

	n, err := NewAutoFunc(g, "test.sin.out", []string{"x", "out"}, []*Value{x, out}, []string{"out"}, nil)
	if err != nil {
		t.Fatalf("NewAutoFunc failed: %v", err)
	}

	af, ok := AsAutoFunc(n)
	if !ok {
		t.Fatal("AsAutoFunc rejected a node built by NewAutoFunc")
	}
	if af.Target() != "test.sin.out" {
		t.Errorf("Target() = %q, want test.sin.out", af.Target())
	}
	if af.HasExplicitBases() {
		t.Error("HasExplicitBases() = true without a base list")
	}
	if bases := af.Bases(); len(bases) != 1 || bases[0] != out {
		t.Errorf("Bases() = %v, want the mutated argument [out]", bases)
	}
	if len(n.Outputs()) != 1 {
		t.Fatalf("node has %d outputs, want 1 (one per base)", len(n.Outputs()))
	}
	if af.OutputAt(0) != n.Outputs()[0] {
		t.Error("OutputAt(0) does not match the node's first output")
	}
}

// TestNewAutoFunc_ExplicitBases tests the _all_bases convention.
func TestNewAutoFunc_ExplicitBases(t *testing.T) {
	g := New()
	base := g.Placeholder("base", tensor.Shape{2, 4}, tensor.Float32)
	view := g.Append(ops.Select, base).NewOutput("view", tensor.Shape{4}, tensor.Float32)

	n, err := NewAutoFunc(g, "test.boo", []string{"x"}, []*Value{view}, []string{"x"}, []*Value{base})
	if err != nil {
		t.Fatalf("NewAutoFunc failed: %v", err)
	}

	af, ok := AsAutoFunc(n)
	if !ok {
		t.Fatal("AsAutoFunc rejected the node")
	}
	if !af.HasExplicitBases() {
		t.Error("HasExplicitBases() = false with a base list")
	}
	if bases := af.Bases(); len(bases) != 1 || bases[0] != base {
		t.Errorf("Bases() = %v, want [base]", bases)
	}
	if args := af.Args(); len(args) != 1 || args[0] != view {
		t.Errorf("Args() = %v, want [view] without the trailing base", args)
	}
	// Base descriptors flow into the outputs, not the view's.
	if !af.OutputAt(0).Shape().Equal(base.Shape()) {
		t.Errorf("output shape = %v, want the base shape %v", af.OutputAt(0).Shape(), base.Shape())
	}
}

// TestNewAutoFunc_BadMutates tests rejection of unknown mutated names.
func TestNewAutoFunc_BadMutates(t *testing.T) {
	g := New()
	x := g.Placeholder("x", vec4, tensor.Float32)

	if _, err := NewAutoFunc(g, "test.boo", []string{"x"}, []*Value{x}, []string{"y"}, nil); err == nil {
		t.Error("NewAutoFunc should reject a mutated name that is not an argument")
	}
	if _, err := NewAutoFunc(g, "test.boo", []string{"x", "y"}, []*Value{x}, nil, nil); err == nil {
		t.Error("NewAutoFunc should reject mismatched name/arg counts")
	}
}

// TestAsAutoFunc_Rejections tests that malformed nodes are not recognized.
func TestAsAutoFunc_Rejections(t *testing.T) {
	g := New()
	x := g.Placeholder("x", vec4, tensor.Float32)

	plain := g.Append(ops.Sin, x)
	if _, ok := AsAutoFunc(plain); ok {
		t.Error("AsAutoFunc accepted a plain node")
	}

	bare := g.Append(ops.AutoFunctionalized, x)
	if _, ok := AsAutoFunc(bare); ok {
		t.Error("AsAutoFunc accepted a node without metadata")
	}

	n, err := NewAutoFunc(g, "test.boo", []string{"x"}, []*Value{x}, []string{"x"}, nil)
	if err != nil {
		t.Fatalf("NewAutoFunc failed: %v", err)
	}
	n.SetMeta(MetaNumBases, 3) // claims more trailing bases than inputs exist
	if _, ok := AsAutoFunc(n); ok {
		t.Error("AsAutoFunc accepted an inconsistent base count")
	}
}

// TestAutoFunc_ArgAccess tests named argument lookup and mutation.
func TestAutoFunc_ArgAccess(t *testing.T) {
	g := New()
	x := g.Placeholder("x", vec4, tensor.Float32)
	y := g.Placeholder("y", vec4, tensor.Float32)

	n, err := NewAutoFunc(g, "test.sin.out", []string{"x", "out"}, []*Value{x, y}, []string{"out"}, nil)
	if err != nil {
		t.Fatalf("NewAutoFunc failed: %v", err)
	}
	af, _ := AsAutoFunc(n)

	if i := af.ArgIndex("out"); i != 1 {
		t.Errorf("ArgIndex(out) = %d, want 1", i)
	}
	if i := af.ArgIndex("nope"); i != -1 {
		t.Errorf("ArgIndex(nope) = %d, want -1", i)
	}

	v, ok := af.Arg("out")
	if !ok || v != y {
		t.Errorf("Arg(out) = %v, want y", v)
	}

	if err := af.SetArg("out", x); err != nil {
		t.Fatalf("SetArg failed: %v", err)
	}
	if v, _ := af.Arg("out"); v != x {
		t.Error("SetArg did not repoint the argument")
	}
	if err := af.SetArg("nope", x); err == nil {
		t.Error("SetArg should reject an unknown argument name")
	}
}

// TestAutoFunc_SlotMetadata tests clone-only and reinplaced round trips.
func TestAutoFunc_SlotMetadata(t *testing.T) {
	g := New()
	x := g.Placeholder("x", vec4, tensor.Float32)
	n, err := NewAutoFunc(g, "test.boo", []string{"x"}, []*Value{x}, []string{"x"}, nil)
	if err != nil {
		t.Fatalf("NewAutoFunc failed: %v", err)
	}
	af, _ := AsAutoFunc(n)

	if len(af.CloneOnly()) != 0 || len(af.Reinplaced()) != 0 {
		t.Error("fresh wrapper should have no slot metadata")
	}

	af.SetCloneOnly([]string{"x"})
	if co := af.CloneOnly(); len(co) != 1 || co[0] != "x" {
		t.Errorf("CloneOnly() = %v, want [x]", co)
	}
	af.SetReinplaced([]string{"x"})
	if ri := af.Reinplaced(); len(ri) != 1 || ri[0] != "x" {
		t.Errorf("Reinplaced() = %v, want [x]", ri)
	}
}
