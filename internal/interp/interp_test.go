package interp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/graph/internal/graph"
	"github.com/born-ml/graph/internal/ops"
	"github.com/born-ml/graph/internal/tensor"
)

var vec4 = tensor.Shape{4}

func apply1(g *graph.Graph, op ops.ID, name string, ins ...*graph.Value) *graph.Value {
	n := g.Append(op, ins...)
	return n.NewOutput(name, ins[0].Shape(), ins[0].DType())
}

func feed4(t *testing.T, vals ...float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.FromFloat32(vals, tensor.Shape{len(vals)})
	require.NoError(t, err)
	return raw
}

func sin32(x float32) float32 { return float32(math.Sin(float64(x))) }

// TestRun_Functional tests straight-line functional evaluation.
func TestRun_Functional(t *testing.T) {
	g := graph.New()
	x := g.Placeholder("x", vec4, tensor.Float32)
	s := apply1(g, ops.Sin, "s", x)
	y := apply1(g, ops.Mul, "y", s, s)
	g.SetOutputs(y)

	in := feed4(t, 0, 1, 2, 3)
	outs, err := Run(g, ops.Default(), map[*graph.Value]*tensor.RawTensor{x: in})
	require.NoError(t, err)
	require.Len(t, outs, 1)

	got := outs[0].Float32()
	for i, v := range []float32{0, 1, 2, 3} {
		assert.InDelta(t, sin32(v)*sin32(v), got[i], 1e-6, "element %d", i)
	}
	assert.Equal(t, []float32{0, 1, 2, 3}, in.Float32(), "functional graph must not mutate its input")
}

// TestRun_MissingFeed tests the unfed-input error.
func TestRun_MissingFeed(t *testing.T) {
	g := graph.New()
	x := g.Placeholder("x", vec4, tensor.Float32)
	g.SetOutputs(x)

	_, err := Run(g, ops.Default(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no feed for graph input")
}

// TestRun_ViewAndCopy tests that copy_ into a view mutates the fed tensor.
func TestRun_ViewAndCopy(t *testing.T) {
	g := graph.New()
	x := g.Placeholder("x", tensor.Shape{2, 2}, tensor.Float32)
	src := g.Placeholder("src", tensor.Shape{2}, tensor.Float32)

	row := g.Append(ops.Select, x).
		SetMeta("dim", 0).SetMeta("index", 1).
		NewOutput("row", tensor.Shape{2}, tensor.Float32)
	g.Append(ops.Copy, row, src)
	g.SetOutputs(row)

	xs := feed4(t, 1, 2, 3, 4)
	xt, err := xs.Reshape(tensor.Shape{2, 2})
	require.NoError(t, err)
	srct := feed4(t, 9, 8)

	outs, err := Run(g, ops.Default(), map[*graph.Value]*tensor.RawTensor{x: xt, src: srct})
	require.NoError(t, err)

	assert.Equal(t, []float32{1, 2, 9, 8}, xt.Float32(), "copy_ into a row view must hit the fed tensor")
	assert.Equal(t, []float32{9, 8}, outs[0].Float32())
}

// TestRun_MutatingOp tests a direct in-place call on a graph input.
func TestRun_MutatingOp(t *testing.T) {
	g := graph.New()
	x := g.Placeholder("x", vec4, tensor.Float32)
	g.Append(ops.SinInplace, x)
	g.SetOutputs(x)

	in := feed4(t, 0, 1, 2, 3)
	outs, err := Run(g, ops.Default(), map[*graph.Value]*tensor.RawTensor{x: in})
	require.NoError(t, err)

	got := in.Float32()
	for i, v := range []float32{0, 1, 2, 3} {
		assert.InDelta(t, sin32(v), got[i], 1e-6, "element %d", i)
	}
	assert.Same(t, in, outs[0], "returning a mutated input must yield the fed tensor")
}

// registryWithSinOut extends the builtins with a custom mutating op that
// writes sin(x) into its out argument.
func registryWithSinOut() *ops.Registry {
	r := ops.Default()
	r.RegisterKernel("test.sin.out", func(call *ops.KernelCall) error {
		x, out := call.Args[0], call.Args[1]
		for i := 0; i < x.NumElements(); i++ {
			out.SetAt(i, sin32(x.At(i)))
		}
		return nil
	})
	return r
}

// TestRun_AutoFunc_Functional tests that an unmarked wrapper leaves its
// base untouched and yields the result on a fresh tensor.
func TestRun_AutoFunc_Functional(t *testing.T) {
	g := graph.New()
	x := g.Placeholder("x", vec4, tensor.Float32)
	out := g.Placeholder("out", vec4, tensor.Float32)

	n, err := graph.NewAutoFunc(g, "test.sin.out", []string{"x", "out"}, []*graph.Value{x, out}, []string{"out"}, nil)
	require.NoError(t, err)
	g.SetOutputs(n.Outputs()[0])

	xt := feed4(t, 0, 1, 2, 3)
	outT := feed4(t, -1, -1, -1, -1)

	outs, err := Run(g, registryWithSinOut(), map[*graph.Value]*tensor.RawTensor{x: xt, out: outT})
	require.NoError(t, err)

	assert.Equal(t, []float32{-1, -1, -1, -1}, outT.Float32(), "functional wrapper must not mutate the base")
	got := outs[0].Float32()
	for i, v := range []float32{0, 1, 2, 3} {
		assert.InDelta(t, sin32(v), got[i], 1e-6, "element %d", i)
	}
	assert.False(t, outs[0].SharesStorage(outT))
}

// TestRun_AutoFunc_Reinplaced tests that a reinplaced slot mutates the
// shared storage directly.
func TestRun_AutoFunc_Reinplaced(t *testing.T) {
	g := graph.New()
	x := g.Placeholder("x", vec4, tensor.Float32)
	out := g.Placeholder("out", vec4, tensor.Float32)

	n, err := graph.NewAutoFunc(g, "test.sin.out", []string{"x", "out"}, []*graph.Value{x, out}, []string{"out"}, nil)
	require.NoError(t, err)
	af, ok := graph.AsAutoFunc(n)
	require.True(t, ok)
	af.SetReinplaced([]string{"out"})
	g.SetOutputs(n.Outputs()[0])

	xt := feed4(t, 0, 1, 2, 3)
	outT := feed4(t, -1, -1, -1, -1)

	outs, err := Run(g, registryWithSinOut(), map[*graph.Value]*tensor.RawTensor{x: xt, out: outT})
	require.NoError(t, err)

	assert.Same(t, outT, outs[0], "reinplaced wrapper output is the base itself")
	got := outT.Float32()
	for i, v := range []float32{0, 1, 2, 3} {
		assert.InDelta(t, sin32(v), got[i], 1e-6, "element %d", i)
	}
}

// TestRun_AutoFunc_ViewTransplant tests that a view argument over a cloned
// base lands its writes on the clone, not the original storage.
func TestRun_AutoFunc_ViewTransplant(t *testing.T) {
	r := ops.Default()
	r.RegisterKernel("test.boo", func(call *ops.KernelCall) error {
		x := call.Args[0]
		for i := 0; i < x.NumElements(); i++ {
			x.SetAt(i, x.At(i)+1)
		}
		return nil
	})

	g := graph.New()
	base := g.Placeholder("base", tensor.Shape{2, 2}, tensor.Float32)
	row := g.Append(ops.Select, base).
		SetMeta("dim", 0).SetMeta("index", 0).
		NewOutput("row", tensor.Shape{2}, tensor.Float32)
	n, err := graph.NewAutoFunc(g, "test.boo", []string{"x"}, []*graph.Value{row}, []string{"x"}, []*graph.Value{base})
	require.NoError(t, err)
	g.SetOutputs(n.Outputs()[0])

	flat := feed4(t, 1, 2, 3, 4)
	bt, err := flat.Reshape(tensor.Shape{2, 2})
	require.NoError(t, err)

	outs, err := Run(g, r, map[*graph.Value]*tensor.RawTensor{base: bt})
	require.NoError(t, err)

	assert.Equal(t, []float32{1, 2, 3, 4}, bt.Float32(), "original base must stay untouched")
	assert.Equal(t, []float32{2, 3, 3, 4}, outs[0].Float32(), "clone carries the mutated row")
}
