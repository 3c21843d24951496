package ops

import (
	"fmt"
	"math"

	"github.com/born-ml/graph/internal/tensor"
)

// Default returns a registry populated with the built-in operations.
func Default() *Registry {
	r := NewRegistry()

	r.RegisterView(Alias)
	r.RegisterView(Select)
	r.RegisterView(Narrow)
	r.RegisterView(Reshape)

	r.RegisterPair(Sin, SinInplace)
	r.RegisterPair(Cos, CosInplace)
	r.RegisterPair(Mul, MulInplace)
	r.RegisterPair(Add, AddInplace)
	r.RegisterPair(IndexPut, IndexPutInplace)

	r.RegisterKernel(Sin, unary(func(x float32) float32 { return float32(math.Sin(float64(x))) }))
	r.RegisterKernel(Cos, unary(func(x float32) float32 { return float32(math.Cos(float64(x))) }))
	r.RegisterKernel(SinInplace, unaryInplace(func(x float32) float32 { return float32(math.Sin(float64(x))) }))
	r.RegisterKernel(CosInplace, unaryInplace(func(x float32) float32 { return float32(math.Cos(float64(x))) }))

	r.RegisterKernel(Mul, binary(func(a, b float32) float32 { return a * b }))
	r.RegisterKernel(Add, binary(func(a, b float32) float32 { return a + b }))
	r.RegisterKernel(MulInplace, binaryInplace(func(a, b float32) float32 { return a * b }))
	r.RegisterKernel(AddInplace, binaryInplace(func(a, b float32) float32 { return a + b }))

	r.RegisterKernel(IndexPut, kernelIndexPut(false))
	r.RegisterKernel(IndexPutInplace, kernelIndexPut(true))

	r.RegisterKernel(Copy, kernelCopy)
	r.RegisterKernel(Clone, kernelClone)

	r.RegisterKernel(Alias, kernelAlias)
	r.RegisterKernel(Select, kernelSelect)
	r.RegisterKernel(Narrow, kernelNarrow)
	r.RegisterKernel(Reshape, kernelReshape)

	r.RegisterKernel(EmptyLike, kernelEmptyLike)
	r.RegisterKernel(Full, kernelFull)

	return r
}

// unary builds a functional elementwise kernel.
func unary(f func(float32) float32) Kernel {
	return func(call *KernelCall) error {
		x := call.Args[0]
		out, err := tensor.NewRaw(x.Shape(), x.DType())
		if err != nil {
			return err
		}
		for i := 0; i < x.NumElements(); i++ {
			out.SetAt(i, f(x.At(i)))
		}
		call.Outs[0] = out
		return nil
	}
}

// unaryInplace builds a mutating elementwise kernel writing back into the
// first argument. The node has no outputs; downstream users read the
// mutated argument directly.
func unaryInplace(f func(float32) float32) Kernel {
	return func(call *KernelCall) error {
		x := call.Args[0]
		for i := 0; i < x.NumElements(); i++ {
			x.SetAt(i, f(x.At(i)))
		}
		return nil
	}
}

func binary(f func(a, b float32) float32) Kernel {
	return func(call *KernelCall) error {
		a, b := call.Args[0], call.Args[1]
		if !a.Shape().Equal(b.Shape()) {
			return fmt.Errorf("binary op: shape mismatch %v vs %v", a.Shape(), b.Shape())
		}
		out, err := tensor.NewRaw(a.Shape(), a.DType())
		if err != nil {
			return err
		}
		for i := 0; i < a.NumElements(); i++ {
			out.SetAt(i, f(a.At(i), b.At(i)))
		}
		call.Outs[0] = out
		return nil
	}
}

func binaryInplace(f func(a, b float32) float32) Kernel {
	return func(call *KernelCall) error {
		a, b := call.Args[0], call.Args[1]
		if !a.Shape().Equal(b.Shape()) {
			return fmt.Errorf("binary op: shape mismatch %v vs %v", a.Shape(), b.Shape())
		}
		for i := 0; i < a.NumElements(); i++ {
			a.SetAt(i, f(a.At(i), b.At(i)))
		}
		return nil
	}
}

// kernelIndexPut writes attr "value" at the flat positions listed in attr
// "indices". The functional form works on a copy of self.
func kernelIndexPut(inplace bool) Kernel {
	return func(call *KernelCall) error {
		self := call.Args[0]
		indices, value, err := indexPutAttrs(call)
		if err != nil {
			return err
		}
		if !inplace {
			self = self.Clone()
		}
		for _, idx := range indices {
			if idx < 0 || idx >= self.NumElements() {
				return fmt.Errorf("index_put: index %d out of range for %d elements", idx, self.NumElements())
			}
			self.SetAt(idx, value)
		}
		if !inplace {
			call.Outs[0] = self
		}
		return nil
	}
}

func indexPutAttrs(call *KernelCall) ([]int, float32, error) {
	rawIdx, ok := call.Meta("indices")
	if !ok {
		return nil, 0, fmt.Errorf("index_put: missing indices attribute")
	}
	indices, ok := rawIdx.([]int)
	if !ok {
		return nil, 0, fmt.Errorf("index_put: indices attribute has type %T, want []int", rawIdx)
	}
	rawVal, ok := call.Meta("value")
	if !ok {
		return nil, 0, fmt.Errorf("index_put: missing value attribute")
	}
	value, ok := rawVal.(float32)
	if !ok {
		return nil, 0, fmt.Errorf("index_put: value attribute has type %T, want float32", rawVal)
	}
	return indices, value, nil
}

func kernelCopy(call *KernelCall) error {
	dst, src := call.Args[0], call.Args[1]
	if err := dst.CopyFrom(src); err != nil {
		return fmt.Errorf("copy_: %w", err)
	}
	return nil
}

func kernelClone(call *KernelCall) error {
	call.Outs[0] = call.Args[0].Clone()
	return nil
}

func kernelAlias(call *KernelCall) error {
	call.Outs[0] = call.Args[0].Alias()
	return nil
}

func kernelSelect(call *KernelCall) error {
	dim, err := intAttr(call, "dim")
	if err != nil {
		return err
	}
	index, err := intAttr(call, "index")
	if err != nil {
		return err
	}
	out, err := call.Args[0].Select(dim, index)
	if err != nil {
		return err
	}
	call.Outs[0] = out
	return nil
}

func kernelNarrow(call *KernelCall) error {
	dim, err := intAttr(call, "dim")
	if err != nil {
		return err
	}
	start, err := intAttr(call, "start")
	if err != nil {
		return err
	}
	length, err := intAttr(call, "length")
	if err != nil {
		return err
	}
	out, err := call.Args[0].Narrow(dim, start, length)
	if err != nil {
		return err
	}
	call.Outs[0] = out
	return nil
}

func kernelReshape(call *KernelCall) error {
	raw, ok := call.Meta("shape")
	if !ok {
		return fmt.Errorf("reshape: missing shape attribute")
	}
	shape, ok := raw.(tensor.Shape)
	if !ok {
		return fmt.Errorf("reshape: shape attribute has type %T, want tensor.Shape", raw)
	}
	out, err := call.Args[0].Reshape(shape)
	if err != nil {
		return err
	}
	call.Outs[0] = out
	return nil
}

func kernelEmptyLike(call *KernelCall) error {
	x := call.Args[0]
	out, err := tensor.NewRaw(x.Shape(), x.DType())
	if err != nil {
		return err
	}
	call.Outs[0] = out
	return nil
}

func kernelFull(call *KernelCall) error {
	raw, ok := call.Meta("shape")
	if !ok {
		return fmt.Errorf("full: missing shape attribute")
	}
	shape, ok := raw.(tensor.Shape)
	if !ok {
		return fmt.Errorf("full: shape attribute has type %T, want tensor.Shape", raw)
	}
	value := float32(0)
	if rawVal, ok := call.Meta("value"); ok {
		v, ok := rawVal.(float32)
		if !ok {
			return fmt.Errorf("full: value attribute has type %T, want float32", rawVal)
		}
		value = v
	}
	out, err := tensor.NewRaw(shape, tensor.Float32)
	if err != nil {
		return err
	}
	out.Fill(value)
	call.Outs[0] = out
	return nil
}

func intAttr(call *KernelCall, key string) (int, error) {
	raw, ok := call.Meta(key)
	if !ok {
		return 0, fmt.Errorf("missing %s attribute", key)
	}
	v, ok := raw.(int)
	if !ok {
		return 0, fmt.Errorf("%s attribute has type %T, want int", key, raw)
	}
	return v, nil
}
