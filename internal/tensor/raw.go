package tensor

import (
	"fmt"
)

// storage is the shared backing buffer of one or more tensors. Views created
// by Alias, Select, Narrow and Reshape point at the same storage with their
// own shape, strides and offset, so a write through any handle is visible
// through every other handle.
type storage struct {
	data []float32
}

// RawTensor is the low-level tensor representation.
//
// It deliberately supports only float32 payloads: the optimization passes
// never look at element values, and the reference interpreter that executes
// graphs in tests computes in float32.
type RawTensor struct {
	store  *storage
	shape  Shape
	stride []int
	offset int
	dtype  DataType
}

// NewRaw creates a new zero-filled RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		store:  &storage{data: make([]float32, shape.NumElements())},
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		offset: 0,
		dtype:  dtype,
	}, nil
}

// FromFloat32 creates a Float32 RawTensor initialized from data.
// The data is copied; the caller keeps ownership of the slice.
func FromFloat32(data []float32, shape Shape) (*RawTensor, error) {
	t, err := NewRaw(shape, Float32)
	if err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}
	copy(t.store.data, data)
	return t, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// SharesStorage reports whether two tensors are backed by the same buffer.
func (r *RawTensor) SharesStorage(o *RawTensor) bool {
	return r.store == o.store
}

// elemOffset maps a logical flat index (row-major over the tensor's shape)
// to an index into the backing storage, honoring strides and offset.
func (r *RawTensor) elemOffset(i int) int {
	off := r.offset
	for d := len(r.shape) - 1; d >= 0; d-- {
		off += (i % r.shape[d]) * r.stride[d]
		i /= r.shape[d]
	}
	return off
}

// At returns the element at the logical flat index i.
func (r *RawTensor) At(i int) float32 {
	return r.store.data[r.elemOffset(i)]
}

// SetAt stores v at the logical flat index i.
func (r *RawTensor) SetAt(i int, v float32) {
	r.store.data[r.elemOffset(i)] = v
}

// Float32 materializes the tensor's contents in logical row-major order.
// The returned slice is a copy and never aliases the backing storage.
func (r *RawTensor) Float32() []float32 {
	out := make([]float32, r.NumElements())
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}

// Fill sets every element to v.
func (r *RawTensor) Fill(v float32) {
	for i := 0; i < r.NumElements(); i++ {
		r.SetAt(i, v)
	}
}

// Clone returns a contiguous deep copy with fresh storage.
func (r *RawTensor) Clone() *RawTensor {
	out := &RawTensor{
		store:  &storage{data: r.Float32()},
		shape:  r.shape.Clone(),
		stride: r.shape.ComputeStrides(),
		offset: 0,
		dtype:  r.dtype,
	}
	return out
}

// CopyFrom copies src's contents into r element by element.
// Shapes must have the same number of elements. Both handles may be views;
// writes land in r's backing storage.
func (r *RawTensor) CopyFrom(src *RawTensor) error {
	if r.NumElements() != src.NumElements() {
		return fmt.Errorf("copy: size mismatch %v vs %v", r.shape, src.shape)
	}
	// src may alias r's storage; snapshot first so overlapping views copy
	// correctly.
	vals := src.Float32()
	for i, v := range vals {
		r.SetAt(i, v)
	}
	return nil
}

// Alias returns a view sharing storage, shape and layout with r.
func (r *RawTensor) Alias() *RawTensor {
	return &RawTensor{
		store:  r.store,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		offset: r.offset,
		dtype:  r.dtype,
	}
}

// Select returns a view of r with dimension dim fixed at index, reducing the
// rank by one. Mirrors aten.select.
func (r *RawTensor) Select(dim, index int) (*RawTensor, error) {
	if dim < 0 || dim >= len(r.shape) {
		return nil, fmt.Errorf("select: dimension %d out of range for shape %v", dim, r.shape)
	}
	if index < 0 || index >= r.shape[dim] {
		return nil, fmt.Errorf("select: index %d out of range for dimension %d (size %d)",
			index, dim, r.shape[dim])
	}

	shape := make(Shape, 0, len(r.shape)-1)
	stride := make([]int, 0, len(r.stride)-1)
	for d := range r.shape {
		if d == dim {
			continue
		}
		shape = append(shape, r.shape[d])
		stride = append(stride, r.stride[d])
	}

	return &RawTensor{
		store:  r.store,
		shape:  shape,
		stride: stride,
		offset: r.offset + index*r.stride[dim],
		dtype:  r.dtype,
	}, nil
}

// Narrow returns a view of r restricted to [start, start+length) along dim.
func (r *RawTensor) Narrow(dim, start, length int) (*RawTensor, error) {
	if dim < 0 || dim >= len(r.shape) {
		return nil, fmt.Errorf("narrow: dimension %d out of range for shape %v", dim, r.shape)
	}
	if start < 0 || length <= 0 || start+length > r.shape[dim] {
		return nil, fmt.Errorf("narrow: range [%d, %d) out of bounds for dimension %d (size %d)",
			start, start+length, dim, r.shape[dim])
	}

	shape := r.shape.Clone()
	shape[dim] = length

	return &RawTensor{
		store:  r.store,
		shape:  shape,
		stride: append([]int(nil), r.stride...),
		offset: r.offset + start*r.stride[dim],
		dtype:  r.dtype,
	}, nil
}

// Reshape returns a view with a new shape over the same storage.
// Only contiguous tensors can be reshaped without a copy.
func (r *RawTensor) Reshape(shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	if shape.NumElements() != r.NumElements() {
		return nil, fmt.Errorf("reshape: cannot view shape %v as %v", r.shape, shape)
	}
	if !r.isContiguous() {
		return nil, fmt.Errorf("reshape: tensor with shape %v is not contiguous", r.shape)
	}

	return &RawTensor{
		store:  r.store,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		offset: r.offset,
		dtype:  r.dtype,
	}, nil
}

// ViewInto transplants this view onto another tensor's storage: the result
// has r's shape, strides and offset but reads and writes o's buffer.
// o's storage must be at least as large as r's; typically o is a Clone of
// r's base tensor, so the layouts are congruent.
func (r *RawTensor) ViewInto(o *RawTensor) (*RawTensor, error) {
	if len(o.store.data) < len(r.store.data) {
		return nil, fmt.Errorf("view: target storage too small (%d < %d)",
			len(o.store.data), len(r.store.data))
	}
	return &RawTensor{
		store:  o.store,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		offset: r.offset,
		dtype:  r.dtype,
	}, nil
}

// isContiguous reports whether the view's elements are laid out densely in
// row-major order.
func (r *RawTensor) isContiguous() bool {
	expect := 1
	for d := len(r.shape) - 1; d >= 0; d-- {
		if r.shape[d] != 1 && r.stride[d] != expect {
			return false
		}
		expect *= r.shape[d]
	}
	return true
}

// String returns a short debug representation.
func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor(%s, shape=%v)", r.dtype, r.shape)
}
