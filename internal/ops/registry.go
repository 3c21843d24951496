package ops

import "github.com/born-ml/graph/internal/tensor"

// KernelCall carries the runtime arguments of a single node evaluation.
// Args are the node's input tensors in input order, Meta reads the node's
// metadata bag, and Outs must be filled with one tensor per node output.
type KernelCall struct {
	Args []*tensor.RawTensor
	Meta func(key string) (any, bool)
	Outs []*tensor.RawTensor
}

// Kernel evaluates one operation. Mutating kernels write into their
// argument tensors; functional kernels allocate fresh outputs.
type Kernel func(call *KernelCall) error

// Registry maps functional operations to their mutating counterparts,
// records the closed set of view-producing operations, and holds the
// evaluation kernel for each operation.
//
// A Registry is immutable once handed to a pass: the pass only reads it.
// Callers extend it before running (custom mutating operations register
// their kernels the same way the built-ins do).
type Registry struct {
	inplace    map[ID]ID
	functional map[ID]ID
	views      map[ID]bool
	kernels    map[ID]Kernel
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		inplace:    make(map[ID]ID),
		functional: make(map[ID]ID),
		views:      make(map[ID]bool),
		kernels:    make(map[ID]Kernel),
	}
}

// RegisterPair records a functional operation and its mutating counterpart.
// Both directions become resolvable.
func (r *Registry) RegisterPair(functional, mutating ID) {
	r.inplace[functional] = mutating
	r.functional[mutating] = functional
}

// RegisterView marks id as view-producing: its output shares storage with
// its first input.
func (r *Registry) RegisterView(id ID) {
	r.views[id] = true
}

// RegisterKernel installs the evaluation kernel for id.
func (r *Registry) RegisterKernel(id ID, k Kernel) {
	r.kernels[id] = k
}

// InplaceVariant returns the mutating counterpart of a functional
// operation, if one is registered.
func (r *Registry) InplaceVariant(id ID) (ID, bool) {
	m, ok := r.inplace[id]
	return m, ok
}

// FunctionalVariant returns the functional counterpart of a mutating
// operation, if one is registered.
func (r *Registry) FunctionalVariant(id ID) (ID, bool) {
	f, ok := r.functional[id]
	return f, ok
}

// IsView reports whether id is a recognized view-producing operation.
func (r *Registry) IsView(id ID) bool {
	return r.views[id]
}

// Kernel returns the evaluation kernel for id.
func (r *Registry) Kernel(id ID) (Kernel, bool) {
	k, ok := r.kernels[id]
	return k, ok
}

// Known reports whether id has any registration at all. The passes treat
// completely unknown operation identifiers as a malformed graph.
func (r *Registry) Known(id ID) bool {
	if id == AutoFunctionalized {
		return true
	}
	if _, ok := r.kernels[id]; ok {
		return true
	}
	if _, ok := r.inplace[id]; ok {
		return true
	}
	if _, ok := r.functional[id]; ok {
		return true
	}
	return r.views[id]
}
