// Package ops defines operation identifiers and the registry that maps
// out-of-place operations to their mutating counterparts, recognizes
// view-producing operations, and dispatches evaluation kernels.
package ops

// ID identifies an operation. Functional (out-of-place) and mutating
// (in-place) variants of the same semantic operation have distinct IDs;
// by convention the mutating variant carries a trailing underscore.
type ID string

// Built-in operation identifiers.
const (
	// AutoFunctionalized wraps a natively-mutating operation as a pure call
	// for analysis. See graph.AutoFunc for the metadata convention.
	AutoFunctionalized ID = "auto_functionalized"

	// Copy is the mutating copy: copy_(dst, src) writes src into dst.
	Copy ID = "copy_"

	// Clone duplicates its input into a fresh contiguous buffer.
	Clone ID = "clone"

	// View-producing operations. Their outputs share storage with their
	// first input.
	Alias   ID = "alias"
	Select  ID = "select"
	Narrow  ID = "narrow"
	Reshape ID = "reshape"

	// Elementwise math, functional and mutating variants.
	Sin        ID = "sin"
	SinInplace ID = "sin_"
	Cos        ID = "cos"
	CosInplace ID = "cos_"
	Mul        ID = "mul"
	MulInplace ID = "mul_"
	Add        ID = "add"
	AddInplace ID = "add_"

	// IndexPut writes a scalar at the given flat indices.
	// index_put(self, ...) is functional; index_put_ mutates self.
	IndexPut        ID = "index_put"
	IndexPutInplace ID = "index_put_"

	// Allocation helpers.
	EmptyLike ID = "empty_like"
	Full      ID = "full"
)

// String returns the identifier text.
func (id ID) String() string {
	return string(id)
}
