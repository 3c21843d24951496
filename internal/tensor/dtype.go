// Package tensor provides the storage-level tensor types used by the graph
// interpreter and the reinplacing pass tests.
package tensor

// DataType represents runtime type information for tensors.
//
// The optimization passes treat dtypes as opaque beyond equality; only the
// interpreter cares about the concrete representation, and it computes in
// float32.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Int32
	Bool
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Bool:
		return 1
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}
