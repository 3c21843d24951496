// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the storage-level tensor types used as value
// descriptors by the graph IR and as payloads by the reference
// interpreter.
package tensor

import (
	internaltensor "github.com/born-ml/graph/internal/tensor"
)

// Shape represents the dimensions of a tensor.
type Shape = internaltensor.Shape

// DataType represents runtime type information for tensors.
type DataType = internaltensor.DataType

// Supported data types.
const (
	Float32 = internaltensor.Float32
	Int32   = internaltensor.Int32
	Bool    = internaltensor.Bool
)

// RawTensor is the low-level tensor representation. Views share backing
// storage; writes through one handle are visible through every other.
type RawTensor = internaltensor.RawTensor

// NewRaw creates a new zero-filled RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return internaltensor.NewRaw(shape, dtype)
}

// FromFloat32 creates a Float32 RawTensor initialized from data.
func FromFloat32(data []float32, shape Shape) (*RawTensor, error) {
	return internaltensor.FromFloat32(data, shape)
}
