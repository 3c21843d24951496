// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ops exposes operation identifiers and the registry mapping
// out-of-place operations to their mutating counterparts.
package ops

import (
	internalops "github.com/born-ml/graph/internal/ops"
)

// ID identifies an operation.
type ID = internalops.ID

// Registry maps functional operations to their mutating counterparts,
// records the set of view-producing operations, and holds evaluation
// kernels.
type Registry = internalops.Registry

// KernelCall carries the runtime arguments of a single node evaluation.
type KernelCall = internalops.KernelCall

// Kernel evaluates one operation.
type Kernel = internalops.Kernel

// Built-in operation identifiers.
const (
	AutoFunctionalized = internalops.AutoFunctionalized
	Copy               = internalops.Copy
	Clone              = internalops.Clone
	Alias              = internalops.Alias
	Select             = internalops.Select
	Narrow             = internalops.Narrow
	Reshape            = internalops.Reshape
	Sin                = internalops.Sin
	SinInplace         = internalops.SinInplace
	Cos                = internalops.Cos
	CosInplace         = internalops.CosInplace
	Mul                = internalops.Mul
	MulInplace         = internalops.MulInplace
	Add                = internalops.Add
	AddInplace         = internalops.AddInplace
	IndexPut           = internalops.IndexPut
	IndexPutInplace    = internalops.IndexPutInplace
	EmptyLike          = internalops.EmptyLike
	Full               = internalops.Full
)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return internalops.NewRegistry()
}

// Default returns a registry populated with the built-in operations.
func Default() *Registry {
	return internalops.Default()
}
