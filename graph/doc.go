// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph provides the mutable computation-graph IR consumed by the
// Born optimization passes.
//
// # Overview
//
// A Graph holds operation nodes in stable program order. Each node has an
// ordered input list, an ordered output list and a metadata bag; each
// value tracks the set of nodes reading it. The IR guarantees that a
// value's user set always mirrors the input lists referencing it; every
// mutation helper updates both sides.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/graph/graph"
//	    "github.com/born-ml/graph/ops"
//	    "github.com/born-ml/graph/tensor"
//	)
//
//	g := graph.New()
//	x := g.Placeholder("x", tensor.Shape{4}, tensor.Float32)
//	cos := g.Append(ops.Cos, x)
//	y := cos.NewOutput("y", x.Shape(), x.DType())
//	g.SetOutputs(y)
//
// # Auto-Functionalization
//
// A natively-mutating operation can be wrapped as a pure call node with
// NewAutoFunc; the reinplace pass later undoes the wrapping wherever
// mutation is provably safe. See the reinplace package.
package graph

import (
	internalgraph "github.com/born-ml/graph/internal/graph"
)

// Graph is a mutable dataflow graph in stable program order.
type Graph = internalgraph.Graph

// Node is a single operation invocation.
type Node = internalgraph.Node

// Value is a node output or graph input.
type Value = internalgraph.Value

// AutoFunc is a typed view over an auto_functionalized call node.
type AutoFunc = internalgraph.AutoFunc

// Metadata keys shared between graph producers and the passes.
const (
	MetaTarget      = internalgraph.MetaTarget
	MetaArgNames    = internalgraph.MetaArgNames
	MetaMutates     = internalgraph.MetaMutates
	MetaNumBases    = internalgraph.MetaNumBases
	MetaCloneOnly   = internalgraph.MetaCloneOnly
	MetaReinplaced  = internalgraph.MetaReinplaced
	MetaUserInplace = internalgraph.MetaUserInplace
)

// New creates an empty graph.
func New() *Graph {
	return internalgraph.New()
}

// NewAutoFunc appends an auto_functionalized call wrapping target.
var NewAutoFunc = internalgraph.NewAutoFunc

// AsAutoFunc returns a typed view of n if it is an auto_functionalized
// call with well-formed metadata.
var AsAutoFunc = internalgraph.AsAutoFunc
