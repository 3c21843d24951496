// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package reinplace exposes the reinplacing optimization pass: it rewrites
// out-of-place tensor operations into mutating form wherever whole-graph
// alias and liveness analysis proves it safe.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/graph/graph"
//	    "github.com/born-ml/graph/ops"
//	    "github.com/born-ml/graph/reinplace"
//	)
//
//	g := buildGraph()
//	m := reinplace.NewMetrics()
//	if err := reinplace.Run(g, ops.Default(), reinplace.WithMetrics(m)); err != nil {
//	    return err
//	}
//	missed := m.MissedOpportunities()
//
// The pass mutates the graph in place and requires exclusive access for
// the duration of the call. Metrics are caller-owned and resettable; omit
// WithMetrics for a no-op sink.
package reinplace

import (
	internalreinplace "github.com/born-ml/graph/internal/reinplace"
)

// Metrics collects the pass's diagnostic counters.
type Metrics = internalreinplace.Metrics

// Option configures a pass run.
type Option = internalreinplace.Option

// NewMetrics creates a zeroed Metrics.
func NewMetrics() *Metrics {
	return internalreinplace.NewMetrics()
}

// WithMetrics directs the pass's diagnostic counters into m.
var WithMetrics = internalreinplace.WithMetrics

// Run executes the reinplacing pass over g, mutating it in place.
var Run = internalreinplace.Run
