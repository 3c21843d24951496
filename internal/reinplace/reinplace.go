// Package reinplace rewrites out-of-place tensor operations into their
// mutating counterparts wherever whole-graph alias and liveness analysis
// proves it safe, removing allocation and copy overhead from a compiled
// computation graph.
//
// The pass runs in two phases over a caller-owned graph: every candidate
// is classified first against immutable analysis snapshots, then the
// rewrites are applied keyed by stable node identities. Running the pass
// again on its own output is a no-op.
package reinplace

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/graph/internal/alias"
	"github.com/born-ml/graph/internal/graph"
	"github.com/born-ml/graph/internal/liveness"
	"github.com/born-ml/graph/internal/ops"
)

// Option configures a pass run.
type Option func(*config)

type config struct {
	metrics *Metrics
}

// WithMetrics directs the pass's diagnostic counters into m.
// Without it the counters go to a no-op sink.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// Run executes the reinplacing pass over g, mutating it in place.
//
// The graph must be exclusively owned by the caller for the duration of
// the call. A malformed graph (dangling reference, forward reference,
// unknown operation) aborts the pass before any rewrite; errors during
// rewriting leave no partial-rewrite guarantee.
func Run(g *graph.Graph, reg *ops.Registry, opts ...Option) error {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := g.Validate(reg); err != nil {
		return fmt.Errorf("reinplace: malformed graph: %w", err)
	}

	// The two analyses read the same frozen graph and neither depends on
	// the other's output, so they can run concurrently.
	var (
		al *alias.Result
		lv *liveness.Result
	)
	var eg errgroup.Group
	eg.Go(func() error {
		al = alias.Analyze(g, reg)
		return nil
	})
	eg.Go(func() error {
		lv = liveness.Analyze(g)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("reinplace: %w", err)
	}

	decisions := decide(g, reg, al, lv, cfg.metrics)
	if err := apply(g, decisions); err != nil {
		return fmt.Errorf("reinplace: %w", err)
	}
	return nil
}
