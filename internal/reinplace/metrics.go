package reinplace

import "sync/atomic"

// Metrics collects the pass's diagnostic counters. The caller owns its
// lifetime: pass one instance into Run with WithMetrics to observe a run,
// reuse it across runs to accumulate, or pass nothing for a no-op sink.
type Metrics struct {
	missed atomic.Int64
}

// NewMetrics creates a zeroed Metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// MissedOpportunities returns how many candidates could not be reinplaced
// because a value aliasing the mutated storage was still live after the
// call. This is observability only; it never affects rewrite decisions.
func (m *Metrics) MissedOpportunities() int64 {
	if m == nil {
		return 0
	}
	return m.missed.Load()
}

// Reset clears all counters, for reuse between independent runs.
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.missed.Store(0)
}

// recordMissed is nil-safe so the pass can call it unconditionally.
func (m *Metrics) recordMissed() {
	if m == nil {
		return
	}
	m.missed.Add(1)
}
