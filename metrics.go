package engine

import (
	"sync/atomic"
)

// MetricsPolicy defines hooks used by the queue and the worker loops to
// report activity.
//
// Implementations must be safe for concurrent use.
// All methods are expected to be lightweight and non-blocking.
// SetQueued and IncBlockedPush are called with the queue lock held.
type MetricsPolicy interface {
	// IncProduced counts an item accepted by Push.
	IncProduced()

	// IncAbandoned counts an item built by a producer but refused by a
	// queue woken for shutdown.
	IncAbandoned()

	// IncConsumed counts an item fully processed by a consumer.
	IncConsumed()

	// IncBlockedPush counts a Push that had to wait for room.
	IncBlockedPush()

	// IncAgingPass counts one re-pricing pass.
	IncAgingPass()

	// SetQueued records the current queue depth.
	SetQueued(n int)
}

// AtomicMetrics is a lock-free metrics implementation backed by atomics.
//
// Writes are optimized for hot paths.
// Reads are intended for cold-path observation.
type AtomicMetrics struct {
	produced atomic.Uint64
	consumed atomic.Uint64

	_ [48]byte // padding to avoid false sharing

	abandoned   atomic.Uint64
	blocked     atomic.Uint64
	agingPasses atomic.Uint64
	queued      atomic.Int64
	maxQueued   atomic.Int64
}

// Produced returns the number of items accepted by the queue.
func (m *AtomicMetrics) Produced() uint64 { return m.produced.Load() }

// Consumed returns the number of processed items.
func (m *AtomicMetrics) Consumed() uint64 { return m.consumed.Load() }

// Abandoned returns the number of items refused at shutdown.
func (m *AtomicMetrics) Abandoned() uint64 { return m.abandoned.Load() }

// BlockedPushes returns the number of pushes that waited for room.
func (m *AtomicMetrics) BlockedPushes() uint64 { return m.blocked.Load() }

// AgingPasses returns the number of re-pricing passes.
func (m *AtomicMetrics) AgingPasses() uint64 { return m.agingPasses.Load() }

// Queued returns the last recorded queue depth.
func (m *AtomicMetrics) Queued() int64 { return m.queued.Load() }

// MaxQueued returns the highest recorded queue depth.
func (m *AtomicMetrics) MaxQueued() int64 { return m.maxQueued.Load() }

func (m *AtomicMetrics) IncProduced()    { m.produced.Add(1) }
func (m *AtomicMetrics) IncAbandoned()   { m.abandoned.Add(1) }
func (m *AtomicMetrics) IncConsumed()    { m.consumed.Add(1) }
func (m *AtomicMetrics) IncBlockedPush() { m.blocked.Add(1) }
func (m *AtomicMetrics) IncAgingPass()   { m.agingPasses.Add(1) }

// SetQueued stores n and raises the high-water mark if needed.
func (m *AtomicMetrics) SetQueued(n int) {
	v := int64(n)
	m.queued.Store(v)
	for {
		cur := m.maxQueued.Load()
		if v <= cur || m.maxQueued.CompareAndSwap(cur, v) {
			return
		}
	}
}

//------------- NoopMetrics ----------------------------------

// NoopMetrics is a MetricsPolicy implementation that discards
// all metric updates.
type NoopMetrics struct{}

func (m *NoopMetrics) IncProduced()    {}
func (m *NoopMetrics) IncAbandoned()   {}
func (m *NoopMetrics) IncConsumed()    {}
func (m *NoopMetrics) IncBlockedPush() {}
func (m *NoopMetrics) IncAgingPass()   {}
func (m *NoopMetrics) SetQueued(int)   {}

//------------- teeMetrics -----------------------------------

// teeMetrics forwards every update to each policy in order.
type teeMetrics []MetricsPolicy

func (t teeMetrics) IncProduced() {
	for _, m := range t {
		m.IncProduced()
	}
}

func (t teeMetrics) IncAbandoned() {
	for _, m := range t {
		m.IncAbandoned()
	}
}

func (t teeMetrics) IncConsumed() {
	for _, m := range t {
		m.IncConsumed()
	}
}

func (t teeMetrics) IncBlockedPush() {
	for _, m := range t {
		m.IncBlockedPush()
	}
}

func (t teeMetrics) IncAgingPass() {
	for _, m := range t {
		m.IncAgingPass()
	}
}

func (t teeMetrics) SetQueued(n int) {
	for _, m := range t {
		m.SetQueued(n)
	}
}
