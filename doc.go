// Package engine provides a bounded priority work queue with aging and
// the producer, consumer and monitor loops that drive it.
//
// Design goals
//
// The package is designed around the following principles:
//
//   - Bounded memory: producers block instead of growing the queue
//   - No starvation: waiting time raises an item's priority
//   - Clean shutdown: every blocked goroutine is woken and joined
//   - Deterministic tests: all time flows through an injectable Clock
//
// Architecture overview
//
// The engine is composed of four loosely coupled layers:
//
//   1. Items (WorkItem)
//      An id, a base priority and a creation time. The effective
//      priority is derived: base plus one per full second of waiting.
//
//   2. Ordering (schedQueue)
//      An unsynchronized container behind the Queue. OrderPriority
//      keeps a max-heap on effective priority; OrderFIFO is a ring.
//
//   3. Synchronization (Queue)
//      One mutex and two condition variables enforce the capacity,
//      block producers when full and consumers when empty, and carry
//      the shutdown broadcast.
//
//   4. Loops (Producer, Consumer, Monitor, Engine)
//      Producers synthesize items under a shared Sequence, consumers
//      process them, and the monitor runs a periodic aging pass. The
//      Engine starts them, stops them and reports what happened.
//
// Aging model
//
// Priorities are never mutated while an item is queued. Because the
// relative order of two items can change as whole seconds elapse, Pop
// re-prices every held item against the clock and restores heap order
// before extracting; the popped item is always the best one at that
// instant. Ties go to the older item, then to the smaller id.
//
// The monitor's AgeAll pass does the same re-pricing on a fixed cadence.
// It keeps the heap close to true order between pops and makes aging
// observable through events and metrics.
//
// Shutdown
//
// Engine.Stop calls Queue.WakeAll and then stops the shared RunFlag.
// After WakeAll every Push fails with ErrQueueClosed, so nothing new can
// arrive, while Pop keeps returning held items until the queue is empty.
// Consumers therefore drain all accepted work before exiting, and a
// producer whose push is refused counts the item as abandoned.
//
// Error handling
//
// The engine distinguishes between two classes of errors:
//
//   - Item errors: returned by a ProcessFunc or produced by panic recovery
//   - Internal errors: failures of the engine itself, such as a shutdown
//     that overran ShutdownTimeout
//
// Neither stops the loops. Both are reported through Options hooks.
// Misconfiguration is rejected up front by NewQueue and Options.Validate.
//
// CPU pinning
//
// On Linux, consumers may optionally be pinned to CPUs. When enabled with
// SetAffinityEnabled, each consumer locks itself to an OS thread and
// restricts that thread to CPU index modulo the CPU count. Pinning is
// best effort and never affects correctness: a failure is only a
// debug-level affinity event.
//
// Observability
//
// Every loop reports through a Sink as structured Events; LogSink writes
// them to a zlog logger. Without an explicit Sink, Engine.Run uses the
// logger attached to its context, as in
//
//	ctx = lg.Attach(ctx, logger)
//	report, err := eng.Run(ctx)
//
// Counters and the queue depth go through a MetricsPolicy, with atomic,
// no-op and Prometheus implementations.
package engine
