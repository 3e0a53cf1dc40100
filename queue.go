package engine

import (
	"fmt"
	"sync"
)

// Queue is a bounded, thread-safe work queue.
//
// Push blocks while the queue is full and Pop blocks while it is empty.
// Both waits re-check their predicate in a loop, so spurious wakeups are
// harmless. A single mutex guards the container and both conditions.
//
// WakeAll is the shutdown broadcast. After it, every blocked Push
// returns ErrQueueClosed, no new item is accepted, and Pop keeps handing
// out held items until the queue is empty.
type Queue struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	sq       schedQueue
	capacity int
	ordering Ordering
	woken    bool

	clock   Clock
	metrics MetricsPolicy
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithClock sets the clock used to price items. Defaults to SystemClock.
func WithClock(c Clock) QueueOption {
	return func(q *Queue) {
		if c != nil {
			q.clock = c
		}
	}
}

// WithOrdering selects the extraction policy. Defaults to OrderPriority.
func WithOrdering(o Ordering) QueueOption {
	return func(q *Queue) { q.ordering = o }
}

// WithQueueMetrics reports blocked pushes and depth changes to m.
func WithQueueMetrics(m MetricsPolicy) QueueOption {
	return func(q *Queue) {
		if m != nil {
			q.metrics = m
		}
	}
}

// NewQueue creates a queue holding at most capacity items.
func NewQueue(capacity int, opts ...QueueOption) (*Queue, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	q := &Queue{
		capacity: capacity,
		clock:    SystemClock,
		metrics:  &NoopMetrics{},
	}
	for _, opt := range opts {
		opt(q)
	}
	q.sq = makeSchedQueue(q.ordering, capacity)
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q, nil
}

// Push waits until the queue has room, inserts it and wakes one waiting
// consumer. It returns ErrQueueClosed if WakeAll has been called, whether
// before the call or while it was blocked.
func (q *Queue) Push(it *WorkItem) error {
	if it == nil {
		return ErrNilItem
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.woken && q.sq.Len() >= q.capacity {
		q.metrics.IncBlockedPush()
		for !q.woken && q.sq.Len() >= q.capacity {
			statPushWait()
			q.notFull.Wait()
		}
	}
	if q.woken {
		return ErrQueueClosed
	}

	q.sq.Push(it, q.clock.Now())
	q.metrics.SetQueued(q.sq.Len())
	q.notEmpty.Signal()
	return nil
}

// TryPush inserts it without blocking.
func (q *Queue) TryPush(it *WorkItem) error {
	if it == nil {
		return ErrNilItem
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.woken {
		return ErrQueueClosed
	}
	if q.sq.Len() >= q.capacity {
		return ErrQueueFull
	}
	q.sq.Push(it, q.clock.Now())
	q.metrics.SetQueued(q.sq.Len())
	q.notEmpty.Signal()
	return nil
}

// Pop waits until an item is available, removes the one ranked first at
// the current clock reading and wakes one waiting producer. After
// WakeAll it drains held items and then returns ErrQueueClosed.
func (q *Queue) Pop() (*WorkItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.woken && q.sq.Len() == 0 {
		statPopWait()
		q.notEmpty.Wait()
	}
	return q.popLocked()
}

// TryPop removes the next item without blocking.
func (q *Queue) TryPop() (*WorkItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.sq.Len() == 0 && !q.woken {
		return nil, ErrQueueEmpty
	}
	return q.popLocked()
}

func (q *Queue) popLocked() (*WorkItem, error) {
	it, ok := q.sq.Pop(q.clock.Now())
	if !ok {
		return nil, ErrQueueClosed
	}
	q.metrics.SetQueued(q.sq.Len())
	q.notFull.Signal()
	return it, nil
}

// AgeAll re-prices every held item against the current clock and
// restores ordering, holding the lock for the whole pass.
func (q *Queue) AgeAll() AgingStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sq.Tick(q.clock.Now())
}

// WakeAll wakes every goroutine blocked in Push or Pop and switches the
// queue to drain-only. Only the first call has an effect and returns true.
func (q *Queue) WakeAll() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.woken {
		return false
	}
	q.woken = true
	statWakeAll()
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
	return true
}

// Woken reports whether WakeAll has been called.
func (q *Queue) Woken() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.woken
}

// Len returns a snapshot of the number of held items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sq.Len()
}

// IsEmpty returns a snapshot of whether the queue holds nothing.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Cap returns the fixed capacity.
func (q *Queue) Cap() int { return q.capacity }

// Ordering returns the extraction policy.
func (q *Queue) Ordering() Ordering { return q.ordering }
