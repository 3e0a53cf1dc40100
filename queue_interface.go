package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidCapacity is returned by NewQueue for a capacity below one.
	ErrInvalidCapacity = errors.New("queue: capacity must be positive")

	// ErrQueueClosed is returned once WakeAll has been called: by Push
	// always, and by Pop when nothing is left to drain.
	ErrQueueClosed = errors.New("queue: woken for shutdown")

	// ErrQueueFull is returned by TryPush when the queue is at capacity.
	ErrQueueFull = errors.New("queue: queue is full")

	// ErrQueueEmpty is returned by TryPop when the queue holds nothing.
	ErrQueueEmpty = errors.New("queue: queue is empty")

	// ErrNilItem is returned when a nil item is pushed.
	ErrNilItem = errors.New("queue: item is nil")

	ErrUnknownOrdering = errors.New("queue: unknown ordering")
)

// Pusher is the producer side of a queue.
type Pusher interface {
	// Push blocks until there is room, then enqueues it.
	Push(it *WorkItem) error
}

// Popper is the consumer side of a queue.
type Popper interface {
	// Pop blocks until an item is available and removes it.
	Pop() (*WorkItem, error)

	// IsEmpty is a snapshot; it may be stale by the time it is acted on.
	IsEmpty() bool

	// Len is a snapshot of the number of held items.
	Len() int
}

// Ager is what the aging monitor needs from a queue.
type Ager interface {
	AgeAll() AgingStats
}

// AgingStats summarizes one re-pricing pass.
type AgingStats struct {
	// Items is the number of items held during the pass.
	Items int

	// MaxAge is the longest time any held item has waited.
	MaxAge time.Duration

	// MaxEffective is the highest effective priority among held items.
	MaxEffective int
}

// Ordering selects how a Queue picks the next item.
type Ordering int

const (
	// OrderPriority extracts the highest effective priority first.
	OrderPriority Ordering = iota

	// OrderFIFO extracts in arrival order and ignores priority.
	OrderFIFO
)

func (o Ordering) String() string {
	switch o {
	case OrderPriority:
		return "priority"
	case OrderFIFO:
		return "fifo"
	default:
		return "unknown"
	}
}

// ParseOrdering maps "priority" or "fifo" to an Ordering.
func ParseOrdering(s string) (Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "priority":
		return OrderPriority, nil
	case "fifo":
		return OrderFIFO, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOrdering, s)
	}
}

// schedQueue is the unsynchronized container behind a Queue.
//
// The Queue holds its lock around every call and guarantees Push is
// only called below capacity.
type schedQueue interface {
	// Push inserts an item; now is the insertion time.
	Push(it *WorkItem, now time.Time)

	// Pop removes and returns the next item at time now.
	Pop(now time.Time) (*WorkItem, bool)

	// Tick re-prices held items against now.
	Tick(now time.Time) AgingStats

	// Len returns the number of held items.
	Len() int

	// MaxAge returns the oldest age seen by the last Tick.
	MaxAge() time.Duration
}

func makeSchedQueue(o Ordering, capacity int) schedQueue {
	switch o {
	case OrderFIFO:
		return newFifoQueue(capacity)
	default:
		return newPrioQueue(capacity)
	}
}
