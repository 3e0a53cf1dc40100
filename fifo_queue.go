package engine

import "time"

// fifoQueue is a fixed-capacity first-in-first-out ring of items.
//
// It satisfies schedQueue and is selected with OrderFIFO. Items leave
// strictly in arrival order; priorities are reported by Tick but never
// change the order. The bounded Queue guarantees Push is never called
// on a full ring.
type fifoQueue struct {
	buf        []*WorkItem // circular buffer
	head, tail int         // read/write indices
	size       int
	capacity   int
	maxAge     time.Duration
}

// newFifoQueue creates a ring holding up to capacity items.
func newFifoQueue(capacity int) *fifoQueue {
	return &fifoQueue{
		buf:      make([]*WorkItem, capacity),
		capacity: capacity,
	}
}

// Len returns the number of buffered items.
func (q *fifoQueue) Len() int { return q.size }

// Push appends it at the tail. now is ignored.
func (q *fifoQueue) Push(it *WorkItem, _ time.Time) {
	if q.size == q.capacity {
		panic("fifo queue: push on full ring")
	}
	q.buf[q.tail] = it
	q.tail++
	if q.tail == q.capacity {
		q.tail = 0
	}
	q.size++
}

// Pop removes and returns the oldest item.
func (q *fifoQueue) Pop(_ time.Time) (*WorkItem, bool) {
	if q.size == 0 {
		return nil, false
	}
	it := q.buf[q.head]
	q.buf[q.head] = nil
	q.head++
	if q.head == q.capacity {
		q.head = 0
	}
	q.size--
	return it, true
}

// Tick reports aging figures without reordering anything.
func (q *fifoQueue) Tick(now time.Time) AgingStats {
	st := AgingStats{Items: q.size}
	for i := 0; i < q.size; i++ {
		it := q.buf[(q.head+i)%q.capacity]
		if age := now.Sub(it.createdAt); age > st.MaxAge {
			st.MaxAge = age
		}
		if eff := it.EffectivePriority(now); i == 0 || eff > st.MaxEffective {
			st.MaxEffective = eff
		}
	}
	q.maxAge = st.MaxAge
	return st
}

// MaxAge returns the oldest age seen by the last Tick.
func (q *fifoQueue) MaxAge() time.Duration {
	return q.maxAge
}
