package engine

import (
	"container/heap"
	"time"
)

// prioQueue orders items by effective priority.
//
// Effective priorities of different items drift relative to each other
// as whole AgingSteps elapse, so a heap built at one instant can be
// wrong at the next. Pop therefore re-prices every entry against the
// extraction time and re-heapifies before taking the root; the result
// is always the maximum at that instant. Pop is O(n).
type prioQueue struct {
	pq     priorityQueue
	maxAge time.Duration
}

// newPrioQueue creates an empty queue sized for capacity entries.
func newPrioQueue(capacity int) *prioQueue {
	q := &prioQueue{pq: make(priorityQueue, 0, capacity)}
	heap.Init(&q.pq)
	return q
}

// Push inserts an item priced at now.
func (p *prioQueue) Push(it *WorkItem, now time.Time) {
	heap.Push(&p.pq, &entry{
		item: it,
		eff:  it.EffectivePriority(now),
	})
}

// Pop removes and returns the item with the highest effective priority
// at now. It returns nil and false if the queue is empty.
func (p *prioQueue) Pop(now time.Time) (*WorkItem, bool) {
	if p.pq.Len() == 0 {
		return nil, false
	}
	p.pq.reprice(now)
	heap.Init(&p.pq)
	e := heap.Pop(&p.pq).(*entry)
	return e.item, true
}

// Tick re-prices all queued items against now and restores heap order.
// The oldest observed age is kept for MaxAge.
func (p *prioQueue) Tick(now time.Time) AgingStats {
	maxAge, maxEff := p.pq.reprice(now)
	heap.Init(&p.pq)
	p.maxAge = maxAge
	return AgingStats{
		Items:        p.pq.Len(),
		MaxAge:       maxAge,
		MaxEffective: maxEff,
	}
}

// Len returns the number of queued items.
func (p *prioQueue) Len() int {
	return p.pq.Len()
}

// MaxAge returns the oldest age seen by the last Tick.
func (p *prioQueue) MaxAge() time.Duration {
	return p.maxAge
}
