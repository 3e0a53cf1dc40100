package engine

import "time"

// entry wraps a queued item with the effective priority computed at the
// last re-pricing pass. The heap needs each entry to track its index.
type entry struct {
	item  *WorkItem
	eff   int
	index int
}

// priorityQueue is a max-heap on eff.
//
// Ties on eff go to the earlier CreatedAt, then to the smaller id, so
// extraction order is fully determined by the items and the clock.
type priorityQueue []*entry

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	a, b := pq[i], pq[j]
	if a.eff != b.eff {
		return a.eff > b.eff
	}
	if !a.item.createdAt.Equal(b.item.createdAt) {
		return a.item.createdAt.Before(b.item.createdAt)
	}
	return a.item.id < b.item.id
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	e := x.(*entry)
	e.index = len(*pq)
	*pq = append(*pq, e)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*pq = old[:n-1]
	return e
}

// reprice recomputes eff for every entry against now and reports the
// oldest age and highest effective priority seen. It does not restore
// the heap property.
func (pq priorityQueue) reprice(now time.Time) (maxAge time.Duration, maxEff int) {
	for i, e := range pq {
		e.eff = e.item.EffectivePriority(now)
		if age := now.Sub(e.item.createdAt); age > maxAge {
			maxAge = age
		}
		if i == 0 || e.eff > maxEff {
			maxEff = e.eff
		}
	}
	return maxAge, maxEff
}
