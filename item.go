package engine

import (
	"fmt"
	"math"
	"time"
)

// AgingStep is the waiting time that raises an item's effective
// priority by one.
const AgingStep = time.Second

// WorkItem is a single unit of work moved from producers to consumers.
//
// The id and creation time are fixed at construction. The base priority
// changes only through Age. Ordering inside the queue never mutates it;
// it uses EffectivePriority instead.
type WorkItem struct {
	id        uint64
	basePrio  int
	createdAt time.Time
}

// NewWorkItem creates an item stamped with createdAt.
func NewWorkItem(id uint64, basePriority int, createdAt time.Time) *WorkItem {
	return &WorkItem{
		id:        id,
		basePrio:  basePriority,
		createdAt: createdAt,
	}
}

// ID returns the item identifier.
func (w *WorkItem) ID() uint64 { return w.id }

// BasePriority returns the caller-supplied priority. Higher is more urgent.
func (w *WorkItem) BasePriority() int { return w.basePrio }

// CreatedAt returns the construction timestamp.
func (w *WorkItem) CreatedAt() time.Time { return w.createdAt }

// EffectivePriority returns the base priority plus one for every full
// AgingStep elapsed between creation and now, saturating at math.MaxInt.
// A now earlier than the creation time counts as zero elapsed.
func (w *WorkItem) EffectivePriority(now time.Time) int {
	elapsed := now.Sub(w.createdAt)
	if elapsed < 0 {
		return w.basePrio
	}
	boost := int(elapsed.Milliseconds() / AgingStep.Milliseconds())
	if w.basePrio > math.MaxInt-boost {
		return math.MaxInt
	}
	return w.basePrio + boost
}

// Age raises the base priority by one, saturating at math.MaxInt.
//
// The queue never calls Age. It must not be called while the item is
// enqueued, since the queue lock does not cover it.
func (w *WorkItem) Age() {
	if w.basePrio < math.MaxInt {
		w.basePrio++
	}
}

func (w *WorkItem) String() string {
	return fmt.Sprintf("item %d (prio=%d)", w.id, w.basePrio)
}
