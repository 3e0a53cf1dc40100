package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// Producer synthesizes items and pushes them until its RunFlag stops.
//
// Each round it pauses for a random interval in [JitterMin, JitterMax]
// so producers do not burst in step, takes the next id from the shared
// Sequence, and pushes an item with a priority drawn from
// [1, MaxPriority]. Once the flag stops it returns without building a
// further item; a push refused because the queue was woken for shutdown
// is counted as abandoned and ends the loop.
type Producer struct {
	Index       int
	Queue       Pusher
	Sequence    *Sequence
	Flag        *RunFlag
	Clock       Clock
	MaxPriority int
	JitterMin   time.Duration
	JitterMax   time.Duration
	Rand        *rand.Rand
	Sink        Sink
	Metrics     MetricsPolicy
}

// Name identifies the producer in events.
func (p *Producer) Name() string { return fmt.Sprintf("producer-%d", p.Index) }

// Run is the producer loop. It returns nil on shutdown.
func (p *Producer) Run() error {
	name := p.Name()
	p.Sink.Emit(Event{Kind: EventWorkerStart, Worker: name, Message: "producer started"})
	defer p.Sink.Emit(Event{Kind: EventWorkerStop, Worker: name, Message: "producer stopped"})

	for p.Flag.Running() {
		select {
		case <-p.Clock.After(p.jitter()):
		case <-p.Flag.Done():
			return nil
		}
		if !p.Flag.Running() {
			return nil
		}

		id := p.Sequence.Next()
		it := NewWorkItem(id, 1+p.Rand.IntN(p.MaxPriority), p.Clock.Now())

		if err := p.Queue.Push(it); err != nil {
			if errors.Is(err, ErrQueueClosed) {
				p.Metrics.IncAbandoned()
				return nil
			}
			return fmt.Errorf("%s: push item %d: %w", name, id, err)
		}
		p.Metrics.IncProduced()
		p.Sink.Emit(Event{
			Kind:     EventPush,
			Worker:   name,
			Item:     it,
			Priority: it.BasePriority(),
			Message:  "created item",
		})
	}
	return nil
}

func (p *Producer) jitter() time.Duration {
	span := p.JitterMax - p.JitterMin
	if span <= 0 {
		return p.JitterMin
	}
	return p.JitterMin + time.Duration(p.Rand.Int64N(int64(span)+1))
}
