package engine

import (
	"errors"
	"fmt"
	"runtime"
)

// Consumer pops items and processes them one at a time.
//
// It keeps going while the RunFlag is up or the queue still holds work,
// so items queued before shutdown are drained rather than dropped.
type Consumer struct {
	Index   int
	Queue   Popper
	Flag    *RunFlag
	Clock   Clock
	Process ProcessFunc
	Sink    Sink
	Metrics MetricsPolicy

	// Pin asks the consumer to bind itself to one CPU before its first pop.
	Pin bool

	OnItemError func(it *WorkItem, err error)
}

// Name identifies the consumer in events.
func (c *Consumer) Name() string { return fmt.Sprintf("consumer-%d", c.Index) }

// Run is the consumer loop. It returns nil once shutdown has been
// requested and the queue is drained.
func (c *Consumer) Run() error {
	name := c.Name()
	c.Sink.Emit(Event{Kind: EventWorkerStart, Worker: name, Message: "consumer started"})
	defer c.Sink.Emit(Event{Kind: EventWorkerStop, Worker: name, Message: "consumer stopped"})

	if c.Pin {
		c.pin()
	}

	for c.Flag.Running() || !c.Queue.IsEmpty() {
		it, err := c.Queue.Pop()
		if errors.Is(err, ErrQueueClosed) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: pop: %w", name, err)
		}
		c.Sink.Emit(Event{
			Kind:     EventPop,
			Worker:   name,
			Item:     it,
			Priority: it.EffectivePriority(c.Clock.Now()),
			Message:  "popped item",
		})

		c.process(it)

		c.Metrics.IncConsumed()
		c.Sink.Emit(Event{
			Kind:     EventProcessed,
			Worker:   name,
			Item:     it,
			Priority: it.EffectivePriority(c.Clock.Now()),
			Message:  "processed item",
		})
	}
	return nil
}

// process runs Process for it. Errors and panics go to OnItemError and
// never stop the consumer.
func (c *Consumer) process(it *WorkItem) {
	defer func() {
		if r := recover(); r != nil {
			c.reportItemError(it, fmt.Errorf("process item %d panicked: %v", it.ID(), r))
		}
	}()
	if err := c.Process(it); err != nil {
		c.reportItemError(it, err)
	}
}

func (c *Consumer) reportItemError(it *WorkItem, err error) {
	c.Sink.Emit(Event{Kind: EventError, Worker: c.Name(), Item: it, Err: err, Message: "item failed"})
	if c.OnItemError != nil {
		c.OnItemError(it, err)
	}
}

// pin binds the consumer to CPU Index modulo the CPU count. A failure
// is only noted as an affinity event; the consumer runs unpinned.
func (c *Consumer) pin() {
	cpu := c.Index % runtime.NumCPU()
	if err := PinToCPU(cpu); err != nil {
		c.Sink.Emit(Event{
			Kind:    EventAffinity,
			Worker:  c.Name(),
			Err:     fmt.Errorf("pin to cpu %d: %w", cpu, err),
			Message: "cpu pinning failed, running unpinned",
		})
		return
	}
	c.Sink.Emit(Event{Kind: EventAffinity, Worker: c.Name(), Message: fmt.Sprintf("pinned to cpu %d", cpu)})
}
