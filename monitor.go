package engine

import "time"

// Monitor runs the periodic aging pass.
//
// Every Interval it re-prices the queue and emits one aging event. With
// derived effective priorities the pass is not needed for correct
// extraction order, since Pop re-prices on its own; it keeps the heap
// close to true order between pops and makes aging observable.
type Monitor struct {
	Queue    Ager
	Flag     *RunFlag
	Clock    Clock
	Interval time.Duration
	Sink     Sink
	Metrics  MetricsPolicy
}

// Run is the monitor loop. It returns once the RunFlag stops.
func (m *Monitor) Run() error {
	const name = "aging-monitor"
	m.Sink.Emit(Event{Kind: EventWorkerStart, Worker: name, Message: "aging monitor started"})
	defer m.Sink.Emit(Event{Kind: EventWorkerStop, Worker: name, Message: "aging monitor stopped"})

	for m.Flag.Running() {
		select {
		case <-m.Clock.After(m.Interval):
		case <-m.Flag.Done():
			return nil
		}
		st := m.Queue.AgeAll()
		m.Metrics.IncAgingPass()
		m.Sink.Emit(Event{
			Kind:    EventAging,
			Worker:  name,
			Message: "aged all items",
			Fields:  agingFields(st),
		})
	}
	return nil
}
