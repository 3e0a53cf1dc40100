package engine_test

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	engine "github.com/Chadha-Bhavya/ProducerConsumerEngine"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestQueue(t *testing.T, capacity int, opts ...engine.QueueOption) *engine.Queue {
	t.Helper()
	q, err := engine.NewQueue(capacity, opts...)
	if err != nil {
		t.Fatalf("NewQueue(%d): %v", capacity, err)
	}
	return q
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		runtime.Gosched()
	}
	t.Fatal("condition not satisfied before timeout")
}

// pacedClock is a synthetic clock whose After also yields a little real
// time, so loops driven by it make progress without spinning.
type pacedClock struct {
	*engine.ManualClock
	pace time.Duration
}

func newPacedClock(pace time.Duration) *pacedClock {
	return &pacedClock{ManualClock: engine.NewManualClock(epoch), pace: pace}
}

func (c *pacedClock) After(d time.Duration) <-chan time.Time {
	time.Sleep(c.pace)
	return c.ManualClock.After(d)
}

// recordingSink keeps every event for later inspection.
type recordingSink struct {
	mu     sync.Mutex
	events []engine.Event
}

func (s *recordingSink) Emit(ev engine.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) count(kind engine.EventKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (s *recordingSink) itemIDs(kind engine.EventKind) []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint64
	for _, ev := range s.events {
		if ev.Kind == kind && ev.Item != nil {
			ids = append(ids, ev.Item.ID())
		}
	}
	return ids
}
