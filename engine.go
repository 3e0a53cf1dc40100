package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrShutdownTimeout is returned by Run when the loops do not all
	// return within Options.ShutdownTimeout of the shutdown request.
	ErrShutdownTimeout = errors.New("engine: loops did not stop in time")

	// ErrAlreadyStarted is returned by a second call to Run.
	ErrAlreadyStarted = errors.New("engine: already started")
)

// Engine wires producers, consumers and the aging monitor around one
// Queue and coordinates their shutdown.
type Engine struct {
	opts    Options
	runID   string
	queue   *Queue
	flag    *RunFlag
	counts  AtomicMetrics
	metrics MetricsPolicy
	sink    Sink
	ledger  ledger

	itemErrors     atomic.Uint64
	internalErrors atomic.Uint64
	started        atomic.Bool
}

// Report summarizes a finished run.
type Report struct {
	RunID string

	// Produced counts items accepted by the queue.
	Produced uint64

	// Consumed counts items fully processed.
	Consumed uint64

	// Abandoned counts items built but refused at shutdown.
	Abandoned uint64

	// Remaining is the queue length after every loop returned.
	Remaining int

	// Duplicates counts item ids processed more than once.
	Duplicates int

	BlockedPushes uint64
	AgingPasses   uint64
	MaxQueued     int64
	ItemErrors    uint64
	Elapsed       time.Duration

	// Reason says what triggered the shutdown.
	Reason string
}

// Snapshot is a point-in-time view of a running engine.
type Snapshot struct {
	RunID         string `json:"run_id"`
	Running       bool   `json:"running"`
	QueueLen      int    `json:"queue_len"`
	QueueCap      int    `json:"queue_cap"`
	Ordering      string `json:"ordering"`
	Produced      uint64 `json:"produced"`
	Consumed      uint64 `json:"consumed"`
	Abandoned     uint64 `json:"abandoned"`
	BlockedPushes uint64 `json:"blocked_pushes"`
	AgingPasses   uint64 `json:"aging_passes"`
}

// New validates opts and builds an engine with its queue.
func New(opts Options) (*Engine, error) {
	opts.FillDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		opts:  opts,
		runID: uuid.NewString(),
		flag:  NewRunFlag(),
	}
	e.metrics = teeMetrics{&e.counts, opts.Metrics}
	e.ledger.seen = make(map[uint64]struct{})

	q, err := NewQueue(opts.QueueCapacity,
		WithClock(opts.Clock),
		WithOrdering(opts.Ordering),
		WithQueueMetrics(e.metrics),
	)
	if err != nil {
		return nil, err
	}
	e.queue = q
	return e, nil
}

// RunID identifies this engine in logs and snapshots.
func (e *Engine) RunID() string { return e.runID }

// Queue returns the engine's queue.
func (e *Engine) Queue() *Queue { return e.queue }

// RunFlag returns the engine's shutdown flag. Stopping it from outside
// ends the run the same way Stop does.
func (e *Engine) RunFlag() *RunFlag { return e.flag }

// Stop requests shutdown. The queue is woken first, so no push can land
// after the consumers decide they are done, then the run-flag is lowered.
// Stop is safe to call more than once and from any goroutine.
func (e *Engine) Stop() {
	e.queue.WakeAll()
	e.flag.Stop()
}

// Run starts every loop, waits for RunDuration, a canceled ctx or a
// stopped run-flag, then shuts down and joins all loops.
//
// Events go to Options.Sink. Without one they are logged through the
// logger attached to ctx with lg.Attach.
//
// Run returns ErrShutdownTimeout if the loops are not all joined within
// ShutdownTimeout; the returned Report is then a best-effort snapshot.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	if !e.started.CompareAndSwap(false, true) {
		return Report{}, ErrAlreadyStarted
	}
	e.sink = e.opts.Sink
	if e.sink == nil {
		e.sink = NewLogSink(lg.FromContext(ctx))
	}
	start := time.Now()
	e.emitStartup()

	var g errgroup.Group
	for i := range e.opts.Producers {
		g.Go(e.newProducer(i).Run)
	}
	for i := range e.opts.Consumers {
		g.Go(e.newConsumer(i).Run)
	}
	g.Go(e.newMonitor().Run)

	timer := time.NewTimer(e.opts.RunDuration)
	defer timer.Stop()

	reason := "run duration elapsed"
	select {
	case <-timer.C:
	case <-ctx.Done():
		reason = "context canceled"
	case <-e.flag.Done():
		reason = "stop requested"
	}
	e.Stop()

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	wait := time.NewTimer(e.opts.ShutdownTimeout)
	defer wait.Stop()

	select {
	case err := <-done:
		rep := e.report(start, reason)
		e.sink.Emit(Event{
			Kind:    EventShutdown,
			Message: "simulation ended cleanly",
			Fields: []zap.Field{
				zap.String("run_id", e.runID),
				zap.String("reason", reason),
				zap.Uint64("produced", rep.Produced),
				zap.Uint64("consumed", rep.Consumed),
				zap.Int("remaining", rep.Remaining),
				zap.Duration("elapsed", rep.Elapsed),
			},
			Err: err,
		})
		return rep, err
	case <-wait.C:
		err := fmt.Errorf("%w: waited %s", ErrShutdownTimeout, e.opts.ShutdownTimeout)
		e.reportInternalError(err)
		return e.report(start, reason), err
	}
}

// Snapshot returns the current counters and queue depth.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		RunID:         e.runID,
		Running:       e.flag.Running(),
		QueueLen:      e.queue.Len(),
		QueueCap:      e.queue.Cap(),
		Ordering:      e.queue.Ordering().String(),
		Produced:      e.counts.Produced(),
		Consumed:      e.counts.Consumed(),
		Abandoned:     e.counts.Abandoned(),
		BlockedPushes: e.counts.BlockedPushes(),
		AgingPasses:   e.counts.AgingPasses(),
	}
}

func (e *Engine) report(start time.Time, reason string) Report {
	return Report{
		RunID:         e.runID,
		Produced:      e.counts.Produced(),
		Consumed:      e.counts.Consumed(),
		Abandoned:     e.counts.Abandoned(),
		Remaining:     e.queue.Len(),
		Duplicates:    e.ledger.duplicates(),
		BlockedPushes: e.counts.BlockedPushes(),
		AgingPasses:   e.counts.AgingPasses(),
		MaxQueued:     e.counts.MaxQueued(),
		ItemErrors:    e.itemErrors.Load(),
		Elapsed:       time.Since(start),
		Reason:        reason,
	}
}

func (e *Engine) emitStartup() {
	e.sink.Emit(Event{
		Kind:    EventStartup,
		Message: "starting simulation",
		Fields: []zap.Field{
			zap.String("run_id", e.runID),
			zap.Int("producers", e.opts.Producers),
			zap.Int("consumers", e.opts.Consumers),
			zap.Int("queue_capacity", e.opts.QueueCapacity),
			zap.Int("max_priority", e.opts.MaxPriority),
			zap.Duration("run_duration", e.opts.RunDuration),
			zap.String("ordering", e.opts.Ordering.String()),
			zap.Bool("affinity", AffinityEnabled()),
		},
	})
}

func (e *Engine) newProducer(i int) *Producer {
	seed := e.opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Producer{
		Index:       i,
		Queue:       e.queue,
		Sequence:    e.opts.Sequence,
		Flag:        e.flag,
		Clock:       e.opts.Clock,
		MaxPriority: e.opts.MaxPriority,
		JitterMin:   e.opts.JitterMin,
		JitterMax:   e.opts.JitterMax,
		Rand:        rand.New(rand.NewPCG(seed, uint64(i))),
		Sink:        e.sink,
		Metrics:     e.metrics,
	}
}

func (e *Engine) newConsumer(i int) *Consumer {
	return &Consumer{
		Index:       i,
		Queue:       e.queue,
		Flag:        e.flag,
		Clock:       e.opts.Clock,
		Process:     e.process,
		Sink:        e.sink,
		Metrics:     e.metrics,
		Pin:         AffinityEnabled(),
		OnItemError: e.reportItemError,
	}
}

func (e *Engine) newMonitor() *Monitor {
	return &Monitor{
		Queue:    e.queue,
		Flag:     e.flag,
		Clock:    e.opts.Clock,
		Interval: e.opts.AgingInterval,
		Sink:     e.sink,
		Metrics:  e.metrics,
	}
}

// process records it in the ledger and runs the configured work, or
// waits ProcessingDelay when none is set.
func (e *Engine) process(it *WorkItem) error {
	e.ledger.record(it.ID())
	if e.opts.Process != nil {
		return e.opts.Process(it)
	}
	<-e.opts.Clock.After(e.opts.ProcessingDelay)
	return nil
}

// ledger tracks which item ids have been processed.
type ledger struct {
	mu   sync.Mutex
	seen map[uint64]struct{}
	dups int
}

func (l *ledger) record(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[id]; ok {
		l.dups++
		return
	}
	l.seen[id] = struct{}{}
}

func (l *ledger) duplicates() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dups
}
