// Package deadlock demonstrates a two-lock deadlock and a scripted
// recovery from it.
//
// Two workers contend for locks A and B. Under StrategyOpposite worker-1
// takes A then B while worker-2 takes B then A; after HoldDelay each one
// waits for the lock the other holds. A watchdog stops the shared
// RunFlag after DetectAfter, which releases both workers.
//
// The watchdog is a fixed timeout, not deadlock detection. It never looks
// at lock state: once DetectAfter has passed it clears the run-flag,
// whether or not the workers are still stuck. Only a canceled context or
// a flag stopped by someone else ends it sooner. Whether a deadlock
// actually happened is read from the workers' own results.
package deadlock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	boff "github.com/Andrej220/go-utils/backoff"
	lg "github.com/Andrej220/go-utils/zlog"
	"go.uber.org/zap"

	engine "github.com/Chadha-Bhavya/ProducerConsumerEngine"
)

const (
	DefaultHoldDelay   = 100 * time.Millisecond
	DefaultDetectAfter = 5 * time.Second
)

const (
	EventLock     engine.EventKind = "lock"
	EventDeadlock engine.EventKind = "deadlock"
	EventRecovery engine.EventKind = "recovery"
)

var (
	ErrUnknownStrategy = errors.New("deadlock: unknown strategy")
	ErrInvalidOptions  = errors.New("deadlock: invalid options")
)

// Strategy selects how the two workers acquire their locks.
type Strategy int

const (
	// StrategyOpposite acquires in opposite order and deadlocks.
	StrategyOpposite Strategy = iota

	// StrategyOrdered has both workers take A before B.
	StrategyOrdered

	// StrategyBackoff keeps opposite order but only tries the second lock,
	// releasing the first and backing off when it is busy.
	StrategyBackoff
)

func (s Strategy) String() string {
	switch s {
	case StrategyOpposite:
		return "opposite"
	case StrategyOrdered:
		return "ordered"
	case StrategyBackoff:
		return "backoff"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy maps "opposite", "ordered" or "backoff" to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "opposite":
		return StrategyOpposite, nil
	case "ordered":
		return StrategyOrdered, nil
	case "backoff":
		return StrategyBackoff, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Options configure one demonstration run.
type Options struct {
	// HoldDelay is how long each worker holds its first lock before
	// reaching for the second.
	HoldDelay time.Duration

	// DetectAfter is the watchdog deadline.
	DetectAfter time.Duration

	Strategy Strategy

	// Retry bounds StrategyBackoff; ignored otherwise.
	Retry RetryPolicy

	// Sink receives lock, deadlock and recovery events. When nil, Run
	// logs them through the logger attached to its context.
	Sink engine.Sink

	// Seed feeds the backoff jitter; zero seeds from the clock.
	Seed int64
}

func (o *Options) fillDefaults() {
	if o.HoldDelay == 0 {
		o.HoldDelay = DefaultHoldDelay
	}
	if o.DetectAfter == 0 {
		o.DetectAfter = DefaultDetectAfter
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	o.Retry = o.Retry.withDefaults()
}

func (o *Options) validate() error {
	switch {
	case o.HoldDelay < 0:
		return fmt.Errorf("%w: hold delay = %s", ErrInvalidOptions, o.HoldDelay)
	case o.DetectAfter < 0:
		return fmt.Errorf("%w: detect after = %s", ErrInvalidOptions, o.DetectAfter)
	case o.Strategy < StrategyOpposite || o.Strategy > StrategyBackoff:
		return fmt.Errorf("%w: %s", ErrUnknownStrategy, o.Strategy)
	}
	return nil
}

// WorkerResult is what one worker managed before it returned.
type WorkerResult struct {
	Name string

	// Acquired reports whether the worker held both locks at once.
	Acquired bool

	// Attempts counts tries at the second lock.
	Attempts int

	// Waiting reports that the worker gave up while holding one lock and
	// waiting for the other.
	Waiting bool
}

// Result summarizes a demonstration run.
type Result struct {
	Strategy Strategy
	Workers  [2]WorkerResult

	// Recovered reports whether the watchdog reached its deadline and
	// stopped the run-flag.
	Recovered bool

	Elapsed time.Duration
}

// Deadlocked reports whether both workers ended up each holding one lock
// while waiting for the other.
func (r Result) Deadlocked() bool {
	return r.Workers[0].Waiting && r.Workers[1].Waiting
}

type plan struct {
	name                  string
	first, second         chanLock
	firstName, secondName string
}

type runner struct {
	opts Options
	flag *engine.RunFlag
}

// Run plays out the demonstration and returns once both workers and the
// watchdog are done, so it always takes DetectAfter unless ended sooner.
// flag is shared with the caller: stopping it ends the demonstration
// early, and the watchdog always stops it at the deadline. A canceled
// ctx also stops flag.
func Run(ctx context.Context, flag *engine.RunFlag, opts Options) (Result, error) {
	opts.fillDefaults()
	if err := opts.validate(); err != nil {
		return Result{}, err
	}
	if opts.Sink == nil {
		opts.Sink = engine.NewLogSink(lg.FromContext(ctx))
	}
	r := &runner{opts: opts, flag: flag}

	a, b := newChanLock(), newChanLock()
	plans := [2]plan{
		{name: "worker-1", first: a, second: b, firstName: "A", secondName: "B"},
		{name: "worker-2", first: b, second: a, firstName: "B", secondName: "A"},
	}
	if opts.Strategy == StrategyOrdered {
		plans[1] = plan{name: "worker-2", first: a, second: b, firstName: "A", secondName: "B"}
	}

	start := time.Now()
	res := Result{Strategy: opts.Strategy}

	var wg sync.WaitGroup
	for i := range plans {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res.Workers[i] = r.work(plans[i], opts.Seed+int64(i))
		}()
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	res.Recovered = r.watch(ctx, done)
	<-done
	res.Elapsed = time.Since(start)
	return res, nil
}

// watch is the scripted watchdog. It reports whether it reached the
// deadline and cleared the flag itself.
func (r *runner) watch(ctx context.Context, done <-chan struct{}) bool {
	timer := time.NewTimer(r.opts.DetectAfter)
	defer timer.Stop()

	select {
	case <-r.flag.Done():
		return false
	case <-ctx.Done():
		r.flag.Stop()
		return false
	case <-timer.C:
	}

	running := true
	select {
	case <-done:
		running = false
	default:
	}
	if running {
		r.opts.Sink.Emit(engine.Event{
			Kind:    EventDeadlock,
			Worker:  "watchdog",
			Message: "workers still running at deadline, assuming deadlock",
			Fields:  []zap.Field{zap.Duration("after", r.opts.DetectAfter)},
		})
	}
	r.flag.Stop()
	r.opts.Sink.Emit(engine.Event{
		Kind:    EventRecovery,
		Worker:  "watchdog",
		Message: "run-flag cleared, releasing workers",
		Fields:  []zap.Field{zap.Bool("workers_running", running)},
	})
	return true
}

func (r *runner) work(p plan, seed int64) WorkerResult {
	res := WorkerResult{Name: p.name}
	r.emit(p.name, "worker started")
	if r.opts.Strategy == StrategyBackoff {
		r.workBackoff(p, &res, seed)
	} else {
		r.workBlocking(p, &res)
	}
	r.emit(p.name, "worker stopped")
	return res
}

func (r *runner) workBlocking(p plan, res *WorkerResult) {
	stop := r.flag.Done()
	if !p.first.lock(stop) {
		r.emit(p.name, "gave up waiting for lock "+p.firstName)
		return
	}
	defer p.first.unlock()
	r.emit(p.name, "acquired lock "+p.firstName)

	if !sleep(r.opts.HoldDelay, stop) {
		return
	}

	res.Attempts = 1
	r.emit(p.name, "waiting for lock "+p.secondName)
	if !p.second.lock(stop) {
		res.Waiting = true
		r.emit(p.name, "gave up waiting for lock "+p.secondName)
		return
	}
	defer p.second.unlock()
	res.Acquired = true
	r.emit(p.name, "acquired both locks")
}

func (r *runner) workBackoff(p plan, res *WorkerResult, seed int64) {
	pol := r.opts.Retry
	bo := boff.New(pol.Initial, pol.Max, seed)
	stop := r.flag.Done()

	for attempt := 1; attempt <= pol.Attempts; attempt++ {
		res.Attempts = attempt
		if !p.first.lock(stop) {
			r.emit(p.name, "gave up waiting for lock "+p.firstName)
			return
		}
		r.emit(p.name, "acquired lock "+p.firstName)

		if !sleep(r.opts.HoldDelay, stop) {
			p.first.unlock()
			return
		}
		if p.second.tryLock() {
			res.Acquired = true
			r.emit(p.name, "acquired both locks")
			p.second.unlock()
			p.first.unlock()
			return
		}
		p.first.unlock()

		if attempt == pol.Attempts {
			r.emit(p.name, "lock "+p.secondName+" still busy, giving up")
			return
		}
		delay := bo.Next()
		r.opts.Sink.Emit(engine.Event{
			Kind:    EventLock,
			Worker:  p.name,
			Message: "lock " + p.secondName + " busy; released " + p.firstName + " and backing off",
			Fields: []zap.Field{
				zap.Int("attempt", attempt),
				zap.Duration("sleep", delay),
			},
		})
		if !sleep(delay, stop) {
			return
		}
	}
}

func (r *runner) emit(worker, msg string) {
	r.opts.Sink.Emit(engine.Event{Kind: EventLock, Worker: worker, Message: msg})
}

// sleep waits d and reports false if stop closed first.
func sleep(d time.Duration, stop <-chan struct{}) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-stop:
		return false
	}
}
