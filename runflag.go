package engine

import "sync/atomic"

// RunFlag is the shared cooperative shutdown signal.
//
// It starts in the running state and flips to stopped exactly once.
// Loops poll Running at their boundaries and select on Done while
// waiting, so a stop interrupts pacing sleeps.
type RunFlag struct {
	running atomic.Bool
	done    chan struct{}
}

// NewRunFlag returns a flag in the running state.
func NewRunFlag() *RunFlag {
	f := &RunFlag{done: make(chan struct{})}
	f.running.Store(true)
	return f
}

// Running reports whether shutdown has not been requested yet.
func (f *RunFlag) Running() bool {
	return f.running.Load()
}

// Stop requests shutdown. Only the first call has an effect and returns true.
func (f *RunFlag) Stop() bool {
	if !f.running.CompareAndSwap(true, false) {
		return false
	}
	close(f.done)
	return true
}

// Done is closed once Stop has been called.
func (f *RunFlag) Done() <-chan struct{} {
	return f.done
}
