package engine

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultProducers       = 2
	DefaultConsumers       = 3
	DefaultQueueCapacity   = 10
	DefaultRunDuration     = 20 * time.Second
	DefaultMaxPriority     = 5
	DefaultJitterMin       = 100 * time.Millisecond
	DefaultJitterMax       = 300 * time.Millisecond
	DefaultProcessingDelay = 200 * time.Millisecond
	DefaultAgingInterval   = time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// ErrInvalidOptions wraps every Validate failure.
var ErrInvalidOptions = errors.New("engine: invalid options")

// ProcessFunc handles one popped item on a consumer goroutine.
type ProcessFunc func(it *WorkItem) error

// Options configure an Engine.
//
// All zero values are replaced with defaults in FillDefaults; negative
// values are rejected by Validate.
type Options struct {
	Producers     int
	Consumers     int
	QueueCapacity int
	MaxPriority   int

	// RunDuration is wall-clock time between start and the shutdown request.
	RunDuration time.Duration

	// JitterMin and JitterMax bound each producer's pause before building
	// an item.
	JitterMin time.Duration
	JitterMax time.Duration

	// ProcessingDelay is the simulated work time used when Process is nil.
	ProcessingDelay time.Duration

	// AgingInterval is the aging monitor's cadence.
	AgingInterval time.Duration

	// ShutdownTimeout bounds how long Run waits for every loop to return
	// after the shutdown request.
	ShutdownTimeout time.Duration

	Ordering Ordering

	// Seed makes producer randomness reproducible; zero seeds from the clock.
	Seed uint64

	Clock    Clock
	Sequence *Sequence

	// Sink receives every event. When nil, Engine.Run logs them through
	// the logger attached to its context.
	Sink Sink

	Metrics MetricsPolicy
	Process ProcessFunc

	// OnItemError receives errors returned by Process, and panics it raised.
	OnItemError func(it *WorkItem, err error)

	// OnInternalError receives failures of the engine's own machinery,
	// such as a shutdown that overran ShutdownTimeout. A failed CPU
	// pinning is not one: it only shows up as a debug-level affinity event.
	OnInternalError func(err error)
}

func (o *Options) FillDefaults() {
	if o.Producers == 0 {
		o.Producers = DefaultProducers
	}
	if o.Consumers == 0 {
		o.Consumers = DefaultConsumers
	}
	if o.QueueCapacity == 0 {
		o.QueueCapacity = DefaultQueueCapacity
	}
	if o.MaxPriority == 0 {
		o.MaxPriority = DefaultMaxPriority
	}
	if o.RunDuration == 0 {
		o.RunDuration = DefaultRunDuration
	}
	if o.JitterMin == 0 && o.JitterMax == 0 {
		o.JitterMin = DefaultJitterMin
		o.JitterMax = DefaultJitterMax
	}
	if o.ProcessingDelay == 0 {
		o.ProcessingDelay = DefaultProcessingDelay
	}
	if o.AgingInterval == 0 {
		o.AgingInterval = DefaultAgingInterval
	}
	if o.ShutdownTimeout == 0 {
		o.ShutdownTimeout = DefaultShutdownTimeout
	}
	if o.Clock == nil {
		o.Clock = SystemClock
	}
	if o.Sequence == nil {
		o.Sequence = NewSequence(0)
	}
	if o.Metrics == nil {
		o.Metrics = &NoopMetrics{}
	}
}

// Validate reports the first setting that cannot run.
func (o *Options) Validate() error {
	switch {
	case o.Producers < 0:
		return fmt.Errorf("%w: producers = %d", ErrInvalidOptions, o.Producers)
	case o.Consumers <= 0:
		return fmt.Errorf("%w: consumers = %d, need at least one", ErrInvalidOptions, o.Consumers)
	case o.QueueCapacity <= 0:
		return fmt.Errorf("%w: queue capacity = %d", ErrInvalidOptions, o.QueueCapacity)
	case o.MaxPriority < 1:
		return fmt.Errorf("%w: max priority = %d", ErrInvalidOptions, o.MaxPriority)
	case o.RunDuration < 0:
		return fmt.Errorf("%w: run duration = %s", ErrInvalidOptions, o.RunDuration)
	case o.JitterMin < 0 || o.JitterMax < o.JitterMin:
		return fmt.Errorf("%w: jitter range [%s, %s]", ErrInvalidOptions, o.JitterMin, o.JitterMax)
	case o.ProcessingDelay < 0:
		return fmt.Errorf("%w: processing delay = %s", ErrInvalidOptions, o.ProcessingDelay)
	case o.AgingInterval < 0:
		return fmt.Errorf("%w: aging interval = %s", ErrInvalidOptions, o.AgingInterval)
	case o.ShutdownTimeout < 0:
		return fmt.Errorf("%w: shutdown timeout = %s", ErrInvalidOptions, o.ShutdownTimeout)
	}
	return nil
}
