package engine_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	engine "github.com/Chadha-Bhavya/ProducerConsumerEngine"
	"github.com/Chadha-Bhavya/ProducerConsumerEngine/internal/logging"
)

func syntheticOptions(sink engine.Sink) engine.Options {
	if sink == nil {
		sink = engine.NopSink{}
	}
	return engine.Options{
		Producers:       2,
		Consumers:       3,
		QueueCapacity:   10,
		MaxPriority:     5,
		RunDuration:     300 * time.Millisecond,
		ShutdownTimeout: 5 * time.Second,
		Clock:           newPacedClock(200 * time.Microsecond),
		Seed:            1,
		Sink:            sink,
	}
}

func TestEngine_TwoProducersThreeConsumers(t *testing.T) {
	sink := &recordingSink{}
	e, err := engine.New(syntheticOptions(sink))
	require.NoError(t, err)

	rep, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run duration elapsed", rep.Reason)
	assert.Positive(t, rep.Produced)
	assert.Equal(t, rep.Produced, rep.Consumed+uint64(rep.Remaining))
	assert.Zero(t, rep.Remaining, "consumers must drain the queue before exiting")
	assert.Zero(t, rep.Duplicates)
	assert.LessOrEqual(t, rep.MaxQueued, int64(10))

	pushed := sink.itemIDs(engine.EventPush)
	processed := sink.itemIDs(engine.EventProcessed)
	assert.Len(t, pushed, int(rep.Produced))
	assert.ElementsMatch(t, pushed, processed)

	seen := make(map[uint64]bool, len(pushed))
	for _, id := range pushed {
		require.False(t, seen[id], "id %d produced twice", id)
		seen[id] = true
	}

	assert.Equal(t, 1, sink.count(engine.EventStartup))
	assert.Equal(t, 1, sink.count(engine.EventShutdown))
	assert.Equal(t, 6, sink.count(engine.EventWorkerStart))
	assert.Equal(t, 6, sink.count(engine.EventWorkerStop))
	assert.False(t, e.RunFlag().Running())
	assert.True(t, e.Queue().Woken())
}

func TestEngine_LogsThroughContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := lg.Attach(context.Background(), logging.FromZap(zap.New(core)))

	opts := syntheticOptions(nil)
	opts.Sink = nil
	opts.RunDuration = 50 * time.Millisecond
	e, err := engine.New(opts)
	require.NoError(t, err)

	rep, err := e.Run(ctx)
	require.NoError(t, err)

	start := logs.FilterMessage("starting simulation").All()
	require.Len(t, start, 1)
	assert.Equal(t, e.RunID(), start[0].ContextMap()["run_id"])
	assert.Equal(t, 1, logs.FilterMessage("simulation ended cleanly").Len())
	assert.Equal(t, int(rep.Produced), logs.FilterField(zap.String("event", "push")).Len())
}

func TestEngine_PrioritiesWithinRange(t *testing.T) {
	sink := &recordingSink{}
	opts := syntheticOptions(sink)
	opts.MaxPriority = 3
	e, err := engine.New(opts)
	require.NoError(t, err)

	_, err = e.Run(context.Background())
	require.NoError(t, err)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	for _, ev := range sink.events {
		if ev.Kind == engine.EventPush {
			assert.GreaterOrEqual(t, ev.Item.BasePriority(), 1)
			assert.LessOrEqual(t, ev.Item.BasePriority(), 3)
		}
	}
}

func TestEngine_RunOnlyOnce(t *testing.T) {
	opts := syntheticOptions(nil)
	opts.RunDuration = 10 * time.Millisecond
	e, err := engine.New(opts)
	require.NoError(t, err)

	_, err = e.Run(context.Background())
	require.NoError(t, err)
	_, err = e.Run(context.Background())
	require.ErrorIs(t, err, engine.ErrAlreadyStarted)
}

func TestEngine_ContextCancelEndsRun(t *testing.T) {
	opts := syntheticOptions(nil)
	opts.RunDuration = time.Minute
	e, err := engine.New(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	rep, err := e.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "context canceled", rep.Reason)
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Equal(t, rep.Produced, rep.Consumed+uint64(rep.Remaining))
}

func TestEngine_ExternalStop(t *testing.T) {
	opts := syntheticOptions(nil)
	opts.RunDuration = time.Minute
	e, err := engine.New(opts)
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		e.Stop()
	}()

	rep, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stop requested", rep.Reason)
	assert.Zero(t, rep.Remaining)
}

func TestEngine_ShutdownTimeout(t *testing.T) {
	release := make(chan struct{})
	var entered, returned atomic.Int32

	opts := syntheticOptions(nil)
	opts.RunDuration = 20 * time.Millisecond
	opts.ShutdownTimeout = 50 * time.Millisecond
	opts.Process = func(*engine.WorkItem) error {
		entered.Add(1)
		defer returned.Add(1)
		<-release
		return nil
	}
	var internal atomic.Int32
	opts.OnInternalError = func(err error) {
		if errors.Is(err, engine.ErrShutdownTimeout) {
			internal.Add(1)
		}
	}
	e, err := engine.New(opts)
	require.NoError(t, err)

	_, err = e.Run(context.Background())
	require.ErrorIs(t, err, engine.ErrShutdownTimeout)
	assert.Equal(t, int32(1), internal.Load())

	close(release)
	waitUntil(t, 5*time.Second, func() bool {
		return e.Queue().IsEmpty() && entered.Load() == returned.Load()
	})
}

func TestEngine_ItemErrorsDoNotStopConsumers(t *testing.T) {
	var failed atomic.Int32
	opts := syntheticOptions(nil)
	opts.Process = func(it *engine.WorkItem) error {
		if it.ID()%2 == 0 {
			return errors.New("boom")
		}
		if it.ID()%3 == 0 {
			panic("kaboom")
		}
		return nil
	}
	opts.OnItemError = func(*engine.WorkItem, error) { failed.Add(1) }

	e, err := engine.New(opts)
	require.NoError(t, err)

	rep, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Positive(t, rep.ItemErrors)
	assert.Equal(t, uint64(failed.Load()), rep.ItemErrors)
	assert.Equal(t, rep.Produced, rep.Consumed)
}

func TestEngine_ExportsPrometheusSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	opts := syntheticOptions(nil)
	opts.Metrics = engine.NewPromMetrics(reg)

	e, err := engine.New(opts)
	require.NoError(t, err)
	rep, err := e.Run(context.Background())
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, float64(rep.Produced), values["pcengine_queue_items_produced_total"])
	assert.Equal(t, float64(rep.Consumed), values["pcengine_queue_items_consumed_total"])
	assert.Equal(t, float64(rep.AgingPasses), values["pcengine_aging_passes_total"])
	assert.Equal(t, float64(rep.Remaining), values["pcengine_queue_depth"])
}

func TestEngine_Snapshot(t *testing.T) {
	opts := syntheticOptions(nil)
	opts.RunDuration = time.Minute
	e, err := engine.New(opts)
	require.NoError(t, err)

	snap := e.Snapshot()
	assert.Len(t, snap.RunID, 36)
	assert.Equal(t, e.RunID(), snap.RunID)
	assert.True(t, snap.Running)
	assert.Equal(t, 10, snap.QueueCap)
	assert.Equal(t, "priority", snap.Ordering)

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Run(context.Background())
	}()
	waitUntil(t, 5*time.Second, func() bool { return e.Snapshot().Consumed > 0 })
	e.Stop()
	<-done
	assert.False(t, e.Snapshot().Running)
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*engine.Options)
	}{
		{"negative producers", func(o *engine.Options) { o.Producers = -1 }},
		{"negative consumers", func(o *engine.Options) { o.Consumers = -1 }},
		{"negative capacity", func(o *engine.Options) { o.QueueCapacity = -1 }},
		{"negative max priority", func(o *engine.Options) { o.MaxPriority = -2 }},
		{"inverted jitter", func(o *engine.Options) { o.JitterMin, o.JitterMax = time.Second, time.Millisecond }},
		{"negative run duration", func(o *engine.Options) { o.RunDuration = -time.Second }},
		{"negative shutdown timeout", func(o *engine.Options) { o.ShutdownTimeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts engine.Options
			tt.mutate(&opts)
			_, err := engine.New(opts)
			require.ErrorIs(t, err, engine.ErrInvalidOptions)
		})
	}
}

func TestOptions_FillDefaults(t *testing.T) {
	var o engine.Options
	o.FillDefaults()
	require.NoError(t, o.Validate())

	assert.Equal(t, engine.DefaultProducers, o.Producers)
	assert.Equal(t, engine.DefaultConsumers, o.Consumers)
	assert.Equal(t, engine.DefaultQueueCapacity, o.QueueCapacity)
	assert.Equal(t, engine.DefaultRunDuration, o.RunDuration)
	assert.Equal(t, engine.DefaultMaxPriority, o.MaxPriority)
	assert.Equal(t, engine.DefaultJitterMin, o.JitterMin)
	assert.Equal(t, engine.DefaultJitterMax, o.JitterMax)
	assert.NotNil(t, o.Clock)
	assert.NotNil(t, o.Sequence)
	assert.Nil(t, o.Sink, "a nil sink defers to the context logger at Run")
	assert.NotNil(t, o.Metrics)
}
