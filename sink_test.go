package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Chadha-Bhavya/ProducerConsumerEngine/internal/logging"
)

func TestLogSink_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewLogSink(logging.FromZap(zap.New(core)))

	it := NewWorkItem(42, 3, t0)
	s.Emit(Event{Kind: EventPush, Worker: "producer-0", Item: it, Priority: 4, Message: "created item"})
	s.Emit(Event{Kind: EventWorkerStart, Worker: "consumer-1", Message: "consumer started"})
	s.Emit(Event{Kind: EventError, Worker: "consumer-1", Item: it, Err: errors.New("boom"), Message: "item failed"})

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)

	push := entries[0]
	assert.Equal(t, zapcore.InfoLevel, push.Level)
	assert.Equal(t, "created item", push.Message)
	ctx := push.ContextMap()
	assert.Equal(t, "push", ctx["event"])
	assert.Equal(t, "producer-0", ctx["worker"])
	assert.Equal(t, uint64(42), ctx["item"])
	assert.Equal(t, int64(3), ctx["base_priority"])
	assert.Equal(t, int64(4), ctx["effective_priority"])

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.NotContains(t, entries[1].ContextMap(), "item")

	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "boom", entries[2].ContextMap()["error"])
}

func TestLogSink_AffinityFailureStaysAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewLogSink(logging.FromZap(zap.New(core)))

	s.Emit(Event{Kind: EventAffinity, Worker: "consumer-0", Err: ErrAffinityUnsupported, Message: "cpu pinning failed"})

	require.Equal(t, 1, logs.Len())
	e := logs.All()[0]
	assert.Equal(t, zapcore.DebugLevel, e.Level)
	assert.Equal(t, ErrAffinityUnsupported.Error(), e.ContextMap()["error"])
}

func TestLogSink_WithAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewLogSink(logging.FromZap(zap.New(core))).With(zap.String("run_id", "abc"))

	s.Emit(Event{
		Kind:    EventAging,
		Message: "aged all items",
		Fields:  agingFields(AgingStats{Items: 2, MaxAge: 1500*time.Millisecond + 7, MaxEffective: 6}),
	})

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "abc", ctx["run_id"])
	assert.Equal(t, int64(2), ctx["items"])
	assert.Equal(t, 1500*time.Millisecond, ctx["max_age"])
	assert.Equal(t, int64(6), ctx["max_effective_priority"])
}

func TestLogSink_NilLoggerDiscards(t *testing.T) {
	s := NewLogSink(nil)
	s.Emit(Event{Kind: EventStartup, Message: "starting"})
}

func TestSinkFunc(t *testing.T) {
	var got []EventKind
	var s Sink = SinkFunc(func(ev Event) { got = append(got, ev.Kind) })
	s.Emit(Event{Kind: EventStartup})
	s.Emit(Event{Kind: EventShutdown})
	NopSink{}.Emit(Event{Kind: EventStartup})
	assert.Equal(t, []EventKind{EventStartup, EventShutdown}, got)
}
