package engine

import (
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
	"go.uber.org/zap"
)

// EventKind names what an Event reports. Packages built on the engine
// may define their own kinds.
type EventKind string

const (
	EventStartup     EventKind = "startup"
	EventShutdown    EventKind = "shutdown"
	EventWorkerStart EventKind = "worker_start"
	EventWorkerStop  EventKind = "worker_stop"
	EventPush        EventKind = "push"
	EventPop         EventKind = "pop"
	EventProcessed   EventKind = "processed"
	EventAging       EventKind = "aging"
	EventAffinity    EventKind = "affinity"
	EventError       EventKind = "error"
)

// Event is one observable occurrence. Only Kind and Message are always set.
type Event struct {
	Kind    EventKind
	Message string

	// Worker names the emitting loop, e.g. "consumer-2".
	Worker string

	// Item is the item the event concerns, if any.
	Item *WorkItem

	// Priority is the effective priority of Item when the event was built.
	Priority int

	Err    error
	Fields []zap.Field
}

// Sink receives events. Emit is called concurrently from every loop;
// implementations must write each event atomically.
type Sink interface {
	Emit(ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

// NopSink drops every event.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// LogSink writes each event as one structured log entry. The zap core
// behind the logger serializes writes, so concurrent loops never
// interleave lines.
type LogSink struct {
	logger lg.ZLogger
}

// NewLogSink returns a sink logging to l. A nil l discards everything.
func NewLogSink(l lg.ZLogger) *LogSink {
	if l == nil {
		l = lg.Discard
	}
	return &LogSink{logger: l}
}

// With returns a sink whose entries all carry fields.
func (s *LogSink) With(fields ...lg.Field) *LogSink {
	return &LogSink{logger: s.logger.With(fields...)}
}

// Emit logs worker lifecycle and affinity events at debug, failures at
// warn and everything else at info. A failed pinning stays at debug: it
// never changes what the engine does.
func (s *LogSink) Emit(ev Event) {
	fields := make([]lg.Field, 0, 6+len(ev.Fields))
	fields = append(fields, lg.String("event", string(ev.Kind)))
	if ev.Worker != "" {
		fields = append(fields, lg.String("worker", ev.Worker))
	}
	if ev.Item != nil {
		fields = append(fields,
			zap.Uint64("item", ev.Item.ID()),
			lg.Int("base_priority", ev.Item.BasePriority()),
			lg.Int("effective_priority", ev.Priority),
		)
	}
	fields = append(fields, ev.Fields...)
	if ev.Err != nil {
		fields = append(fields, lg.Error("error", ev.Err))
	}

	switch {
	case ev.Kind == EventWorkerStart || ev.Kind == EventWorkerStop || ev.Kind == EventAffinity:
		s.logger.Debug(ev.Message, fields...)
	case ev.Err != nil:
		s.logger.Warn(ev.Message, fields...)
	default:
		s.logger.Info(ev.Message, fields...)
	}
}

func agingFields(st AgingStats) []zap.Field {
	return []zap.Field{
		zap.Int("items", st.Items),
		zap.Duration("max_age", st.MaxAge.Truncate(time.Millisecond)),
		zap.Int("max_effective_priority", st.MaxEffective),
	}
}
