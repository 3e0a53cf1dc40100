package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PromMetrics is a MetricsPolicy that exports Prometheus series.
type PromMetrics struct {
	produced    prometheus.Counter
	abandoned   prometheus.Counter
	consumed    prometheus.Counter
	blocked     prometheus.Counter
	agingPasses prometheus.Counter
	depth       prometheus.Gauge
}

// NewPromMetrics registers the engine series with reg.
func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	f := promauto.With(reg)
	return &PromMetrics{
		produced: f.NewCounter(prometheus.CounterOpts{
			Namespace: "pcengine",
			Subsystem: "queue",
			Name:      "items_produced_total",
			Help:      "Total items accepted by the queue.",
		}),
		abandoned: f.NewCounter(prometheus.CounterOpts{
			Namespace: "pcengine",
			Subsystem: "queue",
			Name:      "items_abandoned_total",
			Help:      "Total items refused because the queue was woken for shutdown.",
		}),
		consumed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "pcengine",
			Subsystem: "queue",
			Name:      "items_consumed_total",
			Help:      "Total items processed by consumers.",
		}),
		blocked: f.NewCounter(prometheus.CounterOpts{
			Namespace: "pcengine",
			Subsystem: "queue",
			Name:      "blocked_pushes_total",
			Help:      "Total pushes that waited for free capacity.",
		}),
		agingPasses: f.NewCounter(prometheus.CounterOpts{
			Namespace: "pcengine",
			Subsystem: "aging",
			Name:      "passes_total",
			Help:      "Total re-pricing passes run by the aging monitor.",
		}),
		depth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "pcengine",
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Current number of items held by the queue.",
		}),
	}
}

func (m *PromMetrics) IncProduced()    { m.produced.Inc() }
func (m *PromMetrics) IncAbandoned()   { m.abandoned.Inc() }
func (m *PromMetrics) IncConsumed()    { m.consumed.Inc() }
func (m *PromMetrics) IncBlockedPush() { m.blocked.Inc() }
func (m *PromMetrics) IncAgingPass()   { m.agingPasses.Inc() }
func (m *PromMetrics) SetQueued(n int) { m.depth.Set(float64(n)) }
