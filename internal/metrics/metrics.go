// Package metrics exposes analysis counters and gauges through Prometheus.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/staleness/internal/staleness"
	"github.com/roach88/staleness/internal/trace"
)

const namespace = "staleness"

// Collector records analysis activity. It implements staleness.Observer,
// and ObserveEvent plugs into trace.WithObserver.
type Collector struct {
	events      *prometheus.CounterVec
	emitted     *prometheus.CounterVec
	synthesized *prometheus.CounterVec
	flushes     prometheus.Counter
	revivals    prometheus.Counter

	live     prometheus.Gauge
	pending  prometheus.Gauge
	domNodes prometheus.Gauge
}

var _ staleness.Observer = (*Collector)(nil)

// New registers the analysis metrics on reg.
func New(reg prometheus.Registerer) *Collector {
	return &Collector{
		events: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "trace events dispatched, by op",
		}, []string{"op"}),
		emitted: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_emitted_total",
			Help:      "staleness records emitted, by object type",
		}, []string{"type"}),
		synthesized: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_synthesized_total",
			Help:      "placeholder allocation records created for unseen objects, by reason",
		}, []string{"reason"}),
		flushes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushes_total",
			Help:      "flush signals processed",
		}),
		revivals: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revivals_total",
			Help:      "pending-unreachable objects made live again",
		}),

		live: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_objects",
			Help:      "live objects at the last flush",
		}),
		pending: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_unreachable_objects",
			Help:      "objects awaiting a flush at the last flush",
		}),
		domNodes: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dom_graph_nodes",
			Help:      "DOM graph members at the last flush",
		}),
	}
}

// ObserveEvent counts one dispatched trace event.
func (c *Collector) ObserveEvent(op trace.Op) {
	c.events.WithLabelValues(string(op)).Inc()
}

// Synthesized counts one placeholder record, labeled by reason.
func (c *Collector) Synthesized(reason staleness.SynthesisReason) {
	c.synthesized.WithLabelValues(string(reason)).Inc()
}

// Revived counts one object pulled back from the pending set.
func (c *Collector) Revived() {
	c.revivals.Inc()
}

// Emitted counts one written record, labeled by object type.
func (c *Collector) Emitted(t staleness.ObjectType) {
	c.emitted.WithLabelValues(t.String()).Inc()
}

// Flushed counts one flush and records the table sizes it saw.
func (c *Collector) Flushed(_ int, sizes staleness.Sizes) {
	c.flushes.Inc()
	c.live.Set(float64(sizes.Live))
	c.pending.Set(float64(sizes.Pending))
	c.domNodes.Set(float64(sizes.DOMNodes))
}

// WriteTextfile writes every metric gathered by g to path in the text
// exposition format, for the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
