// Package metrics exports catalog activity as Prometheus metrics.
package metrics

import (
	"context"
	"fmt"

	"github.com/alexanderramin/handbook/internal/catalog"
	"github.com/alexanderramin/handbook/internal/domain"
	"github.com/alexanderramin/handbook/internal/events"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "handbook"

// Collector records store operations and catalog sizes. It implements
// catalog.Observer, and HandleEvent can be subscribed to an events.Bus.
type Collector struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	entities   *prometheus.GaugeVec
	events     *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Catalog operations by name and result.",
		}, []string{"operation", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of catalog operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"operation"}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_entities",
			Help:      "Entities in the current catalog by kind.",
		}, []string{"kind"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Catalog events received by topic.",
		}, []string{"topic"}),
	}

	for _, m := range []prometheus.Collector{c.operations, c.durations, c.entities, c.events} {
		if err := reg.Register(m); err != nil {
			return nil, fmt.Errorf("registering metric: %w", err)
		}
	}
	return c, nil
}

// ObserveOperation counts the operation under its error kind, or "ok".
func (c *Collector) ObserveOperation(_ context.Context, ev catalog.OperationEvent) {
	result := "ok"
	if ev.Err != nil {
		result = domain.Kind(ev.Err)
	}
	c.operations.WithLabelValues(ev.Name, result).Inc()
	c.durations.WithLabelValues(ev.Name).Observe(ev.Duration.Seconds())
}

// HandleEvent refreshes the entity gauges from the event's catalog.
func (c *Collector) HandleEvent(ev events.Event) {
	st := ev.Catalog.Stats()
	c.entities.WithLabelValues("departments").Set(float64(st.Departments))
	c.entities.WithLabelValues("categories").Set(float64(st.Categories))
	c.entities.WithLabelValues("processes").Set(float64(st.Processes))
	c.events.WithLabelValues(string(ev.Topic)).Inc()
}

var _ catalog.Observer = (*Collector)(nil)
