// Package metrics counts dispatched events with Prometheus.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/shaharia-lab/eventemitter/internal/eventbus"
)

// Collector holds the per-type event counter.
type Collector struct {
	events *prometheus.CounterVec
}

// NewCollector registers the event counter on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventemitter",
		Name:      "events_total",
		Help:      "Number of events that reached the wildcard stage, by type.",
	}, []string{"type"})

	if err := reg.Register(events); err != nil {
		return nil, fmt.Errorf("registering events counter: %w", err)
	}
	return &Collector{events: events}, nil
}

// Tap returns a handler that counts every event it receives.
// Register it under eventbus.Wildcard.
func Tap[P any](c *Collector) *eventbus.Handler[P] {
	return eventbus.WildcardFunc(func(t eventbus.EventType, _ P) error {
		c.events.WithLabelValues(string(t)).Inc()
		return nil
	})
}

// Count returns the number of events counted for t.
func (c *Collector) Count(t eventbus.EventType) float64 {
	var m dto.Metric
	if err := c.events.WithLabelValues(string(t)).Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
