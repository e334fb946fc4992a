// Package metrics collects and exposes Prometheus metrics for the
// content studio: generation calls, poster renders, visual asset
// production, and publishes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements the workflow recorder interface on Prometheus
// counters registered against a supplied registry.
type Collector struct {
	generations *prometheus.CounterVec
	renders     prometheus.Counter
	visuals     *prometheus.CounterVec
	publishes   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lumafin_generations_total",
			Help: "Article generation calls by outcome.",
		}, []string{"outcome"}),
		renders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumafin_poster_renders_total",
			Help: "Poster template composites produced.",
		}),
		visuals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lumafin_visuals_total",
			Help: "Visual asset generations by mode and outcome.",
		}, []string{"mode", "outcome"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lumafin_publishes_total",
			Help: "Publish attempts by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.generations,
		c.renders,
		c.visuals,
		c.publishes,
	)

	return c
}

// RecordGeneration counts one article generation call.
func (c *Collector) RecordGeneration(ok bool) {
	c.generations.WithLabelValues(outcome(ok)).Inc()
}

// RecordRender counts one poster composite.
func (c *Collector) RecordRender() {
	c.renders.Inc()
}

// RecordVisual counts one visual generation for a mode.
func (c *Collector) RecordVisual(mode string, ok bool) {
	c.visuals.WithLabelValues(mode, outcome(ok)).Inc()
}

// RecordPublish counts one publish attempt.
func (c *Collector) RecordPublish(ok bool) {
	c.publishes.WithLabelValues(outcome(ok)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
