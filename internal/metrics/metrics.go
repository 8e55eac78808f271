// Package metrics exposes scheduler instrumentation for Prometheus.
//
// Collectors are registry-scoped rather than package globals so that
// multiple scheduler instances can coexist in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg *prometheus.Registry

	Firings      prometheus.Counter
	SaveFailures prometheus.Counter
	Tasks        prometheus.Gauge
	TickSeconds  prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		Firings: f.NewCounter(prometheus.CounterOpts{
			Name: "humancron_firings_total",
			Help: "Total number of task firings",
		}),
		SaveFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "humancron_save_failures_total",
			Help: "Total number of failed persistence saves",
		}),
		Tasks: f.NewGauge(prometheus.GaugeOpts{
			Name: "humancron_tasks",
			Help: "Number of tasks currently in the store",
		}),
		TickSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "humancron_tick_seconds",
			Help:    "Scheduler tick duration in seconds, including the save",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
