// Package metrics expõe as métricas do rate limiter no formato Prometheus.
package metrics

import (
	"net/http"

	"portfolio-rate-limiter/internal/limiter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implementa limiter.Metrics com um registry próprio
type Prometheus struct {
	registry       *prometheus.Registry
	decisionsTotal *prometheus.CounterVec
	storeErrors    *prometheus.CounterVec
	sweepRemoved   prometheus.Counter
	activeKeys     prometheus.Gauge
}

var _ limiter.Metrics = (*Prometheus)(nil)

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()

	m := &Prometheus{
		registry: registry,
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ratelimit",
			Name:      "decisions_total",
			Help:      "Rate limit decisions by purpose and result.",
		}, []string{"purpose", "result"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ratelimit",
			Name:      "store_errors_total",
			Help:      "Rate limit store failures by purpose.",
		}, []string{"purpose"}),
		sweepRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ratelimit",
			Name:      "sweep_removed_total",
			Help:      "Expired rate limit entries removed by the sweeper.",
		}),
		activeKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ratelimit",
			Name:      "active_keys",
			Help:      "Keys held by the in-memory store after the last sweep.",
		}),
	}

	registry.MustRegister(
		m.decisionsTotal,
		m.storeErrors,
		m.sweepRemoved,
		m.activeKeys,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Prometheus) RecordDecision(purpose string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	m.decisionsTotal.WithLabelValues(purpose, result).Inc()
}

func (m *Prometheus) RecordStoreError(purpose string) {
	m.storeErrors.WithLabelValues(purpose).Inc()
}

func (m *Prometheus) RecordSweep(removed, active int) {
	m.sweepRemoved.Add(float64(removed))
	m.activeKeys.Set(float64(active))
}

func (m *Prometheus) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
