// Package metrics provides Prometheus metrics for the mentor service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	PromptTokens       *prometheus.HistogramVec
	LimitDenialsTotal  *prometheus.CounterVec
	TransitionsTotal   *prometheus.CounterVec
	UpgradesTotal      *prometheus.CounterVec
	PendingUpgrades    prometheus.Gauge
	ErrorsTotal        *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_http_requests_total",
				Help: "Total number of HTTP requests by route and status.",
			},
			[]string{"route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mentor_http_request_duration_seconds",
				Help:    "HTTP request duration by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		GenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_generations_total",
				Help: "Total generation calls by kind and result.",
			},
			[]string{"kind", "result"},
		),
		GenerationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mentor_generation_duration_seconds",
				Help:    "Generation call duration by kind.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
			},
			[]string{"kind"},
		),
		PromptTokens: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mentor_prompt_tokens",
				Help:    "Estimated prompt tokens per generation request.",
				Buckets: prometheus.ExponentialBuckets(64, 2, 8),
			},
			[]string{"kind"},
		),
		LimitDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_limit_denials_total",
				Help: "Total access-gate denials by limit kind.",
			},
			[]string{"kind"},
		),
		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_stage_transitions_total",
				Help: "Total cursor transitions by resulting action.",
			},
			[]string{"action"},
		),
		UpgradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_upgrade_requests_total",
				Help: "Total upgrade request decisions by action and plan.",
			},
			[]string{"action", "plan"},
		),
		PendingUpgrades: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mentor_upgrade_requests_pending",
				Help: "Number of upgrade requests awaiting review.",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_errors_total",
				Help: "Total errors by module and type.",
			},
			[]string{"module", "type"},
		),
		registry: reg,
	}

	reg.MustRegister(m.RequestsTotal)
	reg.MustRegister(m.RequestDuration)
	reg.MustRegister(m.GenerationsTotal)
	reg.MustRegister(m.GenerationDuration)
	reg.MustRegister(m.PromptTokens)
	reg.MustRegister(m.LimitDenialsTotal)
	reg.MustRegister(m.TransitionsTotal)
	reg.MustRegister(m.UpgradesTotal)
	reg.MustRegister(m.PendingUpgrades)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest increments the HTTP request counter.
func (m *Metrics) RecordRequest(route, status string) {
	m.RequestsTotal.WithLabelValues(route, status).Inc()
}

// ObserveDuration records HTTP request duration.
func (m *Metrics) ObserveDuration(route string, seconds float64) {
	m.RequestDuration.WithLabelValues(route).Observe(seconds)
}

// RecordGeneration records one generation call.
func (m *Metrics) RecordGeneration(kind, result string, seconds float64, promptTokens int) {
	m.GenerationsTotal.WithLabelValues(kind, result).Inc()
	m.GenerationDuration.WithLabelValues(kind).Observe(seconds)
	if promptTokens > 0 {
		m.PromptTokens.WithLabelValues(kind).Observe(float64(promptTokens))
	}
}

// RecordDenial increments the denial counter for a limit kind.
func (m *Metrics) RecordDenial(kind string) {
	m.LimitDenialsTotal.WithLabelValues(kind).Inc()
}

// RecordTransition increments the transition counter.
func (m *Metrics) RecordTransition(action string) {
	m.TransitionsTotal.WithLabelValues(action).Inc()
}

// RecordUpgrade increments the upgrade decision counter.
func (m *Metrics) RecordUpgrade(action, plan string) {
	m.UpgradesTotal.WithLabelValues(action, plan).Inc()
}

// SetPendingUpgrades sets the pending upgrade request count.
func (m *Metrics) SetPendingUpgrades(count float64) {
	m.PendingUpgrades.Set(count)
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(module, errType string) {
	m.ErrorsTotal.WithLabelValues(module, errType).Inc()
}
