// Package metrics holds the Prometheus collectors for calendar refreshes
// and source fetches. All methods are safe on a nil *Metrics, which
// records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hijrical/internal/model"
)

// Refresh results.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

// Fetch outcomes.
const (
	FetchFresh         = "fresh"
	FetchNotModified   = "not_modified"
	FetchCacheFallback = "cache_fallback"
	FetchError         = "error"
)

// Metrics holds the service's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	refreshTotal    *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	lastRefresh     prometheus.Gauge
	fetchTotal      *prometheus.CounterVec
	months          *prometheus.GaugeVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		refreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hijrical_refresh_total",
				Help: "Calendar refreshes by result",
			},
			[]string{"result"},
		),
		refreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hijrical_refresh_duration_seconds",
				Help:    "Duration of calendar refreshes that ran",
				Buckets: prometheus.DefBuckets,
			},
		),
		lastRefresh: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hijrical_last_refresh_timestamp_seconds",
				Help: "Unix time of the last successful refresh",
			},
		),
		fetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hijrical_fetch_total",
				Help: "Source fetches by host and outcome",
			},
			[]string{"host", "outcome"},
		),
		months: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hijrical_calendar_months",
				Help: "Months in the resolved calendar by source",
			},
			[]string{"source"},
		),
	}
	m.registry.MustRegister(m.refreshTotal, m.refreshDuration, m.lastRefresh, m.fetchTotal, m.months)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRefresh records a refresh that ran.
func (m *Metrics) ObserveRefresh(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(result).Inc()
	if result != ResultSkipped {
		m.refreshDuration.Observe(took.Seconds())
	}
	if result == ResultSuccess {
		m.lastRefresh.SetToCurrentTime()
	}
}

// ObserveFetch counts one fetch.
func (m *Metrics) ObserveFetch(host, outcome string) {
	if m == nil {
		return
	}
	m.fetchTotal.WithLabelValues(host, outcome).Inc()
}

// SetCalendar records how many resolved months come from each source.
func (m *Metrics) SetCalendar(defs []model.MonthDefinition) {
	if m == nil {
		return
	}
	counts := map[model.Source]int{
		model.SourceCalculated:   0,
		model.SourceMoonsighting: 0,
		model.SourceManual:       0,
		model.SourceAuthority:    0,
	}
	for _, d := range defs {
		counts[d.Source]++
	}
	for src, n := range counts {
		m.months.WithLabelValues(string(src)).Set(float64(n))
	}
}
