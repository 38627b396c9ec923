package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// advisory portal.
type Metrics struct {
	AdvisoriesComposed prometheus.Counter
	RulesTriggered     prometheus.Histogram

	// Text generation metrics.
	TextGenRequests *prometheus.CounterVec // labels: outcome={success,fallback}
	TextGenDuration prometheus.Histogram
	TextGenEnabled  prometheus.Gauge

	// Weather snapshot cache metrics.
	WeatherCacheLookups *prometheus.CounterVec // labels: result={hit,miss}

	// Alert metrics.
	AlertsGenerated  *prometheus.CounterVec // labels: type
	AlertsDispatched *prometheus.CounterVec // labels: outcome={sent,failed,cancelled,retried}
	DispatchDuration prometheus.Histogram
}

// NewMetrics creates and registers all portal metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		AdvisoriesComposed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agriadapt",
			Name:      "advisories_composed_total",
			Help:      "Total advisories computed and persisted.",
		}),
		RulesTriggered: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agriadapt",
			Name:      "rules_triggered",
			Help:      "Number of rules triggered per advisory.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 12},
		}),
		TextGenRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agriadapt",
			Name:      "textgen_requests_total",
			Help:      "Advisory text generation attempts by outcome.",
		}, []string{"outcome"}),
		TextGenDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agriadapt",
			Name:      "textgen_duration_seconds",
			Help:      "Text generation request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		TextGenEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "agriadapt",
			Name:      "textgen_enabled",
			Help:      "1 when an advisory text generator is configured, 0 otherwise.",
		}),
		WeatherCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agriadapt",
			Name:      "weather_cache_lookups_total",
			Help:      "Weather snapshot cache lookups by result.",
		}, []string{"result"}),
		AlertsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agriadapt",
			Name:      "alerts_generated_total",
			Help:      "Alerts queued for delivery by alert type.",
		}, []string{"type"}),
		AlertsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agriadapt",
			Name:      "alerts_dispatched_total",
			Help:      "Alert delivery attempts by outcome.",
		}, []string{"outcome"}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agriadapt",
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of a complete dispatcher pass.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}

	prometheus.MustRegister(
		m.AdvisoriesComposed,
		m.RulesTriggered,
		m.TextGenRequests,
		m.TextGenDuration,
		m.TextGenEnabled,
		m.WeatherCacheLookups,
		m.AlertsGenerated,
		m.AlertsDispatched,
		m.DispatchDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		AdvisoriesComposed:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "agriadapt", Name: "advisories_composed_total"}),
		RulesTriggered:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "agriadapt", Name: "rules_triggered"}),
		TextGenRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "agriadapt", Name: "textgen_requests_total"}, []string{"outcome"}),
		TextGenDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "agriadapt", Name: "textgen_duration_seconds"}),
		TextGenEnabled:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "agriadapt", Name: "textgen_enabled"}),
		WeatherCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "agriadapt", Name: "weather_cache_lookups_total"}, []string{"result"}),
		AlertsGenerated:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "agriadapt", Name: "alerts_generated_total"}, []string{"type"}),
		AlertsDispatched:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "agriadapt", Name: "alerts_dispatched_total"}, []string{"outcome"}),
		DispatchDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "agriadapt", Name: "dispatch_duration_seconds"}),
	}
}
