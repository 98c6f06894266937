package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vigilance"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// vigilance exporter. It implements meteofrance.Recorder.
type Metrics struct {
	// API client metrics.
	APIRequests    *prometheus.CounterVec   // labels: endpoint, outcome={success,auth_error,upstream_error,transport_error,circuit_open}
	APIDuration    *prometheus.HistogramVec // labels: endpoint
	TokenRefreshes *prometheus.CounterVec   // labels: outcome

	// Exporter metrics.
	Polls            *prometheus.CounterVec // labels: outcome={success,error}
	MaxColor         *prometheus.GaugeVec   // labels: domain, phenomenon
	LevelChanges     prometheus.Counter
	MessagesProduced prometheus.Counter
	ExporterRunning  prometheus.Gauge
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      help("Météo-France API requests by endpoint and outcome."),
		}, []string{"endpoint", "outcome"}),
		APIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      help("Météo-France API request duration in seconds."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		TokenRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refresh_total",
			Help:      help("Access token requests by outcome."),
		}, []string{"outcome"}),
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      help("Vigilance map polls by outcome."),
		}, []string{"outcome"}),
		MaxColor: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "max_color",
			Help:      help("Highest vigilance color (1 green to 4 red) per zone and phenomenon."),
		}, []string{"domain", "phenomenon"}),
		LevelChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "level_changes_total",
			Help:      help("Zone/phenomenon pairs whose maximum color changed between polls."),
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      help("Total messages written to the sink topic."),
		}),
		ExporterRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "exporter_running",
			Help:      help("1 when the exporter is polling, 0 when shut down."),
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.APIRequests,
		m.APIDuration,
		m.TokenRefreshes,
		m.Polls,
		m.MaxColor,
		m.LevelChanges,
		m.MessagesProduced,
		m.ExporterRunning,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already
// registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

// ObserveRequest records one API request.
func (m *Metrics) ObserveRequest(endpoint, outcome string, elapsed time.Duration) {
	m.APIRequests.WithLabelValues(endpoint, outcome).Inc()
	m.APIDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveTokenRefresh records one token exchange.
func (m *Metrics) ObserveTokenRefresh(outcome string) {
	m.TokenRefreshes.WithLabelValues(outcome).Inc()
}
