package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the match simulator.
type Metrics struct {
	registry             *prometheus.Registry
	requestsTotal        prometheus.Counter
	errorsTotal          prometheus.Counter
	sessionsStartedTotal prometheus.Counter
	framesEmittedTotal   *prometheus.CounterVec
	tickFailuresTotal    prometheus.Counter
	interpolationGaps    prometheus.Counter
	activeSessions       prometheus.Gauge
}

// New creates and registers Prometheus metrics for the simulator.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	sessionsStartedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_sessions_started_total",
		Help: "Total number of playback sessions whose timeline was built",
	})
	framesEmittedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_frames_emitted_total",
		Help: "Total number of render payloads emitted, by frame kind",
	}, []string{"kind"})
	tickFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_tick_failures_total",
		Help: "Total number of ticks whose payload assembly failed",
	})
	interpolationGaps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_interpolation_gaps_total",
		Help: "Total number of real frame pairs that produced no synthetic frames",
	})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_active_sessions",
		Help: "Number of playback sessions that have not reached the end of their timeline",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		sessionsStartedTotal,
		framesEmittedTotal,
		tickFailuresTotal,
		interpolationGaps,
		activeSessions,
	)

	return &Metrics{
		registry:             registry,
		requestsTotal:        requestsTotal,
		errorsTotal:          errorsTotal,
		sessionsStartedTotal: sessionsStartedTotal,
		framesEmittedTotal:   framesEmittedTotal,
		tickFailuresTotal:    tickFailuresTotal,
		interpolationGaps:    interpolationGaps,
		activeSessions:       activeSessions,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncSessionsStarted increments the started sessions counter.
func (m *Metrics) IncSessionsStarted() {
	m.sessionsStartedTotal.Inc()
}

// IncFramesEmitted counts one emitted payload. real selects the "real" or
// "synthetic" label.
func (m *Metrics) IncFramesEmitted(real bool) {
	kind := "synthetic"
	if real {
		kind = "real"
	}
	m.framesEmittedTotal.WithLabelValues(kind).Inc()
}

// IncTickFailures increments the failed tick counter.
func (m *Metrics) IncTickFailures() {
	m.tickFailuresTotal.Inc()
}

// AddInterpolationGaps adds n to the interpolation gap counter.
func (m *Metrics) AddInterpolationGaps(n int) {
	if n > 0 {
		m.interpolationGaps.Add(float64(n))
	}
}

// SetActiveSessions sets the active sessions gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. active sessions).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
