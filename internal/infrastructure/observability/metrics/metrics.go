package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dreschagin/guild-insights/internal/application/session"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles prometheus collectors used by the service.
// Реализует session.Observer и usecase.SinkObserver.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDurationSec *prometheus.HistogramVec
	SessionsInFlight   prometheus.Gauge
	SessionsTotal      *prometheus.CounterVec
	SessionDurationSec *prometheus.HistogramVec
	SessionQueueSec    prometheus.Histogram
	SinkFailures       *prometheus.CounterVec
	RateLimitDropped   prometheus.Counter
}

func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guild_insights_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		RequestDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guild_insights_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		SessionsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "guild_insights_gateway_sessions_in_flight",
			Help: "Number of gateway sessions currently waiting for readiness.",
		}),
		SessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guild_insights_gateway_sessions_total",
			Help: "Total number of gateway sessions by outcome.",
		}, []string{"outcome"}),
		SessionDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guild_insights_gateway_session_duration_seconds",
			Help:    "Time from dial to session resolution.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 15, 20},
		}, []string{"outcome"}),
		SessionQueueSec: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "guild_insights_gateway_session_queue_seconds",
			Help:    "Time spent waiting for a free session slot.",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15},
		}),
		SinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guild_insights_report_sink_failures_total",
			Help: "Total number of failed report publications by sink.",
		}, []string{"sink"}),
		RateLimitDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guild_insights_ratelimit_dropped_total",
			Help: "Total number of requests dropped by rate limiter.",
		}),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDurationSec,
		m.SessionsInFlight,
		m.SessionsTotal,
		m.SessionDurationSec,
		m.SessionQueueSec,
		m.SinkFailures,
		m.RateLimitDropped,
	)

	return m
}

func (m *Metrics) QueueWait(d time.Duration) {
	m.SessionQueueSec.Observe(d.Seconds())
}

func (m *Metrics) SessionStarted() {
	m.SessionsInFlight.Inc()
}

func (m *Metrics) SessionFinished(outcome session.Outcome, elapsed time.Duration) {
	m.SessionsInFlight.Dec()
	m.SessionsTotal.WithLabelValues(string(outcome)).Inc()
	m.SessionDurationSec.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
}

// SinkFailed учитывает неудачную публикацию отчета
func (m *Metrics) SinkFailed(sink string) {
	m.SinkFailures.WithLabelValues(sink).Inc()
}

// RateLimited учитывает запрос, отклоненный rate limiter'ом
func (m *Metrics) RateLimited() {
	m.RateLimitDropped.Inc()
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.statusCode)
		route := normalizeRoute(r.URL.Path)
		m.RequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		m.RequestDurationSec.WithLabelValues(route, r.Method, status).Observe(time.Since(startedAt).Seconds())
	})
}

// normalizeRoute убирает идентификаторы гильдий из пути, чтобы не раздувать кардинальность
func normalizeRoute(path string) string {
	switch {
	case path == "/ws", path == "/healthz", path == "/readyz", path == "/metrics":
		return path
	case path == "/api/v1/guilds/analyze":
		return path
	case path == "/api/v1/commands":
		return path
	case strings.HasPrefix(path, "/api/v1/guilds/") && strings.HasSuffix(path, "/report/latest"):
		return "/api/v1/guilds/{id}/report/latest"
	case strings.HasPrefix(path, "/api/v1/guilds/") && strings.HasSuffix(path, "/history"):
		return "/api/v1/guilds/{id}/history"
	case strings.HasPrefix(path, "/api/"):
		return "/api/*"
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Hijack passes websocket upgrades through wrapped ResponseWriter.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

// Flush keeps streaming behavior for handlers that require it.
func (rw *statusRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
