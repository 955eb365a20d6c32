// Package metrics exposes Prometheus counters for backend calls, session
// events and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the subset used by the API client, the audit recorder and the
// request middleware.
type Recorder interface {
	ObserveBackendCall(method string, endpoint string, kind string, duration time.Duration)
	RecordSessionEvent(eventType string)
	ObserveRequest(route string, status int, duration time.Duration)
}

type Collector struct {
	backendCalls    *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	sessionEvents   *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "giantylive_web_backend_calls_total",
			Help: "Backend API calls by method, endpoint and outcome kind.",
		}, []string{"method", "endpoint", "kind"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "giantylive_web_backend_call_seconds",
			Help:    "Backend API call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "giantylive_web_session_events_total",
			Help: "Session lifecycle events by type.",
		}, []string{"type"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "giantylive_web_http_requests_total",
			Help: "Served HTTP requests by route pattern and status.",
		}, []string{"route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "giantylive_web_http_request_seconds",
			Help:    "Served HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.backendCalls,
		c.backendLatency,
		c.sessionEvents,
		c.requests,
		c.requestDuration,
	)

	return c
}

// ObserveBackendCall counts one call. kind is "ok" or an error kind name.
func (c *Collector) ObserveBackendCall(method string, endpoint string, kind string, duration time.Duration) {
	c.backendCalls.WithLabelValues(method, endpoint, kind).Inc()
	c.backendLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func (c *Collector) RecordSessionEvent(eventType string) {
	c.sessionEvents.WithLabelValues(eventType).Inc()
}

func (c *Collector) ObserveRequest(route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards every observation.
type Nop struct{}

func (Nop) ObserveBackendCall(string, string, string, time.Duration) {}
func (Nop) RecordSessionEvent(string)                                {}
func (Nop) ObserveRequest(string, int, time.Duration)                {}
