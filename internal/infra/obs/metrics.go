package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a dedicated registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	messages      *prometheus.CounterVec
	messageTime   *prometheus.HistogramVec
	conflicts     *prometheus.CounterVec
	outbox        *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "motelbook", Name: "http_requests_total", Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "motelbook", Name: "http_request_duration_seconds", Help: "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "motelbook", Name: "bus_messages_total", Help: "Commands and queries dispatched by outcome.",
		}, []string{"kind", "key", "outcome"}),
		messageTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "motelbook", Name: "bus_message_duration_seconds", Help: "Command and query handling latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind", "key"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "motelbook", Name: "availability_conflicts_total", Help: "Booking writes refused for overlapping dates.",
		}, []string{"unit_kind"}),
		outbox: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "motelbook", Name: "outbox_events_total", Help: "Outbox relay attempts by outcome.",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "motelbook", Name: "notifications_total", Help: "Admin push deliveries by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.messages, m.messageTime,
		m.conflicts, m.outbox, m.notifications,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveMessage(kind, key, outcome string, elapsed time.Duration) {
	m.messages.WithLabelValues(kind, key, outcome).Inc()
	m.messageTime.WithLabelValues(kind, key).Observe(elapsed.Seconds())
}

func (m *Metrics) AvailabilityConflict(kind string) {
	m.conflicts.WithLabelValues(kind).Inc()
}

func (m *Metrics) OutboxRelayed(outcome string) {
	m.outbox.WithLabelValues(outcome).Inc()
}

func (m *Metrics) NotificationDelivered(outcome string) {
	m.notifications.WithLabelValues(outcome).Inc()
}
