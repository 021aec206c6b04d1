package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the marketplace Prometheus collectors on a private registry.
type Metrics struct {
	Registry             *prometheus.Registry
	HTTPRequests         *prometheus.CounterVec
	HTTPLatency          *prometheus.HistogramVec
	ViewsCounted         *prometheus.CounterVec
	ViewsSuppressed      *prometheus.CounterVec
	ViewErrors           prometheus.Counter
	ConversationsCreated prometheus.Counter
	MessagesPosted       prometheus.Counter
	NotificationsSent    prometheus.Counter
}

func New(namespace string) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ViewsCounted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_views_counted_total",
			Help:      "Listing views that incremented the counter, by actor kind.",
		}, []string{"actor"}),
		ViewsSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_views_suppressed_total",
			Help:      "Listing views not counted, by reason.",
		}, []string{"reason"}),
		ViewErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_view_errors_total",
			Help:      "Failures while recording a listing view.",
		}),
		ConversationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversations_created_total",
			Help:      "Conversations created.",
		}),
		MessagesPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_posted_total",
			Help:      "Messages appended to conversations.",
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Notifications persisted for users.",
		}),
	}
	m.Registry.MustRegister(
		m.HTTPRequests,
		m.HTTPLatency,
		m.ViewsCounted,
		m.ViewsSuppressed,
		m.ViewErrors,
		m.ConversationsCreated,
		m.MessagesPosted,
		m.NotificationsSent,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
