package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	TransitionsTotal     *prometheus.CounterVec
	PublishFailures      prometheus.Counter
	RendersTotal         prometheus.Counter
	RenderFailures       *prometheus.CounterVec
	RenderDuration       prometheus.Histogram
	NotificationAttempts prometheus.Counter
	NotificationFailures prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "suratdesa_transitions_total",
			Help: "Successful workflow transitions by stage and decision",
		}, []string{"stage", "decision"}),
		PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "suratdesa_event_publish_failures_total",
			Help: "Transition events that could not be handed to the broker",
		}),
		RendersTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "suratdesa_renders_total",
			Help: "Completed document renders",
		}),
		RenderFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "suratdesa_render_failures_total",
			Help: "Failed document renders by failure kind",
		}, []string{"kind"}),
		RenderDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "suratdesa_render_duration_seconds",
			Help:    "Wall-clock duration of document renders",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
		}),
		NotificationAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "suratdesa_notification_attempts_total",
			Help: "Notification delivery attempts",
		}),
		NotificationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "suratdesa_notification_failures_total",
			Help: "Notification delivery attempts that failed",
		}),
	}
}

func (m *Metrics) ObserveTransition(stage, decision string) {
	m.TransitionsTotal.WithLabelValues(stage, decision).Inc()
}

func (m *Metrics) IncPublishFailures() {
	m.PublishFailures.Inc()
}

func (m *Metrics) ObserveRender(d time.Duration) {
	m.RendersTotal.Inc()
	m.RenderDuration.Observe(d.Seconds())
}

func (m *Metrics) IncRenderFailure(kind string) {
	m.RenderFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncNotificationAttempt() {
	m.NotificationAttempts.Inc()
}

func (m *Metrics) IncNotificationFailure() {
	m.NotificationFailures.Inc()
}
