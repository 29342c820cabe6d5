package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(webhookEventsTotal, webhookDuration, webhookAlertsTotal) }

var (
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook deliveries by provider event kind and reconciliation outcome.",
		},
		[]string{"kind", "outcome"},
	)
	webhookDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_processing_duration_seconds",
			Help:    "Time from receiving a delivery to answering it.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)
	webhookAlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_alerts_total",
			Help: "Deliveries that need an operator: permanent data errors and misconfiguration.",
		},
		[]string{"reason"},
	)
)

func ObserveWebhook(kind, outcome string, took time.Duration) {
	webhookEventsTotal.WithLabelValues(norm(kind), norm(outcome)).Inc()
	webhookDuration.WithLabelValues(norm(kind)).Observe(took.Seconds())
}

func IncWebhookAlert(reason string) {
	webhookAlertsTotal.WithLabelValues(norm(reason)).Inc()
}
