package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(rateLimitRejectionsTotal) }

var rateLimitRejectionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ratelimit_rejections_total",
		Help: "Requests rejected by the rate limiter, per preset.",
	},
	[]string{"preset"},
)

func IncRateLimitRejection(preset string) {
	rateLimitRejectionsTotal.WithLabelValues(norm(preset)).Inc()
}
