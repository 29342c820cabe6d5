package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(paymentsTotal, checkoutSessionsTotal, creditsGrantedTotal) }

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment attempt transitions by resulting status and purpose.",
		},
		[]string{"status", "purpose"},
	)
	checkoutSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Checkout session requests by purpose and result (created|reused|error).",
		},
		[]string{"purpose", "result"},
	)
	creditsGrantedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_granted_total",
			Help: "Credits added to balances by credit type.",
		},
		[]string{"type"},
	)
)

func IncPayment(status, purpose string) {
	paymentsTotal.WithLabelValues(norm(status), norm(purpose)).Inc()
}

func IncCheckoutSession(purpose, result string) {
	checkoutSessionsTotal.WithLabelValues(norm(purpose), norm(result)).Inc()
}

func AddCreditsGranted(creditType string, n int64) {
	if n <= 0 {
		return
	}
	creditsGrantedTotal.WithLabelValues(norm(creditType)).Add(float64(n))
}
