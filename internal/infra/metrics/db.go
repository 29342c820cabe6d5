package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbPoolStats, dbPoolAcquireTotal) }

var (
	dbPoolStats = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_stats",
			Help: "Current state of the database connection pool.",
		},
		[]string{"state"}, // total|idle|in_use|max
	)
	dbPoolAcquireTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_acquire_count",
			Help: "Cumulative successful connection acquires reported by the pool.",
		},
	)
)

func SetDBPoolStats(total, idle, inUse, max int32, acquires int64) {
	dbPoolStats.WithLabelValues("total").Set(float64(total))
	dbPoolStats.WithLabelValues("idle").Set(float64(idle))
	dbPoolStats.WithLabelValues("in_use").Set(float64(inUse))
	dbPoolStats.WithLabelValues("max").Set(float64(max))
	dbPoolAcquireTotal.Set(float64(acquires))
}
