package sched

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"estate-crm/internal/infra/metrics"
)

// PoolStatter is satisfied by *pgxpool.Pool.
type PoolStatter interface {
	Stat() *pgxpool.Stat
}

// PoolStatsWorker periodically publishes connection pool gauges.
type PoolStatsWorker struct {
	interval time.Duration
	pool     PoolStatter
	log      *zerolog.Logger
}

func NewPoolStatsWorker(interval time.Duration, pool PoolStatter, logger *zerolog.Logger) *PoolStatsWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	l := logger.With().Str("component", "PoolStatsWorker").Logger()
	return &PoolStatsWorker{interval: interval, pool: pool, log: &l}
}

func (w *PoolStatsWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting pool stats worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sample()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping pool stats worker")
			return ctx.Err()
		case <-ticker.C:
			w.sample()
		}
	}
}

func (w *PoolStatsWorker) sample() {
	st := w.pool.Stat()
	if st == nil {
		return
	}
	metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns(), st.MaxConns(), st.AcquireCount())
}
