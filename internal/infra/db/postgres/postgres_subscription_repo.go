package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"estate-crm/internal/domain/model"
	"estate-crm/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, user_id, plan, status, current_period_start, current_period_end, provider_customer_id, created_at, updated_at`

func (r *subscriptionRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	return r.findOne(ctx, tx, `WHERE user_id=$1`, userID)
}

func (r *subscriptionRepo) FindByCustomerID(ctx context.Context, tx repository.Tx, customerID string) (*model.Subscription, error) {
	return r.findOne(ctx, tx, `WHERE provider_customer_id=$1`, customerID)
}

func (r *subscriptionRepo) findOne(ctx context.Context, tx repository.Tx, where string, args ...interface{}) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions ` + where
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	s, err := scanSubscription(row)
	if err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

func (r *subscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (` + subscriptionColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (user_id) DO UPDATE SET
  plan=EXCLUDED.plan,
  status=EXCLUDED.status,
  current_period_start=EXCLUDED.current_period_start,
  current_period_end=EXCLUDED.current_period_end,
  provider_customer_id=COALESCE(EXCLUDED.provider_customer_id, subscriptions.provider_customer_id),
  updated_at=EXCLUDED.updated_at;`
	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.UserID, s.Plan, s.Status, s.CurrentPeriodStart, s.CurrentPeriodEnd,
		s.ProviderCustomerID, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *subscriptionRepo) Downgrade(ctx context.Context, tx repository.Tx, userID string) (bool, error) {
	const q = `
UPDATE subscriptions SET plan='FREE', status='CANCELED', updated_at=NOW()
WHERE user_id=$1 AND NOT (plan='FREE' AND status='CANCELED');`
	tag, err := execSQL(ctx, r.pool, tx, q, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() >= 1, nil
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	if err := row.Scan(&s.ID, &s.UserID, &s.Plan, &s.Status, &s.CurrentPeriodStart, &s.CurrentPeriodEnd,
		&s.ProviderCustomerID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
