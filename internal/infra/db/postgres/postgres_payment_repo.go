package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"estate-crm/internal/domain/model"
	"estate-crm/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, provider_session_id, provider_payment_intent_id, amount, currency, status, purpose, plan, created_at, updated_at, completed_at`

func (r *paymentRepo) Create(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (` + paymentColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''),$10,$11,$12);`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.ProviderSessionID, p.ProviderPaymentIntentID, p.Amount, p.Currency,
		p.Status, p.Purpose, string(p.Plan), p.CreatedAt, p.UpdatedAt, p.CompletedAt)
	return err
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	return r.findOne(ctx, tx, `WHERE id=$1`, id)
}

func (r *paymentRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Payment, error) {
	return r.findOne(ctx, tx,
		`WHERE provider_session_id=$1 OR provider_payment_intent_id=$2 ORDER BY created_at DESC LIMIT 1`,
		sessionID, model.LegacyPendingIntentPrefix+sessionID)
}

func (r *paymentRepo) FindByPaymentIntentID(ctx context.Context, tx repository.Tx, paymentIntentID string) (*model.Payment, error) {
	return r.findOne(ctx, tx, `WHERE provider_payment_intent_id=$1`, paymentIntentID)
}

func (r *paymentRepo) FindRecentPending(ctx context.Context, tx repository.Tx, userID string, purpose model.PaymentPurpose, plan model.Plan, since time.Time) (*model.Payment, error) {
	return r.findOne(ctx, tx,
		`WHERE user_id=$1 AND purpose=$2 AND COALESCE(plan,'')=$3 AND status='PENDING' AND created_at >= $4 ORDER BY created_at DESC LIMIT 1`,
		userID, purpose, string(plan), since)
}

func (r *paymentRepo) findOne(ctx context.Context, tx repository.Tx, where string, args ...interface{}) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments ` + where
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	p, err := scanPayment(row)
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *paymentRepo) ExistsCompleted(ctx context.Context, tx repository.Tx, keys model.NaturalKeys) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM payments
  WHERE status='COMPLETED'
    AND ((NULLIF($1,'') IS NOT NULL AND provider_session_id=$1)
      OR (NULLIF($2,'') IS NOT NULL AND provider_payment_intent_id=$2))
);`
	row, err := pickRow(ctx, r.pool, tx, q, keys.SessionID, keys.PaymentIntentID)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, mapError(err)
	}
	return ok, nil
}

func (r *paymentRepo) MarkCompleted(ctx context.Context, tx repository.Tx, id, paymentIntentID string, at time.Time) (bool, error) {
	const q = `
UPDATE payments
SET status='COMPLETED', provider_payment_intent_id=COALESCE(NULLIF($2,''), provider_payment_intent_id),
    completed_at=$3, updated_at=$3
WHERE id=$1 AND status = ANY($4);`
	tag, err := execSQL(ctx, r.pool, tx, q, id, paymentIntentID, at, statusStrings(model.CompletableStatuses))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() >= 1, nil
}

func (r *paymentRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string, paymentIntentID *string) (bool, error) {
	const q = `
UPDATE payments
SET status='FAILED', provider_payment_intent_id=COALESCE($2, provider_payment_intent_id), updated_at=NOW()
WHERE id=$1 AND status = ANY($3);`
	tag, err := execSQL(ctx, r.pool, tx, q, id, paymentIntentID, statusStrings(model.CompletableStatuses))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() >= 1, nil
}

func (r *paymentRepo) MarkRefunded(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `UPDATE payments SET status='REFUNDED', updated_at=NOW() WHERE id=$1 AND status='COMPLETED';`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() >= 1, nil
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var (
		p    model.Payment
		plan *string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.ProviderSessionID, &p.ProviderPaymentIntentID, &p.Amount, &p.Currency,
		&p.Status, &p.Purpose, &plan, &p.CreatedAt, &p.UpdatedAt, &p.CompletedAt); err != nil {
		return nil, err
	}
	if plan != nil {
		p.Plan = model.Plan(*plan)
	}
	return &p, nil
}

func statusStrings(ss []model.PaymentStatus) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}
