package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"estate-crm/internal/domain"
	"estate-crm/internal/domain/model"
	"estate-crm/internal/domain/ports/repository"
)

var _ repository.CreditRepository = (*creditRepo)(nil)

type creditRepo struct{ pool *pgxpool.Pool }

func NewCreditRepo(pool *pgxpool.Pool) *creditRepo {
	return &creditRepo{pool: pool}
}

func creditColumn(t model.CreditType) (string, error) {
	switch t {
	case model.CreditLead:
		return "lead_credits", nil
	case model.CreditAI:
		return "ai_credits", nil
	case model.CreditEmail:
		return "email_credits", nil
	}
	return "", fmt.Errorf("%w: credit type %q", domain.ErrInvalidArgument, t)
}

func (r *creditRepo) Increment(ctx context.Context, tx repository.Tx, userID string, t model.CreditType, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: credit increment must be positive", domain.ErrInvalidArgument)
	}
	col, err := creditColumn(t)
	if err != nil {
		return err
	}
	// col comes from a closed switch, never from input.
	q := fmt.Sprintf(`
INSERT INTO credit_balances (user_id, %[1]s, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (user_id) DO UPDATE SET %[1]s = credit_balances.%[1]s + EXCLUDED.%[1]s, updated_at = NOW();`, col)
	_, err = execSQL(ctx, r.pool, tx, q, userID, amount)
	return err
}

func (r *creditRepo) GetBalance(ctx context.Context, tx repository.Tx, userID string) (*model.CreditBalance, error) {
	const q = `SELECT user_id, lead_credits, ai_credits, email_credits, updated_at FROM credit_balances WHERE user_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	var b model.CreditBalance
	if err := row.Scan(&b.UserID, &b.LeadCredits, &b.AICredits, &b.EmailCredits, &b.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	return &b, nil
}

func (r *creditRepo) AppendTransaction(ctx context.Context, tx repository.Tx, ct *model.CreditTransaction) error {
	const q = `
INSERT INTO credit_transactions (id, user_id, type, amount, action, description, reference, created_at)
VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),$8);`
	_, err := execSQL(ctx, r.pool, tx, q, ct.ID, ct.UserID, ct.Type, ct.Amount, ct.Action, ct.Description, ct.Reference, ct.CreatedAt)
	return err
}

func (r *creditRepo) ListTransactions(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.CreditTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, user_id, type, amount, action, description, COALESCE(reference,''), created_at
FROM credit_transactions WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.CreditTransaction, 0, limit)
	for rows.Next() {
		var ct model.CreditTransaction
		if err := rows.Scan(&ct.ID, &ct.UserID, &ct.Type, &ct.Amount, &ct.Action, &ct.Description, &ct.Reference, &ct.CreatedAt); err != nil {
			return nil, mapError(err)
		}
		out = append(out, &ct)
	}
	return out, mapError(rows.Err())
}
