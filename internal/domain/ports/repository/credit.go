package repository

import (
	"context"

	"estate-crm/internal/domain/model"
)

type CreditRepository interface {
	// Increment upserts the balance row and adds amount to the given credit type.
	Increment(ctx context.Context, tx Tx, userID string, t model.CreditType, amount int64) error
	GetBalance(ctx context.Context, tx Tx, userID string) (*model.CreditBalance, error)
	// AppendTransaction returns domain.ErrConflict when (reference, action) was already recorded.
	AppendTransaction(ctx context.Context, tx Tx, ct *model.CreditTransaction) error
	ListTransactions(ctx context.Context, tx Tx, userID string, limit int) ([]*model.CreditTransaction, error)
}
