package repository

import (
	"context"
	"time"

	"estate-crm/internal/domain/model"
)

// -----------------------------
// Payment attempts
// -----------------------------

type PaymentRepository interface {
	// Create inserts a new attempt. A duplicate session or completed payment-intent id yields domain.ErrConflict.
	Create(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	// FindBySessionID also matches the legacy "pending_<session>" placeholder intent id.
	FindBySessionID(ctx context.Context, tx Tx, sessionID string) (*model.Payment, error)
	FindByPaymentIntentID(ctx context.Context, tx Tx, paymentIntentID string) (*model.Payment, error)
	// FindRecentPending returns the newest PENDING attempt for user+purpose+plan created after since.
	FindRecentPending(ctx context.Context, tx Tx, userID string, purpose model.PaymentPurpose, plan model.Plan, since time.Time) (*model.Payment, error)

	// ExistsCompleted reports whether any COMPLETED attempt matches either key.
	ExistsCompleted(ctx context.Context, tx Tx, keys model.NaturalKeys) (bool, error)

	// Conditional transitions. The bool is false when the row was not in an eligible state.
	MarkCompleted(ctx context.Context, tx Tx, id, paymentIntentID string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, tx Tx, id string, paymentIntentID *string) (bool, error)
	MarkRefunded(ctx context.Context, tx Tx, id string) (bool, error)
}
