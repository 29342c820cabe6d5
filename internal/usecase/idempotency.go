package usecase

import (
	"context"
	"fmt"

	"estate-crm/internal/domain/model"
	"estate-crm/internal/domain/ports/repository"
)

// IdempotencyGuard answers whether an event's effects are already durable.
// The check is advisory: the terminal writes that follow it are also protected by
// unique constraints, so a race lost after the check surfaces as domain.ErrConflict.
type IdempotencyGuard struct {
	payments  repository.PaymentRepository
	purchases repository.LeadPurchaseRepository
}

func NewIdempotencyGuard(payments repository.PaymentRepository, purchases repository.LeadPurchaseRepository) *IdempotencyGuard {
	return &IdempotencyGuard{payments: payments, purchases: purchases}
}

// AlreadyApplied reports whether a COMPLETED payment attempt matches either natural key.
func (g *IdempotencyGuard) AlreadyApplied(ctx context.Context, tx repository.Tx, keys model.NaturalKeys) (bool, error) {
	if keys.Empty() {
		return false, nil
	}
	ok, err := g.payments.ExistsCompleted(ctx, tx, keys)
	if err != nil {
		return false, fmt.Errorf("idempotency check payments: %w", err)
	}
	return ok, nil
}

// LeadPurchaseApplied reports whether a COMPLETED lead purchase matches either natural key.
func (g *IdempotencyGuard) LeadPurchaseApplied(ctx context.Context, tx repository.Tx, keys model.NaturalKeys) (bool, error) {
	if keys.Empty() {
		return false, nil
	}
	ok, err := g.purchases.ExistsCompleted(ctx, tx, keys)
	if err != nil {
		return false, fmt.Errorf("idempotency check lead purchases: %w", err)
	}
	return ok, nil
}
