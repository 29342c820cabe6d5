package repository

import (
	"context"

	"estate-crm/internal/domain/model"
)

// SubscriptionRepository is the port for the one-row-per-user subscription table.
type SubscriptionRepository interface {
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)
	FindByCustomerID(ctx context.Context, tx Tx, customerID string) (*model.Subscription, error)
	// Upsert inserts or replaces the row keyed by user id. A nil ProviderCustomerID keeps the stored one.
	Upsert(ctx context.Context, tx Tx, s *model.Subscription) error
	// Downgrade moves the user to FREE/CANCELED; false when there is no row or it is already there.
	Downgrade(ctx context.Context, tx Tx, userID string) (bool, error)
}
