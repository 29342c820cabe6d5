package repository

import (
	"context"
	"time"

	"estate-crm/internal/domain/model"
)

type LeadListingRepository interface {
	Save(ctx context.Context, tx Tx, l *model.LeadListing) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.LeadListing, error)
	// MarkSold transitions ACTIVE -> SOLD; false if the listing was not ACTIVE.
	MarkSold(ctx context.Context, tx Tx, id string, at time.Time) (bool, error)
}

type LeadPurchaseRepository interface {
	Create(ctx context.Context, tx Tx, p *model.LeadPurchase) error
	FindBySessionID(ctx context.Context, tx Tx, sessionID string) (*model.LeadPurchase, error)
	FindPending(ctx context.Context, tx Tx, listingID, buyerID string) (*model.LeadPurchase, error)
	ExistsCompleted(ctx context.Context, tx Tx, keys model.NaturalKeys) (bool, error)
	HasCompletedForBuyer(ctx context.Context, tx Tx, listingID, buyerID string) (bool, error)
	// MarkCompleted transitions PENDING -> COMPLETED; false if it was not PENDING.
	// A second COMPLETED purchase for the same listing yields domain.ErrConflict.
	MarkCompleted(ctx context.Context, tx Tx, id, paymentIntentID string, at time.Time) (bool, error)
}
