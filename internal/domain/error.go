package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrUnauthorized       = errors.New("unauthorized")

	// Reconciliation outcomes
	ErrConflict         = errors.New("conflicting concurrent write")
	ErrAlreadyApplied   = errors.New("event effects already applied")
	ErrRetryLater       = errors.New("referenced entity not yet in a reconcilable state")
	ErrTransientStore   = errors.New("transient store error")
	ErrPermanentData    = errors.New("malformed event data")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMisconfigured    = errors.New("webhook signing secret not configured")

	// Checkout and marketplace
	ErrUnknownPlan        = errors.New("unknown or non-purchasable plan")
	ErrInvalidCreditPack  = errors.New("invalid credit pack")
	ErrListingUnavailable = errors.New("listing is not available")
	ErrSelfPurchase       = errors.New("cannot purchase your own listing")
	ErrAlreadyPurchased   = errors.New("listing already purchased")
)
