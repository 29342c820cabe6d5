package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"    // checkout session created, awaiting provider
	PaymentStatusProcessing PaymentStatus = "PROCESSING" // provider reported an in-flight charge
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"  // provider confirmed the checkout
	PaymentStatusFailed     PaymentStatus = "FAILED"     // provider reported failure or the session expired
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"   // a completed payment was refunded
)

// Completable reports whether a checkout completion may still move the attempt to COMPLETED.
// FAILED is included because a customer may retry the card inside the same session.
func (s PaymentStatus) Completable() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusFailed:
		return true
	}
	return false
}

// CompletableStatuses lists the statuses Completable accepts, for conditional updates.
var CompletableStatuses = []PaymentStatus{PaymentStatusPending, PaymentStatusProcessing, PaymentStatusFailed}

type PaymentPurpose string

const (
	PurposeSubscription   PaymentPurpose = "SUBSCRIPTION"
	PurposeCreditPurchase PaymentPurpose = "CREDIT_PURCHASE"
)

// LegacyPendingIntentPrefix marks placeholder payment-intent ids written before the
// provider assigned a real one ("pending_<sessionID>").
const LegacyPendingIntentPrefix = "pending_"

// Payment is one checkout attempt against the payment provider.
type Payment struct {
	ID                      string         // UUID
	UserID                  string         // owning user
	ProviderSessionID       string         // checkout session id, unique
	ProviderPaymentIntentID *string        // nil until the first provider callback
	Amount                  int64          // minor units (cents)
	Currency                string         // ISO code, lower case as the provider reports it
	Status                  PaymentStatus  // see constants above
	Purpose                 PaymentPurpose // what the money buys
	Plan                    Plan           // set for PurposeSubscription
	CreatedAt               time.Time
	UpdatedAt               time.Time
	CompletedAt             *time.Time
}

// PaymentIntent returns the provider payment-intent id or "".
func (p *Payment) PaymentIntent() string {
	if p == nil || p.ProviderPaymentIntentID == nil {
		return ""
	}
	return *p.ProviderPaymentIntentID
}
