package model

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusCanceled SubscriptionStatus = "CANCELED"
)

// Subscription is the single plan row a user owns.
type Subscription struct {
	ID                 string // UUID
	UserID             string // unique
	Plan               Plan
	Status             SubscriptionStatus
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	ProviderCustomerID *string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Implicit is true when no row exists and the value was produced by DefaultSubscription.
	Implicit bool
}

// DefaultSubscription is what a user without a subscription row is on: FREE, ACTIVE,
// with a period end far enough away to never expire.
func DefaultSubscription(userID string, now time.Time) *Subscription {
	return &Subscription{
		UserID:             userID,
		Plan:               PlanFree,
		Status:             SubscriptionStatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(100, 0, 0),
		Implicit:           true,
	}
}

// PaidPeriod returns a fresh one-month billing window starting at now.
func PaidPeriod(now time.Time) (time.Time, time.Time) {
	return now, now.AddDate(0, 1, 0)
}

func (s *Subscription) CustomerID() string {
	if s == nil || s.ProviderCustomerID == nil {
		return ""
	}
	return *s.ProviderCustomerID
}
