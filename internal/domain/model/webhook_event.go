package model

import (
	"encoding/json"
	"time"
)

// EventKind is the provider's event type string.
type EventKind string

const (
	EventCheckoutCompleted    EventKind = "checkout.session.completed"
	EventCheckoutExpired      EventKind = "checkout.session.expired"
	EventPaymentIntentFailed  EventKind = "payment_intent.payment_failed"
	EventChargeRefunded       EventKind = "charge.refunded"
	EventSubscriptionDeleted  EventKind = "customer.subscription.deleted"
	EventInvoicePaymentFailed EventKind = "invoice.payment_failed"
)

// VerifiedEvent is an authenticated webhook delivery whose payload has not been interpreted yet.
type VerifiedEvent struct {
	ID      string
	Kind    EventKind
	Created time.Time
	Payload json.RawMessage // the provider's data.object
}

// CheckoutPurpose is the business meaning carried in checkout metadata.
type CheckoutPurpose string

const (
	CheckoutSubscription   CheckoutPurpose = "subscription"
	CheckoutCreditPurchase CheckoutPurpose = "credit_purchase"
	CheckoutLeadPurchase   CheckoutPurpose = "lead_purchase"
)

// Checkout metadata keys, shared by session creation and event decoding.
const (
	MetaType         = "type"
	MetaUserID       = "userId"
	MetaPlan         = "plan"
	MetaAttemptID    = "attemptId"
	MetaCreditType   = "creditType"
	MetaCreditAmount = "creditAmount"
	MetaListingID    = "listingId"
	MetaBuyerID      = "buyerId"
	MetaSellerID     = "sellerId"
	MetaPlatformFee  = "platformFee"
	MetaSellerAmount = "sellerAmount"
)

// NaturalKeys identify the provider objects an event is about.
type NaturalKeys struct {
	SessionID       string
	PaymentIntentID string
}

func (k NaturalKeys) Empty() bool { return k.SessionID == "" && k.PaymentIntentID == "" }

// WebhookEvent is the closed set of decoded events. Only types in this file implement it.
type WebhookEvent interface {
	Header() EventHeader
	sealed()
}

// EventHeader is embedded in every decoded event.
type EventHeader struct {
	ID   string
	Kind EventKind
}

func (h EventHeader) Header() EventHeader { return h }
func (EventHeader) sealed()               {}

type SubscriptionCheckoutCompleted struct {
	EventHeader
	Keys        NaturalKeys
	AttemptID   string
	UserID      string
	Plan        Plan
	CustomerID  string
	AmountTotal int64
	Currency    string
}

type CreditPurchaseCompleted struct {
	EventHeader
	Keys        NaturalKeys
	AttemptID   string
	UserID      string
	CreditType  CreditType
	Amount      int64
	AmountTotal int64
	Currency    string
}

type LeadPurchaseCompleted struct {
	EventHeader
	Keys      NaturalKeys
	ListingID string
	BuyerID   string
	SellerID  string // informational; the stored purchase is authoritative
}

type CheckoutExpired struct {
	EventHeader
	SessionID string
}

type PaymentFailed struct {
	EventHeader
	PaymentIntentID string
	AttemptID       string // from payment-intent metadata when checkout stamped it
}

type ChargeRefunded struct {
	EventHeader
	ChargeID        string
	PaymentIntentID string
	AttemptID       string
}

type SubscriptionCanceled struct {
	EventHeader
	SubscriptionID string
	CustomerID     string
}

type InvoicePaymentFailed struct {
	EventHeader
	InvoiceID  string
	CustomerID string
}

// IgnoredEvent is any verified kind this system does not act on.
type IgnoredEvent struct {
	EventHeader
}
