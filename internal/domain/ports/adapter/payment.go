package adapter

import (
	"context"
	"time"

	"estate-crm/internal/domain/model"
)

// WebhookVerifier authenticates raw provider deliveries and decodes them into the closed
// model.WebhookEvent set. Verify must run on the unparsed body bytes.
type WebhookVerifier interface {
	// Verify returns domain.ErrMisconfigured without a signing secret and
	// domain.ErrInvalidSignature for a bad or missing signature. A correctly signed
	// event without a data object yields domain.ErrPermanentData.
	Verify(payload []byte, signatureHeader string) (model.VerifiedEvent, error)
	// Decode returns domain.ErrPermanentData for payloads missing required fields.
	Decode(ev model.VerifiedEvent) (model.WebhookEvent, error)
}

type CheckoutMode string

const (
	CheckoutModePayment CheckoutMode = "payment"
)

// CheckoutRequest describes a one-off hosted checkout.
type CheckoutRequest struct {
	IdempotencyKey string
	CustomerID     string
	CustomerEmail  string
	Mode           CheckoutMode
	PriceID        string // provider price; used instead of Amount when set
	Amount         int64  // minor units
	Currency       string
	ProductName    string
	Description    string
	Metadata       map[string]string // copied to the session and its payment intent
	SuccessURL     string
	CancelURL      string
	ExpiresAt      time.Time
}

type CheckoutSession struct {
	ID         string
	URL        string
	Open       bool
	CustomerID string
}

// CheckoutGateway is the outbound half of the payment-provider client.
type CheckoutGateway interface {
	Name() string
	// EnsureCustomer returns existingID when set, otherwise creates a provider customer.
	EnsureCustomer(ctx context.Context, existingID, userID, email string) (string, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}
