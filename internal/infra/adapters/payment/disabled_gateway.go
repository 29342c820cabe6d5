package payment

import (
	"context"

	"estate-crm/internal/domain"
	"estate-crm/internal/domain/ports/adapter"
)

var _ adapter.CheckoutGateway = DisabledGateway{}

// DisabledGateway stands in when no provider secret key is configured. Every call fails
// with domain.ErrMisconfigured; webhooks keep working.
type DisabledGateway struct{}

func (DisabledGateway) Name() string { return "disabled" }

func (DisabledGateway) EnsureCustomer(context.Context, string, string, string) (string, error) {
	return "", domain.ErrMisconfigured
}

func (DisabledGateway) CreateCheckoutSession(context.Context, adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	return nil, domain.ErrMisconfigured
}

func (DisabledGateway) GetCheckoutSession(context.Context, string) (*adapter.CheckoutSession, error) {
	return nil, domain.ErrMisconfigured
}
