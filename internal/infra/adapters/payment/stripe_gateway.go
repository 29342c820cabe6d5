package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/customer"

	"estate-crm/internal/domain"
	"estate-crm/internal/domain/ports/adapter"
	"estate-crm/internal/infra/logging"
)

var _ adapter.CheckoutGateway = (*StripeGateway)(nil)

// StripeGateway creates hosted checkout sessions and customers through the Stripe API.
type StripeGateway struct {
	log *zerolog.Logger
	dev bool // log provider ids unredacted
}

// NewStripeGateway configures the package-level Stripe client with secretKey.
func NewStripeGateway(secretKey string, dev bool, logger *zerolog.Logger) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key empty")
	}
	stripe.Key = secretKey
	l := logger.With().Str("component", "stripe_gateway").Logger()
	return &StripeGateway{log: &l, dev: dev}, nil
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) EnsureCustomer(ctx context.Context, existingID, userID, email string) (string, error) {
	if existingID != "" {
		return existingID, nil
	}
	params := &stripe.CustomerParams{
		Email:    stripe.String(email),
		Metadata: map[string]string{"userId": userID},
	}
	params.Context = ctx
	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	g.log.Info().Str("customer_id", logging.Redact(cust.ID, g.dev)).Str("user_id", userID).Msg("created stripe customer")
	return cust.ID, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	if req.Mode == "" {
		req.Mode = adapter.CheckoutModePayment
	}
	if req.PriceID == "" && req.Amount <= 0 {
		return nil, fmt.Errorf("%w: checkout needs a price id or a positive amount", domain.ErrInvalidArgument)
	}
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(req.Mode)),
		Metadata:   req.Metadata,
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: req.Metadata,
		},
	}
	if req.Description != "" {
		params.PaymentIntentData.Description = stripe.String(req.Description)
	}
	if !req.ExpiresAt.IsZero() {
		params.ExpiresAt = stripe.Int64(req.ExpiresAt.Unix())
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	if req.PriceID != "" {
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		}
	} else {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(req.ProductName),
		}
		if req.Description != "" {
			product.Description = stripe.String(req.Description)
		}
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(req.Currency),
					ProductData: product,
					UnitAmount:  stripe.Int64(req.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		}
	}

	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	sess, err := session.New(params)
	if err != nil {
		g.log.Error().Err(err).Msg("failed to create checkout session")
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	g.log.Info().Str("session_id", logging.Redact(sess.ID, g.dev)).Str("mode", string(req.Mode)).Msg("created checkout session")
	return toCheckoutSession(sess), nil
}

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*adapter.CheckoutSession, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidArgument
	}
	sess, err := session.Get(sessionID, nil)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.HTTPStatusCode == 404 {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get checkout session: %w", err)
	}
	return toCheckoutSession(sess), nil
}

func toCheckoutSession(s *stripe.CheckoutSession) *adapter.CheckoutSession {
	out := &adapter.CheckoutSession{
		ID:   s.ID,
		URL:  s.URL,
		Open: s.Status == stripe.CheckoutSessionStatusOpen,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	return out
}
