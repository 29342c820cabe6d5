package payment

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"estate-crm/internal/domain"
	"estate-crm/internal/domain/model"
	"estate-crm/internal/domain/ports/adapter"
)

var _ adapter.WebhookVerifier = (*StripeWebhookVerifier)(nil)

// StripeWebhookVerifier authenticates Stripe deliveries and decodes the event kinds the
// billing ledger reacts to.
type StripeWebhookVerifier struct {
	secret    string
	tolerance time.Duration
	log       *zerolog.Logger
}

func NewStripeWebhookVerifier(webhookSecret string, logger *zerolog.Logger) *StripeWebhookVerifier {
	l := logger.With().Str("component", "stripe_webhook").Logger()
	return &StripeWebhookVerifier{secret: webhookSecret, tolerance: webhook.DefaultTolerance, log: &l}
}

func (v *StripeWebhookVerifier) Verify(payload []byte, signatureHeader string) (model.VerifiedEvent, error) {
	if v.secret == "" {
		return model.VerifiedEvent{}, fmt.Errorf("%w: webhook signing secret is not set", domain.ErrMisconfigured)
	}
	if signatureHeader == "" {
		return model.VerifiedEvent{}, fmt.Errorf("%w: missing signature header", domain.ErrInvalidSignature)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return model.VerifiedEvent{}, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return model.VerifiedEvent{}, fmt.Errorf("%w: event %s has no data object", domain.ErrPermanentData, event.ID)
	}
	return model.VerifiedEvent{
		ID:      event.ID,
		Kind:    model.EventKind(event.Type),
		Created: time.Unix(event.Created, 0).UTC(),
		Payload: event.Data.Raw,
	}, nil
}

func (v *StripeWebhookVerifier) Decode(ev model.VerifiedEvent) (model.WebhookEvent, error) {
	h := model.EventHeader{ID: ev.ID, Kind: ev.Kind}
	switch ev.Kind {
	case model.EventCheckoutCompleted:
		var s stripe.CheckoutSession
		if err := unmarshalObject(ev, &s); err != nil {
			return nil, err
		}
		return decodeCheckoutCompleted(h, &s)

	case model.EventCheckoutExpired:
		var s stripe.CheckoutSession
		if err := unmarshalObject(ev, &s); err != nil {
			return nil, err
		}
		if s.ID == "" {
			return nil, missing(ev, "session id")
		}
		return model.CheckoutExpired{EventHeader: h, SessionID: s.ID}, nil

	case model.EventPaymentIntentFailed:
		var pi stripe.PaymentIntent
		if err := unmarshalObject(ev, &pi); err != nil {
			return nil, err
		}
		if pi.ID == "" {
			return nil, missing(ev, "payment intent id")
		}
		return model.PaymentFailed{EventHeader: h, PaymentIntentID: pi.ID, AttemptID: pi.Metadata[model.MetaAttemptID]}, nil

	case model.EventChargeRefunded:
		var ch stripe.Charge
		if err := unmarshalObject(ev, &ch); err != nil {
			return nil, err
		}
		piID := ""
		if ch.PaymentIntent != nil {
			piID = ch.PaymentIntent.ID
		}
		if piID == "" {
			return nil, missing(ev, "charge payment intent")
		}
		return model.ChargeRefunded{EventHeader: h, ChargeID: ch.ID, PaymentIntentID: piID, AttemptID: ch.Metadata[model.MetaAttemptID]}, nil

	case model.EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := unmarshalObject(ev, &sub); err != nil {
			return nil, err
		}
		if sub.Customer == nil || sub.Customer.ID == "" {
			return nil, missing(ev, "subscription customer")
		}
		return model.SubscriptionCanceled{EventHeader: h, SubscriptionID: sub.ID, CustomerID: sub.Customer.ID}, nil

	case model.EventInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := unmarshalObject(ev, &inv); err != nil {
			return nil, err
		}
		if inv.Customer == nil || inv.Customer.ID == "" {
			return nil, missing(ev, "invoice customer")
		}
		return model.InvoicePaymentFailed{EventHeader: h, InvoiceID: inv.ID, CustomerID: inv.Customer.ID}, nil
	}

	v.log.Debug().Str("event_id", ev.ID).Str("event_kind", string(ev.Kind)).Msg("ignoring event kind")
	return model.IgnoredEvent{EventHeader: h}, nil
}

// decodeCheckoutCompleted picks the business meaning from the metadata purpose tag.
func decodeCheckoutCompleted(h model.EventHeader, s *stripe.CheckoutSession) (model.WebhookEvent, error) {
	ev := model.VerifiedEvent{ID: h.ID, Kind: h.Kind}
	if s.ID == "" {
		return nil, missing(ev, "session id")
	}
	md := s.Metadata
	keys := model.NaturalKeys{SessionID: s.ID}
	if s.PaymentIntent != nil {
		keys.PaymentIntentID = s.PaymentIntent.ID
	}

	switch model.CheckoutPurpose(md[model.MetaType]) {
	case model.CheckoutLeadPurchase:
		if md[model.MetaListingID] == "" || md[model.MetaBuyerID] == "" {
			return nil, missing(ev, "listingId/buyerId metadata")
		}
		return model.LeadPurchaseCompleted{
			EventHeader: h,
			Keys:        keys,
			ListingID:   md[model.MetaListingID],
			BuyerID:     md[model.MetaBuyerID],
			SellerID:    md[model.MetaSellerID],
		}, nil

	case model.CheckoutCreditPurchase:
		userID := md[model.MetaUserID]
		t, ok := model.ParseCreditType(md[model.MetaCreditType])
		if userID == "" || !ok {
			return nil, missing(ev, "userId/creditType metadata")
		}
		n, err := strconv.ParseInt(md[model.MetaCreditAmount], 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: event %s has invalid creditAmount %q", domain.ErrPermanentData, h.ID, md[model.MetaCreditAmount])
		}
		return model.CreditPurchaseCompleted{
			EventHeader: h,
			Keys:        keys,
			AttemptID:   md[model.MetaAttemptID],
			UserID:      userID,
			CreditType:  t,
			Amount:      n,
			AmountTotal: s.AmountTotal,
			Currency:    string(s.Currency),
		}, nil
	}

	// Anything else is a plan purchase, including sessions created before the purpose tag existed.
	userID := md[model.MetaUserID]
	plan, ok := model.ParsePlan(md[model.MetaPlan])
	if userID == "" || !ok || !plan.IsPaid() {
		return nil, missing(ev, "userId/plan metadata")
	}
	if keys.PaymentIntentID == "" {
		return nil, missing(ev, "payment intent")
	}
	customerID := ""
	if s.Customer != nil {
		customerID = s.Customer.ID
	}
	return model.SubscriptionCheckoutCompleted{
		EventHeader: h,
		Keys:        keys,
		AttemptID:   md[model.MetaAttemptID],
		UserID:      userID,
		Plan:        plan,
		CustomerID:  customerID,
		AmountTotal: s.AmountTotal,
		Currency:    string(s.Currency),
	}, nil
}

func unmarshalObject(ev model.VerifiedEvent, dst interface{}) error {
	if err := json.Unmarshal(ev.Payload, dst); err != nil {
		return fmt.Errorf("%w: event %s: decode %s object: %v", domain.ErrPermanentData, ev.ID, ev.Kind, err)
	}
	return nil
}

func missing(ev model.VerifiedEvent, what string) error {
	return fmt.Errorf("%w: event %s (%s) is missing %s", domain.ErrPermanentData, ev.ID, ev.Kind, what)
}
