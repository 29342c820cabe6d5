// File: internal/usecase/reconcile_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"estate-crm/internal/domain/model"
	"estate-crm/internal/domain/ports/adapter"
	"estate-crm/internal/domain/ports/repository"
)

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

// ReconcileUseCase turns provider webhook deliveries into ledger effects.
type ReconcileUseCase interface {
	// HandleDelivery verifies, decodes and applies one raw delivery. It never panics on
	// bad input and always returns a classified Result.
	HandleDelivery(ctx context.Context, payload []byte, signatureHeader string) Result
	// Reconcile applies an already verified and decoded event.
	Reconcile(ctx context.Context, ev model.WebhookEvent) Result
}

// Stores groups the repositories the billing use cases share.
type Stores struct {
	Payments      repository.PaymentRepository
	Subscriptions repository.SubscriptionRepository
	Credits       repository.CreditRepository
	Listings      repository.LeadListingRepository
	Purchases     repository.LeadPurchaseRepository
	Notifications repository.NotificationRepository
	Usage         repository.UsageRepository
	Users         repository.UserRepository
}

var applyTxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

type reconcileUC struct {
	verifier adapter.WebhookVerifier
	guard    *IdempotencyGuard
	st       Stores
	tm       repository.TransactionManager
	log      *zerolog.Logger
	now      func() time.Time
}

func NewReconcileUseCase(verifier adapter.WebhookVerifier, st Stores, tm repository.TransactionManager, logger *zerolog.Logger) *reconcileUC {
	l := logger.With().Str("component", "reconcile").Logger()
	return &reconcileUC{
		verifier: verifier,
		guard:    NewIdempotencyGuard(st.Payments, st.Purchases),
		st:       st,
		tm:       tm,
		log:      &l,
		now:      time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (u *reconcileUC) WithClock(now func() time.Time) *reconcileUC {
	u.now = now
	return u
}

func (u *reconcileUC) HandleDelivery(ctx context.Context, payload []byte, signatureHeader string) Result {
	verified, err := u.verifier.Verify(payload, signatureHeader)
	if err != nil {
		res := Result{Outcome: Classify(err), Err: err}
		switch res.Outcome {
		case OutcomeMisconfigured, OutcomePermanentData:
		default:
			// Anything else the verifier rejects is treated as unauthenticated.
			res.Outcome = OutcomeInvalidSignature
		}
		u.logResult(res)
		return res
	}

	ev, err := u.verifier.Decode(verified)
	if err != nil {
		res := Result{EventID: verified.ID, Kind: string(verified.Kind), Outcome: Classify(err), Err: err}
		u.logResult(res)
		return res
	}
	return u.Reconcile(ctx, ev)
}

func (u *reconcileUC) Reconcile(ctx context.Context, ev model.WebhookEvent) Result {
	h := ev.Header()
	res := Result{EventID: h.ID, Kind: string(h.Kind)}

	var (
		err error
		eff Effect
	)
	switch e := ev.(type) {
	case model.SubscriptionCheckoutCompleted:
		res.Handler = "subscription_checkout"
		err = u.applySubscriptionCheckout(ctx, e, &eff)
	case model.CreditPurchaseCompleted:
		res.Handler = "credit_purchase"
		err = u.applyCreditPurchase(ctx, e, &eff)
	case model.LeadPurchaseCompleted:
		res.Handler = "lead_purchase"
		err = u.applyLeadPurchase(ctx, e)
	case model.CheckoutExpired:
		res.Handler = "checkout_expired"
		err = u.applyCheckoutExpired(ctx, e, &eff)
	case model.PaymentFailed:
		res.Handler = "payment_failed"
		err = u.applyPaymentFailed(ctx, e, &eff)
	case model.ChargeRefunded:
		res.Handler = "refund"
		err = u.applyRefund(ctx, e, &eff)
	case model.SubscriptionCanceled:
		res.Handler = "subscription_canceled"
		err = u.applySubscriptionCanceled(ctx, e)
	case model.InvoicePaymentFailed:
		res.Handler = "invoice_failed"
		err = u.applyInvoiceFailed(ctx, e)
	default:
		res.Outcome = OutcomeUnknownEvent
		u.logResult(res)
		return res
	}

	res.Outcome = Classify(err)
	switch {
	case res.Outcome != OutcomeApplied:
		res.Err = err
	case eff.PaymentStatus != "":
		res.Effect = &eff
	}
	u.logResult(res)
	return res
}

func (u *reconcileUC) logResult(res Result) {
	var ev *zerolog.Event
	switch res.Outcome {
	case OutcomeApplied, OutcomeUnknownEvent:
		ev = u.log.Info()
	case OutcomeAlreadyApplied:
		ev = u.log.Debug()
	case OutcomeNotFound, OutcomeRetryLater, OutcomeInvalidSignature:
		ev = u.log.Warn()
	default:
		ev = u.log.Error()
	}
	if res.Alert() {
		ev = ev.Bool("alert", true)
	}
	ev.Str("event_id", res.EventID).
		Str("event_kind", res.Kind).
		Str("handler", res.Handler).
		Str("outcome", string(res.Outcome)).
		Err(res.Err).
		Msg("webhook reconciled")
}
