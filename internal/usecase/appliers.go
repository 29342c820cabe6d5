// File: internal/usecase/appliers.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"estate-crm/internal/domain"
	"estate-crm/internal/domain/model"
	"estate-crm/internal/domain/ports/repository"
)

// Every applier runs its idempotency check and all of its writes inside one transaction.
// Returning an error rolls everything back; Classify decides what the provider is told.

func (u *reconcileUC) applySubscriptionCheckout(ctx context.Context, ev model.SubscriptionCheckoutCompleted, eff *Effect) error {
	return u.tm.WithTx(ctx, applyTxOptions, func(ctx context.Context, tx repository.Tx) error {
		done, err := u.guard.AlreadyApplied(ctx, tx, ev.Keys)
		if err != nil {
			return err
		}
		if done {
			return domain.ErrAlreadyApplied
		}

		now := u.now()
		if err := u.completePayment(ctx, tx, paymentCompletion{
			attemptID: ev.AttemptID,
			keys:      ev.Keys,
			userID:    ev.UserID,
			purpose:   model.PurposeSubscription,
			plan:      ev.Plan,
			amount:    ev.AmountTotal,
			currency:  ev.Currency,
			at:        now,
		}); err != nil {
			return err
		}
		*eff = Effect{PaymentStatus: model.PaymentStatusCompleted, Purpose: model.PurposeSubscription}

		start, end := model.PaidPeriod(now)
		sub := &model.Subscription{
			ID:                 uuid.NewString(),
			UserID:             ev.UserID,
			Plan:               ev.Plan,
			Status:             model.SubscriptionStatusActive,
			CurrentPeriodStart: start,
			CurrentPeriodEnd:   end,
			ProviderCustomerID: optional(ev.CustomerID),
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := u.st.Subscriptions.Upsert(ctx, tx, sub); err != nil {
			return fmt.Errorf("upsert subscription: %w", err)
		}

		return u.notify(ctx, tx, ev.UserID, model.NotificationPaymentReceived,
			"Payment Successful",
			fmt.Sprintf("Your subscription has been upgraded to %s. Thank you for your payment!", ev.Plan),
			"/")
	})
}

func (u *reconcileUC) applyCreditPurchase(ctx context.Context, ev model.CreditPurchaseCompleted, eff *Effect) error {
	return u.tm.WithTx(ctx, applyTxOptions, func(ctx context.Context, tx repository.Tx) error {
		done, err := u.guard.AlreadyApplied(ctx, tx, ev.Keys)
		if err != nil {
			return err
		}
		if done {
			return domain.ErrAlreadyApplied
		}

		now := u.now()
		if err := u.completePayment(ctx, tx, paymentCompletion{
			attemptID: ev.AttemptID,
			keys:      ev.Keys,
			userID:    ev.UserID,
			purpose:   model.PurposeCreditPurchase,
			amount:    ev.AmountTotal,
			currency:  ev.Currency,
			at:        now,
		}); err != nil {
			return err
		}

		if err := u.st.Credits.Increment(ctx, tx, ev.UserID, ev.CreditType, ev.Amount); err != nil {
			return fmt.Errorf("increment credits: %w", err)
		}

		ref := ev.Keys.PaymentIntentID
		if ref == "" {
			ref = ev.Keys.SessionID
		}
		if err := u.st.Credits.AppendTransaction(ctx, tx, &model.CreditTransaction{
			ID:          uuid.NewString(),
			UserID:      ev.UserID,
			Type:        ev.CreditType,
			Amount:      ev.Amount,
			Action:      model.CreditActionPurchase,
			Description: model.PurchaseDescription(ev.CreditType, ev.Amount),
			Reference:   ref,
			CreatedAt:   now,
		}); err != nil {
			return fmt.Errorf("append credit transaction: %w", err)
		}
		*eff = Effect{
			PaymentStatus: model.PaymentStatusCompleted,
			Purpose:       model.PurposeCreditPurchase,
			CreditType:    ev.CreditType,
			Credits:       ev.Amount,
		}

		return u.notify(ctx, tx, ev.UserID, model.NotificationPaymentReceived,
			"Credits Added",
			fmt.Sprintf("%d %s credits have been added to your account.", ev.Amount, strings.ToLower(string(ev.CreditType))),
			"/settings")
	})
}

func (u *reconcileUC) applyLeadPurchase(ctx context.Context, ev model.LeadPurchaseCompleted) error {
	return u.tm.WithTx(ctx, applyTxOptions, func(ctx context.Context, tx repository.Tx) error {
		done, err := u.guard.LeadPurchaseApplied(ctx, tx, ev.Keys)
		if err != nil {
			return err
		}
		if done {
			return domain.ErrAlreadyApplied
		}

		purchase, err := u.findLeadPurchase(ctx, tx, ev)
		if err != nil {
			return err
		}
		if purchase.Status == model.PurchaseStatusCompleted {
			return domain.ErrAlreadyApplied
		}

		listing, err := u.st.Listings.FindByID(ctx, tx, purchase.ListingID)
		if err != nil {
			return fmt.Errorf("find listing %s: %w", purchase.ListingID, err)
		}
		if listing.Status != model.ListingStatusActive {
			return fmt.Errorf("%w: listing %s is %s", domain.ErrConflict, listing.ID, listing.Status)
		}

		now := u.now()
		ok, err := u.st.Purchases.MarkCompleted(ctx, tx, purchase.ID, ev.Keys.PaymentIntentID, now)
		if err != nil {
			return fmt.Errorf("complete lead purchase: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: purchase %s no longer pending", domain.ErrConflict, purchase.ID)
		}
		ok, err = u.st.Listings.MarkSold(ctx, tx, listing.ID, now)
		if err != nil {
			return fmt.Errorf("mark listing sold: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: listing %s already sold", domain.ErrConflict, listing.ID)
		}

		if err := u.notify(ctx, tx, purchase.BuyerID, model.NotificationPaymentReceived,
			"Lead Purchased Successfully",
			"You can now view the full lead details.",
			"/marketplace/"+listing.ID); err != nil {
			return err
		}
		return u.notify(ctx, tx, purchase.SellerID, model.NotificationPaymentReceived,
			"Lead Sold!",
			fmt.Sprintf("Your lead was purchased. You earned $%s.", purchase.SellerAmount.StringFixed(2)),
			"/marketplace/my-listings")
	})
}

func (u *reconcileUC) findLeadPurchase(ctx context.Context, tx repository.Tx, ev model.LeadPurchaseCompleted) (*model.LeadPurchase, error) {
	if ev.Keys.SessionID != "" {
		p, err := u.st.Purchases.FindBySessionID(ctx, tx, ev.Keys.SessionID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("find lead purchase by session: %w", err)
		}
	}
	p, err := u.st.Purchases.FindPending(ctx, tx, ev.ListingID, ev.BuyerID)
	if err != nil {
		return nil, fmt.Errorf("find pending lead purchase listing=%s buyer=%s: %w", ev.ListingID, ev.BuyerID, err)
	}
	return p, nil
}

func (u *reconcileUC) applyCheckoutExpired(ctx context.Context, ev model.CheckoutExpired, eff *Effect) error {
	return u.tm.WithTx(ctx, applyTxOptions, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.st.Payments.FindBySessionID(ctx, tx, ev.SessionID)
		if err != nil {
			return fmt.Errorf("find payment for expired session: %w", err)
		}
		if p.Status != model.PaymentStatusPending {
			return domain.ErrAlreadyApplied
		}
		ok, err := u.st.Payments.MarkFailed(ctx, tx, p.ID, nil)
		if err != nil {
			return fmt.Errorf("mark payment failed: %w", err)
		}
		if !ok {
			return domain.ErrAlreadyApplied
		}
		*eff = Effect{PaymentStatus: model.PaymentStatusFailed, Purpose: p.Purpose}
		return nil
	})
}

func (u *reconcileUC) applyPaymentFailed(ctx context.Context, ev model.PaymentFailed, eff *Effect) error {
	return u.tm.WithTx(ctx, applyTxOptions, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.locatePayment(ctx, tx, ev.PaymentIntentID, ev.AttemptID)
		if err != nil {
			return err
		}
		if !p.Status.Completable() {
			// COMPLETED or REFUNDED: a late failure for an earlier card attempt.
			return domain.ErrAlreadyApplied
		}
		ok, err := u.st.Payments.MarkFailed(ctx, tx, p.ID, optional(ev.PaymentIntentID))
		if err != nil {
			return fmt.Errorf("mark payment failed: %w", err)
		}
		if !ok {
			return domain.ErrAlreadyApplied
		}
		*eff = Effect{PaymentStatus: model.PaymentStatusFailed, Purpose: p.Purpose}
		return u.notify(ctx, tx, p.UserID, model.NotificationPaymentDue,
			"Payment Failed",
			"Your payment could not be processed. Please try again with a different payment method.",
			"")
	})
}

func (u *reconcileUC) applyRefund(ctx context.Context, ev model.ChargeRefunded, eff *Effect) error {
	return u.tm.WithTx(ctx, applyTxOptions, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.locatePayment(ctx, tx, ev.PaymentIntentID, ev.AttemptID)
		if err != nil {
			return err
		}
		switch p.Status {
		case model.PaymentStatusCompleted:
		case model.PaymentStatusRefunded, model.PaymentStatusFailed:
			return domain.ErrAlreadyApplied
		default:
			// The completion for this payment has not been applied yet.
			return fmt.Errorf("%w: payment %s is %s", domain.ErrRetryLater, p.ID, p.Status)
		}

		ok, err := u.st.Payments.MarkRefunded(ctx, tx, p.ID)
		if err != nil {
			return fmt.Errorf("mark payment refunded: %w", err)
		}
		if !ok {
			return domain.ErrAlreadyApplied
		}
		*eff = Effect{PaymentStatus: model.PaymentStatusRefunded, Purpose: p.Purpose}

		message := "Your payment has been refunded."
		if p.Purpose == model.PurposeSubscription {
			if _, err := u.st.Subscriptions.Downgrade(ctx, tx, p.UserID); err != nil {
				return fmt.Errorf("downgrade subscription: %w", err)
			}
			message = "Your payment has been refunded. Your plan has been changed to Free."
		}
		return u.notify(ctx, tx, p.UserID, model.NotificationSystem, "Refund Processed", message, "")
	})
}

func (u *reconcileUC) applySubscriptionCanceled(ctx context.Context, ev model.SubscriptionCanceled) error {
	return u.tm.WithTx(ctx, applyTxOptions, func(ctx context.Context, tx repository.Tx) error {
		sub, err := u.st.Subscriptions.FindByCustomerID(ctx, tx, ev.CustomerID)
		if err != nil {
			return fmt.Errorf("find subscription by customer: %w", err)
		}
		ok, err := u.st.Subscriptions.Downgrade(ctx, tx, sub.UserID)
		if err != nil {
			return fmt.Errorf("downgrade subscription: %w", err)
		}
		if !ok {
			return domain.ErrAlreadyApplied
		}
		return u.notify(ctx, tx, sub.UserID, model.NotificationSystem,
			"Subscription Canceled",
			"Your subscription has been canceled. You have been moved to the Free plan.",
			"")
	})
}

func (u *reconcileUC) applyInvoiceFailed(ctx context.Context, ev model.InvoicePaymentFailed) error {
	return u.tm.WithTx(ctx, applyTxOptions, func(ctx context.Context, tx repository.Tx) error {
		sub, err := u.st.Subscriptions.FindByCustomerID(ctx, tx, ev.CustomerID)
		if err != nil {
			return fmt.Errorf("find subscription by customer: %w", err)
		}
		return u.notify(ctx, tx, sub.UserID, model.NotificationPaymentDue,
			"Payment Failed",
			"Your subscription payment failed. Please update your payment method to avoid service interruption.",
			"")
	})
}

type paymentCompletion struct {
	attemptID string
	keys      model.NaturalKeys
	userID    string
	purpose   model.PaymentPurpose
	plan      model.Plan
	amount    int64
	currency  string
	at        time.Time
}

// completePayment moves the attempt created at checkout to COMPLETED, or records a
// COMPLETED attempt when checkout never stored one.
func (u *reconcileUC) completePayment(ctx context.Context, tx repository.Tx, c paymentCompletion) error {
	p, err := u.st.Payments.FindBySessionID(ctx, tx, c.keys.SessionID)
	if errors.Is(err, domain.ErrNotFound) && c.attemptID != "" {
		p, err = u.st.Payments.FindByID(ctx, tx, c.attemptID)
	}
	switch {
	case err == nil:
		ok, err := u.st.Payments.MarkCompleted(ctx, tx, p.ID, c.keys.PaymentIntentID, c.at)
		if err != nil {
			return fmt.Errorf("mark payment completed: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: payment %s is %s", domain.ErrAlreadyApplied, p.ID, p.Status)
		}
		return nil
	case errors.Is(err, domain.ErrNotFound):
		completedAt := c.at
		if err := u.st.Payments.Create(ctx, tx, &model.Payment{
			ID:                      uuid.NewString(),
			UserID:                  c.userID,
			ProviderSessionID:       c.keys.SessionID,
			ProviderPaymentIntentID: optional(c.keys.PaymentIntentID),
			Amount:                  c.amount,
			Currency:                c.currency,
			Status:                  model.PaymentStatusCompleted,
			Purpose:                 c.purpose,
			Plan:                    c.plan,
			CreatedAt:               c.at,
			UpdatedAt:               c.at,
			CompletedAt:             &completedAt,
		}); err != nil {
			return fmt.Errorf("record completed payment: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("find payment by session: %w", err)
	}
}

// locatePayment finds an attempt by payment-intent id, falling back to the attempt id
// checkout stamped into the provider metadata.
func (u *reconcileUC) locatePayment(ctx context.Context, tx repository.Tx, paymentIntentID, attemptID string) (*model.Payment, error) {
	p, err := u.st.Payments.FindByPaymentIntentID(ctx, tx, paymentIntentID)
	if errors.Is(err, domain.ErrNotFound) && attemptID != "" {
		p, err = u.st.Payments.FindByID(ctx, tx, attemptID)
	}
	if err != nil {
		return nil, fmt.Errorf("locate payment %s: %w", paymentIntentID, err)
	}
	return p, nil
}

func (u *reconcileUC) notify(ctx context.Context, tx repository.Tx, userID string, kind model.NotificationType, title, message, actionURL string) error {
	err := u.st.Notifications.Create(ctx, tx, &model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		ActionURL: actionURL,
		CreatedAt: u.now(),
	})
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
