// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"estate-crm/internal/domain"
	"estate-crm/internal/domain/model"
	"estate-crm/internal/domain/ports/adapter"
	"estate-crm/internal/domain/ports/repository"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// CheckoutUseCase starts hosted checkouts. It only ever creates PENDING records; every
// terminal transition is left to verified webhook events.
type CheckoutUseCase interface {
	StartSubscriptionCheckout(ctx context.Context, userID, email string, plan model.Plan) (*CheckoutResult, error)
	StartCreditCheckout(ctx context.Context, userID, email string, t model.CreditType, amount int64) (*CheckoutResult, error)
	StartLeadPurchase(ctx context.Context, buyerID, email, listingID string) (*CheckoutResult, error)
	PaymentStatus(ctx context.Context, userID, sessionID string) (*PaymentStatusView, error)
}

type CheckoutResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
	Reused    bool   `json:"reused"`
}

type PaymentStatusView struct {
	SessionID   string               `json:"sessionId"`
	Status      model.PaymentStatus  `json:"status"`
	Purpose     model.PaymentPurpose `json:"purpose"`
	Plan        model.Plan           `json:"plan,omitempty"`
	Amount      int64                `json:"amount"`
	Currency    string               `json:"currency"`
	CompletedAt *time.Time           `json:"completedAt,omitempty"`
}

// CheckoutSettings are the provider-independent knobs of checkout creation.
type CheckoutSettings struct {
	Currency           string
	AppURL             string
	TTL                time.Duration
	PriceIDs           map[model.Plan]string
	PlatformFeePercent decimal.Decimal
}

type checkoutUC struct {
	st      Stores
	gateway adapter.CheckoutGateway
	cfg     CheckoutSettings
	log     *zerolog.Logger
	now     func() time.Time
}

func NewCheckoutUseCase(st Stores, gateway adapter.CheckoutGateway, cfg CheckoutSettings, logger *zerolog.Logger) *checkoutUC {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.PlatformFeePercent.IsZero() {
		cfg.PlatformFeePercent = model.DefaultPlatformFeePercent
	}
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	l := logger.With().Str("component", "checkout").Logger()
	return &checkoutUC{st: st, gateway: gateway, cfg: cfg, log: &l, now: time.Now}
}

func (u *checkoutUC) StartSubscriptionCheckout(ctx context.Context, userID, email string, plan model.Plan) (*CheckoutResult, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if !plan.IsPaid() {
		return nil, domain.ErrUnknownPlan
	}
	email = u.emailFor(ctx, userID, email)
	now := u.now()

	// Reuse a still-open session from a recent attempt instead of opening another one.
	recent, err := u.st.Payments.FindRecentPending(ctx, repository.NoTX, userID, model.PurposeSubscription, plan, now.Add(-u.cfg.TTL))
	switch {
	case err == nil:
		sess, gerr := u.gateway.GetCheckoutSession(ctx, recent.ProviderSessionID)
		if gerr == nil && sess.Open && sess.URL != "" {
			return &CheckoutResult{SessionID: sess.ID, URL: sess.URL, Reused: true}, nil
		}
		if gerr != nil {
			u.log.Warn().Err(gerr).Str("payment_id", recent.ID).Msg("could not load previous checkout session")
		}
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("find recent pending payment: %w", err)
	}

	existingCustomer := ""
	if sub, err := u.st.Subscriptions.FindByUserID(ctx, repository.NoTX, userID); err == nil {
		existingCustomer = sub.CustomerID()
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	customerID, err := u.gateway.EnsureCustomer(ctx, existingCustomer, userID, email)
	if err != nil {
		return nil, fmt.Errorf("ensure customer: %w", err)
	}

	// The key, attempt id and expiry are all derived from the current hour so a replayed
	// request sends identical parameters and gets the same session back.
	hour := now.Truncate(time.Hour)
	key := fmt.Sprintf("checkout_%s_%s_%d", userID, plan, hour.Unix()/3600)
	attemptID := uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()

	sess, err := u.gateway.CreateCheckoutSession(ctx, adapter.CheckoutRequest{
		IdempotencyKey: key,
		CustomerID:     customerID,
		CustomerEmail:  email,
		Mode:           adapter.CheckoutModePayment,
		PriceID:        u.cfg.PriceIDs[plan],
		Amount:         plan.PriceCents(),
		Currency:       u.cfg.Currency,
		ProductName:    fmt.Sprintf("%s Plan", titleCase(string(plan))),
		Description:    "Monthly subscription",
		Metadata: map[string]string{
			model.MetaType:      string(model.CheckoutSubscription),
			model.MetaUserID:    userID,
			model.MetaPlan:      string(plan),
			model.MetaAttemptID: attemptID,
		},
		SuccessURL: u.cfg.AppURL + "/settings?payment=success&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  u.cfg.AppURL + "/settings?payment=canceled",
		ExpiresAt:  hour.Add(time.Hour + u.cfg.TTL),
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	err = u.st.Payments.Create(ctx, repository.NoTX, &model.Payment{
		ID:                attemptID,
		UserID:            userID,
		ProviderSessionID: sess.ID,
		Amount:            plan.PriceCents(),
		Currency:          u.cfg.Currency,
		Status:            model.PaymentStatusPending,
		Purpose:           model.PurposeSubscription,
		Plan:              plan,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil && !errors.Is(err, domain.ErrConflict) {
		return nil, fmt.Errorf("record pending payment: %w", err)
	}
	u.log.Info().Str("user_id", userID).Str("plan", string(plan)).Str("session_id", sess.ID).Msg("subscription checkout started")
	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL, Reused: errors.Is(err, domain.ErrConflict)}, nil
}

func (u *checkoutUC) StartCreditCheckout(ctx context.Context, userID, email string, t model.CreditType, amount int64) (*CheckoutResult, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	price, ok := model.CreditPackPrice(t, amount)
	if !ok {
		return nil, domain.ErrInvalidCreditPack
	}
	email = u.emailFor(ctx, userID, email)
	cents := model.ToCents(price)
	now := u.now()
	attemptID := uuid.NewString()

	sess, err := u.gateway.CreateCheckoutSession(ctx, adapter.CheckoutRequest{
		CustomerEmail: email,
		Mode:          adapter.CheckoutModePayment,
		Amount:        cents,
		Currency:      u.cfg.Currency,
		ProductName:   fmt.Sprintf("%d %s Credits", amount, titleCase(string(t))),
		Description:   fmt.Sprintf("Purchase %d %s credits", amount, strings.ToLower(string(t))),
		Metadata: map[string]string{
			model.MetaType:         string(model.CheckoutCreditPurchase),
			model.MetaUserID:       userID,
			model.MetaCreditType:   string(t),
			model.MetaCreditAmount: strconv.FormatInt(amount, 10),
			model.MetaAttemptID:    attemptID,
		},
		SuccessURL: u.cfg.AppURL + "/settings?credits=success",
		CancelURL:  u.cfg.AppURL + "/settings?credits=canceled",
		ExpiresAt:  now.Add(u.cfg.TTL),
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	if err := u.st.Payments.Create(ctx, repository.NoTX, &model.Payment{
		ID:                attemptID,
		UserID:            userID,
		ProviderSessionID: sess.ID,
		Amount:            cents,
		Currency:          u.cfg.Currency,
		Status:            model.PaymentStatusPending,
		Purpose:           model.PurposeCreditPurchase,
		CreatedAt:         now,
		UpdatedAt:         now,
	}); err != nil {
		return nil, fmt.Errorf("record pending payment: %w", err)
	}
	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}

func (u *checkoutUC) StartLeadPurchase(ctx context.Context, buyerID, email, listingID string) (*CheckoutResult, error) {
	if buyerID == "" || listingID == "" {
		return nil, domain.ErrInvalidArgument
	}
	listing, err := u.st.Listings.FindByID(ctx, repository.NoTX, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != model.ListingStatusActive {
		return nil, domain.ErrListingUnavailable
	}
	if listing.SellerID == buyerID {
		return nil, domain.ErrSelfPurchase
	}
	owned, err := u.st.Purchases.HasCompletedForBuyer(ctx, repository.NoTX, listingID, buyerID)
	if err != nil {
		return nil, fmt.Errorf("check existing purchase: %w", err)
	}
	if owned {
		return nil, domain.ErrAlreadyPurchased
	}
	email = u.emailFor(ctx, buyerID, email)

	fee, sellerAmount := model.SplitSale(listing.Price, u.cfg.PlatformFeePercent)
	now := u.now()
	sess, err := u.gateway.CreateCheckoutSession(ctx, adapter.CheckoutRequest{
		CustomerEmail: email,
		Mode:          adapter.CheckoutModePayment,
		Amount:        model.ToCents(listing.Price),
		Currency:      u.cfg.Currency,
		ProductName:   "Lead: " + listing.Title,
		Description:   "Marketplace lead purchase",
		Metadata: map[string]string{
			model.MetaType:         string(model.CheckoutLeadPurchase),
			model.MetaListingID:    listing.ID,
			model.MetaBuyerID:      buyerID,
			model.MetaSellerID:     listing.SellerID,
			model.MetaPlatformFee:  fee.StringFixed(2),
			model.MetaSellerAmount: sellerAmount.StringFixed(2),
		},
		SuccessURL: u.cfg.AppURL + "/marketplace/" + listing.ID + "?purchase=success",
		CancelURL:  u.cfg.AppURL + "/marketplace/" + listing.ID + "?purchase=canceled",
		ExpiresAt:  now.Add(u.cfg.TTL),
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	if err := u.st.Purchases.Create(ctx, repository.NoTX, &model.LeadPurchase{
		ID:                uuid.NewString(),
		ListingID:         listing.ID,
		BuyerID:           buyerID,
		SellerID:          listing.SellerID,
		Amount:            listing.Price,
		PlatformFee:       fee,
		SellerAmount:      sellerAmount,
		Status:            model.PurchaseStatusPending,
		ProviderSessionID: sess.ID,
		CreatedAt:         now,
	}); err != nil {
		return nil, fmt.Errorf("record pending purchase: %w", err)
	}
	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}

func (u *checkoutUC) PaymentStatus(ctx context.Context, userID, sessionID string) (*PaymentStatusView, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidArgument
	}
	p, err := u.st.Payments.FindBySessionID(ctx, repository.NoTX, sessionID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		// do not reveal other users' sessions
		return nil, domain.ErrNotFound
	}
	return &PaymentStatusView{
		SessionID:   p.ProviderSessionID,
		Status:      p.Status,
		Purpose:     p.Purpose,
		Plan:        p.Plan,
		Amount:      p.Amount,
		Currency:    p.Currency,
		CompletedAt: p.CompletedAt,
	}, nil
}

// emailFor prefers the address from the session and falls back to the user record.
func (u *checkoutUC) emailFor(ctx context.Context, userID, email string) string {
	if email != "" || u.st.Users == nil {
		return email
	}
	usr, err := u.st.Users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			u.log.Warn().Err(err).Str("user_id", userID).Msg("could not load user email")
		}
		return ""
	}
	return usr.Email
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToLower(s)
	return strings.ToUpper(s[:1]) + s[1:]
}
