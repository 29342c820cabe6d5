// File: internal/usecase/ledger_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"estate-crm/internal/domain"
	"estate-crm/internal/domain/model"
	"estate-crm/internal/domain/ports/repository"
)

// Compile-time check
var _ LedgerUseCase = (*ledgerUC)(nil)

// LedgerUseCase is the read side of billing, consumed by handlers enforcing plan limits.
type LedgerUseCase interface {
	GetSubscriptionAndUsage(ctx context.Context, userID string) (*SubscriptionInfo, error)
	CheckLimit(ctx context.Context, userID string, r model.Resource) (*LimitCheck, error)
	CheckFeature(ctx context.Context, userID string, f model.Feature) (bool, error)
	GetCredits(ctx context.Context, userID string) (*CreditSummary, error)
}

type SubscriptionInfo struct {
	UserID     string                   `json:"userId"`
	Plan       model.Plan               `json:"plan"`
	Status     model.SubscriptionStatus `json:"status"`
	PriceCents int64                    `json:"priceCents"`
	PeriodEnd  time.Time                `json:"currentPeriodEnd"`
	Implicit   bool                     `json:"implicit"`
	Limits     model.PlanLimits         `json:"limits"`
	Usage      []model.Usage            `json:"usage"`
}

type LimitCheck struct {
	Resource model.Resource `json:"resource"`
	Allowed  bool           `json:"allowed"`
	Current  int64          `json:"current"`
	Limit    int            `json:"limit"`
}

type CreditSummary struct {
	Balance model.CreditBalance        `json:"balance"`
	Recent  []*model.CreditTransaction `json:"recentTransactions"`
}

const recentCreditTransactions = 20

type ledgerUC struct {
	subs    repository.SubscriptionRepository
	usage   repository.UsageRepository
	credits repository.CreditRepository
	log     *zerolog.Logger
	now     func() time.Time
}

func NewLedgerUseCase(subs repository.SubscriptionRepository, usage repository.UsageRepository, credits repository.CreditRepository, logger *zerolog.Logger) *ledgerUC {
	return &ledgerUC{subs: subs, usage: usage, credits: credits, log: logger, now: time.Now}
}

// subscriptionOf returns the stored row, or the implicit FREE subscription when there is none.
func (u *ledgerUC) subscriptionOf(ctx context.Context, userID string) (*model.Subscription, error) {
	s, err := u.subs.FindByUserID(ctx, repository.NoTX, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return model.DefaultSubscription(userID, u.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	return s, nil
}

func (u *ledgerUC) GetSubscriptionAndUsage(ctx context.Context, userID string) (*SubscriptionInfo, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	sub, err := u.subscriptionOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	limits := model.LimitsFor(sub.Plan)
	since := monthStart(u.now())

	usage := make([]model.Usage, 0, len(model.Resources))
	for _, r := range model.Resources {
		n, err := u.usage.Count(ctx, repository.NoTX, userID, r, since)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", r, err)
		}
		usage = append(usage, model.NewUsage(r, n, limits.Limit(r)))
	}

	return &SubscriptionInfo{
		UserID:     userID,
		Plan:       sub.Plan,
		Status:     sub.Status,
		PriceCents: sub.Plan.PriceCents(),
		PeriodEnd:  sub.CurrentPeriodEnd,
		Implicit:   sub.Implicit,
		Limits:     limits,
		Usage:      usage,
	}, nil
}

func (u *ledgerUC) CheckLimit(ctx context.Context, userID string, r model.Resource) (*LimitCheck, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	sub, err := u.subscriptionOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	limit := model.LimitsFor(sub.Plan).Limit(r)
	if limit == model.Unlimited {
		return &LimitCheck{Resource: r, Allowed: true, Current: 0, Limit: model.Unlimited}, nil
	}

	current, err := u.usage.Count(ctx, repository.NoTX, userID, r, monthStart(u.now()))
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", r, err)
	}
	return &LimitCheck{
		Resource: r,
		Allowed:  model.WithinLimit(limit, current),
		Current:  current,
		Limit:    limit,
	}, nil
}

func (u *ledgerUC) CheckFeature(ctx context.Context, userID string, f model.Feature) (bool, error) {
	sub, err := u.subscriptionOf(ctx, userID)
	if err != nil {
		return false, err
	}
	return model.LimitsFor(sub.Plan).Allows(f), nil
}

func (u *ledgerUC) GetCredits(ctx context.Context, userID string) (*CreditSummary, error) {
	bal, err := u.credits.GetBalance(ctx, repository.NoTX, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		bal = &model.CreditBalance{UserID: userID}
	case err != nil:
		return nil, fmt.Errorf("load credit balance: %w", err)
	}
	recent, err := u.credits.ListTransactions(ctx, repository.NoTX, userID, recentCreditTransactions)
	if err != nil {
		return nil, fmt.Errorf("list credit transactions: %w", err)
	}
	return &CreditSummary{Balance: *bal, Recent: recent}, nil
}

func monthStart(now time.Time) time.Time {
	y, m, _ := now.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
}
