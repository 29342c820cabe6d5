//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"estate-crm/internal/domain"
)

// --- User Model Tests ---

func TestNewUser(t *testing.T) {
	t.Run("should create a new user successfully", func(t *testing.T) {
		startTime := time.Now()
		user, err := NewUser("", "  Agent@Example.COM ", " Dana ")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if user.ID == "" {
			t.Error("expected user ID to be generated")
		}
		if user.Email != "agent@example.com" {
			t.Errorf("expected normalized email, got %q", user.Email)
		}
		if user.Name != "Dana" {
			t.Errorf("expected trimmed name, got %q", user.Name)
		}
		if user.CreatedAt.Before(startTime) {
			t.Error("expected CreatedAt to be set to now")
		}
	})

	t.Run("should keep a provided id", func(t *testing.T) {
		user, err := NewUser("u1", "u1@example.com", "")
		if err != nil || user.ID != "u1" {
			t.Fatalf("unexpected result %+v %v", user, err)
		}
	})

	t.Run("should reject an invalid email", func(t *testing.T) {
		if _, err := NewUser("", "not-an-email", ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

// --- Plan Tests ---

func TestParsePlan(t *testing.T) {
	tests := []struct {
		in   string
		want Plan
		ok   bool
		paid bool
	}{
		{"starter", PlanStarter, true, true},
		{" Professional ", PlanProfessional, true, true},
		{"ENTERPRISE", PlanEnterprise, true, true},
		{"free", PlanFree, true, false},
		{"platinum", "", false, false},
		{"", "", false, false},
	}
	for _, tc := range tests {
		got, ok := ParsePlan(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParsePlan(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
		if ok && got.IsPaid() != tc.paid {
			t.Errorf("%s.IsPaid() = %v", got, got.IsPaid())
		}
	}
}

func TestPlanPrices(t *testing.T) {
	want := map[Plan]int64{PlanFree: 0, PlanStarter: 2900, PlanProfessional: 7900, PlanEnterprise: 19900}
	for p, cents := range want {
		if got := p.PriceCents(); got != cents {
			t.Errorf("%s: expected %d cents, got %d", p, cents, got)
		}
	}
}

func TestLimitsFor(t *testing.T) {
	free := LimitsFor(PlanFree)
	if free.Properties != 5 || free.AIScoresPerMonth != 0 || free.Allows(FeatureMarketplace) {
		t.Errorf("unexpected free limits %+v", free)
	}
	if LimitsFor(Plan("GOLD")) != free {
		t.Error("unknown plans must fall back to free limits")
	}
	ent := LimitsFor(PlanEnterprise)
	for _, r := range Resources {
		if ent.Limit(r) != Unlimited {
			t.Errorf("enterprise %s should be unlimited, got %d", r, ent.Limit(r))
		}
	}
	if !LimitsFor(PlanStarter).Allows(FeatureSettlement) {
		t.Error("starter should allow settlement")
	}
	if free.Limit(Resource("unknown")) != 0 {
		t.Error("unknown resources have no quota")
	}
}

func TestParseResource(t *testing.T) {
	if r, ok := ParseResource("teammembers"); !ok || r != ResourceTeamMembers {
		t.Errorf("expected case-insensitive match, got %q %v", r, ok)
	}
	if _, ok := ParseResource("spaceships"); ok {
		t.Error("unknown resource must not parse")
	}
	if !ResourceEmailsPerMonth.Monthly() || ResourceLeads.Monthly() {
		t.Error("only per-month resources reset monthly")
	}
}

func TestWithinLimit(t *testing.T) {
	tests := []struct {
		limit   int
		current int64
		want    bool
	}{
		{Unlimited, 0, true},
		{Unlimited, 10_000_000, true},
		{5, 4, true},
		{5, 5, false},
		{0, 0, false},
	}
	for _, tc := range tests {
		if got := WithinLimit(tc.limit, tc.current); got != tc.want {
			t.Errorf("WithinLimit(%d, %d) = %v, want %v", tc.limit, tc.current, got, tc.want)
		}
	}
}

func TestNewUsage(t *testing.T) {
	if u := NewUsage(ResourceProperties, 4, 5); u.Percent != 80 || u.Unlimited {
		t.Errorf("expected 80%%, got %+v", u)
	}
	if u := NewUsage(ResourceLeads, 30, 20); u.Percent != 100 {
		t.Errorf("percentage must be capped at 100, got %v", u.Percent)
	}
	if u := NewUsage(ResourceLeads, 123, Unlimited); !u.Unlimited || u.Percent != 0 {
		t.Errorf("unlimited usage has no percentage, got %+v", u)
	}
	if u := NewUsage(ResourceAIScoresPerMonth, 1, 0); u.Percent != 100 {
		t.Errorf("any usage of a zero quota is full, got %v", u.Percent)
	}
	if u := NewUsage(ResourceAIScoresPerMonth, 0, 0); u.Percent != 0 {
		t.Errorf("no usage of a zero quota is empty, got %v", u.Percent)
	}
}

func TestDefaultSubscription(t *testing.T) {
	now := time.Now()
	s := DefaultSubscription("u1", now)
	if s.Plan != PlanFree || s.Status != SubscriptionStatusActive || !s.Implicit {
		t.Errorf("unexpected default %+v", s)
	}
	if !s.CurrentPeriodEnd.After(now.AddDate(50, 0, 0)) {
		t.Error("default period should effectively never end")
	}
	if s.CustomerID() != "" {
		t.Error("default subscription has no customer")
	}
	start, end := PaidPeriod(now)
	if !start.Equal(now) || !end.Equal(now.AddDate(0, 1, 0)) {
		t.Errorf("unexpected paid period %v..%v", start, end)
	}
}

// --- Payment Tests ---

func TestPaymentStatusCompletable(t *testing.T) {
	want := map[PaymentStatus]bool{
		PaymentStatusPending:    true,
		PaymentStatusProcessing: true,
		PaymentStatusFailed:     true,
		PaymentStatusCompleted:  false,
		PaymentStatusRefunded:   false,
	}
	for s, ok := range want {
		if s.Completable() != ok {
			t.Errorf("%s.Completable() = %v", s, !ok)
		}
	}
	var p *Payment
	if p.PaymentIntent() != "" {
		t.Error("nil payment has no intent")
	}
}

// --- Credit Tests ---

func TestCreditPackPrice(t *testing.T) {
	tests := []struct {
		t      CreditType
		amount int64
		price  string
		ok     bool
	}{
		{CreditLead, 10, "25", true},
		{CreditAI, 50, "10", true},
		{CreditEmail, 2500, "50", true},
		{CreditAI, 51, "0", false},
		{CreditType("GOLD"), 10, "0", false},
	}
	for _, tc := range tests {
		got, ok := CreditPackPrice(tc.t, tc.amount)
		if ok != tc.ok || !got.Equal(decimal.RequireFromString(tc.price)) {
			t.Errorf("CreditPackPrice(%s, %d) = %s, %v", tc.t, tc.amount, got, ok)
		}
	}
}

func TestCreditBalance(t *testing.T) {
	var b CreditBalance
	b.Add(CreditAI, 50)
	b.Add(CreditAI, 25)
	b.Add(CreditLead, 10)
	if b.Of(CreditAI) != 75 || b.Of(CreditLead) != 10 || b.Of(CreditEmail) != 0 {
		t.Errorf("unexpected balance %+v", b)
	}
	if got := PurchaseDescription(CreditAI, 50); got != "Purchased 50 ai credits" {
		t.Errorf("unexpected description %q", got)
	}
	if ct, ok := ParseCreditType(" lead "); !ok || ct != CreditLead {
		t.Errorf("unexpected parse %q %v", ct, ok)
	}
}

func TestCents(t *testing.T) {
	if got := ToCents(decimal.RequireFromString("49.99")); got != 4999 {
		t.Errorf("expected 4999, got %d", got)
	}
	if got := ToCents(decimal.RequireFromString("10.005")); got != 1001 {
		t.Errorf("expected half-up rounding to 1001, got %d", got)
	}
	if !FromCents(1999).Equal(decimal.RequireFromString("19.99")) {
		t.Errorf("unexpected FromCents %s", FromCents(1999))
	}
}

// --- Marketplace Tests ---

func TestSplitSale(t *testing.T) {
	tests := []struct {
		price, pct, fee, seller string
	}{
		{"49.99", "20", "10.00", "39.99"},
		{"100", "20", "20", "80"},
		{"0.01", "20", "0", "0.01"},
		{"33.33", "15", "5.00", "28.33"},
	}
	for _, tc := range tests {
		price := decimal.RequireFromString(tc.price)
		fee, seller := SplitSale(price, decimal.RequireFromString(tc.pct))
		if !fee.Equal(decimal.RequireFromString(tc.fee)) || !seller.Equal(decimal.RequireFromString(tc.seller)) {
			t.Errorf("SplitSale(%s, %s) = %s, %s; want %s, %s", tc.price, tc.pct, fee, seller, tc.fee, tc.seller)
		}
		if !fee.Add(seller).Equal(price) {
			t.Errorf("parts of %s must sum to the price", tc.price)
		}
	}
}

func TestNaturalKeys(t *testing.T) {
	if !(NaturalKeys{}).Empty() {
		t.Error("zero keys are empty")
	}
	if (NaturalKeys{PaymentIntentID: "pi_1"}).Empty() {
		t.Error("keys with an intent are not empty")
	}
}
