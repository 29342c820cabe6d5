package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CreditType string

const (
	CreditLead  CreditType = "LEAD"
	CreditAI    CreditType = "AI"
	CreditEmail CreditType = "EMAIL"
)

func ParseCreditType(s string) (CreditType, bool) {
	switch t := CreditType(strings.ToUpper(strings.TrimSpace(s))); t {
	case CreditLead, CreditAI, CreditEmail:
		return t, true
	}
	return "", false
}

// CreditBalance holds a user's purchasable balances. It only grows here.
type CreditBalance struct {
	UserID       string    `json:"userId"`
	LeadCredits  int64     `json:"leadCredits"`
	AICredits    int64     `json:"aiCredits"`
	EmailCredits int64     `json:"emailCredits"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (b *CreditBalance) Of(t CreditType) int64 {
	switch t {
	case CreditLead:
		return b.LeadCredits
	case CreditAI:
		return b.AICredits
	case CreditEmail:
		return b.EmailCredits
	}
	return 0
}

// Add increments the balance of t in place.
func (b *CreditBalance) Add(t CreditType, n int64) {
	switch t {
	case CreditLead:
		b.LeadCredits += n
	case CreditAI:
		b.AICredits += n
	case CreditEmail:
		b.EmailCredits += n
	}
}

type CreditAction string

const CreditActionPurchase CreditAction = "PURCHASE"

// CreditTransaction is an append-only audit entry. Reference carries the provider
// payment-intent id and is unique per action.
type CreditTransaction struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Type        CreditType   `json:"type"`
	Amount      int64        `json:"amount"`
	Action      CreditAction `json:"action"`
	Description string       `json:"description"`
	Reference   string       `json:"reference,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

func PurchaseDescription(t CreditType, n int64) string {
	return fmt.Sprintf("Purchased %d %s credits", n, strings.ToLower(string(t)))
}

// creditPacks maps credit type -> pack size -> price in USD.
var creditPacks = map[CreditType]map[int64]decimal.Decimal{
	CreditLead: {
		10:  decimal.NewFromInt(25),
		25:  decimal.NewFromInt(50),
		50:  decimal.NewFromInt(90),
		100: decimal.NewFromInt(150),
	},
	CreditAI: {
		50:  decimal.NewFromInt(10),
		100: decimal.NewFromInt(18),
		250: decimal.NewFromInt(40),
	},
	CreditEmail: {
		500:  decimal.NewFromInt(15),
		1000: decimal.NewFromInt(25),
		2500: decimal.NewFromInt(50),
	},
}

// CreditPackPrice returns the USD price of a pack and whether such a pack is sold.
func CreditPackPrice(t CreditType, amount int64) (decimal.Decimal, bool) {
	packs, ok := creditPacks[t]
	if !ok {
		return decimal.Zero, false
	}
	p, ok := packs[amount]
	return p, ok
}

// ToCents converts a USD amount to integer cents, rounding half away from zero.
func ToCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FromCents is the inverse of ToCents.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}
