package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ListingStatus string

const (
	ListingStatusActive  ListingStatus = "ACTIVE"
	ListingStatusSold    ListingStatus = "SOLD"
	ListingStatusExpired ListingStatus = "EXPIRED"
)

// LeadListing is a lead a seller offers on the marketplace. Contact fields are only
// shown to a buyer holding a COMPLETED purchase.
type LeadListing struct {
	ID           string
	SellerID     string
	Title        string
	Price        decimal.Decimal
	Status       ListingStatus
	ContactName  string
	ContactEmail string
	ContactPhone string
	SoldAt       *time.Time
	CreatedAt    time.Time
}

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "PENDING"
	PurchaseStatusCompleted PurchaseStatus = "COMPLETED"
)

// LeadPurchase is one buyer's attempt to buy a listing.
type LeadPurchase struct {
	ID                      string
	ListingID               string
	BuyerID                 string
	SellerID                string
	Amount                  decimal.Decimal
	PlatformFee             decimal.Decimal
	SellerAmount            decimal.Decimal
	Status                  PurchaseStatus
	ProviderSessionID       string
	ProviderPaymentIntentID *string
	CreatedAt               time.Time
	CompletedAt             *time.Time
}

// DefaultPlatformFeePercent is the marketplace cut taken from every sale.
var DefaultPlatformFeePercent = decimal.NewFromInt(20)

// SplitSale divides a price into the platform fee and the seller's share, both rounded to cents.
// The two parts always sum to price.
func SplitSale(price, feePercent decimal.Decimal) (fee, seller decimal.Decimal) {
	fee = price.Mul(feePercent).Div(decimal.NewFromInt(100)).Round(2)
	seller = price.Sub(fee)
	return fee, seller
}
