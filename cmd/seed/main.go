package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"estate-crm/internal/config"
	"estate-crm/internal/domain"
	"estate-crm/internal/domain/model"
	"estate-crm/internal/domain/ports/repository"
	"estate-crm/internal/infra/api"
	pg "estate-crm/internal/infra/db/postgres"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect Postgres
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	users := pg.NewPostgresUserRepo(pool)
	subs := pg.NewSubscriptionRepo(pool)
	listings := pg.NewLeadListingRepo(pool)

	seller := mustUser("seed-seller", "seller@example.com", "Sam Seller")
	buyer := mustUser("seed-buyer", "buyer@example.com", "Bea Buyer")
	for _, u := range []*model.User{seller, buyer} {
		if err := users.Save(ctx, repository.NoTX, u); err != nil {
			log.Fatalf("save user %s: %v", u.ID, err)
		}
	}

	// The seller starts on STARTER; the buyer stays on the implicit FREE plan.
	now := time.Now().UTC()
	start, end := model.PaidPeriod(now)
	if _, err := subs.FindByUserID(ctx, repository.NoTX, seller.ID); errors.Is(err, domain.ErrNotFound) {
		err = subs.Upsert(ctx, repository.NoTX, &model.Subscription{
			ID:                 uuid.NewString(),
			UserID:             seller.ID,
			Plan:               model.PlanStarter,
			Status:             model.SubscriptionStatusActive,
			CurrentPeriodStart: start,
			CurrentPeriodEnd:   end,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
		if err != nil {
			log.Fatalf("seed subscription: %v", err)
		}
	} else if err != nil {
		log.Fatalf("load subscription: %v", err)
	}

	listing := &model.LeadListing{
		ID:           "seed-listing-1",
		SellerID:     seller.ID,
		Title:        "3BR buyer in Riverside, pre-approved",
		Price:        decimal.RequireFromString("49.99"),
		Status:       model.ListingStatusActive,
		ContactName:  "Alex Prospect",
		ContactEmail: "alex.prospect@example.com",
		ContactPhone: "+1-555-0100",
		CreatedAt:    now,
	}
	if err := listings.Save(ctx, repository.NoTX, listing); err != nil {
		log.Fatalf("save listing: %v", err)
	}

	fmt.Printf("seeded users %s, %s and listing %s ($%s)\n", seller.ID, buyer.ID, listing.ID, listing.Price.StringFixed(2))

	// Print bearer tokens so the API can be exercised locally.
	auth := api.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.CookieName, 7*24*time.Hour)
	for _, u := range []*model.User{seller, buyer} {
		tok, err := auth.Mint(u.ID, u.Email)
		if err != nil {
			log.Fatalf("mint token: %v", err)
		}
		fmt.Printf("  %-12s Bearer %s\n", u.ID, tok)
	}
}

func mustUser(id, email, name string) *model.User {
	u, err := model.NewUser(id, email, name)
	if err != nil {
		log.Fatalf("user %s: %v", id, err)
	}
	return u
}
