// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"estate-crm/internal/config"
	"estate-crm/internal/domain/model"
	"estate-crm/internal/domain/ports/adapter"
	payAdapters "estate-crm/internal/infra/adapters/payment"
	"estate-crm/internal/infra/api"
	"estate-crm/internal/infra/api/apiv1"
	pg "estate-crm/internal/infra/db/postgres"
	"estate-crm/internal/infra/logging"
	"estate-crm/internal/infra/metrics"
	red "estate-crm/internal/infra/redis"
	"estate-crm/internal/infra/sched"
	"estate-crm/internal/usecase"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

const subscriptionCacheTTL = time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted ids)")
	migrate := flag.Bool("migrate", false, "apply the embedded schema before serving")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	logger.Info().Str("version", version).Str("commit", commit).Bool("dev", cfg.Runtime.Dev).Msg("starting estate-crm billing")

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	if *migrate {
		if err := pg.ApplySchema(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("migrate")
		}
		logger.Info().Msg("schema applied")
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	var limiter *red.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = red.NewRateLimiter(redisClient)
	}

	// ---- Repositories ----
	subRepo := pg.NewSubscriptionRepoCacheDecorator(pg.NewSubscriptionRepo(pool), redisClient, subscriptionCacheTTL, logger)
	stores := usecase.Stores{
		Payments:      pg.NewPaymentRepo(pool),
		Subscriptions: subRepo,
		Credits:       pg.NewCreditRepo(pool),
		Listings:      pg.NewLeadListingRepo(pool),
		Purchases:     pg.NewLeadPurchaseRepo(pool),
		Notifications: pg.NewNotificationRepo(pool),
		Usage:         pg.NewUsageRepo(pool),
		Users:         pg.NewPostgresUserRepo(pool),
	}
	tm := pg.NewTxManager(pool)

	// ---- Payment provider ----
	if !cfg.WebhookConfigured() {
		logger.Warn().Msg("stripe.webhook_secret not set; webhook deliveries will be answered as misconfigured")
	}
	verifier := payAdapters.NewStripeWebhookVerifier(cfg.Stripe.WebhookSecret, logger)

	var gateway adapter.CheckoutGateway = payAdapters.DisabledGateway{}
	if cfg.Stripe.SecretKey != "" {
		gw, err := payAdapters.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Runtime.Dev, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("stripe gateway")
		}
		gateway = gw
	} else {
		logger.Warn().Msg("stripe.secret_key not set; checkout endpoints are disabled")
	}

	// ---- Use cases ----
	reconcileUC := usecase.NewReconcileUseCase(verifier, stores, tm, logger)
	ledgerUC := usecase.NewLedgerUseCase(stores.Subscriptions, stores.Usage, stores.Credits, logger)
	checkoutUC := usecase.NewCheckoutUseCase(stores, gateway, usecase.CheckoutSettings{
		Currency:           cfg.Stripe.Currency,
		AppURL:             cfg.Stripe.AppURL,
		TTL:                cfg.Stripe.CheckoutTTL,
		PriceIDs:           priceIDs(cfg.Stripe.PriceIDs),
		PlatformFeePercent: decimal.NewFromFloat(cfg.Marketplace.PlatformFeePercent),
	}, logger)

	// ---- HTTP ----
	auth := api.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.CookieName, 0)
	v1 := apiv1.NewServer(ledgerUC, checkoutUC, logger)
	srv := api.NewServer(reconcileUC, v1, auth, limiter, api.ServerConfig{
		WebhookPath:    cfg.HTTP.WebhookPath,
		WebhookTimeout: cfg.HTTP.WebhookTimeout,
	}, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("webhook_path", cfg.HTTP.WebhookPath).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	// ---- Workers ----
	poolStats := sched.NewPoolStatsWorker(cfg.Metrics.PoolStatsInterval, pool, logger)
	go func() { _ = poolStats.Run(ctx) }()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}

func priceIDs(raw map[string]string) map[model.Plan]string {
	out := make(map[model.Plan]string, len(raw))
	for name, id := range raw {
		if p, ok := model.ParsePlan(name); ok && p.IsPaid() {
			out[p] = id
		}
	}
	return out
}
