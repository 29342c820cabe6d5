// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port            int           `yaml:"port"`
	WebhookPath     string        `yaml:"webhook_path"`
	WebhookTimeout  time.Duration `yaml:"webhook_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	// PriceIDs maps plan name (STARTER|PROFESSIONAL|ENTERPRISE) to a provider price id.
	PriceIDs    map[string]string `yaml:"price_ids"`
	Currency    string            `yaml:"currency"`
	AppURL      string            `yaml:"app_url"`
	CheckoutTTL time.Duration     `yaml:"checkout_ttl"`
}

type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`
	CookieName string `yaml:"cookie_name"`
}

type MarketplaceConfig struct {
	PlatformFeePercent float64 `yaml:"platform_fee_percent"`
}

type RateLimitConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MetricsConfig struct {
	PoolStatsInterval time.Duration `yaml:"pool_stats_interval"`
}

type Config struct {
	Log         LogConfig         `yaml:"log"`
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Stripe      StripeConfig      `yaml:"stripe"`
	Auth        AuthConfig        `yaml:"auth"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Metrics     MetricsConfig     `yaml:"metrics"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, loads an optional .env next to the process,
// and lets environment variables override secrets.
// The webhook secret may be empty; the webhook endpoint then answers every delivery
// as misconfigured.
func LoadConfig(path string, dev bool) (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setStr := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setStr(&cfg.Database.URL, "DATABASE_URL")
	setStr(&cfg.Redis.URL, "REDIS_URL")
	setStr(&cfg.Redis.Password, "REDIS_PASSWORD")
	setStr(&cfg.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setStr(&cfg.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setStr(&cfg.Stripe.AppURL, "APP_URL")
	setStr(&cfg.Auth.JWTSecret, "JWT_SECRET")

	for _, plan := range []string{"STARTER", "PROFESSIONAL", "ENTERPRISE"} {
		if v := os.Getenv("STRIPE_PRICE_" + plan); v != "" {
			if cfg.Stripe.PriceIDs == nil {
				cfg.Stripe.PriceIDs = map[string]string{}
			}
			cfg.Stripe.PriceIDs[plan] = v
		}
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = p
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.WebhookPath == "" {
		cfg.HTTP.WebhookPath = "/api/v1/payments/webhook"
	}
	if cfg.HTTP.WebhookTimeout <= 0 {
		cfg.HTTP.WebhookTimeout = 10 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Stripe.Currency == "" {
		cfg.Stripe.Currency = "usd"
	}
	if cfg.Stripe.AppURL == "" {
		cfg.Stripe.AppURL = "http://localhost:3000"
	}
	if cfg.Stripe.CheckoutTTL <= 0 {
		cfg.Stripe.CheckoutTTL = 30 * time.Minute
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "session"
	}
	if cfg.Marketplace.PlatformFeePercent <= 0 {
		cfg.Marketplace.PlatformFeePercent = 20
	}
	if cfg.Metrics.PoolStatsInterval <= 0 {
		cfg.Metrics.PoolStatsInterval = 15 * time.Second
	}
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Marketplace.PlatformFeePercent >= 100 {
		return fmt.Errorf("marketplace.platform_fee_percent must be below 100, got %v", c.Marketplace.PlatformFeePercent)
	}
	return nil
}

// WebhookConfigured reports whether deliveries can be verified at all.
func (c *Config) WebhookConfigured() bool { return c.Stripe.WebhookSecret != "" }

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
