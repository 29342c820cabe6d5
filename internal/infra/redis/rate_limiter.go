package redis

import (
	"context"
	"fmt"
	"time"
)

// Limit is a fixed-window quota.
type Limit struct {
	Name   string
	Max    int64
	Window time.Duration
}

// Presets used by the HTTP layer.
var (
	LimitAuth      = Limit{Name: "auth", Max: 5, Window: 15 * time.Minute}
	LimitAPI       = Limit{Name: "api", Max: 60, Window: time.Minute}
	LimitRead      = Limit{Name: "read", Max: 120, Window: time.Minute}
	LimitSensitive = Limit{Name: "sensitive", Max: 10, Window: time.Hour}
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int64
	ResetIn   time.Duration
}

type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow counts one hit for subject against l.
func (r *RateLimiter) Allow(ctx context.Context, l Limit, subject string) (Decision, error) {
	count, ttl, err := r.client.IncrWithExpiry(ctx, RateLimitKey(l.Name, subject), l.Window)
	if err != nil {
		return Decision{}, err
	}
	remaining := l.Max - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: count <= l.Max, Remaining: remaining, ResetIn: ttl}, nil
}

func RateLimitKey(preset, subject string) string {
	return fmt.Sprintf("rate_limit:%s:%s", preset, subject)
}
