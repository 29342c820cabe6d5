package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"estate-crm/internal/domain/model"
	"estate-crm/internal/domain/ports/repository"
	"estate-crm/internal/infra/metrics"
	red "estate-crm/internal/infra/redis"
)

var _ repository.SubscriptionRepository = (*subscriptionRepoCacheDecorator)(nil)

// subscriptionRepoCacheDecorator caches FindByUserID for reads outside a transaction.
// Reads and writes inside a transaction always go to the database. Writes drop the
// cached entry before the inner call and again once the data is visible to other
// readers: immediately without a transaction, after commit with one.
type subscriptionRepoCacheDecorator struct {
	inner repository.SubscriptionRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewSubscriptionRepoCacheDecorator(inner repository.SubscriptionRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.SubscriptionRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &subscriptionRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func subscriptionKey(userID string) string { return fmt.Sprintf("subscription:user:%s", userID) }

func (d *subscriptionRepoCacheDecorator) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	if tx != nil {
		return d.inner.FindByUserID(ctx, tx, userID)
	}
	key := subscriptionKey(userID)
	val, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		var s model.Subscription
		if json.Unmarshal([]byte(val), &s) == nil {
			metrics.IncCacheRequest("subscription", "hit")
			return &s, nil
		}
	case !errors.Is(err, red.Nil):
		metrics.IncCacheRequest("subscription", "error")
		d.log.Warn().Err(err).Str("key", key).Msg("subscription cache read failed")
	}

	metrics.IncCacheRequest("subscription", "miss")
	s, err := d.inner.FindByUserID(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(s); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return s, nil
}

func (d *subscriptionRepoCacheDecorator) FindByCustomerID(ctx context.Context, tx repository.Tx, customerID string) (*model.Subscription, error) {
	return d.inner.FindByCustomerID(ctx, tx, customerID)
}

func (d *subscriptionRepoCacheDecorator) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	d.invalidate(ctx, s.UserID)
	if err := d.inner.Upsert(ctx, tx, s); err != nil {
		return err
	}
	d.invalidateOnVisible(ctx, tx, s.UserID)
	return nil
}

func (d *subscriptionRepoCacheDecorator) Downgrade(ctx context.Context, tx repository.Tx, userID string) (bool, error) {
	d.invalidate(ctx, userID)
	ok, err := d.inner.Downgrade(ctx, tx, userID)
	if err != nil {
		return false, err
	}
	if ok {
		d.invalidateOnVisible(ctx, tx, userID)
	}
	return ok, nil
}

// invalidateOnVisible defers the drop until commit when the write is transactional, so a
// concurrent reader cannot re-cache the pre-commit row.
func (d *subscriptionRepoCacheDecorator) invalidateOnVisible(ctx context.Context, tx repository.Tx, userID string) {
	if tx != nil && AfterCommit(ctx, func(ctx context.Context) { d.invalidate(ctx, userID) }) {
		return
	}
	d.invalidate(ctx, userID)
}

func (d *subscriptionRepoCacheDecorator) invalidate(ctx context.Context, userID string) {
	if err := d.cache.Del(ctx, subscriptionKey(userID)); err != nil {
		d.log.Warn().Err(err).Str("user_id", userID).Msg("subscription cache invalidation failed")
	}
}
