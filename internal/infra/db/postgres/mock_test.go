//go:build !integration

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"estate-crm/internal/domain/model"
	"estate-crm/internal/domain/ports/repository"
	red "estate-crm/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerSubscriptionRepo mocks the database repository the subscription decorator wraps.
type mockInnerSubscriptionRepo struct {
	FindByUserIDFunc     func(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error)
	FindByCustomerIDFunc func(ctx context.Context, tx repository.Tx, customerID string) (*model.Subscription, error)
	UpsertFunc           func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	DowngradeFunc        func(ctx context.Context, tx repository.Tx, userID string) (bool, error)
}

func (m *mockInnerSubscriptionRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	return m.FindByUserIDFunc(ctx, tx, userID)
}
func (m *mockInnerSubscriptionRepo) FindByCustomerID(ctx context.Context, tx repository.Tx, customerID string) (*model.Subscription, error) {
	return m.FindByCustomerIDFunc(ctx, tx, customerID)
}
func (m *mockInnerSubscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	return m.UpsertFunc(ctx, tx, s)
}
func (m *mockInnerSubscriptionRepo) Downgrade(ctx context.Context, tx repository.Tx, userID string) (bool, error) {
	return m.DowngradeFunc(ctx, tx, userID)
}

// mockRedisClient mocks our Redis client wrapper. Unset funcs fall back to an in-memory map.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error

	data map[string]string
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	v, ok := m.data[key]
	if !ok {
		return "", red.Nil
	}
	return v, nil
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	if m.data == nil {
		m.data = map[string]string{}
	}
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	default:
		m.data[key] = fmt.Sprint(v)
	}
	return nil
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc != nil {
		return m.DelFunc(ctx, keys...)
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }
func (m *mockRedisClient) IncrWithExpiry(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	return 0, 0, fmt.Errorf("not implemented")
}
func (m *mockRedisClient) Close() error { return nil }

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
