//go:build !integration

package redis

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeRedis is an in-memory RedisClient with a controllable clock.
type fakeRedis struct {
	mu      sync.Mutex
	now     time.Time
	vals    map[string]string
	counts  map[string]int64
	expires map[string]time.Time
	err     error
}

var _ RedisClient = (*fakeRedis)(nil)

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		now:     time.Unix(1_700_000_000, 0),
		vals:    map[string]string{},
		counts:  map[string]int64{},
		expires: map[string]time.Time{},
	}
}

func (f *fakeRedis) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fakeRedis) expire(key string) {
	if at, ok := f.expires[key]; ok && !f.now.Before(at) {
		delete(f.vals, key)
		delete(f.counts, key)
		delete(f.expires, key)
	}
}

func (f *fakeRedis) Ping(ctx context.Context) error { return f.err }

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	switch v := value.(type) {
	case string:
		f.vals[key] = v
	case []byte:
		f.vals[key] = string(v)
	default:
		return errors.New("unsupported value type")
	}
	if expiration > 0 {
		f.expires[key] = f.now.Add(expiration)
	}
	return nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.expire(key)
	v, ok := f.vals[key]
	if !ok {
		return "", Nil
	}
	return v, nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.vals, k)
		delete(f.counts, k)
		delete(f.expires, k)
	}
	return f.err
}

func (f *fakeRedis) IncrWithExpiry(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, 0, f.err
	}
	f.expire(key)
	f.counts[key]++
	if f.counts[key] == 1 {
		f.expires[key] = f.now.Add(window)
	}
	return f.counts[key], f.expires[key].Sub(f.now), nil
}

func (f *fakeRedis) Close() error { return nil }
