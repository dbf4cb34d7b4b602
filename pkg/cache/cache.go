package cache

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

// Store is a string key-value store with TTL support.
//
// TTL semantics for Set:
//   - Positive duration: item expires after this duration
//   - Zero or negative: item never expires
type Store interface {
	// Get returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Lookup is a read-through cache over a Store.
type Lookup struct {
	store Store
	group singleflight.Group
	ttl   time.Duration
}

// NewLookup creates a Lookup caching computed values for ttl.
func NewLookup(store Store, ttl time.Duration) *Lookup {
	return &Lookup{store: store, ttl: ttl}
}

// GetOrSet returns the cached value for key, or calls fn to compute it.
// Concurrent misses for the same key share one call of fn. The hit result
// reports whether the value came from the store.
//
// Store failures are not fatal: a failing Get is treated as a miss and a
// failing Set is ignored.
func (l *Lookup) GetOrSet(ctx context.Context, key string, fn func(ctx context.Context) (string, error)) (string, bool, error) {
	if v, err := l.store.Get(ctx, key); err == nil {
		return v, true, nil
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		val, err := fn(ctx)
		if err != nil {
			return "", err
		}
		_ = l.store.Set(ctx, key, val, l.ttl)
		return val, nil
	})
	if err != nil {
		return "", false, err
	}
	return v.(string), false, nil
}

// Invalidate removes key from the store. Missing keys are not an error.
func (l *Lookup) Invalidate(ctx context.Context, key string) error {
	if err := l.store.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}
