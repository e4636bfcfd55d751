package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultOpTimeout bounds each store call when no timeout is configured.
const DefaultOpTimeout = 250 * time.Millisecond

// Aside runs the cache-aside protocol over a Store. A cache failure never
// fails the caller: lookups degrade to misses and writes to the cache are
// best effort.
type Aside struct {
	store     Store
	logger    *zap.Logger
	opTimeout time.Duration
}

// NewAside builds the cache-aside layer. A nil store disables caching.
func NewAside(store Store, logger *zap.Logger, opTimeout time.Duration) *Aside {
	if store == nil {
		store = NopStore{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	return &Aside{store: store, logger: logger.Named("cache"), opTimeout: opTimeout}
}

// Store returns the underlying backend.
func (a *Aside) Store() Store {
	return a.store
}

// Validator is implemented by cached values that can tell a real entry from
// a zero value decoded out of a payload such as "null" or "{}".
type Validator interface {
	Valid() bool
}

// Loader reads the authoritative value. found is false when the value does
// not exist; that outcome is returned to the caller but never cached.
type Loader[T any] func(ctx context.Context) (value T, found bool, err error)

// Fetch returns the cached value for key, or loads it and populates the
// cache on a miss. Each step runs at most once per call. Entries that fail
// to decode, or decode to a value whose Valid method reports false, are
// misses.
func Fetch[T any](ctx context.Context, a *Aside, key string, ttl time.Duration, load Loader[T]) (T, bool, error) {
	if cached, ok := lookup[T](ctx, a, key); ok {
		return cached, true, nil
	}

	value, found, err := load(ctx)
	if err != nil || !found {
		return value, found, err
	}

	a.populate(ctx, key, value, ttl)
	return value, true, nil
}

func lookup[T any](ctx context.Context, a *Aside, key string) (T, bool) {
	var out T

	opCtx, cancel := context.WithTimeout(ctx, a.opTimeout)
	defer cancel()

	raw, err := a.store.Get(opCtx, key)
	if errors.Is(err, ErrMiss) {
		a.logger.Debug("cache miss", zap.String("key", key))
		return out, false
	}
	if err != nil {
		a.logger.Warn("cache lookup failed, reading from store", zap.String("key", key), zap.Error(err))
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		a.logger.Warn("cache entry undecodable, reading from store", zap.String("key", key), zap.Error(err))
		var zero T
		return zero, false
	}
	if v, ok := any(out).(Validator); ok && !v.Valid() {
		a.logger.Warn("cache entry invalid, reading from store", zap.String("key", key))
		var zero T
		return zero, false
	}
	a.logger.Debug("cache hit", zap.String("key", key))
	return out, true
}

func (a *Aside) populate(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		a.logger.Warn("cache entry not encodable", zap.String("key", key), zap.Error(err))
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, a.opTimeout)
	defer cancel()

	if err := a.store.Set(opCtx, key, raw, ttl); err != nil {
		a.logger.Warn("cache populate failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes keys from the cache. Failures are logged and swallowed;
// stale entries then live until their TTL.
func (a *Aside) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, a.opTimeout)
	defer cancel()

	if err := a.store.Delete(opCtx, keys...); err != nil {
		a.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
		return
	}
	a.logger.Debug("cache invalidated", zap.Strings("keys", keys))
}

// Ping checks the backend within the operation timeout.
func (a *Aside) Ping(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, a.opTimeout)
	defer cancel()
	return a.store.Ping(opCtx)
}
