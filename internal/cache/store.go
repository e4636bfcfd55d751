package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Store.Get when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is the key/value boundary every cache backend implements.
// Values are opaque bytes; expiry is set per entry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}
