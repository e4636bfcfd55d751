package cache

import (
	"context"
	"time"
)

// NopStore never holds anything. Every lookup misses.
type NopStore struct{}

func (NopStore) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

func (NopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NopStore) Delete(context.Context, ...string) error { return nil }

func (NopStore) Ping(context.Context) error { return nil }

func (NopStore) Close() error { return nil }
