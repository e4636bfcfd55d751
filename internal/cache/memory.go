package cache

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"
)

// MemoryConfig sizes the in-process cache.
type MemoryConfig struct {
	Capacity           int
	NumShards          int
	MaxTTL             time.Duration
	EvictionPercentage int
}

// DefaultMemoryConfig returns settings suitable for a single node.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		Capacity:           10000,
		NumShards:          10,
		MaxTTL:             time.Hour,
		EvictionPercentage: 10,
	}
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is an in-process store on top of a sturdyc client. sturdyc
// applies one TTL to the whole client, so each entry also carries its own
// deadline and is treated as absent once that passes.
type MemoryStore struct {
	client *sturdyc.Client[memoryEntry]
	now    func() time.Time
}

// NewMemoryStore creates an in-process store.
func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	def := DefaultMemoryConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.NumShards <= 0 {
		cfg.NumShards = def.NumShards
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = def.MaxTTL
	}
	if cfg.EvictionPercentage <= 0 || cfg.EvictionPercentage > 100 {
		cfg.EvictionPercentage = def.EvictionPercentage
	}
	return &MemoryStore{
		client: sturdyc.New[memoryEntry](cfg.Capacity, cfg.NumShards, cfg.MaxTTL, cfg.EvictionPercentage),
		now:    time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := s.client.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	if !s.now().Before(entry.expiresAt) {
		s.client.Delete(key)
		return nil, ErrMiss
	}
	return entry.data, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data := make([]byte, len(value))
	copy(data, value)
	s.client.Set(key, memoryEntry{data: data, expiresAt: s.now().Add(ttl)})
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}

// Len reports how many entries are held, including expired ones not yet evicted.
func (s *MemoryStore) Len() int {
	return s.client.Size()
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
