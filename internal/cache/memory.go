package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Memory is an in-process Cache backed by ristretto. Entries do not survive
// restarts, which matches the best-effort caching contract.
type Memory struct {
	cache *ristretto.Cache
}

func NewMemory() (*Memory, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     64 << 20, // 64 MiB of cached values
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Memory{cache: c}, nil
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, nil
	}
	return s, true, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.cache.SetWithTTL(key, value, int64(len(value)), ttl)
	// Ristretto applies writes asynchronously; wait so a read-after-write
	// within the same chat turn sees the new window.
	m.cache.Wait()
	return nil
}

func (m *Memory) Close() {
	m.cache.Close()
}
