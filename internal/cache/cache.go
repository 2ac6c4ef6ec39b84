package cache

import (
	"context"
	"time"
)

// Cache is a key-value store with per-entry expiration. Values are opaque
// serialized blobs. Entries may be evicted before their TTL elapses; callers
// must treat a miss as normal.
type Cache interface {
	// Get returns the value for key, with ok=false on a miss or expired entry.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set writes value under key with the given time-to-live.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}
