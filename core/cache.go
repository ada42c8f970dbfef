package core

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrCacheMiss is returned by Cache.Get when a key is absent.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache is a key-value store capability. Session entries (keyed by user ID)
// are authoritative for "is logged in"; content entries carry a TTL.
// A zero ttl means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
