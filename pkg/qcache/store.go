package qcache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key has no value or the value has expired.
var ErrNotFound = errors.New("qcache: key not found")

// Store is the byte-level backend behind the question cache. Values are
// JSON blobs; the cache layer owns serialization. Pattern matching in Keys
// follows Redis glob semantics.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}
