// Package cache defines the byte-oriented cache port behind TaskMate's read
// models. Implementations: ristretto (L1), natskv (L2) and tiered.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values by key. Get reports a miss with ok=false and a
// nil error; an error means the backend itself failed.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
