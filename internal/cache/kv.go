// Package cache holds the short-lived response cache: a TTL'd KV store
// keyed by operation signature. Caching here is an optimization only;
// every failure is treated as a miss and falls through to the live call.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrMiss reports that a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// KV abstracts the backing store so tests and single-node deployments
// can use the in-memory implementation while shared deployments point
// at Redis.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Key builds a cache key from an operation name and its parameters,
// e.g. Key("reportDetails", fileName).
func Key(op string, params ...string) string {
	if len(params) == 0 {
		return op
	}
	return op + "|" + strings.Join(params, "|")
}
