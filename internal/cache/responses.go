package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Responses layers typed JSON snapshots over a KV. Get/Set never fail
// the caller: a broken cache degrades to re-fetching.
type Responses struct {
	kv  KV
	log *zap.Logger
}

func NewResponses(kv KV, log *zap.Logger) *Responses {
	return &Responses{kv: kv, log: log}
}

// Get unmarshals a fresh-enough cached value into out and reports
// whether it was found.
func (c *Responses) Get(ctx context.Context, key string, out any) bool {
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		if err != ErrMiss {
			c.log.Debug("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		c.log.Debug("cache entry undecodable, dropping", zap.String("key", key), zap.Error(err))
		_ = c.kv.Delete(ctx, key)
		return false
	}
	return true
}

// Set stores v under key for ttl.
func (c *Responses) Set(ctx context.Context, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Debug("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.kv.Set(ctx, key, string(raw), ttl); err != nil {
		c.log.Debug("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes a key; used after mutating operations so the next
// read reflects the backend's new state.
func (c *Responses) Invalidate(ctx context.Context, key string) {
	if err := c.kv.Delete(ctx, key); err != nil {
		c.log.Debug("cache invalidate failed", zap.String("key", key), zap.Error(err))
	}
}
