package cache

import (
	"context"
	"time"
)

// RecoveryKV stores form session recovery keys in Redis. Every write renews
// the expiry so abandoned sessions age out on their own.
type RecoveryKV struct {
	cache *RedisCache
	ttl   time.Duration
}

// NewRecoveryKV creates the store; ttl <= 0 keeps keys forever
func NewRecoveryKV(cache *RedisCache, ttl time.Duration) *RecoveryKV {
	if ttl < 0 {
		ttl = 0
	}
	return &RecoveryKV{cache: cache, ttl: ttl}
}

// Get returns the value stored under key
func (kv *RecoveryKV) Get(ctx context.Context, key string) (string, bool, error) {
	return kv.cache.Get(ctx, key)
}

// Set stores value under key
func (kv *RecoveryKV) Set(ctx context.Context, key, value string) error {
	return kv.cache.Set(ctx, key, value, kv.ttl)
}

// Remove deletes key; a missing key is not an error
func (kv *RecoveryKV) Remove(ctx context.Context, key string) error {
	return kv.cache.Delete(ctx, key)
}
