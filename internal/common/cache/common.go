package cache

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// GetWithCached implements the cache-aside pattern. On a miss it calls fn and
// stores the marshaled result. Values rejected by cacheable are returned but
// not stored, and cache failures never fail the call. An entry that no longer
// unmarshals is evicted before fn runs.
func GetWithCached[T any](
	ctx context.Context,
	cache BasicOps,
	key string,
	ttl time.Duration,
	cacheable func(T) bool,
	marshal func(T) (string, error),
	unmarshal func(string) (T, error),
	fn func(context.Context) (T, error),
) (T, bool, error) {
	if cached, err := cache.Get(ctx, key); err == nil && cached != "" {
		if result, err := unmarshal(cached); err == nil {
			return result, true, nil
		}
		_ = cache.Del(ctx, key)
	}

	result, err := fn(ctx)
	if err != nil {
		return result, false, err
	}
	if cacheable != nil && !cacheable(result) {
		return result, false, nil
	}
	if data, err := marshal(result); err == nil {
		_ = cache.Set(ctx, key, data, JitterTTL(ttl))
	}
	return result, false, nil
}

// JitterTTL shortens ttl by up to 10% so related keys do not expire together.
func JitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	maxJitter := int64(ttl / 10)
	if maxJitter <= 0 {
		return ttl
	}
	n, err := rand.Int(rand.Reader, big.NewInt(maxJitter+1))
	if err != nil {
		return ttl
	}
	return ttl - time.Duration(n.Int64())
}
