package cache

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	if err != nil {
		t.Fatalf("new cache failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCacheBasicOps(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if v, err := c.Get(ctx, "missing"); err != nil || v != "" {
		t.Fatalf("missing key: got %q, %v", v, err)
	}
	ok, err := c.SetNX(ctx, "k", 1, time.Minute)
	if err != nil || !ok {
		t.Fatalf("first SetNX: %v %v", ok, err)
	}
	ok, _ = c.SetNX(ctx, "k", 1, time.Minute)
	if ok {
		t.Fatal("second SetNX should not acquire")
	}
	n, err := c.Incr(ctx, "k")
	if err != nil || n != 2 {
		t.Fatalf("Incr = %d, %v", n, err)
	}
	ttl, err := c.TTL(ctx, "k")
	if err != nil || ttl <= 0 {
		t.Fatalf("TTL = %v, %v", ttl, err)
	}
	mr.FastForward(2 * time.Minute)
	if mr.Exists("k") {
		t.Fatal("key should expire")
	}
	if err := c.Del(ctx); err != nil {
		t.Fatalf("Del with no keys: %v", err)
	}
}

func TestNewRedisCacheWithConfig(t *testing.T) {
	if _, err := NewRedisCacheWithConfig(nil); err == nil {
		t.Fatal("nil config should fail")
	}
	mr := miniredis.RunT(t)
	cfg := &RedisConfig{Addr: mr.Addr()}
	cfg.ApplyDefaults()
	if cfg.PoolSize != DefaultRedisConfig().PoolSize {
		t.Errorf("PoolSize = %d", cfg.PoolSize)
	}
	c, err := NewRedisCacheWithConfig(cfg)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer c.Close()
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestGetWithCached(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}
	marshal := func(v int) (string, error) { return strconv.Itoa(v), nil }

	for i := 0; i < 2; i++ {
		v, hit, err := GetWithCached(ctx, c, "answer", time.Minute, nil, marshal, strconv.Atoi, load)
		if err != nil || v != 42 {
			t.Fatalf("round %d: %d %v", i, v, err)
		}
		if hit != (i == 1) {
			t.Errorf("round %d: hit = %v", i, hit)
		}
	}
	if calls != 1 {
		t.Errorf("loader called %d times", calls)
	}

	boom := errors.New("boom")
	_, _, err := GetWithCached(ctx, c, "failing", time.Minute, nil, marshal, strconv.Atoi,
		func(context.Context) (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("loader error not returned: %v", err)
	}

	_, _, _ = GetWithCached(ctx, c, "skipped", time.Minute, func(int) bool { return false }, marshal, strconv.Atoi, load)
	if v, _ := c.Get(ctx, "skipped"); v != "" {
		t.Errorf("uncacheable value stored: %q", v)
	}
}

func TestGetWithCachedEvictsUndecodableEntry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	marshal := func(v int) (string, error) { return strconv.Itoa(v), nil }
	if err := c.Set(ctx, "stale", "not-a-number", time.Minute); err != nil {
		t.Fatalf("seed: %v", err)
	}

	boom := errors.New("boom")
	_, hit, err := GetWithCached(ctx, c, "stale", time.Minute, nil, marshal, strconv.Atoi,
		func(context.Context) (int, error) { return 0, boom })
	if !errors.Is(err, boom) || hit {
		t.Fatalf("got hit=%v err=%v", hit, err)
	}
	if mr.Exists("stale") {
		t.Fatal("undecodable entry should be evicted")
	}

	v, hit, err := GetWithCached(ctx, c, "stale", time.Minute, nil, marshal, strconv.Atoi,
		func(context.Context) (int, error) { return 7, nil })
	if err != nil || hit || v != 7 {
		t.Fatalf("reload: %d %v %v", v, hit, err)
	}
	if got, _ := c.Get(ctx, "stale"); got != "7" {
		t.Errorf("stored = %q", got)
	}
}

func TestJitterTTL(t *testing.T) {
	for i := 0; i < 20; i++ {
		got := JitterTTL(time.Minute)
		if got > time.Minute || got < 54*time.Second {
			t.Fatalf("JitterTTL out of range: %v", got)
		}
	}
	if JitterTTL(0) != 0 {
		t.Error("zero ttl should be unchanged")
	}
}
