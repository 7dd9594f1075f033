package service

import (
	"context"
	"testing"
	"time"

	"codejudge/internal/common/cache"
	pkgerrors "codejudge/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRateLimitServiceWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	c, _ := cache.NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	svc := NewRateLimitService(c, time.Minute, time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.Allow(ctx, "k", 3, 0); err != nil {
			t.Fatalf("hit %d rejected: %v", i+1, err)
		}
	}
	if err := svc.Allow(ctx, "k", 3, 0); !pkgerrors.Is(err, pkgerrors.TooManyRequests) {
		t.Fatalf("fourth hit should be limited, got %v", err)
	}

	mr.FastForward(time.Minute + time.Second)
	if err := svc.Allow(ctx, "k", 3, 0); err != nil {
		t.Fatalf("new window should allow: %v", err)
	}
	if err := svc.Allow(ctx, "other", 0, 0); err != nil {
		t.Fatalf("zero max disables the limit: %v", err)
	}
}

func TestRateLimitServiceWithoutCache(t *testing.T) {
	svc := NewRateLimitService(nil, time.Minute, 0)
	if err := svc.Allow(context.Background(), "k", 1, 0); !pkgerrors.Is(err, pkgerrors.ServiceUnavailable) {
		t.Fatalf("expected ServiceUnavailable, got %v", err)
	}
}
