package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestInMemoryLimiter(t *testing.T) {
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewInMemory(2, time.Minute)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	first := limiter.Allow(ctx, "alice")
	if !first.Allowed || first.Count != 1 || first.Remaining != 1 {
		t.Fatalf("unexpected first decision: %+v", first)
	}
	second := limiter.Allow(ctx, "alice")
	if !second.Allowed || second.Remaining != 0 {
		t.Fatalf("unexpected second decision: %+v", second)
	}
	third := limiter.Allow(ctx, "alice")
	if third.Allowed || third.Count != 3 || third.Remaining != 0 {
		t.Fatalf("unexpected third decision: %+v", third)
	}
	if other := limiter.Allow(ctx, "bob"); !other.Allowed {
		t.Fatalf("keys must not share a window: %+v", other)
	}

	now = now.Add(time.Minute)
	reset := limiter.Allow(ctx, "alice")
	if !reset.Allowed || reset.Count != 1 {
		t.Fatalf("expected counter reset after window, got %+v", reset)
	}
}

func TestInMemoryLimiterDefaults(t *testing.T) {
	limiter := NewInMemory(0, 0)
	if limiter.limit != 1 || limiter.window != time.Minute {
		t.Fatalf("unexpected defaults: %d %v", limiter.limit, limiter.window)
	}
}

func TestDecisionQuota(t *testing.T) {
	q := Decision{Allowed: false, Limit: 10, Remaining: 0}.Quota()
	if q.Allowed || q.Limit != 10 || q.Remaining != 0 {
		t.Fatalf("unexpected quota: %+v", q)
	}
}

func TestRedisLimiter(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	limiter := NewRedis(client, 2, time.Minute, zerolog.Nop())
	ctx := context.Background()

	first := limiter.Allow(ctx, "alice")
	if !first.Allowed || first.Count != 1 || first.Remaining != 1 {
		t.Fatalf("unexpected first decision: %+v", first)
	}
	limiter.Allow(ctx, "alice")
	third := limiter.Allow(ctx, "alice")
	if third.Allowed || third.Count != 3 {
		t.Fatalf("unexpected third decision: %+v", third)
	}
	if !mr.Exists("govgate:rl:alice") {
		t.Fatalf("expected window key in redis")
	}

	mr.FastForward(time.Minute + time.Second)
	reset := limiter.Allow(ctx, "alice")
	if !reset.Allowed || reset.Count != 1 {
		t.Fatalf("expected reset after expiry, got %+v", reset)
	}
}

func TestRedisLimiterFallsBackWhenUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	limiter := NewRedis(client, 1, time.Minute, zerolog.Nop())
	first := limiter.Allow(context.Background(), "alice")
	second := limiter.Allow(context.Background(), "alice")
	if !first.Allowed || second.Allowed {
		t.Fatalf("expected local window to apply, got %+v then %+v", first, second)
	}
}

func TestRedisLimiterNilClient(t *testing.T) {
	limiter := NewRedis(nil, 1, 0, zerolog.Nop())
	if limiter.Window != time.Minute || limiter.Prefix != "govgate:rl:" {
		t.Fatalf("unexpected defaults: %+v", limiter)
	}
	if d := limiter.Allow(context.Background(), "k"); !d.Allowed {
		t.Fatalf("expected allowed, got %+v", d)
	}
}
