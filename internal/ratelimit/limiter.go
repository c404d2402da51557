// Package ratelimit implements fixed-window request quotas per caller.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/davidahmann/govgate/internal/preflight"
)

type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Quota converts the decision into the preflight rateLimit signal.
func (d Decision) Quota() *preflight.Quota {
	return &preflight.Quota{Allowed: d.Allowed, Limit: d.Limit, Remaining: d.Remaining}
}

type Limiter interface {
	Allow(ctx context.Context, key string) Decision
}

func remaining(limit, count int) int {
	if r := limit - count; r > 0 {
		return r
	}
	return 0
}

type InMemoryLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
	items  map[string]window
}

type window struct {
	count   int
	resetAt time.Time
}

func NewInMemory(limit int, win time.Duration) *InMemoryLimiter {
	if limit <= 0 {
		limit = 1
	}
	if win <= 0 {
		win = time.Minute
	}
	return &InMemoryLimiter{
		limit:  limit,
		window: win,
		now:    time.Now,
		items:  make(map[string]window),
	}
}

func (l *InMemoryLimiter) Allow(_ context.Context, key string) Decision {
	now := l.now().UTC()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expire(now)

	curr, ok := l.items[key]
	if !ok {
		curr = window{resetAt: now.Add(l.window)}
	}
	curr.count++
	l.items[key] = curr
	return Decision{
		Allowed:   curr.count <= l.limit,
		Count:     curr.count,
		Limit:     l.limit,
		Remaining: remaining(l.limit, curr.count),
		ResetAt:   curr.resetAt,
	}
}

func (l *InMemoryLimiter) expire(now time.Time) {
	for k, v := range l.items {
		if !now.Before(v.resetAt) {
			delete(l.items, k)
		}
	}
}
