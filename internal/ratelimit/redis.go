package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var windowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

const redisTimeout = 2 * time.Second

// RedisLimiter shares one window across gateway replicas. When Redis is
// unreachable it degrades to a process-local window.
type RedisLimiter struct {
	Client   redis.Scripter
	Limit    int
	Window   time.Duration
	Prefix   string
	Fallback *InMemoryLimiter
	Logger   zerolog.Logger
}

func NewRedis(client redis.Scripter, limit int, win time.Duration, logger zerolog.Logger) *RedisLimiter {
	if limit <= 0 {
		limit = 1
	}
	if win <= 0 {
		win = time.Minute
	}
	return &RedisLimiter{
		Client:   client,
		Limit:    limit,
		Window:   win,
		Prefix:   "govgate:rl:",
		Fallback: NewInMemory(limit, win),
		Logger:   logger,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) Decision {
	if l.Client == nil {
		return l.Fallback.Allow(ctx, key)
	}
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	res, err := windowScript.Run(ctx, l.Client, []string{l.Prefix + key}, l.Window.Milliseconds()).Int64Slice()
	if err != nil || len(res) < 2 {
		l.Logger.Warn().Err(err).Str("key", key).Msg("redis rate limit unavailable, using local window")
		return l.Fallback.Allow(ctx, key)
	}
	count, ttl := int(res[0]), res[1]
	if ttl < 0 {
		ttl = l.Window.Milliseconds()
	}
	return Decision{
		Allowed:   count <= l.Limit,
		Count:     count,
		Limit:     l.Limit,
		Remaining: remaining(l.Limit, count),
		ResetAt:   time.Now().UTC().Add(time.Duration(ttl) * time.Millisecond),
	}
}
