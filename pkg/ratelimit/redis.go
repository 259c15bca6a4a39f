package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Fixed window with no increment past the limit.
// KEYS[1] = counter key
// ARGV[1] = window in milliseconds
// ARGV[2] = max requests per window
// Returns: {allowed (0|1), count, pttl_ms}
const fixedWindowLuaScript = `
local limit = tonumber(ARGV[2])
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
if count >= limit then
    return {0, count, redis.call('PTTL', KEYS[1])}
end
count = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if count == 1 or ttl < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
    ttl = tonumber(ARGV[1])
end
return {1, count, ttl}
`

var fixedWindowScript = goredis.NewScript(fixedWindowLuaScript)

// RedisStore shares windows between processes through Redis.
type RedisStore struct {
	client    *goredis.Client
	cfg       Config
	keyPrefix string
}

// NewRedisStore creates a Redis-backed limiter. keyPrefix defaults to "rl:contact:".
func NewRedisStore(client *goredis.Client, cfg Config, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "rl:contact:"
	}
	return &RedisStore{client: client, cfg: cfg.withDefaults(), keyPrefix: keyPrefix}
}

// Allow implements Limiter.
func (s *RedisStore) Allow(ctx context.Context, key string) (Decision, error) {
	result, err := fixedWindowScript.Run(ctx, s.client,
		[]string{s.keyPrefix + key},
		s.cfg.Window.Milliseconds(), s.cfg.Max,
	).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("redis rate limit eval failed: %w", err)
	}

	arr, ok := result.([]interface{})
	if !ok || len(arr) < 3 {
		return Decision{}, fmt.Errorf("unexpected redis result format")
	}

	allowed, _ := arr[0].(int64)
	count, _ := arr[1].(int64)
	ttl, _ := arr[2].(int64)
	if ttl < 0 {
		ttl = 0
	}

	return Decision{
		Allowed: allowed == 1,
		Count:   int(count),
		Limit:   s.cfg.Max,
		ResetAt: time.Now().Add(time.Duration(ttl) * time.Millisecond),
	}, nil
}
