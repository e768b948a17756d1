package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript 在 redis 內原子地補充並扣除 token
// KEYS[1] bucket key
// ARGV: capacity, refill/秒, 現在 (ms), ttl (ms)
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
local tokens = tonumber(bucket[1])
local last = tonumber(bucket[2])
if tokens == nil then
	tokens = capacity
	last = now
end

local elapsed = math.max(0, now - last) / 1000
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call('HSET', key, 'tokens', tostring(tokens), 'last_refill', tostring(now))
redis.call('PEXPIRE', key, ttl)
return allowed
`)

type RedisTokenBucket struct {
	client redis.Scripter
	cfg    Config
	now    func() time.Time
}

var _ Limiter = (*RedisTokenBucket)(nil)

func NewRedisTokenBucket(client redis.Scripter, cfg Config) (*RedisTokenBucket, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: redis client is nil", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RedisTokenBucket{client: client, cfg: cfg, now: time.Now}, nil
}

func (r *RedisTokenBucket) Allow(ctx context.Context, key string) (bool, error) {
	res, err := tokenBucketScript.Run(ctx, r.client,
		[]string{r.cfg.KeyPrefix + key},
		r.cfg.Capacity,
		r.cfg.RefillPerSecond,
		r.now().UnixMilli(),
		r.cfg.ttl().Milliseconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit script: %w", err)
	}
	return res == 1, nil
}
