package repository

import (
	"context"
	"fmt"
	"time"

	"adminplus/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript: INCR и установка TTL на первом запросе окна выполняются атомарно.
// Ключ без TTL (например, после сбоя между командами) получает TTL повторно.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

type redisRateLimitRepository struct {
	client *redis.Client
}

// NewRedisRateLimitRepository создает хранилище счетчиков rate limit
func NewRedisRateLimitRepository(client *redis.Client) RateLimitRepository {
	return &redisRateLimitRepository{client: client}
}

// Increment увеличивает счетчик окна и возвращает его значение и оставшийся TTL
func (r *redisRateLimitRepository) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpEval)
	defer timer.ObserveDuration()

	res, err := fixedWindowScript.Run(ctx, r.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpEval)
		return 0, 0, fmt.Errorf("failed to increment rate counter: %w", err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate counter reply: %v", res)
	}

	return res[0], time.Duration(res[1]) * time.Millisecond, nil
}
