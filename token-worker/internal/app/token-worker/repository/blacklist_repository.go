package repository

import (
	"context"
	"fmt"
	"time"

	"adminplus/pkg/metrics"
	"adminplus/token-worker/internal/app/token-worker/entity"

	"github.com/redis/go-redis/v9"
)

type sessionBlacklistRepository struct {
	client *redis.Client
}

// NewSessionBlacklistRepository создает репозиторий меток блокировки в Redis
func NewSessionBlacklistRepository(client *redis.Client) SessionBlacklistRepository {
	return &sessionBlacklistRepository{client: client}
}

// BlockUser пишет unix millis момента блокировки. Значение только растет:
// более старая метка не перетирает свежую, выставленную admin-service.
func (r *sessionBlacklistRepository) BlockUser(ctx context.Context, userID int64, at time.Time, ttl time.Duration) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpEval)
	defer timer.ObserveDuration()

	key := entity.GetRedisKeyForUserBlock(userID)
	if err := blockUserScript.Run(ctx, r.client, []string{key}, at.UnixMilli(), ttl.Milliseconds()).Err(); err != nil && err != redis.Nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpEval)
		return fmt.Errorf("failed to set user block marker: %w", err)
	}

	return nil
}

var blockUserScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local at = tonumber(ARGV[1])
if at > current then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
	return 1
end
return 0
`)
