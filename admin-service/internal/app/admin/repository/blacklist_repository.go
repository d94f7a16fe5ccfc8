package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"adminplus/admin-service/internal/app/admin/util"
	"adminplus/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	blacklistTokenPrefix = "blacklist:token:"
	blacklistUserPrefix  = "blacklist:user:"
)

type redisBlacklistRepository struct {
	client *redis.Client
}

// NewRedisBlacklistRepository создает черный список на Redis.
// Ключи токенов хранят SHA-256, а не сам токен.
func NewRedisBlacklistRepository(client *redis.Client) BlacklistRepository {
	return &redisBlacklistRepository{client: client}
}

func blacklistTokenKey(token string) string {
	return blacklistTokenPrefix + util.HashToken(token)
}

func blacklistUserKey(userID int64) string {
	return blacklistUserPrefix + strconv.FormatInt(userID, 10)
}

// Add добавляет токен в черный список на оставшееся время его жизни
func (r *redisBlacklistRepository) Add(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	value := fmt.Sprintf("%d:%d", userID, time.Now().UnixMilli())
	if err := r.client.Set(ctx, blacklistTokenKey(token), value, ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	return nil
}

// IsBlacklisted проверяет наличие токена в черном списке
func (r *redisBlacklistRepository) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpExists)
	defer timer.ObserveDuration()

	exists, err := r.client.Exists(ctx, blacklistTokenKey(token)).Result()
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpExists)
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}

	return exists > 0, nil
}

// BlockUser сохраняет отметку времени, до которой все токены пользователя недействительны
func (r *redisBlacklistRepository) BlockUser(ctx context.Context, userID int64, at time.Time, ttl time.Duration) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	if err := r.client.Set(ctx, blacklistUserKey(userID), at.UnixMilli(), ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to block user tokens: %w", err)
	}

	return nil
}

// UserBlockedAt возвращает отметку блокировки пользователя, если она есть
func (r *redisBlacklistRepository) UserBlockedAt(ctx context.Context, userID int64) (time.Time, bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	millis, err := r.client.Get(ctx, blacklistUserKey(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return time.Time{}, false, fmt.Errorf("failed to get user block marker: %w", err)
	}

	return time.UnixMilli(millis), true, nil
}
