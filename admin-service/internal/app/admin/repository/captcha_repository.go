package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adminplus/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const captchaPrefix = "captcha:"

type redisCaptchaRepository struct {
	client *redis.Client
}

// NewRedisCaptchaRepository создает хранилище капч (ключи captcha:<id>)
func NewRedisCaptchaRepository(client *redis.Client) CaptchaRepository {
	return &redisCaptchaRepository{client: client}
}

// Save сохраняет код капчи с TTL
func (r *redisCaptchaRepository) Save(ctx context.Context, id, code string, ttl time.Duration) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	if err := r.client.Set(ctx, captchaPrefix+id, code, ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to save captcha: %w", err)
	}
	return nil
}

// Take атомарно читает и удаляет капчу: повторное использование невозможно
func (r *redisCaptchaRepository) Take(ctx context.Context, id string) (string, bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGetDel)
	defer timer.ObserveDuration()

	code, err := r.client.GetDel(ctx, captchaPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGetDel)
		return "", false, fmt.Errorf("failed to take captcha: %w", err)
	}

	return code, true, nil
}
