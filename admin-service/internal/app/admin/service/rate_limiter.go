package service

import (
	"context"
	"fmt"
	"time"

	"adminplus/admin-service/internal/app/admin/repository"
	"adminplus/pkg/logger"
	"adminplus/pkg/metrics"
)

const (
	ScopeLogin   = "login"
	ScopeGeneral = "general"
)

// Rule - лимит запросов на фиксированное окно
type Rule struct {
	Limit  int64
	Window time.Duration
}

// Decision - результат проверки лимита
type Decision struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	RetryAfter time.Duration
}

// RateLimiter - счетчик фиксированного окна по паре (scope, клиент)
type RateLimiter struct {
	repo     repository.RateLimitRepository
	failOpen bool
}

func NewRateLimiter(repo repository.RateLimitRepository, failOpen bool) *RateLimiter {
	return &RateLimiter{repo: repo, failOpen: failOpen}
}

// Allow учитывает запрос. Запросы 1..Limit проходят, Limit+1 отклоняется
// с ErrRateLimitExceeded до конца окна.
// При отказе хранилища решение зависит от failOpen.
func (l *RateLimiter) Allow(ctx context.Context, scope, clientKey string, rule Rule) (Decision, error) {
	key := fmt.Sprintf("rate_limit:%s:%s", scope, clientKey)

	count, ttl, err := l.repo.Increment(ctx, key, rule.Window)
	if err != nil {
		metrics.RateLimitStoreErrors.WithLabelValues(scope).Inc()
		logger.Error().
			Err(err).
			Str("scope", scope).
			Bool("fail_open", l.failOpen).
			Msg("Rate limit store unavailable")
		if l.failOpen {
			return Decision{Allowed: true, Limit: rule.Limit, Remaining: rule.Limit}, nil
		}
		return Decision{Allowed: false, Limit: rule.Limit}, ErrStoreUnavailable
	}

	if count > rule.Limit {
		metrics.RateLimitRejections.WithLabelValues(scope).Inc()
		logger.Warn().
			Str("scope", scope).
			Str("client_ip", clientKey).
			Int64("count", count).
			Msg("Rate limit exceeded")
		if ttl <= 0 {
			ttl = rule.Window
		}
		return Decision{Allowed: false, Limit: rule.Limit, RetryAfter: ttl}, ErrRateLimitExceeded
	}

	return Decision{
		Allowed:   true,
		Limit:     rule.Limit,
		Remaining: rule.Limit - count,
	}, nil
}
