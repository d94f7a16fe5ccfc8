package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adminplus/pkg/logger"
	"adminplus/pkg/metrics"
	"adminplus/token-worker/internal/app/token-worker/entity"
	"adminplus/token-worker/internal/app/token-worker/repository"
)

// ErrInvalidEvent - событие без пользователя; повторная обработка не поможет
var ErrInvalidEvent = errors.New("invalid user event")

type RevocationService struct {
	tokens    repository.RefreshTokenRepository
	blacklist repository.SessionBlacklistRepository
	accessTTL time.Duration
	retention time.Duration
	now       func() time.Time
}

// NewRevocationService создает сервис отзыва сессий.
// accessTTL задает время жизни метки блокировки, retention - срок хранения мертвых токенов.
func NewRevocationService(
	tokens repository.RefreshTokenRepository,
	blacklist repository.SessionBlacklistRepository,
	accessTTL time.Duration,
	retention time.Duration,
) *RevocationService {
	return &RevocationService{
		tokens:    tokens,
		blacklist: blacklist,
		accessTTL: accessTTL,
		retention: retention,
		now:       time.Now,
	}
}

// HandleUserEvent отзывает refresh токены и блокирует все выпущенные access токены.
// Типы, не требующие отзыва, подтверждаются без действий.
func (s *RevocationService) HandleUserEvent(ctx context.Context, event *entity.UserEvent) error {
	if event == nil || event.UserID <= 0 {
		metrics.WorkerUserEventsProcessed.WithLabelValues(eventType(event), "invalid").Inc()
		return ErrInvalidEvent
	}

	if !entity.RequiresRevocation(event.EventType) {
		logger.Debug().
			Str("event_id", event.EventID).
			Str("event_type", event.EventType).
			Msg("User event ignored")
		metrics.WorkerUserEventsProcessed.WithLabelValues(event.EventType, "ignored").Inc()
		return nil
	}

	revoked, err := s.tokens.RevokeAllForUser(ctx, event.UserID)
	if err != nil {
		metrics.WorkerUserEventsProcessed.WithLabelValues(event.EventType, "error").Inc()
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}

	// Метка ставится на момент обработки: токены, выпущенные между событием
	// и обработкой, тоже становятся недействительными
	if err := s.blacklist.BlockUser(ctx, event.UserID, s.now(), s.accessTTL); err != nil {
		metrics.WorkerUserEventsProcessed.WithLabelValues(event.EventType, "error").Inc()
		return fmt.Errorf("failed to block user sessions: %w", err)
	}

	logger.Info().
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Int64("user_id", event.UserID).
		Int64("refresh_tokens_revoked", revoked).
		Msg("User sessions revoked")
	metrics.WorkerUserEventsProcessed.WithLabelValues(event.EventType, "success").Inc()

	return nil
}

// PurgeRefreshTokens удаляет токены, истекшие или отозванные раньше now - retention
func (s *RevocationService) PurgeRefreshTokens(ctx context.Context) (int64, error) {
	before := s.now().Add(-s.retention)

	deleted, err := s.tokens.PurgeExpired(ctx, before)
	if err != nil {
		return 0, err
	}

	metrics.WorkerRefreshTokensPurged.Add(float64(deleted))
	logger.Info().
		Int64("deleted", deleted).
		Time("before", before).
		Msg("Refresh tokens purged")

	return deleted, nil
}

func eventType(event *entity.UserEvent) string {
	if event == nil || event.EventType == "" {
		return "unknown"
	}
	return event.EventType
}
