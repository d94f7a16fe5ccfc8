package service

import (
	"context"

	"adminplus/token-worker/internal/app/token-worker/entity"
)

// RevocationServiceInterface определяет операции worker над сессиями
type RevocationServiceInterface interface {
	// HandleUserEvent завершает сессии пользователя, если этого требует событие
	HandleUserEvent(ctx context.Context, event *entity.UserEvent) error
	// PurgeRefreshTokens удаляет истекшие и давно отозванные refresh токены
	PurgeRefreshTokens(ctx context.Context) (int64, error)
}

var _ RevocationServiceInterface = (*RevocationService)(nil)
