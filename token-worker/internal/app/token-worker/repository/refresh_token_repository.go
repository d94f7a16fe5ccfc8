package repository

import (
	"context"
	"fmt"
	"time"

	"adminplus/pkg/metrics"
	"adminplus/token-worker/internal/app/token-worker/entity"

	"gorm.io/gorm"
)

const serviceName = "token-worker"

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository создает репозиторий refresh токенов на GORM
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// RevokeAllForUser отзывает все активные токены пользователя
func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, entity.RefreshToken{}.TableName())
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).
		Model(&entity.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return 0, fmt.Errorf("failed to revoke user refresh tokens: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// PurgeExpired удаляет мертвые токены одним запросом
func (r *refreshTokenRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, entity.RefreshToken{}.TableName())
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).
		Where("expiry_date < ? OR (revoked = ? AND created_at < ?)", before, true, before).
		Delete(&entity.RefreshToken{})

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpDelete)
		return 0, fmt.Errorf("failed to purge refresh tokens: %w", result.Error)
	}

	return result.RowsAffected, nil
}
