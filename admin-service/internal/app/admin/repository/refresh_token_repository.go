package repository

import (
	"context"
	"errors"
	"fmt"

	"adminplus/admin-service/internal/app/admin/entity"

	"gorm.io/gorm"
)

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository создает репозиторий refresh токенов на GORM
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// Create сохраняет новый токен
func (r *refreshTokenRepository) Create(ctx context.Context, token *entity.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

// GetByHash получает токен по SHA-256 от его значения
func (r *refreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*entity.RefreshToken, error) {
	var token entity.RefreshToken

	result := r.db.WithContext(ctx).Where("token = ?", tokenHash).Take(&token)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", result.Error)
	}

	return &token, nil
}

// Revoke - compare-and-set по флагу revoked.
// Из двух параллельных запросов строку обновит только один.
func (r *refreshTokenRepository) Revoke(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.RefreshToken{}).
		Where("id = ? AND revoked = ?", id, false).
		Update("revoked", true)

	if result.Error != nil {
		return false, fmt.Errorf("failed to revoke refresh token: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// RevokeAllForUser отзывает все активные токены пользователя
func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to revoke user refresh tokens: %w", result.Error)
	}

	return result.RowsAffected, nil
}
