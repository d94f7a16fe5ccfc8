package repository

import (
	"context"
	"time"
)

// RefreshTokenRepository - операции worker над таблицей refresh токенов
type RefreshTokenRepository interface {
	// RevokeAllForUser отзывает все активные токены пользователя
	RevokeAllForUser(ctx context.Context, userID int64) (int64, error)

	// PurgeExpired удаляет токены, истекшие до before, и отозванные токены, созданные до before
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// SessionBlacklistRepository ставит метку блокировки пользователя в Redis
type SessionBlacklistRepository interface {
	// BlockUser делает недействительными все access токены, выпущенные не позже at
	BlockUser(ctx context.Context, userID int64, at time.Time, ttl time.Duration) error
}
