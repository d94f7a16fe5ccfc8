package mocks

import (
	"context"
	"time"

	"adminplus/token-worker/internal/app/token-worker/entity"

	"github.com/stretchr/testify/mock"
)

// MockRefreshTokenRepository мок для RefreshTokenRepository
type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRefreshTokenRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockSessionBlacklistRepository мок для SessionBlacklistRepository
type MockSessionBlacklistRepository struct {
	mock.Mock
}

func (m *MockSessionBlacklistRepository) BlockUser(ctx context.Context, userID int64, at time.Time, ttl time.Duration) error {
	args := m.Called(ctx, userID, at, ttl)
	return args.Error(0)
}

// MockRevocationService мок для service.RevocationServiceInterface
type MockRevocationService struct {
	mock.Mock
}

func (m *MockRevocationService) HandleUserEvent(ctx context.Context, event *entity.UserEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockRevocationService) PurgeRefreshTokens(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
