package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/admin-service/internal/app/admin/repository"
	"adminplus/admin-service/internal/app/admin/util"
	"adminplus/pkg/logger"
	"adminplus/pkg/metrics"
)

const tokenTypeBearer = "Bearer"

// TokenService выпускает и проверяет access токены, ведет ротацию refresh
// токенов и черный список.
type TokenService struct {
	jwtManager      *util.JWTManager
	refreshRepo     repository.RefreshTokenRepository
	blacklistRepo   repository.BlacklistRepository
	refreshDuration time.Duration
	now             func() time.Time
}

func NewTokenService(
	jwtManager *util.JWTManager,
	refreshRepo repository.RefreshTokenRepository,
	blacklistRepo repository.BlacklistRepository,
	refreshDuration time.Duration,
) *TokenService {
	return &TokenService{
		jwtManager:      jwtManager,
		refreshRepo:     refreshRepo,
		blacklistRepo:   blacklistRepo,
		refreshDuration: refreshDuration,
		now:             time.Now,
	}
}

// IssuePair выпускает access токен со снимком прав и новый refresh токен
func (s *TokenService) IssuePair(ctx context.Context, user *entity.User, perms *entity.PermissionSet) (*entity.TokenPair, error) {
	accessToken, _, err := s.jwtManager.GenerateAccessToken(util.TokenSubject{
		UserID:      user.ID,
		Username:    user.Username,
		DeptID:      user.DeptID,
		Roles:       perms.RoleCodes,
		Permissions: perms.PermissionKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	metrics.AuthTokensIssued.WithLabelValues("access").Inc()

	refreshToken, err := s.createRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &entity.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(s.jwtManager.GetAccessTokenDuration().Seconds()),
	}, nil
}

// createRefreshToken сохраняет хэш случайного значения, клиенту отдается само значение
func (s *TokenService) createRefreshToken(ctx context.Context, userID int64) (string, error) {
	raw, err := util.GenerateRefreshToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	token := &entity.RefreshToken{
		UserID:     userID,
		Token:      util.HashToken(raw),
		ExpiryDate: s.now().Add(s.refreshDuration),
		Revoked:    false,
	}
	if err := s.refreshRepo.Create(ctx, token); err != nil {
		return "", fmt.Errorf("failed to save refresh token: %w", err)
	}
	metrics.AuthTokensIssued.WithLabelValues("refresh").Inc()

	return raw, nil
}

// ConsumeRefreshToken проверяет refresh токен и атомарно отзывает его.
// Из двух параллельных обменов одного токена успешен только один.
func (s *TokenService) ConsumeRefreshToken(ctx context.Context, raw string) (*entity.RefreshToken, error) {
	stored, err := s.refreshRepo.GetByHash(ctx, util.HashToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			metrics.AuthRefreshExchanges.WithLabelValues("not_found").Inc()
			return nil, ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	if stored.Revoked {
		metrics.AuthRefreshExchanges.WithLabelValues("revoked").Inc()
		logger.Warn().
			Int64("user_id", stored.UserID).
			Int64("token_id", stored.ID).
			Msg("Revoked refresh token presented")
		return nil, ErrRefreshTokenRevoked
	}

	if stored.Expired(s.now()) {
		metrics.AuthRefreshExchanges.WithLabelValues("expired").Inc()
		return nil, ErrRefreshTokenExpired
	}

	revoked, err := s.refreshRepo.Revoke(ctx, stored.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if !revoked {
		metrics.AuthRefreshExchanges.WithLabelValues("revoked").Inc()
		logger.Warn().
			Int64("user_id", stored.UserID).
			Int64("token_id", stored.ID).
			Msg("Concurrent refresh token exchange lost the race")
		return nil, ErrRefreshTokenRevoked
	}

	metrics.AuthRefreshExchanges.WithLabelValues("success").Inc()
	return stored, nil
}

// RevokeAll отзывает все активные refresh токены пользователя
func (s *TokenService) RevokeAll(ctx context.Context, userID int64) (int64, error) {
	count, err := s.refreshRepo.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return count, nil
}

// Blacklist кладет токен в черный список до конца его срока действия
func (s *TokenService) Blacklist(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	if err := s.blacklistRepo.Add(ctx, token, userID, expiresAt); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// BlockUser делает недействительными все выданные пользователю access токены.
// Отметка живет столько же, сколько самый свежий из них.
func (s *TokenService) BlockUser(ctx context.Context, userID int64) error {
	ttl := s.jwtManager.GetAccessTokenDuration()
	if err := s.blacklistRepo.BlockUser(ctx, userID, s.now(), ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Validate проверяет подпись и срок, затем черный список токена и отметку пользователя.
// Недоступность хранилища означает отказ.
func (s *TokenService) Validate(ctx context.Context, token string) (*entity.Principal, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	blacklisted, err := s.blacklistRepo.IsBlacklisted(ctx, token)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", claims.UserID).Msg("Blacklist lookup failed")
		return nil, ErrStoreUnavailable
	}
	if blacklisted {
		metrics.AuthBlacklistHits.Inc()
		return nil, ErrTokenBlacklisted
	}

	blockedAt, blocked, err := s.blacklistRepo.UserBlockedAt(ctx, claims.UserID)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", claims.UserID).Msg("User marker lookup failed")
		return nil, ErrStoreUnavailable
	}

	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	if blocked && !issuedAt.After(blockedAt) {
		metrics.AuthBlacklistHits.Inc()
		return nil, ErrTokenBlacklisted
	}

	return &entity.Principal{
		ID:          claims.UserID,
		Username:    claims.Subject,
		DeptID:      claims.DeptID,
		RoleCodes:   claims.Roles,
		Permissions: claims.Permissions,
		TokenID:     claims.ID,
		IssuedAt:    issuedAt,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}
