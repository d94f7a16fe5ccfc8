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

	"github.com/google/uuid"
)

// AuthService обрабатывает бизнес-логику аутентификации
type AuthService struct {
	userRepo    repository.UserRepository
	permissions *PermissionService
	tokens      *TokenService
	captcha     *CaptchaService
	publisher   EventPublisher
}

// NewAuthService создает сервис аутентификации.
// captcha == nil отключает проверку капчи при входе.
func NewAuthService(
	userRepo repository.UserRepository,
	permissions *PermissionService,
	tokens *TokenService,
	captcha *CaptchaService,
	publisher EventPublisher,
) *AuthService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &AuthService{
		userRepo:    userRepo,
		permissions: permissions,
		tokens:      tokens,
		captcha:     captcha,
		publisher:   publisher,
	}
}

// Login проверяет капчу и пароль, затем выдает токены со свежим снимком прав
func (s *AuthService) Login(ctx context.Context, req *entity.LoginRequest, clientIP string) (*entity.LoginResponse, error) {
	if s.captcha != nil {
		if err := s.captcha.Verify(ctx, req.CaptchaID, req.CaptchaCode); err != nil {
			if errors.Is(err, ErrCaptchaExpired) || errors.Is(err, ErrCaptchaMismatch) {
				s.loginFailed(ctx, req.Username, clientIP, "captcha", err)
			}
			return nil, err
		}
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Время ответа не должно выдавать существование пользователя
			util.CheckPasswordAgainstDummy(req.Password)
			s.loginFailed(ctx, req.Username, clientIP, "failed", ErrInvalidCredentials)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !util.CheckPassword(req.Password, user.PasswordHash) {
		s.loginFailed(ctx, req.Username, clientIP, "failed", ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	if !user.Enabled() {
		s.loginFailed(ctx, req.Username, clientIP, "disabled", ErrUserDisabled)
		return nil, ErrUserDisabled
	}

	response, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	metrics.AuthLogins.WithLabelValues("success").Inc()
	logger.Info().
		Int64("user_id", user.ID).
		Str("client_ip", clientIP).
		Msg("User logged in")

	s.publish(ctx, &entity.AuthEvent{
		EventType: entity.AuthEventLoginSuccess,
		UserID:    user.ID,
		Username:  user.Username,
		ClientIP:  clientIP,
	})

	return response, nil
}

// Refresh обменивает refresh токен на новую пару.
// Права пересчитываются заново, старый refresh токен отзывается.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, clientIP string) (*entity.LoginResponse, error) {
	stored, err := s.tokens.ConsumeRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.Enabled() {
		return nil, ErrUserDisabled
	}

	response, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, &entity.AuthEvent{
		EventType: entity.AuthEventTokenRefreshed,
		UserID:    user.ID,
		Username:  user.Username,
		ClientIP:  clientIP,
	})

	return response, nil
}

// Logout отзывает все refresh токены пользователя и блокирует предъявленный access токен.
// Без токена блокируются все access токены пользователя.
func (s *AuthService) Logout(ctx context.Context, principal entity.Principal, accessToken, clientIP string) error {
	if _, err := s.tokens.RevokeAll(ctx, principal.ID); err != nil {
		return err
	}

	mode := "token"
	if accessToken != "" {
		if err := s.tokens.Blacklist(ctx, accessToken, principal.ID, principal.ExpiresAt); err != nil {
			return err
		}
	} else {
		mode = "user"
		if err := s.tokens.BlockUser(ctx, principal.ID); err != nil {
			return err
		}
	}

	metrics.AuthLogouts.WithLabelValues(mode).Inc()
	logger.Info().
		Int64("user_id", principal.ID).
		Str("mode", mode).
		Msg("User logged out")

	s.publish(ctx, &entity.AuthEvent{
		EventType: entity.AuthEventLogout,
		UserID:    principal.ID,
		Username:  principal.Username,
		ClientIP:  clientIP,
	})

	return nil
}

// ChangePassword меняет пароль и завершает все сессии пользователя
func (s *AuthService) ChangePassword(ctx context.Context, principal entity.Principal, req *entity.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !util.CheckPassword(req.OldPassword, user.PasswordHash) {
		return ErrPasswordMismatch
	}

	hash, err := util.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.endSessions(ctx, user.ID); err != nil {
		return err
	}

	logger.Info().Int64("user_id", user.ID).Msg("Password changed")
	s.publish(ctx, &entity.AuthEvent{
		EventType: entity.AuthEventPasswordChanged,
		UserID:    user.ID,
		Username:  user.Username,
		ActorID:   principal.ID,
	})

	return nil
}

// RevokeSessions принудительно завершает все сессии пользователя
func (s *AuthService) RevokeSessions(ctx context.Context, actor entity.Principal, userID int64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.endSessions(ctx, user.ID); err != nil {
		return err
	}

	logger.Warn().
		Int64("user_id", user.ID).
		Int64("actor_id", actor.ID).
		Msg("User sessions revoked")
	s.publish(ctx, &entity.AuthEvent{
		EventType: entity.AuthEventSessionsRevoked,
		UserID:    user.ID,
		Username:  user.Username,
		ActorID:   actor.ID,
	})

	return nil
}

// Me возвращает данные текущего пользователя
func (s *AuthService) Me(ctx context.Context, principal entity.Principal) (*entity.UserSummary, error) {
	user, err := s.userRepo.GetByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	summary := toSummary(user)
	return &summary, nil
}

// Authenticate проверяет access токен вместе с черным списком
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*entity.Principal, error) {
	return s.tokens.Validate(ctx, accessToken)
}

// IssueCaptcha выдает капчу для локальной разработки
func (s *AuthService) IssueCaptcha(ctx context.Context) (*entity.CaptchaResponse, error) {
	if s.captcha == nil {
		return nil, fmt.Errorf("%w: captcha is disabled", ErrValidation)
	}
	return s.captcha.Issue(ctx)
}

func (s *AuthService) issue(ctx context.Context, user *entity.User) (*entity.LoginResponse, error) {
	perms, err := s.permissions.Resolve(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.IssuePair(ctx, user, perms)
	if err != nil {
		return nil, err
	}

	return &entity.LoginResponse{
		TokenPair:   *pair,
		User:        toSummary(user),
		Roles:       perms.RoleCodes,
		Permissions: perms.PermissionKeys,
	}, nil
}

func (s *AuthService) endSessions(ctx context.Context, userID int64) error {
	if _, err := s.tokens.RevokeAll(ctx, userID); err != nil {
		return err
	}
	return s.tokens.BlockUser(ctx, userID)
}

func (s *AuthService) loginFailed(ctx context.Context, username, clientIP, status string, reason error) {
	metrics.AuthLogins.WithLabelValues(status).Inc()
	masked := logger.MaskUsername(username)
	logger.Warn().
		Str("username", masked).
		Str("client_ip", clientIP).
		Str("reason", reason.Error()).
		Msg("Login failed")

	s.publish(ctx, &entity.AuthEvent{
		EventType: entity.AuthEventLoginFailed,
		Username:  masked,
		ClientIP:  clientIP,
		Reason:    reason.Error(),
	})
}

// publish не влияет на результат запроса: ошибки только логируются
func (s *AuthService) publish(ctx context.Context, event *entity.AuthEvent) {
	event.EventID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	if err := s.publisher.PublishAuthEvent(ctx, event); err != nil {
		logger.Warn().
			Err(err).
			Str("event_type", string(event.EventType)).
			Msg("Failed to publish auth event")
	}
}

func toSummary(user *entity.User) entity.UserSummary {
	return entity.UserSummary{
		ID:       user.ID,
		Username: user.Username,
		Nickname: user.Nickname,
		DeptID:   user.DeptID,
	}
}
