package service

import (
	"context"

	"adminplus/admin-service/internal/app/admin/entity"
)

// EventPublisher отправляет события аутентификации во внешнюю шину
type EventPublisher interface {
	PublishAuthEvent(ctx context.Context, event *entity.AuthEvent) error
}

type AuthServiceInterface interface {
	Login(ctx context.Context, req *entity.LoginRequest, clientIP string) (*entity.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken, clientIP string) (*entity.LoginResponse, error)
	Logout(ctx context.Context, principal entity.Principal, accessToken, clientIP string) error
	ChangePassword(ctx context.Context, principal entity.Principal, req *entity.ChangePasswordRequest) error
	RevokeSessions(ctx context.Context, actor entity.Principal, userID int64) error
	Me(ctx context.Context, principal entity.Principal) (*entity.UserSummary, error)
	Authenticate(ctx context.Context, accessToken string) (*entity.Principal, error)
	IssueCaptcha(ctx context.Context) (*entity.CaptchaResponse, error)
}

type MenuServiceInterface interface {
	UserMenuTree(ctx context.Context, principal entity.Principal) ([]*entity.MenuTreeNode, error)
	Move(ctx context.Context, id, parentID int64) error
}

type DeptServiceInterface interface {
	DeptTree(ctx context.Context, principal entity.Principal) ([]*entity.DeptTreeNode, error)
	Move(ctx context.Context, id, parentID int64) error
}

var (
	_ AuthServiceInterface = (*AuthService)(nil)
	_ MenuServiceInterface = (*MenuService)(nil)
	_ DeptServiceInterface = (*DeptService)(nil)
)

// NoopPublisher используется, когда брокер не настроен
type NoopPublisher struct{}

func (NoopPublisher) PublishAuthEvent(context.Context, *entity.AuthEvent) error {
	return nil
}
