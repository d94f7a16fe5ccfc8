package repository

import (
	"context"
	"errors"
	"time"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/admin-service/internal/app/admin/tree"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)

// UserRepository - чтение учетных записей (sys_user)
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// RoleRepository - роли и связи user-role, role-menu
type RoleRepository interface {
	// RoleIDsByUser возвращает id ролей, назначенных пользователю
	RoleIDsByUser(ctx context.Context, userID int64) ([]int64, error)
	// EnabledByIDs возвращает только включенные роли из списка
	EnabledByIDs(ctx context.Context, roleIDs []int64) ([]entity.Role, error)
	// MenuIDsByRoles - одним запросом для всего набора ролей, без дублей
	MenuIDsByRoles(ctx context.Context, roleIDs []int64) ([]int64, error)
}

// MenuRepository - узлы дерева разрешений (sys_menu)
type MenuRepository interface {
	ListEnabled(ctx context.Context) ([]entity.Menu, error)
	EnabledByIDs(ctx context.Context, ids []int64) ([]entity.Menu, error)
}

// DeptRepository - отделы (sys_dept)
type DeptRepository interface {
	ListAll(ctx context.Context) ([]entity.Dept, error)
}

// HierarchyRepository - материализованные пути одной таблицы-иерархии
type HierarchyRepository interface {
	ListNodes(ctx context.Context) ([]entity.HierarchyNode, error)
	// Reparent строит план по актуальным узлам и применяет его в одной транзакции
	Reparent(ctx context.Context, planner ReparentPlanner) (*tree.Plan, error)
}

// ReparentPlanner рассчитывает план переноса по снимку узлов
type ReparentPlanner func(nodes []entity.HierarchyNode) (*tree.Plan, error)

// RefreshTokenRepository - хранилище refresh токенов (sys_refresh_token)
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *entity.RefreshToken) error
	GetByHash(ctx context.Context, tokenHash string) (*entity.RefreshToken, error)
	// Revoke атомарно переводит revoked=false -> true.
	// false означает, что токен уже был отозван другим запросом.
	Revoke(ctx context.Context, id int64) (bool, error)
	RevokeAllForUser(ctx context.Context, userID int64) (int64, error)
}

// BlacklistRepository - черный список access токенов
type BlacklistRepository interface {
	// Add кладет токен с TTL до expiresAt; истекшие токены не сохраняются
	Add(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	// BlockUser делает недействительными все токены пользователя, выданные не позже at
	BlockUser(ctx context.Context, userID int64, at time.Time, ttl time.Duration) error
	UserBlockedAt(ctx context.Context, userID int64) (time.Time, bool, error)
}

// RateLimitRepository - счетчики фиксированного окна
type RateLimitRepository interface {
	// Increment увеличивает счетчик ключа; первый запрос окна ставит TTL=window
	Increment(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

// CaptchaRepository - одноразовые капчи с TTL
type CaptchaRepository interface {
	Save(ctx context.Context, id, code string, ttl time.Duration) error
	// Take возвращает код и удаляет запись; found=false если записи нет или она истекла
	Take(ctx context.Context, id string) (code string, found bool, err error)
}
