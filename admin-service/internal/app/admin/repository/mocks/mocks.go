package mocks

import (
	"context"
	"time"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/admin-service/internal/app/admin/repository"
	"adminplus/admin-service/internal/app/admin/tree"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository мок для UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

// MockRoleRepository мок для RoleRepository
type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) RoleIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockRoleRepository) EnabledByIDs(ctx context.Context, roleIDs []int64) ([]entity.Role, error) {
	args := m.Called(ctx, roleIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Role), args.Error(1)
}

func (m *MockRoleRepository) MenuIDsByRoles(ctx context.Context, roleIDs []int64) ([]int64, error) {
	args := m.Called(ctx, roleIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockMenuRepository мок для MenuRepository
type MockMenuRepository struct {
	mock.Mock
}

func (m *MockMenuRepository) ListEnabled(ctx context.Context) ([]entity.Menu, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Menu), args.Error(1)
}

func (m *MockMenuRepository) EnabledByIDs(ctx context.Context, ids []int64) ([]entity.Menu, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Menu), args.Error(1)
}

// MockDeptRepository мок для DeptRepository
type MockDeptRepository struct {
	mock.Mock
}

func (m *MockDeptRepository) ListAll(ctx context.Context) ([]entity.Dept, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Dept), args.Error(1)
}

// MockHierarchyRepository вызывает planner на заданном снимке узлов,
// как это делает реальная транзакция
type MockHierarchyRepository struct {
	mock.Mock
	Nodes []entity.HierarchyNode
}

func (m *MockHierarchyRepository) ListNodes(ctx context.Context) ([]entity.HierarchyNode, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.HierarchyNode), args.Error(1)
}

func (m *MockHierarchyRepository) Reparent(ctx context.Context, planner repository.ReparentPlanner) (*tree.Plan, error) {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return planner(m.Nodes)
}

// MockRefreshTokenRepository мок для RefreshTokenRepository
type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, token *entity.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*entity.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) Revoke(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockBlacklistRepository мок для BlacklistRepository
type MockBlacklistRepository struct {
	mock.Mock
}

func (m *MockBlacklistRepository) Add(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	args := m.Called(ctx, token, userID, expiresAt)
	return args.Error(0)
}

func (m *MockBlacklistRepository) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockBlacklistRepository) BlockUser(ctx context.Context, userID int64, at time.Time, ttl time.Duration) error {
	args := m.Called(ctx, userID, at, ttl)
	return args.Error(0)
}

func (m *MockBlacklistRepository) UserBlockedAt(ctx context.Context, userID int64) (time.Time, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

// MockRateLimitRepository мок для RateLimitRepository
type MockRateLimitRepository struct {
	mock.Mock
}

func (m *MockRateLimitRepository) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	args := m.Called(ctx, key, window)
	return args.Get(0).(int64), args.Get(1).(time.Duration), args.Error(2)
}

// MockCaptchaRepository мок для CaptchaRepository
type MockCaptchaRepository struct {
	mock.Mock
}

func (m *MockCaptchaRepository) Save(ctx context.Context, id, code string, ttl time.Duration) error {
	args := m.Called(ctx, id, code, ttl)
	return args.Error(0)
}

func (m *MockCaptchaRepository) Take(ctx context.Context, id string) (string, bool, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Bool(1), args.Error(2)
}
