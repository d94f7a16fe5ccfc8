package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/admin-service/internal/app/admin/repository/mocks"
	"adminplus/admin-service/internal/app/admin/util"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const anyCtx = mock.Anything

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func testPrivateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		testKey = key
	})
	return testKey
}

const (
	testAccessDuration  = 2 * time.Hour
	testRefreshDuration = 7 * 24 * time.Hour
)

// recordingPublisher запоминает опубликованные события
type recordingPublisher struct {
	mu     sync.Mutex
	events []*entity.AuthEvent
	err    error
}

func (p *recordingPublisher) PublishAuthEvent(_ context.Context, event *entity.AuthEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []entity.AuthEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]entity.AuthEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

// testEnv - сервисы поверх моков репозиториев
type testEnv struct {
	userRepo      *mocks.MockUserRepository
	roleRepo      *mocks.MockRoleRepository
	menuRepo      *mocks.MockMenuRepository
	refreshRepo   *mocks.MockRefreshTokenRepository
	blacklistRepo *mocks.MockBlacklistRepository
	captchaRepo   *mocks.MockCaptchaRepository
	publisher     *recordingPublisher
	jwtManager    *util.JWTManager
	permissions   *PermissionService
	tokens        *TokenService
	captcha       *CaptchaService
	auth          *AuthService
}

func newTestEnv(t *testing.T, withCaptcha bool) *testEnv {
	t.Helper()
	env := &testEnv{
		userRepo:      new(mocks.MockUserRepository),
		roleRepo:      new(mocks.MockRoleRepository),
		menuRepo:      new(mocks.MockMenuRepository),
		refreshRepo:   new(mocks.MockRefreshTokenRepository),
		blacklistRepo: new(mocks.MockBlacklistRepository),
		captchaRepo:   new(mocks.MockCaptchaRepository),
		publisher:     &recordingPublisher{},
		jwtManager:    util.NewJWTManager(testPrivateKey(t), "test-kid", "adminplus", testAccessDuration),
	}
	env.permissions = NewPermissionService(env.roleRepo, env.menuRepo)
	env.tokens = NewTokenService(env.jwtManager, env.refreshRepo, env.blacklistRepo, testRefreshDuration)
	if withCaptcha {
		env.captcha = NewCaptchaService(env.captchaRepo, 2*time.Minute)
	}
	env.auth = NewAuthService(env.userRepo, env.permissions, env.tokens, env.captcha, env.publisher)
	return env
}

func (e *testEnv) assertExpectations(t *testing.T) {
	e.userRepo.AssertExpectations(t)
	e.roleRepo.AssertExpectations(t)
	e.menuRepo.AssertExpectations(t)
	e.refreshRepo.AssertExpectations(t)
	e.blacklistRepo.AssertExpectations(t)
	e.captchaRepo.AssertExpectations(t)
}

var (
	hashOnce sync.Once
	hashed   string
)

// testPasswordHash кэширует bcrypt хэш пароля "password123"
func testPasswordHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		h, err := util.HashPassword("password123")
		require.NoError(t, err)
		hashed = h
	})
	return hashed
}

func newTestUser(t *testing.T) *entity.User {
	deptID := int64(7)
	return &entity.User{
		ID:           42,
		Username:     "alice",
		Nickname:     "Alice",
		PasswordHash: testPasswordHash(t),
		DeptID:       &deptID,
		Status:       entity.StatusEnabled,
	}
}

func editorRole() entity.Role {
	return entity.Role{ID: 10, Code: "EDITOR", Name: "Editor", Status: entity.StatusEnabled}
}

func docEditMenu() entity.Menu {
	return entity.Menu{
		ID:        3,
		ParentID:  2,
		Name:      "Edit",
		Type:      entity.MenuTypeAction,
		PermKey:   "doc:edit",
		Ancestors: "0,1,2,",
		Status:    entity.StatusEnabled,
	}
}

// expectEditor настраивает пользователю 42 роль EDITOR с разрешением doc:edit
func (e *testEnv) expectEditor() {
	e.roleRepo.On("RoleIDsByUser", anyCtx, int64(42)).Return([]int64{10}, nil)
	e.roleRepo.On("EnabledByIDs", anyCtx, []int64{10}).Return([]entity.Role{editorRole()}, nil)
	e.roleRepo.On("MenuIDsByRoles", anyCtx, []int64{10}).Return([]int64{3}, nil)
	e.menuRepo.On("EnabledByIDs", anyCtx, []int64{3}).Return([]entity.Menu{docEditMenu()}, nil)
}
