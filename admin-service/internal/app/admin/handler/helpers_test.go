package handler

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/admin-service/internal/app/admin/repository"
	"adminplus/admin-service/internal/app/admin/repository/mocks"
	"adminplus/admin-service/internal/app/admin/service"
	"adminplus/admin-service/internal/app/admin/util"
)

const anyCtx = mock.Anything

func init() {
	gin.SetMode(gin.TestMode)
}

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

// testServer - роутер поверх настоящих сервисов: SQL репозитории замоканы,
// Redis хранилища работают на miniredis
type testServer struct {
	router      *gin.Engine
	miniRedis   *miniredis.Miniredis
	userRepo    *mocks.MockUserRepository
	roleRepo    *mocks.MockRoleRepository
	menuRepo    *mocks.MockMenuRepository
	deptRepo    *mocks.MockDeptRepository
	menuTree    *mocks.MockHierarchyRepository
	deptTree    *mocks.MockHierarchyRepository
	refreshRepo *mocks.MockRefreshTokenRepository
	jwtManager  *util.JWTManager
}

type serverOptions struct {
	loginLimit   int64
	generalLimit int64
	captcha      bool
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()
	if opts.loginLimit == 0 {
		opts.loginLimit = 5
	}
	if opts.generalLimit == 0 {
		opts.generalLimit = 100
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := &testServer{
		miniRedis:   mr,
		userRepo:    new(mocks.MockUserRepository),
		roleRepo:    new(mocks.MockRoleRepository),
		menuRepo:    new(mocks.MockMenuRepository),
		deptRepo:    new(mocks.MockDeptRepository),
		menuTree:    &mocks.MockHierarchyRepository{},
		deptTree:    &mocks.MockHierarchyRepository{},
		refreshRepo: new(mocks.MockRefreshTokenRepository),
		jwtManager:  util.NewJWTManager(testPrivateKey(t), "test-kid", "adminplus", 2*time.Hour),
	}

	permissions := service.NewPermissionService(s.roleRepo, s.menuRepo)
	tokens := service.NewTokenService(s.jwtManager, s.refreshRepo, repository.NewRedisBlacklistRepository(client), 7*24*time.Hour)
	var captcha *service.CaptchaService
	if opts.captcha {
		captcha = service.NewCaptchaService(repository.NewRedisCaptchaRepository(client), 2*time.Minute)
	}
	authService := service.NewAuthService(s.userRepo, permissions, tokens, captcha, nil)

	s.router = SetupRoutes(
		NewAuthHandler(authService),
		NewHierarchyHandler(
			service.NewMenuService(permissions, s.menuTree),
			service.NewDeptService(s.deptRepo, s.deptTree),
		),
		NewAuthMiddleware(authService),
		RouterOptions{
			Limiter:      service.NewRateLimiter(repository.NewRedisRateLimitRepository(client), true),
			LoginRule:    service.Rule{Limit: opts.loginLimit, Window: time.Minute},
			GeneralRule:  service.Rule{Limit: opts.generalLimit, Window: time.Minute},
			CaptchaRoute: opts.captcha,
		},
	)
	return s
}

// accessToken выпускает токен напрямую, минуя вход
func (s *testServer) accessToken(t *testing.T, roles, perms []string) string {
	t.Helper()
	deptID := int64(2)
	token, _, err := s.jwtManager.GenerateAccessToken(util.TokenSubject{
		UserID:      42,
		Username:    "alice",
		DeptID:      &deptID,
		Roles:       roles,
		Permissions: perms,
	})
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:54321"
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// envelope - разобранный ответ с произвольным data
type envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

var (
	hashOnce sync.Once
	hashed   string
)

func testUser(t *testing.T) *entity.User {
	t.Helper()
	hashOnce.Do(func() {
		h, err := util.HashPassword("password123")
		require.NoError(t, err)
		hashed = h
	})
	return &entity.User{
		ID:           42,
		Username:     "alice",
		Nickname:     "Alice",
		PasswordHash: hashed,
		Status:       entity.StatusEnabled,
	}
}
