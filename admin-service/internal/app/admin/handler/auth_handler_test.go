package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/admin-service/internal/app/admin/util"
)

func (s *testServer) expectEditor() {
	s.roleRepo.On("RoleIDsByUser", anyCtx, int64(42)).Return([]int64{10}, nil)
	s.roleRepo.On("EnabledByIDs", anyCtx, []int64{10}).Return([]entity.Role{
		{ID: 10, Code: "EDITOR", Status: entity.StatusEnabled},
	}, nil)
	s.roleRepo.On("MenuIDsByRoles", anyCtx, []int64{10}).Return([]int64{3}, nil)
	s.menuRepo.On("EnabledByIDs", anyCtx, []int64{3}).Return([]entity.Menu{
		{ID: 3, ParentID: 2, PermKey: "doc:edit", Type: entity.MenuTypeAction, Status: entity.StatusEnabled},
	}, nil)
}

func decodeLogin(t *testing.T, raw json.RawMessage) entity.LoginResponse {
	t.Helper()
	var resp entity.LoginResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

// ==================== Login Handler Tests ====================

func TestAuthHandler_Login_Success(t *testing.T) {
	// Arrange
	srv := newTestServer(t, serverOptions{})
	srv.userRepo.On("GetByUsername", anyCtx, "alice").Return(testUser(t), nil)
	srv.expectEditor()
	srv.refreshRepo.On("Create", anyCtx, mock.AnythingOfType("*entity.RefreshToken")).Return(nil)

	// Act
	w := srv.do(http.MethodPost, "/auth/login", map[string]string{
		"username": "alice",
		"password": "password123",
	}, nil)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, http.StatusOK, body.Code)
	resp := decodeLogin(t, body.Data)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(7200), resp.ExpiresIn)
	assert.Equal(t, []string{"doc:edit"}, resp.Permissions)
	assert.Equal(t, []string{"EDITOR"}, resp.Roles)
	assert.Equal(t, "alice", resp.User.Username)
	assert.NotEmpty(t, resp.RefreshToken)
}

func TestAuthHandler_Login_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{name: "not json", body: "plain"},
		{name: "missing password", body: map[string]string{"username": "alice"}},
		{name: "username too short", body: map[string]string{"username": "a", "password": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			srv := newTestServer(t, serverOptions{})

			// Act
			w := srv.do(http.MethodPost, "/auth/login", tt.body, nil)

			// Assert
			assert.Equal(t, http.StatusBadRequest, w.Code)
			srv.userRepo.AssertNotCalled(t, "GetByUsername", anyCtx, mock.Anything)
		})
	}
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	// Arrange
	srv := newTestServer(t, serverOptions{})
	srv.userRepo.On("GetByUsername", anyCtx, "alice").Return(testUser(t), nil)

	// Act
	w := srv.do(http.MethodPost, "/auth/login", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	}, nil)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid username or password", decode(t, w).Message)
}

func TestAuthHandler_Login_CaptchaFlow(t *testing.T) {
	// Arrange
	srv := newTestServer(t, serverOptions{captcha: true})
	srv.userRepo.On("GetByUsername", anyCtx, "alice").Return(testUser(t), nil)
	srv.expectEditor()
	srv.refreshRepo.On("Create", anyCtx, mock.Anything).Return(nil)

	issued := srv.do(http.MethodGet, "/auth/captcha", nil, nil)
	require.Equal(t, http.StatusOK, issued.Code)
	var captcha entity.CaptchaResponse
	require.NoError(t, json.Unmarshal(decode(t, issued).Data, &captcha))

	login := func(code string) int {
		return srv.do(http.MethodPost, "/auth/login", map[string]string{
			"username":     "alice",
			"password":     "password123",
			"captcha_id":   captcha.CaptchaID,
			"captcha_code": code,
		}, nil).Code
	}

	// Act
	first := login(captcha.Code)
	replay := srv.do(http.MethodPost, "/auth/login", map[string]string{
		"username":     "alice",
		"password":     "password123",
		"captcha_id":   captcha.CaptchaID,
		"captcha_code": captcha.Code,
	}, nil)

	// Assert
	assert.Equal(t, http.StatusOK, first)
	assert.Equal(t, http.StatusUnauthorized, replay.Code)
	assert.Equal(t, "Captcha expired", decode(t, replay).Message)
}

func TestAuthHandler_CaptchaRouteAbsentWhenDisabled(t *testing.T) {
	// Arrange
	srv := newTestServer(t, serverOptions{})

	// Act
	w := srv.do(http.MethodGet, "/auth/captcha", nil, nil)

	// Assert
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ==================== Refresh Handler Tests ====================

func TestAuthHandler_Refresh_SingleUse(t *testing.T) {
	// Arrange
	srv := newTestServer(t, serverOptions{})
	raw := "refresh-value"
	srv.refreshRepo.On("GetByHash", anyCtx, util.HashToken(raw)).Return(&entity.RefreshToken{
		ID:         100,
		UserID:     42,
		Token:      util.HashToken(raw),
		ExpiryDate: time.Now().Add(time.Hour),
	}, nil)
	srv.refreshRepo.On("Revoke", anyCtx, int64(100)).Return(true, nil).Once()
	srv.refreshRepo.On("Revoke", anyCtx, int64(100)).Return(false, nil).Once()
	srv.refreshRepo.On("Create", anyCtx, mock.Anything).Return(nil)
	srv.userRepo.On("GetByID", anyCtx, int64(42)).Return(testUser(t), nil)
	srv.expectEditor()

	// Act
	first := srv.do(http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": raw}, nil)
	second := srv.do(http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": raw}, nil)

	// Assert
	require.Equal(t, http.StatusOK, first.Code)
	resp := decodeLogin(t, decode(t, first).Data)
	assert.NotEqual(t, raw, resp.RefreshToken)
	assert.NotEmpty(t, resp.AccessToken)

	assert.Equal(t, http.StatusUnauthorized, second.Code)
	assert.Equal(t, "Refresh token revoked", decode(t, second).Message)
}

// ==================== Logout Handler Tests ====================

func TestAuthHandler_Logout_BlacklistsToken(t *testing.T) {
	// Arrange
	srv := newTestServer(t, serverOptions{})
	token := srv.accessToken(t, []string{"EDITOR"}, []string{"doc:edit"})
	srv.refreshRepo.On("RevokeAllForUser", anyCtx, int64(42)).Return(int64(1), nil)

	// Act
	logout := srv.do(http.MethodPost, "/auth/logout", nil, bearer(token))
	after := srv.do(http.MethodGet, "/auth/permissions", nil, bearer(token))

	// Assert
	assert.Equal(t, http.StatusOK, logout.Code)
	assert.Equal(t, http.StatusUnauthorized, after.Code)
	assert.Equal(t, "Token has been revoked", decode(t, after).Message)
	assert.True(t, srv.miniRedis.Exists("blacklist:token:"+util.HashToken(token)))
	srv.refreshRepo.AssertExpectations(t)
}

// ==================== Password Handler Tests ====================

func TestAuthHandler_ChangePassword_InvalidatesCurrentToken(t *testing.T) {
	// Arrange
	srv := newTestServer(t, serverOptions{})
	token := srv.accessToken(t, []string{"EDITOR"}, nil)
	srv.userRepo.On("GetByID", anyCtx, int64(42)).Return(testUser(t), nil)
	srv.userRepo.On("UpdatePassword", anyCtx, int64(42), mock.AnythingOfType("string")).Return(nil)
	srv.refreshRepo.On("RevokeAllForUser", anyCtx, int64(42)).Return(int64(2), nil)

	// Act
	w := srv.do(http.MethodPut, "/auth/password", map[string]string{
		"old_password": "password123",
		"new_password": "brand-new-password",
	}, bearer(token))
	after := srv.do(http.MethodGet, "/auth/me", nil, bearer(token))

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusUnauthorized, after.Code)
}

func TestAuthHandler_ChangePassword_SamePasswordRejected(t *testing.T) {
	// Arrange
	srv := newTestServer(t, serverOptions{})
	token := srv.accessToken(t, nil, nil)

	// Act
	w := srv.do(http.MethodPut, "/auth/password", map[string]string{
		"old_password": "password123",
		"new_password": "password123",
	}, bearer(token))

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
	srv.userRepo.AssertNotCalled(t, "GetByID", anyCtx, int64(42))
}

// ==================== Me Handler Tests ====================

func TestAuthHandler_Me(t *testing.T) {
	// Arrange
	srv := newTestServer(t, serverOptions{})
	token := srv.accessToken(t, nil, nil)
	srv.userRepo.On("GetByID", anyCtx, int64(42)).Return(testUser(t), nil)

	// Act
	w := srv.do(http.MethodGet, "/auth/me", nil, bearer(token))

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var user entity.UserSummary
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &user))
	assert.Equal(t, "Alice", user.Nickname)
}

func TestAuthHandler_Permissions_FromToken(t *testing.T) {
	// Arrange
	srv := newTestServer(t, serverOptions{})
	token := srv.accessToken(t, []string{"EDITOR"}, []string{"doc:edit", "doc:view"})

	// Act
	w := srv.do(http.MethodGet, "/auth/permissions", nil, bearer(token))

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var set entity.PermissionSet
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &set))
	assert.Equal(t, []string{"EDITOR"}, set.RoleCodes)
	assert.Equal(t, []string{"doc:edit", "doc:view"}, set.PermissionKeys)
	// Хранилище пользователей не используется
	srv.userRepo.AssertNumberOfCalls(t, "GetByID", 0)
}

// ==================== Revoke Sessions Tests ====================

func TestAuthHandler_RevokeSessions_RequiresSuperRole(t *testing.T) {
	// Arrange
	srv := newTestServer(t, serverOptions{})
	editor := srv.accessToken(t, []string{"EDITOR"}, []string{"system:user:edit"})

	// Act
	w := srv.do(http.MethodPost, "/system/users/7/revoke-sessions", nil, bearer(editor))

	// Assert
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthHandler_RevokeSessions_Admin(t *testing.T) {
	// Arrange
	srv := newTestServer(t, serverOptions{})
	admin := srv.accessToken(t, []string{entity.SuperRoleCode}, nil)
	srv.userRepo.On("GetByID", anyCtx, int64(7)).Return(&entity.User{ID: 7, Username: "bob", Status: entity.StatusEnabled}, nil)
	srv.refreshRepo.On("RevokeAllForUser", anyCtx, int64(7)).Return(int64(1), nil)

	// Act
	w := srv.do(http.MethodPost, "/system/users/7/revoke-sessions", nil, bearer(admin))

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, srv.miniRedis.Exists("blacklist:user:7"))
}

func TestAuthHandler_RevokeSessions_InvalidID(t *testing.T) {
	// Arrange
	srv := newTestServer(t, serverOptions{})
	admin := srv.accessToken(t, []string{entity.SuperRoleCode}, nil)

	// Act
	w := srv.do(http.MethodPost, "/system/users/abc/revoke-sessions", nil, bearer(admin))

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
