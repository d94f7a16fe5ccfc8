package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/admin-service/internal/app/admin/service"
)

type AuthHandler struct {
	authService service.AuthServiceInterface
	validator   *validator.Validate
}

func NewAuthHandler(authService service.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator.New(),
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req entity.LoginRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req, clientIP(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, resp)
}

// Refresh возвращает ту же структуру, что и Login, с новым refresh токеном
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req entity.RefreshRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	resp, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken, clientIP(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, resp)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		abortWith(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	token, _ := entity.TokenFromContext(c.Request.Context())

	if err := h.authService.Logout(c.Request.Context(), principal, token, clientIP(c)); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, nil)
}

func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		abortWith(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.authService.Me(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, user)
}

// Permissions отдает роли и разрешения из токена, без обращения к БД
func (h *AuthHandler) Permissions(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		abortWith(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	respondOK(c, entity.PermissionSet{
		RoleCodes:      principal.RoleCodes,
		PermissionKeys: principal.Permissions,
	})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		abortWith(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req entity.ChangePasswordRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), principal, &req); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, nil)
}

func (h *AuthHandler) Captcha(c *gin.Context) {
	resp, err := h.authService.IssueCaptcha(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, resp)
}

func (h *AuthHandler) RevokeSessions(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		abortWith(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	userID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.authService.RevokeSessions(c.Request.Context(), principal, userID); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, nil)
}

func bindAndValidate(c *gin.Context, v *validator.Validate, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abortWith(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := v.Struct(req); err != nil {
		abortWith(c, http.StatusBadRequest, formatValidationError(err))
		return false
	}
	return true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortWith(c, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}
