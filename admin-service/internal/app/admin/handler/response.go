package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/admin-service/internal/app/admin/service"
	"adminplus/pkg/logger"
)

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, entity.Response{
		Code:      status,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

func respondOK(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, "success", data)
}

func abortWith(c *gin.Context, status int, message string) {
	respond(c, status, message, nil)
	c.Abort()
}

// errorMapping - соответствие ошибок сервиса HTTP ответам.
// Порядок важен: проверяется первое совпадение.
var errorMapping = []struct {
	err     error
	status  int
	message string
}{
	{service.ErrValidation, http.StatusBadRequest, "Invalid request"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username or password"},
	{service.ErrCaptchaExpired, http.StatusUnauthorized, "Captcha expired"},
	{service.ErrCaptchaMismatch, http.StatusUnauthorized, "Captcha mismatch"},
	{service.ErrUserDisabled, http.StatusForbidden, "User is disabled"},
	{service.ErrTokenExpired, http.StatusUnauthorized, "Token has expired"},
	{service.ErrTokenInvalid, http.StatusUnauthorized, "Invalid token"},
	{service.ErrTokenBlacklisted, http.StatusUnauthorized, "Token has been revoked"},
	{service.ErrRefreshTokenNotFound, http.StatusUnauthorized, "Refresh token not found"},
	{service.ErrRefreshTokenRevoked, http.StatusUnauthorized, "Refresh token revoked"},
	{service.ErrRefreshTokenExpired, http.StatusUnauthorized, "Refresh token expired"},
	{service.ErrPasswordMismatch, http.StatusBadRequest, "Old password is incorrect"},
	{service.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{service.ErrRateLimitExceeded, http.StatusTooManyRequests, "Too many requests, please try again later"},
	{service.ErrCyclicParent, http.StatusBadRequest, "Node cannot be moved under itself or its descendant"},
	{service.ErrHierarchyTooDeep, http.StatusBadRequest, "Hierarchy is too deep"},
	{service.ErrParentNotFound, http.StatusBadRequest, "Parent not found"},
	{service.ErrNodeNotFound, http.StatusNotFound, "Node not found"},
	{service.ErrStoreUnavailable, http.StatusServiceUnavailable, "Service temporarily unavailable"},
}

// respondError переводит ошибку в ответ. Неизвестные ошибки логируются
// и отдаются клиенту без подробностей.
func respondError(c *gin.Context, err error) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			abortWith(c, m.status, m.message)
			return
		}
	}

	logger.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("Request failed")
	abortWith(c, http.StatusInternalServerError, "Internal server error")
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
