package service

import (
	"errors"

	"adminplus/admin-service/internal/app/admin/tree"
	"adminplus/admin-service/internal/app/admin/util"
)

var (
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrUserDisabled         = errors.New("user is disabled")
	ErrUserNotFound         = errors.New("user not found")
	ErrCaptchaExpired       = errors.New("captcha expired")
	ErrCaptchaMismatch      = errors.New("captcha mismatch")
	ErrTokenBlacklisted     = errors.New("token is blacklisted")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token revoked")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")
	ErrRateLimitExceeded    = errors.New("too many requests")
	ErrStoreUnavailable     = errors.New("token store unavailable")
	ErrPasswordMismatch     = errors.New("old password is incorrect")
	ErrValidation           = errors.New("validation error")
)

// Ошибки нижних слоев, которые обработчики различают напрямую
var (
	ErrTokenExpired     = util.ErrExpiredToken
	ErrTokenInvalid     = util.ErrInvalidToken
	ErrCyclicParent     = tree.ErrCyclicParent
	ErrParentNotFound   = tree.ErrParentNotFound
	ErrNodeNotFound     = tree.ErrNodeNotFound
	ErrHierarchyTooDeep = tree.ErrDepthExceeded
)
