package entity

import (
	"context"
	"time"
)

// Principal - аутентифицированный пользователь запроса.
// Создается один раз в middleware из claims access токена.
type Principal struct {
	ID          int64
	Username    string
	DeptID      *int64
	RoleCodes   []string
	Permissions []string
	TokenID     string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

func (p Principal) HasRole(code string) bool {
	for _, r := range p.RoleCodes {
		if r == code {
			return true
		}
	}
	return false
}

// IsSuper - супер-роль проходит любые проверки разрешений
func (p Principal) IsSuper() bool {
	return p.HasRole(SuperRoleCode)
}

func (p Principal) HasPermission(key string) bool {
	if p.IsSuper() {
		return true
	}
	for _, perm := range p.Permissions {
		if perm == key {
			return true
		}
	}
	return false
}

type principalContextKey struct{}
type tokenContextKey struct{}

// ContextWithPrincipal кладет principal в контекст запроса
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, &principal)
}

// PrincipalFromContext достает principal из контекста запроса
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || p == nil {
		return Principal{}, false
	}
	return *p, true
}

// ContextWithToken сохраняет исходный bearer токен
func ContextWithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenContextKey{}, token)
}

func TokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	t, ok := ctx.Value(tokenContextKey{}).(string)
	if !ok || t == "" {
		return "", false
	}
	return t, true
}
