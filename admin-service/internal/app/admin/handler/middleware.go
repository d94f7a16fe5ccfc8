package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/admin-service/internal/app/admin/service"
	"adminplus/pkg/logger"
)

type AuthMiddleware struct {
	authService service.AuthServiceInterface
}

func NewAuthMiddleware(authService service.AuthServiceInterface) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Authenticate проверяет bearer токен и кладет principal в контекст запроса
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortWith(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		principal, err := m.authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			return
		}

		ctx := entity.ContextWithPrincipal(c.Request.Context(), *principal)
		ctx = entity.ContextWithToken(ctx, token)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequirePermission пропускает запрос, если в токене есть разрешение.
// Супер-роль проходит всегда.
func (m *AuthMiddleware) RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := entity.PrincipalFromContext(c.Request.Context())
		if !ok {
			abortWith(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if !principal.HasPermission(permission) {
			logger.Warn().
				Int64("user_id", principal.ID).
				Str("permission", permission).
				Str("path", c.FullPath()).
				Msg("Permission denied")
			abortWith(c, http.StatusForbidden, "Insufficient permissions")
			return
		}

		c.Next()
	}
}

func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := entity.PrincipalFromContext(c.Request.Context())
		if !ok {
			abortWith(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		for _, role := range roles {
			if principal.HasRole(role) {
				c.Next()
				return
			}
		}

		abortWith(c, http.StatusForbidden, "Insufficient permissions")
	}
}

// RateLimit ограничивает число запросов клиента в окне для заданного scope
func RateLimit(limiter *service.RateLimiter, scope string, rule service.Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, err := limiter.Allow(c.Request.Context(), scope, clientIP(c), rule)

		c.Header("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))

		if err != nil {
			if decision.RetryAfter > 0 {
				seconds := int64(math.Ceil(decision.RetryAfter.Seconds()))
				c.Header("Retry-After", strconv.FormatInt(seconds, 10))
			}
			respondError(c, err)
			return
		}

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func currentPrincipal(c *gin.Context) (entity.Principal, bool) {
	return entity.PrincipalFromContext(c.Request.Context())
}
