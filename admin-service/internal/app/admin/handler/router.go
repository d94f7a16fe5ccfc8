package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/admin-service/internal/app/admin/service"
	"adminplus/pkg/logger"
	"adminplus/pkg/metrics"
)

// Ключи разрешений, проверяемые маршрутами
const (
	PermMenuEdit = "system:menu:edit"
	PermDeptList = "system:dept:list"
	PermDeptEdit = "system:dept:edit"
)

// RouterOptions - параметры маршрутизации, зависящие от конфигурации
type RouterOptions struct {
	Limiter      *service.RateLimiter
	LoginRule    service.Rule
	GeneralRule  service.Rule
	CaptchaRoute bool
}

// SetupRoutes настраивает все маршруты приложения с использованием Gin
func SetupRoutes(
	authHandler *AuthHandler,
	hierarchyHandler *HierarchyHandler,
	authMiddleware *AuthMiddleware,
	opts RouterOptions,
) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware("admin-service"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowWildcard:    true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "admin-service",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	general := RateLimit(opts.Limiter, service.ScopeGeneral, opts.GeneralRule)

	// Публичные эндпоинты. Вход ограничивается отдельным, более строгим окном.
	auth := router.Group("/auth")
	{
		auth.POST("/login", RateLimit(opts.Limiter, service.ScopeLogin, opts.LoginRule), authHandler.Login)
		auth.POST("/refresh", general, authHandler.Refresh)
		if opts.CaptchaRoute {
			auth.GET("/captcha", general, authHandler.Captcha)
		}

		protected := auth.Group("")
		protected.Use(general, authMiddleware.Authenticate())
		{
			protected.POST("/logout", authHandler.Logout)
			protected.GET("/me", authHandler.Me)
			protected.GET("/permissions", authHandler.Permissions)
			protected.PUT("/password", authHandler.ChangePassword)
		}
	}

	system := router.Group("/system")
	system.Use(general, authMiddleware.Authenticate())
	{
		system.GET("/menus/tree", hierarchyHandler.MenuTree)
		system.PUT("/menus/:id/parent", authMiddleware.RequirePermission(PermMenuEdit), hierarchyHandler.MoveMenu)

		system.GET("/depts/tree", authMiddleware.RequirePermission(PermDeptList), hierarchyHandler.DeptTree)
		system.PUT("/depts/:id/parent", authMiddleware.RequirePermission(PermDeptEdit), hierarchyHandler.MoveDept)

		system.POST("/users/:id/revoke-sessions", authMiddleware.RequireRole(entity.SuperRoleCode), authHandler.RevokeSessions)
	}

	return router
}
