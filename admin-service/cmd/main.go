package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"adminplus/admin-service/internal/app/admin/config"
	"adminplus/admin-service/internal/app/admin/handler"
	"adminplus/admin-service/internal/app/admin/messaging"
	"adminplus/admin-service/internal/app/admin/repository"
	"adminplus/admin-service/internal/app/admin/service"
	"adminplus/admin-service/internal/app/admin/util"
	"adminplus/pkg/logger"
)

const serviceName = "admin-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.LogLevel)

	if cfg.Logstash != "" {
		if err := logger.InitLogstash(cfg.Logstash, serviceName, cfg.LogLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.Logstash).Msg("Connected to Logstash")
		}
	}

	signingKey, err := util.LoadSigningKey(cfg.JWT.PrivateKeyPEM, cfg.JWT.KeyID, cfg.IsProduction())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load JWT signing key")
	}
	if signingKey.Ephemeral {
		logger.Warn().
			Str("kid", signingKey.KeyID).
			Msg("JWT_PRIVATE_KEY is not set, using ephemeral signing key; tokens will not survive restart")
	}

	pool, err := connectDB(context.Background(), cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	gormDB, err := connectGorm(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open gorm session")
	}
	logger.Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.DBName).
		Msg("Connected to PostgreSQL")

	redisClient := connectRedis(cfg.Redis)
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")

	var publisher service.EventPublisher = service.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
		logger.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("Initialized Kafka producer")
	} else {
		logger.Info().Msg("KAFKA_BROKERS is empty, auth events are not published")
	}

	jwtManager := util.NewJWTManager(
		signingKey.PrivateKey,
		signingKey.KeyID,
		cfg.JWT.Issuer,
		cfg.JWT.AccessTokenDuration,
	)

	userRepo := repository.NewUserRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	menuRepo := repository.NewMenuRepository(pool)
	deptRepo := repository.NewDeptRepository(pool)
	refreshRepo := repository.NewRefreshTokenRepository(gormDB)
	blacklistRepo := repository.NewRedisBlacklistRepository(redisClient)
	rateLimitRepo := repository.NewRedisRateLimitRepository(redisClient)

	menuHierarchy, err := repository.NewHierarchyRepository(pool, repository.HierarchyMenu)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to init menu hierarchy")
	}
	deptHierarchy, err := repository.NewHierarchyRepository(pool, repository.HierarchyDept)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to init dept hierarchy")
	}

	var captchaService *service.CaptchaService
	if cfg.Captcha.Enabled {
		captchaService = service.NewCaptchaService(repository.NewRedisCaptchaRepository(redisClient), cfg.Captcha.TTL)
	}

	permissionService := service.NewPermissionService(roleRepo, menuRepo)
	tokenService := service.NewTokenService(jwtManager, refreshRepo, blacklistRepo, cfg.JWT.RefreshTokenDuration)
	authService := service.NewAuthService(userRepo, permissionService, tokenService, captchaService, publisher)
	menuService := service.NewMenuService(permissionService, menuHierarchy)
	deptService := service.NewDeptService(deptRepo, deptHierarchy)
	rateLimiter := service.NewRateLimiter(rateLimitRepo, cfg.RateLimit.FailOpen)

	authHandler := handler.NewAuthHandler(authService)
	hierarchyHandler := handler.NewHierarchyHandler(menuService, deptService)
	authMiddleware := handler.NewAuthMiddleware(authService)

	router := handler.SetupRoutes(authHandler, hierarchyHandler, authMiddleware, handler.RouterOptions{
		Limiter:     rateLimiter,
		LoginRule:   service.Rule{Limit: cfg.RateLimit.LoginMax, Window: cfg.RateLimit.LoginWindow},
		GeneralRule: service.Rule{Limit: cfg.RateLimit.GeneralMax, Window: cfg.RateLimit.GeneralWindow},
		// Выдача кода в ответе допустима только вне production
		CaptchaRoute: cfg.Captcha.Enabled && !cfg.IsProduction(),
	})

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("env", cfg.Env).
			Msg("Starting Admin Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Admin Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Admin Service stopped gracefully")
}

// connectDB устанавливает соединение с PostgreSQL используя pgx connection pool
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	var pool *pgxpool.Pool
	for i := 0; i < 10; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to database, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}

// connectGorm открывает gorm-сессию для refresh-токенов поверх той же базы
func connectGorm(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// connectRedis создает и настраивает Redis клиент
func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
}
