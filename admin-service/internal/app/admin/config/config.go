package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config содержит все настройки приложения
type Config struct {
	Env       string
	LogLevel  string
	Logstash  string
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Captcha   CaptchaConfig
	Kafka     KafkaConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig - настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig - настройки подключения к Redis
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig - ключ подписи и сроки жизни токенов.
// PrivateKeyPEM пустой только в режиме разработки.
type JWTConfig struct {
	PrivateKeyPEM        string
	KeyID                string
	Issuer               string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

// RateLimitConfig - окна для входа и для остального трафика
type RateLimitConfig struct {
	LoginMax      int64
	LoginWindow   time.Duration
	GeneralMax    int64
	GeneralWindow time.Duration
	FailOpen      bool // пропускать запросы, если Redis недоступен
}

type CaptchaConfig struct {
	Enabled bool
	TTL     time.Duration
}

type KafkaConfig struct {
	Brokers []string // пустой список отключает публикацию событий
	Topic   string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	var errs []error
	duration := func(key, def string) time.Duration {
		d, err := getEnvDuration(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}

	privateKey, err := loadPrivateKey()
	if err != nil {
		errs = append(errs, err)
	}

	cfg := &Config{
		Env:      strings.ToLower(getEnv("APP_ENV", "dev")),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Logstash: getEnv("LOGSTASH_ADDR", ""),
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "adminplus"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			PrivateKeyPEM:        privateKey,
			KeyID:                getEnv("JWT_KEY_ID", ""),
			Issuer:               getEnv("JWT_ISSUER", "adminplus"),
			AccessTokenDuration:  duration("JWT_ACCESS_DURATION", "2h"),
			RefreshTokenDuration: duration("JWT_REFRESH_DURATION", "168h"), // 7 дней
		},
		RateLimit: RateLimitConfig{
			LoginMax:      int64(getEnvInt("RATE_LIMIT_LOGIN_MAX", 5)),
			LoginWindow:   duration("RATE_LIMIT_LOGIN_WINDOW", "60s"),
			GeneralMax:    int64(getEnvInt("RATE_LIMIT_GENERAL_MAX", 100)),
			GeneralWindow: duration("RATE_LIMIT_GENERAL_WINDOW", "60s"),
			FailOpen:      getEnvBool("RATE_LIMIT_FAIL_OPEN", true),
		},
		Captcha: CaptchaConfig{
			Enabled: getEnvBool("CAPTCHA_ENABLED", true),
			TTL:     duration("CAPTCHA_TTL", "2m"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_AUTH_EVENTS_TOPIC", "auth_events"),
		},
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	positive := map[string]time.Duration{
		"JWT_ACCESS_DURATION":       c.JWT.AccessTokenDuration,
		"JWT_REFRESH_DURATION":      c.JWT.RefreshTokenDuration,
		"RATE_LIMIT_LOGIN_WINDOW":   c.RateLimit.LoginWindow,
		"RATE_LIMIT_GENERAL_WINDOW": c.RateLimit.GeneralWindow,
		"CAPTCHA_TTL":               c.Captcha.TTL,
	}
	for key, d := range positive {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", key))
		}
	}
	if c.JWT.RefreshTokenDuration <= c.JWT.AccessTokenDuration {
		errs = append(errs, errors.New("JWT_REFRESH_DURATION must exceed JWT_ACCESS_DURATION"))
	}
	if c.RateLimit.LoginMax <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_LOGIN_MAX must be positive"))
	}
	if c.RateLimit.GeneralMax <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_GENERAL_MAX must be positive"))
	}
	return errs
}

// IsProduction - в production ключ подписи обязателен, а капча выдается внешним сервисом
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес сервера в формате host:port
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// ConnString - строка подключения для pgx
func (c *DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// DSN - строка подключения для gorm
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// loadPrivateKey берет PEM из JWT_PRIVATE_KEY или из файла JWT_PRIVATE_KEY_FILE
func loadPrivateKey() (string, error) {
	if pem := os.Getenv("JWT_PRIVATE_KEY"); pem != "" {
		return pem, nil
	}
	path := os.Getenv("JWT_PRIVATE_KEY_FILE")
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read JWT_PRIVATE_KEY_FILE: %w", err)
	}
	return string(data), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
