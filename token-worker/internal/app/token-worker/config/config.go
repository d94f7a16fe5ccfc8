package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config содержит все настройки Token Worker
type Config struct {
	LogLevel   string
	Logstash   string
	HealthPort string
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Purge      PurgeConfig
	// AccessTokenDuration - TTL метки блокировки пользователя.
	// Должен совпадать с JWT_ACCESS_DURATION admin-service.
	AccessTokenDuration time.Duration
}

// DatabaseConfig - настройки подключения к PostgreSQL admin-service
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig - Redis с черным списком токенов
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// KafkaConfig - подписка на топик user_events
type KafkaConfig struct {
	Brokers  []string // host:port
	Topic    string
	GroupID  string
	MinBytes int
	MaxBytes int
}

// PurgeConfig - расписание очистки refresh токенов
type PurgeConfig struct {
	Schedule  string        // формат robfig/cron, например "@every 1h"
	Retention time.Duration // сколько хранить истекшие и отозванные токены
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

	cfg := &Config{
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Logstash:   getEnv("LOGSTASH_ADDR", ""),
		HealthPort: getEnv("HEALTH_PORT", "8080"),
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
		Kafka: KafkaConfig{
			Brokers:  splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:    getEnv("KAFKA_USER_EVENTS_TOPIC", "user_events"),
			GroupID:  getEnv("KAFKA_GROUP_ID", "token-worker-group"),
			MinBytes: getEnvInt("KAFKA_MIN_BYTES", 1),
			MaxBytes: getEnvInt("KAFKA_MAX_BYTES", 10e6),
		},
		Purge: PurgeConfig{
			Schedule:  getEnv("TOKEN_PURGE_SCHEDULE", "@every 1h"),
			Retention: duration("TOKEN_PURGE_RETENTION", "24h"),
		},
		AccessTokenDuration: duration("JWT_ACCESS_DURATION", "2h"),
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS must not be empty"))
	}
	if c.Kafka.MinBytes <= 0 || c.Kafka.MaxBytes < c.Kafka.MinBytes {
		errs = append(errs, errors.New("KAFKA_MIN_BYTES/KAFKA_MAX_BYTES are out of range"))
	}
	if c.Purge.Retention < 0 {
		errs = append(errs, errors.New("TOKEN_PURGE_RETENTION must not be negative"))
	}
	if c.AccessTokenDuration <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_DURATION must be positive"))
	}
	if _, err := cron.ParseStandard(c.Purge.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("invalid TOKEN_PURGE_SCHEDULE: %w", err))
	}
	return errs
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
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
