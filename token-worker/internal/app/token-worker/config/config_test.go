package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Act
	cfg, err := Load()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "user_events", cfg.Kafka.Topic)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "@every 1h", cfg.Purge.Schedule)
	assert.Equal(t, 24*time.Hour, cfg.Purge.Retention)
	assert.Equal(t, 2*time.Hour, cfg.AccessTokenDuration)
	assert.Equal(t, "8080", cfg.HealthPort)
}

func TestLoad_Overrides(t *testing.T) {
	// Arrange
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TOKEN_PURGE_SCHEDULE", "0 3 * * *")
	t.Setenv("TOKEN_PURGE_RETENTION", "72h")
	t.Setenv("JWT_ACCESS_DURATION", "30m")

	// Act
	cfg, err := Load()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "0 3 * * *", cfg.Purge.Schedule)
	assert.Equal(t, 72*time.Hour, cfg.Purge.Retention)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenDuration)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad schedule", key: "TOKEN_PURGE_SCHEDULE", value: "every hour"},
		{name: "bad retention", key: "TOKEN_PURGE_RETENTION", value: "day"},
		{name: "zero access ttl", key: "JWT_ACCESS_DURATION", value: "0s"},
		{name: "empty brokers", key: "KAFKA_BROKERS", value: " , "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			t.Setenv(tt.key, tt.value)

			// Act
			cfg, err := Load()

			// Assert
			assert.Nil(t, cfg)
			assert.Error(t, err)
		})
	}
}
