package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"adminplus/admin-service/internal/app/admin/entity"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

// ==================== PublishAuthEvent Tests ====================

func TestKafkaProducer_PublishAuthEvent(t *testing.T) {
	// Arrange
	writer := &fakeWriter{}
	producer := &KafkaProducer{writer: writer, topic: "auth_events"}
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	event := &entity.AuthEvent{
		EventID:   "evt-1",
		EventType: entity.AuthEventSessionsRevoked,
		UserID:    42,
		ActorID:   1,
		Timestamp: ts,
	}

	// Act
	err := producer.PublishAuthEvent(context.Background(), event)

	// Assert
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, ts, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "SESSIONS_REVOKED", string(msg.Headers[0].Value))

	var decoded entity.AuthEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, int64(42), decoded.UserID)
	assert.Equal(t, int64(1), decoded.ActorID)
	assert.Equal(t, entity.AuthEventSessionsRevoked, decoded.EventType)
}

func TestKafkaProducer_PublishAuthEvent_WriteError(t *testing.T) {
	// Arrange
	writer := &fakeWriter{err: errors.New("broker down")}
	producer := &KafkaProducer{writer: writer, topic: "auth_events"}

	// Act
	err := producer.PublishAuthEvent(context.Background(), &entity.AuthEvent{EventType: entity.AuthEventLogout})

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestKafkaProducer_Close(t *testing.T) {
	// Arrange
	writer := &fakeWriter{}
	producer := &KafkaProducer{writer: writer, topic: "auth_events"}

	// Act
	err := producer.Close()

	// Assert
	require.NoError(t, err)
	assert.True(t, writer.closed)
}
