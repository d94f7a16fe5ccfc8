package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"adminplus/admin-service/internal/app/admin/entity"
	"adminplus/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

const serviceName = "admin-service"

// messageWriter - часть kafka.Writer, нужная продюсеру
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer публикует события аутентификации в топик auth_events
type KafkaProducer struct {
	writer messageWriter
	topic  string
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              100,
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return &KafkaProducer{writer: writer, topic: topic}
}

// PublishAuthEvent пишет событие с ключом user_id, чтобы события одного
// пользователя попадали в одну партицию
func (p *KafkaProducer) PublishAuthEvent(ctx context.Context, event *entity.AuthEvent) error {
	timer := metrics.NewKafkaProduceTimer(serviceName, p.topic)

	value, err := json.Marshal(event)
	if err != nil {
		timer.Error()
		return fmt.Errorf("failed to marshal auth event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.UserID, 10)),
		Value: value,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		timer.Error()
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	timer.Success()
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
