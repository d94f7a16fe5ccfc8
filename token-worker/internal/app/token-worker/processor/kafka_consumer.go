package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"adminplus/pkg/logger"
	"adminplus/pkg/metrics"
	"adminplus/token-worker/internal/app/token-worker/entity"
	"adminplus/token-worker/internal/app/token-worker/service"

	"github.com/segmentio/kafka-go"
)

const serviceName = "token-worker"

// messageReader - часть kafka.Reader, которой пользуется consumer
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Stats() kafka.ReaderStats
	Close() error
}

// KafkaConsumer обрабатывает события из топика user_events
type KafkaConsumer struct {
	reader     messageReader
	revocation service.RevocationServiceInterface
	topic      string
	groupID    string
	retryDelay time.Duration
	cancel     context.CancelFunc
	stopChan   chan struct{}
	doneChan   chan struct{}
}

// NewKafkaConsumer создает новый Kafka consumer
func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	revocation service.RevocationServiceInterface,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: minBytes,
		MaxBytes: maxBytes,
		// Пропуск событий отзыва недопустим, поэтому новая группа читает с начала
		StartOffset:    kafka.FirstOffset,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return newKafkaConsumer(reader, topic, groupID, revocation)
}

func newKafkaConsumer(reader messageReader, topic, groupID string, revocation service.RevocationServiceInterface) *KafkaConsumer {
	return &KafkaConsumer{
		reader:     reader,
		revocation: revocation,
		topic:      topic,
		groupID:    groupID,
		retryDelay: time.Second,
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	logger.Info().
		Str("topic", c.topic).
		Str("group", c.groupID).
		Msg("Starting Kafka consumer")

	ctx, c.cancel = context.WithCancel(ctx)
	go c.consume(ctx)
}

// Stop останавливает consumer и дожидается завершения текущего сообщения
func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping Kafka consumer...")
	close(c.stopChan)
	if c.cancel != nil {
		c.cancel()
	}
	<-c.doneChan
	if err := c.reader.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close Kafka reader")
	}
	logger.Info().Msg("Kafka consumer stopped")
}

func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		message, err := c.reader.FetchMessage(readCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, context.DeadlineExceeded) {
				metrics.RecordKafkaError(serviceName, c.topic, "consume")
				logger.Error().Err(err).Msg("Error fetching message")
				c.sleep()
			}
			continue
		}

		c.handle(ctx, message)
	}
}

// handle обрабатывает сообщение до успеха, offset коммитится только после него.
// Нераспознаваемые сообщения коммитятся сразу: повтор их не исправит.
func (c *KafkaConsumer) handle(ctx context.Context, message kafka.Message) {
	start := time.Now()

	for {
		err := c.processMessage(ctx, message)
		if err == nil || isPermanent(err) {
			if err != nil {
				logger.Error().
					Err(err).
					Int("partition", message.Partition).
					Int64("offset", message.Offset).
					Msg("Skipping malformed user event")
			}
			if err := c.reader.CommitMessages(ctx, message); err != nil {
				metrics.RecordKafkaError(serviceName, c.topic, "commit")
				logger.Error().Err(err).Msg("Error committing message")
			}
			metrics.RecordKafkaMessageConsumed(serviceName, c.topic, c.groupID, time.Since(start))
			return
		}

		metrics.RecordKafkaError(serviceName, c.topic, "consume")
		logger.Error().
			Err(err).
			Int("partition", message.Partition).
			Int64("offset", message.Offset).
			Msg("Error processing message, retrying")

		select {
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		case <-time.After(c.retryDelay):
		}
	}
}

func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.UserEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformedMessage, err)
	}

	logger.Debug().
		Str("event_type", event.EventType).
		Int64("user_id", event.UserID).
		Int64("offset", message.Offset).
		Int("partition", message.Partition).
		Msg("Received user event")

	return c.revocation.HandleUserEvent(ctx, &event)
}

var errMalformedMessage = errors.New("malformed message")

func isPermanent(err error) bool {
	return errors.Is(err, errMalformedMessage) || errors.Is(err, service.ErrInvalidEvent)
}

func (c *KafkaConsumer) sleep() {
	select {
	case <-c.stopChan:
	case <-time.After(c.retryDelay):
	}
}

// GetStats возвращает статистику consumer
func (c *KafkaConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}
