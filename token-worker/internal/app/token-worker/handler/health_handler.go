package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"

	probeTimeout = 5 * time.Second

	// MaxHealthyLag - отставание consumer, после которого сервис считается degraded.
	// Readiness от отставания не зависит.
	MaxHealthyLag int64 = 10000
)

// ConsumerStats - источник статистики Kafka consumer
type ConsumerStats interface {
	GetStats() kafka.ReaderStats
}

// probe - проверка зависимости, без которой worker не может отзывать сессии
type probe struct {
	name  string
	check func(ctx context.Context) error
}

type HealthCheckHandler struct {
	probes   []probe
	consumer ConsumerStats
}

func NewHealthCheckHandler(db *gorm.DB, redisClient *redis.Client, consumer ConsumerStats) *HealthCheckHandler {
	return &HealthCheckHandler{
		probes: []probe{
			{name: "database", check: func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			}},
			{name: "redis", check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}},
		},
		consumer: consumer,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Kafka     *KafkaStatus      `json:"kafka,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// KafkaStatus - выдержка из статистики reader
type KafkaStatus struct {
	Topic    string `json:"topic"`
	Lag      int64  `json:"lag"`
	Messages int64  `json:"messages"`
	Errors   int64  `json:"errors"`
}

// HealthCheck отдает состояние хранилищ и consumer.
// 503 только при недоступном хранилище, большое отставание дает degraded.
func (h *HealthCheckHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	checks, failed := h.runProbes(ctx)
	response := HealthResponse{
		Status:    statusHealthy,
		Checks:    make(map[string]string, len(checks)+1),
		Timestamp: time.Now(),
	}
	for name, err := range checks {
		if err != nil {
			response.Checks[name] = statusUnhealthy + ": " + err.Error()
			continue
		}
		response.Checks[name] = statusHealthy
	}

	if h.consumer != nil {
		stats := h.consumer.GetStats()
		response.Kafka = &KafkaStatus{
			Topic:    stats.Topic,
			Lag:      stats.Lag,
			Messages: stats.Messages,
			Errors:   stats.Errors,
		}
		if stats.Lag > MaxHealthyLag {
			response.Checks["kafka"] = fmt.Sprintf("%s: lag %d", statusDegraded, stats.Lag)
			response.Status = statusDegraded
		} else {
			response.Checks["kafka"] = statusHealthy
		}
	}

	code := http.StatusOK
	if failed != "" {
		response.Status = statusUnhealthy
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response)
}

// Readiness проверяет хранилища по порядку и сообщает первое недоступное
func (h *HealthCheckHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	if _, failed := h.runProbes(ctx); failed != "" {
		http.Error(w, failed+" not ready", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

func (h *HealthCheckHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("alive"))
}

// runProbes выполняет все проверки; failed - имя первой упавшей
func (h *HealthCheckHandler) runProbes(ctx context.Context) (map[string]error, string) {
	results := make(map[string]error, len(h.probes))
	failed := ""
	for _, p := range h.probes {
		err := p.check(ctx)
		results[p.name] = err
		if err != nil && failed == "" {
			failed = p.name
		}
	}
	return results, failed
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func (h *HealthCheckHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/health/readiness", h.Readiness)
	mux.HandleFunc("/health/liveness", h.Liveness)
}
