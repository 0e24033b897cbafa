package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/prizma-app/prizma-backend/internal/pkg/logger"
)

// StatusEvent is published whenever a report job changes state, so the
// frontend can follow a long premium run without polling the API.
type StatusEvent struct {
	JobID      uuid.UUID `json:"job_id"`
	UserID     uuid.UUID `json:"user_id"`
	Tier       string    `json:"tier"`
	Status     string    `json:"status"`
	PagesDone  int       `json:"pages_done"`
	PagesTotal int       `json:"pages_total"`
	Detail     string    `json:"detail,omitempty"`
}

// Notifier delivers status events. Delivery is best effort: a broken bus
// never fails a generation run.
type Notifier interface {
	PublishStatus(ctx context.Context, ev StatusEvent)
	Close() error
}

type redisNotifier struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewRedisNotifier(log *logger.Logger) (Notifier, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
	if ch == "" {
		ch = "report-status"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisNotifier{
		log:     log.With("service", "RedisNotifier"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (n *redisNotifier) PublishStatus(ctx context.Context, ev StatusEvent) {
	raw, err := json.Marshal(ev)
	if err != nil {
		n.log.Warn("failed to marshal status event", "error", err)
		return
	}
	if err := n.rdb.Publish(ctx, n.channel, raw).Err(); err != nil {
		n.log.Warn("failed to publish status event", "job_id", ev.JobID, "error", err)
	}
}

func (n *redisNotifier) Close() error {
	return n.rdb.Close()
}

// NopNotifier is used when no bus is configured and by tests.
type NopNotifier struct{}

func (NopNotifier) PublishStatus(context.Context, StatusEvent) {}
func (NopNotifier) Close() error                               { return nil }
