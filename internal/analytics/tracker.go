// Package analytics publishes product analytics events. Delivery is
// fire-and-forget: a failed publish is logged, never surfaced.
package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quietpractice/practice-platform/pkg/logging"
)

type Event struct {
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Tracker interface {
	Track(ctx context.Context, ev Event)
}

// RedisTracker appends events to a Redis stream consumed by the analytics
// pipeline.
type RedisTracker struct {
	client *redis.Client
	stream string
	logger *logging.Logger
}

func NewRedisTracker(client *redis.Client, stream string, logger *logging.Logger) *RedisTracker {
	if stream == "" {
		stream = "analytics:events"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisTracker{client: client, stream: stream, logger: logger}
}

func (t *RedisTracker) Track(ctx context.Context, ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	props, err := json.Marshal(ev.Properties)
	if err != nil {
		t.logger.Warn("analytics event payload not serializable", "event", ev.Name, "error", err)
		props = []byte("{}")
	}

	err = t.client.XAdd(ctx, &redis.XAddArgs{
		Stream: t.stream,
		Values: map[string]any{
			"name":        ev.Name,
			"properties":  string(props),
			"occurred_at": ev.OccurredAt.Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		t.logger.Warn("analytics track failed", "event", ev.Name, "error", err)
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Track(ctx context.Context, ev Event) {}
