// Package audit persists an insert-only trail of administrative changes.
// Writes are best-effort: a failed audit insert is logged and swallowed so it
// can never abort the operation being audited.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/quietpractice/practice-platform/pkg/logging"
)

type Entry struct {
	ID         uuid.UUID
	EntityType string
	EntityID   string
	Action     string
	PrevState  json.RawMessage
	NewState   json.RawMessage
	ActorID    *uuid.UUID
	CreatedAt  time.Time
}

// Recorder persists audit entries and may fail.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Trail is the fire-and-forget port the services depend on.
type Trail interface {
	Record(ctx context.Context, e Entry)
}

type bestEffort struct {
	rec    Recorder
	logger *logging.Logger
}

// NewBestEffort wraps a recorder so failures never propagate.
func NewBestEffort(rec Recorder, logger *logging.Logger) Trail {
	if logger == nil {
		logger = logging.Default()
	}
	return &bestEffort{rec: rec, logger: logger}
}

func (b *bestEffort) Record(ctx context.Context, e Entry) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := b.rec.Record(ctx, e); err != nil {
		b.logger.Warn("audit record failed",
			"entity_type", e.EntityType,
			"entity_id", e.EntityID,
			"action", e.Action,
			"error", err,
		)
	}
}

// Nop discards every entry. Used in tests and tools.
type Nop struct{}

func (Nop) Record(ctx context.Context, e Entry) {}
