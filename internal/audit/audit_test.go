package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorderFunc func(ctx context.Context, e Entry) error

func (f recorderFunc) Record(ctx context.Context, e Entry) error { return f(ctx, e) }

func TestBestEffortFillsIDAndTimestamp(t *testing.T) {
	var got Entry
	trail := NewBestEffort(recorderFunc(func(ctx context.Context, e Entry) error {
		got = e
		return nil
	}), nil)

	trail.Record(context.Background(), Entry{
		EntityType: "appointment",
		EntityID:   uuid.NewString(),
		Action:     "appointment.booked",
	})

	require.NotEqual(t, uuid.Nil, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestBestEffortSwallowsRecorderFailure(t *testing.T) {
	trail := NewBestEffort(recorderFunc(func(ctx context.Context, e Entry) error {
		return errors.New("insert failed")
	}), nil)

	// Must not panic or propagate.
	trail.Record(context.Background(), Entry{EntityType: "appointment", Action: "appointment.booked"})
}

func TestBestEffortKeepsCallerValues(t *testing.T) {
	id := uuid.New()
	var got Entry
	trail := NewBestEffort(recorderFunc(func(ctx context.Context, e Entry) error {
		got = e
		return nil
	}), nil)

	trail.Record(context.Background(), Entry{ID: id, EntityType: "availability_slot", Action: "schedule.slot_updated"})
	assert.Equal(t, id, got.ID)
}
