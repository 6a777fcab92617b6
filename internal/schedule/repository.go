package schedule

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound     = errors.New("slot not found")
	ErrSettingsNotFound = errors.New("schedule settings not found")
)

// Repository contains all DB interactions needed by the schedule service.
type Repository interface {
	CreateSlots(ctx context.Context, slots []Slot) (int, error)

	GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error)
	ListSlots(ctx context.Context, filter SlotFilter) ([]Slot, error)
	ListSlotsByIDs(ctx context.Context, ids []uuid.UUID) ([]Slot, error)

	UpdateSlot(ctx context.Context, id uuid.UUID, upd SlotUpdate) (*Slot, error)
	// UpdateSlotStatus flips a slot from one status to another in a single
	// conditional statement; returns ErrSlotNotFound when the slot is not in
	// the expected from status.
	UpdateSlotStatus(ctx context.Context, id uuid.UUID, from, to SlotStatus) (*Slot, error)
	DeleteSlots(ctx context.Context, ids []uuid.UUID) error

	GetSettings(ctx context.Context) (*Settings, error)
	UpsertSettings(ctx context.Context, s Settings) (*Settings, error)
}
