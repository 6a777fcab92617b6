package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quietpractice/practice-platform/internal/audit"
	"github.com/quietpractice/practice-platform/internal/observability/metrics"
	"github.com/quietpractice/practice-platform/pkg/logging"
)

const (
	ActionSlotsCreated = "schedule.slots_created"
	ActionSlotUpdated  = "schedule.slot_updated"
	ActionSlotsDeleted = "schedule.slots_deleted"
	ActionSlotBlocked  = "schedule.slot_blocked"
	ActionSlotReleased = "schedule.slot_released"
	ActionSettingsSet  = "schedule.settings_updated"
)

var (
	// ErrSlotReserved guards reserved slots against admin edits and deletes.
	ErrSlotReserved     = errors.New("slot is reserved and cannot be modified")
	ErrSlotNotAvailable = errors.New("slot is not available")
	ErrInvalidSettings  = errors.New("invalid schedule settings")
)

type Service struct {
	repo            Repository
	trail           audit.Trail
	metrics         *metrics.PlatformMetrics
	logger          *logging.Logger
	defaultTimezone string
}

func NewService(repo Repository, trail audit.Trail, m *metrics.PlatformMetrics, logger *logging.Logger, defaultTimezone string) *Service {
	if trail == nil {
		trail = audit.Nop{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return &Service{
		repo:            repo,
		trail:           trail,
		metrics:         m,
		logger:          logger,
		defaultTimezone: defaultTimezone,
	}
}

// CreateSlots expands a batch of slot requests into available slots and
// persists them as one batch. Any malformed request fails the whole batch
// before persistence.
func (s *Service) CreateSlots(ctx context.Context, reqs []SlotRequest, actorID *uuid.UUID) (int, error) {
	return s.createBatch(ctx, reqs, SlotAvailable, nil, actorID)
}

// CreateExceptions creates blocked slots marking one-off unavailability.
func (s *Service) CreateExceptions(ctx context.Context, reqs []SlotRequest, actorID *uuid.UUID) (int, error) {
	bt := BlockException
	return s.createBatch(ctx, reqs, SlotBlocked, &bt, actorID)
}

// CreateBuffers creates blocked slots marking recurring gaps between sessions.
func (s *Service) CreateBuffers(ctx context.Context, reqs []SlotRequest, actorID *uuid.UUID) (int, error) {
	bt := BlockBuffer
	return s.createBatch(ctx, reqs, SlotBlocked, &bt, actorID)
}

func (s *Service) createBatch(ctx context.Context, reqs []SlotRequest, status SlotStatus, blockType *BlockType, actorID *uuid.UUID) (int, error) {
	slots, err := ExpandBatch(reqs, status, blockType, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	created, err := s.repo.CreateSlots(ctx, slots)
	if err != nil {
		return 0, fmt.Errorf("persist slot batch: %w", err)
	}

	s.metrics.ObserveSlotsGenerated(string(status), created)

	ids := make([]string, 0, len(slots))
	for _, sl := range slots {
		ids = append(ids, sl.ID.String())
	}
	s.trail.Record(ctx, audit.Entry{
		EntityType: "availability_slot",
		EntityID:   "batch",
		Action:     ActionSlotsCreated,
		NewState:   mustJSON(map[string]any{"slot_ids": ids, "status": status, "count": created}),
		ActorID:    actorID,
	})

	return created, nil
}

func (s *Service) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return s.repo.GetSlot(ctx, id)
}

func (s *Service) ListSlots(ctx context.Context, filter SlotFilter) ([]Slot, error) {
	slots, err := s.repo.ListSlots(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// UpdateSlot edits a slot's time range or note. Reserved slots are a hard
// lock: the edit is rejected with a conflict.
func (s *Service) UpdateSlot(ctx context.Context, id uuid.UUID, upd SlotUpdate, actorID *uuid.UUID) (*Slot, error) {
	current, err := s.repo.GetSlot(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == SlotReserved {
		return nil, ErrSlotReserved
	}

	start := current.StartAt
	end := current.EndAt
	if upd.StartAt != nil {
		start = *upd.StartAt
	}
	if upd.EndAt != nil {
		end = *upd.EndAt
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start_at_utc must be before end_at_utc", ErrInvalidSlotRequest)
	}

	updated, err := s.repo.UpdateSlot(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	s.trail.Record(ctx, audit.Entry{
		EntityType: "availability_slot",
		EntityID:   id.String(),
		Action:     ActionSlotUpdated,
		PrevState:  mustJSON(current),
		NewState:   mustJSON(updated),
		ActorID:    actorID,
	})

	return updated, nil
}

// DeleteSlots removes a batch of slots. If any target is reserved the whole
// batch is rejected; nothing is deleted partially.
func (s *Service) DeleteSlots(ctx context.Context, ids []uuid.UUID, actorID *uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	slots, err := s.repo.ListSlotsByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load slots for deletion: %w", err)
	}
	if len(slots) != len(ids) {
		return ErrSlotNotFound
	}
	for _, sl := range slots {
		if sl.Status == SlotReserved {
			return ErrSlotReserved
		}
	}

	if err := s.repo.DeleteSlots(ctx, ids); err != nil {
		return err
	}

	s.trail.Record(ctx, audit.Entry{
		EntityType: "availability_slot",
		EntityID:   "batch",
		Action:     ActionSlotsDeleted,
		PrevState:  mustJSON(slots),
		ActorID:    actorID,
	})

	return nil
}

// ReserveSlot flips an available slot to reserved when a booking lands on it.
func (s *Service) ReserveSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	slot, err := s.repo.UpdateSlotStatus(ctx, id, SlotAvailable, SlotReserved)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			// Distinguish a missing slot from one in the wrong status.
			if _, getErr := s.repo.GetSlot(ctx, id); getErr == nil {
				return nil, ErrSlotNotAvailable
			}
		}
		return nil, err
	}
	return slot, nil
}

// ReleaseSlot returns a reserved slot to the pool, typically after the bound
// appointment is canceled or rescheduled.
func (s *Service) ReleaseSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	slot, err := s.repo.UpdateSlotStatus(ctx, id, SlotReserved, SlotAvailable)
	if err != nil {
		return nil, err
	}
	s.trail.Record(ctx, audit.Entry{
		EntityType: "availability_slot",
		EntityID:   id.String(),
		Action:     ActionSlotReleased,
		NewState:   mustJSON(map[string]any{"status": SlotAvailable}),
	})
	return slot, nil
}

// GetSettings returns the stored schedule settings, falling back to defaults
// before the first save.
func (s *Service) GetSettings(ctx context.Context) (*Settings, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		if errors.Is(err, ErrSettingsNotFound) {
			return &Settings{Timezone: s.defaultTimezone, BufferMinutes: 0}, nil
		}
		return nil, fmt.Errorf("load schedule settings: %w", err)
	}
	return settings, nil
}

func (s *Service) UpdateSettings(ctx context.Context, timezone string, bufferMinutes int, actorID *uuid.UUID) (*Settings, error) {
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidSettings, timezone)
	}
	if bufferMinutes < 0 {
		return nil, fmt.Errorf("%w: buffer_minutes must not be negative", ErrInvalidSettings)
	}

	prev, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpsertSettings(ctx, Settings{Timezone: timezone, BufferMinutes: bufferMinutes})
	if err != nil {
		return nil, err
	}

	s.trail.Record(ctx, audit.Entry{
		EntityType: "schedule_settings",
		EntityID:   "1",
		Action:     ActionSettingsSet,
		PrevState:  mustJSON(prev),
		NewState:   mustJSON(updated),
		ActorID:    actorID,
	})

	return updated, nil
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
