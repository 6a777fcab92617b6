package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quietpractice/practice-platform/internal/analytics"
	"github.com/quietpractice/practice-platform/internal/audit"
	"github.com/quietpractice/practice-platform/internal/observability/metrics"
	"github.com/quietpractice/practice-platform/internal/redisclient"
	"github.com/quietpractice/practice-platform/internal/schedule"
	"github.com/quietpractice/practice-platform/pkg/logging"
)

const (
	ActionBooked          = "appointment.booked"
	ActionCanceled        = "appointment.canceled"
	ActionCompleted       = "appointment.completed"
	ActionRescheduled     = "appointment.rescheduled"
	ActionOutcomeRecorded = "appointment.outcome_recorded"
)

var (
	ErrSlotBeingBooked         = errors.New("slot is currently being booked, please retry")
	ErrInvalidStatusTransition = errors.New("invalid appointment status transition")
	ErrOutcomeNotAllowed       = errors.New("outcome can only be recorded on a finished appointment")
	ErrInvalidOutcome          = errors.New("invalid outcome value")
	ErrInvalidReasonCategory   = errors.New("invalid reason category")
	ErrInvalidTimezone         = errors.New("invalid timezone")
)

// SlotStore is the slice of the schedule service the appointment lifecycle
// needs: reserving a slot on booking and releasing it on cancel/reschedule.
type SlotStore interface {
	GetSlot(ctx context.Context, id uuid.UUID) (*schedule.Slot, error)
	ReserveSlot(ctx context.Context, id uuid.UUID) (*schedule.Slot, error)
	ReleaseSlot(ctx context.Context, id uuid.UUID) (*schedule.Slot, error)
}

type Service struct {
	repo    Repository
	slots   SlotStore
	locker  redisclient.Locker
	trail   audit.Trail
	tracker analytics.Tracker
	metrics *metrics.PlatformMetrics
	logger  *logging.Logger
}

func NewService(repo Repository, slots SlotStore, locker redisclient.Locker, trail audit.Trail, tracker analytics.Tracker, m *metrics.PlatformMetrics, logger *logging.Logger) *Service {
	if trail == nil {
		trail = audit.Nop{}
	}
	if tracker == nil {
		tracker = analytics.Nop{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:    repo,
		slots:   slots,
		locker:  locker,
		trail:   trail,
		tracker: tracker,
		metrics: m,
		logger:  logger,
	}
}

// Book reserves an available slot for a client and creates the appointment.
// A per slot Redis lock keeps two concurrent requests from both reserving
// the same slot.
func (s *Service) Book(ctx context.Context, serviceID, clientID, slotID uuid.UUID, timezone string) (*Appointment, error) {
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, timezone)
	}

	if _, err := s.repo.ResolveLeadID(ctx, clientID); err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load client: %w", err)
	}

	var created *Appointment

	err := s.locker.WithSlotLock(ctx, slotID, func(lockCtx context.Context) error {
		slot, err := s.slots.ReserveSlot(lockCtx, slotID)
		if err != nil {
			return err
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			ID:        uuid.New(),
			ServiceID: serviceID,
			ClientID:  clientID,
			SlotID:    &slot.ID,
			StartAt:   slot.StartAt,
			EndAt:     slot.EndAt,
			Timezone:  timezone,
			Status:    StatusBooked,
		})
		if err != nil {
			// Undo the reservation so the slot is not stranded.
			if _, relErr := s.slots.ReleaseSlot(lockCtx, slot.ID); relErr != nil {
				s.logger.Error("failed to release slot after booking error", "slot_id", slot.ID, "error", relErr)
			}
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.metrics.ObserveAppointmentTransition("booked")
	s.trail.Record(ctx, audit.Entry{
		EntityType: "appointment",
		EntityID:   created.ID.String(),
		Action:     ActionBooked,
		NewState:   mustJSON(created),
	})
	s.track(ctx, "appointment_booked", created, nil)

	return created, nil
}

// Cancel moves a booked appointment to canceled and releases its bound slot.
// Appointments already completed (or otherwise finished) cannot be canceled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusCanceled, ActionCanceled, true, actorID)
}

// Complete marks a booked appointment as completed. The slot stays reserved;
// the session happened.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusCompleted, ActionCompleted, false, actorID)
}

// Reschedule marks a booked appointment as rescheduled and frees its slot.
// The replacement appointment is booked separately.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusRescheduled, ActionRescheduled, true, actorID)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status, action string, releaseSlot bool, actorID *uuid.UUID) (*Appointment, error) {
	current, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusBooked {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current.Status, to)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusBooked, to)
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	if releaseSlot && updated.SlotID != nil {
		if _, err := s.slots.ReleaseSlot(ctx, *updated.SlotID); err != nil {
			// The appointment transition already happened; a stuck slot is
			// recoverable by an admin edit, so log instead of failing.
			s.logger.Error("failed to release slot", "slot_id", *updated.SlotID, "appointment_id", id, "error", err)
		}
	}

	s.metrics.ObserveAppointmentTransition(string(to))
	s.trail.Record(ctx, audit.Entry{
		EntityType: "appointment",
		EntityID:   id.String(),
		Action:     action,
		PrevState:  mustJSON(map[string]any{"status": current.Status}),
		NewState:   mustJSON(map[string]any{"status": updated.Status}),
		ActorID:    actorID,
	})
	s.track(ctx, "appointment_"+string(to), updated, nil)

	return updated, nil
}

// RecordOutcome stores the actual result of a finished appointment. It is
// rejected while the appointment is still actively booked, and a second call
// overwrites the first with the prior value preserved in the audit entry.
func (s *Service) RecordOutcome(ctx context.Context, id uuid.UUID, outcome Outcome, reason *ReasonCategory, recordedBy *uuid.UUID) (*Appointment, error) {
	if !validOutcome(outcome) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}
	if reason != nil && !validReason(*reason) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReasonCategory, *reason)
	}

	current, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusBooked {
		return nil, ErrOutcomeNotAllowed
	}

	prev := OutcomeState{
		Outcome:    current.Outcome,
		Reason:     current.OutcomeReason,
		RecordedBy: current.OutcomeRecordedBy,
		RecordedAt: current.OutcomeRecordedAt,
	}

	updated, err := s.repo.UpdateOutcome(ctx, id, outcome, reason, recordedBy, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("record outcome: %w", err)
	}

	s.metrics.ObserveOutcome(string(outcome))
	s.trail.Record(ctx, audit.Entry{
		EntityType: "appointment",
		EntityID:   id.String(),
		Action:     ActionOutcomeRecorded,
		PrevState:  mustJSON(prev),
		NewState: mustJSON(OutcomeState{
			Outcome:    updated.Outcome,
			Reason:     updated.OutcomeReason,
			RecordedBy: updated.OutcomeRecordedBy,
			RecordedAt: updated.OutcomeRecordedAt,
		}),
		ActorID: recordedBy,
	})

	props := map[string]any{"outcome": string(outcome)}
	if reason != nil {
		props["reason_category"] = string(*reason)
	}
	s.track(ctx, "appointment_outcome_recorded", updated, props)

	return updated, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointment(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, filter Filter) ([]Appointment, error) {
	appts, err := s.repo.ListAppointments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// track emits a fire-and-forget analytics event, attaching the client's lead
// deep-link id when one resolves.
func (s *Service) track(ctx context.Context, name string, appt *Appointment, extra map[string]any) {
	props := map[string]any{
		"appointment_id": appt.ID.String(),
		"service_id":     appt.ServiceID.String(),
		"status":         string(appt.Status),
	}
	for k, v := range extra {
		props[k] = v
	}

	leadID, err := s.repo.ResolveLeadID(ctx, appt.ClientID)
	if err != nil {
		s.logger.Debug("lead id not resolved for analytics", "client_id", appt.ClientID, "error", err)
	} else if leadID != nil {
		props["lead_id"] = leadID.String()
	}

	s.tracker.Track(ctx, analytics.Event{Name: name, Properties: props})
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
