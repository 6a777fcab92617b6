package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietpractice/practice-platform/internal/analytics"
	"github.com/quietpractice/practice-platform/internal/audit"
	"github.com/quietpractice/practice-platform/internal/redisclient"
	"github.com/quietpractice/practice-platform/internal/schedule"
)

type stubRepository struct {
	appointments map[uuid.UUID]Appointment
	leads        map[uuid.UUID]*uuid.UUID
	createErr    error
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		appointments: make(map[uuid.UUID]Appointment),
		leads:        make(map[uuid.UUID]*uuid.UUID),
	}
}

func (s *stubRepository) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := s.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (s *stubRepository) ListAppointments(ctx context.Context, filter Filter) ([]Appointment, error) {
	var out []Appointment
	for _, a := range s.appointments {
		out = append(out, a)
	}
	return out, nil
}

func (s *stubRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	s.appointments[a.ID] = a
	return &a, nil
}

func (s *stubRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	a, ok := s.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	s.appointments[id] = a
	return &a, nil
}

func (s *stubRepository) UpdateOutcome(ctx context.Context, id uuid.UUID, outcome Outcome, reason *ReasonCategory, recordedBy *uuid.UUID, recordedAt time.Time) (*Appointment, error) {
	a, ok := s.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.Outcome = &outcome
	a.OutcomeReason = reason
	a.OutcomeRecordedBy = recordedBy
	a.OutcomeRecordedAt = &recordedAt
	s.appointments[id] = a
	return &a, nil
}

func (s *stubRepository) ResolveLeadID(ctx context.Context, clientID uuid.UUID) (*uuid.UUID, error) {
	lead, ok := s.leads[clientID]
	if !ok {
		return nil, ErrClientNotFound
	}
	return lead, nil
}

type stubSlotStore struct {
	slots      map[uuid.UUID]schedule.Slot
	released   []uuid.UUID
	reserveErr error
}

func newStubSlotStore() *stubSlotStore {
	return &stubSlotStore{slots: make(map[uuid.UUID]schedule.Slot)}
}

func (s *stubSlotStore) addSlot(status schedule.SlotStatus) uuid.UUID {
	id := uuid.New()
	start := time.Now().UTC().Add(48 * time.Hour)
	s.slots[id] = schedule.Slot{ID: id, StartAt: start, EndAt: start.Add(time.Hour), Status: status}
	return id
}

func (s *stubSlotStore) GetSlot(ctx context.Context, id uuid.UUID) (*schedule.Slot, error) {
	sl, ok := s.slots[id]
	if !ok {
		return nil, schedule.ErrSlotNotFound
	}
	return &sl, nil
}

func (s *stubSlotStore) ReserveSlot(ctx context.Context, id uuid.UUID) (*schedule.Slot, error) {
	if s.reserveErr != nil {
		return nil, s.reserveErr
	}
	sl, ok := s.slots[id]
	if !ok {
		return nil, schedule.ErrSlotNotFound
	}
	if sl.Status != schedule.SlotAvailable {
		return nil, schedule.ErrSlotNotAvailable
	}
	sl.Status = schedule.SlotReserved
	s.slots[id] = sl
	return &sl, nil
}

func (s *stubSlotStore) ReleaseSlot(ctx context.Context, id uuid.UUID) (*schedule.Slot, error) {
	sl, ok := s.slots[id]
	if !ok {
		return nil, schedule.ErrSlotNotFound
	}
	sl.Status = schedule.SlotAvailable
	s.slots[id] = sl
	s.released = append(s.released, id)
	return &sl, nil
}

// passLocker runs the critical section directly; lockedLocker simulates a
// contended slot.
type passLocker struct{}

func (passLocker) WithSlotLock(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type lockedLocker struct{}

func (lockedLocker) WithSlotLock(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

type capturingTracker struct {
	events []analytics.Event
}

func (c *capturingTracker) Track(ctx context.Context, e analytics.Event) {
	c.events = append(c.events, e)
}

type fixture struct {
	repo    *stubRepository
	slots   *stubSlotStore
	tracker *capturingTracker
	svc     *Service
}

func newFixture(t *testing.T, locker redisclient.Locker) *fixture {
	t.Helper()
	repo := newStubRepository()
	slots := newStubSlotStore()
	tracker := &capturingTracker{}
	return &fixture{
		repo:    repo,
		slots:   slots,
		tracker: tracker,
		svc:     NewService(repo, slots, locker, audit.Nop{}, tracker, nil, nil),
	}
}

func (f *fixture) addBooked(slotID *uuid.UUID) uuid.UUID {
	id := uuid.New()
	clientID := uuid.New()
	f.repo.leads[clientID] = nil
	start := time.Now().UTC().Add(48 * time.Hour)
	f.repo.appointments[id] = Appointment{
		ID:        id,
		ServiceID: uuid.New(),
		ClientID:  clientID,
		SlotID:    slotID,
		StartAt:   start,
		EndAt:     start.Add(time.Hour),
		Timezone:  "UTC",
		Status:    StatusBooked,
	}
	return id
}

func TestBookReservesSlotAndCreatesAppointment(t *testing.T) {
	f := newFixture(t, passLocker{})

	clientID := uuid.New()
	lead := uuid.New()
	f.repo.leads[clientID] = &lead
	slotID := f.slots.addSlot(schedule.SlotAvailable)

	appt, err := f.svc.Book(context.Background(), uuid.New(), clientID, slotID, "Europe/Berlin")
	require.NoError(t, err)

	assert.Equal(t, StatusBooked, appt.Status)
	require.NotNil(t, appt.SlotID)
	assert.Equal(t, slotID, *appt.SlotID)
	assert.Equal(t, f.slots.slots[slotID].StartAt, appt.StartAt)
	assert.Equal(t, schedule.SlotReserved, f.slots.slots[slotID].Status)

	require.Len(t, f.tracker.events, 1)
	assert.Equal(t, "appointment_booked", f.tracker.events[0].Name)
	assert.Equal(t, lead.String(), f.tracker.events[0].Properties["lead_id"])
}

func TestBookRejectsUnknownClient(t *testing.T) {
	f := newFixture(t, passLocker{})
	slotID := f.slots.addSlot(schedule.SlotAvailable)

	_, err := f.svc.Book(context.Background(), uuid.New(), uuid.New(), slotID, "UTC")
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestBookRejectsInvalidTimezone(t *testing.T) {
	f := newFixture(t, passLocker{})

	_, err := f.svc.Book(context.Background(), uuid.New(), uuid.New(), uuid.New(), "Mars/Olympus")
	assert.ErrorIs(t, err, ErrInvalidTimezone)
}

func TestBookContendedSlotReturnsRetryableError(t *testing.T) {
	f := newFixture(t, lockedLocker{})

	clientID := uuid.New()
	f.repo.leads[clientID] = nil
	slotID := f.slots.addSlot(schedule.SlotAvailable)

	_, err := f.svc.Book(context.Background(), uuid.New(), clientID, slotID, "UTC")
	assert.ErrorIs(t, err, ErrSlotBeingBooked)
	assert.Equal(t, schedule.SlotAvailable, f.slots.slots[slotID].Status, "slot must stay untouched when the lock is held elsewhere")
}

func TestBookReleasesSlotWhenPersistenceFails(t *testing.T) {
	f := newFixture(t, passLocker{})
	f.repo.createErr = errors.New("insert failed")

	clientID := uuid.New()
	f.repo.leads[clientID] = nil
	slotID := f.slots.addSlot(schedule.SlotAvailable)

	_, err := f.svc.Book(context.Background(), uuid.New(), clientID, slotID, "UTC")
	require.Error(t, err)
	assert.Equal(t, schedule.SlotAvailable, f.slots.slots[slotID].Status)
	assert.Contains(t, f.slots.released, slotID)
}

func TestCancelReleasesSlot(t *testing.T) {
	f := newFixture(t, passLocker{})

	slotID := f.slots.addSlot(schedule.SlotReserved)
	apptID := f.addBooked(&slotID)

	appt, err := f.svc.Cancel(context.Background(), apptID, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, appt.Status)
	assert.Equal(t, schedule.SlotAvailable, f.slots.slots[slotID].Status)
}

func TestCompleteKeepsSlotReserved(t *testing.T) {
	f := newFixture(t, passLocker{})

	slotID := f.slots.addSlot(schedule.SlotReserved)
	apptID := f.addBooked(&slotID)

	appt, err := f.svc.Complete(context.Background(), apptID, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, appt.Status)
	assert.Equal(t, schedule.SlotReserved, f.slots.slots[slotID].Status)
	assert.Empty(t, f.slots.released)
}

func TestRescheduleReleasesSlot(t *testing.T) {
	f := newFixture(t, passLocker{})

	slotID := f.slots.addSlot(schedule.SlotReserved)
	apptID := f.addBooked(&slotID)

	appt, err := f.svc.Reschedule(context.Background(), apptID, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusRescheduled, appt.Status)
	assert.Contains(t, f.slots.released, slotID)
}

func TestTransitionRequiresBookedStatus(t *testing.T) {
	f := newFixture(t, passLocker{})

	apptID := f.addBooked(nil)
	_, err := f.svc.Complete(context.Background(), apptID, nil)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), apptID, nil)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = f.svc.Complete(context.Background(), apptID, nil)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestRecordOutcomeRejectedWhileBooked(t *testing.T) {
	f := newFixture(t, passLocker{})

	apptID := f.addBooked(nil)
	_, err := f.svc.RecordOutcome(context.Background(), apptID, OutcomeAttended, nil, nil)
	assert.ErrorIs(t, err, ErrOutcomeNotAllowed)
}

func TestRecordOutcomeValidatesEnums(t *testing.T) {
	f := newFixture(t, passLocker{})

	apptID := f.addBooked(nil)
	_, err := f.svc.RecordOutcome(context.Background(), apptID, Outcome("ghosted"), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidOutcome)

	bad := ReasonCategory("vibes")
	_, err = f.svc.RecordOutcome(context.Background(), apptID, OutcomeNoShow, &bad, nil)
	assert.ErrorIs(t, err, ErrInvalidReasonCategory)
}

func TestRecordOutcomeOnFinishedAppointment(t *testing.T) {
	f := newFixture(t, passLocker{})

	apptID := f.addBooked(nil)
	_, err := f.svc.Complete(context.Background(), apptID, nil)
	require.NoError(t, err)

	recorder := uuid.New()
	reason := ReasonIllness
	appt, err := f.svc.RecordOutcome(context.Background(), apptID, OutcomeNoShow, &reason, &recorder)
	require.NoError(t, err)

	require.NotNil(t, appt.Outcome)
	assert.Equal(t, OutcomeNoShow, *appt.Outcome)
	require.NotNil(t, appt.OutcomeReason)
	assert.Equal(t, ReasonIllness, *appt.OutcomeReason)
	require.NotNil(t, appt.OutcomeRecordedBy)
	assert.Equal(t, recorder, *appt.OutcomeRecordedBy)
	assert.NotNil(t, appt.OutcomeRecordedAt)
}

func TestRecordOutcomeOverwritesAndCapturesPrior(t *testing.T) {
	repo := newStubRepository()
	slots := newStubSlotStore()

	var entries []audit.Entry
	trail := audit.NewBestEffort(auditRecorderFunc(func(ctx context.Context, e audit.Entry) error {
		entries = append(entries, e)
		return nil
	}), nil)

	svc := NewService(repo, slots, passLocker{}, trail, analytics.Nop{}, nil, nil)

	id := uuid.New()
	clientID := uuid.New()
	repo.leads[clientID] = nil
	repo.appointments[id] = Appointment{ID: id, ServiceID: uuid.New(), ClientID: clientID, Status: StatusCanceled, Timezone: "UTC"}

	_, err := svc.RecordOutcome(context.Background(), id, OutcomeCanceledByClient, nil, nil)
	require.NoError(t, err)

	_, err = svc.RecordOutcome(context.Background(), id, OutcomeCanceledByProvider, nil, nil)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	var prev OutcomeState
	require.NoError(t, json.Unmarshal(entries[1].PrevState, &prev))
	require.NotNil(t, prev.Outcome)
	assert.Equal(t, OutcomeCanceledByClient, *prev.Outcome)
}

type auditRecorderFunc func(ctx context.Context, e audit.Entry) error

func (f auditRecorderFunc) Record(ctx context.Context, e audit.Entry) error {
	return f(ctx, e)
}
