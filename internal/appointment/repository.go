package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrClientNotFound      = errors.New("client not found")
)

// Repository contains all DB interactions needed by the appointment service.
type Repository interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointments(ctx context.Context, filter Filter) ([]Appointment, error)

	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	// UpdateStatus flips an appointment from one status to another in a
	// single conditional statement; returns ErrAppointmentNotFound when the
	// appointment is not in the expected from status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)
	// UpdateOutcome overwrites the outcome fields in one statement.
	UpdateOutcome(ctx context.Context, id uuid.UUID, outcome Outcome, reason *ReasonCategory, recordedBy *uuid.UUID, recordedAt time.Time) (*Appointment, error)

	// ResolveLeadID returns the marketing lead id linked to a client, if any.
	ResolveLeadID(ctx context.Context, clientID uuid.UUID) (*uuid.UUID, error)
}
