package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusBooked      Status = "booked"
	StatusCompleted   Status = "completed"
	StatusCanceled    Status = "canceled"
	StatusRescheduled Status = "rescheduled"
)

// Outcome is the actual result of a past appointment, recorded after the
// fact and distinct from the scheduling status.
type Outcome string

const (
	OutcomeAttended           Outcome = "attended"
	OutcomeNoShow             Outcome = "no_show"
	OutcomeCanceledByClient   Outcome = "canceled_by_client"
	OutcomeCanceledByProvider Outcome = "canceled_by_provider"
	OutcomeRescheduled        Outcome = "rescheduled"
)

type ReasonCategory string

const (
	ReasonLateCancel ReasonCategory = "late_cancel"
	ReasonTechIssue  ReasonCategory = "tech_issue"
	ReasonIllness    ReasonCategory = "illness"
	ReasonOther      ReasonCategory = "other"
	ReasonUnknown    ReasonCategory = "unknown"
)

func validOutcome(o Outcome) bool {
	switch o {
	case OutcomeAttended, OutcomeNoShow, OutcomeCanceledByClient, OutcomeCanceledByProvider, OutcomeRescheduled:
		return true
	}
	return false
}

func validReason(r ReasonCategory) bool {
	switch r {
	case ReasonLateCancel, ReasonTechIssue, ReasonIllness, ReasonOther, ReasonUnknown:
		return true
	}
	return false
}

type Appointment struct {
	ID        uuid.UUID
	ServiceID uuid.UUID
	ClientID  uuid.UUID
	SlotID    *uuid.UUID
	StartAt   time.Time
	EndAt     time.Time
	Timezone  string
	Status    Status

	Outcome           *Outcome
	OutcomeReason     *ReasonCategory
	OutcomeRecordedBy *uuid.UUID
	OutcomeRecordedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OutcomeState groups the outcome fields for audit diffing.
type OutcomeState struct {
	Outcome    *Outcome        `json:"outcome"`
	Reason     *ReasonCategory `json:"reason_category"`
	RecordedBy *uuid.UUID      `json:"recorded_by"`
	RecordedAt *time.Time      `json:"recorded_at"`
}

type Filter struct {
	From   *time.Time
	To     *time.Time
	Status *Status
}
