package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

const appointmentColumns = `id, service_id, client_id, slot_id, start_at, end_at, timezone, status,
	outcome, outcome_reason, outcome_recorded_by, outcome_recorded_at, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var slotID *uuid.UUID
	var outcome, reason *string
	var recordedBy *uuid.UUID
	var recordedAt *time.Time

	err := row.Scan(
		&a.ID,
		&a.ServiceID,
		&a.ClientID,
		&slotID,
		&a.StartAt,
		&a.EndAt,
		&a.Timezone,
		&a.Status,
		&outcome,
		&reason,
		&recordedBy,
		&recordedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.SlotID = slotID
	if outcome != nil {
		o := Outcome(*outcome)
		a.Outcome = &o
	}
	if reason != nil {
		rc := ReasonCategory(*reason)
		a.OutcomeReason = &rc
	}
	a.OutcomeRecordedBy = recordedBy
	a.OutcomeRecordedAt = recordedAt
	return &a, nil
}

func (r *PgRepository) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context, filter Filter) ([]Appointment, error) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.From != nil {
		add("start_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("start_at < $%d", *filter.To)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}

	query := "SELECT " + appointmentColumns + " FROM appointments"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY start_at"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, service_id, client_id, slot_id, start_at, end_at, timezone, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+appointmentColumns+`
	`, a.ID, a.ServiceID, a.ClientID, a.SlotID, a.StartAt, a.EndAt, a.Timezone, a.Status)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateOutcome(ctx context.Context, id uuid.UUID, outcome Outcome, reason *ReasonCategory, recordedBy *uuid.UUID, recordedAt time.Time) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET outcome = $2,
		    outcome_reason = $3,
		    outcome_recorded_by = $4,
		    outcome_recorded_at = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, outcome, reason, recordedBy, recordedAt)
	return scanAppointment(row)
}

func (r *PgRepository) ResolveLeadID(ctx context.Context, clientID uuid.UUID) (*uuid.UUID, error) {
	var leadID *uuid.UUID
	err := r.db.QueryRow(ctx, `
		SELECT lead_id
		FROM clients
		WHERE id = $1
	`, clientID).Scan(&leadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return leadID, nil
}
