package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"

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
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

const slotColumns = "id, service_id, start_at, end_at, status, source, block_type, note, created_at, updated_at"

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	var serviceID *uuid.UUID
	var blockType *string
	var note *string

	err := row.Scan(
		&s.ID,
		&serviceID,
		&s.StartAt,
		&s.EndAt,
		&s.Status,
		&s.Source,
		&blockType,
		&note,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	s.ServiceID = serviceID
	s.Note = note
	if blockType != nil {
		bt := BlockType(*blockType)
		s.BlockType = &bt
	}
	return &s, nil
}

func (r *PgRepository) CreateSlots(ctx context.Context, slots []Slot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin slot batch: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, s := range slots {
		_, err := tx.Exec(ctx, `
			INSERT INTO availability_slots (id, service_id, start_at, end_at, status, source, block_type, note, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, s.ID, s.ServiceID, s.StartAt, s.EndAt, s.Status, s.Source, s.BlockType, s.Note, s.CreatedAt, s.UpdatedAt)
		if err != nil {
			return 0, fmt.Errorf("insert slot %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit slot batch: %w", err)
	}

	return len(slots), nil
}

func (r *PgRepository) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM availability_slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) ListSlots(ctx context.Context, filter SlotFilter) ([]Slot, error) {
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
	if filter.ServiceID != nil {
		add("service_id = $%d", *filter.ServiceID)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.Source != nil {
		add("source = $%d", *filter.Source)
	}

	query := "SELECT " + slotColumns + " FROM availability_slots"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY start_at"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSlots(rows)
}

func (r *PgRepository) ListSlotsByIDs(ctx context.Context, ids []uuid.UUID) ([]Slot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+slotColumns+`
		FROM availability_slots
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSlots(rows)
}

func collectSlots(rows pgx.Rows) ([]Slot, error) {
	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) UpdateSlot(ctx context.Context, id uuid.UUID, upd SlotUpdate) (*Slot, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE availability_slots
		SET start_at = COALESCE($2, start_at),
		    end_at = COALESCE($3, end_at),
		    note = COALESCE($4, note),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+slotColumns+`
	`, id, upd.StartAt, upd.EndAt, upd.Note)
	return scanSlot(row)
}

func (r *PgRepository) UpdateSlotStatus(ctx context.Context, id uuid.UUID, from, to SlotStatus) (*Slot, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE availability_slots
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+slotColumns+`
	`, id, to, from)
	return scanSlot(row)
}

func (r *PgRepository) DeleteSlots(ctx context.Context, ids []uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM availability_slots
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return fmt.Errorf("delete slots: %w", err)
	}
	return nil
}

func (r *PgRepository) GetSettings(ctx context.Context) (*Settings, error) {
	var s Settings
	err := r.db.QueryRow(ctx, `
		SELECT timezone, buffer_minutes, updated_at
		FROM schedule_settings
		WHERE id = 1
	`).Scan(&s.Timezone, &s.BufferMinutes, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PgRepository) UpsertSettings(ctx context.Context, s Settings) (*Settings, error) {
	var out Settings
	err := r.db.QueryRow(ctx, `
		INSERT INTO schedule_settings (id, timezone, buffer_minutes, updated_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET timezone = EXCLUDED.timezone,
		    buffer_minutes = EXCLUDED.buffer_minutes,
		    updated_at = now()
		RETURNING timezone, buffer_minutes, updated_at
	`, s.Timezone, s.BufferMinutes).Scan(&out.Timezone, &out.BufferMinutes, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert schedule settings: %w", err)
	}
	return &out, nil
}
