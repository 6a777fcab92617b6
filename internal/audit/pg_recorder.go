package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the single statement the recorder needs from pgxpool.Pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgRecorder struct {
	db DB
}

func NewPgRecorder(db DB) *PgRecorder {
	return &PgRecorder{db: db}
}

func (r *PgRecorder) Record(ctx context.Context, e Entry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_entries (id, entity_type, entity_id, action, prev_state, new_state, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.EntityType, e.EntityID, e.Action, e.PrevState, e.NewState, e.ActorID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
