package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PgRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPgRepository(mock)
}

func slotRow(id uuid.UUID, status SlotStatus) *pgxmock.Rows {
	now := time.Now().UTC()
	return pgxmock.NewRows([]string{
		"id", "service_id", "start_at", "end_at", "status", "source", "block_type", "note", "created_at", "updated_at",
	}).AddRow(id, (*uuid.UUID)(nil), now, now.Add(time.Hour), status, SourceProduct, (*string)(nil), (*string)(nil), now, now)
}

func TestPgGetSlot(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT id, service_id").
		WithArgs(id).
		WillReturnRows(slotRow(id, SlotAvailable))

	slot, err := repo.GetSlot(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, slot.ID)
	assert.Equal(t, SlotAvailable, slot.Status)

	mock.ExpectQuery("SELECT id, service_id").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetSlot(context.Background(), id)
	assert.ErrorIs(t, err, ErrSlotNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgCreateSlotsRunsInOneTransaction(t *testing.T) {
	mock, repo := newMockRepo(t)

	now := time.Now().UTC()
	slots := []Slot{
		{ID: uuid.New(), StartAt: now, EndAt: now.Add(time.Hour), Status: SlotAvailable, Source: SourceProduct, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), StartAt: now.Add(2 * time.Hour), EndAt: now.Add(3 * time.Hour), Status: SlotAvailable, Source: SourceProduct, CreatedAt: now, UpdatedAt: now},
	}

	mock.ExpectBegin()
	for _, s := range slots {
		mock.ExpectExec("INSERT INTO availability_slots").
			WithArgs(s.ID, s.ServiceID, s.StartAt, s.EndAt, s.Status, s.Source, s.BlockType, s.Note, s.CreatedAt, s.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	created, err := repo.CreateSlots(context.Background(), slots)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgUpdateSlotStatusIsConditional(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery("UPDATE availability_slots").
		WithArgs(id, SlotReserved, SlotAvailable).
		WillReturnRows(slotRow(id, SlotReserved))

	slot, err := repo.UpdateSlotStatus(context.Background(), id, SlotAvailable, SlotReserved)
	require.NoError(t, err)
	assert.Equal(t, SlotReserved, slot.Status)

	// Wrong current status matches no row.
	mock.ExpectQuery("UPDATE availability_slots").
		WithArgs(id, SlotReserved, SlotAvailable).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.UpdateSlotStatus(context.Background(), id, SlotAvailable, SlotReserved)
	assert.ErrorIs(t, err, ErrSlotNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgListSlotsAppliesFilters(t *testing.T) {
	mock, repo := newMockRepo(t)

	from := time.Now().UTC()
	status := SlotAvailable

	mock.ExpectQuery(`SELECT (.+) FROM availability_slots WHERE start_at >= \$1 AND status = \$2 ORDER BY start_at`).
		WithArgs(from, status).
		WillReturnRows(slotRow(uuid.New(), SlotAvailable))

	slots, err := repo.ListSlots(context.Background(), SlotFilter{From: &from, Status: &status})
	require.NoError(t, err)
	assert.Len(t, slots, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgDeleteSlots(t *testing.T) {
	mock, repo := newMockRepo(t)
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	mock.ExpectExec("DELETE FROM availability_slots").
		WithArgs(ids).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	require.NoError(t, repo.DeleteSlots(context.Background(), ids))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgSettingsRoundTrip(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT timezone, buffer_minutes, updated_at").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetSettings(context.Background())
	assert.ErrorIs(t, err, ErrSettingsNotFound)

	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO schedule_settings").
		WithArgs("Europe/Berlin", 15).
		WillReturnRows(pgxmock.NewRows([]string{"timezone", "buffer_minutes", "updated_at"}).
			AddRow("Europe/Berlin", 15, now))

	settings, err := repo.UpsertSettings(context.Background(), Settings{Timezone: "Europe/Berlin", BufferMinutes: 15})
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", settings.Timezone)
	assert.Equal(t, 15, settings.BufferMinutes)

	require.NoError(t, mock.ExpectationsWereMet())
}
