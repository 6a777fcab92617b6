package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quietpractice/practice-platform/internal/db"
	"github.com/quietpractice/practice-platform/internal/schedule"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	serviceIDs, err := seedServices(context.Background(), pool)
	if err != nil {
		log.Fatalf("seed services: %v", err)
	}
	if err := seedClients(context.Background(), pool, 200); err != nil {
		log.Fatalf("seed clients: %v", err)
	}
	if err := seedSlots(context.Background(), pool, serviceIDs); err != nil {
		log.Fatalf("seed slots: %v", err)
	}

	log.Println("seed complete")
}

func seedServices(ctx context.Context, pool *pgxpool.Pool) ([]uuid.UUID, error) {
	services := []struct {
		name     string
		duration int
		price    int
	}{
		{"Individual session", 50, 7000},
		{"Couples session", 80, 11000},
		{"First consultation", 30, 0},
		{"Supervision", 60, 9000},
	}

	log.Printf("seeding %d services", len(services))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, len(services))
	for _, s := range services {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO services (id, name, duration_minutes, price_cents, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, TRUE, now(), now())
		`, id, s.name, s.duration, s.price)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, tx.Commit(ctx)
}

func seedClients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d clients", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		email := gofakeit.Email()
		var leadID *uuid.UUID
		// Roughly half the clients arrived through a tracked marketing lead.
		if gofakeit.Bool() {
			id := uuid.New()
			leadID = &id
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO clients (id, name, email, lead_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, uuid.New(), gofakeit.Name(), email, leadID)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// seedSlots creates four weeks of weekday working slots through the same
// generator the API uses.
func seedSlots(ctx context.Context, pool *pgxpool.Pool, serviceIDs []uuid.UUID) error {
	repo := schedule.NewPgRepository(pool)

	start := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	until := start.AddDate(0, 0, 28)

	var reqs []schedule.SlotRequest
	for day := 0; day < 5; day++ {
		dayStart := start.AddDate(0, 0, day)
		for hour := 10; hour < 18; hour += 2 {
			svcID := serviceIDs[gofakeit.Number(0, len(serviceIDs)-1)]
			reqs = append(reqs, schedule.SlotRequest{
				StartAt:   dayStart.Add(time.Duration(hour) * time.Hour),
				EndAt:     dayStart.Add(time.Duration(hour)*time.Hour + 50*time.Minute),
				ServiceID: &svcID,
				Repeat: &schedule.Repeat{
					Frequency: schedule.RepeatWeekly,
					Until:     until,
				},
			})
		}
	}

	slots, err := schedule.ExpandBatch(reqs, schedule.SlotAvailable, nil, time.Now().UTC())
	if err != nil {
		return err
	}

	created, err := repo.CreateSlots(ctx, slots)
	if err != nil {
		return err
	}

	log.Printf("seeded %d slots", created)
	return nil
}
