// simulate hammers the booking endpoint with concurrent requests against a
// shared pool of slots and clients, and reports how the conflicts resolved.
// It is a development tool for exercising the per slot booking lock.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quietpractice/practice-platform/internal/config"
	"github.com/quietpractice/practice-platform/internal/db"
)

type simConfig struct {
	apiBaseURL string
	duration   time.Duration
	workers    int
	slotLimit  int
}

type dataPool struct {
	clients  []uuid.UUID
	slots    []uuid.UUID
	services []uuid.UUID
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	sim := simConfig{
		apiBaseURL: envOr("SIM_API_URL", "http://127.0.0.1:"+cfg.HTTPPort),
		duration:   envDuration("SIM_DURATION", 30*time.Second),
		workers:    envInt("SIM_WORKERS", 16),
		slotLimit:  envInt("SIM_SLOT_LIMIT", 50),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	data, err := loadPool(context.Background(), pool, sim.slotLimit)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	if len(data.slots) == 0 || len(data.clients) == 0 || len(data.services) == 0 {
		log.Fatal("no slots, clients, or services to simulate against; run cmd/seed first")
	}

	token, err := mintToken(cfg.AdminJWTSecret)
	if err != nil {
		log.Fatalf("mint admin token: %v", err)
	}

	log.Printf("simulating: %d workers for %s against %d slots", sim.workers, sim.duration, len(data.slots))

	var booked, conflicts, failures atomic.Int64

	runCtx, stop := context.WithTimeout(context.Background(), sim.duration)
	defer stop()

	var wg sync.WaitGroup
	for w := 0; w < sim.workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			client := &http.Client{Timeout: 5 * time.Second}
			for runCtx.Err() == nil {
				status, err := bookOnce(runCtx, client, sim.apiBaseURL, token, data, rng)
				switch {
				case err != nil:
					failures.Add(1)
				case status == http.StatusCreated:
					booked.Add(1)
				case status == http.StatusConflict:
					conflicts.Add(1)
				default:
					failures.Add(1)
				}
			}
		}(time.Now().UnixNano() + int64(w))
	}
	wg.Wait()

	fmt.Printf("booked=%d conflicts=%d failures=%d\n", booked.Load(), conflicts.Load(), failures.Load())
}

func bookOnce(ctx context.Context, client *http.Client, baseURL, token string, data *dataPool, rng *rand.Rand) (int, error) {
	body, err := json.Marshal(map[string]string{
		"service_id": data.services[rng.Intn(len(data.services))].String(),
		"client_id":  data.clients[rng.Intn(len(data.clients))].String(),
		"slot_id":    data.slots[rng.Intn(len(data.slots))].String(),
		"timezone":   "Europe/Berlin",
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/admin/schedule/appointments", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func loadPool(ctx context.Context, pool *pgxpool.Pool, slotLimit int) (*dataPool, error) {
	data := &dataPool{}

	if err := collectIDs(ctx, pool, `SELECT id FROM clients LIMIT 500`, &data.clients); err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	if err := collectIDs(ctx, pool, `SELECT id FROM services WHERE active LIMIT 50`, &data.services); err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	query := fmt.Sprintf(`SELECT id FROM availability_slots WHERE status = 'available' ORDER BY start_at LIMIT %d`, slotLimit)
	if err := collectIDs(ctx, pool, query, &data.slots); err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}

	return data, nil
}

func collectIDs(ctx context.Context, pool *pgxpool.Pool, query string, out *[]uuid.UUID) error {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return err
		}
		*out = append(*out, id)
	}
	return rows.Err()
}

func mintToken(secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("ADMIN_JWT_SECRET is required")
	}
	claims := jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": "editor",
		"exp":  time.Now().Add(2 * time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
