package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/quietpractice/practice-platform/internal/appointment"
	"github.com/quietpractice/practice-platform/internal/interactive"
	"github.com/quietpractice/practice-platform/internal/schedule"
	"github.com/quietpractice/practice-platform/pkg/logging"
)

type RouterConfig struct {
	Schedule     *schedule.Service
	Appointments *appointment.Service
	Interactive  *interactive.Service

	PgPool *pgxpool.Pool
	Redis  *redis.Client
	Logger *logging.Logger

	AdminJWTSecret   string
	NavigatorEnabled bool
	Env              string
	Version          string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)

	// Health and metrics
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// Public surface
	r.Get("/public/interactive/navigators/{slug}", publicNavigatorHandler(cfg.Interactive, cfg.NavigatorEnabled))

	// Admin back office
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(AdminJWT(cfg.AdminJWTSecret))

		admin.Route("/schedule", func(sch chi.Router) {
			// Reads are open to every back-office role.
			sch.With(RequireRole(RoleOwner, RoleEditor, RoleAssistant)).Group(func(ro chi.Router) {
				ro.Get("/slots", listSlotsHandler(cfg.Schedule))
				ro.Get("/appointments", listAppointmentsHandler(cfg.Appointments))
				ro.Get("/settings", getSettingsHandler(cfg.Schedule))
			})

			// Mutations need owner or editor.
			sch.With(RequireRole(RoleOwner, RoleEditor)).Group(func(rw chi.Router) {
				rw.Post("/slots", createSlotsHandler(func(r *http.Request, reqs []schedule.SlotRequest) (int, error) {
					return cfg.Schedule.CreateSlots(r.Context(), reqs, actorID(r.Context()))
				}))
				rw.Post("/exceptions", createSlotsHandler(func(r *http.Request, reqs []schedule.SlotRequest) (int, error) {
					return cfg.Schedule.CreateExceptions(r.Context(), reqs, actorID(r.Context()))
				}))
				rw.Post("/buffers", createSlotsHandler(func(r *http.Request, reqs []schedule.SlotRequest) (int, error) {
					return cfg.Schedule.CreateBuffers(r.Context(), reqs, actorID(r.Context()))
				}))
				rw.Put("/slots/{id}", updateSlotHandler(cfg.Schedule))
				rw.Delete("/slots", deleteSlotsHandler(cfg.Schedule))

				rw.Post("/appointments", bookAppointmentHandler(cfg.Appointments))
				rw.Post("/appointments/{id}/cancel", appointmentTransitionHandler(func(r *http.Request, id uuid.UUID) (*appointment.Appointment, error) {
					return cfg.Appointments.Cancel(r.Context(), id, actorID(r.Context()))
				}))
				rw.Post("/appointments/{id}/complete", appointmentTransitionHandler(func(r *http.Request, id uuid.UUID) (*appointment.Appointment, error) {
					return cfg.Appointments.Complete(r.Context(), id, actorID(r.Context()))
				}))
				rw.Post("/appointments/{id}/reschedule", appointmentTransitionHandler(func(r *http.Request, id uuid.UUID) (*appointment.Appointment, error) {
					return cfg.Appointments.Reschedule(r.Context(), id, actorID(r.Context()))
				}))
				rw.Post("/appointments/{id}/outcome", recordOutcomeHandler(cfg.Appointments))

				rw.Put("/settings", updateSettingsHandler(cfg.Schedule))
			})
		})

		admin.Route("/interactive", func(ia chi.Router) {
			ia.With(RequireRole(RoleOwner, RoleEditor, RoleAssistant)).Group(func(ro chi.Router) {
				ro.Get("/definitions", listDefinitionsHandler(cfg.Interactive))
				ro.Get("/definitions/{id}", getDefinitionHandler(cfg.Interactive))
				ro.Get("/definitions/{id}/versions", listVersionsHandler(cfg.Interactive))
				ro.Get("/definitions/{id}/versions/{version}", getVersionHandler(cfg.Interactive))
				ro.Get("/navigators/{id}/diff", diffNavigatorHandler(cfg.Interactive))
			})

			ia.With(RequireRole(RoleOwner, RoleEditor)).Group(func(rw chi.Router) {
				rw.Put("/definitions/{id}", saveDraftHandler(cfg.Interactive))
				rw.Post("/definitions/{id}/archive", archiveDefinitionHandler(cfg.Interactive))
				rw.Post("/navigators/{id}/publish", publishNavigatorHandler(cfg.Interactive))
				rw.Post("/navigators/{id}/validate", validateNavigatorHandler(cfg.Interactive))
			})
		})
	})

	return r
}
