package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quietpractice/practice-platform/internal/schedule"
)

func listSlotsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter schedule.SlotFilter

		q := r.URL.Query()
		if v := q.Get("from"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_from", "from must be an RFC3339 timestamp")
				return
			}
			filter.From = &t
		}
		if v := q.Get("to"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_to", "to must be an RFC3339 timestamp")
				return
			}
			filter.To = &t
		}
		if v := q.Get("service_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
				return
			}
			filter.ServiceID = &id
		}
		if v := q.Get("status"); v != "" {
			status := schedule.SlotStatus(v)
			filter.Status = &status
		}
		if v := q.Get("source"); v != "" {
			source := schedule.SlotSource(v)
			filter.Source = &source
		}

		slots, err := svc.ListSlots(r.Context(), filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, toSlotResponse(s))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createSlotsHandler(create func(r *http.Request, reqs []schedule.SlotRequest) (int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSlotsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if len(req.Slots) == 0 {
			writeError(w, http.StatusBadRequest, "empty_batch", "slots must not be empty")
			return
		}

		reqs, err := toSlotRequests(req.Slots)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		created, err := create(r, reqs)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, CreatedResponse{Created: created})
	}
}

func updateSlotHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "id must be a valid UUID")
			return
		}

		var req UpdateSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		var upd schedule.SlotUpdate
		if req.StartAtUTC != nil {
			t, err := time.Parse(time.RFC3339, *req.StartAtUTC)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_start", "start_at_utc must be an RFC3339 timestamp")
				return
			}
			t = t.UTC()
			upd.StartAt = &t
		}
		if req.EndAtUTC != nil {
			t, err := time.Parse(time.RFC3339, *req.EndAtUTC)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_end", "end_at_utc must be an RFC3339 timestamp")
				return
			}
			t = t.UTC()
			upd.EndAt = &t
		}
		upd.Note = req.Note

		slot, err := svc.UpdateSlot(r.Context(), id, upd, actorID(r.Context()))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotResponse(*slot))
	}
}

func deleteSlotsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeleteSlotsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if len(req.SlotIDs) == 0 {
			writeError(w, http.StatusBadRequest, "empty_batch", "slot_ids must not be empty")
			return
		}

		ids := make([]uuid.UUID, 0, len(req.SlotIDs))
		for _, raw := range req.SlotIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_slot_id", "slot_ids must be valid UUIDs")
				return
			}
			ids = append(ids, id)
		}

		if err := svc.DeleteSlots(r.Context(), ids, actorID(r.Context())); err != nil {
			writeServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func getSettingsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := svc.GetSettings(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, SettingsResponse{
			Timezone:      settings.Timezone,
			BufferMinutes: settings.BufferMinutes,
		})
	}
}

func updateSettingsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		settings, err := svc.UpdateSettings(r.Context(), req.Timezone, req.BufferMinutes, actorID(r.Context()))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, SettingsResponse{
			Timezone:      settings.Timezone,
			BufferMinutes: settings.BufferMinutes,
		})
	}
}
