package api

import (
	"errors"
	"net/http"

	"github.com/quietpractice/practice-platform/internal/appointment"
	"github.com/quietpractice/practice-platform/internal/interactive"
	"github.com/quietpractice/practice-platform/internal/redisclient"
	"github.com/quietpractice/practice-platform/internal/schedule"
)

// writeServiceError maps domain errors onto HTTP statuses: validation
// failures are bad requests, missing entities not found, state-machine
// violations conflicts. Anything unexpected is a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrInvalidSlotRequest):
		writeError(w, http.StatusBadRequest, "invalid_slot_request", err.Error())
	case errors.Is(err, schedule.ErrInvalidSettings):
		writeError(w, http.StatusBadRequest, "invalid_settings", err.Error())
	case errors.Is(err, appointment.ErrInvalidOutcome),
		errors.Is(err, appointment.ErrInvalidReasonCategory):
		writeError(w, http.StatusBadRequest, "invalid_outcome", err.Error())
	case errors.Is(err, appointment.ErrInvalidTimezone):
		writeError(w, http.StatusBadRequest, "invalid_timezone", err.Error())
	case errors.Is(err, interactive.ErrInvalidConfig),
		errors.Is(err, interactive.ErrNavigatorConfigDrop):
		writeError(w, http.StatusBadRequest, "invalid_config", err.Error())
	case errors.Is(err, interactive.ErrNotANavigator):
		writeError(w, http.StatusBadRequest, "not_a_navigator", err.Error())

	case errors.Is(err, schedule.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrClientNotFound):
		writeError(w, http.StatusNotFound, "client_not_found", err.Error())
	case errors.Is(err, interactive.ErrDefinitionNotFound):
		writeError(w, http.StatusNotFound, "definition_not_found", err.Error())
	case errors.Is(err, interactive.ErrVersionNotFound):
		writeError(w, http.StatusNotFound, "version_not_found", err.Error())
	case errors.Is(err, interactive.ErrNavigatorNotServed):
		writeError(w, http.StatusNotFound, "navigator_not_found", err.Error())
	case errors.Is(err, schedule.ErrSettingsNotFound):
		writeError(w, http.StatusNotFound, "settings_not_found", err.Error())

	case errors.Is(err, schedule.ErrSlotReserved):
		writeError(w, http.StatusConflict, "slot_reserved", err.Error())
	case errors.Is(err, schedule.ErrSlotNotAvailable):
		writeError(w, http.StatusConflict, "slot_not_available", err.Error())
	case errors.Is(err, appointment.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, appointment.ErrOutcomeNotAllowed):
		writeError(w, http.StatusConflict, "outcome_not_allowed", err.Error())
	case errors.Is(err, interactive.ErrDefinitionArchived):
		writeError(w, http.StatusConflict, "definition_archived", err.Error())

	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
