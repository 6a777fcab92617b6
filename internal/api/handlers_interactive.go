package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quietpractice/practice-platform/internal/interactive"
)

func listDefinitionsHandler(svc *interactive.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defs, err := svc.ListDefinitions(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := make([]DefinitionResponse, 0, len(defs))
		for i := range defs {
			resp = append(resp, toDefinitionResponse(&defs[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getDefinitionHandler(svc *interactive.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_definition_id", "id must be a valid UUID")
			return
		}

		def, err := svc.GetDefinition(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDefinitionResponse(def))
	}
}

func saveDraftHandler(svc *interactive.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_definition_id", "id must be a valid UUID")
			return
		}

		var req SaveDraftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		def, err := svc.SaveDraft(r.Context(), id, req.Draft, actorID(r.Context()))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDefinitionResponse(def))
	}
}

func archiveDefinitionHandler(svc *interactive.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_definition_id", "id must be a valid UUID")
			return
		}

		def, err := svc.Archive(r.Context(), id, actorID(r.Context()))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDefinitionResponse(def))
	}
}

func listVersionsHandler(svc *interactive.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_definition_id", "id must be a valid UUID")
			return
		}

		versions, err := svc.ListVersions(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := make([]VersionResponse, 0, len(versions))
		for i := range versions {
			resp = append(resp, toVersionResponse(&versions[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getVersionHandler(svc *interactive.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_definition_id", "id must be a valid UUID")
			return
		}
		version, err := strconv.Atoi(chi.URLParam(r, "version"))
		if err != nil || version < 1 {
			writeError(w, http.StatusBadRequest, "invalid_version", "version must be a positive integer")
			return
		}

		v, err := svc.GetVersion(r.Context(), id, version)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toVersionResponse(v))
	}
}

func publishNavigatorHandler(svc *interactive.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_definition_id", "id must be a valid UUID")
			return
		}

		var req PublishRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		def, version, err := svc.Publish(r.Context(), id, req.Config, actorID(r.Context()))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, struct {
			Definition DefinitionResponse `json:"definition"`
			Version    VersionResponse    `json:"version"`
		}{
			Definition: toDefinitionResponse(def),
			Version:    toVersionResponse(version),
		})
	}
}

func validateNavigatorHandler(svc *interactive.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_definition_id", "id must be a valid UUID")
			return
		}

		var req ValidateRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
		}

		issues, err := svc.ValidateDraft(r.Context(), id, req.Config)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ValidateResponse{Valid: len(issues) == 0, Issues: issues})
	}
}

func diffNavigatorHandler(svc *interactive.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_definition_id", "id must be a valid UUID")
			return
		}
		version, err := strconv.Atoi(r.URL.Query().Get("version"))
		if err != nil || version < 1 {
			writeError(w, http.StatusBadRequest, "invalid_version", "version must be a positive integer")
			return
		}

		notes, err := svc.Diff(r.Context(), id, version)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, DiffResponse{Notes: notes})
	}
}

// publicNavigatorHandler serves the published config for a navigator slug.
// The endpoint is feature flag gated.
func publicNavigatorHandler(svc *interactive.Service, enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !enabled {
			writeError(w, http.StatusNotFound, "navigator_not_found", "navigators are not enabled")
			return
		}

		slug := chi.URLParam(r, "slug")
		config, err := svc.PublishedNavigator(r.Context(), slug)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(config)
	}
}
