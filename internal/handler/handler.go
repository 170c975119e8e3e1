// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/service"
	"github.com/Shivanand-hulikatti/eventhub/internal/validation"
)

// EventHandler holds all HTTP handlers for the events API.
type EventHandler struct {
	svc *service.EventService
	log zerolog.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService, log zerolog.Logger) *EventHandler {
	return &EventHandler{svc: svc, log: log}
}

// CountResponse is returned by join and leave.
type CountResponse struct {
	ParticipantCount int `json:"participantCount"`
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// decodeJSON reads a JSON body. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeServiceError maps service errors onto status codes.
func (h *EventHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: model.ErrInvalidInput.Error(), Details: ve.Errors})
	case errors.Is(err, model.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case model.IsNotFound(err):
		msg := "event not found"
		if errors.Is(err, model.ErrSessionNotFound) {
			msg = "session not found"
		}
		writeError(w, http.StatusNotFound, msg)
	case errors.Is(err, model.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrOrganizerJoin):
		writeError(w, http.StatusConflict, "organizers cannot join their own event")
	case errors.Is(err, model.ErrAlreadyMember):
		writeError(w, http.StatusConflict, "you have already joined this event")
	case errors.Is(err, model.ErrEventFull):
		writeError(w, http.StatusConflict, "event is full")
	case errors.Is(err, model.ErrConflict):
		writeJSON(w, http.StatusConflict, model.ErrorResponse{Error: model.ErrConflict.Error(), Retryable: true})
	case errors.Is(err, model.ErrUnavailable):
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func caller(r *http.Request) model.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

// ─── Events ───────────────────────────────────────────────────────────────────

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req validation.EventPayload
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), caller(r), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListOwnedEvents handles GET /events
func (h *EventHandler) ListOwnedEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListOwnedEvents(r.Context(), caller(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// ListPublicEvents handles GET /events/public
// Returns public events organized by someone other than the caller.
func (h *EventHandler) ListPublicEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListPublicEvents(r.Context(), caller(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// ListJoinedEvents handles GET /events/joined
func (h *EventHandler) ListJoinedEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListJoinedEvents(r.Context(), caller(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// UpdateEvent handles PATCH /events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req validation.EventPatch
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.UpdateEvent(r.Context(), caller(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /events/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEvent(r.Context(), caller(r), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Membership ───────────────────────────────────────────────────────────────

// JoinEvent handles POST /events/{id}/join
func (h *EventHandler) JoinEvent(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.JoinEvent(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{ParticipantCount: count})
}

// LeaveEvent handles POST /events/{id}/leave
func (h *EventHandler) LeaveEvent(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.LeaveEvent(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{ParticipantCount: count})
}

// ─── Sessions ─────────────────────────────────────────────────────────────────

// AddSession handles POST /events/{id}/sessions
func (h *EventHandler) AddSession(w http.ResponseWriter, r *http.Request) {
	var req validation.SessionPayload
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	session, err := h.svc.AddSession(r.Context(), caller(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// UpdateSession handles PATCH /sessions/{sessionId}
func (h *EventHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var req validation.SessionPatch
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	session, err := h.svc.UpdateSession(r.Context(), caller(r), chi.URLParam(r, "sessionId"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// RemoveSession handles DELETE /sessions/{sessionId}
func (h *EventHandler) RemoveSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveSession(r.Context(), caller(r), chi.URLParam(r, "sessionId")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
