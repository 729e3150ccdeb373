// Package eventhandlers exposes the event module over HTTP.
package eventhandlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	eventservice "github.com/about-last-night/aln-backend/app/modules/event/application"
	eventtypes "github.com/about-last-night/aln-backend/app/modules/event/domain"
	"github.com/about-last-night/aln-backend/app/shared/attr"
	"github.com/about-last-night/aln-backend/app/shared/httpapi"
	"github.com/about-last-night/aln-backend/app/shared/results"
	"github.com/about-last-night/aln-backend/pkg/jwt"
)

// Handlers carries the event HTTP handlers.
type Handlers struct {
	service eventservice.Service
	tokens  jwt.Service
	logger  *slog.Logger
}

// NewHandlers creates event HTTP handlers.
func NewHandlers(service eventservice.Service, tokens jwt.Service, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, tokens: tokens, logger: logger}
}

// Routes mounts the event routes.
func (h *Handlers) Routes(r chi.Router) {
	r.Post("/events", h.CreateEvent)
	r.Get("/events/code/{code}", h.GetEventByCode)
	r.Get("/events/{eventID}", h.GetEvent)
	r.Post("/events/{eventID}/join", h.JoinEvent)
	r.Get("/events/{eventID}/participants", h.ListParticipants)

	r.Group(func(r chi.Router) {
		r.Use(httpapi.CreatorAuth(h.tokens))
		r.Post("/events/{eventID}/start", h.StartEvent)
		r.Post("/events/{eventID}/end", h.EndEvent)
		r.Delete("/events/{eventID}/participants/{participantID}", h.DeactivateParticipant)
	})
}

type createEventRequest struct {
	Title            string  `json:"title"`
	Description      *string `json:"description"`
	EventType        string  `json:"event_type"`
	MaxParticipants  int     `json:"max_participants"`
	MaxPhotosPerUser int     `json:"max_photos_per_user"`
	DurationMinutes  int     `json:"duration_minutes"`
	CreatedBy        string  `json:"created_by"`
}

// CreateEvent handles POST /events.
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid", "malformed JSON body")
		return
	}

	result, err := h.service.CreateEvent(r.Context(), eventservice.CreateEventInput{
		Title:            req.Title,
		Description:      req.Description,
		EventType:        req.EventType,
		MaxParticipants:  req.MaxParticipants,
		MaxPhotosPerUser: req.MaxPhotosPerUser,
		DurationMinutes:  req.DurationMinutes,
		CreatedBy:        req.CreatedBy,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Create event failed", attr.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal", "could not create event")
		return
	}
	if result.IsFailure() {
		httpapi.RespondFailure(w, *result.Failure)
		return
	}

	httpapi.RespondJSON(w, http.StatusCreated, result.Success)
}

// GetEvent handles GET /events/{eventID}.
func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.parseEventID(w, r)
	if !ok {
		return
	}

	result, err := h.service.GetEvent(r.Context(), eventID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Get event failed", attr.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal", "could not load event")
		return
	}
	if result.IsFailure() {
		httpapi.RespondFailure(w, *result.Failure)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, result.Success)
}

// GetEventByCode handles GET /events/code/{code}.
func (h *Handlers) GetEventByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid", "code is required")
		return
	}

	result, err := h.service.GetEventByCode(r.Context(), code)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Get event by code failed", attr.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal", "could not load event")
		return
	}
	if result.IsFailure() {
		httpapi.RespondFailure(w, *result.Failure)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, result.Success)
}

type joinEventRequest struct {
	Code     string `json:"code"`
	UserName string `json:"user_name"`
}

// JoinEvent handles POST /events/{eventID}/join. The body carries the join
// code so the server re-validates it even when the client already resolved
// the event ID.
func (h *Handlers) JoinEvent(w http.ResponseWriter, r *http.Request) {
	var req joinEventRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid", "malformed JSON body")
		return
	}

	result, err := h.service.JoinEvent(r.Context(), req.Code, req.UserName)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Join event failed", attr.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal", "could not join event")
		return
	}
	if result.IsFailure() {
		httpapi.RespondFailure(w, *result.Failure)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, result.Success)
}

// ListParticipants handles GET /events/{eventID}/participants.
func (h *Handlers) ListParticipants(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.parseEventID(w, r)
	if !ok {
		return
	}

	result, err := h.service.ListParticipants(r.Context(), eventID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "List participants failed", attr.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal", "could not list participants")
		return
	}
	if result.IsFailure() {
		httpapi.RespondFailure(w, *result.Failure)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, result.Success)
}

// StartEvent handles POST /events/{eventID}/start.
func (h *Handlers) StartEvent(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.StartEvent)
}

// EndEvent handles POST /events/{eventID}/end.
func (h *Handlers) EndEvent(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.EndEvent)
}

func (h *Handlers) lifecycle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, eventID uuid.UUID, caller string) (results.OperationResult[eventtypes.EventInfo, eventtypes.Failure], error)) {
	eventID, ok := h.parseEventID(w, r)
	if !ok {
		return
	}

	claims, ok := httpapi.ClaimsFromContext(r.Context())
	if !ok {
		httpapi.RespondError(w, http.StatusUnauthorized, "unauthorized", "missing credentials")
		return
	}
	if claims.EventID != eventID.String() {
		httpapi.RespondError(w, http.StatusForbidden, "forbidden", "token does not match this event")
		return
	}

	result, err := op(r.Context(), eventID, claims.Subject)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Lifecycle operation failed",
			attr.UUID("event_id", eventID),
			attr.Error(err),
		)
		httpapi.RespondError(w, http.StatusInternalServerError, "internal", "lifecycle operation failed")
		return
	}
	if result.IsFailure() {
		httpapi.RespondFailure(w, *result.Failure)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, result.Success)
}

// DeactivateParticipant handles DELETE /events/{eventID}/participants/{participantID}.
func (h *Handlers) DeactivateParticipant(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.parseEventID(w, r)
	if !ok {
		return
	}
	participantID, err := uuid.Parse(chi.URLParam(r, "participantID"))
	if err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid", "malformed participant id")
		return
	}

	claims, ok := httpapi.ClaimsFromContext(r.Context())
	if !ok {
		httpapi.RespondError(w, http.StatusUnauthorized, "unauthorized", "missing credentials")
		return
	}

	result, err := h.service.DeactivateParticipant(r.Context(), eventID, participantID, claims.Subject)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Deactivate participant failed", attr.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal", "could not remove participant")
		return
	}
	if result.IsFailure() {
		httpapi.RespondFailure(w, *result.Failure)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, result.Success)
}

func (h *Handlers) parseEventID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid", "malformed event id")
		return uuid.Nil, false
	}
	return eventID, true
}
