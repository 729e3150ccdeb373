// Package votinghandlers exposes the voting engine over HTTP.
package votinghandlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	votingservice "github.com/about-last-night/aln-backend/app/modules/voting/application"
	votedb "github.com/about-last-night/aln-backend/app/modules/voting/infrastructure/repositories"
	"github.com/about-last-night/aln-backend/app/shared/attr"
	"github.com/about-last-night/aln-backend/app/shared/httpapi"
)

// Handlers carries the voting HTTP handlers.
type Handlers struct {
	service votingservice.Service
	logger  *slog.Logger
}

// NewHandlers creates voting HTTP handlers.
func NewHandlers(service votingservice.Service, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// Routes mounts the voting routes.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/events/{eventID}/votes/next", h.NextCandidate)
	r.Post("/events/{eventID}/votes", h.Vote)
	r.Get("/events/{eventID}/results", h.Results)
	r.Get("/events/{eventID}/results/export", h.ExportResults)
	r.Get("/events/{eventID}/results/chart", h.ResultsChart)
}

// NextCandidate handles GET /events/{eventID}/votes/next?voter=...&exclude=a,b.
func (h *Handlers) NextCandidate(w http.ResponseWriter, r *http.Request) {
	eventID, ok := parseEventID(w, r)
	if !ok {
		return
	}

	voterID, err := uuid.Parse(r.URL.Query().Get("voter"))
	if err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid", "voter query parameter is required")
		return
	}

	var exclude []uuid.UUID
	if raw := r.URL.Query().Get("exclude"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				httpapi.RespondError(w, http.StatusBadRequest, "invalid", "malformed exclude list")
				return
			}
			exclude = append(exclude, id)
		}
	}

	photo, err := h.service.NextCandidate(r.Context(), eventID, voterID, exclude)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Next candidate failed", attr.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal", "could not pick a candidate")
		return
	}
	if photo == nil {
		// Pool exhausted: nothing left to vote on.
		httpapi.RespondJSON(w, http.StatusNoContent, nil)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, photo)
}

type voteRequest struct {
	VoterParticipantID uuid.UUID `json:"voter_participant_id"`
	PhotoID            uuid.UUID `json:"photo_id"`
	Category           string    `json:"category"`
}

// Vote handles POST /events/{eventID}/votes.
func (h *Handlers) Vote(w http.ResponseWriter, r *http.Request) {
	eventID, ok := parseEventID(w, r)
	if !ok {
		return
	}

	var req voteRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid", "malformed JSON body")
		return
	}

	result, err := h.service.Vote(r.Context(), eventID, req.VoterParticipantID, req.PhotoID, votedb.AwardCategory(req.Category))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Vote failed", attr.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal", "could not record vote")
		return
	}
	if result.IsFailure() {
		httpapi.RespondFailure(w, *result.Failure)
		return
	}

	httpapi.RespondJSON(w, http.StatusCreated, result.Success)
}

// Results handles GET /events/{eventID}/results.
func (h *Handlers) Results(w http.ResponseWriter, r *http.Request) {
	eventID, ok := parseEventID(w, r)
	if !ok {
		return
	}

	winners, err := h.service.ComputeWinners(r.Context(), eventID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Compute winners failed", attr.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal", "could not compute results")
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, winners)
}

// ExportResults handles GET /events/{eventID}/results/export.
func (h *Handlers) ExportResults(w http.ResponseWriter, r *http.Request) {
	eventID, ok := parseEventID(w, r)
	if !ok {
		return
	}

	workbook, err := h.service.ExportResults(r.Context(), eventID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Export results failed", attr.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal", "could not export results")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="results.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(workbook)
}

// ResultsChart handles GET /events/{eventID}/results/chart.
func (h *Handlers) ResultsChart(w http.ResponseWriter, r *http.Request) {
	eventID, ok := parseEventID(w, r)
	if !ok {
		return
	}

	png, err := h.service.RenderResultsChart(r.Context(), eventID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Render results chart failed", attr.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal", "could not render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func parseEventID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid", "malformed event id")
		return uuid.Nil, false
	}
	return eventID, true
}
