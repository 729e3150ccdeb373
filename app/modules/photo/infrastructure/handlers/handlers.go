// Package photohandlers exposes photo upload and listing over HTTP.
package photohandlers

import (
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	photoservice "github.com/about-last-night/aln-backend/app/modules/photo/application"
	"github.com/about-last-night/aln-backend/app/shared/attr"
	"github.com/about-last-night/aln-backend/app/shared/httpapi"
)

// The multipart form is capped slightly above the photo limit to leave room
// for the text fields.
const maxFormBytes = 6 * 1024 * 1024

// Handlers carries the photo HTTP handlers.
type Handlers struct {
	service photoservice.Service
	limiter *httpapi.IPRateLimiter
	logger  *slog.Logger
}

// NewHandlers creates photo HTTP handlers.
func NewHandlers(service photoservice.Service, limiter *httpapi.IPRateLimiter, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, limiter: limiter, logger: logger}
}

// Routes mounts the photo routes. Upload is rate limited per IP.
func (h *Handlers) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httpapi.RateLimitMiddleware(h.limiter))
		r.Post("/upload", h.Upload)
	})
	r.Get("/events/{eventID}/photos", h.ListPhotos)
}

type uploadRequest struct {
	EventID       uuid.UUID `json:"event_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	UserName      string    `json:"user_name"`
	FileName      string    `json:"file_name"`
	ContentType   string    `json:"content_type"`
	Data          string    `json:"data"` // base64
	TakenAt       time.Time `json:"taken_at"`
}

// Upload handles POST /upload. It accepts either a multipart form or a JSON
// body with base64 photo data.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	var input photoservice.UploadInput
	var err error

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		input, err = h.parseMultipart(r)
	default:
		input, err = h.parseJSON(r)
	}
	if err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid", err.Error())
		return
	}

	result, uploadErr := h.service.Upload(r.Context(), input)
	if uploadErr != nil {
		h.logger.ErrorContext(r.Context(), "Upload failed", attr.Error(uploadErr))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal", "could not store photo")
		return
	}
	if result.IsFailure() {
		httpapi.RespondFailure(w, *result.Failure)
		return
	}

	httpapi.RespondJSON(w, http.StatusCreated, result.Success)
}

func (h *Handlers) parseJSON(r *http.Request) (photoservice.UploadInput, error) {
	var req uploadRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		return photoservice.UploadInput{}, err
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return photoservice.UploadInput{}, err
	}

	return photoservice.UploadInput{
		EventID:       req.EventID,
		ParticipantID: req.ParticipantID,
		UserName:      req.UserName,
		FileName:      req.FileName,
		ContentType:   req.ContentType,
		Data:          data,
		TakenAt:       req.TakenAt,
	}, nil
}

func (h *Handlers) parseMultipart(r *http.Request) (photoservice.UploadInput, error) {
	if err := r.ParseMultipartForm(maxFormBytes); err != nil {
		return photoservice.UploadInput{}, err
	}

	var input photoservice.UploadInput
	if v := r.FormValue("event_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return photoservice.UploadInput{}, err
		}
		input.EventID = id
	}
	if v := r.FormValue("participant_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return photoservice.UploadInput{}, err
		}
		input.ParticipantID = id
	}
	input.UserName = r.FormValue("user_name")
	if v := r.FormValue("taken_at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return photoservice.UploadInput{}, err
		}
		input.TakenAt = t
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		return photoservice.UploadInput{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return photoservice.UploadInput{}, err
	}

	input.FileName = header.Filename
	input.ContentType = header.Header.Get("Content-Type")
	input.Data = data
	return input, nil
}

// ListPhotos handles GET /events/{eventID}/photos with an optional
// participant filter.
func (h *Handlers) ListPhotos(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid", "malformed event id")
		return
	}

	var participantID *uuid.UUID
	if v := r.URL.Query().Get("participant"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httpapi.RespondError(w, http.StatusBadRequest, "invalid", "malformed participant id")
			return
		}
		participantID = &id
	}

	photos, err := h.service.ListPhotos(r.Context(), eventID, participantID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "List photos failed", attr.Error(err))
		httpapi.RespondError(w, http.StatusInternalServerError, "internal", "could not list photos")
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, photos)
}
