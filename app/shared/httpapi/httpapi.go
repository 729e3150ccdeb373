// Package httpapi holds the JSON plumbing shared by all HTTP handlers:
// encoding helpers, the failure-to-status mapping, and the creator auth
// middleware.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	eventtypes "github.com/about-last-night/aln-backend/app/modules/event/domain"
	"github.com/about-last-night/aln-backend/pkg/jwt"
)

type contextKey string

const claimsKey contextKey = "jwt_claims"

// ErrorBody is the uniform error envelope.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RespondJSON writes a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// RespondError writes the uniform error envelope.
func RespondError(w http.ResponseWriter, status int, code, message string) {
	RespondJSON(w, status, ErrorBody{Error: code, Message: message})
}

// RespondFailure maps a domain failure onto an HTTP status.
func RespondFailure(w http.ResponseWriter, failure eventtypes.Failure) {
	RespondError(w, FailureStatus(failure.Reason), string(failure.Reason), failure.Message)
}

// FailureStatus maps a failure reason to its HTTP status code.
func FailureStatus(reason eventtypes.FailureReason) int {
	switch reason {
	case eventtypes.FailureNotFound:
		return http.StatusNotFound
	case eventtypes.FailureCapacity, eventtypes.FailureConflict:
		return http.StatusConflict
	case eventtypes.FailureForbidden:
		return http.StatusForbidden
	case eventtypes.FailureInvalid, "missing_fields":
		return http.StatusBadRequest
	case "payload_too_large":
		return http.StatusRequestEntityTooLarge
	case "server_misconfigured":
		return http.StatusInternalServerError
	case "upload_failed":
		return http.StatusServiceUnavailable
	case "not_ready", "vote_in_flight", "already_voted":
		return http.StatusConflict
	case "no_active_event", "identity_mismatch":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON parses a request body into v.
func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

// CreatorAuth guards routes that require a creator token. The validated
// claims land in the request context under ClaimsFromContext.
func CreatorAuth(tokens jwt.Service) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				RespondError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				if errors.Is(err, jwt.ErrExpiredToken) {
					RespondError(w, http.StatusUnauthorized, "unauthorized", "token expired")
					return
				}
				RespondError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}

			if claims.Role != string(jwt.RoleCreator) {
				RespondError(w, http.StatusForbidden, "forbidden", "creator token required")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the validated claims attached by CreatorAuth.
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*jwt.Claims)
	return claims, ok
}
