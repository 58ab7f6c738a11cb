package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/conorfennell/realflash/internal/domain"
	"github.com/conorfennell/realflash/internal/session"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      int    `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

// RespondWithJSON writes data as a JSON response with the given status code.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err, "path", r.URL.Path)
	}
}

// RespondWithError writes a JSON error response with the given status code and message.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondWithJSON(w, r, status, ErrorResponse{
		Error:     message,
		Code:      status,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidTime):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCycle), errors.Is(err, session.ErrNoActiveCard):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondWithErr logs err and replies with the status it maps to. Internal
// errors are not echoed to the client.
func (s *Server) respondWithErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", r.URL.Path, "error", err)
		RespondWithError(w, r, status, "internal server error")
		return
	}
	s.logger.Debug("Request rejected", "path", r.URL.Path, "status", status, "error", err)
	RespondWithError(w, r, status, err.Error())
}

// decodeJSON reads the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
