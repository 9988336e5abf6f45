package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/voyager-portal/internal/domain"
	"github.com/pkordes/voyager-portal/internal/profile"
	"github.com/pkordes/voyager-portal/internal/upstream"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse is the error envelope: {"error":{"code","message"}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// requestError rejects a malformed request body before any page state is
// touched.
func requestError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
		return
	}
	writeError(w, http.StatusUnprocessableEntity, "validation_error", "malformed request body")
}

// fail maps an error from a page controller to a response. what names the
// thing that was looked up, for 404 messages.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, what string) {
	var fe *profile.FieldErrors
	var se *upstream.StatusError
	switch {
	case errors.As(err, &fe):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: ErrorDetail{
			Code: "validation_error", Message: "some fields are invalid", Fields: fe.Fields,
		}})
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", messageAfter(err, domain.ErrValidation))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", what+" not found")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", messageAfter(err, domain.ErrConflict))
	case errors.As(err, &se):
		s.log.WarnContext(r.Context(), "upstream rejected request", "status", se.Code, "path", se.Path)
		writeError(w, http.StatusBadGateway, "upstream_error", "the booking service is unavailable")
	default:
		s.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, "upstream_error", "the booking service is unavailable")
	}
}

// messageAfter extracts the human-readable part that follows a wrapped
// sentinel, e.g. "cartedit.Editor.Save: validation error: name missing" →
// "name missing".
func messageAfter(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return sentinel.Error()
}
