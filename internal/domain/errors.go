package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested resource does not exist upstream
// or is not held by the current session.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails a local business rule
// (e.g. empty traveler name, malformed phone number). No upstream call is
// made when this error is returned.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrUnauthorized is returned when the session is missing or expired, or when
// the upstream rejects the supplied credentials or bearer token.
// Handlers should map this to HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrSessionExpired is returned when the session has ended or expired. It
// wraps ErrUnauthorized, so handlers answer 401, but callers can tell it
// apart from rejected credentials: signing in again is the only way forward.
var ErrSessionExpired = fmt.Errorf("%w: session expired", ErrUnauthorized)

// ErrConflict is returned when an action does not fit the current page state
// (e.g. opening a second traveler while one is already being edited).
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")
