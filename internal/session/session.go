// Package session holds the authenticated user's session context: the bearer
// token issued by the backend and the user profile it belongs to, plus the
// re-authentication operation the profile editor uses to refresh them.
//
// A Manager is constructed once in main and injected into every page
// controller; nothing in this package is global.
package session

import (
	"context"
	"time"

	"github.com/pkordes/voyager-portal/internal/domain"
)

// CookieName is the fixed key under which the browser keeps its session
// handle.
const CookieName = "authToken"

// Session is one authenticated browser session.
type Session struct {
	ID        string      `json:"id"`
	Token     string      `json:"token"`
	User      domain.User `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Expired reports whether the session is no longer usable at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store persists sessions. Implementations live in this package (memory) and
// in internal/repo (Postgres, Redis).
type Store interface {
	// Save inserts or replaces the session keyed by s.ID.
	Save(ctx context.Context, s Session) error

	// Get returns the session with the given ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (Session, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
}

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session placed in ctx by the session middleware.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
