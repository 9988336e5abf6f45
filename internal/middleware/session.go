package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/pkordes/voyager-portal/internal/domain"
	"github.com/pkordes/voyager-portal/internal/session"
)

// SessionGetter resolves a session ID. *session.Manager satisfies it.
type SessionGetter interface {
	Get(ctx context.Context, id string) (session.Session, error)
}

// NewSessionLoader returns a middleware that resolves the session cookie and
// stores the session in the request context. Requests without a valid
// session pass through unchanged; use RequireSession to reject them.
// A cookie naming an ended session is cleared.
func NewSessionLoader(sessions SessionGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(session.CookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			s, err := sessions.Get(r.Context(), c.Value)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					http.SetCookie(w, &http.Cookie{Name: session.CookieName, Path: "/", MaxAge: -1, HttpOnly: true})
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
		})
	}
}

// RequireSession rejects requests that carry no session with 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.FromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
