package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pkordes/voyager-portal/internal/domain"
	"github.com/pkordes/voyager-portal/internal/upstream"
)

// Authenticator submits credentials to the backend's login collaborator.
// *upstream.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (upstream.LoginResult, error)
}

// EndFunc is called with a session ID when that session ends (logout or
// expiry) so page state scoped to it can be unmounted.
type EndFunc func(sessionID string)

// Manager issues, refreshes and ends sessions.
type Manager struct {
	auth  Authenticator
	store Store
	ttl   time.Duration
	now   func() time.Time
	log   *slog.Logger

	mu    sync.Mutex
	onEnd []EndFunc
}

// NewManager constructs a Manager. ttl applies when the bearer token carries
// no usable exp claim.
func NewManager(auth Authenticator, store Store, ttl time.Duration, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{auth: auth, store: store, ttl: ttl, now: time.Now, log: log}
}

// SetClock replaces the time source. Intended for tests.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// OnEnd registers fn to run whenever a session ends.
func (m *Manager) OnEnd(fn EndFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnd = append(m.onEnd, fn)
}

func (m *Manager) ended(id string) {
	m.mu.Lock()
	fns := append([]EndFunc(nil), m.onEnd...)
	m.mu.Unlock()
	for _, fn := range fns {
		fn(id)
	}
}

// Login authenticates against the backend and opens a new session.
// Returns domain.ErrUnauthorized when the credentials are rejected.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	res, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return Session{}, fmt.Errorf("session.Manager.Login: %w", err)
	}

	now := m.now()
	s := Session{
		ID:        uuid.NewString(),
		Token:     res.Token,
		User:      res.User,
		CreatedAt: now,
		ExpiresAt: m.expiry(res.Token, now),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return Session{}, fmt.Errorf("session.Manager.Login: save: %w", err)
	}
	m.log.InfoContext(ctx, "session opened", "session_id", s.ID, "user_id", s.User.ID)
	return s, nil
}

// Get returns a live session. Expired sessions are deleted and reported as
// domain.ErrSessionExpired, as are unknown IDs.
func (m *Manager) Get(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, fmt.Errorf("session.Manager.Get: %w", domain.ErrUnauthorized)
	}
	s, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Session{}, fmt.Errorf("session.Manager.Get: %w", domain.ErrSessionExpired)
		}
		return Session{}, fmt.Errorf("session.Manager.Get: %w", err)
	}
	if s.Expired(m.now()) {
		_ = m.store.Delete(ctx, id)
		m.ended(id)
		return Session{}, fmt.Errorf("session.Manager.Get: %w", domain.ErrSessionExpired)
	}
	return s, nil
}

// Reauthenticate re-submits credentials for an open session. On success the
// session's user (and token, when a new one is issued) is replaced and the
// refreshed user is returned. Rejected credentials leave the session
// untouched and return domain.ErrUnauthorized; a session that has already
// ended returns domain.ErrSessionExpired.
func (m *Manager) Reauthenticate(ctx context.Context, id, email, password string) (domain.User, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("session.Manager.Reauthenticate: %w", err)
	}
	res, err := m.auth.Login(ctx, email, password)
	if err != nil {
		m.log.InfoContext(ctx, "re-authentication rejected", "session_id", id, "error", err)
		return domain.User{}, fmt.Errorf("session.Manager.Reauthenticate: %w", err)
	}

	s.User = res.User
	if res.Token != "" && res.Token != s.Token {
		s.Token = res.Token
		s.ExpiresAt = m.expiry(res.Token, m.now())
	}
	if err := m.store.Save(ctx, s); err != nil {
		return domain.User{}, fmt.Errorf("session.Manager.Reauthenticate: save: %w", err)
	}
	return s.User, nil
}

// Logout ends the session.
func (m *Manager) Logout(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("session.Manager.Logout: %w", err)
	}
	m.ended(id)
	m.log.InfoContext(ctx, "session closed", "session_id", id)
	return nil
}

// expiry returns the token's exp claim when it has one in the future, else
// now+ttl. The portal is not the token issuer and holds no signing key, so
// the claim is read without verifying the signature; the backend still
// verifies the token on every call.
func (m *Manager) expiry(token string, now time.Time) time.Time {
	fallback := now.Add(m.ttl)
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return fallback
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(now) {
		return fallback
	}
	return claims.ExpiresAt.Time
}
