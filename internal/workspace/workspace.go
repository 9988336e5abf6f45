// Package workspace keeps the mounted pages of every session. A page is
// mounted by loading it, lives until it is unmounted or its session ends,
// and is addressed by session ID plus page key.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pkordes/voyager-portal/internal/cartedit"
	"github.com/pkordes/voyager-portal/internal/domain"
	"github.com/pkordes/voyager-portal/internal/profile"
	"github.com/pkordes/voyager-portal/internal/session"
)

// ErrNotMounted is returned when a page is used before it was loaded.
var ErrNotMounted = fmt.Errorf("%w: page is not mounted", domain.ErrNotFound)

// Deps are the collaborators pages are mounted with.
type Deps struct {
	Cart        cartedit.Backend
	Profile     profile.Backend
	Reauth      profile.Reauthenticator
	CartOpts    cartedit.Options
	ProfileOpts profile.Options
	Log         *slog.Logger
}

// SessionChecker looks a session up. *session.Manager satisfies it.
type SessionChecker interface {
	Get(ctx context.Context, id string) (session.Session, error)
}

// pages is what one session has mounted: at most one cart-item editor and
// one profile editor.
type pages struct {
	cart    *cartedit.Editor
	profile *profile.Editor
}

// Registry maps sessions to their mounted pages.
type Registry struct {
	deps  Deps
	group singleflight.Group

	mu       sync.Mutex
	sessions map[string]*pages
}

func New(deps Deps) *Registry {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &Registry{deps: deps, sessions: make(map[string]*pages)}
}

// MountCart loads cart item id for s and makes it the session's cart editor,
// unmounting the previous one whichever item it was open on. Concurrent
// loads of the same page share one fetch.
func (r *Registry) MountCart(ctx context.Context, s session.Session, id string) (*cartedit.Editor, error) {
	v, err, _ := r.group.Do(s.ID+"/cart/"+id, func() (any, error) {
		owner := domain.Traveler{FirstName: s.User.FirstName, LastName: s.User.LastName}
		e, err := cartedit.Mount(ctx, r.deps.Cart, s.Token, id, owner, r.deps.CartOpts)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		p := r.pagesLocked(s.ID)
		old := p.cart
		p.cart = e
		r.mu.Unlock()
		if old != nil {
			old.Unmount()
		}
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cartedit.Editor), nil
}

// Cart returns the mounted editor for cart item id.
func (r *Registry) Cart(sessionID, id string) (*cartedit.Editor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.sessions[sessionID]; ok && p.cart != nil && p.cart.ID() == id {
		return p.cart, nil
	}
	return nil, fmt.Errorf("cart item %s: %w", id, ErrNotMounted)
}

// UnmountCart unmounts the cart editor if it is open on cart item id.
func (r *Registry) UnmountCart(sessionID, id string) {
	r.mu.Lock()
	var e *cartedit.Editor
	if p, ok := r.sessions[sessionID]; ok && p.cart != nil && p.cart.ID() == id {
		e, p.cart = p.cart, nil
		r.dropIfEmptyLocked(sessionID)
	}
	r.mu.Unlock()
	if e != nil {
		e.Unmount()
	}
}

// MountProfile opens the profile editor on the session user, replacing any
// editor already mounted.
func (r *Registry) MountProfile(s session.Session) *profile.Editor {
	e := profile.Mount(s.User, s.ID, r.deps.Profile, r.deps.Reauth, r.deps.ProfileOpts)
	r.mu.Lock()
	p := r.pagesLocked(s.ID)
	old := p.profile
	p.profile = e
	r.mu.Unlock()
	if old != nil {
		old.Unmount()
	}
	return e
}

// Profile returns the mounted profile editor.
func (r *Registry) Profile(sessionID string) (*profile.Editor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.sessions[sessionID]; ok && p.profile != nil {
		return p.profile, nil
	}
	return nil, fmt.Errorf("profile: %w", ErrNotMounted)
}

// UnmountProfile unmounts the profile editor, if any.
func (r *Registry) UnmountProfile(sessionID string) {
	r.mu.Lock()
	var e *profile.Editor
	if p, ok := r.sessions[sessionID]; ok {
		e, p.profile = p.profile, nil
		r.dropIfEmptyLocked(sessionID)
	}
	r.mu.Unlock()
	if e != nil {
		e.Unmount()
	}
}

// EndSession unmounts every page of the session. It has the shape of
// session.EndFunc.
func (r *Registry) EndSession(sessionID string) {
	r.mu.Lock()
	p := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	if p == nil {
		return
	}
	if p.cart != nil {
		p.cart.Unmount()
	}
	if p.profile != nil {
		p.profile.Unmount()
	}
}

// Sweep ends every session holding pages that sessions no longer knows or
// reports as expired. Lookup failures other than that keep the pages.
// It returns the number of sessions ended.
func (r *Registry) Sweep(ctx context.Context, sessions SessionChecker) int {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	ended := 0
	for _, id := range ids {
		_, err := sessions.Get(ctx, id)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrUnauthorized):
			r.EndSession(id)
			ended++
		default:
			r.deps.Log.WarnContext(ctx, "sweep: look up session", "session_id", id, "error", err)
		}
	}
	return ended
}

// Run sweeps every interval until ctx ends.
func (r *Registry) Run(ctx context.Context, sessions SessionChecker, every time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := r.Sweep(ctx, sessions); n > 0 {
				r.deps.Log.InfoContext(ctx, "unmounted pages of ended sessions", "count", n)
			}
		}
	}
}

// Len returns the number of sessions with at least one mounted page.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) pagesLocked(sessionID string) *pages {
	p, ok := r.sessions[sessionID]
	if !ok {
		p = &pages{}
		r.sessions[sessionID] = p
	}
	return p
}

func (r *Registry) dropIfEmptyLocked(sessionID string) {
	if p := r.sessions[sessionID]; p != nil && p.cart == nil && p.profile == nil {
		delete(r.sessions, sessionID)
	}
}
