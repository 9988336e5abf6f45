// Package cartedit is the cart-item editor: it loads one cart item and its
// trip, lets the user edit the traveler roster and departure date, and saves
// the result back to the backend as a full replacement.
//
// Roster editing is a two-state machine. In Idle no traveler is open; in
// Editing exactly one position is open and every draft change is applied to
// the roster immediately. Save, Cancel and Delete return to Idle.
//
// An Editor is the page state of one mounted cart-edit page. All methods are
// safe for concurrent use.
package cartedit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkordes/voyager-portal/internal/domain"
)

// Backend is the subset of the upstream client the editor needs.
// *upstream.Client satisfies it.
type Backend interface {
	GetCartItem(ctx context.Context, token, id string) (domain.CartItem, error)
	UpdateCartItem(ctx context.Context, token, id string, upd domain.CartUpdate) error
	GetTrip(ctx context.Context, id string) (domain.Trip, error)
}

var (
	// ErrTripMissing means the cart item's trip could not be loaded. The page
	// cannot be shown and the caller should send the user to the error route.
	ErrTripMissing = errors.New("trip missing")

	// ErrEditorBusy is returned by Edit and Add while a traveler is open.
	ErrEditorBusy = fmt.Errorf("%w: a traveler is already being edited", domain.ErrConflict)

	// ErrNotEditing is returned by draft operations while Idle.
	ErrNotEditing = fmt.Errorf("%w: no traveler is being edited", domain.ErrConflict)

	// ErrUnmounted is returned by every operation after Unmount.
	ErrUnmounted = fmt.Errorf("%w: page is no longer mounted", domain.ErrConflict)

	// ErrIncompleteTraveler is returned by Save when a name is missing.
	ErrIncompleteTraveler = fmt.Errorf("%w: Please fill in both first name and last name", domain.ErrValidation)

	// ErrLastTraveler is returned by Delete when only one traveler is left.
	ErrLastTraveler = fmt.Errorf("%w: At least one voyager must be specified", domain.ErrValidation)
)

// Options tunes an Editor. Zero values select the defaults.
type Options struct {
	// Flash is how long the save indicator stays visible. Default one second.
	Flash time.Duration
	// Location decides which calendar day "today" is. Default time.Local.
	Location *time.Location
	// Now is the time source. Default time.Now.
	Now func() time.Time
	// Log receives fetch and save failures. Default slog.Default().
	Log *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Flash <= 0 {
		o.Flash = time.Second
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Log == nil {
		o.Log = slog.Default()
	}
	return o
}

// Editor holds the editable state of one cart item.
type Editor struct {
	backend Backend
	opts    Options
	id      string

	// life is canceled by Unmount; requests issued by the editor are bound to it.
	life   context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	trip      domain.Trip
	roster    domain.Roster
	departure time.Time
	open      int // open position; 0 while Idle
	flash     flash
	unmounted bool
}

// Mount loads cart item id (authenticated with token) and then its trip
// (unauthenticated), and returns an Idle editor over them.
//
// If the cart item has no travelers, the roster starts with owner so it is
// never empty. Returns ErrTripMissing when the trip cannot be loaded; other
// fetch failures are returned wrapped.
func Mount(ctx context.Context, backend Backend, token, id string, owner domain.Traveler, opts Options) (*Editor, error) {
	opts = opts.withDefaults()

	item, err := backend.GetCartItem(ctx, token, id)
	if err != nil {
		opts.Log.ErrorContext(ctx, "load cart item", "cart_item_id", id, "error", err)
		return nil, fmt.Errorf("cartedit.Mount: %w", err)
	}

	trip, err := backend.GetTrip(ctx, item.TripID)
	if err != nil {
		opts.Log.ErrorContext(ctx, "load trip", "cart_item_id", id, "trip_id", item.TripID, "error", err)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("cartedit.Mount: %w", ErrTripMissing)
		}
		return nil, fmt.Errorf("cartedit.Mount: %w: %w", ErrTripMissing, err)
	}

	travelers := item.Travelers
	if len(travelers) == 0 {
		travelers = []domain.Traveler{owner}
	}

	life, cancel := context.WithCancel(context.Background())
	e := &Editor{
		backend:   backend,
		opts:      opts,
		id:        id,
		life:      life,
		cancel:    cancel,
		trip:      trip,
		roster:    domain.NewRoster(travelers),
		departure: calendarDay(item.DepartureDate, opts.Location),
	}
	if e.departure.IsZero() {
		e.departure = e.today()
	}
	return e, nil
}

// ID returns the cart item identifier.
func (e *Editor) ID() string { return e.id }

// Unmount cancels any in-flight request and makes every later call return
// ErrUnmounted. Calling it more than once is harmless.
func (e *Editor) Unmount() {
	e.mu.Lock()
	e.unmounted = true
	e.mu.Unlock()
	e.cancel()
}

// Edit opens an existing position for editing (Idle → Editing).
// Returns domain.ErrNotFound for an unknown position.
func (e *Editor) Edit(pos int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.idle(); err != nil {
		return err
	}
	if !e.roster.Has(pos) {
		return fmt.Errorf("cartedit.Editor.Edit: traveler %d: %w", pos, domain.ErrNotFound)
	}
	e.open = pos
	return nil
}

// Add appends a traveler with empty names and opens it (Idle → Editing).
// Returns the new position.
func (e *Editor) Add() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.idle(); err != nil {
		return 0, err
	}
	e.open = e.roster.Append(domain.Traveler{})
	return e.open, nil
}

// SetDraft replaces the names of the open traveler. The change is live in the
// roster at once; Save only confirms it.
func (e *Editor) SetDraft(t domain.Traveler) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editing(); err != nil {
		return err
	}
	return e.roster.Set(e.open, t)
}

// Save closes the open traveler (Editing → Idle) if both names are filled in.
// Otherwise it returns ErrIncompleteTraveler and stays in Editing.
func (e *Editor) Save() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editing(); err != nil {
		return err
	}
	t, err := e.roster.At(e.open)
	if err != nil {
		return err
	}
	if !t.Complete() {
		return ErrIncompleteTraveler
	}
	e.open = 0
	return nil
}

// Cancel closes the open traveler (Editing → Idle). A traveler whose names
// are both empty, such as an unfinished Add, is dropped from the roster unless
// it is the only one left.
func (e *Editor) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editing(); err != nil {
		return err
	}
	if t, err := e.roster.At(e.open); err == nil && t.Blank() && e.roster.Len() > 1 {
		_ = e.roster.Remove(e.open)
	}
	e.open = 0
	return nil
}

// Delete removes the open traveler and renumbers the rest (Editing → Idle).
// Returns ErrLastTraveler, staying in Editing, when it is the only traveler.
func (e *Editor) Delete() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editing(); err != nil {
		return err
	}
	if e.roster.Len() <= 1 {
		return ErrLastTraveler
	}
	if err := e.roster.Remove(e.open); err != nil {
		return err
	}
	e.open = 0
	return nil
}

// SetDepartureDate sets the departure to d's calendar day. Days before today
// are ignored without error; the return value reports whether d was taken.
func (e *Editor) SetDepartureDate(d time.Time) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unmounted {
		return false, ErrUnmounted
	}
	day := calendarDay(d, e.opts.Location)
	if day.Before(e.today()) {
		return false, nil
	}
	e.departure = day
	return true, nil
}

// Persist sends the departure date and the full traveler list to the backend.
// The outcome is shown through the save indicator for the flash duration.
// Local state is never rolled back, so a failed save can simply be retried.
//
// The lock is not held during the request. If the editor is unmounted while
// the request is in flight, the request is canceled and its completion is
// discarded.
func (e *Editor) Persist(ctx context.Context, token string) error {
	e.mu.Lock()
	if e.unmounted {
		e.mu.Unlock()
		return ErrUnmounted
	}
	upd := domain.CartUpdate{DepartureDate: e.departure, Travelers: e.roster.Travelers()}
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(e.life, cancel)
	defer stop()

	err := e.backend.UpdateCartItem(ctx, token, e.id, upd)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unmounted {
		return ErrUnmounted
	}
	if err != nil {
		e.opts.Log.ErrorContext(ctx, "save cart item", "cart_item_id", e.id, "error", err)
		e.flash = newFlash(StatusError, e.opts.Now(), e.opts.Flash)
		return fmt.Errorf("cartedit.Editor.Persist: %w", err)
	}
	e.flash = newFlash(StatusSaved, e.opts.Now(), e.opts.Flash)
	return nil
}

// idle returns an error unless the editor is mounted and Idle.
// Callers hold e.mu.
func (e *Editor) idle() error {
	if e.unmounted {
		return ErrUnmounted
	}
	if e.open != 0 {
		return ErrEditorBusy
	}
	return nil
}

// editing returns an error unless the editor is mounted and Editing.
// Callers hold e.mu.
func (e *Editor) editing() error {
	if e.unmounted {
		return ErrUnmounted
	}
	if e.open == 0 {
		return ErrNotEditing
	}
	return nil
}

func (e *Editor) today() time.Time {
	return calendarDay(e.opts.Now().In(e.opts.Location), e.opts.Location)
}

// calendarDay returns midnight in loc of t's calendar date as written in t's
// own zone, so "2026-11-01T00:00:00Z" stays November 1st everywhere.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
