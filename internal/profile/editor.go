// Package profile is the profile editor: an editable copy of the signed-in
// user's profile, an optional replacement avatar, and a password prompt that
// must be answered after every successful update.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/pkordes/voyager-portal/internal/domain"
)

// Backend sends partial profile updates. *upstream.Client satisfies it.
type Backend interface {
	UpdateProfile(ctx context.Context, token, userID string, p domain.ProfilePatch) error
}

// Reauthenticator checks the password again and returns the refreshed user.
// *session.Manager satisfies it.
type Reauthenticator interface {
	Reauthenticate(ctx context.Context, sessionID, email, password string) (domain.User, error)
}

const invalidPassword = "Invalid password. Please try again."

var (
	// ErrNothingToSubmit is returned by Submit when nothing was edited and no
	// avatar is pending.
	ErrNothingToSubmit = fmt.Errorf("%w: nothing to submit", domain.ErrValidation)

	// ErrConfirmPending is returned by Submit while the password prompt is open.
	ErrConfirmPending = fmt.Errorf("%w: password confirmation pending", domain.ErrConflict)

	// ErrNoPrompt is returned by prompt operations while it is closed.
	ErrNoPrompt = fmt.Errorf("%w: no password confirmation pending", domain.ErrConflict)

	// ErrInvalidPassword is returned by Confirm when the password is rejected.
	ErrInvalidPassword = fmt.Errorf("%w: %s", domain.ErrValidation, invalidPassword)

	// ErrUnmounted is returned by every operation once the editor has been
	// unmounted, including a request that was in flight at the time.
	ErrUnmounted = fmt.Errorf("%w: page is no longer mounted", domain.ErrConflict)
)

// Options tunes an Editor. Zero values select the defaults.
type Options struct {
	// AvatarMaxBytes caps an uploaded avatar. Default 5 MiB.
	AvatarMaxBytes int64
	// Location decides which calendar day "today" is. Default time.Local.
	Location *time.Location
	Now      func() time.Time
	Log      *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.AvatarMaxBytes <= 0 {
		o.AvatarMaxBytes = 5 << 20
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

// Editor is the page state of one mounted profile page. All methods are safe
// for concurrent use.
type Editor struct {
	backend   Backend
	reauth    Reauthenticator
	sessionID string
	opts      Options
	validate  *formValidator

	life   context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	user      domain.User
	baseline  Values
	values    Values
	avatar    string // pending data URL
	fieldErrs map[string]string
	prompt    bool
	password  string
	promptErr string
	unmounted bool
}

// Mount opens the editor on user, the signed-in user of session sessionID.
func Mount(user domain.User, sessionID string, backend Backend, reauth Reauthenticator, opts Options) *Editor {
	opts = opts.withDefaults()
	life, cancel := context.WithCancel(context.Background())
	e := &Editor{
		backend:   backend,
		reauth:    reauth,
		sessionID: sessionID,
		opts:      opts,
		life:      life,
		cancel:    cancel,
	}
	e.validate = newFormValidator(e.today)
	e.reset(user)
	return e
}

// Unmount cancels in-flight requests and makes later calls return ErrUnmounted.
func (e *Editor) Unmount() {
	e.mu.Lock()
	e.unmounted = true
	e.mu.Unlock()
	e.cancel()
}

// SetFields replaces the editable values. Email is ignored. Once a submit
// has failed validation, errors are recomputed on every change.
func (e *Editor) SetFields(v Values) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unmounted {
		return ErrUnmounted
	}
	v = v.normalized()
	v.Email = e.user.Email
	e.values = v
	if len(e.fieldErrs) > 0 {
		e.fieldErrs = nil
		var fe *FieldErrors
		if errors.As(e.validate.check(v), &fe) {
			e.fieldErrs = fe.Fields
		}
	}
	return nil
}

// SelectAvatar reads an image from r and holds it as the pending avatar until
// the next successful confirmation.
func (e *Editor) SelectAvatar(r io.Reader) error {
	url, err := readAvatar(r, e.opts.AvatarMaxBytes)
	if err != nil {
		return fmt.Errorf("profile.Editor.SelectAvatar: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unmounted {
		return ErrUnmounted
	}
	e.avatar = url
	return nil
}

// Submit validates the form and sends the changed fields, plus the pending
// avatar, as a partial update. On success the password prompt opens.
// Invalid input returns *FieldErrors and nothing is sent.
func (e *Editor) Submit(ctx context.Context, token string) error {
	e.mu.Lock()
	if err := e.submittable(); err != nil {
		e.mu.Unlock()
		return err
	}
	if err := e.validate.check(e.values); err != nil {
		var fe *FieldErrors
		if errors.As(err, &fe) {
			e.fieldErrs = fe.Fields
		}
		e.mu.Unlock()
		return err
	}
	e.fieldErrs = nil
	p := patch(e.baseline, e.values)
	if e.avatar != "" {
		avatar := e.avatar
		p.ProfileImage = &avatar
	}
	userID := e.user.ID
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(e.life, cancel)
	defer stop()

	err := e.backend.UpdateProfile(ctx, token, userID, p)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unmounted {
		return ErrUnmounted
	}
	if err != nil {
		e.opts.Log.ErrorContext(ctx, "update profile", "user_id", userID, "error", err)
		return fmt.Errorf("profile.Editor.Submit: %w", err)
	}
	e.prompt = true
	e.password = ""
	e.promptErr = ""
	return nil
}

// SetPassword sets the password typed into the prompt.
func (e *Editor) SetPassword(pw string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.prompting(); err != nil {
		return err
	}
	e.password = pw
	return nil
}

// Confirm re-authenticates with the session user's email and the typed
// password. On success the prompt closes and the form resets to the refreshed
// user. On failure the prompt stays open with its password kept for retry.
func (e *Editor) Confirm(ctx context.Context) error {
	e.mu.Lock()
	if err := e.prompting(); err != nil {
		e.mu.Unlock()
		return err
	}
	email, password := e.user.Email, e.password
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(e.life, cancel)
	defer stop()

	user, err := e.reauth.Reauthenticate(ctx, e.sessionID, email, password)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unmounted {
		return ErrUnmounted
	}
	if err != nil {
		if errors.Is(err, domain.ErrSessionExpired) {
			return fmt.Errorf("profile.Editor.Confirm: %w", err)
		}
		e.promptErr = invalidPassword
		if errors.Is(err, domain.ErrUnauthorized) {
			return ErrInvalidPassword
		}
		e.opts.Log.ErrorContext(ctx, "reauthenticate", "error", err)
		return fmt.Errorf("profile.Editor.Confirm: %w", err)
	}
	e.prompt = false
	e.password = ""
	e.promptErr = ""
	e.avatar = ""
	e.reset(user)
	return nil
}

// CancelConfirm closes the prompt. The update already sent stays in effect.
func (e *Editor) CancelConfirm() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unmounted {
		return ErrUnmounted
	}
	e.prompt = false
	e.password = ""
	e.promptErr = ""
	return nil
}

// reset makes u the new baseline. Callers hold e.mu or own e exclusively.
func (e *Editor) reset(u domain.User) {
	e.user = u
	e.baseline = valuesFrom(u).normalized()
	e.values = e.baseline
	e.fieldErrs = nil
}

func (e *Editor) dirty() bool { return e.values != e.baseline }

func (e *Editor) submittable() error {
	switch {
	case e.unmounted:
		return ErrUnmounted
	case e.prompt:
		return ErrConfirmPending
	case !e.dirty() && e.avatar == "":
		return ErrNothingToSubmit
	}
	return nil
}

func (e *Editor) prompting() error {
	if e.unmounted {
		return ErrUnmounted
	}
	if !e.prompt {
		return ErrNoPrompt
	}
	return nil
}

func (e *Editor) today() time.Time {
	return e.opts.Now().In(e.opts.Location)
}
