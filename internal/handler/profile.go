package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pkordes/voyager-portal/internal/profile"
)

// PasswordRequest is the body of PUT /userData/confirm/password.
type PasswordRequest struct {
	Password string `json:"password"`
}

// MountProfile handles GET /userData.
func (s *Server) MountProfile(w http.ResponseWriter, r *http.Request) {
	e := s.pages.MountProfile(currentSession(r))
	writeJSON(w, http.StatusOK, e.View())
}

// UnmountProfile handles DELETE /userData.
func (s *Server) UnmountProfile(w http.ResponseWriter, r *http.Request) {
	s.pages.UnmountProfile(currentSession(r).ID)
	w.WriteHeader(http.StatusNoContent)
}

// SetProfileFields handles PUT /userData/form.
func (s *Server) SetProfileFields(w http.ResponseWriter, r *http.Request) {
	e, ok := s.profileEditor(w, r)
	if !ok {
		return
	}
	var v profile.Values
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		requestError(w, err)
		return
	}
	s.profileAction(w, r, e, func() error { return e.SetFields(v) })
}

// SelectAvatar handles POST /userData/avatar with a multipart "avatar" file.
func (s *Server) SelectAvatar(w http.ResponseWriter, r *http.Request) {
	e, ok := s.profileEditor(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.AvatarMaxBytes+1<<20)
	f, _, err := r.FormFile("avatar")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			requestError(w, err)
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "avatar file is required")
		return
	}
	defer f.Close()
	s.profileAction(w, r, e, func() error { return e.SelectAvatar(f) })
}

// SubmitProfile handles POST /userData/submit. Invalid fields are reported
// with 422 and a per-field message map; nothing is sent upstream.
func (s *Server) SubmitProfile(w http.ResponseWriter, r *http.Request) {
	e, ok := s.profileEditor(w, r)
	if !ok {
		return
	}
	s.profileAction(w, r, e, func() error { return e.Submit(r.Context(), currentSession(r).Token) })
}

// SetConfirmPassword handles PUT /userData/confirm/password.
func (s *Server) SetConfirmPassword(w http.ResponseWriter, r *http.Request) {
	e, ok := s.profileEditor(w, r)
	if !ok {
		return
	}
	var req PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		requestError(w, err)
		return
	}
	s.profileAction(w, r, e, func() error { return e.SetPassword(req.Password) })
}

// ConfirmProfile handles POST /userData/confirm.
func (s *Server) ConfirmProfile(w http.ResponseWriter, r *http.Request) {
	e, ok := s.profileEditor(w, r)
	if !ok {
		return
	}
	s.profileAction(w, r, e, func() error { return e.Confirm(r.Context()) })
}

// CancelConfirm handles POST /userData/confirm/cancel.
func (s *Server) CancelConfirm(w http.ResponseWriter, r *http.Request) {
	if e, ok := s.profileEditor(w, r); ok {
		s.profileAction(w, r, e, e.CancelConfirm)
	}
}

func (s *Server) profileEditor(w http.ResponseWriter, r *http.Request) (*profile.Editor, bool) {
	e, err := s.pages.Profile(currentSession(r).ID)
	if err != nil {
		s.fail(w, r, err, "profile page")
		return nil, false
	}
	return e, true
}

func (s *Server) profileAction(w http.ResponseWriter, r *http.Request, e *profile.Editor, fn func() error) {
	if err := fn(); err != nil {
		s.fail(w, r, err, "profile")
		return
	}
	writeJSON(w, http.StatusOK, e.View())
}
