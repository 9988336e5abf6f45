package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/voyager-portal/internal/cartedit"
	"github.com/pkordes/voyager-portal/internal/domain"
	"github.com/pkordes/voyager-portal/internal/itinerary"
)

// AddTravelerResponse is the body of POST .../travelers.
type AddTravelerResponse struct {
	Position int           `json:"position"`
	View     cartedit.View `json:"view"`
}

// DepartureDateRequest is the body of PUT .../departure-date.
type DepartureDateRequest struct {
	DepartureDate openapi_types.Date `json:"departure_date"`
}

// DepartureDateResponse reports whether the date was taken. Days before
// today are ignored, not rejected.
type DepartureDateResponse struct {
	Accepted bool          `json:"accepted"`
	View     cartedit.View `json:"view"`
}

// MountCart handles GET /cart/{cartItemId}/edit. It loads the cart item and
// its trip, replacing the cart editor already mounted for the session. When
// either cannot be loaded the client is sent to the error page; a rejected
// token is answered with 401 so the client signs in again. Load failures are
// logged by cartedit.Mount.
func (s *Server) MountCart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cartItemId")
	e, err := s.pages.MountCart(r.Context(), currentSession(r), id)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			s.fail(w, r, err, "cart item")
			return
		}
		http.Redirect(w, r, "/error", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, e.View())
}

// UnmountCart handles DELETE /cart/{cartItemId}/edit.
func (s *Server) UnmountCart(w http.ResponseWriter, r *http.Request) {
	s.pages.UnmountCart(currentSession(r).ID, chi.URLParam(r, "cartItemId"))
	w.WriteHeader(http.StatusNoContent)
}

// AddTraveler handles POST .../travelers.
func (s *Server) AddTraveler(w http.ResponseWriter, r *http.Request) {
	e, ok := s.cartEditor(w, r)
	if !ok {
		return
	}
	pos, err := e.Add()
	if err != nil {
		s.fail(w, r, err, "traveler")
		return
	}
	writeJSON(w, http.StatusCreated, AddTravelerResponse{Position: pos, View: e.View()})
}

// EditTraveler handles POST .../travelers/{position}.
func (s *Server) EditTraveler(w http.ResponseWriter, r *http.Request) {
	e, ok := s.cartEditor(w, r)
	if !ok {
		return
	}
	pos, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "position must be a number")
		return
	}
	s.cartAction(w, r, e, func() error { return e.Edit(pos) })
}

// SetDraft handles PUT .../draft.
func (s *Server) SetDraft(w http.ResponseWriter, r *http.Request) {
	e, ok := s.cartEditor(w, r)
	if !ok {
		return
	}
	var t domain.Traveler
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		requestError(w, err)
		return
	}
	s.cartAction(w, r, e, func() error { return e.SetDraft(t) })
}

// SaveDraft handles POST .../draft/save.
func (s *Server) SaveDraft(w http.ResponseWriter, r *http.Request) {
	if e, ok := s.cartEditor(w, r); ok {
		s.cartAction(w, r, e, e.Save)
	}
}

// CancelDraft handles POST .../draft/cancel.
func (s *Server) CancelDraft(w http.ResponseWriter, r *http.Request) {
	if e, ok := s.cartEditor(w, r); ok {
		s.cartAction(w, r, e, e.Cancel)
	}
}

// DeleteTraveler handles POST .../draft/delete.
func (s *Server) DeleteTraveler(w http.ResponseWriter, r *http.Request) {
	if e, ok := s.cartEditor(w, r); ok {
		s.cartAction(w, r, e, e.Delete)
	}
}

// SetDepartureDate handles PUT .../departure-date.
func (s *Server) SetDepartureDate(w http.ResponseWriter, r *http.Request) {
	e, ok := s.cartEditor(w, r)
	if !ok {
		return
	}
	var req DepartureDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		requestError(w, err)
		return
	}
	if req.DepartureDate.IsZero() {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "departure_date is required")
		return
	}
	accepted, err := e.SetDepartureDate(req.DepartureDate.Time)
	if err != nil {
		s.fail(w, r, err, "cart item")
		return
	}
	writeJSON(w, http.StatusOK, DepartureDateResponse{Accepted: accepted, View: e.View()})
}

// PersistCart handles POST .../save. A failed save is reported through the
// view's status indicator rather than as an error response, except when the
// session itself is no longer accepted upstream.
func (s *Server) PersistCart(w http.ResponseWriter, r *http.Request) {
	e, ok := s.cartEditor(w, r)
	if !ok {
		return
	}
	err := e.Persist(r.Context(), currentSession(r).Token)
	if errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, cartedit.ErrUnmounted) {
		s.fail(w, r, err, "cart item")
		return
	}
	writeJSON(w, http.StatusOK, e.View())
}

// GetItinerary handles GET .../itinerary.pdf.
func (s *Server) GetItinerary(w http.ResponseWriter, r *http.Request) {
	e, ok := s.cartEditor(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := itinerary.Render(&buf, e.View()); err != nil {
		s.log.ErrorContext(r.Context(), "render itinerary", "cart_item_id", e.ID(), "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not render itinerary")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+itinerary.Filename(e.ID())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// cartEditor looks up the mounted editor named by the URL. On failure the
// response has been written.
func (s *Server) cartEditor(w http.ResponseWriter, r *http.Request) (*cartedit.Editor, bool) {
	e, err := s.pages.Cart(currentSession(r).ID, chi.URLParam(r, "cartItemId"))
	if err != nil {
		s.fail(w, r, err, "cart item")
		return nil, false
	}
	return e, true
}

func (s *Server) cartAction(w http.ResponseWriter, r *http.Request, e *cartedit.Editor, fn func() error) {
	if err := fn(); err != nil {
		s.fail(w, r, err, "traveler")
		return
	}
	writeJSON(w, http.StatusOK, e.View())
}
