package handler

import (
	"net/http"

	"github.com/pkordes/voyager-portal/internal/domain"
	"github.com/pkordes/voyager-portal/internal/session"
)

// PageFrame tells the client which page to render inside the shell. Pages
// owned by other services are only framed here, never rendered.
type PageFrame struct {
	Page string       `json:"page"`
	User *domain.User `json:"user,omitempty"`
}

func (s *Server) frame(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := PageFrame{Page: page}
		if sess, ok := session.FromContext(r.Context()); ok {
			u := sess.User
			f.User = &u
		}
		writeJSON(w, http.StatusOK, f)
	}
}
