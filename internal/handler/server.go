// Package handler implements the HTTP surface of the portal.
// All handlers are methods on Server. They are split into page-specific files
// (cart.go, profile.go, session.go, pages.go) but share the Server struct and
// its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/voyager-portal/api"
	"github.com/pkordes/voyager-portal/internal/cartedit"
	"github.com/pkordes/voyager-portal/internal/middleware"
	"github.com/pkordes/voyager-portal/internal/profile"
	"github.com/pkordes/voyager-portal/internal/session"
)

// Sessions defines the session operations the handlers depend on.
// *session.Manager satisfies it.
type Sessions interface {
	Login(ctx context.Context, email, password string) (session.Session, error)
	Logout(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (session.Session, error)
}

// Pages holds the mounted page controllers of every session.
// *workspace.Registry satisfies it.
type Pages interface {
	MountCart(ctx context.Context, s session.Session, id string) (*cartedit.Editor, error)
	Cart(sessionID, id string) (*cartedit.Editor, error)
	UnmountCart(sessionID, id string)
	MountProfile(s session.Session) *profile.Editor
	Profile(sessionID string) (*profile.Editor, error)
	UnmountProfile(sessionID string)
}

// Options configures a Server.
type Options struct {
	// CookieSecure marks the session cookie Secure.
	CookieSecure bool
	// AvatarMaxBytes caps a multipart avatar upload.
	AvatarMaxBytes int64
	// LoginLimit wraps the credential endpoint. Nil means unlimited.
	LoginLimit func(http.Handler) http.Handler
	Log        *slog.Logger
}

// Server serves every portal route.
type Server struct {
	sessions Sessions
	pages    Pages
	opts     Options
	log      *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(sessions Sessions, pages Pages, opts Options) *Server {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.AvatarMaxBytes <= 0 {
		opts.AvatarMaxBytes = 5 << 20
	}
	if opts.LoginLimit == nil {
		opts.LoginLimit = func(next http.Handler) http.Handler { return next }
	}
	return &Server{sessions: sessions, pages: pages, opts: opts, log: opts.Log}
}

// Routes returns the router with every route registered. Global middleware
// (request ID, logging, CORS, body limits) is added by the caller.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such page")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.OpenAPI)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionLoader(s.sessions))

		r.Get("/", s.frame("login"))
		r.Get("/register", s.frame("register"))
		r.Get("/error", s.frame("error"))

		r.With(s.opts.LoginLimit).Post("/session", s.Login)
		r.Delete("/session", s.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)

			r.Get("/session", s.GetSession)
			r.Get("/landingPage", s.frame("landing"))
			r.Get("/productPage", s.frame("product"))
			r.Get("/cart", s.frame("cart"))

			r.Route("/cart/{cartItemId}/edit", func(r chi.Router) {
				r.Get("/", s.MountCart)
				r.Delete("/", s.UnmountCart)
				r.Post("/travelers", s.AddTraveler)
				r.Post("/travelers/{position}", s.EditTraveler)
				r.Put("/draft", s.SetDraft)
				r.Post("/draft/save", s.SaveDraft)
				r.Post("/draft/cancel", s.CancelDraft)
				r.Post("/draft/delete", s.DeleteTraveler)
				r.Put("/departure-date", s.SetDepartureDate)
				r.Post("/save", s.PersistCart)
				r.Get("/itinerary.pdf", s.GetItinerary)
			})

			r.Route("/userData", func(r chi.Router) {
				r.Get("/", s.MountProfile)
				r.Delete("/", s.UnmountProfile)
				r.Put("/form", s.SetProfileFields)
				r.Post("/avatar", s.SelectAvatar)
				r.Post("/submit", s.SubmitProfile)
				r.Put("/confirm/password", s.SetConfirmPassword)
				r.Post("/confirm", s.ConfirmProfile)
				r.Post("/confirm/cancel", s.CancelConfirm)
			})
		})
	})
	return r
}

// currentSession returns the session RequireSession put in the context.
func currentSession(r *http.Request) session.Session {
	sess, _ := session.FromContext(r.Context())
	return sess
}
