// Package api exposes a budget session over JSON HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/castlemilk/budgetsync/internal/auth"
	"github.com/castlemilk/budgetsync/internal/backup"
	"github.com/castlemilk/budgetsync/internal/session"
)

// Server serves one session. Requests are authenticated by the auth
// middleware; every route except POST /v1/session requires the caller to be
// the identity the session is bound to.
type Server struct {
	session *session.Session
	sink    backup.Sink
	source  backup.Source
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithArchive enables the archive routes.
func WithArchive(sink backup.Sink, source backup.Source) Option {
	return func(s *Server) {
		s.sink = sink
		s.source = source
	}
}

// WithClock overrides the time source used for archive names.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server for sess.
func NewServer(sess *session.Session, opts ...Option) *Server {
	s := &Server{
		session: sess,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "api")
	return s
}

// Routes registers every endpoint on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth)

	mux.HandleFunc("POST /v1/session", s.handleSignIn)
	mux.HandleFunc("DELETE /v1/session", s.bound(s.handleSignOut))

	mux.HandleFunc("GET /v1/state", s.bound(s.handleState))
	mux.HandleFunc("GET /v1/summary", s.bound(s.handleSummary))
	mux.HandleFunc("GET /v1/export", s.bound(s.handleExport))

	mux.HandleFunc("PUT /v1/income", s.bound(s.hydrated(s.handleSetIncome)))
	mux.HandleFunc("POST /v1/expenses", s.bound(s.hydrated(s.handleAddExpense)))
	mux.HandleFunc("DELETE /v1/expenses/{id}", s.bound(s.hydrated(s.handleDeleteExpense)))
	mux.HandleFunc("POST /v1/categories", s.bound(s.hydrated(s.handleAddCategory)))
	mux.HandleFunc("DELETE /v1/categories/{id}", s.bound(s.hydrated(s.handleDeleteCategory)))
	mux.HandleFunc("PUT /v1/limits/{categoryId}", s.bound(s.hydrated(s.handleSetLimit)))
	mux.HandleFunc("PATCH /v1/settings", s.bound(s.hydrated(s.handleUpdateSettings)))
	mux.HandleFunc("POST /v1/clear", s.bound(s.hydrated(s.handleClear)))
	mux.HandleFunc("POST /v1/import", s.bound(s.hydrated(s.handleImport)))
	mux.HandleFunc("POST /v1/export/archive", s.bound(s.handleArchive))

	return mux
}

// bound rejects callers other than the identity the session is bound to.
func (s *Server) bound(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var bound string
		if current := s.session.Identity(); current != nil {
			bound = current.ID
		}
		_, err := auth.RequireUserAccess(r.Context(), bound)
		switch {
		case errors.Is(err, auth.ErrUnauthenticated):
			writeError(w, http.StatusUnauthorized, err.Error())
		case err != nil:
			writeError(w, http.StatusForbidden, "no active session for this identity")
		default:
			next(w, r)
		}
	}
}

// hydrated rejects mutations while the session is still loading.
func (s *Server) hydrated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.session.Loading() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusServiceUnavailable, "budget is still loading")
			return
		}
		next(w, r)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
