// Package server exposes page sessions over HTTP so that a browser helper
// or a script can trigger fill passes.
package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/jobease/jobfill/internal/utils"
	"github.com/jobease/jobfill/pkg/dom"
	"github.com/jobease/jobfill/pkg/engine"
	"github.com/jobease/jobfill/pkg/storage"
)

// FetchFunc loads a page from its URL.
type FetchFunc func(ctx context.Context, url string) (*dom.Page, error)

type Server struct {
	Store    storage.Store
	Config   engine.Config
	Username string
	Password string
	// Fetch is used when a page is opened by URL only. Nil disables it.
	Fetch FetchFunc

	mu       sync.Mutex
	sessions map[string]*engine.Session
}

func New(store storage.Store, cfg engine.Config, user, pass string) *Server {
	return &Server{
		Store:    store,
		Config:   cfg,
		Username: user,
		Password: pass,
		sessions: make(map[string]*engine.Session),
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/pages", s.basicAuth(s.handleOpenPage))
	mux.HandleFunc("POST /api/pages/{id}/fill", s.basicAuth(s.handleFill))
	mux.HandleFunc("POST /api/pages/{id}/diagnostics", s.basicAuth(s.handleDiagnostics))
	mux.HandleFunc("GET /api/pages/{id}/host", s.basicAuth(s.handleHost))
	mux.HandleFunc("POST /api/pages/{id}/edit", s.basicAuth(s.handleEdit))
	mux.HandleFunc("GET /api/pages/{id}/html", s.basicAuth(s.handleHTML))
	mux.HandleFunc("GET /api/pages/{id}/report", s.basicAuth(s.handleReport))
	mux.HandleFunc("DELETE /api/pages/{id}", s.basicAuth(s.handleClosePage))

	mux.HandleFunc("GET /api/profile", s.basicAuth(s.handleGetProfile))
	mux.HandleFunc("PUT /api/profile", s.basicAuth(s.handlePutProfile))
	mux.HandleFunc("GET /api/siteprefs", s.basicAuth(s.handleGetPrefs))
	mux.HandleFunc("DELETE /api/siteprefs", s.basicAuth(s.handleClearPrefs))

	return mux
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// Shutdown closes every open page session.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.Close()
		delete(s.sessions, id)
	}
}

func (s *Server) session(id string) *engine.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
