package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/jobease/jobfill/internal/utils"
	"github.com/jobease/jobfill/pkg/diag"
	"github.com/jobease/jobfill/pkg/dom"
	"github.com/jobease/jobfill/pkg/engine"
	"github.com/jobease/jobfill/pkg/profile"
	"github.com/jobease/jobfill/pkg/siteprefs"
)

const maxBody = 20 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type OpenPageRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

type OpenPageResponse struct {
	ID       string `json:"id"`
	Host     string `json:"host"`
	Controls int    `json:"controls"`
}

func (s *Server) handleOpenPage(w http.ResponseWriter, r *http.Request) {
	var req OpenPageRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		page *dom.Page
		err  error
	)
	switch {
	case req.HTML != "":
		page, err = dom.Parse(strings.NewReader(req.HTML), req.URL)
	case req.URL != "" && s.Fetch != nil:
		page, err = s.Fetch(r.Context(), req.URL)
	default:
		http.Error(w, "html or url required", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess := engine.New(page, s.Store, s.Config, utils.Log)
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, OpenPageResponse{ID: sess.ID, Host: sess.Host(), Controls: len(page.Controls())})
}

// handleFill runs a pass with the posted profile, or the stored one when
// the body is empty.
func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r.PathValue("id"))
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var p *profile.Profile
	if len(strings.TrimSpace(string(body))) > 0 {
		if p, err = profile.Parse(body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	res, err := sess.Run(r.Context(), p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type DiagnosticsRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r.PathValue("id"))
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	var req DiagnosticsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.ToggleDiagnostics(req.Enabled); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": sess.Diagnostics()})
}

func (s *Server) handleHost(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r.PathValue("id"))
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"host": sess.Host()})
}

// EditRequest simulates a person changing a control. Radios are picked by
// Key plus Value; other controls by Key alone.
type EditRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r.PathValue("id"))
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := sess.Edit(req.Key, req.Value); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"capturing": sess.Capturing()})
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r.PathValue("id"))
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := sess.Render(w); err != nil {
		utils.Log.Warnf("render page %s: %v", sess.ID, err)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r.PathValue("id"))
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	diag.Report(w, sess.LastResult())
}

func (s *Server) handleClosePage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	sess := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if sess == nil {
		http.NotFound(w, r)
		return
	}
	sess.Close()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := profile.Load(r.Context(), s.Store)
	if errors.Is(err, profile.ErrNoProfile) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := profile.Parse(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := profile.Save(r.Context(), s.Store, p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type PrefsResponse struct {
	Enabled bool                        `json:"enabled"`
	Sites   map[string]*siteprefs.Entry `json:"sites"`
}

func (s *Server) handleGetPrefs(w http.ResponseWriter, r *http.Request) {
	store := siteprefs.NewStore(s.Store, s.Config.Overlap)
	enabled, err := store.Enabled(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	all, err := store.All(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if host := r.URL.Query().Get("host"); host != "" {
		filtered := map[string]*siteprefs.Entry{}
		if e, ok := all[host]; ok {
			filtered[host] = e
		}
		all = filtered
	}
	writeJSON(w, http.StatusOK, PrefsResponse{Enabled: enabled, Sites: all})
}

// handleClearPrefs forgets one host given by ?host=, or every host.
func (s *Server) handleClearPrefs(w http.ResponseWriter, r *http.Request) {
	store := siteprefs.NewStore(s.Store, s.Config.Overlap)
	if err := store.Clear(r.Context(), r.URL.Query().Get("host")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
