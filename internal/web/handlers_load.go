package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/csvload/internal/mapping"
)

// handleLoad runs the load for a mapping key.
//
//	POST /api/loads/{key}?override_wipe=true|false
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	override, err := mapping.ParseOverride(r.URL.Query().Get("override_wipe"))
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	req, err := s.mapping.Request(key, override)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		respondError(w, r, err, nil)
		return
	}
	defer s.limiter.Release()

	result, err := s.loader.Load(r.Context(), req)
	if err != nil {
		respondError(w, r, err, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleListMappings lists the configured mapping entries.
//
//	GET /api/mappings
func (s *Server) handleListMappings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.mapping.Entries)
}

// handleHealth reports liveness and load slot usage.
//
//	GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Time:     time.Now().UTC(),
		Loads:    s.limiter.Status(),
		Mappings: len(s.mapping.Entries),
	})
}
