package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const (
	defaultArchiveLimit = 50
	maxArchiveLimit     = 500
)

func respondArchiveUnavailable(w http.ResponseWriter) {
	respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Snapshot archive is not configured", nil)
}

// handleListArchive handles GET /api/archive - most recent archived snapshots
func (s *Server) handleListArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		respondArchiveUnavailable(w)
		return
	}

	limit, err := intParam(r, "limit", defaultArchiveLimit)
	if err != nil || limit <= 0 {
		limit = defaultArchiveLimit
	}
	if limit > maxArchiveLimit {
		limit = maxArchiveLimit
	}

	snapshots, err := s.archive.List(r.Context(), limit)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snapshots)
}

// handleGetArchive handles GET /api/archive/{id} - one archived snapshot,
// payload included
func (s *Server) handleGetArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		respondArchiveUnavailable(w)
		return
	}

	archived, err := s.archive.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, archived)
}

// handleItemHistory handles GET /api/history/{item} - archived totals of
// the matching monsters
func (s *Server) handleItemHistory(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		respondArchiveUnavailable(w)
		return
	}

	from, ok := timeParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := timeParam(w, r, "to")
	if !ok {
		return
	}

	points, err := s.archive.ItemHistory(r.Context(), mux.Vars(r)["item"], from, to)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, points)
}

func timeParam(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, name+" must be an RFC 3339 timestamp", map[string]interface{}{
			"parameter": name,
		})
		return nil, false
	}
	return &t, true
}
