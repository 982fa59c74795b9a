package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/monster-tracker/internal/analysis"
	"github.com/monster-tracker/internal/service"
)

// maxTopN caps the n parameter of /api/stats
const maxTopN = 500

// handleStats handles GET /api/stats - rarest and most common monsters
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	q, ok := s.statsQuery(w, r)
	if !ok {
		return
	}

	n, err := intParam(r, "n", service.DefaultTopN)
	if err != nil || n < 0 {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "n must be a non-negative integer", nil)
		return
	}
	if n > maxTopN {
		n = maxTopN
	}
	q.N = n

	ex, err := s.reports.Stats(r.Context(), q)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ex)
}

// handleHistogram handles GET /api/histogram - every total, ascending
func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	q, ok := s.statsQuery(w, r)
	if !ok {
		return
	}

	entries, err := s.reports.Histogram(r.Context(), q)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// handleCompare handles GET /api/compare - diff of the configured snapshots
// or of an archived snapshot against the compare file
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	mode := analysis.DiffQuantity
	if raw := r.URL.Query().Get("mode"); raw != "" {
		parsed, ok := analysis.ParseDiffMode(raw)
		if !ok {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "mode must be presence or quantity", nil)
			return
		}
		mode = parsed
	}

	var (
		res analysis.DiffResult
		err error
	)
	if id := r.URL.Query().Get("oldArchive"); id != "" {
		if s.archive == nil {
			respondArchiveUnavailable(w)
			return
		}
		res, err = s.archive.CompareArchived(r.Context(), id, "", mode)
	} else {
		res, err = s.reports.Compare(r.Context(), "", "", mode)
	}
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// handleImbalance handles GET /api/imbalance - players with lopsided holdings
func (s *Server) handleImbalance(w http.ResponseWriter, r *http.Request) {
	factor := service.DefaultImbalanceFactor
	if raw := r.URL.Query().Get("factor"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "factor must be a number", nil)
			return
		}
		factor = parsed
	}

	reports, err := s.reports.Imbalance(r.Context(), "", factor)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

// handleSearch handles GET /api/search/{kind}?q= - players offering or
// looking for a monster
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	kind := service.SearchKind(mux.Vars(r)["kind"])
	query := r.URL.Query().Get("q")

	lines, err := s.reports.Search(r.Context(), kind, query)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, lines)
}

// statsQuery reads the aggregation filters shared by stats and histogram
func (s *Server) statsQuery(w http.ResponseWriter, r *http.Request) (service.StatsQuery, bool) {
	archi, err := boolParam(r, "archi", s.config.OnlyArchi)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "archi must be a boolean", nil)
		return service.StatsQuery{}, false
	}
	proposed, err := boolParam(r, "proposed", false)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "proposed must be a boolean", nil)
		return service.StatsQuery{}, false
	}

	return service.StatsQuery{
		OnlyArchi:    archi,
		OnlyProposed: proposed,
		Players:      r.URL.Query()["player"],
	}, true
}

func boolParam(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseBool(raw)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
