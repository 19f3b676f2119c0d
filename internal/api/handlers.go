package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/infrabrasil/vazios/internal/geo"
	"github.com/infrabrasil/vazios/internal/model"
	"github.com/infrabrasil/vazios/internal/scorer"
	"github.com/infrabrasil/vazios/internal/store"
)

// GapReport is the response body of GET /api/gaps.
type GapReport struct {
	ParamsHash    string              `json:"params_hash"`
	Parameters    scorer.Parameters   `json:"parameters"`
	Total         int                 `json:"total"`
	GapCount      int                 `json:"gap_count"`
	AdequateCount int                 `json:"adequate_count"`
	Gaps          []scorer.Assessment `json:"gaps"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListMunicipalities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := intParam(q, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := intParam(q, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	minPop, err := intParam(q, "min_population", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ms, err := s.store.ListMunicipalities(r.Context(), store.MunicipalityFilter{
		State:         q.Get("state"),
		Region:        model.Region(q.Get("region")),
		Query:         q.Get("q"),
		MinPopulation: int64(minPop),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		s.internalError(w, "list municipalities", err)
		return
	}
	if ms == nil {
		ms = []model.Municipality{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"municipalities": ms,
		"count":          len(ms),
	})
}

func (s *Server) handleAssessment(w http.ResponseWriter, r *http.Request) {
	p, err := scoringOverrides(r.URL.Query(), s.params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, ind, ok := s.loadMunicipality(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, scorer.Assess(*m, ind, p))
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	p, err := scoringOverrides(r.URL.Query(), s.params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Additional int `json:"additional"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, ind, ok := s.loadMunicipality(w, r)
	if !ok {
		return
	}

	sim, err := scorer.SimulateAddingChargingPoints(*m, ind, req.Additional, p)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sim)
}

func (s *Server) handleGaps(w http.ResponseWriter, r *http.Request) {
	s.serveGaps(w, r, "json", "application/json", func(rep *GapReport) ([]byte, error) {
		return json.Marshal(rep)
	})
}

func (s *Server) handleGapsGeoJSON(w http.ResponseWriter, r *http.Request) {
	s.serveGaps(w, r, "geojson", "application/geo+json", func(rep *GapReport) ([]byte, error) {
		return geo.MarshalAssessments(rep.Gaps)
	})
}

// serveGaps computes (or reuses) a gap report for the request's filters and
// scoring overrides and renders it with encode.
func (s *Server) serveGaps(w http.ResponseWriter, r *http.Request, format, contentType string, encode func(*GapReport) ([]byte, error)) {
	q := r.URL.Query()

	p, err := scoringOverrides(q, s.params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := intParam(q, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter := store.MunicipalityFilter{
		State:  q.Get("state"),
		Region: model.Region(q.Get("region")),
	}

	hash := scorer.ParametersHash(p)
	key := strings.Join([]string{
		format, hash, strings.ToUpper(filter.State), string(filter.Region), strconv.Itoa(limit),
	}, "|")

	if data := s.cache.Get(key); data != nil {
		w.Header().Set("X-Cache", "HIT")
		writeRaw(w, contentType, data)
		return
	}

	rep, err := s.gapReport(r.Context(), filter, p)
	if err != nil {
		s.internalError(w, "gap report", err)
		return
	}
	rep.ParamsHash = hash
	if limit > 0 && len(rep.Gaps) > limit {
		rep.Gaps = rep.Gaps[:limit]
	}

	data, err := encode(rep)
	if err != nil {
		s.internalError(w, "encode gap report", err)
		return
	}
	s.cache.Put(key, data)

	w.Header().Set("X-Cache", "MISS")
	writeRaw(w, contentType, data)
}

func (s *Server) gapReport(ctx context.Context, filter store.MunicipalityFilter, p scorer.Parameters) (*GapReport, error) {
	ms, err := s.store.ListMunicipalities(ctx, filter)
	if err != nil {
		return nil, err
	}
	inds, err := s.store.ListIndicators(ctx)
	if err != nil {
		return nil, err
	}

	gaps, adequate := scorer.IdentifyTerritorialGaps(ms, inds, p)
	if gaps == nil {
		gaps = []scorer.Assessment{}
	}
	return &GapReport{
		Parameters:    p,
		Total:         len(ms),
		GapCount:      len(gaps),
		AdequateCount: len(adequate),
		Gaps:          gaps,
	}, nil
}

func (s *Server) handleStationsGeoJSON(w http.ResponseWriter, r *http.Request) {
	stations, err := s.store.ListStations(r.Context())
	if err != nil {
		s.internalError(w, "list stations", err)
		return
	}
	data, err := json.Marshal(geo.StationFeatures(stations))
	if err != nil {
		s.internalError(w, "encode stations", err)
		return
	}
	writeRaw(w, "application/geo+json", data)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	if s.recalc == nil {
		writeError(w, http.StatusServiceUnavailable, "recalculation not configured")
		return
	}
	res, err := s.recalc.Run(r.Context())
	if err != nil {
		s.internalError(w, "recalculate", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// loadMunicipality fetches the {id} municipality and its indicator, writing
// an error response and returning ok=false on failure. A missing indicator
// is not an error.
func (s *Server) loadMunicipality(w http.ResponseWriter, r *http.Request) (*model.Municipality, *model.CoverageIndicator, bool) {
	id := chi.URLParam(r, "id")

	m, err := s.store.GetMunicipality(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "municipality not found")
		return nil, nil, false
	}
	if err != nil {
		s.internalError(w, "get municipality", err)
		return nil, nil, false
	}

	ind, err := s.store.GetIndicator(r.Context(), id)
	if err != nil {
		s.internalError(w, "get indicator", err)
		return nil, nil, false
	}
	return m, ind, true
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	zap.L().Error("api: "+op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
