// Package api exposes municipalities, assessments, territorial gaps and
// simulations over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/infrabrasil/vazios/internal/config"
	"github.com/infrabrasil/vazios/internal/recalc"
	"github.com/infrabrasil/vazios/internal/scorer"
	"github.com/infrabrasil/vazios/internal/store"
)

// Server holds the dependencies shared by the HTTP handlers.
type Server struct {
	store   store.Store
	recalc  *recalc.Recalculator
	params  scorer.Parameters
	cache   *ReportCache
	limiter *rate.Limiter
	origins []string
}

// New creates a Server. rc may be nil, in which case POST /api/recalculate
// responds 503. Successful recalculations purge the report cache.
func New(st store.Store, rc *recalc.Recalculator, p scorer.Parameters, cfg config.ServerConfig) *Server {
	s := &Server{
		store:   st,
		recalc:  rc,
		params:  p.WithDefaults(),
		cache:   NewReportCache(cfg.CacheEntries, time.Duration(cfg.CacheTTLSecs)*time.Second),
		origins: cfg.CORSOrigins,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = max(int(cfg.RateLimit), 1)
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	if rc != nil {
		rc.OnComplete(func(res *recalc.Result) {
			s.cache.Purge()
			zap.L().Debug("api: report cache purged", zap.String("run_id", res.RunID))
		})
	}
	return s
}

// Cache returns the report cache.
func (s *Server) Cache() *ReportCache { return s.cache }

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(instrument)

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(s.limiter))

		r.Get("/municipalities", s.handleListMunicipalities)
		r.Get("/municipalities/{id}/assessment", s.handleAssessment)
		r.Post("/municipalities/{id}/simulate", s.handleSimulate)
		r.Get("/gaps", s.handleGaps)
		r.Get("/gaps.geojson", s.handleGapsGeoJSON)
		r.Get("/stations.geojson", s.handleStationsGeoJSON)
		r.Get("/cache", s.handleCacheStats)
		r.Post("/recalculate", s.handleRecalculate)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeRaw(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
