package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infrabrasil/vazios/internal/config"
	"github.com/infrabrasil/vazios/internal/model"
	"github.com/infrabrasil/vazios/internal/recalc"
	"github.com/infrabrasil/vazios/internal/scorer"
	"github.com/infrabrasil/vazios/internal/store"
)

func ptr[T any](v T) *T { return &v }

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		CORSOrigins:  []string{"*"},
		CacheEntries: 16,
		CacheTTLSecs: 300,
	}
}

type testEnv struct {
	store  store.Store
	recalc *recalc.Recalculator
	server *Server
	http   *httptest.Server
}

func newTestEnv(t *testing.T, cfg config.ServerConfig, withIndicators bool) *testEnv {
	t.Helper()
	return newTestEnvWithParams(t, cfg, scorer.DefaultParameters(), withIndicators)
}

func newTestEnvWithParams(t *testing.T, cfg config.ServerConfig, p scorer.Parameters, withIndicators bool) *testEnv {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))

	require.NoError(t, st.UpsertMunicipalities(ctx, []model.Municipality{
		{ID: "A", Name: "Alpha", State: "MG", Region: model.RegionSudeste, Population: 200_000, Lat: ptr(0.0), Lon: ptr(0.0)},
		{ID: "B", Name: "Beta", State: "MG", Region: model.RegionSudeste, Population: 60_000, Lat: ptr(0.0), Lon: ptr(1.0)},
		{ID: "C", Name: "Gama", State: "SP", Region: model.RegionSudeste, Population: 10_000},
	}))
	require.NoError(t, st.UpsertStations(ctx, []model.ChargingStation{
		{ID: "b1", MunicipalityID: "B", Lat: 0, Lon: 1, PowerKW: 50, Active: true},
		{ID: "b2", MunicipalityID: "B", Lat: 0, Lon: 1.001, PowerKW: 50, Active: true},
		{ID: "b3", MunicipalityID: "B", Lat: 0.001, Lon: 1, PowerKW: 50, Active: true},
	}))

	rc := recalc.New(st, p, recalc.Options{})
	if withIndicators {
		_, err := rc.Run(ctx)
		require.NoError(t, err)
	}

	srv := New(st, rc, p, cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{store: st, recalc: rc, server: srv, http: ts}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.http.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), false)

	resp := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestListMunicipalities(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), false)

	resp := env.do(t, http.MethodGet, "/api/municipalities?state=mg", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[struct {
		Municipalities []model.Municipality `json:"municipalities"`
		Count          int                  `json:"count"`
	}](t, resp)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "Alpha", body.Municipalities[0].Name)
}

func TestListMunicipalities_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), false)

	resp := env.do(t, http.MethodGet, "/api/municipalities?state=RS", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, []any{}, body["municipalities"])
}

func TestListMunicipalities_BadLimit(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), false)

	resp := env.do(t, http.MethodGet, "/api/municipalities?limit=-3", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAssessment(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), true)

	resp := env.do(t, http.MethodGet, "/api/municipalities/A/assessment", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	a := decode[scorer.Assessment](t, resp)
	assert.True(t, a.HasData)
	assert.Equal(t, 76, a.Score)
	assert.Equal(t, model.LevelCritico, a.Level)
	assert.True(t, a.IsGap)
	assert.Equal(t, model.CoverageInexistente, a.Indicator.Status)
	assert.Contains(t, a.Justification, "No charging points registered")
}

func TestAssessment_NoIndicator(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), false)

	resp := env.do(t, http.MethodGet, "/api/municipalities/B/assessment", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	a := decode[scorer.Assessment](t, resp)
	assert.False(t, a.HasData)
	assert.Equal(t, scorer.MaxScore, a.Score)
	assert.Equal(t, scorer.NoCoverageData, a.Justification)
	assert.True(t, a.IsGap)
}

func TestAssessment_NotFound(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), true)

	resp := env.do(t, http.MethodGet, "/api/municipalities/ZZZ/assessment", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAssessment_InvalidOverride(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), true)

	resp := env.do(t, http.MethodGet, "/api/municipalities/A/assessment?ideal_ratio=-1", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Contains(t, body["error"], "ideal_ratio_per_100k")
}

func TestGaps_CachedAndPurgedOnRecalc(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), true)

	resp := env.do(t, http.MethodGet, "/api/gaps", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	rep := decode[GapReport](t, resp)
	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, 1, rep.GapCount)
	assert.Equal(t, 2, rep.AdequateCount)
	require.Len(t, rep.Gaps, 1)
	assert.Equal(t, "A", rep.Gaps[0].Municipality.ID)
	assert.Equal(t, scorer.ParametersHash(scorer.DefaultParameters()), rep.ParamsHash)

	resp = env.do(t, http.MethodGet, "/api/gaps", "")
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))

	resp = env.do(t, http.MethodPost, "/api/recalculate", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[recalc.Result](t, resp)
	assert.Equal(t, 3, res.Municipalities)
	assert.Equal(t, 0, env.server.Cache().Stats().Entries)

	resp = env.do(t, http.MethodGet, "/api/gaps", "")
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
}

func TestGaps_Overrides(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), true)

	resp := env.do(t, http.MethodGet, "/api/gaps?gap_threshold=80", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rep := decode[GapReport](t, resp)
	assert.Equal(t, 0, rep.GapCount)
	assert.Empty(t, rep.Gaps)
	assert.Equal(t, 80, rep.Parameters.GapScoreThreshold)

	// Lowering the population floor lets Gama (score 70) count.
	resp = env.do(t, http.MethodGet, "/api/gaps?min_population=5000", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rep = decode[GapReport](t, resp)
	assert.Equal(t, 2, rep.GapCount)
	assert.Equal(t, "A", rep.Gaps[0].Municipality.ID)
	assert.Equal(t, "C", rep.Gaps[1].Municipality.ID)
}

func TestGaps_ZeroPopulationFloorAndThreshold(t *testing.T) {
	p := scorer.DefaultParameters()
	p.MinRelevantPopulation = 0
	p.GapScoreThreshold = 0
	env := newTestEnvWithParams(t, testServerConfig(), p, true)

	resp := env.do(t, http.MethodGet, "/api/gaps", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rep := decode[GapReport](t, resp)
	assert.Equal(t, p, rep.Parameters)
	assert.Equal(t, 2, rep.GapCount)
	require.Len(t, rep.Gaps, 2)
	assert.Equal(t, "A", rep.Gaps[0].Municipality.ID)
	assert.Equal(t, "C", rep.Gaps[1].Municipality.ID)

	// The persisted flag agrees with the report.
	for _, id := range []string{"A", "C"} {
		ind, err := env.store.GetIndicator(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, ind, id)
		assert.True(t, ind.IsGap, id)
	}
}

func TestGaps_StateFilterAndLimit(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), true)

	resp := env.do(t, http.MethodGet, "/api/gaps?state=SP", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rep := decode[GapReport](t, resp)
	assert.Equal(t, 1, rep.Total)
	assert.Equal(t, 0, rep.GapCount)

	resp = env.do(t, http.MethodGet, "/api/gaps?min_population=5000&limit=1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rep = decode[GapReport](t, resp)
	assert.Equal(t, 2, rep.GapCount)
	assert.Len(t, rep.Gaps, 1)
}

func TestGaps_InvalidOverride(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), true)

	resp := env.do(t, http.MethodGet, "/api/gaps?gap_threshold=abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/gaps?gap_threshold=150", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGapsGeoJSON(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), true)

	resp := env.do(t, http.MethodGet, "/api/gaps.geojson", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

	fc := decode[struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}](t, resp)
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Alpha", fc.Features[0].Properties["name"])
}

func TestStationsGeoJSON(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), false)

	resp := env.do(t, http.MethodGet, "/api/stations.geojson", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	fc := decode[struct {
		Features []struct {
			ID       string `json:"id"`
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}](t, resp)
	require.Len(t, fc.Features, 3)
	assert.Equal(t, "b1", fc.Features[0].ID)
	assert.Equal(t, []float64{1, 0}, fc.Features[0].Geometry.Coordinates)
}

func TestSimulate(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), true)

	resp := env.do(t, http.MethodPost, "/api/municipalities/A/simulate", `{"additional": 2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sim := decode[scorer.Simulation](t, resp)
	assert.Equal(t, "A", sim.MunicipalityID)
	assert.Equal(t, 76, sim.Before.Score)
	assert.Equal(t, 2, sim.After.ChargingPoints)
	assert.Equal(t, model.CoverageCritica, sim.After.Status)
	assert.Equal(t, sim.Before.Score-sim.After.Score, sim.ScoreReduction)
}

func TestSimulate_BadRequests(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), true)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"zero additional", "/api/municipalities/A/simulate", `{"additional": 0}`, http.StatusBadRequest},
		{"malformed body", "/api/municipalities/A/simulate", `{`, http.StatusBadRequest},
		{"unknown municipality", "/api/municipalities/ZZZ/simulate", `{"additional": 1}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRecalculate_NotConfigured(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), false)
	srv := New(env.store, nil, scorer.DefaultParameters(), testServerConfig())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/recalculate", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testServerConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 1
	env := newTestEnv(t, cfg, false)

	resp := env.do(t, http.MethodGet, "/api/municipalities", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/municipalities", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))

	// Health and metrics are outside the limited group.
	resp = env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), false)

	req, err := http.NewRequest(http.MethodOptions, env.http.URL+"/api/gaps", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://mapa.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, testServerConfig(), true)

	env.do(t, http.MethodGet, "/api/gaps", "")
	resp := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "vazios_http_requests_total")
	assert.Contains(t, string(data), "vazios_recalc_runs_total")
}
