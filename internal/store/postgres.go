package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/infrabrasil/vazios/internal/db"
	"github.com/infrabrasil/vazios/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// parsePoolConfig applies pool sizing with sensible defaults.
func parsePoolConfig(connString string, poolCfg *PoolConfig) (*pgxpool.Config, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute
	return pgxCfg, nil
}

// NewPostgres creates a PostgresStore with a connection pool and verifies
// connectivity with a ping.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := parsePoolConfig(connString, poolCfg)
	if err != nil {
		return nil, err
	}
	return connectPostgres(ctx, pgxCfg)
}

func connectPostgres(ctx context.Context, pgxCfg *pgxpool.Config) (*PostgresStore, error) {
	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS municipalities (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	name_folded TEXT NOT NULL,
	state       TEXT NOT NULL,
	region      TEXT NOT NULL DEFAULT '',
	population  BIGINT NOT NULL DEFAULT 0,
	area_km2    DOUBLE PRECISION,
	lat         DOUBLE PRECISION,
	lon         DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS charging_stations (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	operator        TEXT NOT NULL DEFAULT '',
	municipality_id TEXT NOT NULL DEFAULT '',
	lat             DOUBLE PRECISION NOT NULL,
	lon             DOUBLE PRECISION NOT NULL,
	power_kw        DOUBLE PRECISION NOT NULL DEFAULT 0,
	active          BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS coverage_indicators (
	municipality_id     TEXT PRIMARY KEY REFERENCES municipalities(id),
	charging_points     INTEGER NOT NULL DEFAULT 0,
	total_power_kw      DOUBLE PRECISION,
	ratio_per_100k      DOUBLE PRECISION,
	population_used     BIGINT NOT NULL DEFAULT 0,
	nearest_distance_km DOUBLE PRECISION,
	status              TEXT NOT NULL,
	is_gap              BOOLEAN NOT NULL DEFAULT FALSE,
	justification       TEXT NOT NULL DEFAULT '',
	computed_at         TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_municipalities_state ON municipalities(state);
CREATE INDEX IF NOT EXISTS idx_municipalities_name_folded ON municipalities(name_folded);
CREATE INDEX IF NOT EXISTS idx_charging_stations_municipality ON charging_stations(municipality_id);
CREATE INDEX IF NOT EXISTS idx_coverage_indicators_is_gap ON coverage_indicators(is_gap);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

var municipalityUpsert = db.UpsertConfig{
	Table:        "municipalities",
	Columns:      []string{"id", "name", "name_folded", "state", "region", "population", "area_km2", "lat", "lon"},
	ConflictKeys: []string{"id"},
}

func (s *PostgresStore) UpsertMunicipalities(ctx context.Context, ms []model.Municipality) error {
	rows := make([][]any, len(ms))
	for i, m := range ms {
		rows[i] = []any{m.ID, m.Name, model.FoldName(m.Name), strings.ToUpper(m.State), string(m.Region),
			m.Population, m.AreaKM2, m.Lat, m.Lon}
	}
	_, err := db.BulkUpsert(ctx, s.pool, municipalityUpsert, rows)
	return eris.Wrap(err, "postgres: upsert municipalities")
}

func (s *PostgresStore) GetMunicipality(ctx context.Context, id string) (*model.Municipality, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+municipalityColumns+` FROM municipalities WHERE id = $1`, id)
	m, err := scanMunicipality(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "store: municipality %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get municipality %s", id)
	}
	return m, nil
}

func (s *PostgresStore) ListMunicipalities(ctx context.Context, filter MunicipalityFilter) ([]model.Municipality, error) {
	query := `SELECT ` + municipalityColumns + ` FROM municipalities WHERE 1=1`
	var args []any
	argN := 1

	if filter.State != "" {
		query += fmt.Sprintf(` AND state = $%d`, argN)
		args = append(args, strings.ToUpper(filter.State))
		argN++
	}
	if filter.Region != "" {
		query += fmt.Sprintf(` AND region = $%d`, argN)
		args = append(args, string(filter.Region))
		argN++
	}
	if q := model.FoldName(filter.Query); q != "" {
		query += fmt.Sprintf(` AND name_folded LIKE $%d`, argN)
		args = append(args, "%"+q+"%")
		argN++
	}
	if filter.MinPopulation > 0 {
		query += fmt.Sprintf(` AND population >= $%d`, argN)
		args = append(args, filter.MinPopulation)
		argN++
	}
	query += ` ORDER BY state, name`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argN)
		args = append(args, filter.Limit)
		argN++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argN)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list municipalities")
	}
	defer rows.Close()

	var ms []model.Municipality
	for rows.Next() {
		m, err := scanMunicipality(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan municipality")
		}
		ms = append(ms, *m)
	}
	return ms, eris.Wrap(rows.Err(), "postgres: list municipalities iterate")
}

var stationUpsert = db.UpsertConfig{
	Table:        "charging_stations",
	Columns:      []string{"id", "name", "operator", "municipality_id", "lat", "lon", "power_kw", "active"},
	ConflictKeys: []string{"id"},
}

func (s *PostgresStore) UpsertStations(ctx context.Context, stations []model.ChargingStation) error {
	rows := make([][]any, len(stations))
	for i, st := range stations {
		rows[i] = []any{st.ID, st.Name, st.Operator, st.MunicipalityID, st.Lat, st.Lon, st.PowerKW, st.Active}
	}
	_, err := db.BulkUpsert(ctx, s.pool, stationUpsert, rows)
	return eris.Wrap(err, "postgres: upsert stations")
}

func (s *PostgresStore) ListStations(ctx context.Context) ([]model.ChargingStation, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+stationColumns+` FROM charging_stations ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list stations")
	}
	defer rows.Close()

	var out []model.ChargingStation
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan station")
		}
		out = append(out, *st)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list stations iterate")
}

var indicatorUpsert = db.UpsertConfig{
	Table: "coverage_indicators",
	Columns: []string{"municipality_id", "charging_points", "total_power_kw", "ratio_per_100k", "population_used",
		"nearest_distance_km", "status", "is_gap", "justification", "computed_at"},
	ConflictKeys: []string{"municipality_id"},
}

func (s *PostgresStore) UpsertIndicators(ctx context.Context, inds []model.CoverageIndicator) error {
	rows := make([][]any, len(inds))
	for i, ind := range inds {
		rows[i] = []any{ind.MunicipalityID, ind.ChargingPoints, ind.TotalPowerKW, ind.RatioPer100k, ind.PopulationUsed,
			ind.NearestDistanceKM, string(ind.Status), ind.IsGap, ind.Justification, ind.ComputedAt.UTC()}
	}
	_, err := db.BulkUpsert(ctx, s.pool, indicatorUpsert, rows)
	return eris.Wrap(err, "postgres: upsert indicators")
}

func (s *PostgresStore) GetIndicator(ctx context.Context, municipalityID string) (*model.CoverageIndicator, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+indicatorColumns+` FROM coverage_indicators WHERE municipality_id = $1`, municipalityID)
	ind, err := scanIndicator(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get indicator %s", municipalityID)
	}
	return ind, nil
}

func (s *PostgresStore) ListIndicators(ctx context.Context) ([]model.CoverageIndicator, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+indicatorColumns+` FROM coverage_indicators ORDER BY municipality_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list indicators")
	}
	defer rows.Close()

	var out []model.CoverageIndicator
	for rows.Next() {
		ind, err := scanIndicator(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan indicator")
		}
		out = append(out, *ind)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list indicators iterate")
}
