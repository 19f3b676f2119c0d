package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/infrabrasil/vazios/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS municipalities (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	name_folded TEXT NOT NULL,
	state       TEXT NOT NULL,
	region      TEXT NOT NULL DEFAULT '',
	population  INTEGER NOT NULL DEFAULT 0,
	area_km2    REAL,
	lat         REAL,
	lon         REAL
);

CREATE TABLE IF NOT EXISTS charging_stations (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	operator        TEXT NOT NULL DEFAULT '',
	municipality_id TEXT NOT NULL DEFAULT '',
	lat             REAL NOT NULL,
	lon             REAL NOT NULL,
	power_kw        REAL NOT NULL DEFAULT 0,
	active          INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS coverage_indicators (
	municipality_id     TEXT PRIMARY KEY REFERENCES municipalities(id),
	charging_points     INTEGER NOT NULL DEFAULT 0,
	total_power_kw      REAL,
	ratio_per_100k      REAL,
	population_used     INTEGER NOT NULL DEFAULT 0,
	nearest_distance_km REAL,
	status              TEXT NOT NULL,
	is_gap              INTEGER NOT NULL DEFAULT 0,
	justification       TEXT NOT NULL DEFAULT '',
	computed_at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_municipalities_state ON municipalities(state);
CREATE INDEX IF NOT EXISTS idx_municipalities_name_folded ON municipalities(name_folded);
CREATE INDEX IF NOT EXISTS idx_charging_stations_municipality ON charging_stations(municipality_id);
CREATE INDEX IF NOT EXISTS idx_coverage_indicators_is_gap ON coverage_indicators(is_gap);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertMunicipalities(ctx context.Context, ms []model.Municipality) error {
	if len(ms) == 0 {
		return nil
	}
	return s.inTx(ctx, "upsert municipalities", `
		INSERT INTO municipalities (id, name, name_folded, state, region, population, area_km2, lat, lon)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			name_folded = excluded.name_folded,
			state = excluded.state,
			region = excluded.region,
			population = excluded.population,
			area_km2 = excluded.area_km2,
			lat = excluded.lat,
			lon = excluded.lon`,
		len(ms), func(i int) []any {
			m := ms[i]
			return []any{m.ID, m.Name, model.FoldName(m.Name), strings.ToUpper(m.State), string(m.Region),
				m.Population, m.AreaKM2, m.Lat, m.Lon}
		})
}

func (s *SQLiteStore) GetMunicipality(ctx context.Context, id string) (*model.Municipality, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+municipalityColumns+` FROM municipalities WHERE id = ?`, id)
	m, err := scanMunicipality(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "store: municipality %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get municipality %s", id)
	}
	return m, nil
}

func (s *SQLiteStore) ListMunicipalities(ctx context.Context, filter MunicipalityFilter) ([]model.Municipality, error) {
	query := `SELECT ` + municipalityColumns + ` FROM municipalities WHERE 1=1`
	var args []any

	if filter.State != "" {
		query += ` AND state = ?`
		args = append(args, strings.ToUpper(filter.State))
	}
	if filter.Region != "" {
		query += ` AND region = ?`
		args = append(args, string(filter.Region))
	}
	if q := model.FoldName(filter.Query); q != "" {
		query += ` AND name_folded LIKE ?`
		args = append(args, "%"+q+"%")
	}
	if filter.MinPopulation > 0 {
		query += ` AND population >= ?`
		args = append(args, filter.MinPopulation)
	}
	query += ` ORDER BY state, name`

	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list municipalities")
	}
	defer rows.Close()

	var ms []model.Municipality
	for rows.Next() {
		m, err := scanMunicipality(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan municipality")
		}
		ms = append(ms, *m)
	}
	return ms, eris.Wrap(rows.Err(), "sqlite: list municipalities iterate")
}

func (s *SQLiteStore) UpsertStations(ctx context.Context, stations []model.ChargingStation) error {
	if len(stations) == 0 {
		return nil
	}
	return s.inTx(ctx, "upsert stations", `
		INSERT INTO charging_stations (id, name, operator, municipality_id, lat, lon, power_kw, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			operator = excluded.operator,
			municipality_id = excluded.municipality_id,
			lat = excluded.lat,
			lon = excluded.lon,
			power_kw = excluded.power_kw,
			active = excluded.active`,
		len(stations), func(i int) []any {
			st := stations[i]
			return []any{st.ID, st.Name, st.Operator, st.MunicipalityID, st.Lat, st.Lon, st.PowerKW, st.Active}
		})
}

func (s *SQLiteStore) ListStations(ctx context.Context) ([]model.ChargingStation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+stationColumns+` FROM charging_stations ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list stations")
	}
	defer rows.Close()

	var out []model.ChargingStation
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan station")
		}
		out = append(out, *st)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list stations iterate")
}

func (s *SQLiteStore) UpsertIndicators(ctx context.Context, inds []model.CoverageIndicator) error {
	if len(inds) == 0 {
		return nil
	}
	return s.inTx(ctx, "upsert indicators", `
		INSERT INTO coverage_indicators (`+indicatorColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(municipality_id) DO UPDATE SET
			charging_points = excluded.charging_points,
			total_power_kw = excluded.total_power_kw,
			ratio_per_100k = excluded.ratio_per_100k,
			population_used = excluded.population_used,
			nearest_distance_km = excluded.nearest_distance_km,
			status = excluded.status,
			is_gap = excluded.is_gap,
			justification = excluded.justification,
			computed_at = excluded.computed_at`,
		len(inds), func(i int) []any {
			ind := inds[i]
			return []any{ind.MunicipalityID, ind.ChargingPoints, ind.TotalPowerKW, ind.RatioPer100k, ind.PopulationUsed,
				ind.NearestDistanceKM, string(ind.Status), ind.IsGap, ind.Justification, ind.ComputedAt.UTC()}
		})
}

func (s *SQLiteStore) GetIndicator(ctx context.Context, municipalityID string) (*model.CoverageIndicator, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+indicatorColumns+` FROM coverage_indicators WHERE municipality_id = ?`, municipalityID)
	ind, err := scanIndicator(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get indicator %s", municipalityID)
	}
	return ind, nil
}

func (s *SQLiteStore) ListIndicators(ctx context.Context) ([]model.CoverageIndicator, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+indicatorColumns+` FROM coverage_indicators ORDER BY municipality_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list indicators")
	}
	defer rows.Close()

	var out []model.CoverageIndicator
	for rows.Next() {
		ind, err := scanIndicator(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan indicator")
		}
		out = append(out, *ind)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list indicators iterate")
}

// inTx executes stmt once per row inside a single transaction.
func (s *SQLiteStore) inTx(ctx context.Context, op, stmt string, n int, argsFor func(i int) []any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "sqlite: %s: begin", op)
	}
	defer tx.Rollback() //nolint:errcheck

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return eris.Wrapf(err, "sqlite: %s: prepare", op)
	}
	defer prepared.Close() //nolint:errcheck

	for i := 0; i < n; i++ {
		if _, err := prepared.ExecContext(ctx, argsFor(i)...); err != nil {
			return eris.Wrapf(err, "sqlite: %s: row %d", op, i)
		}
	}

	return eris.Wrapf(tx.Commit(), "sqlite: %s: commit", op)
}
