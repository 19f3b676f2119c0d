package store

import (
	"context"
	"errors"

	"github.com/infrabrasil/vazios/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// MunicipalityFilter specifies criteria for listing municipalities.
type MunicipalityFilter struct {
	State         string       `json:"state,omitempty"`
	Region        model.Region `json:"region,omitempty"`
	Query         string       `json:"q,omitempty"` // accent-insensitive name substring
	MinPopulation int64        `json:"min_population,omitempty"`
	Limit         int          `json:"limit,omitempty"` // 0 = no limit
	Offset        int          `json:"offset,omitempty"`
}

// Store defines the persistence interface for municipalities, charging
// stations and coverage indicators.
type Store interface {
	// Municipalities
	UpsertMunicipalities(ctx context.Context, ms []model.Municipality) error
	GetMunicipality(ctx context.Context, id string) (*model.Municipality, error)
	ListMunicipalities(ctx context.Context, filter MunicipalityFilter) ([]model.Municipality, error)

	// Charging stations
	UpsertStations(ctx context.Context, stations []model.ChargingStation) error
	ListStations(ctx context.Context) ([]model.ChargingStation, error)

	// Coverage indicators. Upserts replace the whole row for a municipality.
	UpsertIndicators(ctx context.Context, inds []model.CoverageIndicator) error
	GetIndicator(ctx context.Context, municipalityID string) (*model.CoverageIndicator, error)
	ListIndicators(ctx context.Context) ([]model.CoverageIndicator, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

type scannable interface {
	Scan(dest ...any) error
}

const municipalityColumns = `id, name, state, region, population, area_km2, lat, lon`

func scanMunicipality(row scannable) (*model.Municipality, error) {
	var m model.Municipality
	var region string
	if err := row.Scan(&m.ID, &m.Name, &m.State, &region, &m.Population, &m.AreaKM2, &m.Lat, &m.Lon); err != nil {
		return nil, err
	}
	m.Region = model.Region(region)
	return &m, nil
}

const stationColumns = `id, name, operator, municipality_id, lat, lon, power_kw, active`

func scanStation(row scannable) (*model.ChargingStation, error) {
	var s model.ChargingStation
	if err := row.Scan(&s.ID, &s.Name, &s.Operator, &s.MunicipalityID, &s.Lat, &s.Lon, &s.PowerKW, &s.Active); err != nil {
		return nil, err
	}
	return &s, nil
}

const indicatorColumns = `municipality_id, charging_points, total_power_kw, ratio_per_100k, population_used,
	nearest_distance_km, status, is_gap, justification, computed_at`

func scanIndicator(row scannable) (*model.CoverageIndicator, error) {
	var ind model.CoverageIndicator
	var status string
	err := row.Scan(
		&ind.MunicipalityID, &ind.ChargingPoints, &ind.TotalPowerKW, &ind.RatioPer100k, &ind.PopulationUsed,
		&ind.NearestDistanceKM, &status, &ind.IsGap, &ind.Justification, &ind.ComputedAt,
	)
	if err != nil {
		return nil, err
	}
	ind.Status = model.CoverageStatus(status)
	return &ind, nil
}
