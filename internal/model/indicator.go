package model

import "time"

// CoverageStatus classifies charging-infrastructure availability.
type CoverageStatus string

const (
	CoverageAdequada    CoverageStatus = "adequada"
	CoverageCritica     CoverageStatus = "critica"
	CoverageInexistente CoverageStatus = "inexistente"
)

// severity orders statuses from least to most critical.
func (s CoverageStatus) severity() int {
	switch s {
	case CoverageAdequada:
		return 0
	case CoverageCritica:
		return 1
	default:
		return 2
	}
}

// WorseThan reports whether s is a more critical status than other.
func (s CoverageStatus) WorseThan(other CoverageStatus) bool {
	return s.severity() > other.severity()
}

// CoverageIndicator is a point-in-time measurement of charging availability
// for one municipality. Rows are replaced in full on every recalculation.
type CoverageIndicator struct {
	MunicipalityID    string         `json:"municipality_id"`
	ChargingPoints    int            `json:"charging_points"`
	TotalPowerKW      *float64       `json:"total_power_kw,omitempty"`
	RatioPer100k      *float64       `json:"ratio_per_100k,omitempty"`
	PopulationUsed    int64          `json:"population_used"`
	NearestDistanceKM *float64       `json:"nearest_distance_km,omitempty"`
	Status            CoverageStatus `json:"status"`
	IsGap             bool           `json:"is_gap"`
	Justification     string         `json:"justification,omitempty"`
	ComputedAt        time.Time      `json:"computed_at"`
}

// RatioPer100k returns charging points per 100,000 inhabitants. A
// non-positive population yields 0 rather than NaN or Inf.
func RatioPer100k(count int, population int64) float64 {
	if population <= 0 {
		return 0
	}
	return float64(count) / float64(population) * 100_000
}

// WithChargingPoints returns a copy of the indicator with a new point count.
// The ratio is recomputed against population; status is left to the caller.
// Pointer fields are copied so the result shares no memory with ind.
func (ind CoverageIndicator) WithChargingPoints(count int, population int64) CoverageIndicator {
	out := ind
	out.ChargingPoints = count
	out.PopulationUsed = population
	ratio := RatioPer100k(count, population)
	out.RatioPer100k = &ratio
	out.TotalPowerKW = copyFloat(ind.TotalPowerKW)
	out.NearestDistanceKM = copyFloat(ind.NearestDistanceKM)
	return out
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
