package model

// Region is one of the five IBGE macro-regions.
type Region string

const (
	RegionNorte       Region = "Norte"
	RegionNordeste    Region = "Nordeste"
	RegionCentroOeste Region = "Centro-Oeste"
	RegionSudeste     Region = "Sudeste"
	RegionSul         Region = "Sul"
)

// Municipality holds the static facts about a place. Rows are seeded from a
// reference dataset and are never mutated by scoring.
type Municipality struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	State      string   `json:"state" yaml:"state"` // UF, e.g. "SP"
	Region     Region   `json:"region" yaml:"region"`
	Population int64    `json:"population" yaml:"population"`
	AreaKM2    *float64 `json:"area_km2,omitempty" yaml:"area_km2,omitempty"`
	Lat        *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lon        *float64 `json:"lon,omitempty" yaml:"lon,omitempty"`
}

// HasCoordinates reports whether the municipality centroid is known.
func (m Municipality) HasCoordinates() bool {
	return m.Lat != nil && m.Lon != nil
}
