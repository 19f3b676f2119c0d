package model

// ChargingStation is a raw EV charging facility. MunicipalityID may be empty
// when the source dataset only carries coordinates; the recalculation job
// attributes such stations by proximity.
type ChargingStation struct {
	ID             string  `json:"id" yaml:"id"`
	Name           string  `json:"name" yaml:"name"`
	Operator       string  `json:"operator,omitempty" yaml:"operator,omitempty"`
	MunicipalityID string  `json:"municipality_id,omitempty" yaml:"municipality_id,omitempty"`
	Lat            float64 `json:"lat" yaml:"lat"`
	Lon            float64 `json:"lon" yaml:"lon"`
	PowerKW        float64 `json:"power_kw,omitempty" yaml:"power_kw,omitempty"`
	Active         bool    `json:"active" yaml:"active"`
}
