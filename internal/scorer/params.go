// Package scorer implements the territorial-gap ("vazios") criticality model
// for EV charging coverage. Every function is pure and safe for concurrent use.
package scorer

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Parameters holds the thresholds governing the scoring model. It is a plain
// value: pass it explicitly to every call.
type Parameters struct {
	MinRelevantPopulation   int64   `json:"min_relevant_population" mapstructure:"min_relevant_population"`
	MinChargingPoints       int     `json:"min_charging_points" mapstructure:"min_charging_points"`
	MaxReasonableDistanceKM float64 `json:"max_reasonable_distance_km" mapstructure:"max_reasonable_distance_km"`
	IdealRatioPer100k       float64 `json:"ideal_ratio_per_100k" mapstructure:"ideal_ratio_per_100k"`
	GapScoreThreshold       int     `json:"gap_score_threshold" mapstructure:"gap_score_threshold"`
}

// Default parameter values.
const (
	DefaultMinRelevantPopulation   = 50_000
	DefaultMinChargingPoints       = 1
	DefaultMaxReasonableDistanceKM = 100.0
	DefaultIdealRatioPer100k       = 5.0
	DefaultGapScoreThreshold       = 50
)

// DefaultParameters returns the stock scoring thresholds.
func DefaultParameters() Parameters {
	return Parameters{
		MinRelevantPopulation:   DefaultMinRelevantPopulation,
		MinChargingPoints:       DefaultMinChargingPoints,
		MaxReasonableDistanceKM: DefaultMaxReasonableDistanceKM,
		IdealRatioPer100k:       DefaultIdealRatioPer100k,
		GapScoreThreshold:       DefaultGapScoreThreshold,
	}
}

// WithDefaults returns a copy of p where a zero distance or ideal ratio takes
// its default. Those two fields have no valid zero value. Every other field
// keeps zero as a real setting: a zero threshold or population floor is honored.
func (p Parameters) WithDefaults() Parameters {
	d := DefaultParameters()
	if p.MaxReasonableDistanceKM == 0 {
		p.MaxReasonableDistanceKM = d.MaxReasonableDistanceKM
	}
	if p.IdealRatioPer100k == 0 {
		p.IdealRatioPer100k = d.IdealRatioPer100k
	}
	return p
}

// ValidateParameters checks that p is internally consistent.
func ValidateParameters(p Parameters) error {
	var errs []string

	if p.MinRelevantPopulation < 0 {
		errs = append(errs, "min_relevant_population must be >= 0")
	}
	if p.MinChargingPoints < 0 {
		errs = append(errs, "min_charging_points must be >= 0")
	}
	if p.MaxReasonableDistanceKM <= 0 {
		errs = append(errs, "max_reasonable_distance_km must be > 0")
	}
	if p.IdealRatioPer100k <= 0 {
		errs = append(errs, "ideal_ratio_per_100k must be > 0")
	}
	if p.GapScoreThreshold < 0 || p.GapScoreThreshold > MaxScore {
		errs = append(errs, fmt.Sprintf("gap_score_threshold must be between 0 and %d", MaxScore))
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: parameter validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ParametersHash returns a short SHA-256 digest of p, stable across runs.
func ParametersHash(p Parameters) string {
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:8])
}
