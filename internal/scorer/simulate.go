package scorer

import (
	"github.com/rotisserie/eris"

	"github.com/infrabrasil/vazios/internal/model"
)

// Snapshot is the coverage state on one side of a simulation.
type Snapshot struct {
	ChargingPoints int                    `json:"charging_points"`
	RatioPer100k   float64                `json:"ratio_per_100k"`
	Status         model.CoverageStatus   `json:"status"`
	Score          int                    `json:"score"`
	Level          model.CriticalityLevel `json:"level"`
}

// Simulation compares coverage before and after adding charging points.
type Simulation struct {
	MunicipalityID      string                 `json:"municipality_id"`
	Additional          int                    `json:"additional"`
	Before              Snapshot               `json:"before"`
	After               Snapshot               `json:"after"`
	ScoreReduction      int                    `json:"score_reduction"`
	NewLevel            model.CriticalityLevel `json:"new_level"`
	PopulationBenefited int64                  `json:"population_benefited"`
}

// SimulateAddingChargingPoints estimates the effect of installing additional
// charging points in m. The current indicator is never modified; a nil
// indicator is treated as zero coverage. A negative ScoreReduction is a valid
// outcome.
func SimulateAddingChargingPoints(m model.Municipality, current *model.CoverageIndicator, additional int, p Parameters) (*Simulation, error) {
	if additional <= 0 {
		return nil, eris.Errorf("scorer: additional charging points must be positive (got %d)", additional)
	}

	base := NoDataIndicator(m)
	if current != nil {
		base = *current
	}

	beforeScore := ComputeCriticalityScore(m, current, p)
	before := Snapshot{
		ChargingPoints: base.ChargingPoints,
		RatioPer100k:   actualRatio(m, &base),
		Status:         ClassifyCoverage(m, base.ChargingPoints, p),
		Score:          beforeScore,
		Level:          LevelForScore(beforeScore),
	}

	hypo := base.WithChargingPoints(base.ChargingPoints+additional, m.Population)
	hypo.Status = ClassifyCoverage(m, hypo.ChargingPoints, p)
	afterScore := ComputeCriticalityScore(m, &hypo, p)
	after := Snapshot{
		ChargingPoints: hypo.ChargingPoints,
		RatioPer100k:   *hypo.RatioPer100k,
		Status:         hypo.Status,
		Score:          afterScore,
		Level:          LevelForScore(afterScore),
	}

	return &Simulation{
		MunicipalityID:      m.ID,
		Additional:          additional,
		Before:              before,
		After:               after,
		ScoreReduction:      before.Score - after.Score,
		NewLevel:            after.Level,
		PopulationBenefited: m.Population,
	}, nil
}
