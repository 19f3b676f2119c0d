package scorer

import (
	"math"

	"github.com/infrabrasil/vazios/internal/model"
)

// MaxScore is the upper bound of the criticality scale.
const MaxScore = 100

// Contribution weights.
const (
	coverageWeight       = 40.0
	belowMinimumPenalty  = 30.0 // fixed step for 0 < count < minimum, not a ramp
	populationWeight     = 30.0
	distanceWeight       = 30.0
	populationSaturation = 1_000_000.0
)

// Breakdown holds the three unrounded contributions to a score.
type Breakdown struct {
	Coverage   float64 `json:"coverage"`
	Population float64 `json:"population"`
	Distance   float64 `json:"distance"`
	Score      int     `json:"score"`
	NoData     bool    `json:"no_data,omitempty"`
}

// ComputeCriticalityScore returns a 0-100 criticality score for m. A nil
// indicator means no measurement exists and scores the maximum.
func ComputeCriticalityScore(m model.Municipality, ind *model.CoverageIndicator, p Parameters) int {
	return ScoreBreakdown(m, ind, p).Score
}

// ScoreBreakdown computes the score along with each weighted contribution.
func ScoreBreakdown(m model.Municipality, ind *model.CoverageIndicator, p Parameters) Breakdown {
	if ind == nil {
		return Breakdown{Score: MaxScore, NoData: true}
	}

	b := Breakdown{
		Coverage:   coverageContribution(m, ind, p),
		Population: populationContribution(m.Population, ind.ChargingPoints),
		Distance:   distanceContribution(ind.NearestDistanceKM, ind.ChargingPoints, p.MaxReasonableDistanceKM),
	}

	score := int(math.Round(b.Coverage + b.Population + b.Distance))
	b.Score = clampScore(score)
	return b
}

func coverageContribution(m model.Municipality, ind *model.CoverageIndicator, p Parameters) float64 {
	switch {
	case ind.ChargingPoints == 0:
		return coverageWeight
	case ind.ChargingPoints < p.MinChargingPoints:
		return belowMinimumPenalty
	}

	if p.IdealRatioPer100k <= 0 {
		return 0
	}
	shortfall := math.Max(0, p.IdealRatioPer100k-actualRatio(m, ind))
	return coverageWeight * shortfall / p.IdealRatioPer100k
}

// Population only amplifies the risk of having no coverage at all.
func populationContribution(population int64, count int) float64 {
	if count != 0 || population <= 0 {
		return 0
	}
	return populationWeight * math.Min(float64(population)/populationSaturation, 1)
}

func distanceContribution(distanceKM *float64, count int, maxKM float64) float64 {
	if distanceKM == nil {
		if count == 0 {
			return distanceWeight
		}
		return 0
	}
	d := math.Max(0, *distanceKM)
	if maxKM <= 0 {
		if d > 0 {
			return distanceWeight
		}
		return 0
	}
	return distanceWeight * math.Min(d/maxKM, 1)
}

// actualRatio prefers the ratio stored on the indicator snapshot and falls
// back to recomputing it from the municipality population.
func actualRatio(m model.Municipality, ind *model.CoverageIndicator) float64 {
	if ind.RatioPer100k != nil {
		return *ind.RatioPer100k
	}
	return model.RatioPer100k(ind.ChargingPoints, m.Population)
}

func clampScore(score int) int {
	if score > MaxScore {
		return MaxScore
	}
	if score < 0 {
		return 0
	}
	return score
}
