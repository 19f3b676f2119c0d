package scorer

import "github.com/infrabrasil/vazios/internal/model"

// Level thresholds on the 0-100 scale.
const (
	criticoThreshold  = 70
	moderadoThreshold = 40
)

// ClassifyCoverage buckets a charging-point count for m. Coverage is adequate
// once the ratio reaches half of the ideal points per 100k inhabitants.
func ClassifyCoverage(m model.Municipality, count int, p Parameters) model.CoverageStatus {
	if count == 0 {
		return model.CoverageInexistente
	}
	if model.RatioPer100k(count, m.Population) >= 0.5*p.IdealRatioPer100k {
		return model.CoverageAdequada
	}
	return model.CoverageCritica
}

// LevelForScore maps a criticality score to its level.
func LevelForScore(score int) model.CriticalityLevel {
	switch {
	case score >= criticoThreshold:
		return model.LevelCritico
	case score >= moderadoThreshold:
		return model.LevelModerado
	default:
		return model.LevelAdequado
	}
}
