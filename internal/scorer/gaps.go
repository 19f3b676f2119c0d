package scorer

import (
	"sort"

	"github.com/infrabrasil/vazios/internal/model"
)

// Assessment is the scorer's verdict for one municipality. It is computed on
// demand and never persisted.
type Assessment struct {
	Municipality  model.Municipality      `json:"municipality"`
	Indicator     model.CoverageIndicator `json:"indicator"`
	HasData       bool                    `json:"has_data"`
	Score         int                     `json:"score"`
	Level         model.CriticalityLevel  `json:"level"`
	Breakdown     Breakdown               `json:"breakdown"`
	Justification string                  `json:"justification,omitempty"`
	IsGap         bool                    `json:"is_gap"`
}

// IsTerritorialGap reports whether a score for m marks it as under-served.
func IsTerritorialGap(m model.Municipality, score int, p Parameters) bool {
	return score > p.GapScoreThreshold && m.Population >= p.MinRelevantPopulation
}

// NoDataIndicator synthesizes a zero-coverage indicator for a municipality
// without measurements. The row is never persisted.
func NoDataIndicator(m model.Municipality) model.CoverageIndicator {
	ratio := 0.0
	return model.CoverageIndicator{
		MunicipalityID: m.ID,
		RatioPer100k:   &ratio,
		PopulationUsed: m.Population,
		Status:         model.CoverageInexistente,
		Justification:  NoCoverageData,
	}
}

// Assess scores a single municipality.
func Assess(m model.Municipality, ind *model.CoverageIndicator, p Parameters) Assessment {
	b := ScoreBreakdown(m, ind, p)
	a := Assessment{
		Municipality:  m,
		HasData:       ind != nil,
		Score:         b.Score,
		Level:         LevelForScore(b.Score),
		Breakdown:     b,
		Justification: BuildJustification(m, ind, p),
		IsGap:         IsTerritorialGap(m, b.Score, p),
	}
	if ind != nil {
		a.Indicator = *ind
	} else {
		a.Indicator = NoDataIndicator(m)
		a.Indicator.IsGap = a.IsGap
	}
	return a
}

// IdentifyTerritorialGaps splits municipalities into gaps and adequate ones.
// Every input municipality appears in exactly one of the two lists. Gaps are
// ordered by score descending; equal scores keep input order.
func IdentifyTerritorialGaps(ms []model.Municipality, inds []model.CoverageIndicator, p Parameters) (gaps, adequate []Assessment) {
	byID := make(map[string]*model.CoverageIndicator, len(inds))
	for i := range inds {
		byID[inds[i].MunicipalityID] = &inds[i]
	}

	for _, m := range ms {
		a := Assess(m, byID[m.ID], p)
		if a.IsGap {
			gaps = append(gaps, a)
		} else {
			adequate = append(adequate, a)
		}
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].Score > gaps[j].Score
	})
	return gaps, adequate
}
