package scorer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/infrabrasil/vazios/internal/model"
)

// NoCoverageData is the justification used for municipalities without an
// indicator row.
const NoCoverageData = "No coverage data"

// BuildJustification explains a score in plain language. Clauses appear in a
// fixed order and only when triggered; an empty string means nothing notable.
func BuildJustification(m model.Municipality, ind *model.CoverageIndicator, p Parameters) string {
	if ind == nil {
		return NoCoverageData
	}

	var clauses []string

	switch {
	case ind.ChargingPoints == 0:
		clauses = append(clauses, "No charging points registered")
	case ind.ChargingPoints < p.MinChargingPoints:
		clauses = append(clauses, fmt.Sprintf("Only %d charging point(s)", ind.ChargingPoints))
	}

	if m.Population >= p.MinRelevantPopulation {
		clauses = append(clauses, fmt.Sprintf("Population of %d inhabitants", m.Population))
	}

	if d := ind.NearestDistanceKM; d != nil && *d > p.MaxReasonableDistanceKM {
		clauses = append(clauses, fmt.Sprintf("Distance of %skm to nearest charging point",
			strconv.FormatFloat(*d, 'f', -1, 64)))
	}

	return strings.Join(clauses, "; ")
}
