package api

import (
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/infrabrasil/vazios/internal/scorer"
)

// Query parameters that override the configured scoring thresholds.
const (
	paramMinPopulation = "min_population"
	paramMinPoints     = "min_points"
	paramMaxDistance   = "max_distance_km"
	paramIdealRatio    = "ideal_ratio"
	paramGapThreshold  = "gap_threshold"
)

// scoringOverrides applies any scoring query parameters on top of base and
// validates the result.
func scoringOverrides(q url.Values, base scorer.Parameters) (scorer.Parameters, error) {
	p := base

	if v := q.Get(paramMinPopulation); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return p, eris.Errorf("api: invalid %s %q", paramMinPopulation, v)
		}
		p.MinRelevantPopulation = n
	}
	if v := q.Get(paramMinPoints); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, eris.Errorf("api: invalid %s %q", paramMinPoints, v)
		}
		p.MinChargingPoints = n
	}
	if v := q.Get(paramMaxDistance); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, eris.Errorf("api: invalid %s %q", paramMaxDistance, v)
		}
		p.MaxReasonableDistanceKM = f
	}
	if v := q.Get(paramIdealRatio); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, eris.Errorf("api: invalid %s %q", paramIdealRatio, v)
		}
		p.IdealRatioPer100k = f
	}
	if v := q.Get(paramGapThreshold); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, eris.Errorf("api: invalid %s %q", paramGapThreshold, v)
		}
		p.GapScoreThreshold = n
	}

	if err := scorer.ValidateParameters(p); err != nil {
		return p, err
	}
	return p, nil
}

// intParam parses a non-negative integer query parameter, returning def when
// absent.
func intParam(q url.Values, key string, def int) (int, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, eris.Errorf("api: invalid %s %q", key, v)
	}
	return n, nil
}
