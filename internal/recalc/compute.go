// Package recalc derives coverage indicators from the raw municipality and
// charging-station tables and persists them.
package recalc

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/infrabrasil/vazios/internal/geo"
	"github.com/infrabrasil/vazios/internal/model"
	"github.com/infrabrasil/vazios/internal/scorer"
)

const (
	// DefaultAssignRadiusKM is the centroid radius used to attribute stations
	// that arrive without a municipality ID.
	DefaultAssignRadiusKM = 15.0
	// DefaultWorkers bounds concurrent per-municipality computations.
	DefaultWorkers = 4
)

// Options tunes a recalculation.
type Options struct {
	AssignRadiusKM float64
	Workers        int
}

func (o Options) withDefaults() Options {
	if o.AssignRadiusKM <= 0 {
		o.AssignRadiusKM = DefaultAssignRadiusKM
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	return o
}

// Summary counts what a computation saw.
type Summary struct {
	Stations int // active stations considered
	Orphans  int // active stations attributed to no municipality
	Gaps     int
}

// AttributeStations returns the active stations with MunicipalityID resolved.
// A station keeps its ID when it names a known municipality; otherwise it is
// assigned to the nearest municipality centroid within radiusKM. Stations
// that cannot be placed keep an empty MunicipalityID and are counted as
// orphans.
func AttributeStations(ms []model.Municipality, stations []model.ChargingStation, radiusKM float64) (out []model.ChargingStation, orphans int) {
	known := make(map[string]bool, len(ms))
	var centroids []geo.Point
	var centroidIDs []string
	for _, m := range ms {
		known[m.ID] = true
		if m.HasCoordinates() {
			centroids = append(centroids, geo.Point{Lat: *m.Lat, Lon: *m.Lon})
			centroidIDs = append(centroidIDs, m.ID)
		}
	}

	for _, st := range stations {
		if !st.Active {
			continue
		}
		if !known[st.MunicipalityID] {
			st.MunicipalityID = ""
			idx, km, ok := geo.Nearest(geo.Point{Lat: st.Lat, Lon: st.Lon}, centroids, nil)
			if ok && km <= radiusKM {
				st.MunicipalityID = centroidIDs[idx]
			} else {
				orphans++
			}
		}
		out = append(out, st)
	}
	return out, orphans
}

// ComputeIndicators builds one indicator per municipality. Only active
// stations are counted. Distance is measured from the municipality centroid
// to the nearest active station not attributed to it and is left nil when the
// municipality has no coordinates or no such station exists.
func ComputeIndicators(ctx context.Context, ms []model.Municipality, stations []model.ChargingStation, p scorer.Parameters, opts Options, now time.Time) ([]model.CoverageIndicator, Summary, error) {
	opts = opts.withDefaults()

	active, orphans := AttributeStations(ms, stations, opts.AssignRadiusKM)

	pts := make([]geo.Point, len(active))
	for i, st := range active {
		pts[i] = geo.Point{Lat: st.Lat, Lon: st.Lon}
	}

	type tally struct {
		count int
		power float64
	}
	tallies := make(map[string]*tally)
	for _, st := range active {
		if st.MunicipalityID == "" {
			continue
		}
		t, ok := tallies[st.MunicipalityID]
		if !ok {
			t = &tally{}
			tallies[st.MunicipalityID] = t
		}
		t.count++
		t.power += st.PowerKW
	}

	out := make([]model.CoverageIndicator, len(ms))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i, m := range ms {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			ind := model.CoverageIndicator{
				MunicipalityID: m.ID,
				PopulationUsed: m.Population,
				ComputedAt:     now,
			}
			if t, ok := tallies[m.ID]; ok {
				power := t.power
				ind.TotalPowerKW = &power
				ind = ind.WithChargingPoints(t.count, m.Population)
			} else {
				ind = ind.WithChargingPoints(0, m.Population)
			}

			if m.HasCoordinates() {
				origin := geo.Point{Lat: *m.Lat, Lon: *m.Lon}
				_, km, ok := geo.Nearest(origin, pts, func(j int) bool {
					return active[j].MunicipalityID != m.ID
				})
				if ok {
					d := geo.RoundKM(km)
					ind.NearestDistanceKM = &d
				}
			}

			ind.Status = scorer.ClassifyCoverage(m, ind.ChargingPoints, p)
			score := scorer.ComputeCriticalityScore(m, &ind, p)
			ind.IsGap = scorer.IsTerritorialGap(m, score, p)
			ind.Justification = scorer.BuildJustification(m, &ind, p)

			out[i] = ind
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, Summary{}, eris.Wrap(err, "recalc: compute indicators")
	}

	sum := Summary{Stations: len(active), Orphans: orphans}
	for _, ind := range out {
		if ind.IsGap {
			sum.Gaps++
		}
	}
	return out, sum, nil
}
