package geo

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/infrabrasil/vazios/internal/model"
	"github.com/infrabrasil/vazios/internal/scorer"
)

// AssessmentFeatures converts assessments to GeoJSON point features placed at
// each municipality centroid. Municipalities without coordinates are skipped.
func AssessmentFeatures(as []scorer.Assessment) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(as))}
	for _, a := range as {
		m := a.Municipality
		if !m.HasCoordinates() {
			continue
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       m.ID,
			Geometry: municipalityPoint(m),
			Properties: map[string]any{
				"name":            m.Name,
				"state":           m.State,
				"population":      m.Population,
				"score":           a.Score,
				"level":           string(a.Level),
				"status":          string(a.Indicator.Status),
				"charging_points": a.Indicator.ChargingPoints,
				"is_gap":          a.IsGap,
				"justification":   a.Justification,
			},
		})
	}
	return fc
}

// StationFeatures converts charging stations to GeoJSON point features.
func StationFeatures(stations []model.ChargingStation) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(stations))}
	for _, s := range stations {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       s.ID,
			Geometry: geom.NewPointFlat(geom.XY, []float64{s.Lon, s.Lat}).SetSRID(4326),
			Properties: map[string]any{
				"name":            s.Name,
				"operator":        s.Operator,
				"municipality_id": s.MunicipalityID,
				"power_kw":        s.PowerKW,
				"active":          s.Active,
			},
		})
	}
	return fc
}

// MarshalAssessments encodes assessments as a GeoJSON FeatureCollection.
func MarshalAssessments(as []scorer.Assessment) ([]byte, error) {
	data, err := json.Marshal(AssessmentFeatures(as))
	if err != nil {
		return nil, eris.Wrap(err, "geo: marshal assessments")
	}
	return data, nil
}

// GeoJSON positions are [lon, lat].
func municipalityPoint(m model.Municipality) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{*m.Lon, *m.Lat}).SetSRID(4326)
}
