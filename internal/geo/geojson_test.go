package geo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infrabrasil/vazios/internal/model"
	"github.com/infrabrasil/vazios/internal/scorer"
)

func ptr(v float64) *float64 { return &v }

func TestMarshalAssessments(t *testing.T) {
	withCoords := model.Municipality{ID: "3550308", Name: "São Paulo", State: "SP", Population: 200_000, Lat: ptr(-23.55), Lon: ptr(-46.63)}
	noCoords := model.Municipality{ID: "9999999", Name: "Sem Coordenadas", State: "AM", Population: 80_000}

	p := scorer.DefaultParameters()
	as := []scorer.Assessment{
		scorer.Assess(withCoords, &model.CoverageIndicator{MunicipalityID: withCoords.ID}, p),
		scorer.Assess(noCoords, nil, p),
	}

	data, err := MarshalAssessments(as)
	require.NoError(t, err)

	var decoded struct {
		Type     string `json:"type"`
		Features []struct {
			ID       string `json:"id"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "FeatureCollection", decoded.Type)
	require.Len(t, decoded.Features, 1)
	f := decoded.Features[0]
	assert.Equal(t, "3550308", f.ID)
	assert.Equal(t, "Point", f.Geometry.Type)
	assert.Equal(t, []float64{-46.63, -23.55}, f.Geometry.Coordinates)
	assert.Equal(t, "São Paulo", f.Properties["name"])
	assert.EqualValues(t, 76, f.Properties["score"])
	assert.Equal(t, "critico", f.Properties["level"])
	assert.Equal(t, true, f.Properties["is_gap"])
}

func TestMarshalAssessments_Empty(t *testing.T) {
	data, err := MarshalAssessments(nil)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "FeatureCollection", decoded["type"])
	assert.Empty(t, decoded["features"])
}

func TestStationFeatures(t *testing.T) {
	fc := StationFeatures([]model.ChargingStation{
		{ID: "s1", Name: "Posto Centro", Lat: -23.5, Lon: -46.6, PowerKW: 50, Active: true},
	})
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "s1", fc.Features[0].ID)
	assert.Equal(t, []float64{-46.6, -23.5}, fc.Features[0].Geometry.FlatCoords())
}
