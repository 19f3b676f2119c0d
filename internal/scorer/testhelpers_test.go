package scorer

import "github.com/infrabrasil/vazios/internal/model"

func ptrFloat64(v float64) *float64 { return &v }

func muni(id string, pop int64) model.Municipality {
	return model.Municipality{ID: id, Name: "Municipio " + id, State: "SP", Region: model.RegionSudeste, Population: pop}
}

func indicator(id string, count int, ratio, dist *float64) *model.CoverageIndicator {
	return &model.CoverageIndicator{
		MunicipalityID:    id,
		ChargingPoints:    count,
		RatioPer100k:      ratio,
		NearestDistanceKM: dist,
	}
}
