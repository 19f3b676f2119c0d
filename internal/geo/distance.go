// Package geo provides the distance math and GeoJSON encoding used to place
// municipalities and charging stations on a map.
package geo

import "math"

const earthRadiusKM = 6371.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// HaversineKM returns the great-circle distance between two coordinates.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Nearest returns the index of the point in pts closest to origin and its
// distance in km. Points for which keep returns false are skipped; a nil keep
// considers all points. ok is false when no point qualifies.
func Nearest(origin Point, pts []Point, keep func(i int) bool) (idx int, km float64, ok bool) {
	idx = -1
	for i, p := range pts {
		if keep != nil && !keep(i) {
			continue
		}
		d := HaversineKM(origin.Lat, origin.Lon, p.Lat, p.Lon)
		if idx < 0 || d < km {
			idx, km = i, d
		}
	}
	return idx, km, idx >= 0
}

// RoundKM rounds a distance to 0.1 km.
func RoundKM(km float64) float64 {
	return math.Round(km*10) / 10
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
