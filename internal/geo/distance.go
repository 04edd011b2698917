// Package geo holds the single great-circle distance implementation shared
// by every component that measures routes, detours and traces.
package geo

import (
	"fleet-route-service/internal/domain"
	"math"
)

const EarthRadiusKm = 6371.0

const degToRad = math.Pi / 180

// DistanceKm returns the great-circle distance between a and b using the
// Haversine formula.
func DistanceKm(a, b domain.GeoPoint) float64 {
	lat1 := a.Lat * degToRad
	lat2 := b.Lat * degToRad
	dLat := (b.Lat - a.Lat) * degToRad
	dLng := (b.Lng - a.Lng) * degToRad

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

func DistanceMeters(a, b domain.GeoPoint) float64 {
	return DistanceKm(a, b) * 1000
}
