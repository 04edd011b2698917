package domain

import (
	"fmt"
	"math"
)

// Immutable geographic point in decimal degrees.
type GeoPoint struct {
	Lat float64
	Lng float64
}

// Return the point as "lat,lng" for external API compatibility.
func (p GeoPoint) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// Validate rejects non-finite or out-of-range coordinates.
// field names the offending input in the returned ValidationError.
func (p GeoPoint) Validate(field string) error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return &ValidationError{Field: field, Reason: "coordinates must be finite"}
	}
	if p.Lat < -90 || p.Lat > 90 {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("latitude %v out of range [-90, 90]", p.Lat)}
	}
	if p.Lng < -180 || p.Lng > 180 {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("longitude %v out of range [-180, 180]", p.Lng)}
	}
	return nil
}
