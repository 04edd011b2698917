package ports

import (
	"context"
	"fleet-route-service/internal/domain"
)

type GeocodeResult struct {
	Point            domain.GeoPoint
	FormattedAddress string
}

// Contract for converting between addresses and coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (GeocodeResult, error)
	// Reverse never fails: when the provider cannot answer it returns the
	// coordinates formatted as "lat, lng".
	Reverse(ctx context.Context, point domain.GeoPoint) string
}
