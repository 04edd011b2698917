package gmaps

import (
	"context"
	"errors"
	"fleet-route-service/internal/adapters/cache"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/logger"
	"fleet-route-service/internal/platform/obs"
	"fleet-route-service/internal/ports"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

// Geocoder implements ports.Geocoder with the Google Geocoding API and a
// persistent SQL cache for forward lookups.
type Geocoder struct {
	client *maps.Client
	cache  *cache.SQLGeocodeCache
	log    logger.ILogger
}

// NewGeocoder builds a geocoder. geocodeCache may be nil.
func NewGeocoder(client *maps.Client, geocodeCache *cache.SQLGeocodeCache, log logger.ILogger) (*Geocoder, error) {
	if client == nil {
		return nil, errors.New("google geocoder: client is nil")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Geocoder{client: client, cache: geocodeCache, log: log}, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (g *Geocoder) Geocode(ctx context.Context, address string) (_ ports.GeocodeResult, err error) {
	defer obs.Time(ctx, "google.Geocode")(&err)

	norm := normalize(address)
	if norm == "" {
		return ports.GeocodeResult{}, &domain.ValidationError{Field: "address", Reason: "must be non-empty"}
	}

	// Check persistent geocode cache before issuing external API calls.
	if g.cache != nil {
		hit, ok, err := g.cache.Lookup(ctx, norm)
		if err != nil {
			g.log.Warning("geocode cache read failed", logger.Error(err))
		} else if ok {
			return hit, nil
		}
	}

	results, err := withRetry(ctx, func() ([]maps.GeocodingResult, error) {
		return g.client.Geocode(ctx, &maps.GeocodingRequest{Address: norm})
	})
	if err != nil {
		return ports.GeocodeResult{}, &domain.ProviderError{Provider: providerName, Op: "geocode", Err: err}
	}
	if len(results) == 0 {
		return ports.GeocodeResult{}, &domain.ProviderError{
			Provider: providerName,
			Op:       "geocode",
			Err:      fmt.Errorf("address not found: %q", norm),
		}
	}

	first := results[0]
	res := ports.GeocodeResult{
		Point:            domain.GeoPoint{Lat: first.Geometry.Location.Lat, Lng: first.Geometry.Location.Lng},
		FormattedAddress: first.FormattedAddress,
	}

	if g.cache != nil {
		if err := g.cache.Store(ctx, norm, res); err != nil {
			g.log.Warning("geocode cache write failed", logger.Error(err))
		}
	}
	return res, nil
}

// Reverse returns the formatted address at point, or the coordinates
// themselves when Google cannot resolve them.
func (g *Geocoder) Reverse(ctx context.Context, point domain.GeoPoint) string {
	fallback := fmt.Sprintf("%.4f, %.4f", point.Lat, point.Lng)

	results, err := withRetry(ctx, func() ([]maps.GeocodingResult, error) {
		return g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
			LatLng: &maps.LatLng{Lat: point.Lat, Lng: point.Lng},
		})
	})
	if err != nil {
		g.log.Warning("reverse geocode failed", logger.String("point", point.String()), logger.Error(err))
		return fallback
	}
	if len(results) == 0 || results[0].FormattedAddress == "" {
		return fallback
	}
	return results[0].FormattedAddress
}
