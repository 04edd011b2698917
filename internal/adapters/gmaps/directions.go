package gmaps

import (
	"context"
	"errors"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/obs"
	"fleet-route-service/internal/ports"
	"fmt"
	"net/http"
	"time"

	"googlemaps.github.io/maps"
)

const providerName = "google"

// DirectionsProvider implements ports.DirectionsProvider with the Google
// Directions API. It is safe for concurrent use.
type DirectionsProvider struct {
	client *maps.Client
}

func NewDirectionsProvider(client *maps.Client) (*DirectionsProvider, error) {
	if client == nil {
		return nil, errors.New("google directions: client is nil")
	}
	return &DirectionsProvider{client: client}, nil
}

// NewClient builds a Maps client with a bounded HTTP timeout.
func NewClient(apiKey string) (*maps.Client, error) {
	if apiKey == "" {
		return nil, errors.New("google maps api key is empty")
	}
	client, err := maps.NewClient(
		maps.WithAPIKey(apiKey),
		maps.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
	)
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return client, nil
}

func latLng(p domain.GeoPoint) string {
	return p.String()
}

// Route requests a driving route. With Optimize set Google reorders the
// waypoints and reports the permutation in WaypointOrder.
func (g *DirectionsProvider) Route(ctx context.Context, req ports.RouteRequest) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, "google.Route")(&err)

	dr := &maps.DirectionsRequest{
		Origin:      latLng(req.Origin),
		Destination: latLng(req.Destination),
		Mode:        maps.TravelModeDriving,
		Optimize:    req.Optimize && len(req.Waypoints) > 1,
	}
	for _, w := range req.Waypoints {
		dr.Waypoints = append(dr.Waypoints, latLng(w))
	}

	routes, err := withRetry(ctx, func() ([]maps.Route, error) {
		routes, _, err := g.client.Directions(ctx, dr)
		return routes, err
	})
	if err != nil {
		return ports.RouteResult{}, &domain.ProviderError{Provider: providerName, Op: "directions", Err: err}
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return ports.RouteResult{}, &domain.ProviderError{Provider: providerName, Op: "directions", Err: errors.New("no route found")}
	}

	route := routes[0]
	res := ports.RouteResult{
		WaypointOrder: append([]int(nil), route.WaypointOrder...),
		Legs:          make([]ports.Leg, 0, len(route.Legs)),
	}
	for _, leg := range route.Legs {
		res.Legs = append(res.Legs, ports.Leg{
			DistanceMeters:  leg.Distance.Meters,
			DurationSeconds: int(leg.Duration.Seconds()),
		})
	}
	return res, nil
}

// TrafficDuration asks for a departure-now route and prefers the live-traffic
// duration, falling back to the typical duration when Google omits it.
func (g *DirectionsProvider) TrafficDuration(ctx context.Context, origin, destination domain.GeoPoint) (_ time.Duration, err error) {
	defer obs.Time(ctx, "google.TrafficDuration")(&err)

	dr := &maps.DirectionsRequest{
		Origin:        latLng(origin),
		Destination:   latLng(destination),
		Mode:          maps.TravelModeDriving,
		DepartureTime: "now",
		TrafficModel:  maps.TrafficModelBestGuess,
	}

	routes, err := withRetry(ctx, func() ([]maps.Route, error) {
		routes, _, err := g.client.Directions(ctx, dr)
		return routes, err
	})
	if err != nil {
		return 0, &domain.ProviderError{Provider: providerName, Op: "traffic duration", Err: err}
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, &domain.ProviderError{Provider: providerName, Op: "traffic duration", Err: errors.New("no route found")}
	}

	leg := routes[0].Legs[0]
	if leg.DurationInTraffic > 0 {
		return leg.DurationInTraffic, nil
	}
	return leg.Duration, nil
}
