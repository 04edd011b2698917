package ports

import (
	"context"
	"fleet-route-service/internal/domain"
	"time"
)

// RouteRequest asks for a route from Origin through Waypoints to Destination.
// With Optimize set the provider may reorder the waypoints.
type RouteRequest struct {
	Origin      domain.GeoPoint
	Destination domain.GeoPoint
	Waypoints   []domain.GeoPoint
	Optimize    bool
}

// Distance and travel duration of one leg of a route.
type Leg struct {
	DistanceMeters  int
	DurationSeconds int
}

// RouteResult is the provider's answer. WaypointOrder is a permutation of the
// request's waypoint indexes; it may be empty when no reordering was requested.
type RouteResult struct {
	WaypointOrder []int
	Legs          []Leg
}

// Contract for retrieving driving routes between locations.
type DirectionsProvider interface {
	Route(ctx context.Context, req RouteRequest) (RouteResult, error)
	// Return the live-traffic driving duration between two points.
	TrafficDuration(ctx context.Context, origin, destination domain.GeoPoint) (time.Duration, error)
}

// RouteCache stores provider results for identical route requests.
type RouteCache interface {
	Get(ctx context.Context, req RouteRequest) (RouteResult, bool, error)
	Put(ctx context.Context, req RouteRequest, res RouteResult) error
}
