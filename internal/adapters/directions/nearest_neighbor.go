package directions

import (
	"context"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/geo"
	"fleet-route-service/internal/ports"
	"math"
	"time"
)

// DefaultSpeedKmh is the assumed average urban driving speed.
const DefaultSpeedKmh = 30.0

// NearestNeighborProvider is an offline DirectionsProvider that measures legs
// as great-circle distances and, when asked to optimize, orders waypoints with
// a greedy nearest-neighbor walk.
//
// It does not attempt global route optimization. The design prioritizes
// determinism and simplicity over optimality; it serves local runs without a
// Google API key.
type NearestNeighborProvider struct {
	SpeedKmh float64
}

func NewNearestNeighborProvider(speedKmh float64) *NearestNeighborProvider {
	if speedKmh <= 0 {
		speedKmh = DefaultSpeedKmh
	}
	return &NearestNeighborProvider{SpeedKmh: speedKmh}
}

func (p *NearestNeighborProvider) Route(ctx context.Context, req ports.RouteRequest) (ports.RouteResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.RouteResult{}, err
	}

	order := make([]int, len(req.Waypoints))
	for i := range order {
		order[i] = i
	}
	if req.Optimize && len(req.Waypoints) > 1 {
		order = nearestNeighborOrder(req.Origin, req.Waypoints)
	}

	legs := make([]ports.Leg, 0, len(order)+1)
	current := req.Origin
	for _, idx := range order {
		legs = append(legs, p.leg(current, req.Waypoints[idx]))
		current = req.Waypoints[idx]
	}
	legs = append(legs, p.leg(current, req.Destination))

	return ports.RouteResult{WaypointOrder: order, Legs: legs}, nil
}

func (p *NearestNeighborProvider) TrafficDuration(ctx context.Context, origin, destination domain.GeoPoint) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	leg := p.leg(origin, destination)
	return time.Duration(leg.DurationSeconds) * time.Second, nil
}

func (p *NearestNeighborProvider) leg(from, to domain.GeoPoint) ports.Leg {
	km := geo.DistanceKm(from, to)
	return ports.Leg{
		DistanceMeters:  int(math.Round(km * 1000)),
		DurationSeconds: int(math.Round(km / p.SpeedKmh * 3600)),
	}
}

// nearestNeighborOrder visits the closest unvisited waypoint at each step.
func nearestNeighborOrder(start domain.GeoPoint, waypoints []domain.GeoPoint) []int {
	remaining := make(map[int]struct{}, len(waypoints))
	for i := range waypoints {
		remaining[i] = struct{}{}
	}

	order := make([]int, 0, len(waypoints))
	current := start

	for len(remaining) > 0 {
		best := -1
		bestKm := math.Inf(1)

		// Select next stop by minimum distance (greedy step.)
		for i := range remaining {
			d := geo.DistanceKm(current, waypoints[i])
			// Tie-breaker ensures deterministic ordering when distances are equal.
			if d < bestKm || (d == bestKm && i < best) {
				bestKm = d
				best = i
			}
		}

		order = append(order, best)
		delete(remaining, best)
		current = waypoints[best]
	}

	return order
}
