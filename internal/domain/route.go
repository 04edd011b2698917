package domain

import "time"

// Savings compares a proposed plan with the baseline it replaces.
// TimeSavedMinutes is a rough estimate, not a guarantee.
type Savings struct {
	DistanceSavedKm  float64
	PercentSaved     float64
	TimeSavedMinutes int
}

// RouteMatchCandidate is a pending order that can be bundled into an active trip.
// It is transient and never stored.
type RouteMatchCandidate struct {
	Order          Order
	PickupDetourKm float64
	DropDetourKm   float64
	IsReturnTrip   bool
	TotalDetourKm  float64
	Savings        Savings
}

// Represents a single stop in an optimized multi-stop route.
// OriginalSequence keeps the 1-based input position for audit.
type RouteStop struct {
	Order            Order
	Sequence         int
	OriginalSequence int
}

// Represents the visiting order computed for one driver's queue.
//
// When the directions provider fails the plan keeps the input order,
// Optimized is false and ProviderErr carries the cause.
type OptimizedRoutePlan struct {
	Start                GeoPoint
	Stops                []RouteStop
	TotalDistanceKm      float64
	TotalDurationMinutes int
	Savings              Savings
	Optimized            bool
	ProviderErr          error
}

// ETA is a traffic-aware arrival estimate for an in-progress delivery.
type ETA struct {
	OrderID  string
	From     GeoPoint
	To       GeoPoint
	Duration time.Duration
}
