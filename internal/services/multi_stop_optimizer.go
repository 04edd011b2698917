package services

import (
	"context"
	"errors"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/geo"
	"fleet-route-service/internal/platform/logger"
	"fleet-route-service/internal/platform/obs"
	"fleet-route-service/internal/ports"
	"fmt"
	"math"
	"time"
)

// MultiStopOptimizer sequences a driver's drops by delegating the ordering
// to a directions provider and mapping the answer back onto orders.
//
// Optimization is best-effort: provider failures produce a plan in the
// original input order instead of an error.
type MultiStopOptimizer struct {
	provider ports.DirectionsProvider
	timeout  time.Duration
	log      logger.ILogger
}

func NewMultiStopOptimizer(provider ports.DirectionsProvider, timeout time.Duration, log logger.ILogger) *MultiStopOptimizer {
	if log == nil {
		log = logger.Nop()
	}
	return &MultiStopOptimizer{provider: provider, timeout: timeout, log: log}
}

// Optimize orders the drops of orders for a round trip from start.
// Only invalid input is returned as an error.
func (o *MultiStopOptimizer) Optimize(
	ctx context.Context,
	start domain.GeoPoint,
	orders []*domain.Order,
) (_ *domain.OptimizedRoutePlan, err error) {
	defer obs.Time(ctx, "optimizer.Optimize")(&err)

	if err := start.Validate("start"); err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}
	for i, ord := range orders {
		if ord == nil {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("orders[%d]", i), Reason: "order is nil"}
		}
		if err := ord.Drop.Point.Validate(fmt.Sprintf("orders[%d].drop", i)); err != nil {
			return nil, fmt.Errorf("optimize route: %w", err)
		}
	}

	plan := &domain.OptimizedRoutePlan{
		Start:     start,
		Stops:     []domain.RouteStop{},
		Optimized: true,
	}

	switch len(orders) {
	case 0:
		return plan, nil
	case 1:
		plan.Stops = append(plan.Stops, newStop(orders[0], 1, 1))
		plan.TotalDistanceKm = orders[0].PlannedDistanceKm
		return plan, nil
	}

	waypoints := make([]domain.GeoPoint, 0, len(orders))
	for _, ord := range orders {
		waypoints = append(waypoints, ord.Drop.Point)
	}

	req := ports.RouteRequest{
		Origin:      start,
		Destination: start,
		Waypoints:   waypoints,
		Optimize:    true,
	}

	callCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	res, perr := o.provider.Route(callCtx, req)
	var order []int
	if perr == nil {
		order, perr = permutation(res.WaypointOrder, len(orders))
	}
	if perr != nil {
		o.log.Warning("route optimization unavailable, keeping original order",
			logger.Int("orders", len(orders)),
			logger.Error(perr),
		)
		return fallbackPlan(plan, orders, perr), nil
	}

	for pos, idx := range order {
		plan.Stops = append(plan.Stops, newStop(orders[idx], pos+1, idx+1))
	}

	meters, seconds := 0, 0
	for _, leg := range res.Legs {
		meters += leg.DistanceMeters
		seconds += leg.DurationSeconds
	}
	plan.TotalDistanceKm = float64(meters) / 1000
	plan.TotalDurationMinutes = int(math.Round(float64(seconds) / 60))

	baseline := 0.0
	for _, ord := range orders {
		baseline += baselineKm(ord)
	}
	plan.Savings = savingsAgainst(baseline, plan.TotalDistanceKm)

	return plan, nil
}

func newStop(ord *domain.Order, sequence, original int) domain.RouteStop {
	cp := *ord
	seq := sequence
	cp.Sequence = &seq
	return domain.RouteStop{Order: cp, Sequence: sequence, OriginalSequence: original}
}

// fallbackPlan keeps the input order, reports no duration and attaches cause.
func fallbackPlan(plan *domain.OptimizedRoutePlan, orders []*domain.Order, cause error) *domain.OptimizedRoutePlan {
	var pe *domain.ProviderError
	if !errors.As(cause, &pe) {
		cause = &domain.ProviderError{Provider: "directions", Op: "optimize waypoints", Err: cause}
	}

	plan.Stops = plan.Stops[:0]
	plan.TotalDistanceKm = 0
	for i, ord := range orders {
		plan.Stops = append(plan.Stops, newStop(ord, i+1, i+1))
		plan.TotalDistanceKm += baselineKm(ord)
	}
	plan.TotalDurationMinutes = 0
	plan.Savings = domain.Savings{}
	plan.Optimized = false
	plan.ProviderErr = cause
	return plan
}

// baselineKm is an order's planned distance, or its straight-line pickup to
// drop distance when no plan was recorded.
func baselineKm(ord *domain.Order) float64 {
	if ord.PlannedDistanceKm > 0 {
		return ord.PlannedDistanceKm
	}
	return geo.DistanceKm(ord.Pickup.Point, ord.Drop.Point)
}

func savingsAgainst(baselineKm, optimizedKm float64) domain.Savings {
	saved := baselineKm - optimizedKm
	pct := 0.0
	if baselineKm > 0 {
		pct = saved / baselineKm * 100
	}
	return domain.Savings{
		DistanceSavedKm:  saved,
		PercentSaved:     pct,
		TimeSavedMinutes: int(math.Round(saved * 2)),
	}
}

// permutation checks that order is a permutation of [0, n).
// An empty order means the provider kept the input order.
func permutation(order []int, n int) ([]int, error) {
	if len(order) == 0 {
		identity := make([]int, n)
		for i := range identity {
			identity[i] = i
		}
		return identity, nil
	}
	if len(order) != n {
		return nil, fmt.Errorf("waypoint order has %d entries, want %d", len(order), n)
	}

	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return nil, fmt.Errorf("waypoint order %v is not a permutation", order)
		}
		seen[idx] = true
	}
	return order, nil
}
