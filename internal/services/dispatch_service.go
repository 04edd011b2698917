package services

import (
	"context"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/logger"
	"fleet-route-service/internal/platform/obs"
	"fleet-route-service/internal/ports"
	"fmt"
	"strings"
)

// DispatchService feeds repository data into the matcher and optimizer and
// persists the resulting sequences.
type DispatchService struct {
	orders    ports.OrderRepository
	positions ports.PositionStore
	optimizer *MultiStopOptimizer
	matcher   *RouteMatcher
	log       logger.ILogger
}

func NewDispatchService(
	orders ports.OrderRepository,
	positions ports.PositionStore,
	optimizer *MultiStopOptimizer,
	matcher *RouteMatcher,
	log logger.ILogger,
) *DispatchService {
	if log == nil {
		log = logger.Nop()
	}
	return &DispatchService{
		orders:    orders,
		positions: positions,
		optimizer: optimizer,
		matcher:   matcher,
		log:       log,
	}
}

// SuggestBundles ranks the driver's other pending orders against an active
// order. limit <= 0 uses the configured default.
func (s *DispatchService) SuggestBundles(ctx context.Context, orderID string, limit int) (_ []domain.RouteMatchCandidate, err error) {
	defer obs.Time(ctx, "dispatch.SuggestBundles")(&err)

	active, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("suggest bundles: %w", err)
	}
	if active.DriverID == nil {
		return []domain.RouteMatchCandidate{}, nil
	}

	pending, err := s.orders.ListByDriver(ctx, *active.DriverID, domain.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("suggest bundles: %w", err)
	}

	if limit <= 0 {
		limit = s.matcher.DefaultLimit()
	}
	candidates, err := s.matcher.FindCandidates(active, pending, limit)
	if err != nil {
		return nil, fmt.Errorf("suggest bundles: %w", err)
	}
	return candidates, nil
}

// OptimizeDriverRoute resequences a driver's open orders and stores the new
// sequence numbers. start defaults to the driver's live position, then to the
// first order's pickup.
func (s *DispatchService) OptimizeDriverRoute(
	ctx context.Context,
	driverID string,
	start *domain.GeoPoint,
) (_ *domain.OptimizedRoutePlan, err error) {
	defer obs.Time(ctx, "dispatch.OptimizeDriverRoute")(&err)

	if strings.TrimSpace(driverID) == "" {
		return nil, &domain.ValidationError{Field: "driver_id", Reason: "must be non-empty"}
	}

	orders, err := s.orders.ListByDriver(ctx, driverID, domain.StatusPending, domain.StatusAssigned)
	if err != nil {
		return nil, fmt.Errorf("optimize driver route: %w", err)
	}

	origin, err := s.resolveStart(ctx, driverID, start, orders)
	if err != nil {
		return nil, fmt.Errorf("optimize driver route: %w", err)
	}

	plan, err := s.optimizer.Optimize(ctx, origin, orders)
	if err != nil {
		return nil, fmt.Errorf("optimize driver route: %w", err)
	}

	if len(plan.Stops) == 0 {
		return plan, nil
	}

	sequences := make(map[string]int, len(plan.Stops))
	for _, stop := range plan.Stops {
		sequences[stop.Order.ID] = stop.Sequence
	}
	if err := s.orders.UpdateSequences(ctx, driverID, sequences); err != nil {
		return nil, fmt.Errorf("optimize driver route: persist sequences: %w", err)
	}

	return plan, nil
}

func (s *DispatchService) resolveStart(
	ctx context.Context,
	driverID string,
	start *domain.GeoPoint,
	orders []*domain.Order,
) (domain.GeoPoint, error) {
	if start != nil {
		return *start, nil
	}

	if s.positions != nil {
		p, err := s.positions.Position(ctx, driverID)
		if err != nil {
			s.log.Warning("position lookup failed", logger.String("driver_id", driverID), logger.Error(err))
		} else if p != nil {
			return *p, nil
		}
	}

	if len(orders) > 0 {
		return orders[0].Pickup.Point, nil
	}
	return domain.GeoPoint{}, nil
}
