package services

import (
	"context"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/obs"
	"fleet-route-service/internal/ports"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Bound on concurrent per-driver repository reads.
const analyticsFanOut = 5

// AnalyticsService loads fleet history and feeds it to the aggregators.
type AnalyticsService struct {
	drivers    ports.DriverRepository
	orders     ports.OrderRepository
	fixes      ports.FixRepository
	aggregator *PerformanceAggregator
	monitor    *DeviationMonitor
	fuelPrice  float64
}

func NewAnalyticsService(
	drivers ports.DriverRepository,
	orders ports.OrderRepository,
	fixes ports.FixRepository,
	monitor *DeviationMonitor,
	fuelPrice float64,
) *AnalyticsService {
	return &AnalyticsService{
		drivers:    drivers,
		orders:     orders,
		fixes:      fixes,
		aggregator: NewPerformanceAggregator(monitor),
		monitor:    monitor,
		fuelPrice:  fuelPrice,
	}
}

// Leaderboard ranks every driver on the roster.
func (s *AnalyticsService) Leaderboard(ctx context.Context) (_ []domain.DriverPerformanceRecord, err error) {
	defer obs.Time(ctx, "analytics.Leaderboard")(&err)

	drivers, err := s.drivers.ListDrivers(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: list drivers: %w", err)
	}

	ids := make([]string, 0, len(drivers))
	for _, d := range drivers {
		ids = append(ids, d.ID)
	}

	var mu sync.Mutex
	ordersByDriver := make(map[string][]*domain.Order, len(ids))
	fixesByOrder := make(map[string][]domain.GpsFix)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(analyticsFanOut)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			delivered, err := s.orders.ListByDriver(gctx, id, domain.StatusDelivered)
			if err != nil {
				return fmt.Errorf("driver %s: list orders: %w", id, err)
			}

			orderIDs := make([]string, 0, len(delivered))
			for _, o := range delivered {
				orderIDs = append(orderIDs, o.ID)
			}

			traces := map[string][]domain.GpsFix{}
			if len(orderIDs) > 0 {
				traces, err = s.fixes.ListByOrders(gctx, orderIDs)
				if err != nil {
					return fmt.Errorf("driver %s: list fixes: %w", id, err)
				}
			}

			mu.Lock()
			defer mu.Unlock()
			ordersByDriver[id] = delivered
			for k, v := range traces {
				fixesByOrder[k] = v
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}

	return s.aggregator.RankDrivers(ids, ordersByDriver, fixesByOrder)
}

// FleetStats summarises every order in the system.
func (s *AnalyticsService) FleetStats(ctx context.Context) (_ domain.FleetStats, err error) {
	defer obs.Time(ctx, "analytics.FleetStats")(&err)

	orders, err := s.orders.List(ctx)
	if err != nil {
		return domain.FleetStats{}, fmt.Errorf("fleet stats: %w", err)
	}
	return ComputeFleetStats(orders, s.fuelPrice), nil
}

// FuelSavings compares fuel for the planned distance with fuel for the actual one.
func (s *AnalyticsService) FuelSavings(plannedKm, actualKm float64, vt domain.VehicleType) (domain.FuelSavings, error) {
	planned, err := s.monitor.FuelConsumed(plannedKm, vt)
	if err != nil {
		return domain.FuelSavings{}, fmt.Errorf("fuel savings: %w", err)
	}
	actual, err := s.monitor.FuelConsumed(actualKm, vt)
	if err != nil {
		return domain.FuelSavings{}, fmt.Errorf("fuel savings: %w", err)
	}

	liters := planned - actual
	return domain.FuelSavings{LitersSaved: liters, CostSaved: liters * s.fuelPrice}, nil
}

// ComputeFleetStats totals orders. Average efficiency only counts orders with
// recorded fuel so unsettled orders do not dilute it.
func ComputeFleetStats(orders []*domain.Order, fuelPrice float64) domain.FleetStats {
	var st domain.FleetStats
	active := map[string]struct{}{}
	fuelledKm := 0.0

	for _, o := range orders {
		if o == nil {
			continue
		}
		st.TotalOrders++
		st.TotalPlannedKm += o.PlannedDistanceKm

		switch o.Status {
		case domain.StatusDelivered:
			st.DeliveredOrders++
		case domain.StatusAssigned:
			if o.DriverID != nil {
				active[*o.DriverID] = struct{}{}
			}
		}
		if o.IsFlagged {
			st.FlaggedOrders++
		}
		if o.ActualDistanceKm != nil {
			st.TotalActualKm += *o.ActualDistanceKm
		}
		if o.FuelConsumedLiters != nil && *o.FuelConsumedLiters > 0 {
			st.TotalFuelLiters += *o.FuelConsumedLiters
			if o.ActualDistanceKm != nil {
				fuelledKm += *o.ActualDistanceKm
			}
		}
	}

	st.ActiveDrivers = len(active)
	if st.TotalFuelLiters > 0 {
		st.AvgKmPerLiter = fuelledKm / st.TotalFuelLiters
	}
	st.TotalFuelCost = st.TotalFuelLiters * fuelPrice
	return st
}
