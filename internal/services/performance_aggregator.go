package services

import (
	"cmp"
	"fleet-route-service/internal/domain"
	"fmt"
	"math"
	"slices"
	"strings"
)

// PerformanceAggregator folds delivered orders and their traces into a
// per-driver efficiency ranking.
type PerformanceAggregator struct {
	monitor *DeviationMonitor
}

func NewPerformanceAggregator(monitor *DeviationMonitor) *PerformanceAggregator {
	return &PerformanceAggregator{monitor: monitor}
}

// RankDrivers returns one record per driver, best score first.
// Drivers without deliveries score 0 and always sort last.
func (a *PerformanceAggregator) RankDrivers(
	drivers []string,
	ordersByDriver map[string][]*domain.Order,
	fixesByOrder map[string][]domain.GpsFix,
) ([]domain.DriverPerformanceRecord, error) {
	records := make([]domain.DriverPerformanceRecord, 0, len(drivers))
	seen := make(map[string]struct{}, len(drivers))

	for _, id := range drivers {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		rec, err := a.driverRecord(id, ordersByDriver[id], fixesByOrder)
		if err != nil {
			return nil, fmt.Errorf("rank drivers: %w", err)
		}
		records = append(records, rec)
	}

	slices.SortStableFunc(records, func(x, y domain.DriverPerformanceRecord) int {
		if (x.TotalDeliveries == 0) != (y.TotalDeliveries == 0) {
			if x.TotalDeliveries == 0 {
				return 1
			}
			return -1
		}
		if c := cmp.Compare(y.FuelEfficiencyScore, x.FuelEfficiencyScore); c != 0 {
			return c
		}
		return strings.Compare(x.DriverID, y.DriverID)
	})

	return records, nil
}

func (a *PerformanceAggregator) driverRecord(
	driverID string,
	orders []*domain.Order,
	fixesByOrder map[string][]domain.GpsFix,
) (domain.DriverPerformanceRecord, error) {
	rec := domain.DriverPerformanceRecord{DriverID: driverID}

	for _, o := range orders {
		if o == nil || o.Status != domain.StatusDelivered {
			continue
		}

		rec.TotalDeliveries++
		rec.TotalPlannedDistanceKm += o.PlannedDistanceKm
		if o.ActualDistanceKm != nil {
			rec.TotalActualDistanceKm += *o.ActualDistanceKm
		}

		idle, err := a.monitor.IdleMinutes(fixesByOrder[o.ID])
		if err != nil {
			return rec, fmt.Errorf("driver %s order %s: %w", driverID, o.ID, err)
		}
		rec.TotalIdleMinutes += idle
	}

	if rec.TotalDeliveries == 0 {
		return rec, nil
	}

	rec.AvgFuelEfficiencyPct = 100
	if rec.TotalPlannedDistanceKm > 0 {
		rec.AvgFuelEfficiencyPct = rec.TotalActualDistanceKm / rec.TotalPlannedDistanceKm * 100
	}
	rec.FuelEfficiencyScore = efficiencyScore(rec.AvgFuelEfficiencyPct)

	return rec, nil
}

// efficiencyScore maps actual/planned percent to 0..100. Matching the plan
// scores 100; every point over plan costs one point.
func efficiencyScore(pct float64) float64 {
	return math.Min(100, math.Max(0, 100-(pct-100)))
}
