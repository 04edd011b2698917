package services

import (
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/geo"
	"fmt"
	"math"
	"time"
)

// DeviationConfig holds the policy thresholds used to judge a delivery trace.
type DeviationConfig struct {
	// Kilometres per litre by vehicle class.
	EfficiencyKmPerLiter map[domain.VehicleType]float64
	// Rate for vehicle types missing from the table.
	DefaultKmPerLiter float64
	// Fraction of planned distance a delivery may exceed before it is flagged.
	MarginFraction float64
	// Consecutive fixes closer than this count as motionless.
	IdleDistanceMeters float64
	// Minimum motionless gap that counts as idling.
	IdleMinutes float64
}

func DefaultDeviationConfig() DeviationConfig {
	return DeviationConfig{
		EfficiencyKmPerLiter: map[domain.VehicleType]float64{
			domain.VehicleBike:  40,
			domain.VehicleCar:   15,
			domain.VehicleVan:   10,
			domain.VehicleTruck: 6,
		},
		DefaultKmPerLiter:  15,
		MarginFraction:     0.20,
		IdleDistanceMeters: 50,
		IdleMinutes:        5,
	}
}

// DeviationMonitor turns raw GPS traces into distance, fuel and idle metrics
// and decides whether a delivery strayed too far from its plan.
//
// It holds no mutable state and is safe for concurrent use.
type DeviationMonitor struct {
	cfg DeviationConfig
}

func NewDeviationMonitor(cfg DeviationConfig) *DeviationMonitor {
	return &DeviationMonitor{cfg: cfg}
}

// ActualDistance sums the great-circle distance between consecutive fixes.
// Fewer than two fixes yield 0.
func (m *DeviationMonitor) ActualDistance(fixes []domain.GpsFix) (float64, error) {
	if err := validateTrace(fixes); err != nil {
		return 0, fmt.Errorf("actual distance: %w", err)
	}

	total := 0.0
	for i := 1; i < len(fixes); i++ {
		total += geo.DistanceKm(fixes[i-1].Location, fixes[i].Location)
	}
	return total, nil
}

// KmPerLiter returns the efficiency rate for a vehicle type.
func (m *DeviationMonitor) KmPerLiter(vt domain.VehicleType) float64 {
	if rate, ok := m.cfg.EfficiencyKmPerLiter[vt]; ok && rate > 0 {
		return rate
	}
	return m.cfg.DefaultKmPerLiter
}

// FuelConsumed estimates litres burned over distanceKm.
func (m *DeviationMonitor) FuelConsumed(distanceKm float64, vt domain.VehicleType) (float64, error) {
	if err := validateDistance("distance_km", distanceKm); err != nil {
		return 0, fmt.Errorf("fuel consumed: %w", err)
	}
	return distanceKm / m.KmPerLiter(vt), nil
}

// ClassifyDeviation applies the configured margin.
func (m *DeviationMonitor) ClassifyDeviation(plannedKm, actualKm float64) (domain.Deviation, error) {
	return ClassifyDeviation(plannedKm, actualKm, m.cfg.MarginFraction)
}

// ClassifyDeviation flags a delivery whose actual distance exceeds the planned
// distance by more than marginFraction.
func ClassifyDeviation(plannedKm, actualKm, marginFraction float64) (domain.Deviation, error) {
	if err := validateDistance("planned_km", plannedKm); err != nil {
		return domain.Deviation{}, fmt.Errorf("classify deviation: %w", err)
	}
	if err := validateDistance("actual_km", actualKm); err != nil {
		return domain.Deviation{}, fmt.Errorf("classify deviation: %w", err)
	}
	if err := validateDistance("margin_fraction", marginFraction); err != nil {
		return domain.Deviation{}, fmt.Errorf("classify deviation: %w", err)
	}

	if plannedKm == 0 {
		if actualKm == 0 {
			return domain.Deviation{}, nil
		}
		reason := fmt.Sprintf("Route deviation: +%.1f km (no planned baseline)", actualKm)
		return domain.Deviation{IsFlagged: true, Reason: &reason}, nil
	}

	if actualKm <= plannedKm*(1+marginFraction) {
		return domain.Deviation{}, nil
	}

	diff := actualKm - plannedKm
	pct := diff / plannedKm * 100
	reason := fmt.Sprintf("Route deviation: +%.1f km (+%.1f%%)", diff, pct)
	return domain.Deviation{IsFlagged: true, Reason: &reason}, nil
}

// IdleMinutes uses the configured idle thresholds.
func (m *DeviationMonitor) IdleMinutes(fixes []domain.GpsFix) (int, error) {
	return IdleMinutes(fixes, m.cfg.IdleDistanceMeters, m.cfg.IdleMinutes)
}

// IdleMinutes accumulates the gaps between consecutive fixes that stayed within
// distanceThresholdMeters of each other for at least timeThresholdMinutes.
// Gaps are summed first and rounded once.
func IdleMinutes(fixes []domain.GpsFix, distanceThresholdMeters, timeThresholdMinutes float64) (int, error) {
	if err := validateTrace(fixes); err != nil {
		return 0, fmt.Errorf("idle minutes: %w", err)
	}

	idle := 0.0
	for i := 1; i < len(fixes); i++ {
		meters := geo.DistanceMeters(fixes[i-1].Location, fixes[i].Location)
		gap := fixes[i].RecordedAt.Sub(fixes[i-1].RecordedAt).Minutes()

		if meters < distanceThresholdMeters && gap >= timeThresholdMinutes {
			idle += gap
		}
	}
	return int(math.Round(idle)), nil
}

// Measure computes live metrics for an order's current trace without changing it.
func (m *DeviationMonitor) Measure(order *domain.Order, fixes []domain.GpsFix) (domain.TraceMetrics, error) {
	actual, err := m.ActualDistance(fixes)
	if err != nil {
		return domain.TraceMetrics{}, fmt.Errorf("measure order %s: %w", order.ID, err)
	}

	fuel, err := m.FuelConsumed(actual, order.VehicleType)
	if err != nil {
		return domain.TraceMetrics{}, fmt.Errorf("measure order %s: %w", order.ID, err)
	}

	deviation, err := m.ClassifyDeviation(order.PlannedDistanceKm, actual)
	if err != nil {
		return domain.TraceMetrics{}, fmt.Errorf("measure order %s: %w", order.ID, err)
	}

	idle, err := m.IdleMinutes(fixes)
	if err != nil {
		return domain.TraceMetrics{}, fmt.Errorf("measure order %s: %w", order.ID, err)
	}

	return domain.TraceMetrics{
		OrderID:            order.ID,
		FixCount:           len(fixes),
		ActualDistanceKm:   actual,
		FuelConsumedLiters: fuel,
		IdleMinutes:        idle,
		Deviation:          deviation,
		InsufficientData:   len(fixes) < 2,
	}, nil
}

// Settle computes the final metrics written when an order is delivered at completedAt.
func (m *DeviationMonitor) Settle(order *domain.Order, fixes []domain.GpsFix, completedAt time.Time) (domain.Settlement, error) {
	metrics, err := m.Measure(order, fixes)
	if err != nil {
		return domain.Settlement{}, fmt.Errorf("settle: %w", err)
	}

	var travel *int
	if order.StartedAt != nil {
		if completedAt.Before(*order.StartedAt) {
			return domain.Settlement{}, &domain.ValidationError{
				Field:  "completed_at",
				Reason: "completion precedes start of delivery",
			}
		}
		minutes := int(math.Round(completedAt.Sub(*order.StartedAt).Minutes()))
		travel = &minutes
	}

	return domain.Settlement{
		ActualDistanceKm:   metrics.ActualDistanceKm,
		FuelConsumedLiters: metrics.FuelConsumedLiters,
		TravelTimeMinutes:  travel,
		Deviation:          metrics.Deviation,
		CompletedAt:        completedAt,
	}, nil
}

func validateTrace(fixes []domain.GpsFix) error {
	for i, f := range fixes {
		if err := f.Location.Validate(fmt.Sprintf("fixes[%d].location", i)); err != nil {
			return err
		}
		if i > 0 && f.RecordedAt.Before(fixes[i-1].RecordedAt) {
			return &domain.ValidationError{
				Field:  fmt.Sprintf("fixes[%d].recorded_at", i),
				Reason: "fixes are not in chronological order",
			}
		}
	}
	return nil
}

func validateDistance(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &domain.ValidationError{Field: field, Reason: "must be finite"}
	}
	if v < 0 {
		return &domain.ValidationError{Field: field, Reason: "must not be negative"}
	}
	return nil
}
