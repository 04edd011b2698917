package domain

import "time"

// GpsFix is one sampled driver position. Fixes are append-only and
// ordered by RecordedAt within an order's trace.
type GpsFix struct {
	ID         string
	DriverID   string
	OrderID    *string
	Location   GeoPoint
	RecordedAt time.Time
}

// TraceMetrics summarises a (possibly still growing) trace for one order.
type TraceMetrics struct {
	OrderID            string
	FixCount           int
	ActualDistanceKm   float64
	FuelConsumedLiters float64
	FuelCost           float64
	IdleMinutes        int
	Deviation          Deviation
	InsufficientData   bool
}

// Err reports why the metrics are not yet meaningful, or nil once the trace
// has at least two fixes.
func (m TraceMetrics) Err() error {
	if m.InsufficientData {
		return ErrInsufficientData
	}
	return nil
}
