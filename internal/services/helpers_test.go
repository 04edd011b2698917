package services

import (
	"fleet-route-service/internal/domain"
	"time"
)

var t0 = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

func pt(lat, lng float64) domain.GeoPoint {
	return domain.GeoPoint{Lat: lat, Lng: lng}
}

func fixAt(lat, lng float64, offset time.Duration) domain.GpsFix {
	return domain.GpsFix{DriverID: "drv-1", Location: pt(lat, lng), RecordedAt: t0.Add(offset)}
}

func testOrder(id string, pickup, drop domain.GeoPoint, plannedKm float64) *domain.Order {
	return &domain.Order{
		ID:                id,
		Pickup:            domain.Stop{Point: pickup},
		Drop:              domain.Stop{Point: drop},
		VehicleType:       domain.VehicleCar,
		Status:            domain.StatusPending,
		PlannedDistanceKm: plannedKm,
		CreatedAt:         t0,
	}
}

func delivered(id string, plannedKm float64, actualKm *float64) *domain.Order {
	o := testOrder(id, pt(0, 0), pt(0, 0.1), plannedKm)
	o.Status = domain.StatusDelivered
	o.ActualDistanceKm = actualKm
	return o
}

func ptr[T any](v T) *T { return &v }

func approx(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
