package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestOrderLifecycle(t *testing.T) {
	// build test data
	order := &Order{ID: "o-1", Status: StatusPending, PlannedDistanceKm: 10}
	startedAt := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	completedAt := startedAt.Add(42 * time.Minute)

	if err := order.Assign("d-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != StatusAssigned || !order.AssignedTo("d-1") {
		t.Fatalf("order not assigned to d-1: status=%s driver=%v", order.Status, order.DriverID)
	}

	if err := order.Start(startedAt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := order.Start(startedAt.Add(time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !order.StartedAt.Equal(startedAt) {
		t.Errorf("StartedAt = %v, want first start %v", *order.StartedAt, startedAt)
	}

	reason := "Route deviation: +2.1 km (+21.0%)"
	minutes := 42
	err := order.Settle(Settlement{
		ActualDistanceKm:   12.1,
		FuelConsumedLiters: 12.1 / 15,
		TravelTimeMinutes:  &minutes,
		Deviation:          Deviation{IsFlagged: true, Reason: &reason},
		CompletedAt:        completedAt,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// verify behavior
	if order.Status != StatusDelivered {
		t.Errorf("status = %s, want delivered", order.Status)
	}
	if !order.IsFlagged || order.FlagReason == nil || *order.FlagReason != reason {
		t.Errorf("flag = %v reason = %v", order.IsFlagged, order.FlagReason)
	}
	if order.TravelTimeMinutes == nil || *order.TravelTimeMinutes != 42 {
		t.Errorf("travel time = %v, want 42", order.TravelTimeMinutes)
	}

	if err := order.Settle(Settlement{CompletedAt: completedAt}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second settle err = %v, want ErrInvalidTransition", err)
	}
}

func TestOrderAssignReservedForAnotherDriver(t *testing.T) {
	other := "d-2"
	order := &Order{ID: "o-1", Status: StatusPending, DriverID: &other}

	if err := order.Assign("d-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if order.Status != StatusPending {
		t.Fatalf("status changed to %s on failed assign", order.Status)
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	if !StatusPending.CanTransition(StatusAssigned) {
		t.Errorf("pending -> assigned should be allowed")
	}
	if StatusPending.CanTransition(StatusDelivered) {
		t.Errorf("pending -> delivered should be rejected")
	}
	if StatusDelivered.CanTransition(StatusPending) {
		t.Errorf("delivered is terminal")
	}
}

func TestGeoPointValidate(t *testing.T) {
	if err := (GeoPoint{Lat: 45, Lng: -120}).Validate("p"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []GeoPoint{
		{Lat: math.NaN(), Lng: 0},
		{Lat: 0, Lng: math.Inf(1)},
		{Lat: 91, Lng: 0},
		{Lat: 0, Lng: -181},
	}
	for _, p := range bad {
		err := p.Validate("p")
		if !IsValidation(err) {
			t.Errorf("Validate(%v) = %v, want ValidationError", p, err)
		}
	}
}

func TestTraceMetricsErr(t *testing.T) {
	if err := (TraceMetrics{FixCount: 1, InsufficientData: true}).Err(); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("single-fix metrics: Err() = %v, want ErrInsufficientData", err)
	}
	if err := (TraceMetrics{FixCount: 2}).Err(); err != nil {
		t.Fatalf("two-fix metrics: Err() = %v, want nil", err)
	}
}
