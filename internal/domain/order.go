package domain

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusAssigned  OrderStatus = "assigned"
	StatusDelivered OrderStatus = "delivered"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusDelivered:
		return true
	}
	return false
}

// CanTransition allows only pending -> assigned -> delivered.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	switch s {
	case StatusPending:
		return to == StatusAssigned
	case StatusAssigned:
		return to == StatusDelivered
	}
	return false
}

// VehicleType selects the fuel-efficiency rate of an order.
type VehicleType string

const (
	VehicleBike  VehicleType = "bike"
	VehicleCar   VehicleType = "car"
	VehicleVan   VehicleType = "van"
	VehicleTruck VehicleType = "truck"
)

func (v VehicleType) Valid() bool {
	switch v {
	case VehicleBike, VehicleCar, VehicleVan, VehicleTruck:
		return true
	}
	return false
}

// Stop is one end of an order: a point plus its free-text address.
type Stop struct {
	Point   GeoPoint
	Address string
}

// Represents a single delivery task.
//
// Settlement fields (ActualDistanceKm, FuelConsumedLiters, TravelTimeMinutes,
// IsFlagged, FlagReason, CompletedAt) stay nil until the order is delivered
// and are frozen afterwards.
type Order struct {
	ID                 string
	Pickup             Stop
	Drop               Stop
	DriverID           *string
	VehicleType        VehicleType
	Status             OrderStatus
	PlannedDistanceKm  float64
	ActualDistanceKm   *float64
	FuelConsumedLiters *float64
	TravelTimeMinutes  *int
	Sequence           *int
	IsFlagged          bool
	FlagReason         *string
	CreatedAt          time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
}

// Deviation is the outcome of comparing actual against planned distance.
type Deviation struct {
	IsFlagged bool
	Reason    *string
}

// Settlement carries the final metrics written when an order is delivered.
type Settlement struct {
	ActualDistanceKm   float64
	FuelConsumedLiters float64
	TravelTimeMinutes  *int
	Deviation          Deviation
	CompletedAt        time.Time
}

// AssignedTo reports whether the order belongs to driverID.
func (o *Order) AssignedTo(driverID string) bool {
	return o.DriverID != nil && *o.DriverID == driverID
}

// Assign hands a pending order to a driver.
// An order pre-allocated to another driver cannot be taken.
func (o *Order) Assign(driverID string) error {
	if !o.Status.CanTransition(StatusAssigned) {
		return fmt.Errorf("assign order %s: %s -> %s: %w", o.ID, o.Status, StatusAssigned, ErrInvalidTransition)
	}
	if o.DriverID != nil && *o.DriverID != driverID {
		return fmt.Errorf("assign order %s: reserved for driver %s: %w", o.ID, *o.DriverID, ErrInvalidTransition)
	}

	id := driverID
	o.DriverID = &id
	o.Status = StatusAssigned
	return nil
}

// Start records the first time a delivery got underway. Later calls keep the original time.
func (o *Order) Start(at time.Time) error {
	if o.Status != StatusAssigned {
		return fmt.Errorf("start order %s: status %s: %w", o.ID, o.Status, ErrInvalidTransition)
	}
	if o.StartedAt == nil {
		t := at
		o.StartedAt = &t
	}
	return nil
}

// Settle freezes the delivery metrics and marks the order delivered.
// Flag and reason are always replaced together.
func (o *Order) Settle(s Settlement) error {
	if !o.Status.CanTransition(StatusDelivered) {
		return fmt.Errorf("settle order %s: %s -> %s: %w", o.ID, o.Status, StatusDelivered, ErrInvalidTransition)
	}

	actual := s.ActualDistanceKm
	fuel := s.FuelConsumedLiters
	completed := s.CompletedAt

	o.ActualDistanceKm = &actual
	o.FuelConsumedLiters = &fuel
	o.TravelTimeMinutes = s.TravelTimeMinutes
	o.IsFlagged = s.Deviation.IsFlagged
	o.FlagReason = s.Deviation.Reason
	o.CompletedAt = &completed
	o.Status = StatusDelivered
	return nil
}
