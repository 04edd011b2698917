package dto

import (
	"fleet-route-service/internal/domain"
	"time"
)

type PointDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p *PointDTO) Domain() *domain.GeoPoint {
	if p == nil {
		return nil
	}
	return &domain.GeoPoint{Lat: p.Lat, Lng: p.Lng}
}

func Point(p domain.GeoPoint) PointDTO {
	return PointDTO{Lat: p.Lat, Lng: p.Lng}
}

type StopDTO struct {
	Address string   `json:"address,omitempty"`
	Point   PointDTO `json:"point"`
}

// CreateOrderRequest needs an address or a point for each stop.
type CreateOrderRequest struct {
	PickupAddress string    `json:"pickup_address"`
	Pickup        *PointDTO `json:"pickup"`
	DropAddress   string    `json:"drop_address"`
	Drop          *PointDTO `json:"drop"`
	VehicleType   string    `json:"vehicle_type"`
	DriverID      *string   `json:"driver_id"`
}

type AcceptOrderRequest struct {
	DriverID string `json:"driver_id"`
}

// TimestampRequest is used by start and complete. A missing time means now.
type TimestampRequest struct {
	At *time.Time `json:"at"`
}

type RecordFixRequest struct {
	DriverID   string     `json:"driver_id"`
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	RecordedAt *time.Time `json:"recorded_at"`
}

type FixResponse struct {
	ID         string    `json:"id"`
	DriverID   string    `json:"driver_id"`
	OrderID    *string   `json:"order_id"`
	Location   PointDTO  `json:"location"`
	RecordedAt time.Time `json:"recorded_at"`
}

type OrderResponse struct {
	ID                 string     `json:"id"`
	Pickup             StopDTO    `json:"pickup"`
	Drop               StopDTO    `json:"drop"`
	DriverID           *string    `json:"driver_id"`
	VehicleType        string     `json:"vehicle_type"`
	Status             string     `json:"status"`
	PlannedDistanceKm  float64    `json:"planned_distance_km"`
	ActualDistanceKm   *float64   `json:"actual_distance_km"`
	FuelConsumedLiters *float64   `json:"fuel_consumed_liters"`
	TravelTimeMinutes  *int       `json:"travel_time_minutes"`
	Sequence           *int       `json:"sequence"`
	IsFlagged          bool       `json:"is_flagged"`
	FlagReason         *string    `json:"flag_reason"`
	CreatedAt          time.Time  `json:"created_at"`
	StartedAt          *time.Time `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at"`
}

// SettledOrderResponse is returned when a delivery completes. FuelCost is
// nil until fuel has been settled.
type SettledOrderResponse struct {
	OrderResponse
	FuelCost *float64 `json:"fuel_cost"`
}

func SettledOrder(o *domain.Order, price func(liters float64) float64) SettledOrderResponse {
	res := SettledOrderResponse{OrderResponse: Order(o)}
	if o.FuelConsumedLiters != nil {
		cost := price(*o.FuelConsumedLiters)
		res.FuelCost = &cost
	}
	return res
}

type ListOrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
}

func Order(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:                 o.ID,
		Pickup:             StopDTO{Address: o.Pickup.Address, Point: Point(o.Pickup.Point)},
		Drop:               StopDTO{Address: o.Drop.Address, Point: Point(o.Drop.Point)},
		DriverID:           o.DriverID,
		VehicleType:        string(o.VehicleType),
		Status:             string(o.Status),
		PlannedDistanceKm:  o.PlannedDistanceKm,
		ActualDistanceKm:   o.ActualDistanceKm,
		FuelConsumedLiters: o.FuelConsumedLiters,
		TravelTimeMinutes:  o.TravelTimeMinutes,
		Sequence:           o.Sequence,
		IsFlagged:          o.IsFlagged,
		FlagReason:         o.FlagReason,
		CreatedAt:          o.CreatedAt,
		StartedAt:          o.StartedAt,
		CompletedAt:        o.CompletedAt,
	}
}

func Orders(orders []*domain.Order) ListOrdersResponse {
	res := ListOrdersResponse{Orders: make([]OrderResponse, 0, len(orders))}
	for _, o := range orders {
		res.Orders = append(res.Orders, Order(o))
	}
	return res
}

type MetricsResponse struct {
	OrderID            string  `json:"order_id"`
	FixCount           int     `json:"fix_count"`
	ActualDistanceKm   float64 `json:"actual_distance_km"`
	FuelConsumedLiters float64 `json:"fuel_consumed_liters"`
	FuelCost           float64 `json:"fuel_cost"`
	IdleMinutes        int     `json:"idle_minutes"`
	IsFlagged          bool    `json:"is_flagged"`
	FlagReason         *string `json:"flag_reason"`
	InsufficientData   bool    `json:"insufficient_data"`
	Note               *string `json:"note,omitempty"`
}

func Metrics(m domain.TraceMetrics) MetricsResponse {
	return MetricsResponse{
		OrderID:            m.OrderID,
		FixCount:           m.FixCount,
		ActualDistanceKm:   m.ActualDistanceKm,
		FuelConsumedLiters: m.FuelConsumedLiters,
		FuelCost:           m.FuelCost,
		IdleMinutes:        m.IdleMinutes,
		IsFlagged:          m.Deviation.IsFlagged,
		FlagReason:         m.Deviation.Reason,
		InsufficientData:   m.InsufficientData,
		Note:               errNote(m.Err()),
	}
}

func errNote(err error) *string {
	if err == nil {
		return nil
	}
	s := err.Error()
	return &s
}

type ETAResponse struct {
	OrderID         string   `json:"order_id"`
	From            PointDTO `json:"from"`
	To              PointDTO `json:"to"`
	DurationSeconds int      `json:"duration_seconds"`
	DurationMinutes int      `json:"duration_minutes"`
}

func ETA(e domain.ETA) ETAResponse {
	return ETAResponse{
		OrderID:         e.OrderID,
		From:            Point(e.From),
		To:              Point(e.To),
		DurationSeconds: int(e.Duration.Seconds()),
		DurationMinutes: int(e.Duration.Round(time.Minute).Minutes()),
	}
}
