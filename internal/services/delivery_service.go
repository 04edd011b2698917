package services

import (
	"context"
	"errors"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/logger"
	"fleet-route-service/internal/platform/obs"
	"fleet-route-service/internal/ports"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DeliveryService runs the order lifecycle around the deviation monitor:
// creation, acceptance, GPS ingestion, live metrics and settlement.
type DeliveryService struct {
	orders     ports.OrderRepository
	fixes      ports.FixRepository
	geocoder   ports.Geocoder
	directions ports.DirectionsProvider
	positions  ports.PositionStore
	monitor    *DeviationMonitor
	fuelPrice  float64
	timeout    time.Duration
	now        func() time.Time
	log        logger.ILogger
}

type DeliveryDeps struct {
	Orders     ports.OrderRepository
	Fixes      ports.FixRepository
	Geocoder   ports.Geocoder
	Directions ports.DirectionsProvider
	// Optional. Live positions are skipped when nil.
	Positions         ports.PositionStore
	Monitor           *DeviationMonitor
	FuelPricePerLiter float64
	ProviderTimeout   time.Duration
	Now               func() time.Time
	Log               logger.ILogger
}

func NewDeliveryService(d DeliveryDeps) *DeliveryService {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &DeliveryService{
		orders:     d.Orders,
		fixes:      d.Fixes,
		geocoder:   d.Geocoder,
		directions: d.Directions,
		positions:  d.Positions,
		monitor:    d.Monitor,
		fuelPrice:  d.FuelPricePerLiter,
		timeout:    d.ProviderTimeout,
		now:        d.Now,
		log:        d.Log,
	}
}

// NewOrder describes an order to create. Either the address or the point of
// each stop must be given; missing points are geocoded.
type NewOrder struct {
	PickupAddress string
	Pickup        *domain.GeoPoint
	DropAddress   string
	Drop          *domain.GeoPoint
	VehicleType   domain.VehicleType
	DriverID      *string
}

// CreateOrder resolves both stops and fixes the planned distance from the
// directions provider. There is no fallback: the planned distance is the
// billing baseline.
func (s *DeliveryService) CreateOrder(ctx context.Context, req NewOrder) (_ *domain.Order, err error) {
	defer obs.Time(ctx, "delivery.CreateOrder")(&err)

	vt := domain.VehicleType(strings.ToLower(strings.TrimSpace(string(req.VehicleType))))
	if vt == "" {
		vt = domain.VehicleCar
	}
	if !vt.Valid() {
		return nil, &domain.ValidationError{Field: "vehicle_type", Reason: fmt.Sprintf("unknown vehicle type %q", req.VehicleType)}
	}

	pickup, err := s.resolveStop(ctx, "pickup", req.PickupAddress, req.Pickup)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	drop, err := s.resolveStop(ctx, "drop", req.DropAddress, req.Drop)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	planned, err := s.plannedDistance(ctx, pickup.Point, drop.Point)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	order := &domain.Order{
		ID:                uuid.NewString(),
		Pickup:            pickup,
		Drop:              drop,
		DriverID:          req.DriverID,
		VehicleType:       vt,
		Status:            domain.StatusPending,
		PlannedDistanceKm: planned,
		CreatedAt:         s.now().UTC(),
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

func (s *DeliveryService) resolveStop(ctx context.Context, field, address string, point *domain.GeoPoint) (domain.Stop, error) {
	address = strings.TrimSpace(address)

	if point != nil {
		if err := point.Validate(field); err != nil {
			return domain.Stop{}, err
		}
		if address == "" && s.geocoder != nil {
			address = s.geocoder.Reverse(ctx, *point)
		}
		return domain.Stop{Point: *point, Address: address}, nil
	}

	if address == "" {
		return domain.Stop{}, &domain.ValidationError{Field: field, Reason: "address or coordinates required"}
	}
	if s.geocoder == nil {
		return domain.Stop{}, &domain.ValidationError{Field: field, Reason: "coordinates required when geocoding is disabled"}
	}

	res, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		return domain.Stop{}, fmt.Errorf("geocode %s: %w", field, err)
	}
	if err := res.Point.Validate(field); err != nil {
		return domain.Stop{}, err
	}

	formatted := res.FormattedAddress
	if formatted == "" {
		formatted = address
	}
	return domain.Stop{Point: res.Point, Address: formatted}, nil
}

func (s *DeliveryService) plannedDistance(ctx context.Context, from, to domain.GeoPoint) (float64, error) {
	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.directions.Route(callCtx, ports.RouteRequest{Origin: from, Destination: to})
	if err != nil {
		return 0, fmt.Errorf("planned distance: %w", err)
	}

	meters := 0
	for _, leg := range res.Legs {
		meters += leg.DistanceMeters
	}
	return math.Round(float64(meters)/10) / 100, nil
}

// AcceptOrder assigns a pending order to driverID.
func (s *DeliveryService) AcceptOrder(ctx context.Context, orderID, driverID string) (_ *domain.Order, err error) {
	defer obs.Time(ctx, "delivery.AcceptOrder")(&err)

	if strings.TrimSpace(driverID) == "" {
		return nil, &domain.ValidationError{Field: "driver_id", Reason: "must be non-empty"}
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("accept order: %w", err)
	}
	if err := order.Assign(driverID); err != nil {
		return nil, fmt.Errorf("accept order: %w", err)
	}
	if err := s.orders.Update(ctx, order, domain.StatusPending); err != nil {
		return nil, fmt.Errorf("accept order: %w", err)
	}
	return order, nil
}

// StartDelivery stamps the first start time of an assigned order.
func (s *DeliveryService) StartDelivery(ctx context.Context, orderID string, at time.Time) (*domain.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("start delivery: %w", err)
	}
	if at.IsZero() {
		at = s.now()
	}
	if err := order.Start(at.UTC()); err != nil {
		return nil, fmt.Errorf("start delivery: %w", err)
	}
	if err := s.orders.Update(ctx, order, domain.StatusAssigned); err != nil {
		return nil, fmt.Errorf("start delivery: %w", err)
	}
	return order, nil
}

// RecordFix appends a sampled position. Fixes tied to an order are accepted
// only while that order is assigned to the same driver, and never out of order.
func (s *DeliveryService) RecordFix(ctx context.Context, fix domain.GpsFix) (domain.GpsFix, error) {
	if strings.TrimSpace(fix.DriverID) == "" {
		return fix, &domain.ValidationError{Field: "driver_id", Reason: "must be non-empty"}
	}
	if err := fix.Location.Validate("location"); err != nil {
		return fix, err
	}
	if fix.RecordedAt.IsZero() {
		fix.RecordedAt = s.now()
	}
	fix.RecordedAt = fix.RecordedAt.UTC()
	if fix.ID == "" {
		fix.ID = uuid.NewString()
	}

	if fix.OrderID != nil {
		order, err := s.orders.Get(ctx, *fix.OrderID)
		if err != nil {
			return fix, fmt.Errorf("record fix: %w", err)
		}
		if order.Status != domain.StatusAssigned {
			return fix, fmt.Errorf("record fix: order %s is %s: %w", order.ID, order.Status, domain.ErrInvalidTransition)
		}
		if !order.AssignedTo(fix.DriverID) {
			return fix, &domain.ValidationError{Field: "driver_id", Reason: "order is assigned to another driver"}
		}

		last, err := s.fixes.Last(ctx, order.ID)
		if err != nil {
			return fix, fmt.Errorf("record fix: %w", err)
		}
		if last != nil && fix.RecordedAt.Before(last.RecordedAt) {
			return fix, &domain.ValidationError{Field: "recorded_at", Reason: "fix is older than the last recorded fix"}
		}
	}

	if err := s.fixes.Append(ctx, fix); err != nil {
		return fix, fmt.Errorf("record fix: %w", err)
	}

	if s.positions != nil {
		if err := s.positions.UpdatePosition(ctx, fix.DriverID, fix.Location); err != nil {
			s.log.Warning("position update failed",
				logger.String("driver_id", fix.DriverID),
				logger.Error(err),
			)
		}
	}
	return fix, nil
}

// LiveMetrics measures the trace recorded so far. Nothing is persisted.
func (s *DeliveryService) LiveMetrics(ctx context.Context, orderID string) (_ domain.TraceMetrics, err error) {
	defer obs.Time(ctx, "delivery.LiveMetrics")(&err)

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return domain.TraceMetrics{}, fmt.Errorf("live metrics: %w", err)
	}
	fixes, err := s.fixes.ListByOrder(ctx, orderID)
	if err != nil {
		return domain.TraceMetrics{}, fmt.Errorf("live metrics: %w", err)
	}

	metrics, err := s.monitor.Measure(order, fixes)
	if err != nil {
		return domain.TraceMetrics{}, fmt.Errorf("live metrics: %w", err)
	}
	metrics.FuelCost = s.FuelCost(metrics.FuelConsumedLiters)
	return metrics, nil
}

// CompleteDelivery settles an assigned order from its full trace. All settled
// fields are written in a single guarded update.
func (s *DeliveryService) CompleteDelivery(ctx context.Context, orderID string, completedAt time.Time) (_ *domain.Order, err error) {
	defer obs.Time(ctx, "delivery.CompleteDelivery")(&err)

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("complete delivery: %w", err)
	}
	if order.Status != domain.StatusAssigned {
		return nil, fmt.Errorf("complete delivery: order %s is %s: %w", order.ID, order.Status, domain.ErrInvalidTransition)
	}

	fixes, err := s.fixes.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("complete delivery: %w", err)
	}

	if completedAt.IsZero() {
		completedAt = s.now()
	}
	settlement, err := s.monitor.Settle(order, fixes, completedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("complete delivery: %w", err)
	}
	if err := order.Settle(settlement); err != nil {
		return nil, fmt.Errorf("complete delivery: %w", err)
	}
	if err := s.orders.Update(ctx, order, domain.StatusAssigned); err != nil {
		return nil, fmt.Errorf("complete delivery: %w", err)
	}

	if order.IsFlagged {
		s.log.Warning("delivery flagged",
			logger.String("order_id", order.ID),
			logger.String("reason", *order.FlagReason),
		)
	}
	return order, nil
}

// FuelCost prices litres at the configured fuel price.
func (s *DeliveryService) FuelCost(liters float64) float64 {
	return liters * s.fuelPrice
}

// ETA estimates the traffic-aware time from the driver's last known position
// to the drop. Without any known position the pickup is used.
func (s *DeliveryService) ETA(ctx context.Context, orderID string) (_ domain.ETA, err error) {
	defer obs.Time(ctx, "delivery.ETA")(&err)

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return domain.ETA{}, fmt.Errorf("eta: %w", err)
	}
	if order.Status == domain.StatusDelivered {
		return domain.ETA{}, fmt.Errorf("eta: order %s already delivered: %w", order.ID, domain.ErrInvalidTransition)
	}

	from, err := s.currentPosition(ctx, order)
	if err != nil {
		return domain.ETA{}, fmt.Errorf("eta: %w", err)
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	dur, err := s.directions.TrafficDuration(callCtx, from, order.Drop.Point)
	if err != nil {
		return domain.ETA{}, fmt.Errorf("eta: %w", err)
	}

	return domain.ETA{OrderID: order.ID, From: from, To: order.Drop.Point, Duration: dur}, nil
}

func (s *DeliveryService) currentPosition(ctx context.Context, order *domain.Order) (domain.GeoPoint, error) {
	if order.DriverID != nil && s.positions != nil {
		p, err := s.positions.Position(ctx, *order.DriverID)
		if err != nil {
			s.log.Warning("position lookup failed", logger.String("driver_id", *order.DriverID), logger.Error(err))
		} else if p != nil {
			return *p, nil
		}
	}

	last, err := s.fixes.Last(ctx, order.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.GeoPoint{}, err
	}
	if last != nil {
		return last.Location, nil
	}
	return order.Pickup.Point, nil
}

func (s *DeliveryService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *DeliveryService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// DriverOrders lists a driver's orders, optionally narrowed to the given statuses.
func (s *DeliveryService) DriverOrders(ctx context.Context, driverID string, statuses ...domain.OrderStatus) ([]*domain.Order, error) {
	for _, st := range statuses {
		if !st.Valid() {
			return nil, &domain.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", st)}
		}
	}
	orders, err := s.orders.ListByDriver(ctx, driverID, statuses...)
	if err != nil {
		return nil, fmt.Errorf("driver orders: %w", err)
	}
	return orders, nil
}
