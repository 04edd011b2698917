package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fleet-route-service/internal/domain"
	"fmt"
	"os"
	"strings"
	"time"
)

type DriverSeed struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	VehicleType string `json:"vehicle_type"`
}

type OrderSeed struct {
	ID                string  `json:"id"`
	PickupAddress     string  `json:"pickup_address"`
	PickupLat         float64 `json:"pickup_lat"`
	PickupLng         float64 `json:"pickup_lng"`
	DropAddress       string  `json:"drop_address"`
	DropLat           float64 `json:"drop_lat"`
	DropLng           float64 `json:"drop_lng"`
	DriverID          string  `json:"driver_id"`
	VehicleType       string  `json:"vehicle_type"`
	PlannedDistanceKm float64 `json:"planned_distance_km"`
}

type Seed struct {
	Drivers []DriverSeed `json:"drivers"`
	Orders  []OrderSeed  `json:"orders"`
}

// LoadSeed reads and validates a seed file.
func LoadSeed(jsonPath string) (*Seed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("load seed: read %q: %w", jsonPath, err)
	}

	var seed Seed
	if err := json.Unmarshal(bytes, &seed); err != nil {
		return nil, fmt.Errorf("load seed: parse json: %w", err)
	}

	for i, d := range seed.Drivers {
		if strings.TrimSpace(d.ID) == "" {
			return nil, fmt.Errorf("load seed: driver at index %d: id cannot be empty", i+1)
		}
	}
	for i, o := range seed.Orders {
		if strings.TrimSpace(o.ID) == "" {
			return nil, fmt.Errorf("load seed: order at index %d: id cannot be empty", i+1)
		}
		pickup := domain.GeoPoint{Lat: o.PickupLat, Lng: o.PickupLng}
		if err := pickup.Validate("pickup"); err != nil {
			return nil, fmt.Errorf("load seed: order %s: %w", o.ID, err)
		}
		drop := domain.GeoPoint{Lat: o.DropLat, Lng: o.DropLng}
		if err := drop.Validate("drop"); err != nil {
			return nil, fmt.Errorf("load seed: order %s: %w", o.ID, err)
		}
		if o.PlannedDistanceKm < 0 {
			return nil, fmt.Errorf("load seed: order %s: planned distance cannot be negative", o.ID)
		}
	}
	return &seed, nil
}

// DomainOrders converts seeded orders to pending domain orders created at now.
func (s *Seed) DomainOrders(now time.Time) []*domain.Order {
	out := make([]*domain.Order, 0, len(s.Orders))
	for _, o := range s.Orders {
		ord := &domain.Order{
			ID:                o.ID,
			Pickup:            domain.Stop{Point: domain.GeoPoint{Lat: o.PickupLat, Lng: o.PickupLng}, Address: o.PickupAddress},
			Drop:              domain.Stop{Point: domain.GeoPoint{Lat: o.DropLat, Lng: o.DropLng}, Address: o.DropAddress},
			VehicleType:       domain.VehicleType(o.VehicleType),
			Status:            domain.StatusPending,
			PlannedDistanceKm: o.PlannedDistanceKm,
			CreatedAt:         now,
		}
		if o.DriverID != "" {
			id := o.DriverID
			ord.DriverID = &id
		}
		out = append(out, ord)
	}
	return out
}

func (s *Seed) DomainDrivers() []domain.Driver {
	out := make([]domain.Driver, 0, len(s.Drivers))
	for _, d := range s.Drivers {
		vt := d.VehicleType
		if vt == "" {
			vt = string(domain.VehicleCar)
		}
		out = append(out, domain.Driver{ID: d.ID, FullName: d.FullName, VehicleType: domain.VehicleType(vt)})
	}
	return out
}

// SeedPostgres inserts seed rows, leaving existing rows untouched.
func SeedPostgres(ctx context.Context, db *sql.DB, seed *Seed, now time.Time) error {
	if db == nil {
		return errors.New("seed: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	driverStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO drivers (id, full_name, vehicle_type)
	VALUES ($1, $2, $3)
	ON CONFLICT (id) DO NOTHING;
	`)
	if err != nil {
		return fmt.Errorf("seed: prepare driver insert: %w", err)
	}
	defer driverStmt.Close()

	for _, d := range seed.DomainDrivers() {
		if _, err := driverStmt.ExecContext(ctx, d.ID, d.FullName, string(d.VehicleType)); err != nil {
			return fmt.Errorf("seed: insert driver %s: %w", d.ID, err)
		}
	}

	orderStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO orders (
		id, pickup_address, pickup_lat, pickup_lng,
		drop_address, drop_lat, drop_lng,
		driver_id, vehicle_type, status, planned_distance_km, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO NOTHING;
	`)
	if err != nil {
		return fmt.Errorf("seed: prepare order insert: %w", err)
	}
	defer orderStmt.Close()

	for _, o := range seed.DomainOrders(now) {
		_, err := orderStmt.ExecContext(ctx,
			o.ID, o.Pickup.Address, o.Pickup.Point.Lat, o.Pickup.Point.Lng,
			o.Drop.Address, o.Drop.Point.Lat, o.Drop.Point.Lng,
			o.DriverID, string(o.VehicleType), string(o.Status), o.PlannedDistanceKm, o.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("seed: insert order %s: %w", o.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}
	return nil
}
