package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/obs"
	"fmt"
	"time"
)

// Postgres-backed implementation of the OrderRepository port.
type PostgresOrderRepository struct{ DB *sql.DB }

func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{DB: db}
}

const orderColumns = `
	id, pickup_address, pickup_lat, pickup_lng,
	drop_address, drop_lat, drop_lng,
	driver_id, vehicle_type, status, planned_distance_km,
	actual_distance_km, fuel_consumed_liters, travel_time_minutes,
	sequence, is_flagged, flag_reason,
	created_at, started_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o           domain.Order
		driverID    sql.NullString
		vehicle     string
		status      string
		actual      sql.NullFloat64
		fuel        sql.NullFloat64
		travel      sql.NullInt64
		sequence    sql.NullInt64
		flagReason  sql.NullString
		startedAt   sql.NullTime
		completedAt sql.NullTime
	)

	err := row.Scan(
		&o.ID, &o.Pickup.Address, &o.Pickup.Point.Lat, &o.Pickup.Point.Lng,
		&o.Drop.Address, &o.Drop.Point.Lat, &o.Drop.Point.Lng,
		&driverID, &vehicle, &status, &o.PlannedDistanceKm,
		&actual, &fuel, &travel,
		&sequence, &o.IsFlagged, &flagReason,
		&o.CreatedAt, &startedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	o.VehicleType = domain.VehicleType(vehicle)
	o.Status = domain.OrderStatus(status)
	o.DriverID = nullString(driverID)
	o.ActualDistanceKm = nullFloat(actual)
	o.FuelConsumedLiters = nullFloat(fuel)
	o.TravelTimeMinutes = nullInt(travel)
	o.Sequence = nullInt(sequence)
	o.FlagReason = nullString(flagReason)
	o.StartedAt = nullTime(startedAt)
	o.CompletedAt = nullTime(completedAt)

	return &o, nil
}

func (r *PostgresOrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	defer obs.Time(ctx, "orders.Create")(&err)

	if r.DB == nil {
		return errors.New("order repository: DB is nil")
	}

	query := `
	INSERT INTO orders (
		id, pickup_address, pickup_lat, pickup_lng,
		drop_address, drop_lat, drop_lng,
		driver_id, vehicle_type, status, planned_distance_km, sequence, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = r.DB.ExecContext(ctx, query,
		o.ID, o.Pickup.Address, o.Pickup.Point.Lat, o.Pickup.Point.Lng,
		o.Drop.Address, o.Drop.Point.Lat, o.Drop.Point.Lng,
		o.DriverID, string(o.VehicleType), string(o.Status), o.PlannedDistanceKm, o.Sequence, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create order %s: %w", o.ID, err)
	}
	return nil
}

func (r *PostgresOrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	if r.DB == nil {
		return nil, errors.New("order repository: DB is nil")
	}

	row := r.DB.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1;`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get order %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

func (r *PostgresOrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	if r.DB == nil {
		return nil, errors.New("order repository: DB is nil")
	}

	rows, err := r.DB.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id;`)
	if err != nil {
		return nil, fmt.Errorf("list orders: query orders table: %w", err)
	}
	return collectOrders(rows, "list orders")
}

func (r *PostgresOrderRepository) ListByDriver(
	ctx context.Context,
	driverID string,
	statuses ...domain.OrderStatus,
) (_ []*domain.Order, err error) {
	defer obs.Time(ctx, "orders.ListByDriver")(&err)

	if r.DB == nil {
		return nil, errors.New("order repository: DB is nil")
	}

	wanted := make([]string, 0, len(statuses))
	for _, s := range statuses {
		wanted = append(wanted, string(s))
	}

	query := `SELECT ` + orderColumns + `
	FROM orders
	WHERE driver_id = $1
	  AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
	ORDER BY sequence NULLS LAST, created_at, id;
	`
	rows, err := r.DB.QueryContext(ctx, query, driverID, wanted)
	if err != nil {
		return nil, fmt.Errorf("list driver orders: query orders table: %w", err)
	}
	return collectOrders(rows, "list driver orders")
}

func collectOrders(rows *sql.Rows, op string) ([]*domain.Order, error) {
	defer rows.Close()

	orders := make([]*domain.Order, 0, 64)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: row iteration: %w", op, err)
	}
	return orders, nil
}

// Update writes all mutable columns in one statement guarded by the expected
// status, so a reader never sees a half-applied settlement.
func (r *PostgresOrderRepository) Update(ctx context.Context, o *domain.Order, expected domain.OrderStatus) (err error) {
	defer obs.Time(ctx, "orders.Update")(&err)

	if r.DB == nil {
		return errors.New("order repository: DB is nil")
	}

	query := `
	UPDATE orders SET
		driver_id = $2,
		status = $3,
		actual_distance_km = $4,
		fuel_consumed_liters = $5,
		travel_time_minutes = $6,
		sequence = $7,
		is_flagged = $8,
		flag_reason = $9,
		started_at = $10,
		completed_at = $11
	WHERE id = $1 AND status = $12;
	`
	res, err := r.DB.ExecContext(ctx, query,
		o.ID, o.DriverID, string(o.Status),
		o.ActualDistanceKm, o.FuelConsumedLiters, o.TravelTimeMinutes,
		o.Sequence, o.IsFlagged, o.FlagReason,
		o.StartedAt, o.CompletedAt,
		string(expected),
	)
	if err != nil {
		return fmt.Errorf("update order %s: %w", o.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order %s: rows affected: %w", o.ID, err)
	}
	if n == 0 {
		if _, err := r.Get(ctx, o.ID); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return fmt.Errorf("update order %s: status is no longer %s: %w", o.ID, expected, domain.ErrInvalidTransition)
	}
	return nil
}

// UpdateSequences clears then reassigns sequences inside one transaction so the
// per-driver unique index holds at every statement.
func (r *PostgresOrderRepository) UpdateSequences(ctx context.Context, driverID string, sequences map[string]int) (err error) {
	defer obs.Time(ctx, "orders.UpdateSequences")(&err)

	if r.DB == nil {
		return errors.New("order repository: DB is nil")
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update sequences: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
	UPDATE orders SET sequence = NULL
	WHERE driver_id = $1 AND status <> 'delivered';
	`, driverID); err != nil {
		return fmt.Errorf("update sequences: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	UPDATE orders SET sequence = $3
	WHERE id = $1 AND driver_id = $2 AND status <> 'delivered';
	`)
	if err != nil {
		return fmt.Errorf("update sequences: db prepare: %w", err)
	}
	defer stmt.Close()

	for id, seq := range sequences {
		if seq < 1 {
			return fmt.Errorf("update sequences: order %s: sequence %d must be >= 1", id, seq)
		}
		if _, err := stmt.ExecContext(ctx, id, driverID, seq); err != nil {
			return fmt.Errorf("update sequences: order %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update sequences: commit: %w", err)
	}
	return nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}
