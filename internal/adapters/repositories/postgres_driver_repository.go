package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fleet-route-service/internal/domain"
	"fmt"
)

// Postgres-backed implementation of the DriverRepository port.
type PostgresDriverRepository struct{ DB *sql.DB }

func NewPostgresDriverRepository(db *sql.DB) *PostgresDriverRepository {
	return &PostgresDriverRepository{DB: db}
}

func (r *PostgresDriverRepository) ListDrivers(ctx context.Context) ([]domain.Driver, error) {
	if r.DB == nil {
		return nil, errors.New("driver repository: DB is nil")
	}

	rows, err := r.DB.QueryContext(ctx, `
	SELECT id, full_name, vehicle_type
	FROM drivers
	ORDER BY id;
	`)
	if err != nil {
		return nil, fmt.Errorf("list drivers: query drivers table: %w", err)
	}
	defer rows.Close()

	drivers := make([]domain.Driver, 0, 16)
	for rows.Next() {
		var d domain.Driver
		var vehicle string
		if err := rows.Scan(&d.ID, &d.FullName, &vehicle); err != nil {
			return nil, fmt.Errorf("list drivers: scan row: %w", err)
		}
		d.VehicleType = domain.VehicleType(vehicle)
		drivers = append(drivers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list drivers: row iteration: %w", err)
	}
	return drivers, nil
}

func (r *PostgresDriverRepository) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	if r.DB == nil {
		return nil, errors.New("driver repository: DB is nil")
	}

	var d domain.Driver
	var vehicle string
	err := r.DB.QueryRowContext(ctx, `SELECT id, full_name, vehicle_type FROM drivers WHERE id = $1;`, id).
		Scan(&d.ID, &d.FullName, &vehicle)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get driver %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get driver %s: %w", id, err)
	}
	d.VehicleType = domain.VehicleType(vehicle)
	return &d, nil
}
