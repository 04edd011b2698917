package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/obs"
	"fmt"
)

// Postgres-backed implementation of the FixRepository port.
type PostgresFixRepository struct{ DB *sql.DB }

func NewPostgresFixRepository(db *sql.DB) *PostgresFixRepository {
	return &PostgresFixRepository{DB: db}
}

func (r *PostgresFixRepository) Append(ctx context.Context, f domain.GpsFix) error {
	if r.DB == nil {
		return errors.New("fix repository: DB is nil")
	}

	_, err := r.DB.ExecContext(ctx, `
	INSERT INTO gps_fixes (id, driver_id, order_id, lat, lng, recorded_at)
	VALUES ($1, $2, $3, $4, $5, $6);
	`, f.ID, f.DriverID, f.OrderID, f.Location.Lat, f.Location.Lng, f.RecordedAt)
	if err != nil {
		return fmt.Errorf("append fix: %w", err)
	}
	return nil
}

func (r *PostgresFixRepository) ListByOrder(ctx context.Context, orderID string) (_ []domain.GpsFix, err error) {
	defer obs.Time(ctx, "fixes.ListByOrder")(&err)

	traces, err := r.ListByOrders(ctx, []string{orderID})
	if err != nil {
		return nil, err
	}
	return traces[orderID], nil
}

func (r *PostgresFixRepository) ListByOrders(ctx context.Context, orderIDs []string) (map[string][]domain.GpsFix, error) {
	if r.DB == nil {
		return nil, errors.New("fix repository: DB is nil")
	}

	out := make(map[string][]domain.GpsFix, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	rows, err := r.DB.QueryContext(ctx, `
	SELECT id, driver_id, order_id, lat, lng, recorded_at
	FROM gps_fixes
	WHERE order_id = ANY($1::text[])
	ORDER BY order_id, recorded_at, id;
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list fixes: query gps_fixes table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		f, err := scanFix(rows)
		if err != nil {
			return nil, fmt.Errorf("list fixes: scan row: %w", err)
		}
		out[*f.OrderID] = append(out[*f.OrderID], f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list fixes: row iteration: %w", err)
	}
	return out, nil
}

func (r *PostgresFixRepository) Last(ctx context.Context, orderID string) (*domain.GpsFix, error) {
	if r.DB == nil {
		return nil, errors.New("fix repository: DB is nil")
	}

	row := r.DB.QueryRowContext(ctx, `
	SELECT id, driver_id, order_id, lat, lng, recorded_at
	FROM gps_fixes
	WHERE order_id = $1
	ORDER BY recorded_at DESC, id DESC
	LIMIT 1;
	`, orderID)

	f, err := scanFix(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last fix for order %s: %w", orderID, err)
	}
	return &f, nil
}

func scanFix(row rowScanner) (domain.GpsFix, error) {
	var (
		f       domain.GpsFix
		orderID sql.NullString
	)
	if err := row.Scan(&f.ID, &f.DriverID, &orderID, &f.Location.Lat, &f.Location.Lng, &f.RecordedAt); err != nil {
		return domain.GpsFix{}, err
	}
	f.OrderID = nullString(orderID)
	f.RecordedAt = f.RecordedAt.UTC()
	return f, nil
}
