package ports

import (
	"context"
	"fleet-route-service/internal/domain"
)

// PositionStore keeps each driver's last known position.
type PositionStore interface {
	UpdatePosition(ctx context.Context, driverID string, point domain.GeoPoint) error
	// Return the last known position, or nil when the driver has none.
	Position(ctx context.Context, driverID string) (*domain.GeoPoint, error)
}
