package ports

import (
	"context"
	"fleet-route-service/internal/domain"
)

// Port: append-only storage of sampled driver positions.
type FixRepository interface {
	Append(ctx context.Context, fix domain.GpsFix) error
	// Return an order's trace ordered by recorded time.
	ListByOrder(ctx context.Context, orderID string) ([]domain.GpsFix, error)
	// Return ordered traces for many orders at once, keyed by order id.
	ListByOrders(ctx context.Context, orderIDs []string) (map[string][]domain.GpsFix, error)
	// Return the most recent fix of an order's trace, or nil when there is none.
	Last(ctx context.Context, orderID string) (*domain.GpsFix, error)
}
