package ports

import (
	"context"
	"fleet-route-service/internal/domain"
)

// Port: a boundary for reading and writing Order records.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	// List every order, newest first.
	List(ctx context.Context) ([]*domain.Order, error)
	// List a driver's orders in any of statuses (all statuses when empty),
	// ordered by sequence (unsequenced last) then creation time.
	ListByDriver(ctx context.Context, driverID string, statuses ...domain.OrderStatus) ([]*domain.Order, error)
	// Update writes every mutable field of order in one statement, provided the
	// stored status still equals expected. Otherwise it returns ErrInvalidTransition.
	Update(ctx context.Context, order *domain.Order, expected domain.OrderStatus) error
	// UpdateSequences replaces the sequence numbers of a driver's non-delivered
	// orders atomically. Orders missing from sequences lose their sequence.
	UpdateSequences(ctx context.Context, driverID string, sequences map[string]int) error
}
