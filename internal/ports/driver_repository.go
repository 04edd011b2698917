package ports

import (
	"context"
	"fleet-route-service/internal/domain"
)

type DriverRepository interface {
	ListDrivers(ctx context.Context) ([]domain.Driver, error)
	GetDriver(ctx context.Context, id string) (*domain.Driver, error)
}
