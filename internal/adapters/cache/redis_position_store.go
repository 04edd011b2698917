package cache

import (
	"context"
	"errors"
	"fleet-route-service/internal/domain"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	positionsGeoKey = "fleet:drivers:positions"
	seenKeyPrefix   = "fleet:drivers:seen:"
)

// RedisPositionStore keeps the last known position of each driver in a Redis
// GEO set. A per-driver marker with a TTL lets stale positions expire.
type RedisPositionStore struct {
	rdb      *redis.Client
	staleTTL time.Duration
}

func NewRedisPositionStore(rdb *redis.Client, staleTTL time.Duration) *RedisPositionStore {
	return &RedisPositionStore{rdb: rdb, staleTTL: staleTTL}
}

func (s *RedisPositionStore) UpdatePosition(ctx context.Context, driverID string, p domain.GeoPoint) error {
	pipe := s.rdb.TxPipeline()
	pipe.GeoAdd(ctx, positionsGeoKey, &redis.GeoLocation{
		Name:      driverID,
		Longitude: p.Lng,
		Latitude:  p.Lat,
	})
	pipe.Set(ctx, seenKeyPrefix+driverID, time.Now().UTC().Format(time.RFC3339), s.staleTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update position %s: %w", driverID, err)
	}
	return nil
}

func (s *RedisPositionStore) Position(ctx context.Context, driverID string) (*domain.GeoPoint, error) {
	err := s.rdb.Get(ctx, seenKeyPrefix+driverID).Err()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("position %s: %w", driverID, err)
	}

	positions, err := s.rdb.GeoPos(ctx, positionsGeoKey, driverID).Result()
	if err != nil {
		return nil, fmt.Errorf("position %s: %w", driverID, err)
	}
	if len(positions) == 0 || positions[0] == nil {
		return nil, nil
	}
	return &domain.GeoPoint{Lat: positions[0].Latitude, Lng: positions[0].Longitude}, nil
}
