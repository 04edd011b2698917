package directions

import (
	"context"
	"errors"
	"fleet-route-service/internal/adapters/cache"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/ports"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestCachedProviderServesRepeatRequestsFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := NewMockProvider(ports.RouteResult{
		WaypointOrder: []int{1, 0},
		Legs:          []ports.Leg{{DistanceMeters: 1000, DurationSeconds: 120}},
	}, nil)
	p := NewCachedProvider(inner, cache.NewRedisRouteCache(rdb, time.Minute), nil)

	req := ports.RouteRequest{
		Origin:      domain.GeoPoint{Lat: 1, Lng: 1},
		Destination: domain.GeoPoint{Lat: 1, Lng: 1},
		Waypoints:   []domain.GeoPoint{{Lat: 1.1, Lng: 1}, {Lat: 1.2, Lng: 1}},
		Optimize:    true,
	}

	for i := 0; i < 3; i++ {
		res, err := p.Route(context.Background(), req)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if len(res.WaypointOrder) != 2 || res.WaypointOrder[0] != 1 {
			t.Fatalf("call %d: waypoint order = %v", i, res.WaypointOrder)
		}
	}
	if inner.Calls != 1 {
		t.Fatalf("inner provider called %d times, want 1", inner.Calls)
	}
}

func TestCachedProviderDoesNotCacheFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := NewMockProvider(ports.RouteResult{}, errors.New("boom"))
	p := NewCachedProvider(inner, cache.NewRedisRouteCache(rdb, time.Minute), nil)

	req := ports.RouteRequest{Origin: domain.GeoPoint{Lat: 1, Lng: 1}, Destination: domain.GeoPoint{Lat: 2, Lng: 2}}
	for i := 0; i < 2; i++ {
		if _, err := p.Route(context.Background(), req); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}
	if inner.Calls != 2 {
		t.Fatalf("inner provider called %d times, want 2", inner.Calls)
	}
}
