package cache

import (
	"context"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/ports"
	"math"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisRouteCacheRoundTrip(t *testing.T) {
	mr, rdb := newTestRedis(t)
	c := NewRedisRouteCache(rdb, time.Minute)
	ctx := context.Background()

	req := ports.RouteRequest{
		Origin:      domain.GeoPoint{Lat: 33.45, Lng: -112.07},
		Destination: domain.GeoPoint{Lat: 33.45, Lng: -112.07},
		Waypoints:   []domain.GeoPoint{{Lat: 33.5, Lng: -112.0}, {Lat: 33.4, Lng: -111.9}},
		Optimize:    true,
	}

	if _, ok, err := c.Get(ctx, req); err != nil || ok {
		t.Fatalf("Get on empty cache = ok %v err %v, want miss", ok, err)
	}

	want := ports.RouteResult{
		WaypointOrder: []int{1, 0},
		Legs:          []ports.Leg{{DistanceMeters: 1200, DurationSeconds: 180}, {DistanceMeters: 800, DurationSeconds: 90}},
	}
	if err := c.Put(ctx, req, want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := c.Get(ctx, req)
	if err != nil || !ok {
		t.Fatalf("Get after Put = ok %v err %v", ok, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cached result mismatch (-want +got):\n%s", diff)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, req); ok {
		t.Fatalf("entry should have expired")
	}
}

func TestRouteKeyDependsOnOptimizeAndOrder(t *testing.T) {
	a := domain.GeoPoint{Lat: 1, Lng: 1}
	b := domain.GeoPoint{Lat: 2, Lng: 2}
	base := ports.RouteRequest{Origin: a, Destination: a, Waypoints: []domain.GeoPoint{a, b}}

	optimized := base
	optimized.Optimize = true

	swapped := base
	swapped.Waypoints = []domain.GeoPoint{b, a}

	if RouteKey(base) == RouteKey(optimized) {
		t.Errorf("optimize flag must change the key")
	}
	if RouteKey(base) == RouteKey(swapped) {
		t.Errorf("waypoint order must change the key")
	}
	if RouteKey(base) != RouteKey(base) {
		t.Errorf("key must be stable")
	}
}

func TestRedisPositionStore(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisPositionStore(rdb, 10*time.Minute)
	ctx := context.Background()

	p, err := s.Position(ctx, "d-1")
	if err != nil || p != nil {
		t.Fatalf("Position for unknown driver = %v, %v; want nil, nil", p, err)
	}

	want := domain.GeoPoint{Lat: 33.4484, Lng: -112.0740}
	if err := s.UpdatePosition(ctx, "d-1", want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err = s.Position(ctx, "d-1")
	if err != nil || p == nil {
		t.Fatalf("Position = %v, %v", p, err)
	}
	// GEO sets store a 52-bit geohash, so positions are approximate.
	if math.Abs(p.Lat-want.Lat) > 1e-4 || math.Abs(p.Lng-want.Lng) > 1e-4 {
		t.Fatalf("position = %+v, want %+v", *p, want)
	}

	mr.FastForward(11 * time.Minute)
	if p, _ := s.Position(ctx, "d-1"); p != nil {
		t.Fatalf("stale position should be hidden, got %+v", *p)
	}
}
