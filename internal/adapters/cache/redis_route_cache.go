package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fleet-route-service/internal/platform/obs"
	"fleet-route-service/internal/ports"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

const routeKeyPrefix = "fleet:route:"

// RedisRouteCache stores directions results for identical requests with a TTL.
type RedisRouteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisRouteCache(rdb *redis.Client, ttl time.Duration) *RedisRouteCache {
	return &RedisRouteCache{rdb: rdb, ttl: ttl}
}

// RouteKey hashes the request so equal requests share a key. Coordinates are
// fixed to six decimals, roughly 0.1 m.
func RouteKey(req ports.RouteRequest) string {
	var b strings.Builder
	b.WriteString(req.Origin.String())
	b.WriteByte('|')
	b.WriteString(req.Destination.String())
	for _, w := range req.Waypoints {
		b.WriteByte('|')
		b.WriteString(w.String())
	}
	b.WriteByte('|')
	b.WriteString(strconv.FormatBool(req.Optimize))

	return routeKeyPrefix + strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}

func (c *RedisRouteCache) Get(ctx context.Context, req ports.RouteRequest) (_ ports.RouteResult, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	raw, err := c.rdb.Get(ctx, RouteKey(req)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.RouteResult{}, false, nil
	}
	if err != nil {
		return ports.RouteResult{}, false, fmt.Errorf("route cache get: %w", err)
	}

	var res ports.RouteResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return ports.RouteResult{}, false, fmt.Errorf("route cache decode: %w", err)
	}
	return res, true, nil
}

func (c *RedisRouteCache) Put(ctx context.Context, req ports.RouteRequest, res ports.RouteResult) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("route cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, RouteKey(req), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("route cache put: %w", err)
	}
	return nil
}
