package directions

import (
	"context"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/logger"
	"fleet-route-service/internal/ports"
	"time"
)

// CachedProvider serves repeated Route requests from a RouteCache.
// Traffic durations are live data and always go to the inner provider.
// Cache failures are logged and never fail the request.
type CachedProvider struct {
	inner ports.DirectionsProvider
	cache ports.RouteCache
	log   logger.ILogger
}

func NewCachedProvider(inner ports.DirectionsProvider, cache ports.RouteCache, log logger.ILogger) *CachedProvider {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedProvider{inner: inner, cache: cache, log: log}
}

func (c *CachedProvider) Route(ctx context.Context, req ports.RouteRequest) (ports.RouteResult, error) {
	res, ok, err := c.cache.Get(ctx, req)
	if err != nil {
		c.log.Warning("route cache read failed", logger.Error(err))
	} else if ok {
		return res, nil
	}

	res, err = c.inner.Route(ctx, req)
	if err != nil {
		return ports.RouteResult{}, err
	}

	if err := c.cache.Put(ctx, req, res); err != nil {
		c.log.Warning("route cache write failed", logger.Error(err))
	}
	return res, nil
}

func (c *CachedProvider) TrafficDuration(ctx context.Context, origin, destination domain.GeoPoint) (time.Duration, error) {
	return c.inner.TrafficDuration(ctx, origin, destination)
}
