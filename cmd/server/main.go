package main

import (
	"context"
	"database/sql"
	"errors"
	"fleet-route-service/internal/adapters/cache"
	"fleet-route-service/internal/adapters/directions"
	"fleet-route-service/internal/adapters/gmaps"
	"fleet-route-service/internal/adapters/messaging"
	"fleet-route-service/internal/adapters/repositories"
	"fleet-route-service/internal/api"
	"fleet-route-service/internal/config"
	"fleet-route-service/internal/platform/db"
	"fleet-route-service/internal/platform/logger"
	"fleet-route-service/internal/platform/obs"
	"fleet-route-service/internal/ports"
	"fleet-route-service/internal/services"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

// Live positions older than this are treated as unknown.
const (
	positionStaleTTL   = 10 * time.Minute
	geocodeCacheMaxAge = 30 * 24 * time.Hour
)

type stores struct {
	orders  ports.OrderRepository
	fixes   ports.FixRepository
	drivers ports.DriverRepository
	db      *sql.DB
}

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, Google Maps, RabbitMQ) behind
// ports and starts the HTTP server.
func main() {
	cfg := config.Load()

	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)
	defer func() { _ = log.Sync() }()
	obs.SetLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log logger.ILogger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	if st.db != nil {
		defer st.db.Close()
	}

	var (
		routeCache ports.RouteCache
		positions  ports.PositionStore
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		routeCache = cache.NewRedisRouteCache(rdb, cfg.RouteCacheTTL)
		positions = cache.NewRedisPositionStore(rdb, positionStaleTTL)
	} else {
		log.Warning("REDIS_ADDR not set: route cache and live positions disabled")
	}

	var (
		provider ports.DirectionsProvider
		geocoder ports.Geocoder
	)
	if cfg.GoogleMapsAPIKey != "" {
		client, err := gmaps.NewClient(cfg.GoogleMapsAPIKey)
		if err != nil {
			return err
		}
		dp, err := gmaps.NewDirectionsProvider(client)
		if err != nil {
			return err
		}
		provider = dp

		var geocodeCache *cache.SQLGeocodeCache
		if st.db != nil {
			geocodeCache = cache.NewSQLGeocodeCache(st.db, geocodeCacheMaxAge)
		}
		g, err := gmaps.NewGeocoder(client, geocodeCache, log)
		if err != nil {
			return err
		}
		geocoder = g
	} else {
		log.Warning("GOOGLE_MAPS_API_KEY not set: using offline nearest-neighbor routing, geocoding disabled")
		provider = directions.NewNearestNeighborProvider(directions.DefaultSpeedKmh)
	}
	if routeCache != nil {
		provider = directions.NewCachedProvider(provider, routeCache, log)
	}

	monitor := services.NewDeviationMonitor(deviationConfig(cfg))
	delivery := services.NewDeliveryService(services.DeliveryDeps{
		Orders:            st.orders,
		Fixes:             st.fixes,
		Geocoder:          geocoder,
		Directions:        provider,
		Positions:         positions,
		Monitor:           monitor,
		FuelPricePerLiter: cfg.FuelPricePerLiter,
		ProviderTimeout:   cfg.ProviderTimeout,
		Log:               log,
	})
	optimizer := services.NewMultiStopOptimizer(provider, cfg.ProviderTimeout, log)
	dispatch := services.NewDispatchService(st.orders, positions, optimizer, services.NewRouteMatcher(matchConfig(cfg)), log)
	analytics := services.NewAnalyticsService(st.drivers, st.orders, st.fixes, monitor, cfg.FuelPricePerLiter)

	if cfg.AMQPURL != "" {
		conn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			return fmt.Errorf("amqp dial: %w", err)
		}
		defer conn.Close()

		consumer, err := messaging.NewFixConsumer(conn, cfg.AMQPFixQueue, delivery, log)
		if err != nil {
			return err
		}
		defer consumer.Close()

		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Error("fix consumer stopped", logger.Error(err))
			}
		}()
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Deps{
		Delivery:  delivery,
		Dispatch:  dispatch,
		Analytics: analytics,
		Log:       log,
	})

	// Timeouts are tuned for cold-cache route optimization (external API latency).
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStores connects to Postgres when DATABASE_URL is set; otherwise it
// serves a seeded in-memory store for local runs.
func openStores(ctx context.Context, cfg config.Config, log logger.ILogger) (stores, error) {
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBPool())
		if err != nil {
			return stores{}, err
		}
		if err := repositories.Migrate(conn); err != nil {
			conn.Close()
			return stores{}, err
		}
		return stores{
			orders:  repositories.NewPostgresOrderRepository(conn),
			fixes:   repositories.NewPostgresFixRepository(conn),
			drivers: repositories.NewPostgresDriverRepository(conn),
			db:      conn,
		}, nil
	}

	log.Warning("DATABASE_URL not set: using in-memory store")
	mem := repositories.NewMemoryStore()

	seed, err := repositories.LoadSeed(cfg.SeedPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Warning("seed file not found", logger.String("path", cfg.SeedPath))
	case err != nil:
		return stores{}, err
	default:
		if err := mem.Seed(ctx, seed, time.Now().UTC()); err != nil {
			return stores{}, err
		}
		log.Info("in-memory store seeded",
			logger.Int("drivers", len(seed.Drivers)),
			logger.Int("orders", len(seed.Orders)),
		)
	}

	return stores{orders: mem, fixes: mem, drivers: mem}, nil
}

// deviationConfig overlays the configured thresholds on the default
// fuel-efficiency table.
func deviationConfig(cfg config.Config) services.DeviationConfig {
	dev := services.DefaultDeviationConfig()
	dev.MarginFraction = cfg.DeviationMargin
	dev.IdleDistanceMeters = cfg.IdleDistanceMeters
	dev.IdleMinutes = cfg.IdleMinutes
	return dev
}

func matchConfig(cfg config.Config) services.MatchConfig {
	return services.MatchConfig{
		ReturnTripStrictKm:  cfg.ReturnTripStrictKm,
		ReturnTripPerfectKm: cfg.ReturnTripPerfectKm,
		ReturnTripLooseKm:   cfg.ReturnTripLooseKm,
		DetourMaxKm:         cfg.DetourMaxKm,
		Limit:               cfg.MatchLimit,
	}
}
