package config

import (
	"fleet-route-service/internal/platform/db"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	ServiceName string
	LoggerLevel string

	HTTPPort int

	// Empty means the in-memory store is used.
	DatabaseURL    string
	DBMaxOpenConns int
	DBConnLifetime time.Duration

	// Empty disables the route cache and live positions.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Empty disables the GPS fix consumer.
	AMQPURL      string
	AMQPFixQueue string

	// Empty selects the offline nearest-neighbor provider.
	GoogleMapsAPIKey string
	ProviderTimeout  time.Duration
	RouteCacheTTL    time.Duration

	FuelPricePerLiter float64
	SeedPath          string

	// Deviation thresholds.
	DeviationMargin    float64
	IdleDistanceMeters float64
	IdleMinutes        float64

	// Bundling thresholds, in kilometres.
	ReturnTripStrictKm  float64
	ReturnTripPerfectKm float64
	ReturnTripLooseKm   float64
	DetourMaxKm         float64
	MatchLimit          int
}

func (c Config) DBPool() db.Pool {
	return db.Pool{MaxOpenConns: c.DBMaxOpenConns, ConnMaxLifetime: c.DBConnLifetime}
}

func Load() Config {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", "fleet-route-service"))
	cfg.LoggerLevel = cast.ToString(getOrReturnDefault("LOG_LEVEL", "debug"))
	cfg.HTTPPort = cast.ToInt(getOrReturnDefault("HTTP_PORT", 8080))

	cfg.DatabaseURL = strings.TrimSpace(cast.ToString(getOrReturnDefault("DATABASE_URL", "")))
	cfg.DBMaxOpenConns = cast.ToInt(getOrReturnDefault("DB_MAX_OPEN_CONNS", 10))
	cfg.DBConnLifetime = cast.ToDuration(getOrReturnDefault("DB_CONN_MAX_LIFETIME", "30m"))

	cfg.RedisAddr = strings.TrimSpace(cast.ToString(getOrReturnDefault("REDIS_ADDR", "")))
	cfg.RedisPassword = cast.ToString(getOrReturnDefault("REDIS_PASSWORD", ""))
	cfg.RedisDB = cast.ToInt(getOrReturnDefault("REDIS_DB", 0))

	cfg.AMQPURL = strings.TrimSpace(cast.ToString(getOrReturnDefault("AMQP_URL", "")))
	cfg.AMQPFixQueue = cast.ToString(getOrReturnDefault("AMQP_FIX_QUEUE", "driver.location"))

	cfg.GoogleMapsAPIKey = strings.TrimSpace(cast.ToString(getOrReturnDefault("GOOGLE_MAPS_API_KEY", "")))
	cfg.ProviderTimeout = cast.ToDuration(getOrReturnDefault("PROVIDER_TIMEOUT", "10s"))
	cfg.RouteCacheTTL = cast.ToDuration(getOrReturnDefault("ROUTE_CACHE_TTL", "24h"))

	cfg.FuelPricePerLiter = cast.ToFloat64(getOrReturnDefault("FUEL_PRICE_PER_LITER", 100.0))
	cfg.SeedPath = cast.ToString(getOrReturnDefault("SEED_PATH", "data/seeds/fleet.json"))

	cfg.DeviationMargin = cast.ToFloat64(getOrReturnDefault("DEVIATION_MARGIN", 0.20))
	cfg.IdleDistanceMeters = cast.ToFloat64(getOrReturnDefault("IDLE_DISTANCE_METERS", 50.0))
	cfg.IdleMinutes = cast.ToFloat64(getOrReturnDefault("IDLE_MINUTES", 5.0))

	cfg.ReturnTripStrictKm = cast.ToFloat64(getOrReturnDefault("RETURN_TRIP_STRICT_KM", 3.0))
	cfg.ReturnTripPerfectKm = cast.ToFloat64(getOrReturnDefault("RETURN_TRIP_PERFECT_KM", 0.5))
	cfg.ReturnTripLooseKm = cast.ToFloat64(getOrReturnDefault("RETURN_TRIP_LOOSE_KM", 10.0))
	cfg.DetourMaxKm = cast.ToFloat64(getOrReturnDefault("DETOUR_MAX_KM", 2.0))
	cfg.MatchLimit = cast.ToInt(getOrReturnDefault("MATCH_LIMIT", 3))

	return cfg
}

// Get returns the environment value for key, or fallback when it is unset.
func Get(key, fallback string) string {
	return cast.ToString(getOrReturnDefault(key, fallback))
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
