package main

import (
	"context"
	"fleet-route-service/internal/adapters/repositories"
	"fleet-route-service/internal/config"
	"fleet-route-service/internal/platform/db"
	"fleet-route-service/internal/platform/logger"
	"os"
	"time"
)

// dbtool applies migrations and loads the demo seed into Postgres.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName+"-dbtool", cfg.LoggerLevel)
	defer func() { _ = log.Sync() }()

	if cfg.DatabaseURL == "" {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBPool())
	if err != nil {
		log.Error("open database", logger.Error(err))
		os.Exit(1)
	}
	defer conn.Close()

	log.Info("applying migrations")
	if err := repositories.Migrate(conn); err != nil {
		log.Error("migration failed", logger.Error(err))
		os.Exit(1)
	}
	log.Info("schema ready")

	seedPath := config.Get("SEED_PATH", "data/seeds/fleet.json")
	seed, err := repositories.LoadSeed(seedPath)
	if err != nil {
		log.Error("load seed", logger.Error(err))
		os.Exit(1)
	}

	log.Info("seeding database", logger.String("path", seedPath))
	if err := repositories.SeedPostgres(ctx, conn, seed, time.Now().UTC()); err != nil {
		log.Error("seeding failed", logger.Error(err))
		os.Exit(1)
	}
	log.Info("seeding complete",
		logger.Int("drivers", len(seed.Drivers)),
		logger.Int("orders", len(seed.Orders)),
	)
}
