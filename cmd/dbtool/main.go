package main

import (
	"context"
	"database/sql"
	"log"
	"route-coordinator-service/internal/adapters/cache"
	"route-coordinator-service/internal/config"
	"route-coordinator-service/internal/domain"
	"route-coordinator-service/internal/platform/db"
	"route-coordinator-service/internal/platform/logger"

	"go.uber.org/zap"
)

// dbtool creates the geocode cache schema and seeds it with known addresses.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zl, err := logger.New(cfg.Env, "dbtool")
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	dialect, err := cache.ParseDialect(cfg.Storage.Driver)
	if err != nil {
		zl.Fatal("storage driver", zap.Error(err))
	}

	var conn *sql.DB
	if dialect == cache.DialectPostgres {
		conn, err = db.Open(cfg.Storage.DatabaseURL)
	} else {
		conn, err = db.OpenSQLite(cfg.Storage.Path)
	}
	if err != nil {
		zl.Fatal("open database", zap.Error(err))
	}
	defer conn.Close()

	ctx := context.Background()

	zl.Info("initializing geocode cache schema", zap.String("dialect", string(dialect)))
	if err := cache.InitSchema(ctx, conn, dialect); err != nil {
		zl.Fatal("schema initialization failed", zap.Error(err))
	}
	zl.Info("schema ready")

	var writer interface {
		PutMany(ctx context.Context, results map[string]domain.Coordinates) error
	}
	if dialect == cache.DialectPostgres {
		writer = cache.NewSQLGeocodeCache(conn, zl)
	} else {
		writer = cache.NewSqliteGeocodeCache(conn, zl)
	}

	seedPath := cfg.Storage.SeedPath
	zl.Info("seeding geocode cache", zap.String("path", seedPath))
	n, err := cache.SeedFromJSON(ctx, writer, seedPath)
	if err != nil {
		zl.Fatal("seeding failed", zap.Error(err))
	}
	zl.Info("seeding complete", zap.Int("addresses", n))
}
