package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"route-coordinator-service/internal/adapters/cache"
	"route-coordinator-service/internal/adapters/engine"
	"route-coordinator-service/internal/adapters/geocode"
	"route-coordinator-service/internal/api"
	"route-coordinator-service/internal/api/handlers"
	"route-coordinator-service/internal/config"
	"route-coordinator-service/internal/platform/db"
	"route-coordinator-service/internal/platform/logger"
	"route-coordinator-service/internal/platform/mainloop"
	"route-coordinator-service/internal/ports"
	"route-coordinator-service/internal/services"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters (routing engine, geocoder, cache) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zl, err := logger.New(cfg.Env, "route-coordinator")
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	routingEngine, err := newEngine(cfg.Engine, zl)
	if err != nil {
		zl.Fatal("routing engine", zap.Error(err))
	}

	geocoder, closeDB, err := newGeocoder(cfg, zl)
	if err != nil {
		zl.Fatal("geocoder", zap.Error(err))
	}
	defer closeDB()

	queue := mainloop.New(zl)
	defer queue.Close()

	coordinator := services.NewRouteCoordinator(routingEngine, queue, zl,
		services.WithMaxStops(cfg.Routing.MaxStops),
		services.WithMaxPedestrianDistance(cfg.Routing.MaxPedestrianMeters),
		services.WithTimeout(cfg.Routing.Timeout),
	)

	h := &handlers.RouteHandler{Coordinator: coordinator}
	if geocoder != nil {
		h.Geocoder = geocoder
	}
	router := api.NewRouter(h, cfg.AllowedOrigins, zl)

	// WriteTimeout covers a full calculation, since POST /routes waits for it.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Routing.Timeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		zl.Info("server listening", zap.String("addr", srv.Addr), zap.String("engine", cfg.Engine.Kind))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down route-coordinator...")

	if coordinator.Cancel() {
		zl.Info("cancelled calculation in flight")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("HTTP server forced shutdown", zap.Error(err))
	}

	zl.Info("route-coordinator stopped")
}

func newEngine(cfg config.EngineConfig, zl *zap.Logger) (ports.RoutingEngine, error) {
	switch cfg.Kind {
	case "valhalla":
		return engine.NewValhallaEngine(engine.ValhallaConfig{
			URL:            cfg.URL,
			APIKey:         cfg.APIKey,
			Timeout:        cfg.Timeout,
			ShapePrecision: cfg.ShapePrecision,
		}, zl)
	case "local":
		return engine.NewLocalEngine(zl, engine.WithLegDelay(cfg.LegDelay)), nil
	default:
		return nil, fmt.Errorf("unknown engine kind %q", cfg.Kind)
	}
}

// newGeocoder returns a nil geocoder when no ORS key is configured; address
// stops are then rejected. The returned func closes the cache database.
func newGeocoder(cfg config.Config, zl *zap.Logger) (*geocode.ORSGeocoder, func(), error) {
	if strings.TrimSpace(cfg.Geocode.APIKey) == "" {
		zl.Warn("ORS_API_KEY not set, address stops disabled")
		return nil, func() {}, nil
	}

	conn, geocodeCache, err := openCache(cfg.Storage, zl)
	if err != nil {
		return nil, nil, err
	}

	g, err := geocode.NewORSGeocoder(geocode.ORSConfig{
		APIKey:  cfg.Geocode.APIKey,
		BaseURL: cfg.Geocode.BaseURL,
		Country: cfg.Geocode.Country,
		Timeout: cfg.Geocode.Timeout,
	}, geocodeCache, zl)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return g, func() { _ = conn.Close() }, nil
}

func openCache(cfg config.StorageConfig, zl *zap.Logger) (*sql.DB, ports.GeocodeCache, error) {
	dialect, err := cache.ParseDialect(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}

	var conn *sql.DB
	if dialect == cache.DialectPostgres {
		conn, err = db.Open(cfg.DatabaseURL)
	} else {
		conn, err = db.OpenSQLite(cfg.Path)
	}
	if err != nil {
		return nil, nil, err
	}

	// Schema creation is idempotent, so local runs work without dbtool.
	if err := cache.InitSchema(context.Background(), conn, dialect); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	if dialect == cache.DialectPostgres {
		return conn, cache.NewSQLGeocodeCache(conn, zl), nil
	}
	return conn, cache.NewSqliteGeocodeCache(conn, zl), nil
}
