package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"route-coordinator-service/internal/domain"
	"strings"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(s))); d {
	case DialectSQLite, DialectPostgres:
		return d, nil
	case "pgx", "postgresql":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unknown storage dialect %q", s)
	}
}

// Initialize the geocode cache schema.
func InitSchema(ctx context.Context, db *sql.DB, dialect Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	floatType := "REAL"
	if dialect == DialectPostgres {
		floatType = "DOUBLE PRECISION"
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createGeocodeCacheQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS geocode_cache (
        address TEXT PRIMARY KEY,
        lon %[1]s NOT NULL,
        lat %[1]s NOT NULL
    );
	`, floatType)

	statements := []string{
		createGeocodeCacheQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type GeocodeSeed struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type cacheWriter interface {
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}

// SeedFromJSON pre-populates the cache with known address coordinates so
// frequent stops never reach the geocoding API.
func SeedFromJSON(ctx context.Context, cache cacheWriter, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed geocode cache: read %q: %w", jsonPath, err)
	}

	var data []GeocodeSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed geocode cache: parse json: %w", err)
	}

	rows := make(map[string]domain.Coordinates, len(data))
	for i, item := range data {
		addr := strings.Join(strings.Fields(item.Address), " ")
		if addr == "" {
			return 0, fmt.Errorf("seed geocode cache: item at index %d: address cannot be empty", i+1)
		}

		c := domain.Coordinates{Lat: item.Lat, Lon: item.Lon}
		if !c.Valid() {
			return 0, fmt.Errorf("seed geocode cache: item at index %d: invalid coordinate %s", i+1, c)
		}
		rows[addr] = c
	}

	if err := cache.PutMany(ctx, rows); err != nil {
		return 0, fmt.Errorf("seed geocode cache: %w", err)
	}
	return len(rows), nil
}
