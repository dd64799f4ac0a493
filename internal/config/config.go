package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type EngineConfig struct {
	// "valhalla" or "local".
	Kind           string        `toml:"kind"`
	URL            string        `toml:"url"`
	APIKey         string        `toml:"api_key"`
	Timeout        time.Duration `toml:"timeout"`
	ShapePrecision int           `toml:"shape_precision"`
	// Artificial per-leg delay of the local engine.
	LegDelay time.Duration `toml:"leg_delay"`
}

type RoutingConfig struct {
	MaxStops            int           `toml:"max_stops"`
	MaxPedestrianMeters float64       `toml:"max_pedestrian_meters"`
	Timeout             time.Duration `toml:"timeout"`
}

type GeocodeConfig struct {
	APIKey  string        `toml:"api_key"`
	BaseURL string        `toml:"base_url"`
	Country string        `toml:"country"`
	Timeout time.Duration `toml:"timeout"`
}

type StorageConfig struct {
	// "sqlite" or "postgres".
	Driver      string `toml:"driver"`
	Path        string `toml:"path"`
	DatabaseURL string `toml:"database_url"`
	SeedPath    string `toml:"seed_path"`
}

type Config struct {
	Env  string `toml:"env"`
	Port string `toml:"port"`
	// Browser origins allowed by CORS.
	AllowedOrigins []string      `toml:"allowed_origins"`
	Engine         EngineConfig  `toml:"engine"`
	Routing        RoutingConfig `toml:"routing"`
	Geocode        GeocodeConfig `toml:"geocode"`
	Storage        StorageConfig `toml:"storage"`
}

func defaults() Config {
	return Config{
		Env:            "development",
		Port:           "8080",
		AllowedOrigins: []string{"*"},
		Engine: EngineConfig{
			Kind:           "local",
			URL:            "http://localhost:8002",
			Timeout:        30 * time.Second,
			ShapePrecision: 6,
		},
		Routing: RoutingConfig{
			MaxStops:            32,
			MaxPedestrianMeters: 200_000,
			Timeout:             2 * time.Minute,
		},
		Geocode: GeocodeConfig{
			BaseURL: "https://api.openrouteservice.org",
			Timeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver:   "sqlite",
			Path:     "data/app.db",
			SeedPath: "data/seeds/geocode.json",
		},
	}
}

// Load builds the configuration in layers: built-in defaults, then the TOML
// file named by CONFIG_FILE (if any), then environment variables. A .env file
// in the working directory is loaded into the environment first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config: decode %q: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Env = Get("APP_ENV", cfg.Env)
	cfg.Port = Get("PORT", cfg.Port)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.AllowedOrigins = strings.Split(v, ",")
	}

	cfg.Engine.Kind = Get("ENGINE", cfg.Engine.Kind)
	cfg.Engine.URL = Get("VALHALLA_URL", cfg.Engine.URL)
	cfg.Engine.APIKey = Get("VALHALLA_API_KEY", cfg.Engine.APIKey)

	cfg.Geocode.APIKey = Get("ORS_API_KEY", cfg.Geocode.APIKey)
	cfg.Geocode.Country = Get("GEOCODE_COUNTRY", cfg.Geocode.Country)

	cfg.Storage.Driver = Get("DB_DRIVER", cfg.Storage.Driver)
	cfg.Storage.Path = Get("DB_PATH", cfg.Storage.Path)
	cfg.Storage.DatabaseURL = Get("DATABASE_URL", cfg.Storage.DatabaseURL)
	cfg.Storage.SeedPath = Get("SEED_PATH", cfg.Storage.SeedPath)

	var err error
	if cfg.Engine.Timeout, err = getDuration("ENGINE_TIMEOUT", cfg.Engine.Timeout); err != nil {
		return err
	}
	if cfg.Routing.Timeout, err = getDuration("ROUTING_TIMEOUT", cfg.Routing.Timeout); err != nil {
		return err
	}
	if v := os.Getenv("MAX_STOPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse MAX_STOPS=%q: %w", v, err)
		}
		cfg.Routing.MaxStops = n
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Engine.Kind {
	case "local":
	case "valhalla":
		if strings.TrimSpace(c.Engine.URL) == "" {
			return errors.New("engine url is required for the valhalla engine")
		}
	default:
		return fmt.Errorf("unknown engine kind %q", c.Engine.Kind)
	}

	if c.Routing.MaxStops < 2 {
		return fmt.Errorf("routing max_stops must be at least 2, got %d", c.Routing.MaxStops)
	}
	if c.Routing.Timeout <= 0 {
		return fmt.Errorf("routing timeout must be positive, got %s", c.Routing.Timeout)
	}
	if c.Routing.MaxPedestrianMeters <= 0 {
		return errors.New("routing max_pedestrian_meters must be positive")
	}

	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && strings.TrimSpace(c.Storage.DatabaseURL) == "" {
		return errors.New("DATABASE_URL is required for the postgres driver")
	}
	return nil
}

// Get returns the environment variable or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", key, v, err)
	}
	return d, nil
}
