package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment does not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "APP_ENV", "PORT", "ENGINE", "VALHALLA_URL", "VALHALLA_API_KEY",
		"ORS_API_KEY", "GEOCODE_COUNTRY", "DB_DRIVER", "DB_PATH", "DATABASE_URL",
		"SEED_PATH", "ENGINE_TIMEOUT", "ROUTING_TIMEOUT", "MAX_STOPS", "CORS_ORIGINS",
	} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Engine.Kind)
	assert.Equal(t, 32, cfg.Routing.MaxStops)
	assert.Equal(t, 200_000.0, cfg.Routing.MaxPedestrianMeters)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
port = "9090"

[engine]
kind = "valhalla"
url = "http://valhalla:8002"
timeout = "45s"

[routing]
max_stops = 8
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MAX_STOPS", "12")
	t.Setenv("ROUTING_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "valhalla", cfg.Engine.Kind)
	assert.Equal(t, "http://valhalla:8002", cfg.Engine.URL)
	assert.Equal(t, 45*time.Second, cfg.Engine.Timeout)
	assert.Equal(t, 12, cfg.Routing.MaxStops)
	assert.Equal(t, 30*time.Second, cfg.Routing.Timeout)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown engine":           {"ENGINE": "osrm"},
		"postgres without url":     {"DB_DRIVER": "postgres"},
		"bad duration":             {"ENGINE_TIMEOUT": "soon"},
		"zero routing timeout":     {"ROUTING_TIMEOUT": "0s"},
		"negative routing timeout": {"ROUTING_TIMEOUT": "-5s"},
		"max stops below two":      {"MAX_STOPS": "1"},
		"max stops not integer":    {"MAX_STOPS": "many"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGet(t *testing.T) {
	t.Setenv("ROUTE_TEST_KEY", "")
	assert.Equal(t, "fallback", Get("ROUTE_TEST_KEY", "fallback"))

	t.Setenv("ROUTE_TEST_KEY", "value")
	assert.Equal(t, "value", Get("ROUTE_TEST_KEY", "fallback"))
}
