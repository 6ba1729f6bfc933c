package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, "in", cfg.AdzunaCountry)
	assert.Equal(t, 25, cfg.GoogleMaxResults)
	assert.Equal(t, 1500*time.Millisecond, cfg.SimulateMinDelay)
	assert.Equal(t, 3500*time.Millisecond, cfg.SimulateMaxDelay)
	assert.False(t, cfg.MockFallback)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/nav.db")
	t.Setenv("GOOGLE_MAX_RESULTS", "40")
	t.Setenv("SOURCE_TIMEOUT", "5s")
	t.Setenv("MOCK_FALLBACK", "true")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, "/tmp/nav.db", cfg.SQLitePath)
	assert.Equal(t, 40, cfg.GoogleMaxResults)
	assert.Equal(t, 5*time.Second, cfg.SourceTimeout)
	assert.True(t, cfg.MockFallback)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GOOGLE_MAX_RESULTS", "many")

	_, err := Load()
	assert.ErrorContains(t, err, "GOOGLE_MAX_RESULTS")
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		t.Chdir(t.TempDir())
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.StorageDriver = "mongo" }},
		{"postgres without dsn", func(c *Config) { c.StorageDriver = DriverPostgres }},
		{"zero google results", func(c *Config) { c.GoogleMaxResults = 0 }},
		{"tiny timeout", func(c *Config) { c.SourceTimeout = time.Millisecond }},
		{"inverted delays", func(c *Config) { c.SimulateMinDelay = 5 * time.Second }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid(t)
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
