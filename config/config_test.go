package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "./data/vigil.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "localhost:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 100, cfg.API.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.API.RateLimit.Burst)
}

func TestLoadConfig_File(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	t.Chdir(dir)

	content := []byte("server:\n  port: 9090\nstorage:\n  backend: redis\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vigil.yaml"), content, 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	// Untouched keys keep their defaults.
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())
	t.Setenv("VIGIL_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Storage.Backend = BackendSQLite
		cfg.Server.Port = 8085
		cfg.API.RateLimit.RequestsPerSecond = 100
		return cfg
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Storage.Backend = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.API.RateLimit.RequestsPerSecond = 0
	assert.Error(t, cfg.Validate())
}
