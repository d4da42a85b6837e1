// Package config loads the Vigil service configuration from file and
// environment via viper.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Storage backends accepted by storage.backend.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds all configuration for the Vigil catalog service.
type Config struct {
	// LogLevel is the minimum log level: debug, info, warn or error.
	LogLevel string `mapstructure:"log_level"`

	Server struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"server"`

	Storage struct {
		// Backend selects the store implementation: sqlite or redis.
		Backend    string `mapstructure:"backend"`
		SQLitePath string `mapstructure:"sqlite_path"`
		Redis      struct {
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
			PoolSize int    `mapstructure:"pool_size"`
		} `mapstructure:"redis"`
	} `mapstructure:"storage"`

	Catalog struct {
		// Optional schema file overrides; empty means the built-in
		// schemas are used.
		AssetSchemaPath       string `mapstructure:"asset_schema_path"`
		PolicySchemaPath      string `mapstructure:"policy_schema_path"`
		IntegrationSchemaPath string `mapstructure:"integration_schema_path"`
	} `mapstructure:"catalog"`

	API struct {
		RateLimit struct {
			RequestsPerSecond int `mapstructure:"requests_per_second"`
			Burst             int `mapstructure:"burst"`
		} `mapstructure:"rate_limit"`
	} `mapstructure:"api"`
}

func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8085)
	viper.SetDefault("storage.backend", BackendSQLite)
	viper.SetDefault("storage.sqlite_path", "./data/vigil.db")
	viper.SetDefault("storage.redis.addr", "localhost:6379")
	viper.SetDefault("storage.redis.db", 0)
	viper.SetDefault("storage.redis.pool_size", 10)
	viper.SetDefault("api.rate_limit.requests_per_second", 100)
	viper.SetDefault("api.rate_limit.burst", 200)
}

// LoadConfig reads vigil.yaml (working directory or /etc/vigil) plus
// VIGIL_* environment overrides and validates the result.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("vigil")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/vigil")

	viper.SetEnvPrefix("VIGIL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine: defaults plus env vars apply.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("invalid storage backend %q: expected %s or %s",
			c.Storage.Backend, BackendSQLite, BackendRedis)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.API.RateLimit.RequestsPerSecond < 1 {
		return fmt.Errorf("invalid rate limit %d requests per second", c.API.RateLimit.RequestsPerSecond)
	}
	return nil
}
