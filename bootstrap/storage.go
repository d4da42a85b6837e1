package bootstrap

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"vigil/catalog"
	"vigil/config"
	"vigil/storage"
	"vigil/validate"
)

// StoreComponents groups the selected store with the resources that need
// closing at shutdown.
type StoreComponents struct {
	Store  catalog.Store
	closer io.Closer
}

// Close releases the underlying store connection.
func (s *StoreComponents) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// InitStore builds the catalog store selected by the configuration.
func InitStore(cfg *config.Config, sugar *zap.SugaredLogger) (*StoreComponents, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		sqlite, err := storage.NewSQLite(cfg.Storage.SQLitePath, sugar)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		return &StoreComponents{
			Store:  storage.NewSQLiteStore(sqlite, sugar),
			closer: sqlite,
		}, nil
	case config.BackendRedis:
		redisStore := storage.NewRedisStore(
			cfg.Storage.Redis.Addr,
			cfg.Storage.Redis.Password,
			cfg.Storage.Redis.DB,
			cfg.Storage.Redis.PoolSize,
			sugar,
		)
		if err := redisStore.Ping(); err != nil {
			redisStore.Close()
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Storage.Redis.Addr, err)
		}
		sugar.Infof("Redis catalog store ready at %s", cfg.Storage.Redis.Addr)
		return &StoreComponents{
			Store:  redisStore,
			closer: redisStore,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// InitValidator builds the schema validator, reading any configured
// schema file overrides on top of the built-in schemas.
func InitValidator(cfg *config.Config, sugar *zap.SugaredLogger) (*validate.SchemaValidator, error) {
	schemas := validate.DefaultSchemas()

	if path := cfg.Catalog.AssetSchemaPath; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read asset schema: %w", err)
		}
		schemas.Asset = data
	}
	if path := cfg.Catalog.PolicySchemaPath; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read policy schema: %w", err)
		}
		schemas.Policy = data
	}
	if path := cfg.Catalog.IntegrationSchemaPath; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read integration schema: %w", err)
		}
		schemas.Integration = data
	}

	return validate.NewSchemaValidator(schemas, sugar)
}
