// Package bootstrap wires configuration, logging, storage, the catalog
// and the API server into a runnable application.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"vigil/api"
	"vigil/catalog"
	"vigil/config"
	"vigil/rbac"
)

// App represents the Vigil catalog service with all its components.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	Store   *StoreComponents
	Catalog *catalog.Catalog
	API     *api.API

	shutdownCh chan struct{}
}

// NewApp creates a new application instance and initializes all
// components.
func NewApp() (*App, error) {
	app := &App{shutdownCh: make(chan struct{})}

	// Bootstrap logging at info; the configured level applies once the
	// config is known.
	logger, sugar, err := InitLogger("info")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger
	app.Sugar = sugar

	sugar.Info("Vigil catalog starting...")

	cfg, err := InitConfig(sugar)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	if cfg.LogLevel != "info" {
		logger, sugar, err = InitLogger(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		app.Logger = logger
		app.Sugar = sugar
	}

	store, err := InitStore(cfg, sugar)
	if err != nil {
		return nil, err
	}
	app.Store = store

	validator, err := InitValidator(cfg, sugar)
	if err != nil {
		store.Close()
		return nil, err
	}

	cat, err := catalog.New(catalog.Config{
		Store:     store.Store,
		Validator: validator,
		Logger:    sugar,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	app.Catalog = cat

	authz := rbac.NewStaticAuthorizer(rbac.DefaultPolicy())
	app.API = api.NewAPI(cat, authz, cfg, sugar)

	return app, nil
}

// Start launches the API server.
func (a *App) Start() {
	go func() {
		if err := a.API.Start(); err != nil {
			a.Sugar.Errorf("API server stopped: %v", err)
			close(a.shutdownCh)
		}
	}()
}

// WaitForShutdown blocks until a termination signal arrives or the server
// stops on its own.
func (a *App) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		a.Sugar.Infof("Received signal %s, shutting down", sig)
	case <-a.shutdownCh:
	}
}

// Shutdown stops the API server and closes the store.
func (a *App) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.API.Shutdown(ctx); err != nil {
		a.Sugar.Errorf("Failed to shut down API server: %v", err)
	}
	if err := a.Store.Close(); err != nil {
		a.Sugar.Errorf("Failed to close store: %v", err)
	}
	a.Sugar.Info("Vigil catalog stopped")
	_ = a.Logger.Sync()
}
