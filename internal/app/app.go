package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/specialistvlad/lightpath/internal/ctxlog"
	"github.com/specialistvlad/lightpath/internal/definition"
	"github.com/specialistvlad/lightpath/internal/metrics"
	"github.com/specialistvlad/lightpath/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	loader     definition.Loader
	registry   *registry.Registry
	metrics    *metrics.Metrics
	httpServer *http.Server
	runID      string
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, registry and
// metrics. With no modules given the core effect modules are registered.
func NewApp(outW io.Writer, cfg *Config, loader definition.Loader, modules ...registry.Module) *App {
	runID := uuid.NewString()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW).With("run_id", runID)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.New(modules...)
	logger.Debug("All effect modules registered.", "modules", len(modules), "kinds", reg.Kinds())

	return &App{
		ctx:      ctxlog.WithLogger(context.Background(), logger),
		outW:     outW,
		logger:   logger,
		config:   cfg,
		loader:   loader,
		registry: reg,
		metrics:  metrics.New(),
		runID:    runID,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (app *App) Registry() *registry.Registry {
	return app.registry
}

// Metrics returns the application's metrics. This is primarily for testing.
func (app *App) Metrics() *metrics.Metrics {
	return app.metrics
}

// RunID identifies this run in logs and in the output header.
func (app *App) RunID() string {
	return app.runID
}
