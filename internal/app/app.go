// Package app wires the application together: logger, grid loading, graph
// construction, the scheduler run, and the rendered summary.
package app

import (
	"io"
	"log/slog"

	"github.com/mattmre/taskgrid/internal/executor"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *executor.Registry
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and the built-in
// runner registry.
func NewApp(outW io.Writer, config *Config) *App {
	logger := config.newLogger(outW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:     outW,
		logger:   logger,
		config:   config,
		registry: executor.Builtin(),
	}
}

// Registry returns the application's runner registry, so callers and tests
// can register additional executors before Run.
func (a *App) Registry() *executor.Registry {
	return a.registry
}
