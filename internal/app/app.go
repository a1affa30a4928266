package app

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/vk/pipegraph/internal/model"
)

// Loader parses pipeline documents into a package of graph definitions.
type Loader interface {
	Load(ctx context.Context, path string) (*model.Package, error)
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	errW   io.Writer
	logger *slog.Logger
	loader Loader
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger. The manifest is
// written to outW (or the configured output file); logs go to stderr.
func NewApp(outW io.Writer, cfg *Config, loader Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		errW:   os.Stderr,
		logger: logger,
		loader: loader,
	}
}
