package app

import (
	"errors"

	"github.com/google/uuid"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string // hcl files
	GraphName    string // root graph; may be empty when the package has one graph
	Target       string // backend target name
	OutputPath   string // rendered manifest destination; empty means stdout

	InputBindings  map[string]string
	ExchangeVolume string
	WorkerImage    string
	WorkerCommand  string

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.Target == "" {
		return nil, errors.New("Target is a required configuration field and cannot be empty")
	}

	// Compilation itself is deterministic; the run-scoped volume name is an
	// app-layer default and an explicit flag overrides it.
	if cfg.ExchangeVolume == "" {
		cfg.ExchangeVolume = "pipegraph-exchange-" + uuid.NewString()[:8]
	}

	return &cfg, nil
}
