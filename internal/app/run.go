package app

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/pipegraph/internal/backend"
	"github.com/vk/pipegraph/internal/ctxlog"
	"github.com/vk/pipegraph/internal/dag"
	"github.com/vk/pipegraph/internal/flatten"
)

// Run executes the compile lifecycle based on the provided configuration:
// load, validate, flatten, resolve, compile, render.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	pkg, err := a.loader.Load(ctx, cfg.PipelinePath)
	if err != nil {
		return fmt.Errorf("failed to load pipeline package: %w", err)
	}
	if err := pkg.Validate(); err != nil {
		return fmt.Errorf("invalid pipeline package: %w", err)
	}
	a.logger.Debug("Pipeline package validated.", "graph_count", len(pkg.Graphs))

	graphName, err := rootGraphName(cfg, pkg.GraphNames())
	if err != nil {
		return err
	}

	flat, err := flatten.Flatten(ctx, pkg, graphName)
	if err != nil {
		return fmt.Errorf("failed to flatten graph %q: %w", graphName, err)
	}
	a.logger.Debug("Graph flattened.", "graph", graphName, "node_count", len(flat.Nodes))

	plan, err := dag.Resolve(ctx, flat)
	if err != nil {
		return fmt.Errorf("failed to resolve execution order for graph %q: %w", graphName, err)
	}
	a.logger.Debug("Execution plan resolved.", "order", plan.Order)

	target, err := backend.New(cfg.Target)
	if err != nil {
		return err
	}
	manifest, err := target.Compile(ctx, flat, plan, backend.Config{
		ExchangeVolume: cfg.ExchangeVolume,
		InputBindings:  cfg.InputBindings,
		WorkerCommand:  cfg.WorkerCommand,
		WorkerImage:    cfg.WorkerImage,
	})
	if err != nil {
		return fmt.Errorf("backend %q failed to compile graph %q: %w", cfg.Target, graphName, err)
	}

	rendered, err := manifest.Render()
	if err != nil {
		return err
	}
	if cfg.OutputPath != "" {
		if err := os.WriteFile(cfg.OutputPath, rendered, 0o644); err != nil {
			return fmt.Errorf("failed to write manifest to %s: %w", cfg.OutputPath, err)
		}
		a.logger.Info("Manifest written.", "path", cfg.OutputPath, "target", cfg.Target)
		return nil
	}
	if _, err := a.outW.Write(rendered); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// rootGraphName picks the graph to compile. An explicit name wins; otherwise
// a single-graph package needs no flag.
func rootGraphName(cfg *Config, names []string) (string, error) {
	if cfg.GraphName != "" {
		return cfg.GraphName, nil
	}
	switch len(names) {
	case 0:
		return "", fmt.Errorf("no graphs found in %s", cfg.PipelinePath)
	case 1:
		return names[0], nil
	default:
		return "", fmt.Errorf("package defines %d graphs %v, select one with -graph", len(names), names)
	}
}
