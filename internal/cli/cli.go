package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/pipegraph/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// bindingsFlag collects repeated "-input name=path" flags into a map.
type bindingsFlag map[string]string

func (b bindingsFlag) String() string {
	pairs := make([]string, 0, len(b))
	for name, path := range b {
		pairs = append(pairs, name+"="+path)
	}
	return strings.Join(pairs, ",")
}

func (b bindingsFlag) Set(value string) error {
	name, path, ok := strings.Cut(value, "=")
	if !ok || name == "" || path == "" {
		return fmt.Errorf("must be of the form name=path, got %q", value)
	}
	if _, exists := b[name]; exists {
		return fmt.Errorf("input %q bound twice", name)
	}
	b[name] = path
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("pipegraph", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Pipegraph - A pipeline-graph compiler for containerized workflows.

Usage:
  pipegraph [options] [PIPELINE_PATH]

Arguments:
  PIPELINE_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	pipelineFlag := flagSet.String("pipeline", "", "Path to the pipeline file or directory.")
	pFlag := flagSet.String("p", "", "Path to the pipeline file or directory (shorthand).")
	graphFlag := flagSet.String("graph", "", "Name of the root graph to compile. Optional when the package defines one graph.")
	targetFlag := flagSet.String("target", "docker-compose", "Backend target to compile for.")
	outFlag := flagSet.String("out", "", "Write the rendered manifest to this file instead of stdout.")
	volumeFlag := flagSet.String("volume", "", "Name of the shared exchange volume. Generated per run when empty.")
	workerImageFlag := flagSet.String("worker-image", "pipegraph/worker:latest", "Image for units without a pass-through image.")
	workerCommandFlag := flagSet.String("worker-command", "pipegraph-worker", "Executable invoked inside every unit.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	bindings := bindingsFlag{}
	flagSet.Var(bindings, "input", "Bind a declared graph input to a host path, as name=path. Repeatable.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *pipelineFlag != "" {
		path = *pipelineFlag
	} else if *pFlag != "" {
		path = *pFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Pipeline path determined.", "path", path)

	if path == "" {
		slog.Debug("No pipeline path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		PipelinePath:   path,
		GraphName:      *graphFlag,
		Target:         *targetFlag,
		OutputPath:     *outFlag,
		InputBindings:  bindings,
		ExchangeVolume: *volumeFlag,
		WorkerImage:    *workerImageFlag,
		WorkerCommand:  *workerCommandFlag,
		LogFormat:      logFormat,
		LogLevel:       logLevel,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
