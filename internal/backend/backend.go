package backend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vk/pipegraph/internal/dag"
	"github.com/vk/pipegraph/internal/model"
)

// Config carries the target-independent knobs a backend needs to lay out
// deployable units.
type Config struct {
	// ExchangeVolume names the shared scratch area through which units pass
	// artifacts between steps.
	ExchangeVolume string
	// InputBindings maps each graph-level input name to the host location
	// backing it. Bindings are injected only into units that consume the
	// input.
	InputBindings map[string]string
	// WorkerCommand is the executable invoked inside every unit. It receives
	// the encoded node descriptor and graph-input manifest.
	WorkerCommand string
	// WorkerImage is the image used for units without a pass-through image,
	// including the synthesis unit.
	WorkerImage string
}

// Manifest is a backend-specific deployment description. Render serializes
// it into the target's textual form.
type Manifest interface {
	Render() ([]byte, error)
}

// Backend compiles a flattened graph plus its execution plan into a
// manifest. Implementations must be pure: no I/O, no shared mutable state,
// and either a complete manifest or an error, never both.
type Backend interface {
	Compile(ctx context.Context, g *model.Graph, plan *dag.ExecutionPlan, cfg Config) (Manifest, error)
}

// UnsupportedTargetError reports a target name with no registered backend.
type UnsupportedTargetError struct {
	Target    string
	Available []string
}

func (e *UnsupportedTargetError) Error() string {
	return fmt.Sprintf("unsupported backend target %q (available: %s)",
		e.Target, strings.Join(e.Available, ", "))
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func() Backend)
)

// Register makes a backend constructor available under a target name.
// Backends register themselves from an init function.
func Register(target string, factory func() Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[target]; exists {
		panic(fmt.Sprintf("backend target %q registered twice", target))
	}
	registry[target] = factory
}

// New returns the backend registered for the given target name.
func New(target string) (Backend, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[target]
	if !ok {
		return nil, &UnsupportedTargetError{Target: target, Available: targets()}
	}
	return factory(), nil
}

// Targets lists the registered target names in lexicographic order.
func Targets() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return targets()
}

// targets must be called with registryMu held.
func targets() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
