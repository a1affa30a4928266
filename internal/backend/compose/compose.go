package compose

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/vk/pipegraph/internal/backend"
	"github.com/vk/pipegraph/internal/codec"
	"github.com/vk/pipegraph/internal/ctxlog"
	"github.com/vk/pipegraph/internal/dag"
	"github.com/vk/pipegraph/internal/model"
)

// Target is the registry name of this backend.
const Target = "docker-compose"

const (
	exchangeMountPath = "/pipegraph/exchange"
	inputsMountPath   = "/pipegraph/inputs"

	// synthesisService collects the graph's declared outputs. It always runs
	// last; an external caller waits on it for the pipeline's results.
	synthesisService = "outputs"
)

func init() {
	backend.Register(Target, func() backend.Backend { return &Compose{} })
}

// Compose compiles a flattened graph into a docker-compose manifest. The
// zero value is ready to use.
type Compose struct{}

func (c *Compose) Compile(ctx context.Context, g *model.Graph, plan *dag.ExecutionPlan, cfg backend.Config) (backend.Manifest, error) {
	log := ctxlog.FromContext(ctx)
	log.Debug("compiling compose manifest", "graph", g.Name, "nodes", len(plan.Order))

	if err := checkConfig(g, cfg); err != nil {
		return nil, err
	}

	inputsPayload, err := codec.EncodeGraphInputs(g.Inputs)
	if err != nil {
		return nil, err
	}
	inputsArg := base64.StdEncoding.EncodeToString(inputsPayload)

	manifest := &Manifest{volume: cfg.ExchangeVolume}
	for _, name := range plan.Order {
		svc, err := c.nodeService(g, g.Node(name), plan, cfg, inputsArg)
		if err != nil {
			return nil, err
		}
		manifest.services = append(manifest.services, yaml.MapItem{Key: name, Value: svc})
	}

	synthesis, err := c.synthesisService(g, cfg)
	if err != nil {
		return nil, err
	}
	manifest.services = append(manifest.services, yaml.MapItem{Key: synthesisService, Value: synthesis})
	return manifest, nil
}

// nodeService lays out one flat node as a compose service.
func (c *Compose) nodeService(g *model.Graph, n *model.Node, plan *dag.ExecutionPlan, cfg backend.Config, inputsArg string) (*service, error) {
	payload, err := codec.EncodeNode(n)
	if err != nil {
		return nil, err
	}

	svc := &service{
		Image: n.Entrypoint.Image,
		Command: []string{
			cfg.WorkerCommand, "run",
			"--node", base64.StdEncoding.EncodeToString(payload),
			"--graph-inputs", inputsArg,
			"--exchange", exchangeMountPath,
		},
		Volumes: []string{cfg.ExchangeVolume + ":" + exchangeMountPath},
		Labels: map[string]string{
			"pipegraph.graph":  g.Name,
			"pipegraph.node":   n.Name,
			"pipegraph.digest": codec.Digest(payload),
		},
	}
	if svc.Image == "" {
		svc.Image = cfg.WorkerImage
	}
	for _, pred := range plan.Predecessors(n.Name) {
		svc.DependsOn = append(svc.DependsOn, yaml.MapItem{
			Key:   pred,
			Value: dependsOn{Condition: completedSuccessfully},
		})
	}

	// Graph-input bindings are injected only into services that consume the
	// input, read-only.
	for _, inputName := range consumedGraphInputs(n.Inputs) {
		svc.Volumes = append(svc.Volumes,
			cfg.InputBindings[inputName]+":"+inputsMountPath+"/"+inputName+":ro")
	}

	if n.Framework != nil {
		svc.Framework = yaml.MapSlice{
			{Key: "name", Value: n.Framework.Name},
			{Key: "config", Value: sortedMapSlice(n.Framework.Config)},
		}
	}
	return svc, nil
}

// synthesisService lays out the unit that gates on every declared-output
// producer and carries the encoded graph-output list as its payload.
func (c *Compose) synthesisService(g *model.Graph, cfg backend.Config) (*service, error) {
	payload, err := codec.EncodeGraphOutputs(g.Outputs)
	if err != nil {
		return nil, err
	}

	producers := make(map[string]struct{})
	var passThrough []string
	for _, out := range g.Outputs {
		switch src := out.Source.(type) {
		case model.NodeOutput:
			producers[src.Node] = struct{}{}
		case model.GraphInputRef:
			passThrough = append(passThrough, src.Input)
		default:
			return nil, &codec.EncodingError{
				Entity: fmt.Sprintf("graph output %q", out.Name),
				Err:    fmt.Errorf("unresolved data source %s", out.Source),
			}
		}
	}

	svc := &service{
		Image: cfg.WorkerImage,
		Command: []string{
			cfg.WorkerCommand, "collect",
			"--outputs", base64.StdEncoding.EncodeToString(payload),
			"--exchange", exchangeMountPath,
		},
		Volumes: []string{cfg.ExchangeVolume + ":" + exchangeMountPath},
		Labels: map[string]string{
			"pipegraph.graph":  g.Name,
			"pipegraph.digest": codec.Digest(payload),
		},
	}
	for _, name := range sortedSet(producers) {
		svc.DependsOn = append(svc.DependsOn, yaml.MapItem{
			Key:   name,
			Value: dependsOn{Condition: completedSuccessfully},
		})
	}
	// Pass-through outputs are read straight from the caller's bindings.
	sort.Strings(passThrough)
	for _, inputName := range dedupe(passThrough) {
		svc.Volumes = append(svc.Volumes,
			cfg.InputBindings[inputName]+":"+inputsMountPath+"/"+inputName+":ro")
	}
	return svc, nil
}

// checkConfig rejects configurations that cannot produce a runnable
// manifest before any service is laid out.
func checkConfig(g *model.Graph, cfg backend.Config) error {
	if cfg.ExchangeVolume == "" {
		return fmt.Errorf("graph %q: exchange volume name must not be empty", g.Name)
	}
	if cfg.WorkerCommand == "" {
		return fmt.Errorf("graph %q: worker command must not be empty", g.Name)
	}
	if cfg.WorkerImage == "" {
		return fmt.Errorf("graph %q: worker image must not be empty", g.Name)
	}
	if g.Node(synthesisService) != nil {
		return fmt.Errorf("graph %q: node name %q collides with the synthesis unit", g.Name, synthesisService)
	}
	for _, in := range g.Inputs {
		if cfg.InputBindings[in.Name] == "" {
			return fmt.Errorf("graph %q: no binding for declared input %q", g.Name, in.Name)
		}
	}
	return nil
}

// consumedGraphInputs returns the distinct graph-input names a node's inputs
// reference, in lexicographic order.
func consumedGraphInputs(inputs []model.Input) []string {
	seen := make(map[string]struct{})
	for _, in := range inputs {
		if ref, ok := in.Source.(model.GraphInputRef); ok {
			seen[ref.Input] = struct{}{}
		}
	}
	return sortedSet(seen)
}

func sortedSet(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func dedupe(sorted []string) []string {
	var out []string
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}
