package compose

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pipegraph/internal/backend"
	"github.com/vk/pipegraph/internal/codec"
	"github.com/vk/pipegraph/internal/dag"
	"github.com/vk/pipegraph/internal/model"
)

// flatGraph is a hand-flattened pipeline: clean feeds train, the model is a
// declared output, and a second graph input passes straight through.
func flatGraph() *model.Graph {
	return &model.Graph{
		Name: "main",
		Inputs: []model.GraphInput{
			{Name: "corpus", Type: model.IOTypeDirectory},
			{Name: "seed", Type: model.IOTypeFile},
		},
		Nodes: []*model.Node{
			{
				Name:       "clean",
				Entrypoint: model.Entrypoint{Version: "v1", Handler: "pkg:clean", Runtime: "python:3.10"},
				Inputs:     []model.Input{{Name: "data", Type: model.IOTypeDirectory, Source: model.GraphInputRef{Input: "corpus"}}},
				Outputs:    []model.Output{{Name: "return", Type: model.IOTypeDirectory}},
			},
			{
				Name: "train",
				Entrypoint: model.Entrypoint{
					Version: "v1", Handler: "pkg:train", Runtime: "python:3.10",
					Image: "registry.local/train:2.0",
				},
				Framework: &model.Framework{Name: "adaptdl", Config: map[string]any{"min_replicas": int64(1)}},
				Inputs:    []model.Input{{Name: "data", Type: model.IOTypeDirectory, Source: model.NodeOutput{Node: "clean", Output: "return"}}},
				Outputs:   []model.Output{{Name: "return", Type: model.IOTypeFile}},
			},
		},
		Outputs: []model.GraphOutput{
			{Name: "model", Type: model.IOTypeFile, Source: model.NodeOutput{Node: "train", Output: "return"}},
			{Name: "echo", Type: model.IOTypeFile, Source: model.GraphInputRef{Input: "seed"}},
		},
	}
}

func testConfig() backend.Config {
	return backend.Config{
		ExchangeVolume: "exchange",
		InputBindings: map[string]string{
			"corpus": "/data/corpus",
			"seed":   "/data/seed.txt",
		},
		WorkerCommand: "pipegraph-worker",
		WorkerImage:   "pipegraph/worker:latest",
	}
}

func compile(t *testing.T, g *model.Graph, cfg backend.Config) *Manifest {
	t.Helper()
	plan, err := dag.Resolve(context.Background(), g)
	require.NoError(t, err)

	manifest, err := (&Compose{}).Compile(context.Background(), g, plan, cfg)
	require.NoError(t, err)
	return manifest.(*Manifest)
}

func TestCompile_ServiceLayout(t *testing.T) {
	t.Parallel()

	manifest := compile(t, flatGraph(), testConfig())

	// One service per flat node, in execution order, synthesis unit last.
	var names []string
	for _, item := range manifest.services {
		names = append(names, item.Key.(string))
	}
	require.Equal(t, []string{"clean", "train", "outputs"}, names)

	clean := manifest.services[0].Value.(*service)
	assert.Equal(t, "pipegraph/worker:latest", clean.Image, "no pass-through image, worker image applies")
	assert.Empty(t, clean.DependsOn)
	assert.Equal(t, []string{
		"exchange:/pipegraph/exchange",
		"/data/corpus:/pipegraph/inputs/corpus:ro",
	}, clean.Volumes)

	train := manifest.services[1].Value.(*service)
	assert.Equal(t, "registry.local/train:2.0", train.Image, "pass-through image wins")
	require.Len(t, train.DependsOn, 1)
	assert.Equal(t, "clean", train.DependsOn[0].Key)
	assert.Equal(t, dependsOn{Condition: completedSuccessfully}, train.DependsOn[0].Value)
	assert.Equal(t, []string{"exchange:/pipegraph/exchange"}, train.Volumes,
		"no graph-input binding for a service that consumes none")
	require.NotEmpty(t, train.Framework)
	assert.Equal(t, "adaptdl", train.Framework[0].Value)
}

func TestCompile_WorkerCommandPayloads(t *testing.T) {
	t.Parallel()

	g := flatGraph()
	manifest := compile(t, g, testConfig())

	clean := manifest.services[0].Value.(*service)
	require.Len(t, clean.Command, 8)
	assert.Equal(t, "pipegraph-worker", clean.Command[0])
	assert.Equal(t, "run", clean.Command[1])
	assert.Equal(t, "--node", clean.Command[2])
	assert.Equal(t, "--graph-inputs", clean.Command[4])
	assert.Equal(t, []string{"--exchange", "/pipegraph/exchange"}, clean.Command[6:])

	// The embedded descriptor round-trips to the original node.
	payload, err := base64.StdEncoding.DecodeString(clean.Command[3])
	require.NoError(t, err)
	decoded, err := codec.DecodeNode(payload)
	require.NoError(t, err)
	assert.Equal(t, g.Nodes[0], decoded)

	inputsPayload, err := base64.StdEncoding.DecodeString(clean.Command[5])
	require.NoError(t, err)
	inputs, err := codec.DecodeGraphInputs(inputsPayload)
	require.NoError(t, err)
	assert.Equal(t, g.Inputs, inputs)
}

func TestCompile_SynthesisService(t *testing.T) {
	t.Parallel()

	g := flatGraph()
	manifest := compile(t, g, testConfig())

	synthesis := manifest.services[2].Value.(*service)
	assert.Equal(t, "pipegraph/worker:latest", synthesis.Image)
	assert.Equal(t, "collect", synthesis.Command[1])

	// Gated on every declared-output producer; the pass-through output adds
	// its input binding instead of an ordering edge.
	require.Len(t, synthesis.DependsOn, 1)
	assert.Equal(t, "train", synthesis.DependsOn[0].Key)
	assert.Equal(t, []string{
		"exchange:/pipegraph/exchange",
		"/data/seed.txt:/pipegraph/inputs/seed:ro",
	}, synthesis.Volumes)

	payload, err := base64.StdEncoding.DecodeString(synthesis.Command[3])
	require.NoError(t, err)
	outputs, err := codec.DecodeGraphOutputs(payload)
	require.NoError(t, err)
	assert.Equal(t, g.Outputs, outputs)
}

func TestCompile_RenderIsDeterministic(t *testing.T) {
	t.Parallel()

	first, err := compile(t, flatGraph(), testConfig()).Render()
	require.NoError(t, err)
	second, err := compile(t, flatGraph(), testConfig()).Render()
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestCompile_RenderedDocument(t *testing.T) {
	t.Parallel()

	out, err := compile(t, flatGraph(), testConfig()).Render()
	require.NoError(t, err)
	doc := string(out)

	assert.True(t, strings.Index(doc, "clean:") < strings.Index(doc, "train:"),
		"services render in execution order")
	assert.True(t, strings.Index(doc, "train:") < strings.Index(doc, "outputs:"))
	assert.Contains(t, doc, "condition: service_completed_successfully")
	assert.Contains(t, doc, "x-pipegraph-framework:")
	assert.Contains(t, doc, "pipegraph.digest:")
	assert.Contains(t, doc, "volumes:")
	assert.Contains(t, doc, "exchange:")
}

func TestCompile_ConfigErrors(t *testing.T) {
	t.Parallel()

	plan, err := dag.Resolve(context.Background(), flatGraph())
	require.NoError(t, err)

	cases := []struct {
		name    string
		mutate  func(*backend.Config)
		wantErr string
	}{
		{
			name:    "missing exchange volume",
			mutate:  func(c *backend.Config) { c.ExchangeVolume = "" },
			wantErr: "exchange volume name must not be empty",
		},
		{
			name:    "missing worker command",
			mutate:  func(c *backend.Config) { c.WorkerCommand = "" },
			wantErr: "worker command must not be empty",
		},
		{
			name:    "missing worker image",
			mutate:  func(c *backend.Config) { c.WorkerImage = "" },
			wantErr: "worker image must not be empty",
		},
		{
			name:    "unbound graph input",
			mutate:  func(c *backend.Config) { delete(c.InputBindings, "seed") },
			wantErr: `no binding for declared input "seed"`,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig()
			tc.mutate(&cfg)
			_, err := (&Compose{}).Compile(context.Background(), flatGraph(), plan, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestCompile_SynthesisNameCollision(t *testing.T) {
	t.Parallel()

	g := flatGraph()
	g.Nodes = append(g.Nodes, &model.Node{
		Name:       "outputs",
		Entrypoint: model.Entrypoint{Version: "v1", Handler: "pkg:outputs", Runtime: "python:3.10"},
		Outputs:    []model.Output{{Name: "return", Type: model.IOTypeFile}},
	})
	plan, err := dag.Resolve(context.Background(), g)
	require.NoError(t, err)

	_, err = (&Compose{}).Compile(context.Background(), g, plan, testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collides with the synthesis unit")
}

func TestBackendRegistration(t *testing.T) {
	t.Parallel()

	b, err := backend.New(Target)
	require.NoError(t, err)
	assert.IsType(t, &Compose{}, b)

	_, err = backend.New("kubernetes")
	var unsupported *backend.UnsupportedTargetError
	require.ErrorAs(t, err, &unsupported)
	assert.Contains(t, unsupported.Available, Target)
}
