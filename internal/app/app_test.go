package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/vk/pipegraph/internal/backend/compose"
	"github.com/vk/pipegraph/internal/model"
)

// stubLoader returns a fixed in-memory package regardless of path.
type stubLoader struct {
	pkg *model.Package
}

func (s *stubLoader) Load(context.Context, string) (*model.Package, error) {
	return s.pkg, nil
}

func testPackage(graphs ...*model.Graph) *model.Package {
	return &model.Package{Graphs: graphs}
}

func pipelineGraph(name string) *model.Graph {
	return &model.Graph{
		Name:   name,
		Inputs: []model.GraphInput{{Name: "corpus", Type: model.IOTypeDirectory}},
		Nodes: []*model.Node{{
			Name:       "clean",
			Entrypoint: model.Entrypoint{Version: "v1", Handler: "pkg:clean", Runtime: "python:3.10"},
			Inputs:     []model.Input{{Name: "data", Type: model.IOTypeDirectory, Source: model.GraphInputRef{Input: "corpus"}}},
			Outputs:    []model.Output{{Name: "return", Type: model.IOTypeDirectory}},
		}},
		Outputs: []model.GraphOutput{{Name: "result", Type: model.IOTypeDirectory, Source: model.NodeOutput{Node: "clean", Output: "return"}}},
	}
}

func testAppConfig() *Config {
	return &Config{
		PipelinePath:   "pipeline.hcl",
		Target:         "docker-compose",
		InputBindings:  map[string]string{"corpus": "/data/corpus"},
		ExchangeVolume: "exchange",
		WorkerImage:    "pipegraph/worker:latest",
		WorkerCommand:  "pipegraph-worker",
		LogFormat:      "text",
		LogLevel:       "error",
	}
}

func TestRun_WritesManifestToWriter(t *testing.T) {
	t.Parallel()

	cfg := testAppConfig()
	out := &bytes.Buffer{}
	a := NewApp(out, cfg, &stubLoader{pkg: testPackage(pipelineGraph("main"))})

	require.NoError(t, a.Run(context.Background(), cfg))
	assert.Contains(t, out.String(), "services:")
	assert.Contains(t, out.String(), "clean:")
}

func TestRun_WritesManifestToFile(t *testing.T) {
	t.Parallel()

	cfg := testAppConfig()
	cfg.OutputPath = filepath.Join(t.TempDir(), "compose.yaml")
	out := &bytes.Buffer{}
	a := NewApp(out, cfg, &stubLoader{pkg: testPackage(pipelineGraph("main"))})

	require.NoError(t, a.Run(context.Background(), cfg))
	assert.Empty(t, out.String(), "nothing goes to the writer when an output file is set")
	assert.FileExists(t, cfg.OutputPath)
}

func TestRun_GraphSelection(t *testing.T) {
	t.Parallel()

	t.Run("single graph needs no flag", func(t *testing.T) {
		t.Parallel()
		cfg := testAppConfig()
		a := NewApp(&bytes.Buffer{}, cfg, &stubLoader{pkg: testPackage(pipelineGraph("only"))})
		assert.NoError(t, a.Run(context.Background(), cfg))
	})

	t.Run("multiple graphs require an explicit name", func(t *testing.T) {
		t.Parallel()
		cfg := testAppConfig()
		a := NewApp(&bytes.Buffer{}, cfg, &stubLoader{pkg: testPackage(pipelineGraph("one"), pipelineGraph("two"))})
		err := a.Run(context.Background(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "select one with -graph")
	})

	t.Run("explicit name wins", func(t *testing.T) {
		t.Parallel()
		cfg := testAppConfig()
		cfg.GraphName = "two"
		a := NewApp(&bytes.Buffer{}, cfg, &stubLoader{pkg: testPackage(pipelineGraph("one"), pipelineGraph("two"))})
		assert.NoError(t, a.Run(context.Background(), cfg))
	})
}

func TestRun_UnsupportedTarget(t *testing.T) {
	t.Parallel()

	cfg := testAppConfig()
	cfg.Target = "kubernetes"
	a := NewApp(&bytes.Buffer{}, cfg, &stubLoader{pkg: testPackage(pipelineGraph("main"))})

	err := a.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported backend target "kubernetes"`)
}

func TestRun_InvalidPackage(t *testing.T) {
	t.Parallel()

	g := pipelineGraph("main")
	g.Nodes = append(g.Nodes, g.Nodes[0]) // duplicate node name
	cfg := testAppConfig()
	a := NewApp(&bytes.Buffer{}, cfg, &stubLoader{pkg: testPackage(g)})

	err := a.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pipeline package")
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	t.Run("requires a pipeline path", func(t *testing.T) {
		t.Parallel()
		_, err := NewConfig(Config{Target: "docker-compose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PipelinePath")
	})

	t.Run("requires a target", func(t *testing.T) {
		t.Parallel()
		_, err := NewConfig(Config{PipelinePath: "x.hcl"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Target")
	})

	t.Run("generates a run-scoped exchange volume", func(t *testing.T) {
		t.Parallel()
		first, err := NewConfig(Config{PipelinePath: "x.hcl", Target: "docker-compose"})
		require.NoError(t, err)
		second, err := NewConfig(Config{PipelinePath: "x.hcl", Target: "docker-compose"})
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(first.ExchangeVolume, "pipegraph-exchange-"))
		assert.NotEqual(t, first.ExchangeVolume, second.ExchangeVolume)
	})

	t.Run("keeps an explicit volume name", func(t *testing.T) {
		t.Parallel()
		cfg, err := NewConfig(Config{PipelinePath: "x.hcl", Target: "docker-compose", ExchangeVolume: "shared"})
		require.NoError(t, err)
		assert.Equal(t, "shared", cfg.ExchangeVolume)
	})
}
