package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/pipegraph/internal/ctxlog"
	"github.com/vk/pipegraph/internal/fsutil"
	"github.com/vk/pipegraph/internal/model"
)

// Loader parses HCL pipeline documents into a model.Package.
type Loader struct{}

// NewLoader creates a new HCL pipeline document loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load discovers every .hcl file under the given path (a single file or a
// directory walked recursively) and aggregates all graph definitions found
// into one package.
func (l *Loader) Load(ctx context.Context, path string) (*model.Package, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find pipeline files in %s: %w", path, err)
	}

	pkg := model.NewPackage()
	if len(files) == 0 {
		logger.Warn("No .hcl pipeline files found in path, returning empty package.", "path", path)
		return pkg, nil
	}

	parser := hclparse.NewParser()
	for _, file := range files {
		graphs, err := l.parseFile(file, parser)
		if err != nil {
			return nil, err
		}
		pkg.Graphs = append(pkg.Graphs, graphs...)
	}

	logger.Debug("HCL loading complete.", "file_count", len(files), "graph_count", len(pkg.Graphs))
	return pkg, nil
}

// parseFile parses a single HCL file and returns the graph definitions in it.
func (l *Loader) parseFile(filePath string, parser *hclparse.Parser) ([]*model.Graph, error) {
	hclFile, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
	}
	return decodeFileBody(filePath, hclFile.Body)
}

// Parse decodes pipeline graphs from an in-memory HCL document. The filename
// is only used in diagnostics.
func (l *Loader) Parse(filename string, src []byte) ([]*model.Graph, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL document %s: %w", filename, diags)
	}
	return decodeFileBody(filename, hclFile.Body)
}

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "graph", LabelNames: []string{"name"}},
	},
}

func decodeFileBody(filename string, body hcl.Body) ([]*model.Graph, error) {
	content, diags := body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	graphs := make([]*model.Graph, 0, len(content.Blocks))
	for _, block := range content.Blocks {
		graph, err := decodeGraph(block)
		if err != nil {
			return nil, fmt.Errorf("error in file %s: %w", filename, err)
		}
		graphs = append(graphs, graph)
	}
	return graphs, nil
}
