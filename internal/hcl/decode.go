package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/vk/pipegraph/internal/model"
)

var graphSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "input", LabelNames: []string{"name"}},
		{Type: "output", LabelNames: []string{"name"}},
		{Type: "node", LabelNames: []string{"name"}},
		{Type: "subgraph", LabelNames: []string{"name"}},
	},
}

var nodeSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "config"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "entrypoint"},
		{Type: "framework", LabelNames: []string{"name"}},
		{Type: "input", LabelNames: []string{"name"}},
		{Type: "output", LabelNames: []string{"name"}},
	},
}

var subgraphSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "graph", Required: true},
		{Name: "config"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "input", LabelNames: []string{"name"}},
		{Type: "output", LabelNames: []string{"name"}},
	},
}

// declaredIOSchema covers blocks that declare a name and type only:
// graph inputs and node/subgraph outputs.
var declaredIOSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type", Required: true},
	},
}

// boundIOSchema covers blocks that additionally bind a source:
// graph outputs and node/subgraph inputs.
var boundIOSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type", Required: true},
		{Name: "source", Required: true},
	},
}

// hclEntrypoint is the decoding shape of an `entrypoint` block.
type hclEntrypoint struct {
	Version string  `hcl:"version"`
	Handler string  `hcl:"handler"`
	Runtime string  `hcl:"runtime"`
	CodeURL *string `hcl:"codeurl,optional"`
	Image   *string `hcl:"image,optional"`
}

func decodeGraph(block *hcl.Block) (*model.Graph, error) {
	graph := &model.Graph{Name: block.Labels[0]}

	content, diags := block.Body.Content(graphSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("graph %q: %w", graph.Name, diags)
	}

	for _, b := range content.Blocks {
		switch b.Type {
		case "input":
			ioType, err := decodeIOType(b, declaredIOSchema, nil)
			if err != nil {
				return nil, fmt.Errorf("graph %q: %w", graph.Name, err)
			}
			graph.Inputs = append(graph.Inputs, model.GraphInput{Name: b.Labels[0], Type: ioType})
		case "output":
			var source model.DataSource
			ioType, err := decodeIOType(b, boundIOSchema, &source)
			if err != nil {
				return nil, fmt.Errorf("graph %q: %w", graph.Name, err)
			}
			graph.Outputs = append(graph.Outputs, model.GraphOutput{Name: b.Labels[0], Type: ioType, Source: source})
		case "node":
			node, err := decodeNode(b)
			if err != nil {
				return nil, fmt.Errorf("graph %q: %w", graph.Name, err)
			}
			graph.Nodes = append(graph.Nodes, node)
		case "subgraph":
			sg, err := decodeSubgraph(b)
			if err != nil {
				return nil, fmt.Errorf("graph %q: %w", graph.Name, err)
			}
			graph.Subgraphs = append(graph.Subgraphs, sg)
		}
	}
	return graph, nil
}

func decodeNode(block *hcl.Block) (*model.Node, error) {
	node := &model.Node{Name: block.Labels[0]}

	content, diags := block.Body.Content(nodeSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("node %q: %w", node.Name, diags)
	}

	if attr, ok := content.Attributes["config"]; ok {
		config, err := decodeConfigMap(attr)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", node.Name, err)
		}
		node.Config = config
	}

	sawEntrypoint := false
	for _, b := range content.Blocks {
		switch b.Type {
		case "entrypoint":
			if sawEntrypoint {
				return nil, fmt.Errorf("node %q: duplicate entrypoint block", node.Name)
			}
			sawEntrypoint = true
			var ep hclEntrypoint
			if diags := gohcl.DecodeBody(b.Body, nil, &ep); diags.HasErrors() {
				return nil, fmt.Errorf("node %q: entrypoint: %w", node.Name, diags)
			}
			node.Entrypoint = model.Entrypoint{
				Version: ep.Version,
				Handler: ep.Handler,
				Runtime: ep.Runtime,
			}
			if ep.CodeURL != nil {
				node.Entrypoint.CodeURL = *ep.CodeURL
			}
			if ep.Image != nil {
				node.Entrypoint.Image = *ep.Image
			}
		case "framework":
			if node.Framework != nil {
				return nil, fmt.Errorf("node %q: duplicate framework block", node.Name)
			}
			config, err := decodeBodyAttributes(b.Body)
			if err != nil {
				return nil, fmt.Errorf("node %q: framework %q: %w", node.Name, b.Labels[0], err)
			}
			node.Framework = &model.Framework{Name: b.Labels[0], Config: config}
		case "input":
			var source model.DataSource
			ioType, err := decodeIOType(b, boundIOSchema, &source)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", node.Name, err)
			}
			node.Inputs = append(node.Inputs, model.Input{Name: b.Labels[0], Type: ioType, Source: source})
		case "output":
			ioType, err := decodeIOType(b, declaredIOSchema, nil)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", node.Name, err)
			}
			node.Outputs = append(node.Outputs, model.Output{Name: b.Labels[0], Type: ioType})
		}
	}

	if !sawEntrypoint {
		return nil, fmt.Errorf("node %q: missing entrypoint block", node.Name)
	}
	return node, nil
}

func decodeSubgraph(block *hcl.Block) (*model.Subgraph, error) {
	sg := &model.Subgraph{Name: block.Labels[0]}

	content, diags := block.Body.Content(subgraphSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("subgraph %q: %w", sg.Name, diags)
	}

	graphName, err := decodeStringAttribute(content.Attributes["graph"])
	if err != nil {
		return nil, fmt.Errorf("subgraph %q: %w", sg.Name, err)
	}
	sg.Graph = graphName

	if attr, ok := content.Attributes["config"]; ok {
		config, err := decodeConfigMap(attr)
		if err != nil {
			return nil, fmt.Errorf("subgraph %q: %w", sg.Name, err)
		}
		sg.Config = config
	}

	for _, b := range content.Blocks {
		switch b.Type {
		case "input":
			var source model.DataSource
			ioType, err := decodeIOType(b, boundIOSchema, &source)
			if err != nil {
				return nil, fmt.Errorf("subgraph %q: %w", sg.Name, err)
			}
			sg.Inputs = append(sg.Inputs, model.Input{Name: b.Labels[0], Type: ioType, Source: source})
		case "output":
			ioType, err := decodeIOType(b, declaredIOSchema, nil)
			if err != nil {
				return nil, fmt.Errorf("subgraph %q: %w", sg.Name, err)
			}
			sg.Outputs = append(sg.Outputs, model.Output{Name: b.Labels[0], Type: ioType})
		}
	}
	return sg, nil
}

// decodeIOType decodes an input/output block body against the given schema,
// returning its declared type and, when the schema includes one, its source.
func decodeIOType(block *hcl.Block, schema *hcl.BodySchema, source *model.DataSource) (model.IOType, error) {
	content, diags := block.Body.Content(schema)
	if diags.HasErrors() {
		return "", fmt.Errorf("%s %q: %w", block.Type, block.Labels[0], diags)
	}

	typeStr, err := decodeStringAttribute(content.Attributes["type"])
	if err != nil {
		return "", fmt.Errorf("%s %q: %w", block.Type, block.Labels[0], err)
	}

	if source != nil {
		src, err := decodeSource(content.Attributes["source"].Expr)
		if err != nil {
			return "", fmt.Errorf("%s %q: %w", block.Type, block.Labels[0], err)
		}
		*source = src
	}
	return model.IOType(typeStr), nil
}
