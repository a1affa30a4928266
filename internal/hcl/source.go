package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/pipegraph/internal/model"
)

// decodeSource translates a bare reference expression into a DataSource.
// Valid forms are `input.<name>`, `node.<name>.<output>` and
// `subgraph.<name>.<output>`.
func decodeSource(expr hcl.Expression) (model.DataSource, error) {
	traversal, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() {
		return nil, fmt.Errorf("source must be a plain reference like node.<name>.<output>: %w", diags)
	}

	switch traversal.RootName() {
	case "input":
		if len(traversal) != 2 {
			return nil, fmt.Errorf("input reference must have the form input.<name>")
		}
		attr, ok := traversal[1].(hcl.TraverseAttr)
		if !ok {
			return nil, fmt.Errorf("invalid input reference")
		}
		return model.GraphInputRef{Input: attr.Name}, nil

	case "node":
		name, output, err := twoAttrs(traversal, "node.<name>.<output>")
		if err != nil {
			return nil, err
		}
		return model.NodeOutput{Node: name, Output: output}, nil

	case "subgraph":
		name, output, err := twoAttrs(traversal, "subgraph.<name>.<output>")
		if err != nil {
			return nil, err
		}
		return model.SubgraphOutput{Subgraph: name, Output: output}, nil

	default:
		return nil, fmt.Errorf("unknown source reference root %q", traversal.RootName())
	}
}

func twoAttrs(traversal hcl.Traversal, form string) (string, string, error) {
	if len(traversal) != 3 {
		return "", "", fmt.Errorf("reference must have the form %s", form)
	}
	first, ok1 := traversal[1].(hcl.TraverseAttr)
	second, ok2 := traversal[2].(hcl.TraverseAttr)
	if !ok1 || !ok2 {
		return "", "", fmt.Errorf("reference must have the form %s", form)
	}
	return first.Name, second.Name, nil
}
