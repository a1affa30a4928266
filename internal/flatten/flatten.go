package flatten

import (
	"context"
	"fmt"

	"github.com/vk/pipegraph/internal/ctxlog"
	"github.com/vk/pipegraph/internal/model"
)

// Flatten resolves the named graph from the package into a flat graph with
// zero subgraph instances. After flattening, every node name is a dotted
// path reflecting the original nesting and every data source is either a
// NodeOutput pointing at another node of the flat graph or a GraphInputRef
// pointing at a root-level declared input.
//
// The result is re-validated before being returned, so type mismatches
// introduced by rewriting surface here as well.
func Flatten(ctx context.Context, pkg *model.Package, graphName string) (*model.Graph, error) {
	logger := ctxlog.FromContext(ctx)

	root := pkg.Graph(graphName)
	if root == nil {
		return nil, &model.UnresolvedReferenceError{Path: graphName, Ref: fmt.Sprintf("graph %q", graphName)}
	}
	// Recursion between definitions must be ruled out before any instance
	// is expanded, otherwise the expansion below would not terminate.
	if err := pkg.DefinitionCycle(graphName); err != nil {
		return nil, err
	}

	flat, err := flattenGraph(pkg, root)
	if err != nil {
		return nil, err
	}
	logger.Debug("Flattening complete.", "graph", graphName, "node_count", len(flat.Nodes))

	// Re-run structural validation on the flat form. Rewriting preserves
	// types, but the checks are cheap and this is the last gate before the
	// resolver and backends trust every reference blindly.
	check := &model.Package{Graphs: []*model.Graph{flat}}
	if err := check.Validate(); err != nil {
		return nil, err
	}
	return flat, nil
}

// flattenGraph performs the depth-first expansion of one graph definition.
// The returned graph contains only nodes; its inputs are the definition's
// own inputs, and its output sources have been rewritten to point at inlined
// nodes or at those inputs.
func flattenGraph(pkg *model.Package, g *model.Graph) (*model.Graph, error) {
	flat := &model.Graph{
		Name:   g.Name,
		Inputs: append([]model.GraphInput(nil), g.Inputs...),
	}
	for _, n := range g.Nodes {
		flat.Nodes = append(flat.Nodes, n.Clone())
	}
	flat.Outputs = append([]model.GraphOutput(nil), g.Outputs...)

	// resolved maps an already-inlined instance name to the concrete source
	// of each of its declared outputs.
	resolved := make(map[string]map[string]model.DataSource)

	for _, sg := range g.Subgraphs {
		def := pkg.Graph(sg.Graph)
		if def == nil {
			return nil, &model.UnresolvedReferenceError{
				Path: fmt.Sprintf("%s.%s", g.Name, sg.Name),
				Ref:  fmt.Sprintf("graph %q", sg.Graph),
			}
		}
		sub, err := flattenGraph(pkg, def)
		if err != nil {
			return nil, err
		}

		// binding maps the embedded graph's input names to the sources the
		// instance wired them to in this (parent) scope.
		binding := make(map[string]model.DataSource, len(sg.Inputs))
		for _, in := range sg.Inputs {
			binding[in.Name] = in.Source
		}

		// Inline the nodes of the flattened definition under the instance's
		// name prefix, rewriting their sources into parent scope.
		for _, n := range sub.Nodes {
			c := n.Clone()
			path := fmt.Sprintf("%s.%s.%s", g.Name, sg.Name, n.Name)
			c.Name = sg.Name + "." + n.Name
			for i := range c.Inputs {
				src, err := liftSource(path, c.Inputs[i].Source, sg.Name, binding, resolved)
				if err != nil {
					return nil, err
				}
				c.Inputs[i].Source = src
			}
			flat.Nodes = append(flat.Nodes, c)
		}

		// Resolve the instance's declared outputs to parent-scope sources.
		outs := make(map[string]model.DataSource, len(sub.Outputs))
		for i := range sub.Outputs {
			o := &sub.Outputs[i]
			path := fmt.Sprintf("%s.%s.%s", g.Name, sg.Name, o.Name)
			src, err := liftSource(path, o.Source, sg.Name, binding, resolved)
			if err != nil {
				return nil, err
			}
			outs[o.Name] = src
		}
		resolved[sg.Name] = outs

		// Rewrite every consumer accumulated so far that still references
		// this instance's outputs. Consumers referencing instances that
		// appear later in the list are handled on those instances' turns.
		if err := rewriteConsumers(g.Name, flat, sg.Name, outs, resolved); err != nil {
			return nil, err
		}
	}

	// Fixed-point check: nothing may still reference a subgraph instance.
	for _, n := range flat.Nodes {
		for i := range n.Inputs {
			if s, ok := n.Inputs[i].Source.(model.SubgraphOutput); ok {
				return nil, &model.UnresolvedReferenceError{
					Path: fmt.Sprintf("%s.%s.%s", g.Name, n.Name, n.Inputs[i].Name),
					Ref:  s.String(),
				}
			}
		}
	}
	for i := range flat.Outputs {
		if s, ok := flat.Outputs[i].Source.(model.SubgraphOutput); ok {
			return nil, &model.UnresolvedReferenceError{
				Path: fmt.Sprintf("%s.%s", g.Name, flat.Outputs[i].Name),
				Ref:  s.String(),
			}
		}
	}
	return flat, nil
}

// liftSource rewrites a source from inside an inlined (already flat)
// definition into the parent scope:
//
//   - a NodeOutput gains the instance's dotted prefix;
//   - a GraphInputRef is substituted with whatever source the instance bound
//     that input to in the parent scope. If that source in turn references a
//     sibling instance that was already inlined, it is resolved immediately;
//     references to siblings not yet inlined are left for rewriteConsumers.
//
// SubgraphOutput cannot occur here: the definition was flattened first.
func liftSource(path string, src model.DataSource, prefix string,
	binding map[string]model.DataSource, resolved map[string]map[string]model.DataSource,
) (model.DataSource, error) {
	switch s := src.(type) {
	case model.NodeOutput:
		return model.NodeOutput{Node: prefix + "." + s.Node, Output: s.Output}, nil
	case model.GraphInputRef:
		outer, ok := binding[s.Input]
		if !ok {
			return nil, &model.UnresolvedReferenceError{Path: path, Ref: s.String()}
		}
		return chase(path, outer, resolved)
	default:
		return nil, &model.UnresolvedReferenceError{Path: path, Ref: src.String()}
	}
}

// chase follows a source through the outputs of already-inlined instances
// until it lands on a node output, a graph input, or an instance that has
// not been inlined yet (whose own rewrite pass will finish the job). The
// iteration bound guards against instance-level reference loops.
func chase(path string, src model.DataSource, resolved map[string]map[string]model.DataSource) (model.DataSource, error) {
	for i := 0; i <= len(resolved); i++ {
		s, ok := src.(model.SubgraphOutput)
		if !ok {
			return src, nil
		}
		outs, done := resolved[s.Subgraph]
		if !done {
			return src, nil
		}
		concrete, ok := outs[s.Output]
		if !ok {
			return nil, &model.UnresolvedReferenceError{Path: path, Ref: s.String()}
		}
		src = concrete
	}
	return nil, &model.UnresolvedReferenceError{Path: path, Ref: src.String()}
}

// rewriteConsumers replaces every remaining reference to the given instance's
// outputs, across all nodes inlined so far and the graph's own outputs.
func rewriteConsumers(graphName string, flat *model.Graph, instance string, outs map[string]model.DataSource,
	resolved map[string]map[string]model.DataSource,
) error {
	replace := func(path string, src model.DataSource) (model.DataSource, error) {
		s, ok := src.(model.SubgraphOutput)
		if !ok || s.Subgraph != instance {
			return src, nil
		}
		concrete, ok := outs[s.Output]
		if !ok {
			return nil, &model.UnresolvedReferenceError{Path: path, Ref: s.String()}
		}
		return chase(path, concrete, resolved)
	}

	for _, n := range flat.Nodes {
		for i := range n.Inputs {
			path := fmt.Sprintf("%s.%s.%s", graphName, n.Name, n.Inputs[i].Name)
			src, err := replace(path, n.Inputs[i].Source)
			if err != nil {
				return err
			}
			n.Inputs[i].Source = src
		}
	}
	for i := range flat.Outputs {
		path := fmt.Sprintf("%s.%s", graphName, flat.Outputs[i].Name)
		src, err := replace(path, flat.Outputs[i].Source)
		if err != nil {
			return err
		}
		flat.Outputs[i].Source = src
	}
	return nil
}
