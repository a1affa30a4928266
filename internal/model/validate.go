// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file contains the structural validation pass over a package.
//
// Why validate before flattening?
//
// Every check here is purely structural: name uniqueness, reference
// resolution, exact iotype agreement between each consumer and its source,
// and acyclicity of the definition-reference graph. Running these checks on
// the nested form first means the flattener can assume every reference it
// rewrites actually resolves, and error messages can point at the entity the
// user wrote rather than at a synthesized dotted path.
package model

import "fmt"

// Validate checks the structural integrity of the package: graph name
// uniqueness, per-graph validity, subgraph reference conformance, and the
// absence of recursively nested definitions. It returns the first error
// found, typed per the compilation error taxonomy.
func (p *Package) Validate() error {
	seen := make(map[string]bool)
	for _, g := range p.Graphs {
		if seen[g.Name] {
			return &DuplicateNameError{Kind: "graph", Name: g.Name}
		}
		seen[g.Name] = true
	}
	for _, g := range p.Graphs {
		if err := p.validateGraph(g); err != nil {
			return err
		}
	}
	for _, g := range p.Graphs {
		if err := p.DefinitionCycle(g.Name); err != nil {
			return err
		}
	}
	return nil
}

// DefinitionCycle checks whether the graph definition with the given root
// name transitively embeds itself. It returns a CycleError naming the
// definition chain, or nil. Unresolvable references are ignored here; they
// are reported by validateGraph.
func (p *Package) DefinitionCycle(root string) error {
	var stack []string
	onStack := make(map[string]bool)

	var visit func(name string) error
	visit = func(name string) error {
		if onStack[name] {
			// Close the loop for reporting: a -> b -> a.
			for i, s := range stack {
				if s == name {
					cycle := append(append([]string(nil), stack[i:]...), name)
					return &CycleError{Nodes: cycle}
				}
			}
		}
		g := p.Graph(name)
		if g == nil {
			return nil
		}
		stack = append(stack, name)
		onStack[name] = true
		for _, sg := range g.Subgraphs {
			if err := visit(sg.Graph); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		onStack[name] = false
		return nil
	}

	return visit(root)
}

func (p *Package) validateGraph(g *Graph) error {
	// Nodes and subgraph instances share one namespace.
	names := make(map[string]bool)
	for _, n := range g.Nodes {
		if names[n.Name] {
			return &DuplicateNameError{Scope: g.Name, Kind: "node or subgraph", Name: n.Name}
		}
		names[n.Name] = true
	}
	for _, sg := range g.Subgraphs {
		if names[sg.Name] {
			return &DuplicateNameError{Scope: g.Name, Kind: "node or subgraph", Name: sg.Name}
		}
		names[sg.Name] = true
	}
	if err := validateIONames(g); err != nil {
		return err
	}

	for _, n := range g.Nodes {
		for _, in := range n.Inputs {
			path := fmt.Sprintf("%s.%s.%s", g.Name, n.Name, in.Name)
			if in.Source == nil {
				return &MissingSourceError{Path: path}
			}
			if err := g.resolveSource(path, in.Source, in.Type); err != nil {
				return err
			}
		}
	}
	for _, sg := range g.Subgraphs {
		if err := p.validateSubgraph(g, sg); err != nil {
			return err
		}
	}
	for i := range g.Outputs {
		out := &g.Outputs[i]
		path := fmt.Sprintf("%s.%s", g.Name, out.Name)
		if out.Source == nil {
			return &MissingSourceError{Path: path}
		}
		if err := g.resolveSource(path, out.Source, out.Type); err != nil {
			return err
		}
	}

	// A graph with no units of work is only useful as a pass-through.
	if len(g.Nodes) == 0 && len(g.Subgraphs) == 0 {
		ok := false
		for i := range g.Outputs {
			if _, isInput := g.Outputs[i].Source.(GraphInputRef); isInput {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("graph %q has no nodes and no output bound to a graph input", g.Name)
		}
	}
	return nil
}

// validateIONames checks input/output name uniqueness per scope.
func validateIONames(g *Graph) error {
	check := func(kind string, names []string) error {
		seen := make(map[string]bool)
		for _, name := range names {
			if seen[name] {
				return &DuplicateNameError{Scope: g.Name, Kind: kind, Name: name}
			}
			seen[name] = true
		}
		return nil
	}
	inputNames := func(inputs []Input) []string {
		out := make([]string, len(inputs))
		for i, in := range inputs {
			out[i] = in.Name
		}
		return out
	}
	outputNames := func(outputs []Output) []string {
		out := make([]string, len(outputs))
		for i, o := range outputs {
			out[i] = o.Name
		}
		return out
	}

	for _, n := range g.Nodes {
		if err := check(fmt.Sprintf("input of node %q", n.Name), inputNames(n.Inputs)); err != nil {
			return err
		}
		if err := check(fmt.Sprintf("output of node %q", n.Name), outputNames(n.Outputs)); err != nil {
			return err
		}
	}
	for _, sg := range g.Subgraphs {
		if err := check(fmt.Sprintf("input of subgraph %q", sg.Name), inputNames(sg.Inputs)); err != nil {
			return err
		}
		if err := check(fmt.Sprintf("output of subgraph %q", sg.Name), outputNames(sg.Outputs)); err != nil {
			return err
		}
	}

	var giNames, goNames []string
	for i := range g.Inputs {
		giNames = append(giNames, g.Inputs[i].Name)
	}
	for i := range g.Outputs {
		goNames = append(goNames, g.Outputs[i].Name)
	}
	if err := check("graph input", giNames); err != nil {
		return err
	}
	return check("graph output", goNames)
}

// validateSubgraph checks that a subgraph instance conforms to the graph
// definition it embeds: the definition exists, every declared input/output
// corresponds by name and iotype, and every input is wired to a valid
// parent-scope source.
func (p *Package) validateSubgraph(g *Graph, sg *Subgraph) error {
	def := p.Graph(sg.Graph)
	if def == nil {
		return &UnresolvedReferenceError{
			Path: fmt.Sprintf("%s.%s", g.Name, sg.Name),
			Ref:  fmt.Sprintf("graph %q", sg.Graph),
		}
	}
	for _, in := range sg.Inputs {
		path := fmt.Sprintf("%s.%s.%s", g.Name, sg.Name, in.Name)
		defIn := def.Input(in.Name)
		if defIn == nil {
			return &UnresolvedReferenceError{Path: path, Ref: fmt.Sprintf("input %q of graph %q", in.Name, def.Name)}
		}
		if defIn.Type != in.Type {
			return &TypeMismatchError{
				Consumer: path, ConsumerType: in.Type,
				Producer: fmt.Sprintf("%s.%s", def.Name, defIn.Name), ProducerType: defIn.Type,
			}
		}
		if in.Source == nil {
			return &MissingSourceError{Path: path}
		}
		if err := g.resolveSource(path, in.Source, in.Type); err != nil {
			return err
		}
	}
	for _, out := range sg.Outputs {
		path := fmt.Sprintf("%s.%s.%s", g.Name, sg.Name, out.Name)
		defOut := def.Output(out.Name)
		if defOut == nil {
			return &UnresolvedReferenceError{Path: path, Ref: fmt.Sprintf("output %q of graph %q", out.Name, def.Name)}
		}
		if defOut.Type != out.Type {
			return &TypeMismatchError{
				Consumer: path, ConsumerType: out.Type,
				Producer: fmt.Sprintf("%s.%s", def.Name, defOut.Name), ProducerType: defOut.Type,
			}
		}
	}
	return nil
}

// resolveSource checks that a data source names an existing producer and an
// existing output on that producer, and that the produced iotype exactly
// matches what the consumer declared. No coercion, ever.
func (g *Graph) resolveSource(consumerPath string, src DataSource, want IOType) error {
	var got IOType
	switch s := src.(type) {
	case GraphInputRef:
		in := g.Input(s.Input)
		if in == nil {
			return &UnresolvedReferenceError{Path: consumerPath, Ref: s.String()}
		}
		got = in.Type
	case NodeOutput:
		n := g.Node(s.Node)
		if n == nil {
			return &UnresolvedReferenceError{Path: consumerPath, Ref: s.String()}
		}
		out := n.Output(s.Output)
		if out == nil {
			return &UnresolvedReferenceError{Path: consumerPath, Ref: s.String()}
		}
		got = out.Type
	case SubgraphOutput:
		sg := g.Subgraph(s.Subgraph)
		if sg == nil {
			return &UnresolvedReferenceError{Path: consumerPath, Ref: s.String()}
		}
		out := sg.Output(s.Output)
		if out == nil {
			return &UnresolvedReferenceError{Path: consumerPath, Ref: s.String()}
		}
		got = out.Type
	default:
		return &UnresolvedReferenceError{Path: consumerPath, Ref: src.String()}
	}
	if got != want {
		return &TypeMismatchError{
			Consumer: consumerPath, ConsumerType: want,
			Producer: src.String(), ProducerType: got,
		}
	}
	return nil
}
