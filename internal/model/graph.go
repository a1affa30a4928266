// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Graph and Subgraph structures.
//
// Why keep subgraphs as references instead of nesting graph values?
//
// A subgraph instance names a sibling graph definition in the same package
// rather than embedding it. This keeps definitions shareable (the same graph
// can be instantiated many times) and makes recursion detectable at the
// definition level, before any instance is ever expanded.
package model

// GraphInput is a declared, typed input of a graph. It is a placeholder for
// a caller-provided value and therefore has no source.
type GraphInput struct {
	Name string
	Type IOType
}

// GraphOutput is a declared, typed output of a graph, bound to the source
// that produces it.
type GraphOutput struct {
	Name   string
	Type   IOType
	Source DataSource
}

// Subgraph is a named embedding of another graph definition in the same
// package. Its inputs bind the embedded graph's declared inputs to sources
// in the parent scope; its outputs re-declare the embedded graph's outputs
// for parent-scope consumers.
type Subgraph struct {
	Name string
	// Graph names the embedded graph definition.
	Graph   string
	Config  map[string]any
	Inputs  []Input
	Outputs []Output
}

// Output returns the declared output with the given name, or nil.
func (s *Subgraph) Output(name string) *Output {
	for i := range s.Outputs {
		if s.Outputs[i].Name == name {
			return &s.Outputs[i]
		}
	}
	return nil
}

// Input returns the declared input with the given name, or nil.
func (s *Subgraph) Input(name string) *Input {
	for i := range s.Inputs {
		if s.Inputs[i].Name == name {
			return &s.Inputs[i]
		}
	}
	return nil
}

// Graph is a named DAG of nodes and subgraph instances with declared inputs
// and outputs.
type Graph struct {
	Name      string
	Nodes     []*Node
	Subgraphs []*Subgraph
	Inputs    []GraphInput
	Outputs   []GraphOutput
}

// Node returns the node with the given name, or nil.
func (g *Graph) Node(name string) *Node {
	for _, n := range g.Nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Subgraph returns the subgraph instance with the given name, or nil.
func (g *Graph) Subgraph(name string) *Subgraph {
	for _, s := range g.Subgraphs {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Input returns the declared graph input with the given name, or nil.
func (g *Graph) Input(name string) *GraphInput {
	for i := range g.Inputs {
		if g.Inputs[i].Name == name {
			return &g.Inputs[i]
		}
	}
	return nil
}

// Output returns the declared graph output with the given name, or nil.
func (g *Graph) Output(name string) *GraphOutput {
	for i := range g.Outputs {
		if g.Outputs[i].Name == name {
			return &g.Outputs[i]
		}
	}
	return nil
}
