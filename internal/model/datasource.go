// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines DataSource, the reference type that wires the graph
// together.
//
// Why a sealed interface instead of three optional fields?
//
// A source is exactly one of three reference kinds. Modeling it as a sum
// type forces every consumer into an exhaustive type switch, so "exactly one
// variant is set" holds by construction instead of being a runtime assertion
// scattered across the compiler.
package model

import "fmt"

// DataSource describes where an input's value comes from. Implementations
// are small value types; compare them with ==.
type DataSource interface {
	// String renders the source in reference syntax, e.g. "node.clean.return".
	String() string

	isDataSource()
}

// NodeOutput references an output of a sibling node in the same graph.
type NodeOutput struct {
	Node   string
	Output string
}

func (s NodeOutput) String() string { return fmt.Sprintf("node.%s.%s", s.Node, s.Output) }
func (NodeOutput) isDataSource()    {}

// SubgraphOutput references a declared output of a sibling subgraph instance.
type SubgraphOutput struct {
	Subgraph string
	Output   string
}

func (s SubgraphOutput) String() string { return fmt.Sprintf("subgraph.%s.%s", s.Subgraph, s.Output) }
func (SubgraphOutput) isDataSource()    {}

// GraphInputRef references a declared input of the enclosing graph.
type GraphInputRef struct {
	Input string
}

func (s GraphInputRef) String() string { return fmt.Sprintf("input.%s", s.Input) }
func (GraphInputRef) isDataSource()    {}
