// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Package structure, the root container for all graph
// definitions loaded from a user's pipeline documents.
//
// Why have a Package?
//
// A user may split their pipeline across many files, and a graph may embed
// any other graph defined anywhere in the workspace. The Package aggregates
// every definition into one registry so that subgraph references can be
// resolved workspace-wide, and so that recursion between definitions can be
// checked before anything is expanded.
package model

// Package is a registry of named graph definitions that may embed each other
// as subgraphs.
type Package struct {
	Graphs []*Graph
}

// NewPackage creates and returns an initialized, empty Package.
func NewPackage() *Package {
	return &Package{Graphs: []*Graph{}}
}

// GraphNames lists every graph definition name in declaration order.
func (p *Package) GraphNames() []string {
	names := make([]string, 0, len(p.Graphs))
	for _, g := range p.Graphs {
		names = append(names, g.Name)
	}
	return names
}

// Graph returns the graph definition with the given name, or nil.
func (p *Package) Graph(name string) *Graph {
	for _, g := range p.Graphs {
		if g.Name == name {
			return g
		}
	}
	return nil
}
