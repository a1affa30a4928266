// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Node structure, the atomic unit of work in a graph.
//
// Why opaque Entrypoint and Framework blocks?
//
// The compiler never executes a node; it only schedules one. Everything a
// runtime needs to actually run the handler (handler reference, runtime tag,
// image, framework plugin config) is carried through the compilation
// pipeline untouched and handed to the backend verbatim. Keeping these
// fields opaque is what decouples the core from any particular execution
// runtime or training framework.
package model

// Entrypoint references the code executed by a node. All fields are opaque
// to the compiler and are forwarded to the backend as-is.
type Entrypoint struct {
	// Version is the handler API version, e.g. "v1".
	Version string
	// Handler is the runtime-specific handler reference,
	// e.g. "examples.wordfreq:clean" for a python runtime.
	Handler string
	// Runtime identifies the handler's runtime, e.g. "python:3.9".
	Runtime string
	// CodeURL optionally locates the handler code. Empty means the code is
	// already present in the runtime environment or image.
	CodeURL string
	// Image optionally names a pre-built container image for the handler.
	// The compiler passes it through; it never assigns image tags itself.
	Image string
}

// Framework is an opaque execution-framework block (e.g. an elastic-training
// plugin). The compiler forwards it verbatim into the backend manifest.
type Framework struct {
	Name   string
	Config map[string]any
}

// Input is a named, typed input of a node or subgraph instance, bound to
// exactly one DataSource. A nil Source is a validation error.
type Input struct {
	Name   string
	Type   IOType
	Source DataSource
}

// Output is a named, typed output of a node or subgraph instance.
type Output struct {
	Name string
	Type IOType
}

// Node is a single unit of work with typed inputs and outputs.
type Node struct {
	Name       string
	Entrypoint Entrypoint
	Framework  *Framework
	Config     map[string]any
	Inputs     []Input
	Outputs    []Output
}

// Clone returns a copy of the node whose name and input sources can be
// rewritten without affecting the original. Config and framework maps are
// shared: they are read-only for the whole lifetime of a model.
func (n *Node) Clone() *Node {
	c := *n
	c.Inputs = append([]Input(nil), n.Inputs...)
	c.Outputs = append([]Output(nil), n.Outputs...)
	return &c
}

// Output returns the declared output with the given name, or nil.
func (n *Node) Output(name string) *Output {
	for i := range n.Outputs {
		if n.Outputs[i].Name == name {
			return &n.Outputs[i]
		}
	}
	return nil
}
