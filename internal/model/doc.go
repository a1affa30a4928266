// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the in-memory intermediate representation of a
// pipeline package. Its core purpose is to hold a strongly-typed, immutable
// model of one or more pipeline graphs, and to statically validate that
// model before any further compilation stage runs.
//
// # Core Concepts
//
// The model is built around a few key structures:
//
//   - Package: The root container. It aggregates all graph definitions parsed
//     from one or more documents. Graphs in the same package can embed each
//     other as subgraphs.
//
//   - Graph: A named DAG of nodes and subgraph instances, with declared
//     typed inputs (placeholders for caller-provided values) and outputs
//     (each bound to a DataSource).
//
//   - Node: The atomic unit of work. It carries an opaque Entrypoint, an
//     optional opaque Framework block, a free-form config map, and typed
//     inputs/outputs. The model never interprets the entrypoint or framework
//     contents; they are passed through to the backend untouched.
//
//   - Subgraph: A named embedding of another graph definition from the same
//     package. Its inputs bind the embedded graph's inputs to sources in the
//     parent scope; its outputs re-declare the embedded graph's outputs for
//     consumers in the parent scope.
//
//   - DataSource: A closed set of reference kinds describing where an input
//     value comes from: a sibling node's output, a sibling subgraph's output,
//     or an input of the enclosing graph.
//
// Why a separate model package?
//
// This package is the contract between the document loader and the compiler
// stages. The loader turns free-form documents into this validated,
// traversable representation; the flattener, resolver, and backends operate
// on it read-only. All values are constructed once and never mutated, which
// is what allows independent compilations to share a Package safely.
package model
