// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the typed compilation errors shared by the validator,
// the flattener, and the dependency resolver.
//
// Why typed errors?
//
// Compilation is pure: retrying with the same input cannot succeed, so the
// only useful thing an error can do is name the offending entity precisely.
// Each error type carries the fully-qualified dotted path of what went
// wrong, and callers can pick errors apart with errors.As instead of string
// matching.
package model

import (
	"fmt"
	"strings"
)

// DuplicateNameError reports two entities of the same kind sharing a name
// within one scope.
type DuplicateNameError struct {
	// Scope is the enclosing graph name, or "" for package-level clashes.
	Scope string
	// Kind describes what collided, e.g. "node or subgraph", "graph input".
	Kind string
	Name string
}

func (e *DuplicateNameError) Error() string {
	if e.Scope == "" {
		return fmt.Sprintf("duplicate %s name %q", e.Kind, e.Name)
	}
	return fmt.Sprintf("graph %q: duplicate %s name %q", e.Scope, e.Kind, e.Name)
}

// MissingSourceError reports an input declared without a data source.
type MissingSourceError struct {
	// Path is the fully-qualified input path, e.g. "evaluate.clean.data".
	Path string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("input %q has no data source", e.Path)
}

// UnresolvedReferenceError reports a data source that names a nonexistent
// producer, a nonexistent output on its producer, or one that could not be
// rewritten to a concrete producer during flattening.
type UnresolvedReferenceError struct {
	// Path is the fully-qualified path of the consumer.
	Path string
	// Ref is the unresolvable reference, in source syntax.
	Ref string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%s: unresolved reference %q", e.Path, e.Ref)
}

// TypeMismatchError reports a consumer whose declared IO type differs from
// the type its source produces. Both endpoints are named.
type TypeMismatchError struct {
	Consumer     string
	ConsumerType IOType
	Producer     string
	ProducerType IOType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s expects iotype %q but %s produces iotype %q",
		e.Consumer, e.ConsumerType, e.Producer, e.ProducerType)
}

// CycleError reports a cycle, either among graph definitions that embed each
// other or among the data-flow edges of a flattened graph. Nodes holds the
// complete cycle in order; the first element is repeated at the end.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Nodes, " -> "))
}
