// Package backend defines the pluggable target interface of the compiler
// and the registry of available targets. A backend projects a flattened
// graph and its execution plan onto a deployable unit-of-work model for a
// specific runtime; it performs no I/O and holds no state, so a single
// backend value may serve concurrent compilations.
package backend
