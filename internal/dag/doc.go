// Package dag derives a static execution plan from the data-flow edges of a
// flattened graph. It builds a producer -> consumer edge for every node
// output consumed by another node, rejects cycles (reporting the full cycle
// sequence), and produces a deterministic topological ordering together with
// each node's exact direct-predecessor set.
package dag
