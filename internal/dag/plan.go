package dag

import "sort"

// ExecutionPlan is the static schedule derived from a flattened graph. It is
// read-only after Resolve returns.
type ExecutionPlan struct {
	// Order lists every node name in topological order: each node appears
	// after all of its direct predecessors. Ties are broken by lexicographic
	// node name, so the ordering is stable across runs.
	Order []string
	// Preds maps each node to the sorted set of nodes whose outputs it
	// directly consumes. The set is exact: no transitive closure.
	Preds map[string][]string
	// Rank maps each node to its position in Order.
	Rank map[string]int
}

// Predecessors returns the direct predecessor set of the named node. The
// returned slice is shared and must not be modified.
func (p *ExecutionPlan) Predecessors(name string) []string {
	return p.Preds[name]
}

// sortedKeys returns the keys of a string-keyed set in lexicographic order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
