package dag

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/pipegraph/internal/ctxlog"
	"github.com/vk/pipegraph/internal/model"
)

// Resolve derives an execution plan from a flattened graph. Every NodeOutput
// source on a consumer's input becomes a producer -> consumer edge; a cycle
// among those edges is fatal and reported with its complete node sequence.
func Resolve(ctx context.Context, g *model.Graph) (*ExecutionPlan, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolve: deriving execution order.", "graph", g.Name, "node_count", len(g.Nodes))

	// deps[consumer] is the set of producers it directly consumes;
	// dependents is the reverse adjacency, used by the Kahn walk below.
	deps := make(map[string]map[string]bool, len(g.Nodes))
	dependents := make(map[string]map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		deps[n.Name] = make(map[string]bool)
		dependents[n.Name] = make(map[string]bool)
	}
	for _, n := range g.Nodes {
		for _, in := range n.Inputs {
			src, ok := in.Source.(model.NodeOutput)
			if !ok {
				continue
			}
			if _, exists := deps[src.Node]; !exists {
				return nil, &model.UnresolvedReferenceError{
					Path: fmt.Sprintf("%s.%s.%s", g.Name, n.Name, in.Name),
					Ref:  src.String(),
				}
			}
			deps[n.Name][src.Node] = true
			dependents[src.Node][n.Name] = true
		}
	}

	// Kahn's algorithm. Among the currently-ready nodes, always emit the
	// lexicographically smallest name so the plan is deterministic.
	inDegree := make(map[string]int, len(deps))
	var ready []string
	for name, set := range deps {
		inDegree[name] = len(set)
		if len(set) == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(deps))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)
		for _, dep := range sortedKeys(dependents[name]) {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				i := sort.SearchStrings(ready, dep)
				ready = append(ready, "")
				copy(ready[i+1:], ready[i:])
				ready[i] = dep
			}
		}
	}

	if len(order) != len(deps) {
		return nil, findCycle(deps, inDegree)
	}

	plan := &ExecutionPlan{
		Order: order,
		Preds: make(map[string][]string, len(deps)),
		Rank:  make(map[string]int, len(order)),
	}
	for name, set := range deps {
		plan.Preds[name] = sortedKeys(set)
	}
	for i, name := range order {
		plan.Rank[name] = i
	}
	logger.Debug("Resolve: execution plan ready.", "graph", g.Name)
	return plan, nil
}

// findCycle recovers the full cycle sequence from the nodes the Kahn walk
// could not emit. Every remaining node has at least one remaining
// predecessor, so walking predecessor links from any of them must revisit a
// node; the slice between the two visits is the cycle.
func findCycle(deps map[string]map[string]bool, inDegree map[string]int) *model.CycleError {
	remaining := make(map[string]bool)
	for name, d := range inDegree {
		if d > 0 {
			remaining[name] = true
		}
	}

	start := sortedKeys(remaining)[0]
	var stack []string
	index := make(map[string]int)
	cur := start
	for {
		if at, seen := index[cur]; seen {
			cycle := append(append([]string(nil), stack[at:]...), cur)
			return &model.CycleError{Nodes: cycle}
		}
		index[cur] = len(stack)
		stack = append(stack, cur)

		// Follow the smallest remaining predecessor for determinism.
		next := ""
		for _, p := range sortedKeys(deps[cur]) {
			if remaining[p] {
				next = p
				break
			}
		}
		cur = next
	}
}
