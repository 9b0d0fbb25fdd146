package depgraph

import (
	"fmt"
	"sort"
)

// TopologicalOrder returns the condensed graph's nodes leaves-first
// (packages with no workspace-internal dependencies precede their
// dependents), ties broken by name, per spec.md §4.D. Internally runs
// Kahn's algorithm over the reversed edges (dependency -> dependent),
// always taking the smallest ready name next.
func TopologicalOrder(cg *CondensedGraph) ([]*CondensedNode, error) {
	if cg == nil || cg.NodeCount() == 0 {
		return []*CondensedNode{}, nil
	}

	inDegree := make(map[string]int)
	dependents := make(map[string][]string)
	for _, n := range cg.Nodes() {
		inDegree[n.Name] = 0
	}
	for _, n := range cg.Nodes() {
		for _, e := range cg.EdgesFrom(n.Name) {
			inDegree[n.Name]++
			dependents[e.To] = append(dependents[e.To], n.Name)
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var sorted []*CondensedNode
	for len(queue) > 0 {
		sort.Strings(queue)
		current := queue[0]
		queue = queue[1:]

		node, _ := cg.Node(current)
		sorted = append(sorted, node)

		for _, dependent := range dependents[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(sorted) != cg.NodeCount() {
		return nil, fmt.Errorf("cycle detected in condensed graph: sorted %d of %d nodes", len(sorted), cg.NodeCount())
	}

	return sorted, nil
}
