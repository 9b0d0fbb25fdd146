package depgraph

import "sort"

// DetectCycles returns one entry per SCC of size >= 2 (plus any
// self-cycling singleton), each ordered as a traversal starting at
// the lexicographically smallest member and closing with that same
// name, per spec.md §4.D's tie-break rule.
func DetectCycles(g *Graph) (bool, [][]string) {
	sccs := FindSCCs(g)

	var cycles [][]string
	for _, members := range sccs {
		if len(members) == 1 && !hasSelfEdge(g, members[0]) {
			continue
		}
		cycles = append(cycles, tracePath(g, members))
	}

	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return len(cycles) > 0, cycles
}

// tracePath walks edges within members starting at the
// lexicographically smallest one, preferring the smallest unvisited
// neighbor at each step, and closes the loop back to the start.
func tracePath(g *Graph, members []string) []string {
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)
	start := sorted[0]

	if len(sorted) == 1 {
		return []string{start, start}
	}

	memberSet := make(map[string]bool, len(sorted))
	for _, m := range sorted {
		memberSet[m] = true
	}

	visited := map[string]bool{start: true}
	path := []string{start}
	current := start

	for len(path) < len(sorted) {
		next, ok := smallestUnvisitedNeighbor(g, current, memberSet, visited)
		if !ok {
			// No direct edge continues the walk (can happen with
			// asymmetric intra-SCC edges); append remaining members
			// in sorted order to keep the result total and deterministic.
			for _, m := range sorted {
				if !visited[m] {
					visited[m] = true
					path = append(path, m)
				}
			}
			break
		}
		visited[next] = true
		path = append(path, next)
		current = next
	}

	path = append(path, start)
	return path
}

func smallestUnvisitedNeighbor(g *Graph, from string, members, visited map[string]bool) (string, bool) {
	var candidates []string
	for _, e := range g.edgesFrom[from] {
		if members[e.To] && !visited[e.To] {
			candidates = append(candidates, e.To)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Strings(candidates)
	return candidates[0], true
}
