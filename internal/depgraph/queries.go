package depgraph

import "sort"

// DependenciesOf returns the direct, version-satisfied outgoing
// neighbors of name: a VersionMismatch edge to a Resolved node is
// excluded, same as an edge to a genuinely Unresolved one.
func (g *Graph) DependenciesOf(name string) []string {
	var out []string
	for _, e := range g.edgesFrom[name] {
		if e.VersionMismatch {
			continue
		}
		if target, ok := g.nodes[e.To]; ok && target.Kind == Resolved {
			out = append(out, e.To)
		}
	}
	sort.Strings(out)
	return out
}

// DependentsOf returns the resolved, version-satisfied incoming
// neighbors of name. When transitive is true, returns the
// reverse-reachable set excluding name itself.
func (g *Graph) DependentsOf(name string, transitive bool) []string {
	if !transitive {
		var out []string
		for _, e := range g.edgesTo[name] {
			if e.VersionMismatch {
				continue
			}
			if from, ok := g.nodes[e.From]; ok && from.Kind == Resolved {
				out = append(out, e.From)
			}
		}
		sort.Strings(out)
		return out
	}

	visited := make(map[string]bool)
	var walk func(string)
	walk = func(current string) {
		for _, e := range g.edgesTo[current] {
			if e.VersionMismatch {
				continue
			}
			from, ok := g.nodes[e.From]
			if !ok || from.Kind != Resolved {
				continue
			}
			if visited[e.From] {
				continue
			}
			visited[e.From] = true
			walk(e.From)
		}
	}
	walk(name)
	delete(visited, name)

	out := make([]string, 0, len(visited))
	for n := range visited {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
