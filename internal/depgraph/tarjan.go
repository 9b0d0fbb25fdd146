package depgraph

import "sort"

type tarjanState struct {
	index    int
	indices  map[string]int
	lowlinks map[string]int
	onStack  map[string]bool
	stack    []string
	sccs     [][]string
}

// FindSCCs runs Tarjan's algorithm over g and assigns each node's SCC
// field: 0 for a node not part of any cycle, a positive id shared by
// every member of a multi-node cycle (or a self-cycling singleton).
// Visits nodes in sorted name order so results are deterministic.
func FindSCCs(g *Graph) [][]string {
	st := &tarjanState{
		indices:  make(map[string]int),
		lowlinks: make(map[string]int),
		onStack:  make(map[string]bool),
	}

	names := make([]string, 0, len(g.order))
	names = append(names, g.order...)
	sort.Strings(names)

	for _, name := range names {
		if _, visited := st.indices[name]; !visited {
			strongConnect(g, st, name)
		}
	}

	sccID := 1
	for _, members := range st.sccs {
		isCycle := len(members) > 1 || hasSelfEdge(g, members[0])
		if !isCycle {
			continue
		}
		for _, m := range members {
			g.nodes[m].SCC = sccID
		}
		sccID++
	}

	return st.sccs
}

func strongConnect(g *Graph, st *tarjanState, v string) {
	st.indices[v] = st.index
	st.lowlinks[v] = st.index
	st.index++
	st.stack = append(st.stack, v)
	st.onStack[v] = true

	edges := append([]Edge(nil), g.edgesFrom[v]...)
	sort.Slice(edges, func(i, j int) bool { return edges[i].To < edges[j].To })

	for _, e := range edges {
		w := e.To
		if _, visited := st.indices[w]; !visited {
			strongConnect(g, st, w)
			if st.lowlinks[w] < st.lowlinks[v] {
				st.lowlinks[v] = st.lowlinks[w]
			}
		} else if st.onStack[w] {
			if st.indices[w] < st.lowlinks[v] {
				st.lowlinks[v] = st.indices[w]
			}
		}
	}

	if st.lowlinks[v] == st.indices[v] {
		var component []string
		for {
			n := len(st.stack) - 1
			w := st.stack[n]
			st.stack = st.stack[:n]
			st.onStack[w] = false
			component = append(component, w)
			if w == v {
				break
			}
		}
		sort.Strings(component)
		st.sccs = append(st.sccs, component)
	}
}

func hasSelfEdge(g *Graph, name string) bool {
	for _, e := range g.edgesFrom[name] {
		if e.To == name {
			return true
		}
	}
	return false
}
