// Package depgraph implements the Dependency Graph: an arena of
// Resolved/Unresolved nodes plus a separate edge list (per spec.md
// §9's shared-state guidance — never owning pointers between
// packages), with construction, SCC/cycle detection, topological
// sort, and structural validation.
package depgraph

import (
	"sort"

	"github.com/sublime-tools/monorepo/internal/manifest"
	"github.com/sublime-tools/monorepo/pkg/semver"
)

// NodeKind distinguishes a node backed by a workspace Package from
// one that only carries an unsatisfied requirement.
type NodeKind int

const (
	Resolved NodeKind = iota
	Unresolved
)

// Node is one vertex in the graph.
type Node struct {
	Name    string
	Kind    NodeKind
	Package *manifest.Package // set when Kind == Resolved
	// Requirements collects every distinct version-requirement string
	// that referenced this name without any workspace Package
	// satisfying it; more than one distinct entry signals a
	// VersionConflict among external/unresolved consumers.
	Requirements []string
	SCC          int // 0 = not part of a cycle; stable per Build call
}

// Edge is a "depends-on" edge from a Resolved node, labelled with the
// dependency kind that declared it.
type Edge struct {
	From string
	To   string
	Kind manifest.DependencyKind
	// VersionMismatch marks an edge whose target names a workspace
	// Package that exists but whose current Version does not satisfy
	// this edge's requirement (spec.md:250). The target node still
	// stays Resolved; only the edge is "unresolved" from the
	// dependent's point of view.
	VersionMismatch bool
}

// Graph is the arena: nodes keyed by name, edges kept in per-node
// outgoing and incoming adjacency lists for O(1) lookups.
type Graph struct {
	order     []string // node names in construction order (packages sorted by name)
	nodes     map[string]*Node
	edgesFrom map[string][]Edge
	edgesTo   map[string][]Edge
}

func newGraph() *Graph {
	return &Graph{
		nodes:     make(map[string]*Node),
		edgesFrom: make(map[string][]Edge),
		edgesTo:   make(map[string][]Edge),
	}
}

// Node returns the node named name, if any.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns every node in deterministic (construction) order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}

// EdgesFrom returns the outgoing edges of name, sorted by target name.
func (g *Graph) EdgesFrom(name string) []Edge {
	return g.edgesFrom[name]
}

// EdgesTo returns the incoming edges of name.
func (g *Graph) EdgesTo(name string) []Edge {
	return g.edgesTo[name]
}

func (g *Graph) addNode(n *Node) {
	if _, exists := g.nodes[n.Name]; !exists {
		g.order = append(g.order, n.Name)
	}
	g.nodes[n.Name] = n
}

func (g *Graph) addEdge(e Edge) {
	g.edgesFrom[e.From] = append(g.edgesFrom[e.From], e)
	g.edgesTo[e.To] = append(g.edgesTo[e.To], e)
}

// BuildOptions reserves room for future construction-time policy.
type BuildOptions struct{}

// Build constructs a Graph from a sorted package list, per spec.md
// §4.D: one Resolved node per Package, one edge per declared
// dependency, resolving against workspace Packages by name and
// version-requirement satisfaction. A name no workspace Package has
// gets an Unresolved node; a workspace Package whose Version does not
// satisfy the requirement keeps its Resolved node and the edge is
// marked VersionMismatch.
// Construction is idempotent: identical input yields a structurally
// identical graph (same nodes, edges, and iteration order).
func Build(packages []*manifest.Package, opts BuildOptions) (*Graph, error) {
	g := newGraph()

	sorted := make([]*manifest.Package, len(packages))
	copy(sorted, packages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, pkg := range sorted {
		g.addNode(&Node{Name: pkg.Name, Kind: Resolved, Package: pkg})
	}

	for _, pkg := range sorted {
		deps := pkg.AllDependencies()
		names := make([]string, 0, len(deps))
		for name := range deps {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, depName := range names {
			kind := deps[depName]
			req, _, _ := pkg.RequirementFor(depName)

			if target, exists := g.nodes[depName]; exists && target.Kind == Resolved {
				reqParsed, err := semver.ParseReq(req)
				if err == nil && reqParsed.Satisfies(target.Package.Version) {
					g.addEdge(Edge{From: pkg.Name, To: depName, Kind: kind})
					continue
				}
				// depName names a workspace Package, just not one
				// whose current Version satisfies req: per spec.md:40
				// that Package keeps its one Resolved node, so the
				// edge itself carries the mismatch instead of
				// replacing the node with an Unresolved one.
				g.addEdge(Edge{From: pkg.Name, To: depName, Kind: kind, VersionMismatch: true})
				continue
			}

			unresolved, exists := g.nodes[depName]
			if !exists || unresolved.Kind != Unresolved {
				unresolved = &Node{Name: depName, Kind: Unresolved}
				g.addNode(unresolved)
			}
			if !containsString(unresolved.Requirements, req) {
				unresolved.Requirements = append(unresolved.Requirements, req)
			}
			g.addEdge(Edge{From: pkg.Name, To: depName, Kind: kind})
		}
	}

	return g, nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
