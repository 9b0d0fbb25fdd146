// Package planner implements the Version Planner: it turns a set of
// PackageChanges into an ordered list of version changes, propagating
// bumps through the Dependency Graph in reverse topological order and
// staging the dependency-requirement rewrites the change implies,
// grounded on the propagation shape of internal/version in the
// original tree (CalculateDirectBumps / PropagateLinked / cycle
// handling), now driven by internal/depgraph's SCC/topsort machinery
// instead of a per-edge "linked"/"fixed" strategy tag.
package planner

import (
	"sort"

	"github.com/sublime-tools/monorepo/internal/changedetect"
	"github.com/sublime-tools/monorepo/internal/depgraph"
	"github.com/sublime-tools/monorepo/internal/manifest"
	"github.com/sublime-tools/monorepo/pkg/semver"
)

// StrategyKind selects the Version Planner strategy.
type StrategyKind string

const (
	Independent         StrategyKind = "independent"
	Unified             StrategyKind = "unified"
	ConventionalCommits StrategyKind = "conventional_commits"
	Manual              StrategyKind = "manual"
)

// Strategy carries the per-kind parameters spec.md §4.F names.
type Strategy struct {
	Kind StrategyKind

	// Unified
	Target semver.Version

	// ConventionalCommits: pre-fetched commits touching the range
	// from_ref..HEAD; the Planner only classifies messages and maps
	// files to owning packages, it never talks to version control.
	Commits []Commit

	// Manual
	ManualVersions map[string]semver.Version
}

// Commit is one pre-fetched commit used by the ConventionalCommits strategy.
type Commit struct {
	Message string
	Files   []string
}

// Options tunes cross-cutting planner policy.
type Options struct {
	PropagateDevDependencies bool
}

// Source identifies why a package's version changed.
type Source string

const (
	SourceDirect     Source = "direct"
	SourcePropagated Source = "propagated"
	SourceManual     Source = "manual"
	SourceUnified    Source = "unified"
	SourceCycle      Source = "cycle"
)

// PackageVersionChange is one entry of the Planner's ordered output.
type PackageVersionChange struct {
	Package       string
	OldVersion    semver.Version
	NewVersion    semver.Version
	Bump          semver.BumpKind
	Source        Source
	IsCycleUpdate bool
	SCC           int
}

// RequirementEdit is a staged, in-memory dependency-requirement
// rewrite; persistence is the caller's responsibility per spec.md §4.F.
type RequirementEdit struct {
	Package    string // manifest being edited
	Dependency string // dependency name whose requirement changed
	Kind       manifest.DependencyKind
	OldReq     string
	NewReq     string
	Rewritten  bool // false when left untouched (range requirement)
}

// Result is the Planner's full output: the ordered version changes
// plus every staged manifest requirement edit they imply.
type Result struct {
	Changes          []PackageVersionChange
	RequirementEdits []RequirementEdit
}

type directBump struct {
	bump     semver.BumpKind
	exact    *semver.Version
	source   Source
}

// Plan computes the full version plan for packages given changes
// under strategy, propagating through g in reverse topological order.
func Plan(packages []*manifest.Package, changes []*changedetect.PackageChange, g *depgraph.Graph, strategy Strategy, opts Options) (*Result, error) {
	byName := make(map[string]*manifest.Package, len(packages))
	for _, p := range packages {
		byName[p.Name] = p
	}

	direct, err := computeDirectBumps(packages, changes, g, strategy)
	if err != nil {
		return nil, err
	}

	depgraph.FindSCCs(g)
	cg := depgraph.Condense(g)
	order, err := depgraph.TopologicalOrder(cg)
	if err != nil {
		return nil, err
	}

	finalBump := make(map[string]semver.BumpKind)
	changesByName := make(map[string]PackageVersionChange)

	// Emit directly in condensation order (dependencies before
	// dependents, per spec.md §4.F/§5's reverse-topological guarantee)
	// rather than collecting into changesByName and re-sorting by name
	// afterward, since name order and topological order need not agree.
	var result []PackageVersionChange
	for _, node := range order {
		if len(node.Members) > 1 || isSelfCycle(g, node.Members[0]) {
			result = append(result, applyCycle(node, byName, direct, finalBump, changesByName)...)
			continue
		}
		if c, ok := applySingleton(node.Members[0], g, byName, direct, opts, finalBump, changesByName); ok {
			result = append(result, c)
		}
	}

	edits := computeRequirementEdits(packages, changesByName, opts)

	return &Result{Changes: result, RequirementEdits: edits}, nil
}

func applySingleton(name string, g *depgraph.Graph, byName map[string]*manifest.Package, direct map[string]directBump, opts Options, finalBump map[string]semver.BumpKind, changesByName map[string]PackageVersionChange) (PackageVersionChange, bool) {
	pkg, ok := byName[name]
	if !ok {
		return PackageVersionChange{}, false
	}

	strongest := strongestUpstreamBump(name, g, opts, finalBump)
	propagated := strongest.Weaken()
	if strongest == "" {
		propagated = ""
	}

	d, hasDirect := direct[name]

	bump := semver.Max(propagated, "")
	source := SourcePropagated
	if hasDirect && d.bump != "" {
		bump = semver.Max(bump, d.bump)
	}
	if hasDirect {
		source = d.source
	}
	if bump == "" && !hasDirect {
		return PackageVersionChange{}, false // untouched
	}
	if bump == "" && hasDirect && d.exact == nil {
		return PackageVersionChange{}, false // direct bump resolved to no-op (e.g. ConventionalCommits "none")
	}

	var newVersion semver.Version
	if hasDirect && d.exact != nil {
		newVersion = *d.exact
		if bump == "" {
			bump = magnitude(pkg.Version, newVersion)
		}
	} else {
		bumped, err := pkg.Version.Bump(bump)
		if err != nil {
			return PackageVersionChange{}, false
		}
		newVersion = bumped
	}

	if newVersion.Compare(pkg.Version) == 0 {
		return PackageVersionChange{}, false // target already reached; nothing to record
	}

	finalBump[name] = bump
	change := PackageVersionChange{
		Package:    name,
		OldVersion: pkg.Version,
		NewVersion: newVersion,
		Bump:       bump,
		Source:     source,
	}
	changesByName[name] = change
	return change, true
}

// applyCycle returns the cycle's emitted changes in its existing
// sorted member sub-order, for the caller to append in condensation
// (reverse-topological) order alongside every other node.
func applyCycle(node *depgraph.CondensedNode, byName map[string]*manifest.Package, direct map[string]directBump, finalBump map[string]semver.BumpKind, changesByName map[string]PackageVersionChange) []PackageVersionChange {
	members := append([]string(nil), node.Members...)
	sort.Strings(members)

	var strongest semver.BumpKind
	var exact *semver.Version
	for _, m := range members {
		if d, ok := direct[m]; ok {
			strongest = semver.Max(strongest, d.bump)
			if d.exact != nil {
				exact = d.exact
			}
		}
	}
	if strongest == "" && exact == nil {
		return nil // no member of this cycle changed
	}
	if strongest == "" {
		strongest = semver.Patch
	}

	var added []PackageVersionChange
	for _, m := range members {
		pkg, ok := byName[m]
		if !ok {
			continue
		}
		var newVersion semver.Version
		if exact != nil {
			newVersion = *exact
		} else {
			bumped, err := pkg.Version.Bump(strongest)
			if err != nil {
				continue
			}
			newVersion = bumped
		}
		finalBump[m] = strongest
		change := PackageVersionChange{
			Package:       m,
			OldVersion:    pkg.Version,
			NewVersion:    newVersion,
			Bump:          strongest,
			Source:        SourceCycle,
			IsCycleUpdate: true,
			SCC:           node.SCC,
		}
		changesByName[m] = change
		added = append(added, change)
	}
	return added
}

// strongestUpstreamBump returns the strongest bump already assigned
// (this round) to any of name's resolved dependencies, gated by
// PropagateDevDependencies for dev-kind edges.
func strongestUpstreamBump(name string, g *depgraph.Graph, opts Options, finalBump map[string]semver.BumpKind) semver.BumpKind {
	var strongest semver.BumpKind
	for _, e := range g.EdgesFrom(name) {
		if e.Kind == manifest.DependencyDev && !opts.PropagateDevDependencies {
			continue
		}
		if b, ok := finalBump[e.To]; ok {
			strongest = semver.Max(strongest, b)
		}
	}
	return strongest
}

func isSelfCycle(g *depgraph.Graph, name string) bool {
	for _, e := range g.EdgesFrom(name) {
		if e.To == name {
			return true
		}
	}
	return false
}

// magnitude labels the size of the change from old to new as a
// BumpKind, used when an exact target version (Unified/Manual) lands
// on a package with no separately-computed bump magnitude.
func magnitude(old, next semver.Version) semver.BumpKind {
	switch {
	case next.Major() != old.Major():
		return semver.Major
	case next.Minor() != old.Minor():
		return semver.Minor
	case next.Patch() != old.Patch():
		return semver.Patch
	default:
		return ""
	}
}
