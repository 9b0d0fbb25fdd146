package planner

import (
	"sort"

	"github.com/sublime-tools/monorepo/internal/manifest"
	"github.com/sublime-tools/monorepo/pkg/semver"
)

// computeRequirementEdits stages a RequirementEdit for every package
// that lists an updated package in any dependency map, per spec.md
// §4.F. Dev-kind requirements are skipped unless opts enables them,
// matching the bump-propagation gate for symmetry.
func computeRequirementEdits(packages []*manifest.Package, changes map[string]PackageVersionChange, opts Options) []RequirementEdit {
	var edits []RequirementEdit

	for _, pkg := range packages {
		for _, depName := range sortedDependencyNames(pkg) {
			updated, ok := changes[depName]
			if !ok {
				continue
			}
			req, kind, ok := pkg.RequirementFor(depName)
			if !ok {
				continue
			}
			if kind == manifest.DependencyDev && !opts.PropagateDevDependencies {
				continue
			}

			newReq, rewritten := semver.RewriteReq(req, updated.NewVersion)
			edits = append(edits, RequirementEdit{
				Package:    pkg.Name,
				Dependency: depName,
				Kind:       kind,
				OldReq:     req,
				NewReq:     newReq,
				Rewritten:  rewritten,
			})
		}
	}

	sort.Slice(edits, func(i, j int) bool {
		if edits[i].Package != edits[j].Package {
			return edits[i].Package < edits[j].Package
		}
		return edits[i].Dependency < edits[j].Dependency
	})

	return edits
}

func sortedDependencyNames(pkg *manifest.Package) []string {
	names := pkg.AllDependencies()
	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
