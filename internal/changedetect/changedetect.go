// Package changedetect implements the Change Detector: it maps raw
// file changes to the packages that own them, classifies each
// package's change, scores its significance, and suggests a version
// bump, grounded on the ownership and classification rules of
// spec.md §4.E.
package changedetect

import (
	"path"
	"sort"
	"strings"

	"github.com/sublime-tools/monorepo/internal/depgraph"
	"github.com/sublime-tools/monorepo/internal/manifest"
	"github.com/sublime-tools/monorepo/pkg/semver"
)

// FileChangeKind classifies how a file changed.
type FileChangeKind string

const (
	Added    FileChangeKind = "added"
	Modified FileChangeKind = "modified"
	Deleted  FileChangeKind = "deleted"
	Renamed  FileChangeKind = "renamed"
	Copied   FileChangeKind = "copied"
)

// FileChange is one raw change, relative to the monorepo root.
type FileChange struct {
	Path string
	Kind FileChangeKind
	From string // populated for Renamed and Copied
}

// ChangeType is the first-match-wins classification of a PackageChange.
type ChangeType string

const (
	TypeDependencies   ChangeType = "dependencies"
	TypeBuild          ChangeType = "build"
	TypeTests          ChangeType = "tests"
	TypeDocumentation  ChangeType = "documentation"
	TypeConfiguration  ChangeType = "configuration"
	TypeSourceCode     ChangeType = "source_code"
	TypeOther          ChangeType = "other"
)

// Significance is the severity bucket assigned to a PackageChange.
type Significance string

const (
	SignificanceNone   Significance = "none"
	SignificanceLow    Significance = "low"
	SignificanceMedium Significance = "medium"
	SignificanceHigh   Significance = "high"
)

// Thresholds configures the file-count elevation rule.
type Thresholds struct {
	MediumFileCount int
	HighFileCount   int
}

// DefaultThresholds matches spec.md §4.E's defaults.
var DefaultThresholds = Thresholds{MediumFileCount: 5, HighFileCount: 15}

// PackageChange is one package's aggregated change for a revision range.
type PackageChange struct {
	Package        string
	FileChanges    []FileChange
	Type           ChangeType
	Significance   Significance
	SuggestedBump  semver.BumpKind
	Breaking       bool
}

const rootBucket = "."

// Owner maps FileChanges to owning packages by longest relative-path
// prefix; anything outside every package falls into the root bucket
// and is excluded from the result.
func Owner(changes []FileChange, packages []*manifest.Package) map[string][]FileChange {
	owned := make(map[string][]FileChange)
	for _, change := range changes {
		owner := ownerOf(change.Path, packages)
		if owner == rootBucket {
			continue
		}
		owned[owner] = append(owned[owner], change)
	}
	return owned
}

func ownerOf(filePath string, packages []*manifest.Package) string {
	best := rootBucket
	bestLen := -1
	for _, pkg := range packages {
		rel := strings.TrimPrefix(strings.TrimPrefix(pkg.RelPath, "./"), "/")
		if rel == "." {
			rel = "" // the sole package in a workspace-less project owns everything
		}
		matches := rel == "" || filePath == rel || strings.HasPrefix(filePath, rel+"/")
		if matches && len(rel) > bestLen {
			best = pkg.Name
			bestLen = len(rel)
		}
	}
	return best
}

// Detect builds one PackageChange per package with at least one
// owning FileChange. deltas carries any known before/after dependency
// requirement changes, used by the Dependencies major-boundary rule.
func Detect(changes []FileChange, packages []*manifest.Package, deltas []RequirementDelta, thresholds Thresholds) []*PackageChange {
	owned := Owner(changes, packages)

	deltasByPackage := make(map[string][]RequirementDelta)
	for _, d := range deltas {
		deltasByPackage[d.Package] = append(deltasByPackage[d.Package], d)
	}

	var result []*PackageChange
	for name, files := range owned {
		sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

		ct := classify(files)
		sig := significance(ct, files, thresholds)
		bump := suggestBump(ct, sig, deltasByPackage[name])
		breaking := isBreaking(ct, files)
		if breaking {
			sig = elevate(sig)
		}

		result = append(result, &PackageChange{
			Package:       name,
			FileChanges:   files,
			Type:          ct,
			Significance:  sig,
			SuggestedBump: bump,
			Breaking:      breaking,
		})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Package < result[j].Package })
	return result
}

// FindAffectedPackages returns direct ∪ transitive-dependents of the
// packages named in changes, using the Dependency Graph.
func FindAffectedPackages(changes []*PackageChange, g *depgraph.Graph) []string {
	affected := make(map[string]bool)
	for _, c := range changes {
		affected[c.Package] = true
		for _, dependent := range g.DependentsOf(c.Package, true) {
			affected[dependent] = true
		}
	}
	out := make([]string, 0, len(affected))
	for name := range affected {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func elevate(s Significance) Significance {
	switch s {
	case SignificanceNone, SignificanceLow:
		return SignificanceMedium
	case SignificanceMedium:
		return SignificanceHigh
	default:
		return s
	}
}

// isBreaking applies spec.md §4.E's breaking-change heuristic: any
// owning path under src/, lib/, index., *.d.ts, api/, or public/ with
// a SourceCode or Dependencies change-type.
func isBreaking(ct ChangeType, files []FileChange) bool {
	if ct != TypeSourceCode && ct != TypeDependencies {
		return false
	}
	for _, f := range files {
		if isPublicAPIMarker(f.Path) {
			return true
		}
	}
	return false
}

func isPublicAPIMarker(p string) bool {
	if strings.Contains(p, "src/") || strings.Contains(p, "lib/") ||
		strings.Contains(p, "api/") || strings.Contains(p, "public/") {
		return true
	}
	base := path.Base(p)
	if strings.HasPrefix(base, "index.") {
		return true
	}
	return strings.HasSuffix(p, ".d.ts")
}
