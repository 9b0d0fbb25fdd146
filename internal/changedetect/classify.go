package changedetect

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/sublime-tools/monorepo/internal/manifest"
	"github.com/sublime-tools/monorepo/pkg/semver"
)

// classify applies spec.md §4.E's first-match-wins rule list across a
// package's owning files; the highest-priority rule any file matches
// wins for the whole package.
func classify(files []FileChange) ChangeType {
	best := TypeOther
	bestRank := rank(TypeOther)
	for _, f := range files {
		ct := classifyFile(f.Path)
		if r := rank(ct); r < bestRank {
			best = ct
			bestRank = r
		}
	}
	return best
}

func rank(ct ChangeType) int {
	switch ct {
	case TypeDependencies:
		return 0
	case TypeBuild:
		return 1
	case TypeTests:
		return 2
	case TypeDocumentation:
		return 3
	case TypeConfiguration:
		return 4
	case TypeSourceCode:
		return 5
	default:
		return 6
	}
}

var buildFileNames = map[string]bool{
	".eslintrc": true, ".prettierrc": true,
}

func classifyFile(p string) ChangeType {
	base := path.Base(p)
	lower := strings.ToLower(base)

	if base == manifest.ManifestFile {
		return TypeDependencies
	}

	switch {
	case strings.HasPrefix(lower, "build."),
		isConfigFile(base),
		strings.HasPrefix(lower, "tsconfig"),
		strings.HasSuffix(lower, ".lock"),
		strings.HasPrefix(lower, ".eslintrc"),
		strings.HasPrefix(lower, ".prettierrc"):
		return TypeBuild
	}

	if hasTestMarker(p) {
		return TypeTests
	}

	switch {
	case strings.HasSuffix(lower, ".md"), strings.HasSuffix(lower, ".mdx"),
		strings.HasPrefix(p, "docs/"), strings.Contains(p, "/docs/"),
		strings.HasPrefix(lower, "readme"), strings.HasPrefix(lower, "changelog"),
		strings.HasPrefix(lower, "license"):
		return TypeDocumentation
	}

	if isConfiguration(base) {
		return TypeConfiguration
	}

	if isSourceFile(p, base) {
		return TypeSourceCode
	}

	return TypeOther
}

func isConfigFile(base string) bool {
	lower := strings.ToLower(base)
	if !strings.Contains(lower, ".config.") {
		return false
	}
	return strings.HasSuffix(lower, ".js") || strings.HasSuffix(lower, ".ts") || strings.HasSuffix(lower, ".json")
}

func hasTestMarker(p string) bool {
	lower := strings.ToLower(p)
	for _, part := range strings.Split(lower, "/") {
		switch part {
		case "tests", "__tests__", "test", "spec":
			return true
		}
	}
	base := path.Base(lower)
	return strings.Contains(base, ".test.") || strings.Contains(base, ".spec.")
}

func isConfiguration(base string) bool {
	if strings.HasPrefix(base, ".") {
		return true
	}
	lower := strings.ToLower(base)
	return strings.HasPrefix(lower, "ci") || lower == "dockerfile" || strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml")
}

var sourceExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".mjs": true, ".cjs": true, ".rs": true, ".go": true, ".py": true,
}

func isSourceFile(p, base string) bool {
	if strings.HasPrefix(p, "src/") || strings.Contains(p, "/src/") ||
		strings.HasPrefix(p, "lib/") || strings.Contains(p, "/lib/") {
		return true
	}
	if strings.HasPrefix(base, "index.") {
		return true
	}
	return sourceExtensions[strings.ToLower(filepath.Ext(base))]
}

// significance scores a package's change per spec.md §4.E: a
// baseline per change-type, elevated for public-API-adjacent paths
// and by file-count thresholds.
func significance(ct ChangeType, files []FileChange, t Thresholds) Significance {
	sig := baseline(ct)

	for _, f := range files {
		if isPublicAPIMarker(f.Path) && sig != SignificanceHigh {
			sig = SignificanceHigh
		}
	}

	if len(files) >= t.HighFileCount {
		return SignificanceHigh
	}
	if len(files) >= t.MediumFileCount {
		sig = elevate(sig)
	}

	return sig
}

func baseline(ct ChangeType) Significance {
	switch ct {
	case TypeDependencies, TypeBuild, TypeSourceCode:
		return SignificanceMedium
	case TypeDocumentation, TypeTests, TypeConfiguration:
		return SignificanceLow
	default:
		return SignificanceLow
	}
}

// suggestBump maps (change-type, significance) to a suggested bump
// per spec.md §4.E's table.
func suggestBump(ct ChangeType, sig Significance, deltas []RequirementDelta) semver.BumpKind {
	switch ct {
	case TypeDependencies:
		if hasMajorBoundaryCrossing(deltas) {
			return semver.Major
		}
		return semver.Patch
	case TypeSourceCode:
		if sig == SignificanceHigh {
			return semver.Minor
		}
		return semver.Patch
	case TypeDocumentation, TypeTests, TypeConfiguration:
		return "" // None: no version change suggested
	default:
		return semver.Patch
	}
}

// RequirementDelta is a dependency requirement's before/after value,
// as seen by comparing two manifest revisions. It lets the Dependencies
// rule detect a major-boundary upgrade per spec.md §4.E.
type RequirementDelta struct {
	Package string
	Name    string
	OldReq  string
	NewReq  string
}

// hasMajorBoundaryCrossing reports whether any delta's lower bound
// crosses a major version boundary (e.g. ^1.x.x -> ^2.x.x).
func hasMajorBoundaryCrossing(deltas []RequirementDelta) bool {
	for _, d := range deltas {
		oldMajor, ok1 := reqMajor(d.OldReq)
		newMajor, ok2 := reqMajor(d.NewReq)
		if ok1 && ok2 && newMajor > oldMajor {
			return true
		}
	}
	return false
}

// reqMajor extracts the major version component from a single-clause
// requirement string (^1.2.3, ~1.2.3, 1.2.3, =1.2.3); ranges and
// intersections are not decomposable this way and report ok=false.
func reqMajor(req string) (uint64, bool) {
	trimmed := strings.TrimSpace(req)
	trimmed = strings.TrimLeft(trimmed, "^~=")
	if trimmed == "" || strings.ContainsAny(trimmed, ",<>* ") {
		return 0, false
	}
	v, err := semver.Parse(trimmed)
	if err != nil {
		return 0, false
	}
	return v.Major(), true
}
