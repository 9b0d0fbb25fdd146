package changedetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublime-tools/monorepo/internal/depgraph"
	"github.com/sublime-tools/monorepo/internal/manifest"
	"github.com/sublime-tools/monorepo/pkg/semver"
)

func pkgAt(t *testing.T, name, relPath string) *manifest.Package {
	t.Helper()
	v, err := semver.Parse("1.0.0")
	require.NoError(t, err)
	return &manifest.Package{Name: name, Version: v, RelPath: relPath}
}

func TestOwnerLongestPrefixWins(t *testing.T) {
	packages := []*manifest.Package{
		pkgAt(t, "app", "./packages/app"),
		pkgAt(t, "app-internal", "./packages/app/internal"),
	}
	changes := []FileChange{{Path: "packages/app/internal/src/index.ts", Kind: Modified}}

	owned := Owner(changes, packages)
	assert.Contains(t, owned, "app-internal")
	assert.NotContains(t, owned, "app")
}

func TestOwnerRootBucketFilesUnowned(t *testing.T) {
	packages := []*manifest.Package{pkgAt(t, "app", "./packages/app")}
	changes := []FileChange{{Path: "README.md", Kind: Modified}}

	owned := Owner(changes, packages)
	assert.Empty(t, owned)
}

func TestOwnerSingleProjectOwnsEverything(t *testing.T) {
	packages := []*manifest.Package{pkgAt(t, "app", ".")}
	changes := []FileChange{{Path: "src/index.ts", Kind: Modified}}

	owned := Owner(changes, packages)
	assert.Contains(t, owned, "app")
}

func TestClassifyManifestChangeIsDependencies(t *testing.T) {
	ct := classify([]FileChange{{Path: "packages/app/package.json", Kind: Modified}})
	assert.Equal(t, TypeDependencies, ct)
}

func TestClassifyTestFileIsTests(t *testing.T) {
	ct := classify([]FileChange{{Path: "packages/app/src/__tests__/foo.test.ts", Kind: Added}})
	assert.Equal(t, TypeTests, ct)
}

func TestClassifyDocsIsDocumentation(t *testing.T) {
	ct := classify([]FileChange{{Path: "packages/app/README.md", Kind: Modified}})
	assert.Equal(t, TypeDocumentation, ct)
}

func TestClassifySourceCodeUnderSrc(t *testing.T) {
	ct := classify([]FileChange{{Path: "packages/app/src/handler.ts", Kind: Modified}})
	assert.Equal(t, TypeSourceCode, ct)
}

func TestClassifyDependenciesBeatsSourceCode(t *testing.T) {
	ct := classify([]FileChange{
		{Path: "packages/app/src/handler.ts", Kind: Modified},
		{Path: "packages/app/package.json", Kind: Modified},
	})
	assert.Equal(t, TypeDependencies, ct)
}

func TestSignificanceElevatesForPublicAPIMarkers(t *testing.T) {
	sig := significance(TypeSourceCode, []FileChange{{Path: "packages/app/src/index.ts", Kind: Modified}}, DefaultThresholds)
	assert.Equal(t, SignificanceHigh, sig)
}

func TestSignificanceElevatesByFileCount(t *testing.T) {
	var files []FileChange
	for i := 0; i < DefaultThresholds.MediumFileCount; i++ {
		files = append(files, FileChange{Path: "packages/app/docs/page.md", Kind: Modified})
	}
	sig := significance(TypeDocumentation, files, DefaultThresholds)
	assert.Equal(t, SignificanceMedium, sig)
}

func TestSignificanceHighFileCountCap(t *testing.T) {
	var files []FileChange
	for i := 0; i < DefaultThresholds.HighFileCount; i++ {
		files = append(files, FileChange{Path: "packages/app/docs/page.md", Kind: Modified})
	}
	sig := significance(TypeDocumentation, files, DefaultThresholds)
	assert.Equal(t, SignificanceHigh, sig)
}

func TestSuggestBumpDependenciesMajorCrossing(t *testing.T) {
	deltas := []RequirementDelta{{Package: "app", Name: "ext", OldReq: "^1.0.0", NewReq: "^2.0.0"}}
	bump := suggestBump(TypeDependencies, SignificanceMedium, deltas)
	assert.Equal(t, semver.Major, bump)
}

func TestSuggestBumpDocsIsNone(t *testing.T) {
	bump := suggestBump(TypeDocumentation, SignificanceLow, nil)
	assert.Equal(t, semver.BumpKind(""), bump)
}

func TestBreakingHeuristicElevatesButNeverDemotes(t *testing.T) {
	files := []FileChange{{Path: "packages/app/src/index.ts", Kind: Modified}}
	assert.True(t, isBreaking(TypeSourceCode, files))
	assert.False(t, isBreaking(TypeDocumentation, files))

	assert.Equal(t, SignificanceMedium, elevate(SignificanceLow))
	assert.Equal(t, SignificanceHigh, elevate(SignificanceMedium))
	assert.Equal(t, SignificanceHigh, elevate(SignificanceHigh))
}

func TestDetectEndToEnd(t *testing.T) {
	packages := []*manifest.Package{pkgAt(t, "app", "./packages/app")}
	changes := []FileChange{
		{Path: "packages/app/src/index.ts", Kind: Modified},
		{Path: "README.md", Kind: Modified},
	}

	result := Detect(changes, packages, nil, DefaultThresholds)
	require.Len(t, result, 1)
	assert.Equal(t, "app", result[0].Package)
	assert.Equal(t, TypeSourceCode, result[0].Type)
	assert.Equal(t, SignificanceHigh, result[0].Significance)
	assert.Equal(t, semver.Minor, result[0].SuggestedBump)
	assert.True(t, result[0].Breaking)
}

func TestFindAffectedPackagesIncludesTransitiveDependents(t *testing.T) {
	pkgs := []*manifest.Package{
		newGraphPkg(t, "a", "1.0.0", nil),
		newGraphPkg(t, "b", "1.0.0", map[string]string{"a": "^1.0.0"}),
		newGraphPkg(t, "c", "1.0.0", map[string]string{"b": "^1.0.0"}),
	}
	g, err := depgraph.Build(pkgs, depgraph.BuildOptions{})
	require.NoError(t, err)

	changes := []*PackageChange{{Package: "a"}}
	affected := FindAffectedPackages(changes, g)
	assert.Equal(t, []string{"a", "b", "c"}, affected)
}

func newGraphPkg(t *testing.T, name, version string, deps map[string]string) *manifest.Package {
	t.Helper()
	v, err := semver.Parse(version)
	require.NoError(t, err)
	return &manifest.Package{Name: name, Version: v, Dependencies: deps}
}
