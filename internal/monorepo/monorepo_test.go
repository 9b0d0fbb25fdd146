package monorepo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublime-tools/monorepo/internal/changedetect"
	"github.com/sublime-tools/monorepo/internal/changeset"
	"github.com/sublime-tools/monorepo/internal/depgraph"
	"github.com/sublime-tools/monorepo/internal/manifest"
	"github.com/sublime-tools/monorepo/internal/planner"
	"github.com/sublime-tools/monorepo/pkg/semver"
)

func pkg(t *testing.T, name, version, relPath string, deps map[string]string) *manifest.Package {
	t.Helper()
	v, err := semver.Parse(version)
	require.NoError(t, err)
	return &manifest.Package{Name: name, Version: v, RelPath: relPath, Dependencies: deps}
}

func TestGraphIsLazyAndRebuildsAfterMutation(t *testing.T) {
	packages := []*manifest.Package{
		pkg(t, "core", "1.0.0", "./core", nil),
		pkg(t, "api", "1.0.0", "./api", map[string]string{"core": "^1.0.0"}),
	}
	svc := New("/repo", packages, changeset.NewMemoryStore())

	g1, err := svc.Graph()
	require.NoError(t, err)
	g2, err := svc.Graph()
	require.NoError(t, err)
	assert.Same(t, g1, g2, "unchanged package list should reuse the cached graph")

	require.NoError(t, svc.UpdateVersion("core", semver.MustParse("2.0.0")))
	g3, err := svc.Graph()
	require.NoError(t, err)
	assert.NotSame(t, g1, g3, "a version mutation should invalidate the cached graph")
}

func TestUpdateVersionRejectsUnknownPackage(t *testing.T) {
	svc := New("/repo", []*manifest.Package{pkg(t, "core", "1.0.0", "./core", nil)}, changeset.NewMemoryStore())
	err := svc.UpdateVersion("missing", semver.MustParse("1.0.0"))
	assert.Error(t, err)
}

func TestApplyChangesUpdatesPackagesInPlace(t *testing.T) {
	packages := []*manifest.Package{
		pkg(t, "core", "1.0.0", "./core", nil),
		pkg(t, "api", "1.0.0", "./api", map[string]string{"core": "^1.0.0"}),
	}
	svc := New("/repo", packages, changeset.NewMemoryStore())

	fileChanges := []changedetect.FileChange{
		{Path: "core/src/index.ts", Kind: changedetect.Modified},
	}

	result, err := svc.ApplyChanges(fileChanges, nil, changedetect.DefaultThresholds,
		planner.Strategy{Kind: planner.Independent}, planner.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, result.Changes)

	core, ok := svc.Package("core")
	require.True(t, ok)
	assert.Equal(t, "1.1.0", core.Version.String())
}

func TestBumpPropagatesToDependents(t *testing.T) {
	packages := []*manifest.Package{
		pkg(t, "core", "1.0.0", "./core", nil),
		pkg(t, "api", "1.0.0", "./api", map[string]string{"core": "^1.0.0"}),
	}
	svc := New("/repo", packages, changeset.NewMemoryStore())

	result, err := svc.Bump("core", semver.Major, planner.Options{})
	require.NoError(t, err)
	require.Len(t, result.Changes, 2)

	core, _ := svc.Package("core")
	api, _ := svc.Package("api")
	assert.Equal(t, "2.0.0", core.Version.String())
	assert.Equal(t, "1.1.0", api.Version.String())
}

func TestValidateWorkspaceReflectsCurrentGraph(t *testing.T) {
	packages := []*manifest.Package{
		pkg(t, "foo", "1.0.0", "./foo", map[string]string{"bar": "^1.0.0"}),
		pkg(t, "bar", "1.0.0", "./bar", map[string]string{"foo": "^1.0.0"}),
	}
	svc := New("/repo", packages, changeset.NewMemoryStore())

	report, err := svc.ValidateWorkspace(depgraph.ValidateOptions{})
	require.NoError(t, err)
	assert.True(t, report.HasCritical())
}
