package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublime-tools/monorepo/internal/manifest"
)

func TestValidateCleanGraphHasNoIssues(t *testing.T) {
	pkgs := []*manifest.Package{
		newPkg(t, "a", "1.0.0", nil),
		newPkg(t, "b", "1.0.0", map[string]string{"a": "^1.0.0"}),
	}
	g, err := Build(pkgs, BuildOptions{})
	require.NoError(t, err)

	report := Validate(g, ValidateOptions{})
	assert.Empty(t, report.Issues)
	assert.False(t, report.HasCritical())
}

func TestValidateReportsCircularDependencyAsCritical(t *testing.T) {
	pkgs := []*manifest.Package{
		newPkg(t, "foo", "1.0.0", map[string]string{"bar": "^1.0.0"}),
		newPkg(t, "bar", "1.0.0", map[string]string{"baz": "^1.0.0"}),
		newPkg(t, "baz", "1.0.0", map[string]string{"foo": "^1.0.0"}),
	}
	g, err := Build(pkgs, BuildOptions{})
	require.NoError(t, err)

	report := Validate(g, ValidateOptions{})
	require.Len(t, report.Issues, 1)
	issue := report.Issues[0]
	assert.Equal(t, IssueCircularDependency, issue.Kind)
	assert.True(t, issue.Critical)
	assert.Equal(t, []string{"bar", "baz", "foo", "bar"}, issue.Path)
	assert.True(t, report.HasCritical())
}

func TestValidateUnresolvedExternalDependencyIsCriticalByDefault(t *testing.T) {
	pkgs := []*manifest.Package{
		newPkg(t, "a", "1.0.0", map[string]string{"lodash": "^4.17.0"}),
	}
	g, err := Build(pkgs, BuildOptions{})
	require.NoError(t, err)

	report := Validate(g, ValidateOptions{})
	require.Len(t, report.Issues, 1)
	issue := report.Issues[0]
	assert.Equal(t, IssueUnresolvedDependency, issue.Kind)
	assert.Equal(t, "a", issue.Dependent)
	assert.Equal(t, "lodash", issue.Name)
	assert.Equal(t, "^4.17.0", issue.VersionReq)
	assert.True(t, issue.Critical)
}

func TestValidateUnresolvedExternalIsWarningWhenAllowListed(t *testing.T) {
	pkgs := []*manifest.Package{
		newPkg(t, "a", "1.0.0", map[string]string{"lodash": "^4.17.0"}),
	}
	g, err := Build(pkgs, BuildOptions{})
	require.NoError(t, err)

	report := Validate(g, ValidateOptions{ExternalAllowList: []string{"lodash"}})
	require.Len(t, report.Issues, 1)
	assert.False(t, report.Issues[0].Critical)
	assert.False(t, report.HasCritical())
}

func TestValidateUnresolvedIsWarningWhenTreatUnresolvedAsExternal(t *testing.T) {
	pkgs := []*manifest.Package{
		newPkg(t, "a", "1.0.0", map[string]string{"lodash": "^4.0.0"}),
	}
	g, err := Build(pkgs, BuildOptions{})
	require.NoError(t, err)

	report := Validate(g, ValidateOptions{TreatUnresolvedAsExternal: true})
	require.Len(t, report.Issues, 1)
	assert.False(t, report.Issues[0].Critical)
}

func TestValidateInternalDependenciesOverrideAllowList(t *testing.T) {
	pkgs := []*manifest.Package{
		newPkg(t, "a", "1.0.0", map[string]string{"lodash": "^4.0.0"}),
	}
	g, err := Build(pkgs, BuildOptions{})
	require.NoError(t, err)

	report := Validate(g, ValidateOptions{
		TreatUnresolvedAsExternal: true,
		InternalDependencies:      []string{"lodash"},
	})
	require.Len(t, report.Issues, 1)
	assert.True(t, report.Issues[0].Critical)
}

func TestValidateVersionMismatchIsAlwaysCriticalRegardlessOfExternalPolicy(t *testing.T) {
	// a is a real workspace package under this name, just not a
	// version b is happy with: it can never be "external" the way a
	// genuinely missing package can, so TreatUnresolvedAsExternal must
	// not downgrade it.
	pkgs := []*manifest.Package{
		newPkg(t, "a", "1.9.9", nil),
		newPkg(t, "b", "1.0.0", map[string]string{"a": "^2.0.0"}),
	}
	g, err := Build(pkgs, BuildOptions{})
	require.NoError(t, err)

	report := Validate(g, ValidateOptions{TreatUnresolvedAsExternal: true, ExternalAllowList: []string{"a"}})
	require.Len(t, report.Issues, 1)
	issue := report.Issues[0]
	assert.Equal(t, IssueUnresolvedDependency, issue.Kind)
	assert.Equal(t, "b", issue.Dependent)
	assert.Equal(t, "a", issue.Name)
	assert.Equal(t, "^2.0.0", issue.VersionReq)
	assert.True(t, issue.Critical)
	assert.True(t, report.HasCritical())
}

func TestValidateVersionConflictAcrossDependents(t *testing.T) {
	pkgs := []*manifest.Package{
		newPkg(t, "a", "1.0.0", map[string]string{"ext": "^1.0.0"}),
		newPkg(t, "b", "1.0.0", map[string]string{"ext": "^2.0.0"}),
	}
	g, err := Build(pkgs, BuildOptions{})
	require.NoError(t, err)

	report := Validate(g, ValidateOptions{})

	var conflicts []Issue
	for _, issue := range report.Issues {
		if issue.Kind == IssueVersionConflict {
			conflicts = append(conflicts, issue)
		}
	}
	require.Len(t, conflicts, 1)
	assert.Equal(t, "ext", conflicts[0].Name)
	assert.Equal(t, []string{"^1.0.0", "^2.0.0"}, conflicts[0].Versions)
	assert.True(t, conflicts[0].Critical)
}

func TestValidateIssueOrderingIsDeterministic(t *testing.T) {
	pkgs := []*manifest.Package{
		newPkg(t, "foo", "1.0.0", map[string]string{"bar": "^1.0.0", "lodash": "^4.0.0"}),
		newPkg(t, "bar", "1.0.0", map[string]string{"foo": "^1.0.0"}),
	}
	g, err := Build(pkgs, BuildOptions{})
	require.NoError(t, err)

	report1 := Validate(g, ValidateOptions{})
	report2 := Validate(g, ValidateOptions{})
	assert.Equal(t, report1, report2)
}
