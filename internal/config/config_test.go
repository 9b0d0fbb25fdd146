package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublime-tools/monorepo/internal/planner"
	"github.com/sublime-tools/monorepo/pkg/semver"
)

func TestWithDefaultsFillsDocumentedDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()

	assert.Equal(t, 5, cfg.ImpactThresholds.MediumFiles)
	assert.Equal(t, 15, cfg.ImpactThresholds.HighFiles)
	assert.Equal(t, "{version}-{branch}.{commit}", cfg.SnapshotPattern)
	assert.Equal(t, ".changesets", cfg.ChangesetDir)
	assert.Equal(t, StrategyIndependent, cfg.VersionStrategy.Kind)
	assert.False(t, cfg.TreatUnresolvedAsExternal)
}

func TestWithDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := Config{
		ImpactThresholds: ImpactThresholds{MediumFiles: 10, HighFiles: 40},
		ChangesetDir:     "changes",
	}.WithDefaults()

	assert.Equal(t, 10, cfg.ImpactThresholds.MediumFiles)
	assert.Equal(t, 40, cfg.ImpactThresholds.HighFiles)
	assert.Equal(t, "changes", cfg.ChangesetDir)
}

func TestValidateRejectsInvertedThresholds(t *testing.T) {
	cfg := Config{ImpactThresholds: ImpactThresholds{MediumFiles: 20, HighFiles: 5}}.WithDefaults()
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestValidateUnifiedRequiresParseableVersion(t *testing.T) {
	cfg := Config{VersionStrategy: StrategyConfig{Kind: StrategyUnified, Version: "not-a-version"}}.WithDefaults()
	assert.Error(t, cfg.Validate())

	cfg = Config{VersionStrategy: StrategyConfig{Kind: StrategyUnified, Version: "1.2.3"}}.WithDefaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidateManualRequiresAtLeastOneEntry(t *testing.T) {
	cfg := Config{VersionStrategy: StrategyConfig{Kind: StrategyManual}}.WithDefaults()
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownStrategyKind(t *testing.T) {
	cfg := Config{VersionStrategy: StrategyConfig{Kind: "bogus"}}.WithDefaults()
	assert.Error(t, cfg.Validate())
}

func TestStrategyIndependent(t *testing.T) {
	cfg := Config{}.WithDefaults()
	s, err := cfg.Strategy(nil)
	require.NoError(t, err)
	assert.Equal(t, planner.Independent, s.Kind)
}

func TestStrategyUnifiedParsesTarget(t *testing.T) {
	cfg := Config{VersionStrategy: StrategyConfig{Kind: StrategyUnified, Version: "2.0.0"}}.WithDefaults()
	s, err := cfg.Strategy(nil)
	require.NoError(t, err)
	assert.Equal(t, planner.Unified, s.Kind)
	assert.True(t, s.Target.Equal(semver.MustParse("2.0.0")))
}

func TestStrategyManualParsesVersionMap(t *testing.T) {
	cfg := Config{VersionStrategy: StrategyConfig{
		Kind:   StrategyManual,
		Manual: map[string]string{"core": "3.1.0"},
	}}.WithDefaults()

	s, err := cfg.Strategy(nil)
	require.NoError(t, err)
	assert.Equal(t, planner.Manual, s.Kind)
	assert.True(t, s.ManualVersions["core"].Equal(semver.MustParse("3.1.0")))
}

func TestStrategyConventionalCarriesCommits(t *testing.T) {
	cfg := Config{VersionStrategy: StrategyConfig{Kind: StrategyConventional}}.WithDefaults()
	commits := []planner.Commit{{Message: "feat: add thing"}}
	s, err := cfg.Strategy(commits)
	require.NoError(t, err)
	assert.Equal(t, planner.ConventionalCommits, s.Kind)
	assert.Equal(t, commits, s.Commits)
}

func TestThresholdsConversion(t *testing.T) {
	cfg := Config{}.WithDefaults()
	th := cfg.Thresholds()
	assert.Equal(t, 5, th.MediumFileCount)
	assert.Equal(t, 15, th.HighFileCount)
}

func TestValidateOptionsConversion(t *testing.T) {
	cfg := Config{
		TreatUnresolvedAsExternal: true,
		InternalDependencies:      []string{"@org/core"},
	}.WithDefaults()

	opts := cfg.ValidateOptions()
	assert.True(t, opts.TreatUnresolvedAsExternal)
	assert.Equal(t, []string{"@org/core"}, opts.InternalDependencies)
}

func TestManualTargetsOnlyPopulatedForManualStrategy(t *testing.T) {
	cfg := Config{}.WithDefaults()
	targets, err := cfg.ManualTargets()
	require.NoError(t, err)
	assert.Nil(t, targets)

	cfg = Config{VersionStrategy: StrategyConfig{
		Kind:   StrategyManual,
		Manual: map[string]string{"core": "1.0.0"},
	}}.WithDefaults()
	targets, err = cfg.ManualTargets()
	require.NoError(t, err)
	assert.True(t, targets["core"].Equal(semver.MustParse("1.0.0")))
}
