// Package config implements the typed configuration struct spec.md
// §6 ("Environment") describes: the core reads no environment
// variables directly, so every threshold, path, and strategy choice
// arrives through this struct, loaded the way the teacher's own
// viper-backed pkg/config loads a project file.
package config

import (
	"fmt"
	"strings"

	"github.com/sublime-tools/monorepo/internal/changedetect"
	"github.com/sublime-tools/monorepo/internal/depgraph"
	"github.com/sublime-tools/monorepo/internal/planner"
	"github.com/sublime-tools/monorepo/pkg/semver"
)

// ImpactThresholds mirrors spec.md §6's impact_thresholds.{medium,high}_files.
type ImpactThresholds struct {
	MediumFiles int `mapstructure:"medium_files" yaml:"medium_files"`
	HighFiles   int `mapstructure:"high_files" yaml:"high_files"`
}

// ConventionalCommitsConfig mirrors spec.md §6's conventional_commits.require.
type ConventionalCommitsConfig struct {
	Require bool `mapstructure:"require" yaml:"require"`
}

// StrategyConfig mirrors spec.md §6's version_strategy, a tagged union
// the file format flattens into one object carrying only the fields
// its kind uses.
type StrategyConfig struct {
	Kind    string            `mapstructure:"kind" yaml:"kind"`
	Version string            `mapstructure:"version" yaml:"version,omitempty"`
	FromRef string            `mapstructure:"from_ref" yaml:"from_ref,omitempty"`
	Manual  map[string]string `mapstructure:"manual" yaml:"manual,omitempty"`
}

const (
	StrategyIndependent  = "independent"
	StrategyUnified      = "unified"
	StrategyConventional = "conventional"
	StrategyManual       = "manual"
)

// Config is the typed configuration struct the core reads.
type Config struct {
	ImpactThresholds          ImpactThresholds          `mapstructure:"impact_thresholds" yaml:"impact_thresholds"`
	SnapshotPattern           string                    `mapstructure:"snapshot_pattern" yaml:"snapshot_pattern"`
	ChangesetDir              string                    `mapstructure:"changeset_dir" yaml:"changeset_dir"`
	TreatUnresolvedAsExternal bool                      `mapstructure:"treat_unresolved_as_external" yaml:"treat_unresolved_as_external"`
	InternalDependencies      []string                  `mapstructure:"internal_dependencies" yaml:"internal_dependencies,omitempty"`
	VersionStrategy           StrategyConfig            `mapstructure:"version_strategy" yaml:"version_strategy"`
	ConventionalCommits       ConventionalCommitsConfig `mapstructure:"conventional_commits" yaml:"conventional_commits"`
}

// WithDefaults returns a copy of cfg with spec.md §6's documented
// defaults filled in wherever the loaded value is the zero value.
func (c Config) WithDefaults() *Config {
	out := c
	if out.ImpactThresholds.MediumFiles == 0 {
		out.ImpactThresholds.MediumFiles = changedetect.DefaultThresholds.MediumFileCount
	}
	if out.ImpactThresholds.HighFiles == 0 {
		out.ImpactThresholds.HighFiles = changedetect.DefaultThresholds.HighFileCount
	}
	if out.SnapshotPattern == "" {
		out.SnapshotPattern = semver.DefaultSnapshotPattern
	}
	if out.ChangesetDir == "" {
		out.ChangesetDir = ".changesets"
	}
	if out.VersionStrategy.Kind == "" {
		out.VersionStrategy.Kind = StrategyIndependent
	}
	return &out
}

// Validate checks internal consistency of the loaded configuration.
func (c *Config) Validate() error {
	if c.ImpactThresholds.MediumFiles <= 0 || c.ImpactThresholds.HighFiles <= 0 {
		return fmt.Errorf("config: impact_thresholds must be positive")
	}
	if c.ImpactThresholds.HighFiles < c.ImpactThresholds.MediumFiles {
		return fmt.Errorf("config: impact_thresholds.high_files must be >= medium_files")
	}

	switch c.VersionStrategy.Kind {
	case StrategyIndependent, "":
	case StrategyUnified:
		if c.VersionStrategy.Version == "" {
			return fmt.Errorf("config: version_strategy.unified requires a version")
		}
		if _, err := semver.Parse(c.VersionStrategy.Version); err != nil {
			return fmt.Errorf("config: version_strategy.version: %w", err)
		}
	case StrategyConventional:
		// from_ref is optional; an empty value walks the full commit history.
	case StrategyManual:
		if len(c.VersionStrategy.Manual) == 0 {
			return fmt.Errorf("config: version_strategy.manual requires at least one entry")
		}
		for name, v := range c.VersionStrategy.Manual {
			if _, err := semver.Parse(v); err != nil {
				return fmt.Errorf("config: version_strategy.manual[%s]: %w", name, err)
			}
		}
	default:
		return fmt.Errorf("config: unknown version_strategy.kind %q", c.VersionStrategy.Kind)
	}

	return nil
}

// Thresholds converts the configured impact thresholds into the
// Change Detector's own type.
func (c *Config) Thresholds() changedetect.Thresholds {
	return changedetect.Thresholds{
		MediumFileCount: c.ImpactThresholds.MediumFiles,
		HighFileCount:   c.ImpactThresholds.HighFiles,
	}
}

// ValidateOptions converts the configured unresolved-dependency policy
// into the Dependency Graph's own validation options.
func (c *Config) ValidateOptions() depgraph.ValidateOptions {
	return depgraph.ValidateOptions{
		TreatUnresolvedAsExternal: c.TreatUnresolvedAsExternal,
		InternalDependencies:      c.InternalDependencies,
	}
}

// Strategy converts the configured version_strategy into the Version
// Planner's Strategy value. commits is only consulted for the
// conventional strategy; callers not using that strategy may pass nil.
func (c *Config) Strategy(commits []planner.Commit) (planner.Strategy, error) {
	switch c.VersionStrategy.Kind {
	case StrategyIndependent, "":
		return planner.Strategy{Kind: planner.Independent}, nil

	case StrategyUnified:
		target, err := semver.Parse(c.VersionStrategy.Version)
		if err != nil {
			return planner.Strategy{}, fmt.Errorf("config: version_strategy.version: %w", err)
		}
		return planner.Strategy{Kind: planner.Unified, Target: target}, nil

	case StrategyConventional:
		return planner.Strategy{Kind: planner.ConventionalCommits, Commits: commits}, nil

	case StrategyManual:
		manual := make(map[string]semver.Version, len(c.VersionStrategy.Manual))
		for name, raw := range c.VersionStrategy.Manual {
			v, err := semver.Parse(raw)
			if err != nil {
				return planner.Strategy{}, fmt.Errorf("config: version_strategy.manual[%s]: %w", name, err)
			}
			manual[name] = v
		}
		return planner.Strategy{Kind: planner.Manual, ManualVersions: manual}, nil

	default:
		return planner.Strategy{}, fmt.Errorf("config: unknown version_strategy.kind %q", c.VersionStrategy.Kind)
	}
}

// ManualTargets exposes the manual strategy's target versions in the
// form Validation's manual-cycle check expects, for callers that want
// to validate a manual plan without going through Strategy first.
func (c *Config) ManualTargets() (map[string]semver.Version, error) {
	if c.VersionStrategy.Kind != StrategyManual {
		return nil, nil
	}
	strategy, err := c.Strategy(nil)
	if err != nil {
		return nil, err
	}
	return strategy.ManualVersions, nil
}

func (s StrategyConfig) String() string {
	switch s.Kind {
	case StrategyUnified:
		return fmt.Sprintf("unified(%s)", s.Version)
	case StrategyConventional:
		if s.FromRef == "" {
			return "conventional"
		}
		return fmt.Sprintf("conventional(from_ref=%s)", s.FromRef)
	case StrategyManual:
		return fmt.Sprintf("manual(%d entries)", len(s.Manual))
	default:
		return strings.TrimSpace(s.Kind)
	}
}
