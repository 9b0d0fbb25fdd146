package planner

import (
	"fmt"
	"strings"

	"github.com/sublime-tools/monorepo/internal/changedetect"
	"github.com/sublime-tools/monorepo/internal/depgraph"
	"github.com/sublime-tools/monorepo/internal/manifest"
	"github.com/sublime-tools/monorepo/pkg/semver"
)

func computeDirectBumps(packages []*manifest.Package, changes []*changedetect.PackageChange, g *depgraph.Graph, strategy Strategy) (map[string]directBump, error) {
	switch strategy.Kind {
	case Independent:
		return directFromChanges(changes), nil
	case Unified:
		return directUnified(changes, g, strategy.Target), nil
	case ConventionalCommits:
		return directFromCommits(packages, strategy.Commits), nil
	case Manual:
		return directManual(strategy.ManualVersions), nil
	default:
		return nil, fmt.Errorf("unknown version planner strategy %q", strategy.Kind)
	}
}

func directFromChanges(changes []*changedetect.PackageChange) map[string]directBump {
	direct := make(map[string]directBump)
	for _, c := range changes {
		if c.SuggestedBump == "" {
			continue
		}
		direct[c.Package] = directBump{bump: c.SuggestedBump, source: SourceDirect}
	}
	return direct
}

func directUnified(changes []*changedetect.PackageChange, g *depgraph.Graph, target semver.Version) map[string]directBump {
	affected := changedetect.FindAffectedPackages(changes, g)
	direct := make(map[string]directBump, len(affected))
	t := target
	for _, name := range affected {
		direct[name] = directBump{exact: &t, source: SourceUnified}
	}
	return direct
}

func directManual(versions map[string]semver.Version) map[string]directBump {
	direct := make(map[string]directBump, len(versions))
	for name, v := range versions {
		v := v
		direct[name] = directBump{exact: &v, source: SourceManual}
	}
	return direct
}

func directFromCommits(packages []*manifest.Package, commits []Commit) map[string]directBump {
	bumps := make(map[string]semver.BumpKind)

	for _, commit := range commits {
		commitBump := conventionalBump(commit.Message)
		if commitBump == "" {
			continue
		}

		var files []changedetect.FileChange
		for _, f := range commit.Files {
			files = append(files, changedetect.FileChange{Path: f, Kind: changedetect.Modified})
		}

		owned := changedetect.Owner(files, packages)
		for name := range owned {
			bumps[name] = semver.Max(bumps[name], commitBump)
		}
	}

	direct := make(map[string]directBump, len(bumps))
	for name, bump := range bumps {
		direct[name] = directBump{bump: bump, source: SourceDirect}
	}
	return direct
}

// conventionalBump classifies a Conventional Commits message per
// spec.md §4.F: feat!/BREAKING CHANGE -> Major, feat: -> Minor,
// fix:/perf: -> Patch, anything else -> no bump.
func conventionalBump(message string) semver.BumpKind {
	firstLine := message
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		firstLine = message[:idx]
	}

	if strings.Contains(message, "BREAKING CHANGE:") {
		return semver.Major
	}

	colon := strings.IndexByte(firstLine, ':')
	header := firstLine
	if colon >= 0 {
		header = firstLine[:colon]
	}

	switch {
	case strings.HasPrefix(header, "feat!") || strings.HasSuffix(header, "!"):
		return semver.Major
	case strings.HasPrefix(header, "feat"):
		return semver.Minor
	case strings.HasPrefix(header, "fix") || strings.HasPrefix(header, "perf"):
		return semver.Patch
	default:
		return ""
	}
}
