// Package validate implements Validation (spec.md §4.H): a
// cross-cutting service over the Dependency Graph's validate() and
// the Version Planner's output, reporting structural issues and
// release-time issues through the shared internal/errs taxonomy.
package validate

import (
	"sort"

	"github.com/sublime-tools/monorepo/internal/depgraph"
	"github.com/sublime-tools/monorepo/internal/errs"
	"github.com/sublime-tools/monorepo/internal/planner"
	"github.com/sublime-tools/monorepo/pkg/semver"
)

// Issue pairs a typed error from internal/errs with whether it should
// be treated as critical (fails the enclosing operation) or a warning.
type Issue struct {
	Err      error
	Critical bool
}

// Report is an ordered collection of Issues. Order is deterministic:
// by errs type, then by the name(s) involved, matching spec.md §5's
// "ValidationReport issues appear in deterministic order" guarantee.
type Report struct {
	Issues []Issue
}

// HasCritical reports whether any Issue in the Report is critical.
func (r *Report) HasCritical() bool {
	for _, i := range r.Issues {
		if i.Critical {
			return true
		}
	}
	return false
}

// ValidateWorkspace runs the Dependency Graph's validate() and
// translates its findings into the shared errs taxonomy.
func ValidateWorkspace(g *depgraph.Graph, opts depgraph.ValidateOptions) *Report {
	dr := depgraph.Validate(g, opts)
	report := &Report{}
	for _, issue := range dr.Issues {
		report.Issues = append(report.Issues, fromDepgraphIssue(issue))
	}
	sortIssues(report.Issues)
	return report
}

func fromDepgraphIssue(issue depgraph.Issue) Issue {
	switch issue.Kind {
	case depgraph.IssueCircularDependency:
		return Issue{Err: errs.NewCycleError(issue.Path), Critical: issue.Critical}
	case depgraph.IssueUnresolvedDependency:
		return Issue{
			Err:      errs.NewUnresolvedError(issue.Dependent, issue.Name, issue.VersionReq, issue.Critical),
			Critical: issue.Critical,
		}
	case depgraph.IssueVersionConflict:
		return Issue{Err: errs.NewVersionConflictError(issue.Name, issue.Versions), Critical: issue.Critical}
	default:
		return Issue{Err: errs.NewVersionConflictError(issue.Name, issue.Versions), Critical: issue.Critical}
	}
}

// ValidateRelease runs ValidateWorkspace and overlays release-time
// issues from a computed plan: a VersionConflict warning for every
// RequirementEdit the Planner could not safely rewrite, a Downgrade
// for any package whose planned version compares below its current
// one, and a ManualCycleInconsistency for any dependency cycle where
// manualTargets names different versions across its members.
func ValidateRelease(g *depgraph.Graph, opts depgraph.ValidateOptions, plan *planner.Result, manualTargets map[string]semver.Version) *Report {
	report := ValidateWorkspace(g, opts)

	for _, edit := range plan.RequirementEdits {
		if edit.Rewritten {
			continue
		}
		report.Issues = append(report.Issues, Issue{
			Err:      errs.NewVersionConflictError(edit.Dependency, []string{edit.OldReq}),
			Critical: false,
		})
	}

	for _, c := range plan.Changes {
		if c.NewVersion.Compare(c.OldVersion) < 0 {
			report.Issues = append(report.Issues, Issue{
				Err:      errs.NewDowngradeError(c.Package, c.OldVersion.String(), c.NewVersion.String()),
				Critical: true,
			})
		}
	}

	report.Issues = append(report.Issues, manualCycleIssues(g, manualTargets)...)

	sortIssues(report.Issues)
	return report
}

func manualCycleIssues(g *depgraph.Graph, manualTargets map[string]semver.Version) []Issue {
	if len(manualTargets) == 0 {
		return nil
	}

	depgraph.FindSCCs(g)
	cg := depgraph.Condense(g)

	var issues []Issue
	for _, node := range cg.Nodes() {
		if len(node.Members) <= 1 {
			continue
		}

		members := append([]string(nil), node.Members...)
		sort.Strings(members)

		targets := make(map[string]string)
		var distinct []semver.Version
		for _, m := range members {
			v, ok := manualTargets[m]
			if !ok {
				continue
			}
			targets[m] = v.String()
			if !containsVersion(distinct, v) {
				distinct = append(distinct, v)
			}
		}
		if len(distinct) <= 1 {
			continue
		}

		issues = append(issues, Issue{
			Err:      errs.NewManualCycleInconsistencyError(members, targets),
			Critical: true,
		})
	}
	return issues
}

func containsVersion(versions []semver.Version, v semver.Version) bool {
	for _, existing := range versions {
		if existing.Equal(v) {
			return true
		}
	}
	return false
}

func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		ki, kj := issueKind(issues[i].Err), issueKind(issues[j].Err)
		if ki != kj {
			return ki < kj
		}
		return issueSortKey(issues[i].Err) < issueSortKey(issues[j].Err)
	})
}

func issueKind(err error) string {
	switch err.(type) {
	case *errs.CycleError:
		return "0-CircularDependency"
	case *errs.UnresolvedError:
		return "1-UnresolvedDependency"
	case *errs.VersionConflictError:
		return "2-VersionConflict"
	case *errs.DowngradeError:
		return "3-Downgrade"
	case *errs.ManualCycleInconsistencyError:
		return "4-ManualCycleInconsistency"
	default:
		return "9-Other"
	}
}

func issueSortKey(err error) string {
	switch e := err.(type) {
	case *errs.CycleError:
		if len(e.Cycle) > 0 {
			return e.Cycle[0]
		}
		return ""
	case *errs.UnresolvedError:
		return e.Dependent + "/" + e.Name
	case *errs.VersionConflictError:
		return e.Name
	case *errs.DowngradeError:
		return e.Name
	case *errs.ManualCycleInconsistencyError:
		if len(e.Cycle) > 0 {
			return e.Cycle[0]
		}
		return ""
	default:
		return err.Error()
	}
}
