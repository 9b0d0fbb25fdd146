package depgraph

import "sort"

// IssueKind classifies a ValidationReport entry.
type IssueKind string

const (
	IssueCircularDependency   IssueKind = "CircularDependency"
	IssueUnresolvedDependency IssueKind = "UnresolvedDependency"
	IssueVersionConflict      IssueKind = "VersionConflict"
)

// Issue is one structural finding from Validate.
type Issue struct {
	Kind       IssueKind
	Critical   bool
	Path       []string // CircularDependency
	Dependent  string    // UnresolvedDependency
	Name       string    // UnresolvedDependency, VersionConflict
	VersionReq string    // UnresolvedDependency
	Versions   []string  // VersionConflict
}

// Report is the structural ValidationReport produced by Validate.
type Report struct {
	Issues []Issue
}

func (r *Report) HasCritical() bool {
	for _, i := range r.Issues {
		if i.Critical {
			return true
		}
	}
	return false
}

// ValidateOptions tunes how unresolved dependencies are classified.
type ValidateOptions struct {
	TreatUnresolvedAsExternal bool
	ExternalAllowList         []string
	// InternalDependencies always stays critical even when the name
	// would otherwise match ExternalAllowList or TreatUnresolvedAsExternal.
	InternalDependencies []string
}

func (o ValidateOptions) isAllowedExternal(name string) bool {
	for _, internal := range o.InternalDependencies {
		if internal == name {
			return false
		}
	}
	if o.TreatUnresolvedAsExternal {
		return true
	}
	for _, allowed := range o.ExternalAllowList {
		if allowed == name {
			return true
		}
	}
	return false
}

// Validate runs FindSCCs and reports
// CircularDependency, UnresolvedDependency, and VersionConflict
// issues, each ordered deterministically by kind then involved name.
func Validate(g *Graph, opts ValidateOptions) *Report {
	FindSCCs(g)

	var issues []Issue

	_, cycles := DetectCycles(g)
	for _, cycle := range cycles {
		issues = append(issues, Issue{Kind: IssueCircularDependency, Critical: true, Path: cycle})
	}

	for _, name := range g.order {
		node := g.nodes[name]

		// A version-mismatch edge targets a Resolved node directly
		// (spec.md:40/:250), so it is reported here regardless of the
		// target node's own Kind, and is always critical: the
		// workspace package is right there under this name, so it can
		// never be "external" the way a missing package can.
		for _, e := range g.edgesTo[name] {
			if !e.VersionMismatch {
				continue
			}
			dependent, ok := g.nodes[e.From]
			if !ok || dependent.Kind != Resolved {
				continue
			}
			req, _, _ := dependent.Package.RequirementFor(name)
			issues = append(issues, Issue{
				Kind:       IssueUnresolvedDependency,
				Critical:   true,
				Dependent:  e.From,
				Name:       name,
				VersionReq: req,
			})
		}

		if node.Kind != Unresolved {
			continue
		}

		critical := !opts.isAllowedExternal(name)

		for _, e := range g.edgesTo[name] {
			dependent, ok := g.nodes[e.From]
			if !ok || dependent.Kind != Resolved {
				continue
			}
			req, _, _ := dependent.Package.RequirementFor(name)
			issues = append(issues, Issue{
				Kind:       IssueUnresolvedDependency,
				Critical:   critical,
				Dependent:  e.From,
				Name:       name,
				VersionReq: req,
			})
		}

		if len(node.Requirements) > 1 {
			versions := append([]string(nil), node.Requirements...)
			sort.Strings(versions)
			issues = append(issues, Issue{
				Kind:     IssueVersionConflict,
				Critical: true,
				Name:     name,
				Versions: versions,
			})
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Kind != issues[j].Kind {
			return issues[i].Kind < issues[j].Kind
		}
		return issueSortKey(issues[i]) < issueSortKey(issues[j])
	})

	return &Report{Issues: issues}
}

func issueSortKey(i Issue) string {
	switch i.Kind {
	case IssueCircularDependency:
		if len(i.Path) > 0 {
			return i.Path[0]
		}
		return ""
	case IssueUnresolvedDependency:
		return i.Dependent + "/" + i.Name
	case IssueVersionConflict:
		return i.Name
	default:
		return ""
	}
}
