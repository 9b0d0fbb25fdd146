package semver

import (
	"fmt"
	"strings"

	mastersemver "github.com/Masterminds/semver/v3"
)

// VersionReq is a version-requirement range, e.g. "^1.2.3", "~1.2",
// ">=1.0.0,<2.0.0", or "*". Comma-joined clauses are an intersection.
type VersionReq struct {
	raw   string
	inner *mastersemver.Constraints
}

// ParseReq parses a requirement string understood by the usual
// operators: =, <, <=, >, >=, ^, ~, *, and comma-joined intersections.
func ParseReq(s string) (VersionReq, error) {
	c, err := mastersemver.NewConstraint(s)
	if err != nil {
		return VersionReq{}, fmt.Errorf("parse version requirement %q: %w", s, err)
	}
	return VersionReq{raw: s, inner: c}, nil
}

// MustParseReq parses s and panics on error.
func MustParseReq(s string) VersionReq {
	r, err := ParseReq(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r VersionReq) String() string { return r.raw }

// Satisfies reports whether v satisfies this requirement.
func (r VersionReq) Satisfies(v Version) bool {
	if r.inner == nil || v.inner == nil {
		return false
	}
	return r.inner.Check(v.inner)
}

// Operator classifies the leading operator of a single-clause
// requirement string, used by the Version Planner's
// dependency-requirement rewriting policy.
type Operator string

const (
	OperatorCaret Operator = "caret" // ^X.Y.Z
	OperatorTilde Operator = "tilde" // ~X.Y.Z
	OperatorExact Operator = "exact" // X.Y.Z or =X.Y.Z, no range
	OperatorRange Operator = "range" // anything else: comparators, comma intersections, wildcards
)

// DetectOperator classifies req for the rewriting policy in the
// Version Planner: caret/tilde requirements preserve their operator
// when rewritten, exact pins are replaced verbatim, and anything else
// is left untouched (a VersionConflict warning is raised by the caller).
func DetectOperator(req string) Operator {
	trimmed := strings.TrimSpace(req)
	if strings.HasPrefix(trimmed, "^") {
		return OperatorCaret
	}
	if strings.HasPrefix(trimmed, "~") {
		return OperatorTilde
	}
	if strings.Contains(trimmed, ",") || strings.ContainsAny(trimmed, "<>*") {
		return OperatorRange
	}
	return OperatorExact
}

// RewriteReq rewrites req to target a new version per DetectOperator's
// policy, returning the new requirement string and whether it was
// rewritten (false for OperatorRange, which is left untouched).
func RewriteReq(req string, newVersion Version) (string, bool) {
	switch DetectOperator(req) {
	case OperatorCaret:
		return "^" + newVersion.String(), true
	case OperatorTilde:
		return "~" + newVersion.String(), true
	case OperatorExact:
		trimmed := strings.TrimPrefix(strings.TrimSpace(req), "=")
		if trimmed != strings.TrimSpace(req) {
			return "=" + newVersion.String(), true
		}
		return newVersion.String(), true
	default:
		return req, false
	}
}
