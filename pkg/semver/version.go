// Package semver wraps github.com/Masterminds/semver/v3 in a small
// facade that keeps the naming conventions (Bump, Compare, String)
// the rest of the toolkit uses elsewhere, while adding the
// range/requirement support and snapshot formatting this toolkit
// needs that a bare Major/Minor/Patch struct cannot provide.
package semver

import (
	"fmt"

	mastersemver "github.com/Masterminds/semver/v3"
)

// Version is an immutable, well-formed semver 2.0 version.
type Version struct {
	inner *mastersemver.Version
}

// Parse parses a semver string, tolerating a leading "v".
func Parse(s string) (Version, error) {
	v, err := mastersemver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("parse version %q: %w", s, err)
	}
	return Version{inner: v}, nil
}

// MustParse parses s and panics on error. Intended for tests and constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Zero reports whether v is the unset zero value.
func (v Version) Zero() bool { return v.inner == nil }

func (v Version) String() string {
	if v.inner == nil {
		return "0.0.0"
	}
	return v.inner.String()
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater
// than other, per semver 2.0 precedence rules.
func (v Version) Compare(other Version) int {
	return v.inner.Compare(other.inner)
}

func (v Version) Equal(other Version) bool       { return v.Compare(other) == 0 }
func (v Version) LessThan(other Version) bool    { return v.Compare(other) < 0 }
func (v Version) GreaterThan(other Version) bool { return v.Compare(other) > 0 }

func (v Version) Major() uint64 { return v.inner.Major() }
func (v Version) Minor() uint64 { return v.inner.Minor() }
func (v Version) Patch() uint64 { return v.inner.Patch() }

// BumpKind is the unit of a version bump.
type BumpKind string

const (
	Major BumpKind = "major"
	Minor BumpKind = "minor"
	Patch BumpKind = "patch"
)

// ParseBumpKind validates a bump kind string.
func ParseBumpKind(s string) (BumpKind, error) {
	switch BumpKind(s) {
	case Major, Minor, Patch:
		return BumpKind(s), nil
	default:
		return "", fmt.Errorf("invalid bump kind %q", s)
	}
}

// Bump returns a new Version with pre-release and build metadata
// dropped: Major -> (M+1,0,0); Minor -> (M,m+1,0); Patch -> (M,m,p+1).
func (v Version) Bump(kind BumpKind) (Version, error) {
	switch kind {
	case Major:
		nv := v.inner.IncMajor()
		return Version{inner: &nv}, nil
	case Minor:
		nv := v.inner.IncMinor()
		return Version{inner: &nv}, nil
	case Patch:
		nv := v.inner.IncPatch()
		return Version{inner: &nv}, nil
	default:
		return Version{}, fmt.Errorf("invalid bump kind %q", kind)
	}
}

// Priority returns a numeric weight for ordering bump kinds: major > minor > patch.
func (k BumpKind) Priority() int {
	switch k {
	case Major:
		return 3
	case Minor:
		return 2
	case Patch:
		return 1
	default:
		return 0
	}
}

// Weaken returns the bump kind one step weaker: Major->Minor->Patch;
// Patch stays Patch. Used by the Independent propagation strategy.
func (k BumpKind) Weaken() BumpKind {
	switch k {
	case Major:
		return Minor
	case Minor:
		return Patch
	default:
		return Patch
	}
}

// Max returns whichever of a, b has the higher priority.
func Max(a, b BumpKind) BumpKind {
	if a.Priority() >= b.Priority() {
		return a
	}
	return b
}
