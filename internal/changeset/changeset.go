// Package changeset implements the Changeset Store: a pending changeset
// per branch plus a cumulative archive of released changesets, behind
// one Store interface with Memory and File-backed implementations.
//
// Grounded on the original tree's consignment/shipment split (a
// pending-file Manager backed by internal/consignment plus an
// append-only shipment-history.json via internal/history), collapsed
// here into a single store since spec.md keeps pending and archived
// changesets behind one interface rather than two managers.
package changeset

import (
	"errors"
	"time"

	"github.com/sublime-tools/monorepo/pkg/semver"
)

// ErrNotFound is returned by Load and LoadArchived when the requested
// branch has no matching record.
var ErrNotFound = errors.New("changeset: not found")

// ErrConcurrentModification is returned by Archive when the pending
// file on disk no longer matches the Changeset being archived, i.e.
// another writer changed or removed it first.
var ErrConcurrentModification = errors.New("changeset: concurrent modification detected")

// Changeset is the unit of pending release intent for one branch.
type Changeset struct {
	Branch       string
	Bump         semver.BumpKind // "" means None: activity recorded, no version impact
	Packages     []string
	Environments []string
	Commits      []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReleaseInfo records how and when a Changeset was released.
type ReleaseInfo struct {
	AppliedBy        string
	AppliedAt        time.Time
	GitCommit        string
	ReleasedVersions map[string]string // package name -> released version
}

// ArchivedChangeset is an immutable historical record: the Changeset
// as it stood at release time, plus how it was released.
type ArchivedChangeset struct {
	Changeset
	ReleaseInfo ReleaseInfo
}

// Store is the Changeset Store port: one interface, two backends.
type Store interface {
	Save(c Changeset) error
	Load(branch string) (Changeset, error)
	Exists(branch string) (bool, error)
	ListPending() ([]Changeset, error)
	Archive(c Changeset, info ReleaseInfo) error
	LoadArchived(branch string) (ArchivedChangeset, error)
	ListArchived() ([]ArchivedChangeset, error)
	Remove(branch string) error
}

func equalCore(a, b Changeset) bool {
	if a.Branch != b.Branch || a.Bump != b.Bump {
		return false
	}
	if !a.CreatedAt.Equal(b.CreatedAt) || !a.UpdatedAt.Equal(b.UpdatedAt) {
		return false
	}
	return equalStrings(sortedCopy(a.Packages), sortedCopy(b.Packages)) &&
		equalStrings(a.Environments, b.Environments) &&
		equalStrings(a.Commits, b.Commits)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
