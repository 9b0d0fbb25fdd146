package changeset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/sublime-tools/monorepo/pkg/semver"
)

const rfc3339UTC = time.RFC3339

type wireChangeset struct {
	Branch       string   `json:"branch"`
	Bump         string   `json:"bump"`
	Packages     []string `json:"packages"`
	Environments []string `json:"environments"`
	Changes      []string `json:"changes"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

type wireReleaseInfo struct {
	AppliedBy        string            `json:"applied_by"`
	AppliedAt        string            `json:"applied_at"`
	GitCommit        string            `json:"git_commit"`
	ReleasedVersions map[string]string `json:"released_versions"`
}

type wireArchivedChangeset struct {
	Branch       string          `json:"branch"`
	Bump         string          `json:"bump"`
	Packages     []string        `json:"packages"`
	Environments []string        `json:"environments"`
	Changes      []string        `json:"changes"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
	ReleaseInfo  wireReleaseInfo `json:"release_info"`
}

func bumpToWire(b semver.BumpKind) string {
	if b == "" {
		return "none"
	}
	return string(b)
}

func bumpFromWire(s string) (semver.BumpKind, error) {
	if s == "none" || s == "" {
		return "", nil
	}
	switch semver.BumpKind(s) {
	case semver.Major, semver.Minor, semver.Patch:
		return semver.BumpKind(s), nil
	default:
		return "", fmt.Errorf("changeset: invalid bump %q", s)
	}
}

func toWire(c Changeset) wireChangeset {
	return wireChangeset{
		Branch:       c.Branch,
		Bump:         bumpToWire(c.Bump),
		Packages:     sortedCopy(c.Packages),
		Environments: append([]string(nil), c.Environments...),
		Changes:      append([]string(nil), c.Commits...),
		CreatedAt:    c.CreatedAt.UTC().Format(rfc3339UTC),
		UpdatedAt:    c.UpdatedAt.UTC().Format(rfc3339UTC),
	}
}

func fromWire(w wireChangeset) (Changeset, error) {
	bump, err := bumpFromWire(w.Bump)
	if err != nil {
		return Changeset{}, err
	}
	created, err := time.Parse(rfc3339UTC, w.CreatedAt)
	if err != nil {
		return Changeset{}, fmt.Errorf("changeset: invalid created_at: %w", err)
	}
	updated, err := time.Parse(rfc3339UTC, w.UpdatedAt)
	if err != nil {
		return Changeset{}, fmt.Errorf("changeset: invalid updated_at: %w", err)
	}
	return Changeset{
		Branch:       w.Branch,
		Bump:         bump,
		Packages:     w.Packages,
		Environments: w.Environments,
		Commits:      w.Changes,
		CreatedAt:    created.UTC(),
		UpdatedAt:    updated.UTC(),
	}, nil
}

func toWireArchived(a ArchivedChangeset) wireArchivedChangeset {
	base := toWire(a.Changeset)
	return wireArchivedChangeset{
		Branch:       base.Branch,
		Bump:         base.Bump,
		Packages:     base.Packages,
		Environments: base.Environments,
		Changes:      base.Changes,
		CreatedAt:    base.CreatedAt,
		UpdatedAt:    base.UpdatedAt,
		ReleaseInfo: wireReleaseInfo{
			AppliedBy:        a.ReleaseInfo.AppliedBy,
			AppliedAt:        a.ReleaseInfo.AppliedAt.UTC().Format(rfc3339UTC),
			GitCommit:        a.ReleaseInfo.GitCommit,
			ReleasedVersions: a.ReleaseInfo.ReleasedVersions,
		},
	}
}

func fromWireArchived(w wireArchivedChangeset) (ArchivedChangeset, error) {
	base, err := fromWire(wireChangeset{
		Branch:       w.Branch,
		Bump:         w.Bump,
		Packages:     w.Packages,
		Environments: w.Environments,
		Changes:      w.Changes,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	})
	if err != nil {
		return ArchivedChangeset{}, err
	}
	appliedAt, err := time.Parse(rfc3339UTC, w.ReleaseInfo.AppliedAt)
	if err != nil {
		return ArchivedChangeset{}, fmt.Errorf("changeset: invalid applied_at: %w", err)
	}
	return ArchivedChangeset{
		Changeset: base,
		ReleaseInfo: ReleaseInfo{
			AppliedBy:        w.ReleaseInfo.AppliedBy,
			AppliedAt:        appliedAt.UTC(),
			GitCommit:        w.ReleaseInfo.GitCommit,
			ReleasedVersions: w.ReleaseInfo.ReleasedVersions,
		},
	}, nil
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

// marshalCanonical renders v as stable JSON: sorted object keys,
// two-space indent, trailing newline. Round-tripping through a
// generic interface{} is what buys the sorted keys, since Go only
// sorts map keys (not struct field order) when marshaling.
func marshalCanonical(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalChangeset(c Changeset) ([]byte, error) {
	return marshalCanonical(toWire(c))
}

func unmarshalChangeset(data []byte) (Changeset, error) {
	var w wireChangeset
	if err := json.Unmarshal(data, &w); err != nil {
		return Changeset{}, err
	}
	return fromWire(w)
}

func marshalArchived(a ArchivedChangeset) ([]byte, error) {
	return marshalCanonical(toWireArchived(a))
}

func unmarshalArchived(data []byte) (ArchivedChangeset, error) {
	var w wireArchivedChangeset
	if err := json.Unmarshal(data, &w); err != nil {
		return ArchivedChangeset{}, err
	}
	return fromWireArchived(w)
}
