// Package vcs implements the version-control collaborator port spec.md
// §6 names (status_changes, diff, log, current_branch, current_commit)
// over go-git, grounded on the teacher's pkg/git.GitClient /
// internal/git wiring of the same library.
package vcs

import (
	"fmt"
	"sort"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/sublime-tools/monorepo/internal/changedetect"
	"github.com/sublime-tools/monorepo/internal/planner"
)

// Collaborator is the narrow port the core depends on.
type Collaborator interface {
	StatusChanges() ([]changedetect.FileChange, error)
	Diff(fromRef, toRef string) ([]changedetect.FileChange, error)
	Log(fromRef, toRef string) ([]planner.Commit, error)
	CurrentBranch() (string, error)
	CurrentCommit() (string, error)
}

// Repository is the go-git-backed Collaborator implementation.
type Repository struct {
	repo *git.Repository
}

// Open opens an existing git repository rooted at dir.
func Open(dir string) (*Repository, error) {
	if dir == "" {
		dir = "."
	}
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("vcs: failed to open repository at %q: %w", dir, err)
	}
	return &Repository{repo: repo}, nil
}

// CurrentBranch returns HEAD's short branch name.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("vcs: failed to resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("vcs: HEAD is not pointing to a branch")
	}
	return head.Name().Short(), nil
}

// CurrentCommit returns HEAD's commit hash.
func (r *Repository) CurrentCommit() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("vcs: failed to resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// StatusChanges reports uncommitted worktree changes (staged and
// unstaged) relative to HEAD, as FileChanges the Change Detector
// consumes directly.
func (r *Repository) StatusChanges() ([]changedetect.FileChange, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("vcs: failed to get worktree: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("vcs: failed to get status: %w", err)
	}

	var changes []changedetect.FileChange
	for path, fileStatus := range status {
		kind, ok := statusKind(fileStatus)
		if !ok {
			continue
		}
		changes = append(changes, changedetect.FileChange{Path: path, Kind: kind})
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

func statusKind(s *git.FileStatus) (changedetect.FileChangeKind, bool) {
	code := s.Worktree
	if code == git.Unmodified {
		code = s.Staging
	}
	switch code {
	case git.Added, git.Untracked:
		return changedetect.Added, true
	case git.Modified:
		return changedetect.Modified, true
	case git.Deleted:
		return changedetect.Deleted, true
	case git.Renamed:
		return changedetect.Renamed, true
	case git.Copied:
		return changedetect.Copied, true
	default:
		return "", false
	}
}

// Diff returns the file-level changes between two refs.
func (r *Repository) Diff(fromRef, toRef string) ([]changedetect.FileChange, error) {
	fromCommit, err := r.resolveCommit(fromRef)
	if err != nil {
		return nil, err
	}
	toCommit, err := r.resolveCommit(toRef)
	if err != nil {
		return nil, err
	}

	fromTree, err := fromCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("vcs: failed to read tree for %q: %w", fromRef, err)
	}
	toTree, err := toCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("vcs: failed to read tree for %q: %w", toRef, err)
	}

	treeChanges, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, fmt.Errorf("vcs: failed to diff %q..%q: %w", fromRef, toRef, err)
	}

	var changes []changedetect.FileChange
	for _, c := range treeChanges {
		action, err := c.Action()
		if err != nil {
			return nil, fmt.Errorf("vcs: failed to classify diff entry: %w", err)
		}

		switch action {
		case merkletrie.Insert:
			changes = append(changes, changedetect.FileChange{Path: c.To.Name, Kind: changedetect.Added})
		case merkletrie.Delete:
			changes = append(changes, changedetect.FileChange{Path: c.From.Name, Kind: changedetect.Deleted})
		case merkletrie.Modify:
			changes = append(changes, changedetect.FileChange{Path: c.To.Name, Kind: changedetect.Modified})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

// Log returns the commits reachable from toRef but not fromRef, oldest
// first, as pre-fetched planner.Commit values for the conventional
// commits strategy.
func (r *Repository) Log(fromRef, toRef string) ([]planner.Commit, error) {
	toCommit, err := r.resolveCommit(toRef)
	if err != nil {
		return nil, err
	}

	var stopAt plumbing.Hash
	if fromRef != "" {
		fromCommit, err := r.resolveCommit(fromRef)
		if err != nil {
			return nil, err
		}
		stopAt = fromCommit.Hash
	}

	iter, err := r.repo.Log(&git.LogOptions{From: toCommit.Hash})
	if err != nil {
		return nil, fmt.Errorf("vcs: failed to walk log from %q: %w", toRef, err)
	}
	defer iter.Close()

	var commits []*object.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if !stopAt.IsZero() && c.Hash == stopAt {
			return storer.ErrStop
		}
		commits = append(commits, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vcs: failed to walk log: %w", err)
	}

	result := make([]planner.Commit, 0, len(commits))
	for i := len(commits) - 1; i >= 0; i-- {
		c := commits[i]
		files, err := commitFiles(c)
		if err != nil {
			return nil, err
		}
		result = append(result, planner.Commit{Message: c.Message, Files: files})
	}
	return result, nil
}

func commitFiles(c *object.Commit) ([]string, error) {
	if c.NumParents() == 0 {
		tree, err := c.Tree()
		if err != nil {
			return nil, fmt.Errorf("vcs: failed to read tree for %s: %w", c.Hash, err)
		}
		var files []string
		err = tree.Files().ForEach(func(f *object.File) error {
			files = append(files, f.Name)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("vcs: failed to list files for %s: %w", c.Hash, err)
		}
		return files, nil
	}

	parent, err := c.Parent(0)
	if err != nil {
		return nil, fmt.Errorf("vcs: failed to resolve parent of %s: %w", c.Hash, err)
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, fmt.Errorf("vcs: failed to read parent tree for %s: %w", c.Hash, err)
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("vcs: failed to read tree for %s: %w", c.Hash, err)
	}

	changes, err := parentTree.Diff(tree)
	if err != nil {
		return nil, fmt.Errorf("vcs: failed to diff %s against parent: %w", c.Hash, err)
	}

	var files []string
	for _, ch := range changes {
		if ch.To.Name != "" {
			files = append(files, ch.To.Name)
		} else {
			files = append(files, ch.From.Name)
		}
	}
	return files, nil
}

func (r *Repository) resolveCommit(ref string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("vcs: failed to resolve ref %q: %w", ref, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("vcs: failed to load commit %q: %w", ref, err)
	}
	return commit, nil
}
