// Package monorepo implements the Facade (spec.md §4.I): the single
// entry point holding the workspace model, the lazily-rebuilt
// Dependency Graph, and the Changeset Store handle, exposing
// read-only views plus named mutating operations.
//
// Grounded on the wiring shape of the teacher's internal/cli/root.go
// (load a project config, then dispatch into subcommands against it)
// generalized into a reusable service object rather than a
// command-local call sequence, since spec.md asks for one long-lived
// facade the CLI (and any other caller) drives.
package monorepo

import (
	"fmt"
	"sync"

	"github.com/sublime-tools/monorepo/internal/changedetect"
	"github.com/sublime-tools/monorepo/internal/changeset"
	"github.com/sublime-tools/monorepo/internal/depgraph"
	"github.com/sublime-tools/monorepo/internal/manifest"
	"github.com/sublime-tools/monorepo/internal/planner"
	"github.com/sublime-tools/monorepo/internal/validate"
	"github.com/sublime-tools/monorepo/pkg/semver"
)

// Services is the Facade: one instance per monorepo root.
type Services struct {
	Root       string
	Changesets changeset.Store

	mu         sync.RWMutex
	packages   []*manifest.Package
	byName     map[string]*manifest.Package
	graph      *depgraph.Graph
	graphDirty bool
}

// New constructs a Services view over an already-discovered package
// list and a Changeset Store handle.
func New(root string, packages []*manifest.Package, store changeset.Store) *Services {
	s := &Services{Root: root, Changesets: store}
	s.setPackagesLocked(packages)
	return s
}

// Packages returns the current package list. Callers receive the
// slice itself for read-only use; mutate only through named
// operations below, per spec.md §3's ownership rule.
func (s *Services) Packages() []*manifest.Package {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.packages
}

// Package looks up one package by name.
func (s *Services) Package(name string) (*manifest.Package, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byName[name]
	return p, ok
}

// Graph lazily rebuilds and returns the Dependency Graph, per
// spec.md §4.I ("lazily rebuilds the graph when the Package list
// changes").
func (s *Services) Graph() (*depgraph.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graphLocked()
}

func (s *Services) graphLocked() (*depgraph.Graph, error) {
	if s.graph != nil && !s.graphDirty {
		return s.graph, nil
	}
	g, err := depgraph.Build(s.packages, depgraph.BuildOptions{})
	if err != nil {
		return nil, err
	}
	s.graph = g
	s.graphDirty = false
	return s.graph, nil
}

func (s *Services) setPackagesLocked(packages []*manifest.Package) {
	s.packages = packages
	s.byName = make(map[string]*manifest.Package, len(packages))
	for _, p := range packages {
		s.byName[p.Name] = p
	}
	s.graphDirty = true
}

// ValidateWorkspace exposes the Validation service's structural check
// over the current graph.
func (s *Services) ValidateWorkspace(opts depgraph.ValidateOptions) (*validate.Report, error) {
	g, err := s.Graph()
	if err != nil {
		return nil, err
	}
	return validate.ValidateWorkspace(g, opts), nil
}

// UpdateVersion is the named mutating operation that sets one
// package's version directly (e.g. from a Manual strategy entry
// applied outside of ApplyChanges) and refreshes the graph cache.
func (s *Services) UpdateVersion(name string, version semver.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateVersionLocked(name, version)
}

func (s *Services) updateVersionLocked(name string, version semver.Version) error {
	p, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("monorepo: unknown package %q", name)
	}
	p.Version = version
	s.graphDirty = true
	return nil
}

// ApplyChanges runs the Change Detector over fileChanges, plans
// version updates with the Version Planner under strategy, applies
// every resulting PackageVersionChange to the in-memory package list,
// and refreshes the graph cache. It does not touch the Changeset
// Store or disk; callers persist RequirementEdits/manifests and save
// or archive a Changeset separately, per spec.md §4.I's "mutations go
// through named operations... that internally refresh caches."
func (s *Services) ApplyChanges(fileChanges []changedetect.FileChange, deltas []changedetect.RequirementDelta, thresholds changedetect.Thresholds, strategy planner.Strategy, opts planner.Options) (*planner.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.graphLocked()
	if err != nil {
		return nil, err
	}

	pkgChanges := changedetect.Detect(fileChanges, s.packages, deltas, thresholds)
	result, err := planner.Plan(s.packages, pkgChanges, g, strategy, opts)
	if err != nil {
		return nil, err
	}

	for _, c := range result.Changes {
		if err := s.updateVersionLocked(c.Package, c.NewVersion); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// Bump is the named mutating operation for a direct, single-package
// version bump that still propagates through dependents the way
// Independent strategy does, without requiring a caller to fabricate
// a FileChange set.
func (s *Services) Bump(name string, kind semver.BumpKind, opts planner.Options) (*planner.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[name]; !ok {
		return nil, fmt.Errorf("monorepo: unknown package %q", name)
	}

	g, err := s.graphLocked()
	if err != nil {
		return nil, err
	}

	changes := []*changedetect.PackageChange{{Package: name, SuggestedBump: kind}}
	result, err := planner.Plan(s.packages, changes, g, planner.Strategy{Kind: planner.Independent}, opts)
	if err != nil {
		return nil, err
	}

	for _, c := range result.Changes {
		if err := s.updateVersionLocked(c.Package, c.NewVersion); err != nil {
			return nil, err
		}
	}

	return result, nil
}
