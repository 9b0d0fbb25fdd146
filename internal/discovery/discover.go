package discovery

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sublime-tools/monorepo/internal/errs"
	"github.com/sublime-tools/monorepo/internal/manifest"
)

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// Result is the output of Discover: the detected package manager and
// the sorted, duplicate-free package list.
type Result struct {
	Manager  PackageManagerKind
	Packages []*manifest.Package
}

// Discover runs the full Workspace Discovery pipeline: manager
// detection, glob resolution, enumeration, and manifest reading.
func Discover(root string) (*Result, error) {
	manager, err := DetectPackageManager(root)
	if err != nil {
		return nil, err
	}

	globs, hasGlobs, err := WorkspaceGlobs(root, manager)
	if err != nil {
		return nil, err
	}

	var dirs []string
	if !hasGlobs {
		dirs = []string{root}
	} else {
		dirs, err = matchWorkspaceDirs(root, globs)
		if err != nil {
			return nil, err
		}
	}

	packages := make([]*manifest.Package, 0, len(dirs))
	seen := make(map[string][]string)

	for _, dir := range dirs {
		manifestPath := filepath.Join(dir, manifest.ManifestFile)
		if !fileExists(manifestPath) {
			continue // skip directories without a manifest silently
		}

		pkg, _, err := manifest.Read(manifestPath)
		if err != nil {
			return nil, err
		}
		pkg.RelPath = relPath(root, dir)
		packages = append(packages, pkg)
		seen[pkg.Name] = append(seen[pkg.Name], pkg.RelPath)
	}

	for name, paths := range seen {
		if len(paths) > 1 {
			return nil, errs.NewDuplicatePackageError(name, paths)
		}
	}

	sort.Slice(packages, func(i, j int) bool { return packages[i].Name < packages[j].Name })

	return &Result{Manager: manager, Packages: packages}, nil
}

func relPath(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return dir
	}
	if rel == "." {
		return "."
	}
	return "./" + filepath.ToSlash(rel)
}

// matchWorkspaceDirs resolves glob patterns against root using **-any-
// depth / !negation semantics. Negations are applied after includes.
func matchWorkspaceDirs(root string, globs []string) ([]string, error) {
	var includes, excludes []string
	for _, g := range globs {
		if strings.HasPrefix(g, "!") {
			excludes = append(excludes, strings.TrimPrefix(g, "!"))
		} else {
			includes = append(includes, g)
		}
	}

	var allDirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path == root {
			return nil
		}
		name := d.Name()
		if skipDirs[name] || strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		allDirs = append(allDirs, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errs.NewIOError(root, err)
	}

	var matched []string
	for _, dir := range allDirs {
		if !matchesAny(includes, dir) {
			continue
		}
		if matchesAny(excludes, dir) {
			continue
		}
		matched = append(matched, filepath.Join(root, filepath.FromSlash(dir)))
	}

	sort.Strings(matched)
	return matched, nil
}

func matchesAny(patterns []string, candidate string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, candidate); ok {
			return true
		}
	}
	return false
}
