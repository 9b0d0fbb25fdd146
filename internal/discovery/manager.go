// Package discovery implements Workspace Discovery: classifying which
// package manager a monorepo root uses, resolving its workspace glob
// patterns, and enumerating the packages they match.
package discovery

import (
	"os"
	"path/filepath"

	"github.com/sublime-tools/monorepo/internal/errs"
)

// PackageManagerKind identifies the detected package manager.
type PackageManagerKind string

const (
	Bun  PackageManagerKind = "bun"
	Pnpm PackageManagerKind = "pnpm"
	Yarn PackageManagerKind = "yarn"
	Npm  PackageManagerKind = "npm"
)

// lockfileProbe lists, in priority order, the lockfile whose presence
// classifies the root as that manager. First match wins.
var lockfileProbe = []struct {
	file    string
	manager PackageManagerKind
}{
	{"bun.lockb", Bun},
	{"pnpm-lock.yaml", Pnpm},
	{"yarn.lock", Yarn},
	{"package-lock.json", Npm},
	{"npm-shrinkwrap.json", Npm},
}

// DetectPackageManager probes root for the recognized lockfiles in
// priority order. Returns NoPackageManagerError if none match.
func DetectPackageManager(root string) (PackageManagerKind, error) {
	for _, probe := range lockfileProbe {
		if fileExists(filepath.Join(root, probe.file)) {
			return probe.manager, nil
		}
	}
	return "", errs.NewNoPackageManagerError(root)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
