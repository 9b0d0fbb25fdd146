package discovery

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sublime-tools/monorepo/internal/errs"
	"github.com/sublime-tools/monorepo/internal/manifest"
)

// WorkspaceGlobs resolves the set of glob patterns a manager uses to
// declare its workspace members. Returns (nil, false) when the root
// carries no glob source at all, meaning the root is itself a
// single-package project.
func WorkspaceGlobs(root string, manager PackageManagerKind) ([]string, bool, error) {
	switch manager {
	case Pnpm:
		return pnpmWorkspaceGlobs(root)
	default:
		return manifestWorkspaceGlobs(root)
	}
}

func manifestWorkspaceGlobs(root string) ([]string, bool, error) {
	rootManifest := filepath.Join(root, manifest.ManifestFile)
	if !fileExists(rootManifest) {
		return nil, false, nil
	}
	pkg, _, err := manifest.Read(rootManifest)
	if err != nil {
		return nil, false, err
	}
	if len(pkg.Workspaces) == 0 {
		return nil, false, nil
	}
	return pkg.Workspaces, true, nil
}

type pnpmWorkspaceFile struct {
	Packages []string `yaml:"packages"`
}

func pnpmWorkspaceGlobs(root string) ([]string, bool, error) {
	path := filepath.Join(root, "pnpm-workspace.yaml")
	if !fileExists(path) {
		return nil, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, errs.NewIOError(path, err)
	}
	var parsed pnpmWorkspaceFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, false, errs.NewParseError(path, "packages", err)
	}
	if len(parsed.Packages) == 0 {
		return nil, false, nil
	}
	return parsed.Packages, true, nil
}
