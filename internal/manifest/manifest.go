// Package manifest implements the Manifest Reader: it parses one
// package.json-shaped manifest into a typed Package, and writes
// planned version/dependency-requirement edits back without
// disturbing any field the toolkit does not itself understand.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sublime-tools/monorepo/internal/errs"
	"github.com/sublime-tools/monorepo/pkg/semver"
)

const ManifestFile = "package.json"

// DependencyKind classifies which dependency map an edge came from.
type DependencyKind string

const (
	DependencyRuntime  DependencyKind = "runtime"
	DependencyDev      DependencyKind = "dev"
	DependencyPeer     DependencyKind = "peer"
	DependencyOptional DependencyKind = "optional"
)

// Package is the typed view of one manifest, per spec.md §3/§4.A.
type Package struct {
	Name    string
	Version semver.Version
	AbsPath string // absolute path to the package directory
	RelPath string // path relative to the monorepo root

	Dependencies         map[string]string // name -> version requirement
	DevDependencies      map[string]string
	PeerDependencies     map[string]string
	OptionalDependencies map[string]string

	// Workspaces carries the root manifest's "workspaces" field, used
	// only by Workspace Discovery on the root package; empty for
	// ordinary member packages.
	Workspaces []string
}

// AllDependencies returns every declared dependency across the three
// propagating maps plus optional, tagged with its kind.
func (p *Package) AllDependencies() map[string]DependencyKind {
	names := make(map[string]DependencyKind)
	for name := range p.Dependencies {
		names[name] = DependencyRuntime
	}
	for name := range p.PeerDependencies {
		if _, exists := names[name]; !exists {
			names[name] = DependencyPeer
		}
	}
	for name := range p.DevDependencies {
		if _, exists := names[name]; !exists {
			names[name] = DependencyDev
		}
	}
	for name := range p.OptionalDependencies {
		if _, exists := names[name]; !exists {
			names[name] = DependencyOptional
		}
	}
	return names
}

// RequirementFor returns the version requirement string for name and
// the kind of map it was found in, checked in runtime, peer, dev,
// optional order (matching AllDependencies' precedence).
func (p *Package) RequirementFor(name string) (string, DependencyKind, bool) {
	if req, ok := p.Dependencies[name]; ok {
		return req, DependencyRuntime, true
	}
	if req, ok := p.PeerDependencies[name]; ok {
		return req, DependencyPeer, true
	}
	if req, ok := p.DevDependencies[name]; ok {
		return req, DependencyDev, true
	}
	if req, ok := p.OptionalDependencies[name]; ok {
		return req, DependencyOptional, true
	}
	return "", "", false
}

type jsonManifest struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies,omitempty"`
	DevDependencies      map[string]string `json:"devDependencies,omitempty"`
	PeerDependencies     map[string]string `json:"peerDependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`
	Workspaces           json.RawMessage   `json:"workspaces,omitempty"`
}

// Document is the raw parsed manifest, kept alongside the typed
// Package so Write can edit only the fields the planner touched and
// keep every other field in its original key order. Write
// re-serializes the whole file with two-space indentation, so the
// original whitespace is not kept.
type Document struct {
	path   string
	fields []field
}

type field struct {
	key   string
	value json.RawMessage
}

// Read parses the manifest at path into a Package plus the raw
// Document needed to write it back later.
func Read(path string) (*Package, *Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errs.NewIOError(path, fmt.Errorf("manifest not found"))
		}
		return nil, nil, errs.NewIOError(path, err)
	}

	var typed jsonManifest
	if err := json.Unmarshal(data, &typed); err != nil {
		return nil, nil, errs.NewParseError(path, "", err)
	}

	if typed.Name == "" {
		return nil, nil, errs.NewMissingFieldError(path, "name")
	}
	if typed.Version == "" {
		return nil, nil, errs.NewMissingFieldError(path, "version")
	}

	version, err := semver.Parse(typed.Version)
	if err != nil {
		return nil, nil, errs.NewInvalidSemverError(typed.Version, err)
	}

	fields, err := parseOrderedObject(data)
	if err != nil {
		return nil, nil, errs.NewParseError(path, "", err)
	}

	var workspaces []string
	if len(typed.Workspaces) > 0 {
		workspaces, _ = parseWorkspacesField(typed.Workspaces)
	}

	pkg := &Package{
		Name:                 typed.Name,
		Version:              version,
		AbsPath:              filepath.Dir(path),
		Dependencies:         nonNil(typed.Dependencies),
		DevDependencies:      nonNil(typed.DevDependencies),
		PeerDependencies:     nonNil(typed.PeerDependencies),
		OptionalDependencies: nonNil(typed.OptionalDependencies),
		Workspaces:           workspaces,
	}

	doc := &Document{path: path, fields: fields}
	return pkg, doc, nil
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// parseWorkspacesField accepts both array form (["packages/*"]) and
// object form ({"packages": ["packages/*"]}).
func parseWorkspacesField(raw json.RawMessage) ([]string, error) {
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, nil
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return obj.Packages, nil
}

// parseOrderedObject captures the top-level object's key order as a
// flat list of (key, raw value) pairs, since encoding/json's map
// decoding does not preserve insertion order.
func parseOrderedObject(data []byte) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("manifest root is not a JSON object")
	}

	var fields []field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected non-string key")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		fields = append(fields, field{key: key, value: raw})
	}
	return fields, nil
}
