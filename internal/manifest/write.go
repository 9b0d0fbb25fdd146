package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/sublime-tools/monorepo/internal/errs"
	"github.com/sublime-tools/monorepo/pkg/semver"
)

// nodeKind tags which shape a JSON value had, so it can be
// re-serialized the same shape it was read as.
type nodeKind int

const (
	kindObject nodeKind = iota
	kindArray
	kindScalar
)

// node is a JSON value that remembers object key order, so a
// round-trip through Read/Write keeps every field the caller did not
// edit, in its original key order (whitespace is re-indented).
type node struct {
	kind   nodeKind
	fields []field // kindObject
	elems  []node  // kindArray
	scalar json.RawMessage
}

func parseNode(raw json.RawMessage) (node, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	return decodeNode(dec)
}

func decodeNode(dec *json.Decoder) (node, error) {
	tok, err := dec.Token()
	if err != nil {
		return node{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var fields []field
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return node{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return node{}, fmt.Errorf("unexpected non-string key")
				}
				var raw json.RawMessage
				if err := dec.Decode(&raw); err != nil {
					return node{}, err
				}
				fields = append(fields, field{key: key, value: raw})
			}
			if _, err := dec.Token(); err != nil { // closing }
				return node{}, err
			}
			return node{kind: kindObject, fields: fields}, nil
		case '[':
			var elems []node
			for dec.More() {
				var raw json.RawMessage
				if err := dec.Decode(&raw); err != nil {
					return node{}, err
				}
				child, err := parseNode(raw)
				if err != nil {
					return node{}, err
				}
				elems = append(elems, child)
			}
			if _, err := dec.Token(); err != nil { // closing ]
				return node{}, err
			}
			return node{kind: kindArray, elems: elems}, nil
		}
	}

	// Scalar: re-encode the already-consumed token.
	raw, err := json.Marshal(tok)
	if err != nil {
		return node{}, err
	}
	return node{kind: kindScalar, scalar: raw}, nil
}

func (n node) marshal(buf *bytes.Buffer, depth int) {
	indent := func(d int) string {
		out := make([]byte, d*2)
		for i := range out {
			out[i] = ' '
		}
		return string(out)
	}

	switch n.kind {
	case kindScalar:
		buf.Write(n.scalar)
	case kindArray:
		if len(n.elems) == 0 {
			buf.WriteString("[]")
			return
		}
		buf.WriteString("[\n")
		for i, e := range n.elems {
			buf.WriteString(indent(depth + 1))
			e.marshal(buf, depth+1)
			if i < len(n.elems)-1 {
				buf.WriteString(",")
			}
			buf.WriteString("\n")
		}
		buf.WriteString(indent(depth) + "]")
	case kindObject:
		if len(n.fields) == 0 {
			buf.WriteString("{}")
			return
		}
		buf.WriteString("{\n")
		for i, f := range n.fields {
			buf.WriteString(indent(depth + 1))
			keyBytes, _ := json.Marshal(f.key)
			buf.Write(keyBytes)
			buf.WriteString(": ")
			child, err := parseNode(f.value)
			if err != nil {
				buf.Write(f.value) // fall back to raw bytes, best effort
			} else {
				child.marshal(buf, depth+1)
			}
			if i < len(n.fields)-1 {
				buf.WriteString(",")
			}
			buf.WriteString("\n")
		}
		buf.WriteString(indent(depth) + "}")
	}
}

func (n node) setField(key string, value json.RawMessage) node {
	for i, f := range n.fields {
		if f.key == key {
			n.fields[i].value = value
			return n
		}
	}
	n.fields = append(n.fields, field{key: key, value: value})
	return n
}

func (n node) getField(key string) (json.RawMessage, bool) {
	for _, f := range n.fields {
		if f.key == key {
			return f.value, true
		}
	}
	return nil, false
}

// Edits describes the write-back the Version Planner requests: a new
// version for this package, plus a set of dependency-requirement
// rewrites keyed by which map they live in.
type Edits struct {
	NewVersion          *semver.Version
	RequirementRewrites map[DependencyKind]map[string]string // name -> new requirement string
}

var kindToJSONKey = map[DependencyKind]string{
	DependencyRuntime:  "dependencies",
	DependencyDev:      "devDependencies",
	DependencyPeer:     "peerDependencies",
	DependencyOptional: "optionalDependencies",
}

// Write applies edits to the document in memory and persists it to
// disk atomically (temp file + rename), two-space indent, LF line
// endings, trailing newline, every untouched field preserved in its
// original position.
func (d *Document) Write(edits Edits) error {
	root := node{kind: kindObject, fields: d.fields}

	if edits.NewVersion != nil {
		quoted, _ := json.Marshal(edits.NewVersion.String())
		root = root.setField("version", quoted)
	}

	kinds := make([]DependencyKind, 0, len(edits.RequirementRewrites))
	for kind := range edits.RequirementRewrites {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, kind := range kinds {
		jsonKey := kindToJSONKey[kind]
		raw, ok := root.getField(jsonKey)
		if !ok {
			continue
		}
		depsNode, err := parseNode(raw)
		if err != nil {
			return errs.NewParseError(d.path, jsonKey, err)
		}
		for name, newReq := range edits.RequirementRewrites[kind] {
			quoted, _ := json.Marshal(newReq)
			depsNode = depsNode.setField(name, quoted)
		}
		var buf bytes.Buffer
		depsNode.marshal(&buf, 1)
		root = root.setField(jsonKey, json.RawMessage(buf.String()))
	}

	var buf bytes.Buffer
	root.marshal(&buf, 0)
	buf.WriteString("\n")

	return writeAtomic(d.path, buf.Bytes())
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp." + strconv.Itoa(os.Getpid())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.NewIOError(path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errs.NewIOError(path, err)
	}
	return nil
}
