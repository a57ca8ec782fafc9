// internal/config/merge.go
//
// Precedence Merger.
//
// Context
// -------
// Layers are overlaid lowest priority first onto one koanf instance:
//
//	default → file → dotenv → environment → secrets
//
// koanf's merge gives the overlay semantics we want: a leaf replaces, two
// mappings merge key-wise, and a mapping/leaf mismatch is overwritten by the
// higher layer (the validator reports the resulting shape error).  Empty
// strings, empty lists, and explicit nulls are values like any other and
// override lower layers.
//
// While overlaying, the merger notes which layer last wrote every flat key.
// After the final layer, origins are pruned to the keys that survived, so
// each leaf in the result has exactly one winning source.

package config

import (
	"errors"
	"sort"

	"github.com/knadh/koanf/maps"
	koanf "github.com/knadh/koanf/v2"
)

// Layer is one source's contribution to a merge.
type Layer struct {
	Kind SourceKind
	Tree map[string]any
}

// MergedTree is the raw result of a merge plus per-leaf provenance.
type MergedTree struct {
	k       *koanf.Koanf
	origins map[string]SourceKind
}

// treeProvider feeds an in-memory tree to koanf.Load.
type treeProvider map[string]any

func (p treeProvider) ReadBytes() ([]byte, error) { return nil, errTreeBytes }
func (p treeProvider) Read() (map[string]any, error) {
	return maps.Copy(p), nil
}

var errTreeBytes = errors.New("tree provider has no byte form")

// Merge overlays layers by precedence; argument order does not matter.
// Input trees are copied and never modified.
func Merge(layers ...Layer) *MergedTree {
	ordered := append([]Layer(nil), layers...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Kind.Rank() < ordered[j].Kind.Rank()
	})

	m := &MergedTree{
		k:       koanf.New(pathDelim),
		origins: make(map[string]SourceKind),
	}
	for _, l := range ordered {
		if len(l.Tree) == 0 {
			continue
		}
		// Load only fails when the provider does; treeProvider never does.
		_ = m.k.Load(treeProvider(l.Tree), nil)
		for key := range Flatten(l.Tree, pathDelim) {
			m.origins[key] = l.Kind
		}
	}

	final := make(map[string]struct{})
	for _, key := range m.k.Keys() {
		final[key] = struct{}{}
	}
	for key := range m.origins {
		if _, ok := final[key]; !ok {
			delete(m.origins, key)
		}
	}
	return m
}

// Raw returns a deep copy of the merged tree.
func (m *MergedTree) Raw() map[string]any { return m.k.Raw() }

// Get returns the raw value at a dotted key, or nil.
func (m *MergedTree) Get(key string) any { return m.k.Get(key) }

// Exists reports whether a dotted key is present, including explicit nulls.
func (m *MergedTree) Exists(key string) bool {
	_, ok := m.origins[key]
	return ok || m.k.Exists(key)
}

// Origin returns the source kind that won key.
func (m *MergedTree) Origin(key string) (SourceKind, bool) {
	k, ok := m.origins[key]
	return k, ok
}

// Origins returns a copy of the flat-key → source map.
func (m *MergedTree) Origins() map[string]SourceKind {
	out := make(map[string]SourceKind, len(m.origins))
	for k, v := range m.origins {
		out[k] = v
	}
	return out
}

// Keys lists the flat leaf keys in sorted order.
func (m *MergedTree) Keys() []string { return m.k.Keys() }
