// internal/config/keys.go
//
// Nested ↔ flat key conversion.
//
// Context
// -------
// Environment variables, dotenv lines, and secret filenames cannot express
// nesting, so they spell a path with a fixed delimiter:
//
//	DB__PERF__POOL_SIZE  →  DB.PERF.POOL_SIZE
//
// Inside the package, dotted paths are the canonical key form.  The
// delimiter is fixed; schema names are rejected if they contain it.
//
// Notes
// -----
//   • A nil leaf is "present and null".  A missing key is simply absent.
//   • Flatten never descends into lists; only FlattenForExport renders them
//     (comma-joined) because dotenv has no list syntax.

package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/maps"
)

const (
	// Delimiter separates segments in flat external keys.
	Delimiter = "__"

	pathDelim = "."
)

// Flatten turns a nested tree into {joined-path: leaf}.  Empty sub-trees are
// kept as leaves so an explicitly empty section still counts as present.
func Flatten(tree map[string]any, delim string) map[string]any {
	if len(tree) == 0 {
		return map[string]any{}
	}
	flat, _ := maps.Flatten(tree, nil, delim)
	return flat
}

// Unflatten rebuilds a nested tree from flat keys.  Keys are applied in
// sorted order; a key that is both a leaf and a prefix of another key is a
// *KeyConflictError rather than a silent overwrite.
func Unflatten(flat map[string]any, delim string) (map[string]any, error) {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any)
	for _, k := range keys {
		parts := strings.Split(k, delim)
		node := out
		for i, seg := range parts[:len(parts)-1] {
			next, ok := node[seg]
			if !ok {
				child := make(map[string]any)
				node[seg] = child
				node = child
				continue
			}
			child, isMap := next.(map[string]any)
			if !isMap {
				return nil, &KeyConflictError{Key: strings.Join(parts[:i+1], delim)}
			}
			node = child
		}
		leaf := parts[len(parts)-1]
		if _, exists := node[leaf]; exists {
			return nil, &KeyConflictError{Key: k}
		}
		node[leaf] = flat[k]
	}
	return out, nil
}

// FlattenForExport renders a tree as flat string pairs for formats without
// nesting or lists.  Lists become comma-joined scalars, booleans are lower
// case, and nil leaves and empty sections are omitted.
func FlattenForExport(tree map[string]any, delim string) map[string]string {
	out := make(map[string]string)
	for k, v := range Flatten(tree, delim) {
		if s, ok := exportScalar(v); ok {
			out[k] = s
		}
	}
	return out
}

func exportScalar(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case map[string]any:
		return "", false
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case time.Duration:
		return t.String(), true
	case []string:
		return strings.Join(t, ","), true
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := exportScalar(e)
			if !ok {
				s = ""
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}

// flatName converts a dotted path to its external flat spelling.
func flatName(key string) string {
	return strings.ReplaceAll(key, pathDelim, Delimiter)
}

// dotted converts an external flat key to the dotted path.
func dotted(flat string) string {
	return strings.ReplaceAll(flat, Delimiter, pathDelim)
}
