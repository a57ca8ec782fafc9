package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Config is a validated, typed, immutable configuration.  Values are keyed
// by dotted path.  Secret fields hold a Secret, nullable fields may hold
// nil, and every other field holds the Go type of its declared Type.
type Config struct {
	schema  *Schema
	values  map[string]any
	origins map[string]SourceKind
	sources []SourceRecord
	root    string
}

// Schema returns the schema the config was validated against.
func (c *Config) Schema() *Schema { return c.schema }

// Root returns the directory relative paths were resolved against.
func (c *Config) Root() string { return c.root }

// Get returns the typed value at key.  ok is false for undeclared keys.
func (c *Config) Get(key string) (any, bool) {
	if _, declared := c.schema.byKey[key]; !declared {
		return nil, false
	}
	v := c.values[key]
	if l, isList := v.([]string); isList {
		return append([]string(nil), l...), true
	}
	return v, true
}

// Has reports whether key is declared and holds a non-nil value.
func (c *Config) Has(key string) bool {
	v, ok := c.values[key]
	return ok && v != nil
}

// String renders the value at key as text.  Secrets render as Mask; lists
// are comma-joined; nil is "".
func (c *Config) String(key string) string {
	v, _ := c.Get(key)
	s, _ := exportScalar(v)
	return s
}

func (c *Config) Int(key string) int {
	n, _ := c.values[key].(int)
	return n
}

func (c *Config) Float(key string) float64 {
	f, _ := c.values[key].(float64)
	return f
}

func (c *Config) Bool(key string) bool {
	b, _ := c.values[key].(bool)
	return b
}

func (c *Config) Duration(key string) time.Duration {
	d, _ := c.values[key].(time.Duration)
	return d
}

// Strings returns a copy of a list field.
func (c *Config) Strings(key string) []string {
	l, _ := c.values[key].([]string)
	return append([]string(nil), l...)
}

// Secret returns the wrapper of a secret field.  ok is false when the field
// is not secret or is null.
func (c *Config) Secret(key string) (Secret, bool) {
	s, ok := c.values[key].(Secret)
	return s, ok
}

// Path returns a resolved path field.
func (c *Config) Path(key string) string {
	p, _ := c.values[key].(string)
	return p
}

// Origin returns the source kind that supplied key.  Keys that fell back to
// their schema default report SourceDefault.
func (c *Config) Origin(key string) (SourceKind, bool) {
	if _, declared := c.schema.byKey[key]; !declared {
		return "", false
	}
	if k, ok := c.origins[key]; ok {
		return k, true
	}
	return SourceDefault, true
}

// Sources returns the records of the load that produced c, highest
// precedence first.
func (c *Config) Sources() []SourceRecord {
	return append([]SourceRecord(nil), c.sources...)
}

// Keys returns every declared key in declaration order.
func (c *Config) Keys() []string {
	out := make([]string, 0, len(c.schema.fields))
	for _, f := range c.schema.fields {
		out = append(out, f.key)
	}
	return out
}

// Map returns the values as a nested tree.  Secret values stay wrapped, so
// any serialiser walking the tree prints Mask.
func (c *Config) Map() map[string]any {
	flat := make(map[string]any, len(c.values))
	for k, v := range c.values {
		if l, isList := v.([]string); isList {
			v = append([]string(nil), l...)
		}
		flat[k] = v
	}
	tree, err := Unflatten(flat, pathDelim)
	if err != nil {
		panic(err) // schema keys never conflict
	}
	return tree
}

// MarshalJSON renders the nested tree.  Durations use their string form.
func (c *Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(renderDurations(c.Map()))
}

// MarshalYAML renders the nested tree for gopkg.in/yaml.v3.
func (c *Config) MarshalYAML() (any, error) {
	return renderDurations(c.Map()), nil
}

// GoString prints every key with masked secrets, one per line.
func (c *Config) GoString() string {
	keys := c.Keys()
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("config.Config{\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s: %#v\n", k, c.values[k])
	}
	b.WriteString("}")
	return b.String()
}

func renderDurations(tree map[string]any) map[string]any {
	for k, v := range tree {
		switch t := v.(type) {
		case time.Duration:
			tree[k] = t.String()
		case map[string]any:
			renderDurations(t)
		}
	}
	return tree
}
