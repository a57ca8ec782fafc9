// internal/config/schema.go
//
// Schema builder.
//
// Context
// -------
// A Schema is declared once at process start and never mutated:
//
//	config.NewSchema(
//	    config.String("SERVICE_NAME").Default("svc").Rules("required"),
//	    config.Section("DB",
//	        config.Int("PORT").Default(3306).Rules("min=1,max=65535"),
//	        config.String("PASSWORD").Secret(),
//	    ),
//	).Check(myInvariant)
//
// Each Field declares its type, default, and validation.  Rules are
// go-playground/validator tags applied to the coerced value; Validators are
// plain funcs for anything a tag cannot express.  Sections and the schema
// itself carry whole-object Checks that run after their fields validate.
//
// Notes
// -----
//   • Construction panics on programmer errors (bad names, duplicate keys,
//     a default of the wrong type).  These are never runtime conditions.
//   • Names must not contain the flat delimiter "__" or a dot.

package config

import (
	"fmt"
	"regexp"
	"time"
)

// Type is the declared type of a Field.
type Type int

const (
	TypeString Type = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeDuration
	TypeStrings
	TypePath
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeDuration:
		return "duration"
	case TypeStrings:
		return "list"
	case TypePath:
		return "path"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Validator inspects a coerced, non-nil field value.
type Validator func(value any) error

// Check inspects a validated configuration.  Section checks see every
// field; they only run when the fields under their own section are clean.
type Check func(c *Config) error

// Node is a Field or a section.
type Node interface {
	nodeName() string
}

var (
	namePattern  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*(_[A-Za-z0-9]+)*$`)
	aliasPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
)

/*──────────────────────────────── fields ────────────────────────────────*/

// Field declares one leaf.
type Field struct {
	name       string
	key        string
	typ        Type
	def        any
	hasDefault bool
	required   bool
	secret     bool
	nullable   bool
	aliases    []string
	rules      string
	validators []Validator
	desc       string
}

func newField(name string, t Type) *Field { return &Field{name: name, typ: t} }

func String(name string) *Field   { return newField(name, TypeString) }
func Int(name string) *Field      { return newField(name, TypeInt) }
func Float(name string) *Field    { return newField(name, TypeFloat) }
func Bool(name string) *Field     { return newField(name, TypeBool) }
func Duration(name string) *Field { return newField(name, TypeDuration) }
func Strings(name string) *Field  { return newField(name, TypeStrings) }
func Path(name string) *Field     { return newField(name, TypePath) }

func (f *Field) nodeName() string { return f.name }

// Default sets the value used when no source supplies the key.  The value
// goes through the same coercion as source values.
func (f *Field) Default(v any) *Field {
	if v == nil {
		panic(fmt.Sprintf("config: %s: nil default, use Nullable", f.name))
	}
	if _, err := coerce(f.typ, v); err != nil {
		panic(fmt.Sprintf("config: %s: default %v: %v", f.name, v, err))
	}
	f.def, f.hasDefault = v, true
	return f
}

// Required makes an absent key a violation.  A default satisfies it.
func (f *Field) Required() *Field { f.required = true; return f }

// Secret wraps the coerced value in a Secret.  Only string fields qualify.
func (f *Field) Secret() *Field {
	if f.typ != TypeString {
		panic(fmt.Sprintf("config: %s: only string fields can be secret", f.name))
	}
	f.secret = true
	return f
}

// Nullable lets the field hold nil.  Without an explicit Default, the
// field defaults to nil.
func (f *Field) Nullable() *Field { f.nullable = true; return f }

// Alias adds flat names accepted by environment, dotenv, and secrets
// sources in addition to the canonical one.  An alias may use the flat
// delimiter, e.g. a legacy section name.
func (f *Field) Alias(names ...string) *Field {
	for _, n := range names {
		if !aliasPattern.MatchString(n) {
			panic(fmt.Sprintf("config: %s: bad alias %q", f.name, n))
		}
	}
	f.aliases = append(f.aliases, names...)
	return f
}

// Rules attaches a validator/v10 tag, e.g. "min=1,max=65535".
func (f *Field) Rules(tag string) *Field { f.rules = tag; return f }

// Validate appends custom validators.
func (f *Field) Validate(fns ...Validator) *Field {
	f.validators = append(f.validators, fns...)
	return f
}

// Describe sets a one-line description.
func (f *Field) Describe(s string) *Field { f.desc = s; return f }

func (f *Field) Name() string        { return f.name }
func (f *Field) Key() string         { return f.key }
func (f *Field) FlatName() string    { return flatName(f.key) }
func (f *Field) Type() Type          { return f.typ }
func (f *Field) IsSecret() bool      { return f.secret }
func (f *Field) IsNullable() bool    { return f.nullable }
func (f *Field) IsRequired() bool    { return f.required }
func (f *Field) Aliases() []string   { return append([]string(nil), f.aliases...) }
func (f *Field) Description() string { return f.desc }

// DefaultValue returns the declared default and whether one exists.
// Nullable fields without a default report (nil, true).
func (f *Field) DefaultValue() (any, bool) {
	if f.hasDefault {
		return f.def, true
	}
	if f.nullable {
		return nil, true
	}
	return nil, false
}

/*──────────────────────────────── sections ──────────────────────────────*/

// SectionDef groups nodes under one key segment.
type SectionDef struct {
	name   string
	key    string
	nodes  []Node
	checks []Check
}

// Section declares a nested group.
func Section(name string, nodes ...Node) *SectionDef {
	return &SectionDef{name: name, nodes: nodes}
}

func (s *SectionDef) nodeName() string { return s.name }

// Check adds a whole-section invariant.
func (s *SectionDef) Check(fns ...Check) *SectionDef {
	s.checks = append(s.checks, fns...)
	return s
}

func (s *SectionDef) Key() string { return s.key }

/*──────────────────────────────── schema ────────────────────────────────*/

// Schema is the immutable description of every configuration key.
type Schema struct {
	root     *SectionDef
	fields   []*Field
	byKey    map[string]*Field
	byFlat   map[string]*Field
	sections []*SectionDef
	secKeys  map[string]*SectionDef
}

// NewSchema builds and indexes the tree.  It panics on invalid or duplicate
// names.
func NewSchema(nodes ...Node) *Schema {
	s := &Schema{
		root:    &SectionDef{nodes: nodes},
		byKey:   make(map[string]*Field),
		byFlat:  make(map[string]*Field),
		secKeys: make(map[string]*SectionDef),
	}
	s.index(s.root, "")
	for _, f := range s.fields {
		for _, a := range f.aliases {
			if prev, dup := s.byFlat[a]; dup {
				panic(fmt.Sprintf("config: alias %q of %s collides with %s", a, f.key, prev.key))
			}
			s.byFlat[a] = f
		}
	}
	return s
}

func (s *Schema) index(sec *SectionDef, prefix string) {
	seen := make(map[string]struct{}, len(sec.nodes))
	for _, n := range sec.nodes {
		name := n.nodeName()
		if !namePattern.MatchString(name) {
			panic(fmt.Sprintf("config: bad key segment %q under %q", name, prefix))
		}
		if _, dup := seen[name]; dup {
			panic(fmt.Sprintf("config: duplicate key %q under %q", name, prefix))
		}
		seen[name] = struct{}{}

		key := name
		if prefix != "" {
			key = prefix + pathDelim + name
		}
		switch t := n.(type) {
		case *Field:
			if t.key != "" {
				panic(fmt.Sprintf("config: field %s declared twice", t.key))
			}
			t.key = key
			s.fields = append(s.fields, t)
			s.byKey[key] = t
			s.byFlat[flatName(key)] = t
		case *SectionDef:
			t.key = key
			s.sections = append(s.sections, t)
			s.secKeys[key] = t
			s.index(t, key)
		default:
			panic(fmt.Sprintf("config: unsupported node %T", n))
		}
	}
}

// Check adds a whole-configuration invariant.
func (s *Schema) Check(fns ...Check) *Schema {
	s.root.checks = append(s.root.checks, fns...)
	return s
}

// Fields returns every field in declaration order.
func (s *Schema) Fields() []*Field { return append([]*Field(nil), s.fields...) }

// Field looks up a field by dotted key.
func (s *Schema) Field(key string) (*Field, bool) {
	f, ok := s.byKey[key]
	return f, ok
}

// Lookup resolves a flat external name (canonical or alias).
func (s *Schema) Lookup(flat string) (*Field, bool) {
	f, ok := s.byFlat[flat]
	return f, ok
}

// FlatNames lists every accepted flat name, canonical and alias.
func (s *Schema) FlatNames() []string {
	out := make([]string, 0, len(s.byFlat))
	for n := range s.byFlat {
		out = append(out, n)
	}
	return out
}

// isSection reports whether key names a declared section.
func (s *Schema) isSection(key string) bool {
	_, ok := s.secKeys[key]
	return ok
}

// Defaults returns the declared defaults as a nested raw tree.  Nullable
// fields without a default appear as nil.
func (s *Schema) Defaults() map[string]any {
	flat := make(map[string]any)
	for _, f := range s.fields {
		if v, ok := f.DefaultValue(); ok {
			flat[f.key] = v
		}
	}
	tree, err := Unflatten(flat, pathDelim)
	if err != nil {
		// index() guarantees a field key is never a section prefix.
		panic(err)
	}
	return tree
}

/*──────────────────────────── stock validators ──────────────────────────*/

// FileExists requires a TypePath value naming an existing regular file.
func FileExists(v any) error {
	p, _ := v.(string)
	fi, err := statFn(p)
	if err != nil {
		return fmt.Errorf("file %q does not exist", p)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%q is not a regular file", p)
	}
	return nil
}

// DirExists requires a TypePath value naming an existing directory.
func DirExists(v any) error {
	p, _ := v.(string)
	fi, err := statFn(p)
	if err != nil {
		return fmt.Errorf("directory %q does not exist", p)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%q is not a directory", p)
	}
	return nil
}

// NonZeroDuration rejects durations of zero or less.
func NonZeroDuration(v any) error {
	if d, _ := v.(time.Duration); d <= 0 {
		return fmt.Errorf("must be greater than zero")
	}
	return nil
}
