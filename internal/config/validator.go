// internal/config/validator.go
//
// Validation engine: merged raw tree + Schema → *Config.
//
// Context
// -------
// `Loader` calls `Validate` once per load, right after the Precedence
// Merger has produced the raw tree.  The engine runs in three passes:
//
//  1. Shape walk.  Every key in the tree must be declared.  A section must
//     hold a mapping and a field must not.
//  2. Fields, in declaration order.  Absent → default (or required
//     violation).  Present → null check, coercion, path resolution,
//     validator/v10 rules, custom validators, secret wrapping.
//  3. Checks.  Section checks run when the section's own fields are clean;
//     schema checks run only when nothing else failed.
//
// Every problem is collected with go.uber.org/multierr and surfaced as one
// *ValidationError.  No partial Config is ever returned.
//
// Notes
// -----
//   • Rule tags use go-playground/validator's `Var`, so anything that works
//     in a struct tag (`oneof=`, `min=`, `hostname|ip`) works here.
//   • Oxford commas, two spaces after periods.

package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
)

//
// validator instance (package-level singleton)
//

var rules = validator.New(validator.WithRequiredStructEnabled())

//
// public API
//

// Validate checks tree against s and returns the typed Config.  Relative
// TypePath values resolve against root.
func Validate(tree map[string]any, s *Schema, root string) (*Config, error) {
	var errs error
	report := func(key, format string, args ...any) {
		errs = multierr.Append(errs, Violation{Key: key, Reason: fmt.Sprintf(format, args...)})
	}

	walkShape(tree, s, "", report)

	values := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		raw, present := lookup(tree, f.key)
		if !present {
			def, ok := f.DefaultValue()
			switch {
			case ok:
				raw = def
			case f.required:
				report(f.key, "field required")
				continue
			default:
				values[f.key] = nil
				continue
			}
		}
		if _, isMap := raw.(map[string]any); isMap {
			continue // walkShape reported it
		}
		v, err := validateField(f, raw, root)
		if err != nil {
			report(f.key, "%s", err.Error())
			continue
		}
		values[f.key] = v
	}

	cfg := &Config{schema: s, values: values, root: root}

	failed := func(prefix string) bool {
		for _, e := range multierr.Errors(errs) {
			var v Violation
			if errors.As(e, &v) && (v.Key == prefix || strings.HasPrefix(v.Key, prefix+pathDelim)) {
				return true
			}
		}
		return false
	}
	for _, sec := range s.sections {
		if len(sec.checks) == 0 || failed(sec.key) {
			continue
		}
		for _, chk := range sec.checks {
			errs = multierr.Append(errs, asViolations(sec.key, chk(cfg)))
		}
	}
	if errs == nil {
		for _, chk := range s.root.checks {
			errs = multierr.Append(errs, asViolations("", chk(cfg)))
		}
	}

	if errs != nil {
		return nil, newValidationError(errs)
	}
	return cfg, nil
}

//
// passes
//

// walkShape reports undeclared keys and section/leaf mismatches.  Nesting
// is only ever spelled with maps, so a segment containing a dot is
// undeclared.
func walkShape(node map[string]any, s *Schema, prefix string, report func(string, string, ...any)) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + pathDelim + k
		}
		switch {
		case strings.Contains(k, pathDelim):
			// A literal "DB.PORT" key would shadow the nested DB.PORT.
			report(key, "extra key not permitted")
		case s.byKey[key] != nil:
			if _, isMap := v.(map[string]any); isMap {
				report(key, "expected a value, got a section")
			}
		case s.isSection(key):
			child, isMap := v.(map[string]any)
			if !isMap {
				report(key, "expected a section, got %s", describe(v))
				continue
			}
			walkShape(child, s, key, report)
		default:
			report(key, "extra key not permitted")
		}
	}
}

// lookup walks a dotted key.  Present means the final segment exists, even
// when its value is nil.
func lookup(tree map[string]any, key string) (any, bool) {
	parts := strings.Split(key, pathDelim)
	node := tree
	for _, p := range parts[:len(parts)-1] {
		next, ok := node[p].(map[string]any)
		if !ok {
			return nil, false
		}
		node = next
	}
	v, ok := node[parts[len(parts)-1]]
	return v, ok
}

func validateField(f *Field, raw any, root string) (any, error) {
	if raw == nil {
		if !f.nullable {
			return nil, errors.New("must not be null")
		}
		return nil, nil
	}
	v, err := coerce(f.typ, raw)
	if err != nil {
		if f.secret {
			return nil, fmt.Errorf("expected a string, got %s", describe(raw))
		}
		return nil, err
	}
	if f.typ == TypePath {
		if v, err = resolvePath(v.(string), root); err != nil {
			return nil, err
		}
	}
	if f.rules != "" {
		if err := rules.Var(v, f.rules); err != nil {
			return nil, ruleError(err, v, f.secret)
		}
	}
	var errs error
	for _, fn := range f.validators {
		if err := fn(v); err != nil {
			errs = multierr.Append(errs, validatorError(err, v, f.secret))
		}
	}
	if errs != nil {
		return nil, errs
	}
	if f.secret {
		return NewSecret(v.(string)), nil
	}
	return v, nil
}

//
// helpers
//

func ruleError(err error, v any, secret bool) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return err
	}
	fe := ves[0]
	tag := fe.Tag()
	if fe.Param() != "" {
		tag += "=" + fe.Param()
	}
	if secret {
		v = Mask
	}
	return fmt.Errorf("value %v fails rule %q", v, tag)
}

// validatorError masks every occurrence of a secret value in a custom
// validator's message.
func validatorError(err error, v any, secret bool) error {
	s, _ := v.(string)
	if !secret || s == "" {
		return err
	}
	quoted := strconv.Quote(s)
	msg := strings.ReplaceAll(err.Error(), quoted[1:len(quoted)-1], Mask)
	return errors.New(strings.ReplaceAll(msg, s, Mask))
}

func asViolations(key string, err error) error {
	var out error
	for _, e := range multierr.Errors(err) {
		var v Violation
		if errors.As(e, &v) {
			if v.Key == "" {
				v.Key = key
			}
			out = multierr.Append(out, v)
			continue
		}
		var ve *ValidationError
		if errors.As(e, &ve) {
			for _, inner := range ve.Violations {
				out = multierr.Append(out, inner)
			}
			continue
		}
		out = multierr.Append(out, Violation{Key: key, Reason: e.Error()})
	}
	return out
}

func newValidationError(errs error) *ValidationError {
	list := multierr.Errors(errs)
	vs := make([]Violation, 0, len(list))
	for _, e := range list {
		var v Violation
		if errors.As(e, &v) {
			vs = append(vs, v)
			continue
		}
		vs = append(vs, Violation{Reason: e.Error()})
	}
	sort.SliceStable(vs, func(i, j int) bool { return vs[i].Key < vs[j].Key })
	return &ValidationError{Violations: vs}
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "a list"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case int, int64, uint64, float64:
		return "a number"
	}
	return fmt.Sprintf("%T", v)
}
