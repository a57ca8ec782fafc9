package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSourceMalformed marks a source that exists but cannot be parsed.
	ErrSourceMalformed = errors.New("config source malformed")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("config validation failed")
	// ErrKeyConflict marks a flat source where a value and a section claim
	// the same path.
	ErrKeyConflict = errors.New("config key conflict")
)

// Violation is one problem found while validating a merged tree.  Key is the
// dotted path of the offending field or section; it is empty for checks that
// span the whole configuration.
type Violation struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

func (v Violation) Error() string {
	if v.Key == "" {
		return v.Reason
	}
	return v.Key + ": " + v.Reason
}

// ValidationError aggregates every violation of one load.  It is never
// returned with an empty list.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d problem(s)", ErrValidation.Error(), len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  - ")
		b.WriteString(v.Error())
	}
	return b.String()
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Keys returns the distinct keys named by the violations, sorted.
func (e *ValidationError) Keys() []string {
	seen := make(map[string]struct{}, len(e.Violations))
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if _, ok := seen[v.Key]; ok {
			continue
		}
		seen[v.Key] = struct{}{}
		out = append(out, v.Key)
	}
	sort.Strings(out)
	return out
}

// KeyConflictError reports a flat key that is both a value and a prefix of
// another key inside one source, e.g. DB=x next to DB__PORT=1.
type KeyConflictError struct {
	Key string
}

func (e *KeyConflictError) Error() string {
	return fmt.Sprintf("%s: %q is used as both a value and a section", ErrKeyConflict.Error(), e.Key)
}

func (e *KeyConflictError) Unwrap() error { return ErrKeyConflict }
