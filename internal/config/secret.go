package config

import (
	"crypto/subtle"
	"fmt"
)

// Mask is what every default rendering of a Secret prints.
const Mask = "**********"

// Secret holds a sensitive string.  Every formatting and marshalling path
// emits Mask; only Reveal returns the value.
type Secret struct {
	value string
}

// NewSecret wraps s.
func NewSecret(s string) Secret { return Secret{value: s} }

// Reveal returns the real value.  Call it only at the point of use.
func (s Secret) Reveal() string { return s.value }

// IsZero reports whether the wrapped value is empty.
func (s Secret) IsZero() bool { return s.value == "" }

// Equal compares two secrets in constant time.
func (s Secret) Equal(o Secret) bool {
	return subtle.ConstantTimeCompare([]byte(s.value), []byte(o.value)) == 1
}

func (Secret) String() string   { return Mask }
func (Secret) GoString() string { return Mask }

// Format covers every verb, including %v with + and # flags, %q, and %x.
func (Secret) Format(f fmt.State, verb rune) {
	if verb == 'q' {
		fmt.Fprintf(f, "%q", Mask)
		return
	}
	_, _ = f.Write([]byte(Mask))
}

func (Secret) MarshalJSON() ([]byte, error) { return []byte(`"` + Mask + `"`), nil }
func (Secret) MarshalText() ([]byte, error) { return []byte(Mask), nil }

// MarshalYAML satisfies gopkg.in/yaml.v3's Marshaler.
func (Secret) MarshalYAML() (any, error) { return Mask, nil }
