package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceAccepts(t *testing.T) {
	cases := []struct {
		name string
		typ  Type
		in   any
		want any
	}{
		{"int from string", TypeInt, "9999", 9999},
		{"int trims", TypeInt, " 42 ", 42},
		{"int from whole float", TypeInt, 2.0, 2},
		{"float from string", TypeFloat, "0.25", 0.25},
		{"bool yes", TypeBool, "yes", true},
		{"bool OFF", TypeBool, "OFF", false},
		{"bool native", TypeBool, true, true},
		{"duration seconds string", TypeDuration, "90", 90 * time.Second},
		{"duration seconds int", TypeDuration, 90, 90 * time.Second},
		{"duration go syntax", TypeDuration, "1m30s", 90 * time.Second},
		{"strings comma list", TypeStrings, "a, b ,c", []string{"a", "b", "c"}},
		{"strings yaml list", TypeStrings, []any{"x", "y"}, []string{"x", "y"}},
		{"strings blank", TypeStrings, "", []string{}},
		{"string from bool", TypeString, true, "true"},
		{"string from int", TypeString, 5, "5"},
		{"string keeps spaces", TypeString, " padded ", " padded "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := coerce(tc.typ, tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCoerceRejects(t *testing.T) {
	cases := []struct {
		name string
		typ  Type
		in   any
		msg  string
	}{
		{"blank int", TypeInt, "  ", "blank value"},
		{"blank bool", TypeBool, "", "blank value"},
		{"not a number", TypeInt, "abc", ""},
		{"fractional int", TypeInt, 1.5, "not a whole number"},
		{"not a boolean", TypeBool, "maybe", "not a boolean"},
		{"bad duration", TypeDuration, "soon", ""},
		{"list as int", TypeInt, []any{1}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := coerce(tc.typ, tc.in)
			require.Error(t, err)
			assert.NotContains(t, err.Error(), "error decoding ''")
			if tc.msg != "" {
				assert.Contains(t, err.Error(), tc.msg)
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	got, err := resolvePath("data/x.csv", "/srv/app")
	require.NoError(t, err)
	assert.Equal(t, "/srv/app/data/x.csv", got)

	got, err = resolvePath("/abs/x.csv", "/srv/app")
	require.NoError(t, err)
	assert.Equal(t, "/abs/x.csv", got)

	got, err = resolvePath("", "/srv/app")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
