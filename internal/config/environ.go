package config

import (
	"github.com/knadh/koanf/providers/env"
)

// EnvironmentLocation is the record location of the process environment.
const EnvironmentLocation = "process environment"

// ReadEnvironment collects the variables the schema declares, by canonical
// flat name or alias.  Matching is exact-case.  Every other variable is
// ignored, so the environment is never a source of unknown keys.
func ReadEnvironment(s *Schema) (map[string]any, SourceRecord, error) {
	rec := SourceRecord{Kind: SourceEnvironment, Location: EnvironmentLocation, Available: true}

	admit := func(name string) string {
		if _, ok := s.Lookup(name); ok {
			return name
		}
		return ""
	}
	// No delimiter: keep the flat names so aliases can be folded first.
	flat, err := env.Provider("", "", admit).Read()
	if err != nil {
		return map[string]any{}, rec, err
	}
	tree, _, err := canonicalTree(flat, s, false)
	if err != nil {
		return map[string]any{}, rec, err
	}
	return tree, rec, nil
}
