// internal/config/dotenv.go
//
// Dotenv source reader, plus the alias handling shared by every flat source.
//
// Context
// -------
// Each `KEY=value` line is one flat key.  `DB__PORT=9999` becomes
// `{DB: {PORT: "9999"}}`; the validator coerces the string later.
// Parsing is delegated to joho/godotenv, which handles quoting, comments,
// `export` prefixes, and variable expansion.
//
// Unknown names are passed through so the validator can reject them, the
// same way an unknown YAML key is rejected.  Aliases are folded onto their
// canonical name; when both spellings appear in one source the canonical
// one wins.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/joho/godotenv"
)

// ReadDotenv reads a dotenv file.  A missing file is (empty, unavailable,
// nil).
func ReadDotenv(path string, s *Schema) (map[string]any, SourceRecord, error) {
	rec := SourceRecord{Kind: SourceDotenv, Location: path}

	fi, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		rec.Note = "not found"
		return map[string]any{}, rec, nil
	case err != nil:
		rec.Note = err.Error()
		return map[string]any{}, rec, fmt.Errorf("%w: %s: %v", ErrSourceMalformed, path, err)
	case fi.IsDir():
		rec.Note = "is a directory"
		return map[string]any{}, rec, fmt.Errorf("%w: %s is a directory", ErrSourceMalformed, path)
	}

	rec.Available = true
	pairs, err := godotenv.Read(path)
	if err != nil {
		// godotenv quotes the offending text, which may be a secret.
		rec.Note = "parse error"
		return map[string]any{}, rec, fmt.Errorf("%w: %s: parse error", ErrSourceMalformed, path)
	}

	flat := make(map[string]any, len(pairs))
	for k, v := range pairs {
		flat[k] = v
	}
	tree, _, err := canonicalTree(flat, s, true)
	if err != nil {
		rec.Note = "key conflict"
		return map[string]any{}, rec, fmt.Errorf("%w: %s: %v", ErrSourceMalformed, path, err)
	}
	return tree, rec, nil
}

// canonicalTree folds aliases onto canonical flat names and unflattens.
// Names the schema does not know are kept when keepUnknown is set and
// returned as ignored otherwise.
func canonicalTree(flat map[string]any, s *Schema, keepUnknown bool) (map[string]any, []string, error) {
	names := make([]string, 0, len(flat))
	for n := range flat {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make(map[string]any, len(flat))
	rank := make(map[string]int, len(flat))
	var ignored []string
	for _, n := range names {
		f, known := s.Lookup(n)
		if !known {
			if keepUnknown {
				out[n] = flat[n]
			} else {
				ignored = append(ignored, n)
			}
			continue
		}
		canonical := f.FlatName()
		r := aliasRank(f, n)
		if prev, seen := rank[canonical]; seen && prev <= r {
			continue
		}
		rank[canonical] = r
		out[canonical] = flat[n]
	}

	tree, err := Unflatten(out, Delimiter)
	if err != nil {
		return nil, ignored, err
	}
	return tree, ignored, nil
}

// aliasRank is 0 for the canonical name and 1+i for the i-th alias.
func aliasRank(f *Field, name string) int {
	if name == f.FlatName() {
		return 0
	}
	for i, a := range f.aliases {
		if a == name {
			return i + 1
		}
	}
	return len(f.aliases) + 1
}
