// internal/config/file.go
//
// Structured-file (YAML) source reader.
//
// Context
// -------
// The file is read through koanf's file provider and parsed with koanf's
// YAML parser, the same pair the rest of the package's merge uses.  The
// reader itself is strict: an unparsable file is an ErrSourceMalformed.
// Whether that error aborts a load or downgrades to "no file" is the
// Loader's policy (see WithStrictFile).
//
// Notes
// -----
//   • An empty file is present and contributes an empty tree.
//   • A top-level list or scalar is malformed; the file must be a mapping.

package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
)

// ReadFile reads a YAML file.  A missing file is (empty, unavailable, nil).
func ReadFile(path string) (map[string]any, SourceRecord, error) {
	rec := SourceRecord{Kind: SourceFile, Location: path}

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
	b, err := file.Provider(path).ReadBytes()
	if err != nil {
		rec.Note = err.Error()
		return map[string]any{}, rec, fmt.Errorf("%w: %s: %v", ErrSourceMalformed, path, err)
	}
	tree, err := ParseYAMLBytes(b)
	if err != nil {
		rec.Note = "parse error"
		return map[string]any{}, rec, fmt.Errorf("%s: %w", path, err)
	}
	return tree, rec, nil
}

// ParseYAML parses a YAML stream.
func ParseYAML(r io.Reader) (map[string]any, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceMalformed, err)
	}
	return ParseYAMLBytes(b)
}

// ParseYAMLBytes parses YAML into a nested tree with string keys.
func ParseYAMLBytes(b []byte) (map[string]any, error) {
	tree, err := yaml.Parser().Unmarshal(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceMalformed, err)
	}
	if tree == nil {
		return map[string]any{}, nil
	}
	maps.IntfaceKeysToStrings(tree)
	return tree, nil
}
