// internal/config/secrets.go
//
// Secrets-directory source reader.
//
// Context
// -------
// Container runtimes mount one file per secret, e.g. /run/secrets/DB__PASSWORD.
// Each regular file directly under the directory is one flat key named by
// its filename; the value is the file content minus one trailing line
// terminator, which editors and `echo` add.
//
// Notes
// -----
//   • Hidden files (".", e.g. Kubernetes' "..data") and sub-directories are
//     skipped.  Symlinks are followed.
//   • Files the schema does not declare are ignored and listed in the record
//     note.  A mounted secrets volume is shared with other tooling.
//   • An unreadable declared file is a hard error: there is no sensible
//     "absent" fallback for a secret that exists but cannot be read.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSecretsDir is where container runtimes mount secrets.
const DefaultSecretsDir = "/run/secrets"

// ReadSecrets reads a secrets directory.  A missing directory is (empty,
// unavailable, nil).
func ReadSecrets(dir string, s *Schema) (map[string]any, SourceRecord, error) {
	rec := SourceRecord{Kind: SourceSecrets, Location: dir}

	fi, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		rec.Note = "not found"
		return map[string]any{}, rec, nil
	case err != nil:
		rec.Note = err.Error()
		return map[string]any{}, rec, fmt.Errorf("%w: %s: %v", ErrSourceMalformed, dir, err)
	case !fi.IsDir():
		rec.Note = "not a directory"
		return map[string]any{}, rec, fmt.Errorf("%w: %s is not a directory", ErrSourceMalformed, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		rec.Note = err.Error()
		return map[string]any{}, rec, fmt.Errorf("%w: %s: %v", ErrSourceMalformed, dir, err)
	}
	rec.Available = true

	flat := make(map[string]any)
	var ignored []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if _, known := s.Lookup(name); !known {
			ignored = append(ignored, name)
			continue
		}
		p := filepath.Join(dir, name)
		st, err := os.Stat(p)
		if err != nil || !st.Mode().IsRegular() {
			continue
		}
		b, err := os.ReadFile(p)
		if err != nil {
			rec.Note = "unreadable: " + name
			return map[string]any{}, rec, fmt.Errorf("%w: %s: %v", ErrSourceMalformed, p, err)
		}
		flat[name] = trimNewline(string(b))
	}

	tree, _, err := canonicalTree(flat, s, false)
	if err != nil {
		return map[string]any{}, rec, fmt.Errorf("%w: %s: %v", ErrSourceMalformed, dir, err)
	}
	if len(ignored) > 0 {
		rec.Note = "ignored: " + strings.Join(ignored, ", ")
	}
	return tree, rec, nil
}

func trimNewline(s string) string {
	if strings.HasSuffix(s, "\r\n") {
		return s[:len(s)-2]
	}
	return strings.TrimSuffix(s, "\n")
}
