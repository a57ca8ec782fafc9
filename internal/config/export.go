// internal/config/export.go
//
// Dump a validated Config to YAML or dotenv.
//
// Context
// -------
// Both formats are fed by the same pipeline the loader reads, so a dump can
// be dropped back in as config.yaml or .env.  Secrets never reach the
// output in clear text:
//
//   • YAML walks Config.Map(), where secret values are still Secret and
//     marshal to the mask.
//   • Dotenv omits secret fields entirely.  A masked line would override a
//     real secret from a lower-precedence source on reload.
//
// Dotenv output is sorted, lists are comma-joined, booleans are lower case,
// and null values are omitted.

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DumpYAML writes cfg as a YAML document with two-space indentation.
func DumpYAML(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// DumpDotenv writes cfg as sorted KEY=value lines using the flat delimiter.
func DumpDotenv(w io.Writer, cfg *Config) error {
	flat := make(map[string]any, len(cfg.values))
	for k, v := range cfg.values {
		if _, secret := v.(Secret); secret || v == nil {
			continue
		}
		flat[k] = v
	}
	tree, err := Unflatten(flat, pathDelim)
	if err != nil {
		return err
	}
	out, err := godotenv.Marshal(FlattenForExport(tree, Delimiter))
	if err != nil {
		return fmt.Errorf("encode dotenv: %w", err)
	}
	if out != "" {
		out += "\n"
	}
	_, err = io.WriteString(w, out)
	return err
}

// WriteYAMLFile dumps cfg to path with owner-only permissions.
func WriteYAMLFile(path string, cfg *Config) error {
	return writeFile(path, cfg, DumpYAML)
}

// WriteDotenvFile dumps cfg to path with owner-only permissions.
func WriteDotenvFile(path string, cfg *Config) error {
	return writeFile(path, cfg, DumpDotenv)
}

func writeFile(path string, cfg *Config, dump func(io.Writer, *Config) error) error {
	var buf bytes.Buffer
	if err := dump(&buf, cfg); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
