package config

import (
	"os"
	"path/filepath"
)

// RootEnv overrides project-root discovery.
const RootEnv = "CONFSTACK_ROOT"

const (
	// DefaultFile is the structured file name, relative to the root.
	DefaultFile = "config.yaml"
	// DefaultDotenv is the dotenv file name, relative to the root.
	DefaultDotenv = ".env"
)

// ResolveRoot returns $CONFSTACK_ROOT, or the nearest ancestor of the
// working directory holding config.yaml or .env, or the working directory.
// A binary installed under <root>/bin also finds its root.
func ResolveRoot() string {
	if r := os.Getenv(RootEnv); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		for _, marker := range []string{DefaultFile, DefaultDotenv} {
			if fi, err := os.Stat(filepath.Join(dir, marker)); err == nil && !fi.IsDir() {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}
