package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/confstack/internal/settings"
)

func newRoot(t *testing.T) string {
	t.Helper()
	for _, name := range settings.Schema().FlatNames() {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/x\n"), 0o600))
	return root
}

func invoke(t *testing.T, root string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--root", root, "--secrets-dir", filepath.Join(root, "secrets")}, args...)
	code := run(full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestShowOrigins(t *testing.T) {
	root := newRoot(t)
	t.Setenv("AWS_PROFILE", "dev")
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("DB__PORT=9999\n"), 0o600))

	code, out, _ := invoke(t, root, "show", "--origins")
	require.Equal(t, 0, code)
	assert.Regexp(t, `DB\.PORT\s+9999\s+dotenv`, out)
	assert.Regexp(t, `AWS_CONFIG\.AWS_PROFILE\s+dev\s+environment`, out)
	assert.Regexp(t, `SERVICE_NAME\s+my_service_name\s+default`, out)
	assert.Regexp(t, `DB\.PASSWORD\s+\*+\s+default`, out)
	assert.NotContains(t, out, "DB_PASS\n")
}

func TestShowYAMLMasksSecrets(t *testing.T) {
	root := newRoot(t)
	t.Setenv("AWS_PROFILE", "dev")

	code, out, _ := invoke(t, root, "show")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "SERVICE_NAME: my_service_name")
	assert.NotContains(t, out, "DB_PASS")
}

func TestCheckReportsEveryViolation(t *testing.T) {
	root := newRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("DB__PORT=0\n"), 0o600))

	code, _, errOut := invoke(t, root, "check")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "2 problem(s)")
	assert.Contains(t, errOut, "DB.PORT")
	assert.Contains(t, errOut, "AWS_CONFIG")
}

func TestCheckOK(t *testing.T) {
	root := newRoot(t)
	t.Setenv("AWS_PROFILE", "dev")

	code, out, _ := invoke(t, root, "check")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "configuration OK")
}

func TestDumpDotenvToFile(t *testing.T) {
	root := newRoot(t)
	t.Setenv("AWS_PROFILE", "dev")
	out := filepath.Join(root, "export.env")

	code, _, _ := invoke(t, root, "dump", "dotenv", "--out", out)
	require.Equal(t, 0, code)

	fi, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `SERVICE_NAME="my_service_name"`)
	assert.Contains(t, string(data), "DB__PORT=3306")
	assert.NotContains(t, string(data), "DB__PASSWORD")
	assert.NotContains(t, string(data), "DB_PASS")
}

func TestSourcesAlwaysReports(t *testing.T) {
	root := newRoot(t)

	code, out, _ := invoke(t, root, "sources")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Configuration sources")
	assert.Contains(t, out, "Priority order: Secrets > Environment Variables > Dotenv Files > YAML > Defaults")
}

func TestBadArguments(t *testing.T) {
	code, _, errOut := invoke(t, t.TempDir(), "dump", "toml")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "confstack:")
}
