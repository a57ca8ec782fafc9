// internal/config/readers_test.go
//
// Source readers: presence, absence, and malformed input.
//
// Run: go test ./internal/config -run Read -v

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

/*──────────────────────────── structured file ───────────────────────────*/

func TestReadFileAbsent(t *testing.T) {
	tree, rec, err := ReadFile(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Empty(t, tree)
	assert.False(t, rec.Available)
	assert.Equal(t, SourceFile, rec.Kind)
}

func TestReadFileNested(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	writeTestFile(t, p, `
SERVICE_NAME: from_yaml
DB:
  PORT: 5432
  SCHEMA_NAMES: [a, b]
  PERF:
    POOL_SIZE: 7
AWS_CONFIG:
  AWS_PROFILE: ~
`)
	tree, rec, err := ReadFile(p)
	require.NoError(t, err)
	assert.True(t, rec.Available)

	flat := Flatten(tree, pathDelim)
	assert.Equal(t, "from_yaml", flat["SERVICE_NAME"])
	assert.Equal(t, 5432, flat["DB.PORT"])
	assert.Equal(t, []any{"a", "b"}, flat["DB.SCHEMA_NAMES"])
	assert.Equal(t, 7, flat["DB.PERF.POOL_SIZE"])
	v, present := flat["AWS_CONFIG.AWS_PROFILE"]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestReadFileEmpty(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	writeTestFile(t, p, "")
	tree, rec, err := ReadFile(p)
	require.NoError(t, err)
	assert.True(t, rec.Available)
	assert.Empty(t, tree)
}

func TestReadFileMalformed(t *testing.T) {
	for name, body := range map[string]string{
		"syntax":   "DB: [unclosed\n  PORT: 1",
		"top list": "- a\n- b\n",
	} {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "config.yaml")
			writeTestFile(t, p, body)
			_, rec, err := ReadFile(p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSourceMalformed))
			assert.True(t, rec.Available, "present but invalid is not absent")
		})
	}
}

func TestParseYAMLStreamAndBytes(t *testing.T) {
	body := "A: 1\nB:\n  C: x\n"
	fromStream, err := ParseYAML(strings.NewReader(body))
	require.NoError(t, err)
	fromBytes, err := ParseYAMLBytes([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, fromBytes, fromStream)
	assert.Equal(t, "x", fromBytes["B"].(map[string]any)["C"])
}

/*──────────────────────────────── dotenv ────────────────────────────────*/

func TestReadDotenv(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".env")
	writeTestFile(t, p, strings.Join([]string{
		"# comment",
		"SERVICE_NAME=dotenv_value",
		"DB__PORT=9999",
		`DB__PASSWORD="quoted value"`,
		"AWS_PROFILE=alias-profile",
		"AWS_CONFIG__AWS_PROFILE=canonical-profile",
		"AWS_ACCESS_KEY_ID=alias-only",
		"UNKNOWN_KEY=kept",
	}, "\n"))

	tree, rec, err := ReadDotenv(p, testSchema())
	require.NoError(t, err)
	assert.True(t, rec.Available)

	flat := Flatten(tree, pathDelim)
	assert.Equal(t, "dotenv_value", flat["SERVICE_NAME"])
	assert.Equal(t, "9999", flat["DB.PORT"])
	assert.Equal(t, "quoted value", flat["DB.PASSWORD"])
	assert.Equal(t, "canonical-profile", flat["AWS_CONFIG.AWS_PROFILE"], "canonical beats alias")
	assert.Equal(t, "alias-only", flat["AWS_CONFIG.AWS_ACCESS_KEY_ID"])
	assert.Equal(t, "kept", flat["UNKNOWN_KEY"], "unknown keys reach the validator")
	_, aliasLeaked := flat["AWS_PROFILE"]
	assert.False(t, aliasLeaked)
}

func TestReadDotenvAbsentAndConflict(t *testing.T) {
	dir := t.TempDir()
	tree, rec, err := ReadDotenv(filepath.Join(dir, ".env"), testSchema())
	require.NoError(t, err)
	assert.False(t, rec.Available)
	assert.Empty(t, tree)

	p := filepath.Join(dir, "conflict.env")
	writeTestFile(t, p, "DB=x\nDB__PORT=1\n")
	_, _, err = ReadDotenv(p, testSchema())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceMalformed))
}

func TestReadDotenvParseErrorHidesValues(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"unterminated": "DB__PASSWORD=\"hunter2\n",
		"bad name":     "DB__PASS-WORD=hunter2\n",
	} {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".env")
			writeTestFile(t, p, body)

			tree, rec, err := ReadDotenv(p, testSchema())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSourceMalformed))
			assert.NotContains(t, err.Error(), "hunter2")
			assert.NotContains(t, rec.Note, "hunter2")
			assert.Empty(t, tree)
		})
	}
}

/*────────────────────────────── environment ─────────────────────────────*/

func TestReadEnvironment(t *testing.T) {
	t.Setenv("SERVICE_NAME", "env_value")
	t.Setenv("DB__PERF__POOL_SIZE", "11")
	t.Setenv("service_name", "wrong case")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "alias-secret")
	t.Setenv("DB__NOT_DECLARED", "ignored")

	tree, rec, err := ReadEnvironment(testSchema())
	require.NoError(t, err)
	assert.True(t, rec.Available, "environment is always available")
	assert.Equal(t, SourceEnvironment, rec.Kind)

	flat := Flatten(tree, pathDelim)
	assert.Equal(t, "env_value", flat["SERVICE_NAME"])
	assert.Equal(t, "11", flat["DB.PERF.POOL_SIZE"])
	assert.Equal(t, "alias-secret", flat["AWS_CONFIG.AWS_SECRET_ACCESS_KEY"])
	_, undeclared := flat["DB.NOT_DECLARED"]
	assert.False(t, undeclared)
	_, lower := flat["service_name"]
	assert.False(t, lower)
}

/*─────────────────────────────── secrets ────────────────────────────────*/

func TestReadSecrets(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "SERVICE_NAME"), "secret_value\n")
	writeTestFile(t, filepath.Join(dir, "DB__PASSWORD"), "p@ss\r\n")
	writeTestFile(t, filepath.Join(dir, "DB__HOST"), "two\n\n")
	writeTestFile(t, filepath.Join(dir, ".hidden"), "nope")
	writeTestFile(t, filepath.Join(dir, "unrelated_token"), "nope")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "DB__PORT"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(dir, "SERVICE_NAME"), filepath.Join(dir, "AWS_PROFILE")))

	tree, rec, err := ReadSecrets(dir, testSchema())
	require.NoError(t, err)
	assert.True(t, rec.Available)
	assert.Contains(t, rec.Note, "unrelated_token")

	flat := Flatten(tree, pathDelim)
	assert.Equal(t, "secret_value", flat["SERVICE_NAME"])
	assert.Equal(t, "p@ss", flat["DB.PASSWORD"])
	assert.Equal(t, "two\n", flat["DB.HOST"], "only one terminator is trimmed")
	assert.Equal(t, "secret_value", flat["AWS_CONFIG.AWS_PROFILE"], "symlinks are followed")
	_, dirRead := flat["DB.PORT"]
	assert.False(t, dirRead)
	assert.Len(t, flat, 4)
}

func TestReadSecretsAbsent(t *testing.T) {
	tree, rec, err := ReadSecrets(filepath.Join(t.TempDir(), "nope"), testSchema())
	require.NoError(t, err)
	assert.False(t, rec.Available)
	assert.Empty(t, tree)
}

func TestReadSecretsNotADirectory(t *testing.T) {
	p := filepath.Join(t.TempDir(), "file")
	writeTestFile(t, p, "x")
	_, _, err := ReadSecrets(p, testSchema())
	assert.True(t, errors.Is(err, ErrSourceMalformed))
}
