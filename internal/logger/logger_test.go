package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yanizio/confstack/internal/settings"
)

func testLogging() settings.Logging {
	return settings.Logging{
		Level:      "INFO",
		Format:     settings.DefaultLogFormat,
		DateFormat: "2006-01-02 15:04:05",
		Encoding:   "console",
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"DEBUG":    zapcore.DebugLevel,
		"info":     zapcore.InfoLevel,
		"WARNING":  zapcore.WarnLevel,
		"ERROR":    zapcore.ErrorLevel,
		"CRITICAL": zapcore.DPanicLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("VERBOSE")
	assert.Error(t, err)
}

func TestConsoleFollowsFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := build(testLogging(), "svc", zapcore.AddSync(&buf))
	require.NoError(t, err)

	log.Warn("disk low")
	require.NoError(t, log.Sync())

	line := strings.TrimSpace(buf.String())
	parts := strings.Split(line, " - ")
	require.Len(t, parts, 4, line)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, parts[0])
	// zap fixes the element order: time, level, name, message.
	assert.Equal(t, "WARNING", parts[1])
	assert.Equal(t, "svc", parts[2])
	assert.Equal(t, "disk low", parts[3])
}

func TestJSONKeysAndLevelFilter(t *testing.T) {
	cfg := testLogging()
	cfg.Encoding = "json"
	cfg.Level = "WARNING"
	cfg.Format = "%(levelname)s %(message)s %(lineno)d %(process)d"

	var buf bytes.Buffer
	log, err := build(cfg, "svc", zapcore.AddSync(&buf))
	require.NoError(t, err)

	log.Info("dropped")
	log.Errorw("kept", "port", 3306)
	require.NoError(t, log.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "ERROR", entry["levelname"])
	assert.Equal(t, "kept", entry["message"])
	assert.EqualValues(t, 3306, entry["port"])
	assert.EqualValues(t, os.Getpid(), entry["process"])
	assert.Contains(t, entry["lineno"], "logger_test.go:")
	assert.NotContains(t, entry, "asctime", "time is omitted when the format leaves it out")
	assert.NotContains(t, entry, "name")
}

func TestBuildRejectsUnknownEncoding(t *testing.T) {
	cfg := testLogging()
	cfg.Encoding = "xml"
	_, err := build(cfg, "svc", zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
}

func TestSeparator(t *testing.T) {
	assert.Equal(t, " - ", separator(settings.DefaultLogFormat))
	assert.Equal(t, " | ", separator("%(levelname)s | %(message)s"))
	assert.Equal(t, "\t", separator("%(message)s"))
	assert.Equal(t, "\t", separator("plain"))
}

func TestNewWritesFileAndReplacesGlobals(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	dir := filepath.Join(t.TempDir(), "logs")
	cfg := testLogging()
	cfg.Dir = dir

	log, err := New(cfg, "svc")
	require.NoError(t, err)
	log.Info("hello")
	_ = log.Sync()

	assert.NotSame(t, prev, zap.L())

	data, err := os.ReadFile(filepath.Join(dir, "svc.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "logger online")
	assert.Contains(t, string(data), "hello")
}
