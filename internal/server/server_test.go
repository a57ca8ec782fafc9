package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yanizio/confstack/internal/config"
)

func testSchema() *config.Schema {
	return config.NewSchema(
		config.String("CSSRV_NAME").Default("svc"),
		config.Int("CSSRV_PORT").Default(8080).Rules("min=1,max=65535"),
		config.String("CSSRV_TOKEN").Secret().Default("tok-123"),
	)
}

func newTestRouter(t *testing.T) (http.Handler, string) {
	t.Helper()
	for _, name := range []string{"CSSRV_NAME", "CSSRV_PORT", "CSSRV_TOKEN"} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
	root := t.TempDir()
	loader := config.NewLoader(testSchema(), config.Identity,
		config.WithRoot(root),
		config.WithSecretsDir(filepath.Join(root, "secrets")),
		config.WithLogger(zap.NewNop().Sugar()),
	)
	return Router(loader, zap.NewNop().Sugar()), root
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestNewTimeouts(t *testing.T) {
	srv := New(":0", http.NotFoundHandler())
	assert.Equal(t, 10*time.Second, srv.ReadTimeout)
	assert.Equal(t, 15*time.Second, srv.WriteTimeout)
	assert.Equal(t, 60*time.Second, srv.IdleTimeout)
	assert.NotZero(t, srv.ReadHeaderTimeout)
}

func TestHealthAndConfig(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = do(t, h, http.MethodGet, "/config")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "tok-123")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "svc", body["CSSRV_NAME"])
	assert.EqualValues(t, 8080, body["CSSRV_PORT"])
	assert.Equal(t, config.Mask, body["CSSRV_TOKEN"])

	rec = do(t, h, http.MethodGet, "/config?format=yaml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSSRV_NAME: svc")
	assert.NotContains(t, rec.Body.String(), "tok-123")
}

func TestOriginsAndSources(t *testing.T) {
	h, _ := newTestRouter(t)
	t.Setenv("CSSRV_NAME", "from-env")

	rec := do(t, h, http.MethodGet, "/origins")
	require.Equal(t, http.StatusOK, rec.Code)
	var origins map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &origins))
	assert.Equal(t, "environment", origins["CSSRV_NAME"])
	assert.Equal(t, "default", origins["CSSRV_PORT"])

	rec = do(t, h, http.MethodGet, "/sources")
	require.Equal(t, http.StatusOK, rec.Code)
	var records []config.SourceRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 5)
	assert.Equal(t, config.SourceSecrets, records[0].Kind)
	assert.Equal(t, config.SourceDefault, records[4].Kind)
}

func TestReloadKeepsPreviousOnFailure(t *testing.T) {
	h, root := newTestRouter(t)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/config").Code)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("CSSRV_PORT=0\n"), 0o600))

	rec := do(t, h, http.MethodPost, "/reload")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body struct {
		Violations []config.Violation `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Violations, 1)
	assert.Equal(t, "CSSRV_PORT", body.Violations[0].Key)

	rec = do(t, h, http.MethodGet, "/config")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"CSSRV_PORT": 8080`)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("CSSRV_PORT=9090\n"), 0o600))
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/reload").Code)
	assert.Contains(t, do(t, h, http.MethodGet, "/config").Body.String(), `"CSSRV_PORT": 9090`)
}

func TestHealthReportsValidationFailure(t *testing.T) {
	h, root := newTestRouter(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("CSSRV_PORT=abc\nCSSRV_EXTRA=1\n"), 0o600))

	rec := do(t, h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSSRV_EXTRA")
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)
	do(t, h, http.MethodGet, "/config")

	rec := do(t, h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "config_load_total"))
}
