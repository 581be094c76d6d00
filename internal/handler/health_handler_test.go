package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestReady_MissingFilesAreUp(t *testing.T) {
	dir := t.TempDir()
	h := Ready(filepath.Join(dir, "tokens.json"), filepath.Join(dir, "replied.txt"))

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReady_ExistingFilesAreUp(t *testing.T) {
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "tokens.json")
	repliedFile := filepath.Join(dir, "replied.txt")
	require.NoError(t, os.WriteFile(tokenFile, []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(repliedFile, []byte("# log\n"), 0o644))

	rec := httptest.NewRecorder()
	Ready(tokenFile, repliedFile)(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Checks map[string]HealthCheckResult `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "up", body.Checks["token_file"].Status)
	assert.Equal(t, "up", body.Checks["replied_log"].Status)
}
