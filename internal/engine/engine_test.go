package engine

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{EngineVersion: "test-engine", ScenarioDir: ""}
}

func TestNewBuildsAnEmptyButHealthyEngine(t *testing.T) {
	gin.SetMode(gin.TestMode)

	eng, err := New(testConfig())
	require.NoError(t, err)
	assert.NotNil(t, eng.Registry)
	assert.NotNil(t, eng.Tables)
	assert.NotNil(t, eng.Pipeline)
	assert.NotNil(t, eng.Server)

	router := eng.Router()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
}

func TestNewSkipsMissingScenarioDirWithoutError(t *testing.T) {
	cfg := testConfig()
	cfg.ScenarioDir = "/nonexistent/ade-scenarios-dir"

	eng, err := New(cfg)
	require.NoError(t, err)
	assert.Empty(t, eng.Registry.List())
}
