package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvlens/internal/config"
	"cvlens/internal/llm"
	"cvlens/pkg/models"
)

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := invoke(t, HealthHandler, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "ok", resp.Checks["api"])
}

func TestReadinessHandlerDegradedWithoutProvider(t *testing.T) {
	manager := llm.NewManager(&config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := invoke(t, ReadinessHandler(manager), req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unavailable", resp.Checks["llm"])
}

func TestLivenessHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := invoke(t, LivenessHandler, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alive")
}

func TestStatusHandlerReportsProvider(t *testing.T) {
	manager := llm.NewManager(&config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := invoke(t, StatusHandler(manager), req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "operational", resp.Status)
	assert.Equal(t, "none", resp.Checks["llm"])
	assert.Equal(t, "unavailable", resp.Checks["llm_healthy"])
}
