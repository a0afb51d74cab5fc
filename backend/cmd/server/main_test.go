package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"memgraph/backend/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:            "development",
		StoreBackend:   config.BackendSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "server.db"),
		LLMBaseURL:     "http://127.0.0.1:1/v1",
		LLMModel:       "test-model",
		LLMMaxAttempts: 1,
		MemorizeTopics: 3,
		RecallDepth:    2,
	}
}

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := newApp(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.docs.Close(context.Background())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	a.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
}

func TestShutdownSavesAndStartupLoads(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	cfg := testConfig(t)

	first, err := newApp(ctx, cfg, zap.NewNop())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/concepts/coffee/fragments",
		bytes.NewBufferString(`{"fragment":"brewed at dawn"}`))
	req.Header.Set("Content-Type", "application/json")
	first.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	first.shutdown(ctx, zap.NewNop())

	second, err := newApp(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer second.docs.Close(ctx)

	node, ok := second.graph.Node("coffee")
	require.True(t, ok)
	assert.Equal(t, []string{"brewed at dawn"}, node.Fragments)
}

func TestNewApp_InvalidBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreBackend = "mongo"
	_, err := newApp(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
