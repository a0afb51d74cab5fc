package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "memgraph/backend/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("LLM_BASE_WAIT", "")
	t.Setenv("LLM_MAX_ATTEMPTS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, 3, cfg.LLMMaxAttempts)
	assert.Equal(t, 15*time.Second, cfg.LLMBaseWait)
	assert.InDelta(t, 0.5, cfg.LLMTemperature, 1e-9)
	assert.Equal(t, 2, cfg.RecallDepth)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "NEO4J")
	t.Setenv("NEO4J_URI", "bolt://graph:7687")
	t.Setenv("LLM_BASE_WAIT", "250ms")
	t.Setenv("LLM_MAX_ATTEMPTS", "5")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendNeo4j, cfg.StoreBackend)
	assert.Equal(t, "bolt://graph:7687", cfg.Neo4jURI)
	assert.Equal(t, 250*time.Millisecond, cfg.LLMBaseWait)
	assert.Equal(t, 5, cfg.LLMMaxAttempts)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_UnparsableValuesFallBack(t *testing.T) {
	t.Setenv("LLM_BASE_WAIT", "soon")
	t.Setenv("LLM_TEMPERATURE", "warm")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.LLMBaseWait)
	assert.InDelta(t, 0.5, cfg.LLMTemperature, 1e-9)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StoreBackend:         BackendSQLite,
			SQLitePath:           "memgraph.db",
			LLMBaseURL:           "http://localhost:4000/v1",
			LLMModel:             "model",
			LLMMaxAttempts:       3,
			LLMBaseWait:          time.Second,
			MemorizeTopics:       5,
			DiscordMemorizeEvery: 10,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid sqlite", func(c *Config) {}, false},
		{"memory backend", func(c *Config) { c.StoreBackend = BackendMemory }, false},
		{"unknown backend", func(c *Config) { c.StoreBackend = "mongo" }, true},
		{"neo4j without password", func(c *Config) {
			c.StoreBackend = BackendNeo4j
			c.Neo4jURI = "bolt://localhost:7687"
			c.Neo4jUser = "neo4j"
		}, true},
		{"sqlite without path", func(c *Config) { c.SQLitePath = "" }, true},
		{"zero attempts", func(c *Config) { c.LLMMaxAttempts = 0 }, true},
		{"negative wait", func(c *Config) { c.LLMBaseWait = -time.Second }, true},
		{"missing model", func(c *Config) { c.LLMModel = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConfig))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithBackend(t *testing.T) {
	cfg := &Config{StoreBackend: BackendSQLite, SQLitePath: "a.db"}
	other := cfg.WithBackend("Neo4j")

	assert.Equal(t, BackendNeo4j, other.StoreBackend)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, "a.db", other.SQLitePath)
}
