package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	apperrors "memgraph/backend/pkg/errors"
)

// Store backends understood by store.Open
const (
	BackendNeo4j  = "neo4j"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	// App
	Port     string
	Env      string
	LogLevel string

	// Document store
	StoreBackend  string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string
	SQLitePath    string

	// Remote text endpoint (OpenAI-compatible)
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTemperature float64
	LLMMaxAttempts int
	LLMBaseWait    time.Duration

	// Memorization
	MemorizeTopics int
	RecallDepth    int

	// Discord
	DiscordBotToken      string
	DiscordMemorizeEvery int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", ""),
		StoreBackend:         strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		Neo4jURI:             getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:            getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:        getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase:        getEnv("NEO4J_DATABASE", ""),
		SQLitePath:           getEnv("SQLITE_PATH", "memgraph.db"),
		LLMBaseURL:           getEnv("LLM_BASE_URL", "http://localhost:4000/v1"),
		LLMAPIKey:            getEnv("LLM_API_KEY", ""),
		LLMModel:             getEnv("LLM_MODEL", "deepseek-ai/DeepSeek-V3"),
		LLMTemperature:       getEnvFloat("LLM_TEMPERATURE", 0.5),
		LLMMaxAttempts:       getEnvInt("LLM_MAX_ATTEMPTS", 3),
		LLMBaseWait:          getEnvDuration("LLM_BASE_WAIT", 15*time.Second),
		MemorizeTopics:       getEnvInt("MEMORIZE_TOPICS", 5),
		RecallDepth:          getEnvInt("RECALL_DEPTH", 2),
		DiscordBotToken:      getEnv("DISCORD_BOT_TOKEN", ""),
		DiscordMemorizeEvery: getEnvInt("DISCORD_MEMORIZE_EVERY", 30),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendNeo4j:
		if c.Neo4jURI == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_URI")
		}
		if c.Neo4jUser == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_USER")
		}
		if c.Neo4jPassword == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return apperrors.NewConfigMissingRequired("SQLITE_PATH")
		}
	case BackendMemory:
	default:
		return apperrors.NewConfigValidationFailed("STORE_BACKEND",
			fmt.Sprintf("unknown backend %q (want neo4j, sqlite or memory)", c.StoreBackend))
	}
	if c.LLMBaseURL == "" {
		return apperrors.NewConfigMissingRequired("LLM_BASE_URL")
	}
	if c.LLMModel == "" {
		return apperrors.NewConfigMissingRequired("LLM_MODEL")
	}
	if c.LLMMaxAttempts < 1 {
		return apperrors.NewConfigValidationFailed("LLM_MAX_ATTEMPTS", "must be at least 1")
	}
	if c.LLMBaseWait < 0 {
		return apperrors.NewConfigValidationFailed("LLM_BASE_WAIT", "must not be negative")
	}
	if c.MemorizeTopics < 1 {
		return apperrors.NewConfigValidationFailed("MEMORIZE_TOPICS", "must be at least 1")
	}
	if c.DiscordMemorizeEvery < 1 {
		return apperrors.NewConfigValidationFailed("DISCORD_MEMORIZE_EVERY", "must be at least 1")
	}
	// LLM API key and Discord token are optional for development
	return nil
}

// WithBackend returns a copy of the config pointed at another store backend
func (c *Config) WithBackend(backend string) *Config {
	clone := *c
	clone.StoreBackend = strings.ToLower(backend)
	return &clone
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
