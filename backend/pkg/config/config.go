package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	apperrors "neuralearn/backend/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// LLM (OpenAI-compatible endpoint, e.g. LiteLLM)
	LLMBaseURL   string
	LLMAPIKey    string
	ModelID      string
	EmbedModelID string

	// Semantic index service
	IndexBaseURL string
	IndexAPIKey  string

	// Web search
	WebSearchEnabled bool

	// Timeouts
	IndexTimeout time.Duration
	LLMTimeout   time.Duration
	AgentTimeout time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		Neo4jURI:         getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:        getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:    getEnv("NEO4J_PASSWORD", "password"),
		LLMBaseURL:       getEnv("LLM_BASE_URL", "http://localhost:4000"),
		LLMAPIKey:        getEnv("LLM_API_KEY", ""),
		ModelID:          getEnv("MODEL_ID", "openrouter/anthropic/claude-3.5-sonnet"),
		EmbedModelID:     getEnv("EMBED_MODEL_ID", "text-embedding-3-small"),
		IndexBaseURL:     getEnv("INDEX_BASE_URL", "https://api.moorcheh.ai"),
		IndexAPIKey:      getEnv("INDEX_API_KEY", ""),
		WebSearchEnabled: getEnvBool("WEB_SEARCH_ENABLED", true),
		IndexTimeout:     getEnvDuration("INDEX_TIMEOUT", 30*time.Second),
		LLMTimeout:       getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		AgentTimeout:     getEnvDuration("AGENT_TIMEOUT", 90*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"NEO4J_URI", c.Neo4jURI},
		{"NEO4J_USER", c.Neo4jUser},
		{"NEO4J_PASSWORD", c.Neo4jPassword},
		{"LLM_BASE_URL", c.LLMBaseURL},
		{"MODEL_ID", c.ModelID},
		{"INDEX_BASE_URL", c.IndexBaseURL},
	}
	for _, r := range required {
		if r.value == "" {
			return apperrors.NewConfigMissingRequired(r.field)
		}
	}
	// LLM and index API keys are optional for development
	return nil
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

func getEnvBool(key string, defaultValue bool) bool {
	switch os.Getenv(key) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
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
