package config

import (
	"errors"
	"testing"
	"time"

	apperrors "neuralearn/backend/pkg/errors"
)

func validConfig() *Config {
	return &Config{
		Port:          "8080",
		Env:           "development",
		Neo4jURI:      "bolt://localhost:7687",
		Neo4jUser:     "neo4j",
		Neo4jPassword: "password",
		LLMBaseURL:    "http://localhost:4000",
		ModelID:       "openrouter/anthropic/claude-3.5-sonnet",
		IndexBaseURL:  "https://api.moorcheh.ai",
		IndexTimeout:  30 * time.Second,
		LLMTimeout:    60 * time.Second,
		AgentTimeout:  90 * time.Second,
	}
}

func TestValidateOK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateMissingRequired(t *testing.T) {
	tests := []struct {
		field string
		blank func(*Config)
	}{
		{"NEO4J_URI", func(c *Config) { c.Neo4jURI = "" }},
		{"NEO4J_USER", func(c *Config) { c.Neo4jUser = "" }},
		{"NEO4J_PASSWORD", func(c *Config) { c.Neo4jPassword = "" }},
		{"LLM_BASE_URL", func(c *Config) { c.LLMBaseURL = "" }},
		{"MODEL_ID", func(c *Config) { c.ModelID = "" }},
		{"INDEX_BASE_URL", func(c *Config) { c.IndexBaseURL = "" }},
	}

	for _, tt := range tests {
		cfg := validConfig()
		tt.blank(cfg)

		err := cfg.Validate()
		var missing *apperrors.ErrConfigMissingRequired
		if !errors.As(err, &missing) {
			t.Errorf("%s: want ErrConfigMissingRequired, got %v", tt.field, err)
			continue
		}
		if missing.Field != tt.field {
			t.Errorf("field = %s, want %s", missing.Field, tt.field)
		}
	}
}

func TestValidateAPIKeysOptional(t *testing.T) {
	cfg := validConfig()
	cfg.LLMAPIKey = ""
	cfg.IndexAPIKey = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("API keys must stay optional: %v", err)
	}
}
