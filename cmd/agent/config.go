package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"weather-agent/internal/agent"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultModel = "gpt-4o-mini"

// AppConfig holds all configuration for the agent service, loaded from the
// environment and an optional config.yaml. API keys and the model name are
// carried here and passed down explicitly so no component reads ambient
// process state.
type AppConfig struct {
	Port           string
	OpenAIKey      string
	GeminiKey      string
	ForecastAPIURL string
	Agent          agent.Config
}

// fileConfig is the shape of the optional config.yaml.
type fileConfig struct {
	ForecastAPIURL string       `yaml:"forecast_api_url"`
	Agent          agent.Config `yaml:"agent"`
}

// LoadConfig loads configuration from a .env file (local development only),
// environment variables, and an optional config.yaml for agent settings.
func LoadConfig() (*AppConfig, error) {
	// In release mode (Docker) configuration arrives as real environment
	// variables; only local development uses a .env file.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("WARNING: No .env file found for local development.")
		}
	}

	cfg := &AppConfig{
		Port:      getEnv("PORT", "8080"),
		OpenAIKey: os.Getenv("OPENAI_API_KEY"),
		GeminiKey: os.Getenv("GEMINI_API_KEY"),
		Agent: agent.Config{
			Model: getEnv("AGENT_MODEL", defaultModel),
		},
	}

	if data, err := os.ReadFile("config.yaml"); err == nil {
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse config.yaml: %w", err)
		}
		if fc.ForecastAPIURL != "" {
			cfg.ForecastAPIURL = fc.ForecastAPIURL
		}
		if fc.Agent.Model != "" {
			cfg.Agent.Model = fc.Agent.Model
		}
		if fc.Agent.MaxToolRounds > 0 {
			cfg.Agent.MaxToolRounds = fc.Agent.MaxToolRounds
		}
		if fc.Agent.SystemPrompt != "" {
			cfg.Agent.SystemPrompt = fc.Agent.SystemPrompt
		}
	}

	if key := requiredKeyFor(cfg.Agent.Model); key == "" {
		return nil, fmt.Errorf("no API key configured for model %q", cfg.Agent.Model)
	} else if os.Getenv(key) == "" {
		return nil, fmt.Errorf("%s must be set for model %q", key, cfg.Agent.Model)
	}

	return cfg, nil
}

// requiredKeyFor maps a model prefix to the environment variable carrying
// its provider API key.
func requiredKeyFor(modelID string) string {
	switch {
	case strings.HasPrefix(modelID, "gpt"):
		return "OPENAI_API_KEY"
	case strings.HasPrefix(modelID, "gemini"):
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// getEnv reads an env var or returns a default.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
