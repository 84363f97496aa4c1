package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// ============================================================================
// CONFIG — Environment-driven settings
// ============================================================================

// Provider names the planner can be configured with.
const (
	ProviderOpenAI = "openai"
	ProviderKimi   = "kimi"
)

// Settings holds the application configuration.
type Settings struct {
	// Planner provider selection
	Provider        string
	RequireProvider bool // fail closed when the provider has no credentials

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	KimiAPIKey  string
	KimiModel   string
	KimiBaseURL string

	// Quota / analytics persistence (empty DSN = in-memory quota, no analytics)
	DatabaseDSN string

	// Behavior
	MaxFreeUses int
	PreviewRows int

	// Logging
	LogLevel string
}

// Load reads Settings from environment variables with defaults.
func Load() (*Settings, error) {
	s := &Settings{
		Provider:        normalizeProvider(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		RequireProvider: getEnvAsBool("LLM_PROVIDER_REQUIRED", false),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),

		KimiAPIKey:  os.Getenv("KIMI_API_KEY"),
		KimiModel:   getEnv("KIMI_MODEL", "kimi-k2-0711-preview"),
		KimiBaseURL: getEnv("KIMI_BASE_URL", "https://api.moonshot.ai/v1"),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		MaxFreeUses: getEnvAsInt("MAX_FREE_USES", 5),
		PreviewRows: getEnvAsInt("PREVIEW_ROWS", 15),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks settings consistency.
func (s *Settings) Validate() error {
	if s.MaxFreeUses < 0 {
		return errors.New("MAX_FREE_USES cannot be negative")
	}
	if s.PreviewRows <= 0 {
		return errors.New("PREVIEW_ROWS must be positive")
	}
	return nil
}

// ProviderAPIKey returns the key for the selected provider.
func (s *Settings) ProviderAPIKey() string {
	if s.Provider == ProviderKimi {
		return s.KimiAPIKey
	}
	return s.OpenAIAPIKey
}

// ProviderModel returns the model for the selected provider.
func (s *Settings) ProviderModel() string {
	if s.Provider == ProviderKimi {
		return s.KimiModel
	}
	return s.OpenAIModel
}

// ProviderBaseURL returns the base URL for the selected provider.
func (s *Settings) ProviderBaseURL() string {
	if s.Provider == ProviderKimi {
		return s.KimiBaseURL
	}
	return s.OpenAIBaseURL
}

// ProviderTemperature returns the sampling temperature. Kimi models
// misbehave at low temperatures, so they run at 1.
func (s *Settings) ProviderTemperature() float64 {
	if s.Provider == ProviderKimi {
		return 1
	}
	return 0.1
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ProviderKimi:
		return ProviderKimi
	default:
		return ProviderOpenAI
	}
}

// Helper functions for environment variables

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvAsBool(key string, defaultValue bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return defaultValue
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}
