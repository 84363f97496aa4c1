package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("MAX_FREE_USES", "")
	t.Setenv("PREVIEW_ROWS", "")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, s.Provider)
	assert.Equal(t, "gpt-4.1-mini", s.OpenAIModel)
	assert.Equal(t, 5, s.MaxFreeUses)
	assert.Equal(t, 15, s.PreviewRows)
	assert.Equal(t, "info", s.LogLevel)
	assert.InDelta(t, 0.1, s.ProviderTemperature(), 1e-9)
}

func TestLoadKimiProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "  Kimi ")
	t.Setenv("KIMI_API_KEY", "sk-test")
	t.Setenv("KIMI_MODEL", "")
	t.Setenv("KIMI_BASE_URL", "")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderKimi, s.Provider)
	assert.Equal(t, "sk-test", s.ProviderAPIKey())
	assert.Equal(t, "kimi-k2-0711-preview", s.ProviderModel())
	assert.Equal(t, "https://api.moonshot.ai/v1", s.ProviderBaseURL())
	assert.InDelta(t, 1.0, s.ProviderTemperature(), 1e-9)
}

func TestLoadUnknownProviderFallsBackToOpenAI(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gemini")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, s.Provider)
}

func TestLoadRejectsInvalidNumbers(t *testing.T) {
	t.Setenv("PREVIEW_ROWS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PREVIEW_ROWS")
}

func TestBoolEnvParsing(t *testing.T) {
	t.Setenv("LLM_PROVIDER_REQUIRED", "yes")
	s, err := Load()
	require.NoError(t, err)
	assert.True(t, s.RequireProvider)

	t.Setenv("LLM_PROVIDER_REQUIRED", "garbage")
	s, err = Load()
	require.NoError(t, err)
	assert.False(t, s.RequireProvider)
}
