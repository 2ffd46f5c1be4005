package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "GIN_MODE", "LOG_LEVEL", "ALLOWED_ORIGINS", "RATE_LIMIT_PER_MINUTE",
		"LLM_PROVIDER", "OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL",
		"VERTEX_PROJECT_ID", "VERTEX_LOCATION", "VERTEX_MODEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingCredential(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestLoad_BlankCredentialIsMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "   ")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "*", cfg.AllowedOrigins)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, DefaultOpenAIBaseURL, cfg.OpenAI.BaseURL)
	assert.Equal(t, DefaultOpenAIModel, cfg.OpenAI.Model)
	assert.Zero(t, cfg.RateLimitPerMinute)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:9999/v1/")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("PORT", "3000")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
}

func TestLoad_InvalidRateLimit(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "lots")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Vertex(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "vertex")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("VERTEX_PROJECT_ID", "proj")
	t.Setenv("VERTEX_LOCATION", "us-central1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderVertex, cfg.Provider)
	assert.Equal(t, DefaultVertexModel, cfg.Vertex.Model)
}

func TestLoad_UnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "eliza")

	_, err := Load()
	assert.Error(t, err)
}
