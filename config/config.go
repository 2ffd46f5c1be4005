package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	ProviderOpenAI = "openai"
	ProviderVertex = "vertex"

	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-3.5-turbo"
	DefaultVertexModel   = "gemini-1.5-flash"
)

var ErrMissingCredential = errors.New("OPENAI_API_KEY environment variable is not set")

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type VertexConfig struct {
	ProjectID string
	Location  string
	Model     string
}

// Config is built once at startup and never mutated afterwards.
type Config struct {
	Port               string
	GinMode            string
	LogLevel           string
	AllowedOrigins     string
	RateLimitPerMinute int

	Provider string
	OpenAI   OpenAIConfig
	Vertex   VertexConfig
}

// Load reads the process environment. It fails when the selected provider's
// credential is missing so the service refuses to start.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        os.Getenv("GIN_MODE"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		Provider:       strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		OpenAI: OpenAIConfig{
			APIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			BaseURL: strings.TrimRight(getEnv("OPENAI_BASE_URL", DefaultOpenAIBaseURL), "/"),
			Model:   getEnv("OPENAI_MODEL", DefaultOpenAIModel),
		},
		Vertex: VertexConfig{
			ProjectID: os.Getenv("VERTEX_PROJECT_ID"),
			Location:  os.Getenv("VERTEX_LOCATION"),
			Model:     getEnv("VERTEX_MODEL", DefaultVertexModel),
		},
	}

	if s := os.Getenv("RATE_LIMIT_PER_MINUTE"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE %q", s)
		}
		cfg.RateLimitPerMinute = n
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, ErrMissingCredential
		}
	case ProviderVertex:
		if cfg.Vertex.ProjectID == "" || cfg.Vertex.Location == "" {
			return nil, errors.New("VERTEX_PROJECT_ID and VERTEX_LOCATION environment variables are required for the vertex provider")
		}
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.Provider)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
