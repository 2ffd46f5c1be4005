package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/ideagen/config"
	"github.com/yoockh/ideagen/internal/api/handlers"
	"github.com/yoockh/ideagen/internal/api/middleware"
	"github.com/yoockh/ideagen/internal/api/routes"
	"github.com/yoockh/ideagen/internal/logger"
	"github.com/yoockh/ideagen/internal/metrics"
	"github.com/yoockh/ideagen/internal/providers/llm"
	"github.com/yoockh/ideagen/internal/services"
)

func main() {
	_ = godotenv.Load()

	l := logger.New(os.Getenv("LOG_LEVEL"))

	// Missing credentials are fatal: refuse to start rather than fail per request.
	cfg, err := config.Load()
	if err != nil {
		l.WithError(err).Fatal("config error")
	}

	provider, err := newProvider(context.Background(), cfg, l)
	if err != nil {
		l.WithError(err).Fatal("LLM provider init error")
	}
	defer provider.Close()
	l.WithField("provider", cfg.Provider).Info("LLM provider ready")

	metrics.Register()

	svc := services.NewGenerationService(provider)

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(l), middleware.CORS(cfg.AllowedOrigins))

	routes.RegisterRoutes(r, routes.Deps{
		Generate:           handlers.NewGenerateHandler(svc, l),
		WS:                 handlers.NewWSHandler(svc, l),
		Logger:             l,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	l.WithFields(logrus.Fields{
		"port":            cfg.Port,
		"allowed_origins": cfg.AllowedOrigins,
		"rate_limit":      cfg.RateLimitPerMinute,
	}).Info("starting server")

	if err := r.Run(":" + cfg.Port); err != nil {
		l.WithError(err).Fatal("server stopped")
	}
}

func newProvider(ctx context.Context, cfg *config.Config, l *logrus.Logger) (llm.Provider, error) {
	if cfg.Provider == config.ProviderVertex {
		p, err := llm.NewVertexGemini(ctx, cfg.Vertex.ProjectID, cfg.Vertex.Location, cfg.Vertex.Model)
		if err != nil {
			return nil, err
		}
		return p, nil
	}

	p, err := llm.NewOpenAI(llm.OpenAIConfig{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		Logger:  l,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
