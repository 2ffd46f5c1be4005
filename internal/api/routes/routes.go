package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/ideagen/internal/api/handlers"
	"github.com/yoockh/ideagen/internal/api/middleware"
)

const ServiceName = "ideagen"

// Version is overridden at build time with -ldflags "-X ...routes.Version=...".
var Version = "dev"

type Deps struct {
	Generate *handlers.GenerateHandler
	WS       *handlers.WSHandler
	Logger   *logrus.Logger

	RateLimitPerMinute int
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": ServiceName, "version": Version})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limited := r.Group("/")
	limited.Use(middleware.RateLimit(d.RateLimitPerMinute, d.Logger))

	limited.POST("/api/generate", d.Generate.Generate)

	// WebSocket
	if d.WS != nil {
		limited.GET("/ws/generate", d.WS.Generate)
	}
}
