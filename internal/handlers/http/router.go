package http

import (
	"net/http"

	"rtckit/internal/core/services"
	"rtckit/internal/infrastructure/middleware"
	"rtckit/pkg/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth   *AuthHandler
	SDP    *SDPHandler
	Files  *FileHandler
	HTML   *HTMLHandler
	Health *HealthHandler

	// ChatRelay serves the websocket endpoint at signal.path.
	ChatRelay http.HandlerFunc
	// Metrics is mounted at monitoring.metrics_path when prometheus is enabled.
	Metrics http.Handler
}

func NewRouter(cfg *config.Config, authService services.AuthService, h Handlers, logger *zap.SugaredLogger) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.RequestIDMiddleware(),
		middleware.TracingMiddleware(),
		middleware.AccessLogMiddleware(logger),
		middleware.ErrorHandlerMiddleware(logger),
		middleware.NewHTTPRateLimitMiddleware(cfg),
	)

	if h.Health != nil {
		h.Health.SetupRoutes(router)
	}
	if h.Metrics != nil && cfg.Monitoring.PrometheusEnabled {
		router.GET(cfg.Monitoring.MetricsPath, gin.WrapH(h.Metrics))
	}
	if h.Auth != nil {
		h.Auth.SetupRoutes(router)
	}
	if h.SDP != nil {
		h.SDP.SetupRoutes(router)
	}
	if h.HTML != nil {
		h.HTML.SetupRoutes(router)
	}
	if h.Files != nil {
		h.Files.SetupRoutes(router, middleware.AuthMiddleware(authService))
	}
	if h.ChatRelay != nil {
		router.GET(cfg.Signal.Path, gin.WrapF(h.ChatRelay))
	}

	return router
}
