package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ibocheck/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ibocheck/internal/interfaces/http/handlers"
	"github.com/turtacn/ibocheck/internal/interfaces/http/middleware"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the route tree.
type RouterConfig struct {
	HealthHandler   *handlers.HealthHandler
	MinaoHandler    *handlers.MinaoHandler
	ClassifyHandler *handlers.ClassifyHandler

	Logger   logging.Logger
	Recorder middleware.RequestRecorder
	// MetricsHandler is mounted at /metrics when non-nil.
	MetricsHandler http.Handler
}

// NewRouter constructs the gin engine.  Set the gin mode before calling it.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, middleware.DefaultLoggingConfig()))
	}
	if cfg.Recorder != nil {
		r.Use(middleware.Metrics(cfg.Recorder))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api/v1")
	if cfg.MinaoHandler != nil {
		api.GET("/minao/:element", cfg.MinaoHandler.Get)
	}
	if cfg.ClassifyHandler != nil {
		api.POST("/classify", cfg.ClassifyHandler.Classify)
	}

	return r
}
