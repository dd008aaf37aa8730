package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/apkscout/api/handler"
	"github.com/use-agent/apkscout/api/middleware"
	"github.com/use-agent/apkscout/config"
	"github.com/use-agent/apkscout/resolver"
	"github.com/use-agent/apkscout/webhook"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health sits outside auth so monitoring probes always work.
func NewRouter(o *resolver.Orchestrator, session handler.SessionStater, notifier *webhook.Notifier, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health: no auth.
	v1.GET("/health", handler.Health(session, o.Registry(), startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Single query
	protected.POST("/resolve", handler.Resolve(o))

	// Batch
	protected.POST("/batch/resolve", handler.PostBatch(o, handler.BatchOptions{
		Workers:    cfg.Resolver.Workers,
		OutputFile: cfg.Output.File,
		Notifier:   notifier,
	}))
	protected.GET("/batch/:id", handler.GetBatch())

	return r
}
