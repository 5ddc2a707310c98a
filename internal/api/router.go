package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nidohq/nido-sync/internal/api/middleware"
	"github.com/nidohq/nido-sync/internal/config"
	"github.com/nidohq/nido-sync/internal/queue"
	syncpkg "github.com/nidohq/nido-sync/internal/sync"
)

type Router struct {
	engine     *gin.Engine
	server     *http.Server
	cfg        *config.Config
	queueSvc   *queue.Service
	reconciler *syncpkg.Reconciler
	logger     *zap.Logger
}

func NewRouter(
	cfg *config.Config,
	queueSvc *queue.Service,
	reconciler *syncpkg.Reconciler,
	logger *zap.Logger,
) *Router {
	// Disable GIN default logger
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())
	r.Use(middleware.Logger(logger))

	api := &Router{
		engine:     r,
		cfg:        cfg,
		queueSvc:   queueSvc,
		reconciler: reconciler,
		logger:     logger,
	}

	api.RegisterRoutes()
	return api
}

func (r *Router) RegisterRoutes() {
	// Simple health check
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus metrics endpoint
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Provider push notifications
	r.engine.POST("/webhooks/calendar", r.HandleCalendarWebhook)

	api := r.engine.Group("/api")
	{
		api.POST("/queue", r.EnqueueEvent)
		api.GET("/queue/stats", r.GetQueueStats)
	}
}

func (r *Router) Run() error {
	r.server = &http.Server{
		Addr:         ":" + r.cfg.Port,
		Handler:      r.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return r.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (r *Router) Shutdown(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	return r.server.Shutdown(ctx)
}
