package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted by New.
type Handlers struct {
	Alerts   *handlers.AlertHandler
	Worklist *handlers.WorklistHandler
	Settings *handlers.SettingsHandler
	Ops      *handlers.OpsHandler
	// Metrics is served on /metrics when set.
	Metrics http.Handler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	if h.Alerts != nil {
		r.GET("/alerts", h.Alerts.List)
		r.POST("/alerts/read", h.Alerts.MarkAllRead)
		r.POST("/alerts/:id/read", h.Alerts.MarkRead)
		r.POST("/alerts/:id/snooze", h.Alerts.Snooze)
		r.GET("/alerts/:id/audit", h.Alerts.Audit)
	}
	if h.Worklist != nil {
		r.GET("/worklist", h.Worklist.List)
	}
	if h.Settings != nil {
		r.GET("/settings", h.Settings.Get)
		r.PUT("/settings", h.Settings.Update)
	}
	if h.Ops != nil {
		r.POST("/evaluate", h.Ops.Evaluate)
		r.POST("/notifications/test", h.Ops.SendMessage)
	}
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Request.URL.Path == "/healthz" || c.Request.URL.Path == "/metrics" {
			return
		}
		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
