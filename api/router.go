// Package api wires the HTTP surface of the extraction service.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/prodex/api/handler"
	"github.com/use-agent/prodex/api/middleware"
	"github.com/use-agent/prodex/cache"
	"github.com/use-agent/prodex/cleaner"
	"github.com/use-agent/prodex/config"
	"github.com/use-agent/prodex/models"
	"github.com/use-agent/prodex/webhook"
)

// Service is what the routes need from the scraper.
type Service interface {
	handler.Extractor
	handler.PoolReporter
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work.
func NewRouter(svc Service, cfg *config.Config, cc *cache.Cache, batches *handler.BatchStore, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	md := cleaner.NewMarkdown()
	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(svc, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/extract", handler.Extract(svc, md, cc))

	concurrency := cfg.Batch.Concurrency
	if concurrency <= 0 {
		concurrency = cfg.Browser.MaxPages
	}
	runner := &handler.BatchRunner{
		Extractor:   svc,
		Markdown:    md,
		Store:       batches,
		Webhooks:    webhook.New(),
		Concurrency: concurrency,
	}
	protected.POST("/batch/extract", handler.PostBatch(runner))
	protected.GET("/batch/:id", handler.GetBatch(batches))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ExtractResponse{
			Error: &models.ErrorDetail{Code: models.ErrCodeNotFound, Message: "route not found"},
		})
	})

	return r
}
