// Package server exposes the extraction pipeline over HTTP: single-URL
// and batch extraction, CSV/XLSX uploads, screenshot uploads, and an XLSX
// export of batch results.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bazaarlens/bazaarlens/internal/async"
	"github.com/bazaarlens/bazaarlens/internal/common"
	"github.com/bazaarlens/bazaarlens/internal/pipeline"
	"github.com/bazaarlens/bazaarlens/internal/recovery"
)

// Extractor is the pipeline surface the handlers need.
type Extractor interface {
	ProcessURL(ctx context.Context, req pipeline.Request) recovery.Result
	ProcessImage(ctx context.Context, imagePath string, names []string) recovery.Result
}

// Server holds the HTTP surface and its dependencies.
type Server struct {
	cfg       common.ServerConfig
	processor Extractor
	pool      *async.Pool
	limiter   *limiter.Limiter
	logger    *slog.Logger
}

func New(cfg common.ServerConfig, processor Extractor, pool *async.Pool, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	lim := tollbooth.NewLimiter(cfg.RateLimitPerSec, nil)
	return &Server{
		cfg:       cfg,
		processor: processor,
		pool:      pool,
		limiter:   lim,
		logger:    logger,
	}
}

// Router builds the Gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog(), s.rateLimit())

	r.GET("/healthz", s.handleHealthz)

	api := r.Group("/api")
	{
		api.POST("/extract", s.handleExtract)
		api.POST("/extract/batch", s.handleExtractBatch)
		api.POST("/upload-csv", s.handleUploadCSV)
		api.POST("/upload-image", s.handleUploadImage)
		api.POST("/process-image-urls", s.handleProcessImageURLs)
		api.POST("/export", s.handleExport)
		api.GET("/fields", s.handleFields)
	}
	return r
}

// HTTPServer wraps the router in an http.Server with sane timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.cfg.RequestTimeout,
	}
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if httpErr := tollbooth.LimitByRequest(s.limiter, c.Writer, c.Request); httpErr != nil {
			c.AbortWithStatusJSON(httpErr.StatusCode, gin.H{"error": httpErr.Message})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := uuid.New().String()
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), reqID))
		c.Next()
		s.logger.Info("server.request",
			"req_id", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
