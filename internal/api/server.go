// =============================
// File: internal/api/server.go
// =============================
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/biswap-org/curve-launchpad/internal/launchpad"
	"github.com/biswap-org/curve-launchpad/internal/storage"
)

// Server exposes the launchpad over HTTP.
type Server struct {
	logger     *zap.Logger
	service    *launchpad.Service
	store      storage.Storage
	httpServer *http.Server
}

// Options tunes the HTTP surface.
type Options struct {
	ListenAddr     string
	MetricsEnabled bool
	// Store backs the receipt history endpoints; without it they 404.
	Store storage.Storage
}

// NewServer wires the router. The caller owns the service lifecycle.
func NewServer(logger *zap.Logger, service *launchpad.Service, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		logger:  logger.Named("api"),
		service: service,
		store:   opts.Store,
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", s.health)
	if opts.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	v1 := router.Group("/v1")
	{
		v1.GET("/config", s.getConfig)
		v1.GET("/curves", s.listCurves)
		v1.POST("/curves", s.createCurve)
		v1.GET("/curves/:mint", s.getCurve)
		v1.GET("/curves/:mint/quote", s.quote)
		v1.POST("/curves/:mint/buy", s.buy)
		v1.POST("/curves/:mint/sell", s.sell)
		v1.POST("/curves/:mint/withdraw", s.withdraw)

		if opts.Store != nil {
			v1.GET("/receipts", s.listReceipts)
			v1.GET("/receipts/:id", s.getReceipt)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/initialize", s.initialize)
			admin.POST("/authority", s.setAuthority)
			admin.POST("/fee", s.setFee)
			admin.POST("/params", s.setParams)
			admin.POST("/paused", s.setPaused)
		}
	}

	s.httpServer = &http.Server{
		Addr:              opts.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until Shutdown or a listener failure.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
