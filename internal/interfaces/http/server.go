// Package http assembles the gin engine and HTTP server for the analysis
// API.
package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/synthbench/reagent/internal/application/analysis"
	"github.com/synthbench/reagent/internal/config"
	"github.com/synthbench/reagent/internal/infrastructure/monitoring/logging"
	"github.com/synthbench/reagent/internal/infrastructure/monitoring/metrics"
	"github.com/synthbench/reagent/internal/interfaces/http/handlers"
	"github.com/synthbench/reagent/internal/interfaces/http/middleware"
)

// Server wraps the configured http.Server.
type Server struct {
	httpServer *http.Server
	logger     logging.Logger
}

// NewRouter builds the gin engine with all middleware and routes mounted.
// m may be nil, which drops the /metrics route.
func NewRouter(cfg config.ServerConfig, service *analysis.Service, logger logging.Logger, m *metrics.Metrics) *gin.Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	gin.SetMode(ginMode(cfg.Mode))

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.Recovery(logger),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	h := handlers.NewAnalysisHandler(service)
	v1 := router.Group("/api/v1")
	{
		v1.POST("/reactions/analyze", h.AnalyzeText)
		v1.POST("/reactions/components", h.AnalyzeComponents)
		v1.POST("/reactions/reresolve", h.ReResolve)
		v1.POST("/reactions/recompute", h.Recompute)
		v1.POST("/reactions/narrative", h.Narrative)
		v1.GET("/compounds/:name", h.LookupCompound)
	}
	return router
}

func ginMode(mode string) string {
	switch mode {
	case "debug":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}

// NewServer builds the HTTP server around the router.
func NewServer(cfg config.ServerConfig, service *analysis.Service, logger logging.Logger, m *metrics.Metrics) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      NewRouter(cfg, service, logger, m),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: logger.Named("server"),
	}
}

// Run blocks serving requests until the listener fails or Shutdown is
// called.
func (s *Server) Run() error {
	s.logger.Info("http server listening", logging.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
