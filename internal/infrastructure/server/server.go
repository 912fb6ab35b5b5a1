package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/jsrt/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/jsrt/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/jsrt/internal/jsrt"
)

// StatsSource reports isolate state for /contexts. Implementations must be
// safe to call from the HTTP goroutine.
type StatsSource interface {
	Stats() jsrt.Stats
}

// Config configures the debug server
type Config struct {
	Address     string
	Development bool
}

// Server wraps the debug HTTP server and its dependencies
type Server struct {
	router *gin.Engine
	http   *http.Server
	logger *logging.Logger
}

// New creates the debug server. gatherer backs /metrics; metrics, when set,
// records the server's own requests.
func New(cfg Config, source StatsSource, gatherer prometheus.Gatherer, metrics *monitoring.Metrics, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/contexts", func(c *gin.Context) {
		c.JSON(http.StatusOK, source.Stats())
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Address,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.Component("debug-server"),
	}
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Starting debug server", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down debug server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
