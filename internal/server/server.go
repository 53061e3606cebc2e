// Package server assembles the HTTP service from its components.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	httpapi "github.com/iccyuan/search-browser/internal/api/http"
	"github.com/iccyuan/search-browser/internal/api/middleware"
	"github.com/iccyuan/search-browser/internal/driver"
	"github.com/iccyuan/search-browser/internal/infrastructure/config"
	"github.com/iccyuan/search-browser/internal/infrastructure/logging"
	"github.com/iccyuan/search-browser/internal/infrastructure/monitoring"
	"github.com/iccyuan/search-browser/internal/infrastructure/resilience"
	"github.com/iccyuan/search-browser/internal/orchestrator"
	"github.com/iccyuan/search-browser/internal/queue"
	"github.com/iccyuan/search-browser/internal/snapshot"
)

// Service identity reported by /health.
const (
	ServiceName = "search-browser"
	Version     = "1.0.0"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg        *config.Config
	logger     *logging.Logger
	metrics    *monitoring.Metrics
	serializer *queue.Serializer
	httpServer *http.Server
}

// New builds a fully wired server from configuration.
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	metrics := monitoring.NewMetrics()

	breaker := resilience.NewBreaker("browser-cli", resilience.BreakerSettings{
		OnStateChange: func(name string, from, to resilience.BreakerState) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	runner := driver.NewCommandRunner(cfg.Tool.Binary, cfg.Tool.MaxOutputBytes, breaker, metrics, logger)
	client := driver.NewClient(runner, cfg.Tool)
	sessions := driver.NewSessions(client, logger)

	exclusions, err := cfg.LoadExclusions()
	if err != nil {
		return nil, fmt.Errorf("failed to load exclusion patterns: %w", err)
	}
	parser := snapshot.NewParser(exclusions)
	scorer := snapshot.NewScorer(cfg.Search.RelevanceThreshold, cfg.Search.MinKeywordLength)
	retry := resilience.NewPolicy(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay)

	orch := orchestrator.New(client, sessions, parser, scorer, retry, cfg.Search, logger)
	serializer := queue.NewSerializer(metrics, logger)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	router.Use(monitoring.Middleware(metrics))

	handlers := httpapi.NewHandlers(orch, serializer, logger, ServiceName, Version)
	handlers.Register(router, metrics)

	return &Server{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		serializer: serializer,
		httpServer: &http.Server{
			Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Start listens and serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("server listening",
		zap.String("addr", s.httpServer.Addr),
		zap.String("service", ServiceName),
		zap.String("version", Version),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, drains in-flight work, and stops the
// operation queue.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	err := s.httpServer.Shutdown(ctx)
	s.serializer.Close()
	return err
}
