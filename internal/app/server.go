// File: internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"session_broker_backend/internal/common"
	"session_broker_backend/internal/config"
	"session_broker_backend/internal/cookie"
	"session_broker_backend/internal/jobs"
	"session_broker_backend/internal/metrics"
	"session_broker_backend/internal/middleware"
	"session_broker_backend/internal/profile"
	"session_broker_backend/internal/session"
	"session_broker_backend/internal/shared"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	sessionHandler *session.Handler
	profileHandler *profile.Handler

	reconcileJob *jobs.ProfileReconcileJob
	limiter      *middleware.RateLimiter
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	sessionHandler *session.Handler,
	profileHandler *profile.Handler,
	provider shared.IdentityProvider,
	transport *cookie.Transport,
	limiter *middleware.RateLimiter,
	collector *metrics.Collector,
	reconcileJob *jobs.ProfileReconcileJob,
) (*Server, error) {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{strings.TrimRight(cfg.FrontendURL, "/")}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", common.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", common.RequestIDHeader}
	if err := corsConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid CORS configuration: %w", err)
	}
	router.Use(cors.New(corsConfig))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	authMW := middleware.AuthMiddleware(provider, transport, logger)
	var limitMW gin.HandlerFunc
	if limiter != nil {
		limitMW = limiter.Middleware()
	}

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Session broker is healthy!"})
	})
	if collector != nil {
		router.GET("/metrics", gin.WrapH(collector.Handler()))
	}

	v1 := router.Group("/api/v1")
	sessionHandler.RegisterRoutes(v1, limitMW)
	profileHandler.RegisterRoutes(v1, authMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:     httpServer,
		router:         router,
		cfg:            cfg,
		logger:         logger,
		sessionHandler: sessionHandler,
		profileHandler: profileHandler,
		reconcileJob:   reconcileJob,
		limiter:        limiter,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	if s.reconcileJob != nil {
		if err := s.reconcileJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start profile reconcile job", zap.Error(err))
		}
	} else {
		s.logger.Info("Profile reconcile job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.reconcileJob != nil {
		s.reconcileJob.Stop()
	}
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
