package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/Ridwan414/shobdotori/internal/api/middleware"
	v1 "github.com/Ridwan414/shobdotori/internal/api/v1"
	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/logger"
	"github.com/Ridwan414/shobdotori/internal/observability"
)

// Server is the HTTP server of the recording service.
// It manages the Echo instance, the middleware stack and all HTTP routes.
type Server struct {
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings
	logger   logger.Logger

	deps    v1.Dependencies
	metrics *observability.Metrics

	apiController *v1.Controller

	errCh     chan error
	startTime time.Time
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics exposes the registry on the metrics path when metrics are enabled.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a new HTTP server with the given settings and services.
func New(settings *conf.Settings, deps v1.Dependencies, opts ...ServerOption) (*Server, error) {
	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:    config,
		settings:  settings,
		deps:      deps,
		logger:    GetLogger(),
		errCh:     make(chan error, 1),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Debug = config.Debug

	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}

	s.logger.Info("HTTP server initialized",
		logger.String("address", config.Address()),
		logger.String("body_limit", config.BodyLimit),
		logger.Bool("rate_limit", config.RateLimit.Enabled),
		logger.Bool("debug", config.Debug))

	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware - should be first
	s.echo.Use(echomw.Recover())

	s.echo.Use(mw.NewRequestLoggerWithSkipper(logger.Global().Module("access"), func(c echo.Context) bool {
		return c.Request().URL.Path == s.config.MetricsPath
	}))

	securityConfig := mw.DefaultSecurityConfig()
	securityConfig.AllowedOrigins = s.config.AllowedOrigins

	s.echo.Use(mw.NewCORS(securityConfig))
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))
	s.echo.Use(mw.NewGzip(s.config.MetricsPath))
	s.echo.Use(mw.NewSecureHeaders(securityConfig))

	if spa := newSPAMiddleware(s.config.StaticDir, s.config.MetricsPath); spa != nil {
		s.echo.Use(spa)
		s.logger.Info("serving recording frontend", logger.String("path", s.config.StaticDir))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() error {
	var opts []v1.Option
	if limiter := mw.NewUploadRateLimiter(s.config.RateLimit); limiter != nil {
		opts = append(opts, v1.WithUploadMiddleware(limiter))
	}

	controller, err := v1.New(s.echo, s.settings, s.deps, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize API: %w", err)
	}
	s.apiController = controller

	if s.config.MetricsEnabled && s.metrics != nil {
		s.echo.GET(s.config.MetricsPath, echo.WrapHandler(s.metrics.Handler()))
		s.logger.Info("metrics endpoint enabled", logger.String("path", s.config.MetricsPath))
	}

	return nil
}

// Start begins serving HTTP requests in a background goroutine.
// Serve errors are delivered on Errors.
func (s *Server) Start() {
	go func() {
		if err := s.startBlocking(); err != nil {
			s.logger.Error("server error", logger.Error(err))
			s.errCh <- err
		}
	}()
}

// Errors returns a channel that receives a fatal serve error.
func (s *Server) Errors() <-chan error {
	return s.errCh
}

// startBlocking begins serving HTTP requests and blocks until the server is shut down.
func (s *Server) startBlocking() error {
	addr := s.config.Address()
	s.logger.Info("starting HTTP server", logger.String("address", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartWithGracefulShutdown starts the server and blocks until ctx is
// cancelled, SIGINT or SIGTERM arrives, or the server fails.
func (s *Server) StartWithGracefulShutdown(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s.Start()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, initiating graceful shutdown")
	case err := <-s.errCh:
		return err
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server, waiting for in-flight uploads up
// to the shutdown timeout.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if s.apiController != nil {
		s.apiController.Shutdown()
	}

	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.Error("error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.logger.Info("server shutdown complete",
		logger.Duration("uptime", time.Since(s.startTime).Round(time.Second)))
	return nil
}

// APIController returns the v1 API controller.
func (s *Server) APIController() *v1.Controller {
	return s.apiController
}

// Echo returns the underlying Echo instance.
// This is useful for testing or advanced configuration.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
