// internal/api/v1/api.go
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"

	"github.com/Ridwan414/shobdotori/internal/buildinfo"
	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/logger"
	"github.com/Ridwan414/shobdotori/internal/recorder"
	"github.com/Ridwan414/shobdotori/internal/storage"
	"github.com/Ridwan414/shobdotori/internal/tracker"
)

const (
	dialectsCacheKey = "dialects"
	dialectsCacheTTL = 30 * time.Second

	recentRecordingsLimit = 10
	pingTimeout           = 10 * time.Second
	healthTimeout         = 2 * time.Second
)

// GetLogger returns the v1 API logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

// DatabasePinger checks the database connection.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services the controller serves.
type Dependencies struct {
	Tracker   *tracker.Tracker
	Pipeline  *recorder.Pipeline
	Admin     *recorder.Admin
	Store     storage.Store
	Folders   *storage.FolderMapper
	DB        DatabasePinger
	BuildInfo buildinfo.BuildInfo
}

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Settings *conf.Settings

	Tracker   *tracker.Tracker
	Pipeline  *recorder.Pipeline
	Admin     *recorder.Admin
	Store     storage.Store
	Folders   *storage.FolderMapper
	DB        DatabasePinger
	BuildInfo buildinfo.BuildInfo

	dialectCache     *cache.Cache
	uploadMiddleware []echo.MiddlewareFunc
	logger           logger.Logger
	startTime        time.Time
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithUploadMiddleware adds middleware to the upload route only, for
// example the per-client rate limiter.
func WithUploadMiddleware(mw echo.MiddlewareFunc) Option {
	return func(c *Controller) {
		if mw != nil {
			c.uploadMiddleware = append(c.uploadMiddleware, mw)
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New creates the API controller and registers its routes on e.
func New(e *echo.Echo, settings *conf.Settings, deps Dependencies, opts ...Option) (*Controller, error) {
	switch {
	case deps.Tracker == nil:
		return nil, fmt.Errorf("api: tracker is required")
	case deps.Pipeline == nil:
		return nil, fmt.Errorf("api: upload pipeline is required")
	case deps.Admin == nil:
		return nil, fmt.Errorf("api: admin is required")
	case deps.Store == nil:
		return nil, fmt.Errorf("api: storage is required")
	case deps.Folders == nil:
		return nil, fmt.Errorf("api: folder mapper is required")
	}

	c := &Controller{
		Echo:         e,
		Group:        e.Group("/api"),
		Settings:     settings,
		Tracker:      deps.Tracker,
		Pipeline:     deps.Pipeline,
		Admin:        deps.Admin,
		Store:        deps.Store,
		Folders:      deps.Folders,
		DB:           deps.DB,
		BuildInfo:    deps.BuildInfo,
		dialectCache: cache.New(dialectsCacheTTL, 2*dialectsCacheTTL),
		logger:       GetLogger(),
		startTime:    time.Now(),
	}
	if c.BuildInfo == nil {
		c.BuildInfo = buildinfo.New("", "")
	}
	for _, opt := range opts {
		opt(c)
	}

	c.initRoutes()
	return c, nil
}

func (c *Controller) initRoutes() {
	c.Echo.GET("/", c.GetServiceInfo)
	c.Echo.GET("/health", c.HealthCheck)

	c.Group.GET("/ping", c.Ping)
	c.Group.GET("/dialects", c.GetDialects)
	c.Group.GET("/next-sentence", c.GetNextSentence)
	c.Group.GET("/next-index", c.GetNextIndex)
	c.Group.POST("/upload", c.UploadRecording, c.uploadMiddleware...)
	c.Group.GET("/progress", c.GetProgress)
	c.Group.GET("/recordings", c.GetRecordings)
	c.Group.GET("/stats", c.GetStats)
	c.Group.GET("/files", c.GetFiles)
	c.Group.DELETE("/dialect", c.DeleteDialect)
	c.Group.POST("/reconcile", c.Reconcile)
}

// InvalidateDialects drops the cached dialect list.
func (c *Controller) InvalidateDialects() {
	c.dialectCache.Delete(dialectsCacheKey)
}

// Shutdown releases controller resources.
func (c *Controller) Shutdown() {
	c.dialectCache.Flush()
}
