package api

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Ridwan414/shobdotori/internal/logger"
)

// SPA handler constants
const (
	// indexHTMLPath is the path to the index.html file within the static directory
	indexHTMLPath = "index.html"

	// cacheControlNoCache disables caching for the HTML shell
	cacheControlNoCache = "no-cache, no-store, must-revalidate"
)

// isAPIPath reports paths that are never served from the static directory.
func isAPIPath(path, metricsPath string) bool {
	switch {
	case path == "/api" || strings.HasPrefix(path, "/api/"):
		return true
	case path == "/health":
		return true
	case metricsPath != "" && path == metricsPath:
		return true
	}
	return false
}

// newSPAMiddleware serves the built frontend from dir. Unknown non-API paths
// fall back to index.html so client-side routes survive reloads; "/" serves
// index.html instead of the service banner. It returns nil when dir is
// empty or has no index.html.
func newSPAMiddleware(dir, metricsPath string) echo.MiddlewareFunc {
	if dir == "" {
		return nil
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		GetLogger().Warn("static directory unavailable, frontend disabled",
			logger.String("path", dir),
			logger.Error(err))
		return nil
	}
	defer func() { _ = root.Close() }()
	if _, err := root.Stat(indexHTMLPath); err != nil {
		GetLogger().Warn("static directory has no index.html, frontend disabled",
			logger.String("path", filepath.Join(dir, indexHTMLPath)))
		return nil
	}

	static := echomw.StaticWithConfig(echomw.StaticConfig{
		Root:  dir,
		Index: indexHTMLPath,
		HTML5: true,
		Skipper: func(c echo.Context) bool {
			return isAPIPath(c.Request().URL.Path, metricsPath)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		serve := static(next)
		return func(c echo.Context) error {
			if p := c.Request().URL.Path; p == "/" || p == "/"+indexHTMLPath {
				c.Response().Header().Set(echo.HeaderCacheControl, cacheControlNoCache)
			}
			return serve(c)
		}
	}
}
