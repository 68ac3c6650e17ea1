package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Ridwan414/shobdotori/internal/conf"
)

const defaultVisitorExpiry = 3 * time.Minute

// NewUploadRateLimiter throttles requests per client IP with an in-memory
// token bucket store. It returns nil when rate limiting is disabled.
func NewUploadRateLimiter(settings conf.RateLimitSettings) echo.MiddlewareFunc {
	if !settings.Enabled {
		return nil
	}
	expires := settings.ExpiresIn
	if expires <= 0 {
		expires = defaultVisitorExpiry
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(settings.Rate),
				Burst:     settings.Burst,
				ExpiresIn: expires,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return ctx.JSON(http.StatusForbidden, map[string]any{
				"success": false,
				"error":   "could not identify client",
			})
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return ctx.JSON(http.StatusTooManyRequests, map[string]any{
				"success": false,
				"error":   "too many uploads, please wait before trying again",
			})
		},
	})
}
