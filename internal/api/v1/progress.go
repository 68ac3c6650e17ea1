package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Ridwan414/shobdotori/internal/tracker"
)

// DialectProgressResponse is the body of GET /api/progress?dialect=.
type DialectProgressResponse struct {
	Success          bool                  `json:"success"`
	Dialect          DialectProgress       `json:"dialect"`
	RecentRecordings []tracker.LedgerEntry `json:"recentRecordings"`
}

// DialectProgress is the progress of one dialect.
type DialectProgress struct {
	Code string `json:"code"`
	Name string `json:"name"`
	*tracker.ProgressReport
}

// GetProgress handles GET /api/progress. With a dialect it reports that
// dialect and its most recent recordings, without one it summarizes all.
func (c *Controller) GetProgress(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	if dialect, ok := dialectParam(ctx); ok {
		report, err := c.Tracker.GetProgress(reqCtx, dialect)
		if err != nil {
			return c.HandleError(ctx, err, "Failed to get progress")
		}
		full, err := c.Tracker.GetDialect(reqCtx, dialect)
		if err != nil {
			return c.HandleError(ctx, err, "Failed to get progress")
		}
		recent, err := c.Tracker.RecentRecordings(reqCtx, dialect, recentRecordingsLimit)
		if err != nil {
			return c.HandleError(ctx, err, "Failed to get progress")
		}

		return ctx.JSON(http.StatusOK, DialectProgressResponse{
			Success: true,
			Dialect: DialectProgress{
				Code:           full.Code,
				Name:           full.Name,
				ProgressReport: report,
			},
			RecentRecordings: recent,
		})
	}

	summary, err := c.Tracker.Summary(reqCtx)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get progress")
	}
	dialects, err := c.Tracker.ListDialects(reqCtx)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get progress")
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"summary":  summary,
		"dialects": dialects,
	})
}

// GetRecordings handles GET /api/recordings?dialect=&page=&limit=.
func (c *Controller) GetRecordings(ctx echo.Context) error {
	dialect, ok := dialectParam(ctx)
	if !ok {
		return c.BadRequest(ctx, "Dialect parameter is required")
	}

	page, err := intQueryParam(ctx, "page", 1)
	if err != nil {
		return c.BadRequest(ctx, "page must be a positive integer")
	}
	limit, err := intQueryParam(ctx, "limit", tracker.DefaultPageLimit)
	if err != nil {
		return c.BadRequest(ctx, "limit must be a positive integer")
	}

	result, err := c.Tracker.ListRecordings(ctx.Request().Context(), dialect, page, limit)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get recordings")
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"dialect":    result.Dialect,
		"recordings": result.Recordings,
		"pagination": map[string]any{
			"current": result.Page,
			"limit":   result.Limit,
			"pages":   result.Pages,
			"total":   result.Total,
			"hasNext": result.HasNext,
			"hasPrev": result.HasPrev,
		},
	})
}

// GetStats handles GET /api/stats.
func (c *Controller) GetStats(ctx echo.Context) error {
	stats, err := c.Tracker.Stats(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get statistics")
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"success": true,
		"stats":   stats,
	})
}

// intQueryParam parses a positive integer query parameter, returning def when absent.
func intQueryParam(ctx echo.Context, name string, def int) (int, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
