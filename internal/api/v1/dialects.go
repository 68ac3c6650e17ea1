package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Ridwan414/shobdotori/internal/tracker"
)

// ProgressInfo is the progress block attached to sentence responses.
type ProgressInfo struct {
	Recorded   int    `json:"recorded"`
	Total      int    `json:"total"`
	Percentage string `json:"percentage"`
	Remaining  int    `json:"remaining"`
	Status     string `json:"status"`
}

// NextSentenceResponse is the body of GET /api/next-sentence.
type NextSentenceResponse struct {
	Success  bool              `json:"success"`
	Message  string            `json:"message,omitempty"`
	Dialect  string            `json:"dialect"`
	Policy   string            `json:"policy"`
	Sentence *tracker.Sentence `json:"sentence"`
	Progress ProgressInfo      `json:"progress"`
}

// NextIndexResponse is the body of GET /api/next-index.
type NextIndexResponse struct {
	Success    bool   `json:"success"`
	Dialect    string `json:"dialect"`
	NextIndex  int    `json:"next_index"`
	Recorded   int    `json:"recorded_sentences"`
	Total      int    `json:"total_sentences"`
	Percentage string `json:"completion_percentage"`
}

// dialectParam reads the required dialect query parameter.
func dialectParam(ctx echo.Context) (string, bool) {
	dialect := strings.TrimSpace(ctx.QueryParam("dialect"))
	return dialect, dialect != ""
}

func progressInfo(report *tracker.ProgressReport) ProgressInfo {
	return ProgressInfo{
		Recorded:   report.Recorded,
		Total:      report.Total,
		Percentage: report.Percentage,
		Remaining:  report.Remaining,
		Status:     string(report.Status),
	}
}

// GetDialects handles GET /api/dialects. The list is cached briefly and
// dropped whenever a recording is committed or a dialect is wiped.
func (c *Controller) GetDialects(ctx echo.Context) error {
	if cached, found := c.dialectCache.Get(dialectsCacheKey); found {
		if dialects, ok := cached.([]tracker.DialectSummary); ok {
			return ctx.JSON(http.StatusOK, map[string]any{
				"success":  true,
				"dialects": dialects,
			})
		}
	}

	dialects, err := c.Tracker.ListDialects(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to fetch dialects")
	}
	c.dialectCache.Set(dialectsCacheKey, dialects, dialectsCacheTTL)

	return ctx.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"dialects": dialects,
	})
}

// GetNextSentence handles GET /api/next-sentence?dialect=. A completed
// dialect answers 200 with a null sentence.
func (c *Controller) GetNextSentence(ctx echo.Context) error {
	dialect, ok := dialectParam(ctx)
	if !ok {
		return c.BadRequest(ctx, "Dialect parameter is required")
	}
	reqCtx := ctx.Request().Context()

	sentence, err := c.Tracker.SelectNext(reqCtx, dialect)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get next sentence")
	}
	report, err := c.Tracker.GetProgress(reqCtx, dialect)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get next sentence")
	}

	resp := NextSentenceResponse{
		Success:  true,
		Dialect:  report.Code,
		Policy:   c.Tracker.Selector().Name(),
		Sentence: sentence,
		Progress: progressInfo(report),
	}
	if sentence == nil {
		resp.Message = "All sentences recorded for this dialect"
	}
	return ctx.JSON(http.StatusOK, resp)
}

// GetNextIndex handles GET /api/next-index?dialect=. The index is
// provisional; the upload commit assigns the authoritative one.
func (c *Controller) GetNextIndex(ctx echo.Context) error {
	dialect, ok := dialectParam(ctx)
	if !ok {
		return c.BadRequest(ctx, "Dialect parameter is required")
	}
	reqCtx := ctx.Request().Context()

	report, err := c.Tracker.GetProgress(reqCtx, dialect)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get next index")
	}
	next, err := c.Tracker.NextIndex(reqCtx, dialect)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get next index")
	}

	return ctx.JSON(http.StatusOK, NextIndexResponse{
		Success:    true,
		Dialect:    report.Code,
		NextIndex:  next,
		Recorded:   report.Recorded,
		Total:      report.Total,
		Percentage: report.Percentage,
	})
}
