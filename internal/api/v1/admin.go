package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Ridwan414/shobdotori/internal/logger"
	"github.com/Ridwan414/shobdotori/internal/storage"
	"github.com/Ridwan414/shobdotori/internal/tracker"
)

// DeleteDialectRequest is the body of DELETE /api/dialect.
type DeleteDialectRequest struct {
	DialectName string `json:"dialectName"`
}

// GetFiles handles GET /api/files. With a dialect it lists that dialect's
// folder, without one every folder with its file count.
func (c *Controller) GetFiles(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	if dialect, ok := dialectParam(ctx); ok {
		folder := c.Folders.Folder(dialect)
		files, err := c.Store.List(reqCtx, folder)
		if err != nil {
			return c.HandleError(ctx, err, "Failed to list files")
		}
		if files == nil {
			files = []storage.Object{}
		}
		return ctx.JSON(http.StatusOK, map[string]any{
			"success": true,
			"dialect": storage.SanitizeDialect(dialect),
			"folder":  folder,
			"files":   files,
			"total":   len(files),
		})
	}

	folders, err := c.Store.ListFolders(reqCtx)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list files")
	}
	if folders == nil {
		folders = []storage.Folder{}
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"success": true,
		"folders": folders,
		"total":   len(folders),
	})
}

// DeleteDialect handles DELETE /api/dialect: every stored recording of the
// dialect is deleted and its progress reset. Storage failures are listed in
// the summary and do not fail the request.
func (c *Controller) DeleteDialect(ctx echo.Context) error {
	var req DeleteDialectRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(ctx, "Invalid request body")
	}
	if strings.TrimSpace(req.DialectName) == "" {
		return c.BadRequest(ctx, "dialectName is required in request body")
	}

	result, err := c.Admin.WipeDialect(ctx.Request().Context(), req.DialectName)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to delete dialect data")
	}
	c.InvalidateDialects()

	c.logger.Warn("dialect deleted via API",
		logger.String("dialect", result.DialectCode),
		logger.String("ip", ctx.RealIP()),
		logger.Int("failed_files", result.FailedFiles))

	return ctx.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Successfully deleted all data for dialect: " + result.DialectCode,
		"summary": result,
	})
}

// Reconcile handles POST /api/reconcile[?dialect=].
func (c *Controller) Reconcile(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var reports []*tracker.ReconcileReport
	if dialect, ok := dialectParam(ctx); ok {
		report, err := c.Tracker.Reconcile(reqCtx, dialect)
		if err != nil {
			return c.HandleError(ctx, err, "Reconciliation failed")
		}
		reports = []*tracker.ReconcileReport{report}
	} else {
		all, err := c.Tracker.ReconcileAll(reqCtx)
		if err != nil {
			return c.HandleError(ctx, err, "Reconciliation failed")
		}
		reports = all
	}

	repaired := 0
	for _, r := range reports {
		repaired += r.Repaired
	}
	if repaired > 0 {
		c.InvalidateDialects()
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"reports":  reports,
		"repaired": repaired,
	})
}
