package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/logger"
	"github.com/Ridwan414/shobdotori/internal/storage"
)

// DiskInfo describes the filesystem holding the transcoder scratch space.
type DiskInfo struct {
	Path        string  `json:"path"`
	Total       uint64  `json:"total"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"usedPercent"`
}

// GetServiceInfo handles GET /.
func (c *Controller) GetServiceInfo(ctx echo.Context) error {
	features := []string{
		fmt.Sprintf("%s storage", c.Store.Name()),
		fmt.Sprintf("%s sentence selection", c.Tracker.Selector().Name()),
	}
	if stats, err := c.Tracker.Stats(ctx.Request().Context()); err == nil {
		features = append([]string{
			fmt.Sprintf("%d Bengali sentences", stats.TotalSentences),
			fmt.Sprintf("%d dialects supported", stats.TotalDialects),
			fmt.Sprintf("%d potential recordings", stats.MaxPossible),
		}, features...)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"message":   "Shobdotori dialect recording service",
		"version":   c.BuildInfo.GetVersion(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"features":  features,
	})
}

// HealthCheck handles GET /health.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	status, code := "healthy", http.StatusOK
	database := "connected"
	if c.DB != nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request().Context(), healthTimeout)
		defer cancel()
		if err := c.DB.Ping(pingCtx); err != nil {
			c.logger.Warn("database health check failed", logger.Error(err))
			status, code, database = "unhealthy", http.StatusServiceUnavailable, "disconnected"
		}
	}

	uptime := time.Since(c.startTime)
	return ctx.JSON(code, map[string]any{
		"status":         status,
		"database":       database,
		"version":        c.BuildInfo.GetVersion(),
		"build_date":     c.BuildInfo.GetBuildDate(),
		"uptime":         uptime.Round(time.Second).String(),
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// Ping handles GET /api/ping: database counts, storage reachability and
// free space for transcoding.
func (c *Controller) Ping(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	healthy := true
	body := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if stats, err := c.Tracker.Stats(reqCtx); err != nil {
		healthy = false
		body["database"] = map[string]any{"connected": false, "error": errors.ScrubMessage(err.Error())}
	} else {
		body["database"] = map[string]any{
			"connected":  true,
			"sentences":  stats.TotalSentences,
			"dialects":   stats.TotalDialects,
			"recordings": stats.TotalRecordings,
		}
	}

	pingCtx, cancel := context.WithTimeout(reqCtx, pingTimeout)
	defer cancel()
	if info, err := c.Store.Ping(pingCtx); err != nil {
		healthy = false
		body["storage"] = map[string]any{
			"connected": false,
			"backend":   c.Store.Name(),
			"error":     errors.ScrubMessage(err.Error()),
		}
	} else {
		body["storage"] = struct {
			Connected bool `json:"connected"`
			*storage.PingInfo
		}{true, info}
	}

	if usage, err := c.tempDiskUsage(); err != nil {
		c.logger.Debug("temp disk usage unavailable", logger.Error(err))
	} else {
		body["disk"] = usage
	}

	code := http.StatusOK
	body["status"] = "ok"
	if !healthy {
		code = http.StatusServiceUnavailable
		body["status"] = "error"
	}
	return ctx.JSON(code, body)
}

func (c *Controller) tempDiskUsage() (*DiskInfo, error) {
	path := os.TempDir()
	if c.Settings != nil && c.Settings.Upload.TempDir != "" {
		path = c.Settings.Upload.TempDir
	}
	usage, err := disk.Usage(path)
	if err != nil {
		return nil, err
	}
	return &DiskInfo{
		Path:        path,
		Total:       usage.Total,
		Free:        usage.Free,
		UsedPercent: usage.UsedPercent,
	}, nil
}
